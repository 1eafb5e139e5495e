package repo

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/url"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/google/uuid"

	"github.com/TRIBUI106/czGDriveDownloader/internal/data"
)

// PostgresRepo implements TaskRepo backed by PostgreSQL. Tasks live in a
// `gdrive_tasks` table indexed by batch.
type PostgresRepo struct {
	db *sql.DB
}

var _ TaskRepo = (*PostgresRepo)(nil)

// NewPostgresRepo constructs a repository using the provided DSN.
func NewPostgresRepo(dsn string) (*PostgresRepo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	r := &PostgresRepo{db: db}
	if err := r.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// NewPostgresRepoFromEnv constructs a DSN from the environment. A full
// DATABASE_URL wins; otherwise the DSN is assembled from component env vars
// (with defaults):
//
//	POSTGRES_HOST (postgres), POSTGRES_PORT (5432), POSTGRES_DB (gdrive),
//	POSTGRES_USER (gdrive), POSTGRES_PASSWORD (empty), POSTGRES_SSLMODE (disable)
//
// Credentials and db name are URL-encoded to handle special characters safely.
func NewPostgresRepoFromEnv() (*PostgresRepo, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return NewPostgresRepo(dsn)
	}
	host := getenv("POSTGRES_HOST", "postgres")
	port := getenv("POSTGRES_PORT", "5432")
	db := getenv("POSTGRES_DB", "gdrive")
	user := getenv("POSTGRES_USER", "gdrive")
	pass := getenv("POSTGRES_PASSWORD", "")
	ssl := getenv("POSTGRES_SSLMODE", "disable")

	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, pass),
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + db,
	}
	q := url.Values{}
	q.Set("sslmode", ssl)
	u.RawQuery = q.Encode()
	return NewPostgresRepo(u.String())
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func (r *PostgresRepo) Close() error { return r.db.Close() }

func (r *PostgresRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS gdrive_tasks (
    id UUID PRIMARY KEY,
    batch_id TEXT NOT NULL DEFAULT '',
    link TEXT NOT NULL DEFAULT '',
    resource_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    subpath TEXT NOT NULL DEFAULT '',
    filename TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    bytes BIGINT NOT NULL DEFAULT 0,
    total_bytes BIGINT NOT NULL DEFAULT 0,
    error_detail TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
`)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS gdrive_tasks_batch_idx ON gdrive_tasks (batch_id)`)
	return err
}

// List implements TaskReader.List
func (r *PostgresRepo) List(ctx context.Context) (data.Tasks, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id,batch_id,link,resource_id,kind,subpath,filename,status,bytes,total_bytes,error_detail,created_at,updated_at FROM gdrive_tasks ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out data.Tasks
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListByBatch implements TaskReader.ListByBatch
func (r *PostgresRepo) ListByBatch(ctx context.Context, batchID string) (data.Tasks, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id,batch_id,link,resource_id,kind,subpath,filename,status,bytes,total_bytes,error_detail,created_at,updated_at FROM gdrive_tasks WHERE batch_id=$1 ORDER BY created_at ASC`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(data.Tasks, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Get implements TaskReader.Get
func (r *PostgresRepo) Get(ctx context.Context, id string) (*data.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id,batch_id,link,resource_id,kind,subpath,filename,status,bytes,total_bytes,error_detail,created_at,updated_at FROM gdrive_tasks WHERE id=$1`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, data.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// Add implements TaskWriter.Add
func (r *PostgresRepo) Add(ctx context.Context, t *data.Task) (*data.Task, error) {
	id := t.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	created := t.CreatedAt
	if created.IsZero() {
		created = now
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO gdrive_tasks (id,batch_id,link,resource_id,kind,subpath,filename,status,bytes,total_bytes,error_detail,created_at,updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		id, t.BatchID, t.Link, t.Ref.ID, string(t.Ref.Kind), t.Subpath, t.Filename, string(t.Status), t.Bytes, t.TotalBytes, t.ErrorDetail, created, now)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Update implements TaskWriter.Update by fetching, mutating, and writing back.
func (r *PostgresRepo) Update(ctx context.Context, id string, mutate func(*data.Task) error) (*data.Task, error) {
	// Serialize updates per row using a transaction with SELECT ... FOR UPDATE
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		// Safe rollback when not committed
		_ = tx.Rollback()
	}()

	// Load the latest row under lock
	row := tx.QueryRowContext(ctx, `SELECT id,batch_id,link,resource_id,kind,subpath,filename,status,bytes,total_bytes,error_detail,created_at,updated_at FROM gdrive_tasks WHERE id=$1 FOR UPDATE`, id)
	cur, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, data.ErrNotFound
		}
		return nil, err
	}

	next := cur.Clone()
	if mutate != nil {
		if err := mutate(next); err != nil {
			return nil, err
		}
	}

	// If no effective change, return current
	if equalTasks(cur, next) {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return cur, nil
	}

	// Identity, batch membership and creation time are immutable.
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE gdrive_tasks SET link=$1, resource_id=$2, kind=$3, subpath=$4, filename=$5, status=$6, bytes=$7, total_bytes=$8, error_detail=$9, updated_at=$10 WHERE id=$11`,
		next.Link, next.Ref.ID, string(next.Ref.Kind), next.Subpath, next.Filename, string(next.Status), next.Bytes, next.TotalBytes, next.ErrorDetail, now, id); err != nil {
		return nil, err
	}

	// Return the updated snapshot from within the txn for consistency
	row2 := tx.QueryRowContext(ctx, `SELECT id,batch_id,link,resource_id,kind,subpath,filename,status,bytes,total_bytes,error_detail,created_at,updated_at FROM gdrive_tasks WHERE id=$1`, id)
	updated, err := scanTask(row2)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete implements TaskWriter.Delete
func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM gdrive_tasks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return data.ErrNotFound
	}
	return nil
}

// Helpers

type rowScanner interface{ Scan(dest ...any) error }

func scanTask(rs rowScanner) (*data.Task, error) {
	var (
		id, batchID, link, resourceID, kind, subpath, filename, status, detail string
		bytes, total                                                           int64
		created, updated                                                       time.Time
	)
	if err := rs.Scan(&id, &batchID, &link, &resourceID, &kind, &subpath, &filename, &status, &bytes, &total, &detail, &created, &updated); err != nil {
		return nil, err
	}
	return &data.Task{
		ID:          id,
		BatchID:     batchID,
		Link:        link,
		Ref:         data.ResourceRef{ID: resourceID, Kind: data.ResourceKind(kind)},
		Subpath:     subpath,
		Filename:    filename,
		Status:      data.TaskStatus(status),
		Bytes:       bytes,
		TotalBytes:  total,
		ErrorDetail: detail,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

// equalTasks ignores UpdatedAt, which moves on every write.
func equalTasks(a, b *data.Task) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.BatchID == b.BatchID && a.Link == b.Link &&
		a.Ref == b.Ref && a.Subpath == b.Subpath && a.Filename == b.Filename &&
		a.Status == b.Status && a.Bytes == b.Bytes && a.TotalBytes == b.TotalBytes &&
		a.ErrorDetail == b.ErrorDetail && a.CreatedAt.Equal(b.CreatedAt)
}
