// Package transfer streams resolved downloads to disk.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TRIBUI106/czGDriveDownloader/internal/data"
	"github.com/TRIBUI106/czGDriveDownloader/internal/downloadcfg"
	"github.com/TRIBUI106/czGDriveDownloader/internal/drive"
	"github.com/TRIBUI106/czGDriveDownloader/internal/metrics"
	"github.com/TRIBUI106/czGDriveDownloader/internal/progress"
)

// progressInterval throttles progress events so a fast transfer does not
// flood subscribers.
const progressInterval = 500 * time.Millisecond

// renameAttempts bounds the "name (n).ext" probing under the rename policy.
const renameAttempts = 1000

type Engine struct {
	cl   *drive.Client
	rep  progress.Reporter
	log  *slog.Logger
	root string
	opts downloadcfg.TransferOptions
}

func New(log *slog.Logger, cl *drive.Client, rep progress.Reporter, root string, opts downloadcfg.TransferOptions) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if rep == nil {
		rep = progress.NopReporter{}
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = downloadcfg.DefaultChunkSize
	}
	return &Engine{cl: cl, rep: rep, log: log, root: root, opts: opts}
}

// Root returns the output directory transfers land under.
func (e *Engine) Root() string { return e.root }

// Run streams a resolved descriptor to disk and reports the outcome. The
// destination directory (root plus the task's subpath) is created first;
// bytes are copied in configured chunks with throttled progress events. A
// failure leaves any partial file in place.
func (e *Engine) Run(ctx context.Context, t *data.Task, desc *data.Descriptor) data.Outcome {
	out := data.Outcome{TaskID: t.ID, Filename: t.Filename}

	body := desc.Body
	length := desc.Length
	if body == nil {
		resp, err := e.cl.Get(ctx, "export", desc.StreamURL)
		if err != nil {
			out.ErrorDetail = fmt.Sprintf("fetch stream: %v", err)
			return out
		}
		body = resp.Body
		if resp.ContentLength > 0 {
			length = resp.ContentLength
		}
	}
	defer func() { _ = body.Close() }()

	dir := filepath.Join(e.root, filepath.FromSlash(t.Subpath))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		out.ErrorDetail = fmt.Sprintf("create directory: %v", err)
		return out
	}

	f, finalName, err := e.openDest(dir, t.Filename)
	if err != nil {
		out.ErrorDetail = err.Error()
		return out
	}
	out.Filename = finalName

	metrics.ActiveTransfers.Inc()
	defer metrics.ActiveTransfers.Dec()

	written, err := e.copy(t, finalName, f, body, length)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close file: %w", cerr)
	}
	out.Bytes = written
	if err != nil {
		out.ErrorDetail = err.Error()
		e.log.Warn("transfer failed", "task_id", t.ID, "file", finalName, "bytes", written, "err", err)
		return out
	}

	out.Success = true
	e.log.Info("transfer complete", "task_id", t.ID, "file", finalName, "bytes", written)
	return out
}

func (e *Engine) copy(t *data.Task, name string, f *os.File, body io.Reader, total int64) (int64, error) {
	buf := make([]byte, e.opts.ChunkSize)
	var written int64
	lastReport := time.Now()

	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return written, fmt.Errorf("write chunk: %w", werr)
			}
			written += int64(n)
			metrics.TransferBytes.Add(float64(n))

			if time.Since(lastReport) >= progressInterval {
				lastReport = time.Now()
				e.rep.Report(progress.Event{
					Type:    progress.EventProgress,
					TaskID:  t.ID,
					BatchID: t.BatchID,
					Name:    name,
					Progress: &progress.Snapshot{
						Completed: written,
						Total:     total,
						Percent:   progress.PercentOf(written, total),
					},
				})
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return written, fmt.Errorf("read stream: %w", rerr)
		}
	}

	e.rep.Report(progress.Event{
		Type:    progress.EventProgress,
		TaskID:  t.ID,
		BatchID: t.BatchID,
		Name:    name,
		Progress: &progress.Snapshot{
			Completed: written,
			Total:     total,
			Percent:   progress.PercentOf(written, total),
		},
	})
	return written, nil
}

// openDest opens the destination file according to the collision policy and
// returns the file plus the name actually used.
func (e *Engine) openDest(dir, name string) (*os.File, string, error) {
	full := filepath.Join(dir, name)
	switch e.opts.Policy {
	case downloadcfg.CollisionError:
		f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				return nil, name, fmt.Errorf("%w: %s", data.ErrConflict, name)
			}
			return nil, name, fmt.Errorf("open file: %w", err)
		}
		return f, name, nil
	case downloadcfg.CollisionRename:
		candidate := name
		for i := 0; i <= renameAttempts; i++ {
			if i > 0 {
				candidate = renameCandidate(name, i)
			}
			f, err := os.OpenFile(filepath.Join(dir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
			if err == nil {
				return f, candidate, nil
			}
			if !errors.Is(err, os.ErrExist) {
				return nil, candidate, fmt.Errorf("open file: %w", err)
			}
		}
		return nil, name, fmt.Errorf("%w: no free name for %s", data.ErrConflict, name)
	default:
		f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, name, fmt.Errorf("open file: %w", err)
		}
		return f, name, nil
	}
}

func renameCandidate(name string, n int) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", stem, n, ext)
}
