package repo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TRIBUI106/czGDriveDownloader/internal/data"
)

type InMemoryTaskRepo struct {
	mu    sync.RWMutex
	tasks data.Tasks
}

func NewInMemoryTaskRepo() *InMemoryTaskRepo {
	return &InMemoryTaskRepo{
		tasks: make(data.Tasks, 0),
	}
}

var _ TaskRepo = (*InMemoryTaskRepo)(nil)

func (r *InMemoryTaskRepo) List(ctx context.Context) (data.Tasks, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tasks.Clone(), nil
}

func (r *InMemoryTaskRepo) ListByBatch(ctx context.Context, batchID string) (data.Tasks, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(data.Tasks, 0)
	for _, t := range r.tasks {
		if t.BatchID == batchID {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (r *InMemoryTaskRepo) Get(ctx context.Context, id string) (*data.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, err := r.findByID(id)
	if err != nil {
		return nil, err
	}
	return r.tasks[i].Clone(), nil
}

func (r *InMemoryTaskRepo) Add(ctx context.Context, t *data.Task) (*data.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := t.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	r.tasks = append(r.tasks, stored)
	return stored.Clone(), nil
}

func (r *InMemoryTaskRepo) Update(ctx context.Context, id string, mutate func(*data.Task) error) (*data.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, err := r.findByID(id)
	if err != nil {
		return nil, err
	}
	next := r.tasks[i].Clone()
	if mutate != nil {
		if err := mutate(next); err != nil {
			return nil, err
		}
	}
	// Identity and batch membership are immutable.
	next.ID = id
	next.BatchID = r.tasks[i].BatchID
	next.UpdatedAt = time.Now().UTC()
	r.tasks[i] = next
	return next.Clone(), nil
}

func (r *InMemoryTaskRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, err := r.findByID(id)
	if err != nil {
		return err
	}
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	return nil
}

func (r *InMemoryTaskRepo) findByID(id string) (int, error) {
	for i, t := range r.tasks {
		if t.ID == id {
			return i, nil
		}
	}
	return -1, data.ErrNotFound
}
