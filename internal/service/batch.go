package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TRIBUI106/czGDriveDownloader/internal/data"
	"github.com/TRIBUI106/czGDriveDownloader/internal/repo"
)

type Batch interface {
	Submit(ctx context.Context, links []string) (*data.Batch, error)
	Get(ctx context.Context, id string) (*data.Batch, error)
	List(ctx context.Context) (data.Batches, error)
	Tasks(ctx context.Context, batchID string) (data.Tasks, error)
	AllTasks(ctx context.Context) (data.Tasks, error)
	GetTask(ctx context.Context, id string) (*data.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Runner executes a submitted batch to completion and reports the summary.
type Runner interface {
	Run(ctx context.Context, batchID string, links []string) data.Summary
}

type batchSvc struct {
	mu      sync.RWMutex
	batches map[string]*data.Batch
	order   []string

	repo   repo.TaskRepo
	runner Runner
	log    *slog.Logger
}

func NewBatch(log *slog.Logger, taskRepo repo.TaskRepo, runner Runner) Batch {
	if log == nil {
		log = slog.Default()
	}
	return &batchSvc{
		batches: make(map[string]*data.Batch),
		repo:    taskRepo,
		runner:  runner,
		log:     log,
	}
}

// Submit accepts a set of share links and starts the batch in the
// background. The returned batch is a snapshot; poll Get for progress.
func (s *batchSvc) Submit(ctx context.Context, links []string) (*data.Batch, error) {
	cleaned := make([]string, 0, len(links))
	for _, l := range links {
		if trimmed := strings.TrimSpace(l); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, data.ErrNoLinks
	}

	b := &data.Batch{
		ID:        uuid.NewString(),
		Status:    data.BatchPending,
		Links:     cleaned,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.batches[b.ID] = b
	s.order = append(s.order, b.ID)
	s.mu.Unlock()

	// The run outlives the submit request.
	go s.run(b.ID, cleaned)

	s.log.Info("batch submitted", "batch_id", b.ID, "links", len(cleaned))
	return b.Clone(), nil
}

func (s *batchSvc) run(id string, links []string) {
	s.setStatus(id, data.BatchRunning)
	sum := s.runner.Run(context.Background(), id, links)
	s.mu.Lock()
	if b, ok := s.batches[id]; ok {
		b.Status = data.BatchComplete
		b.Summary = &sum
	}
	s.mu.Unlock()
}

func (s *batchSvc) setStatus(id string, status data.BatchStatus) {
	s.mu.Lock()
	if b, ok := s.batches[id]; ok {
		b.Status = status
	}
	s.mu.Unlock()
}

func (s *batchSvc) Get(ctx context.Context, id string) (*data.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	return b.Clone(), nil
}

func (s *batchSvc) List(ctx context.Context) (data.Batches, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(data.Batches, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.batches[id].Clone())
	}
	return out, nil
}

func (s *batchSvc) Tasks(ctx context.Context, batchID string) (data.Tasks, error) {
	s.mu.RLock()
	_, ok := s.batches[batchID]
	s.mu.RUnlock()
	if !ok {
		return nil, data.ErrNotFound
	}
	return s.repo.ListByBatch(ctx, batchID)
}

func (s *batchSvc) AllTasks(ctx context.Context) (data.Tasks, error) {
	return s.repo.List(ctx)
}

func (s *batchSvc) GetTask(ctx context.Context, id string) (*data.Task, error) {
	return s.repo.Get(ctx, id)
}

// DeleteTask removes a finished task from history. Queued or active tasks
// cannot be deleted.
func (s *batchSvc) DeleteTask(ctx context.Context, id string) error {
	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !task.Status.IsTerminal() {
		return data.ErrBadStatus
	}
	return s.repo.Delete(ctx, id)
}
