package reconciler

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/TRIBUI106/czGDriveDownloader/internal/data"
	"github.com/TRIBUI106/czGDriveDownloader/internal/metrics"
	"github.com/TRIBUI106/czGDriveDownloader/internal/progress"
	"github.com/TRIBUI106/czGDriveDownloader/internal/repo"
)

// Reconciler consumes transfer events and updates repository state.
type Reconciler struct {
	repo   repo.TaskRepo
	events <-chan progress.Event
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates a Reconciler that processes transfer events and mutates the
// repository accordingly.
func New(log *slog.Logger, repo repo.TaskRepo, events <-chan progress.Event) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{repo: repo, events: events, log: log, ctx: context.Background()}
}

// Run starts the reconciliation loop.
func (r *Reconciler) Run() {
	r.stop = make(chan struct{})
	r.ctx, r.cancel = context.WithCancel(r.ctx)
	// Tag this run with a stable operation_id for easier correlation.
	opID := uuid.NewString()
	r.log = r.log.With("operation_id", opID)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-r.stop:
				return
			case e, ok := <-r.events:
				if !ok {
					return
				}
				r.handle(e)
			}
		}
	}()
}

// Stop terminates the reconciliation loop.
func (r *Reconciler) Stop() {
	if r.stop != nil {
		close(r.stop)
		if r.cancel != nil {
			r.cancel()
		}
		r.wg.Wait()
	}
}

func (r *Reconciler) handle(e progress.Event) {
	// Record event type for observability
	metrics.TaskEvents.WithLabelValues(strings.ToLower(string(e.Type))).Inc()
	var status data.TaskStatus
	switch e.Type {
	case progress.EventQueued:
		// The task row is written before the event fires; nothing to do.
		return
	case progress.EventStart:
		task, err := r.repo.Get(r.ctx, e.TaskID)
		if err != nil {
			r.log.Error("get", "id", e.TaskID, "err", err)
			return
		}
		if task.Status != data.StatusQueued {
			r.log.Info("ignoring stale start event", "id", e.TaskID, "status", task.Status)
			return
		}
		status = data.StatusResolving
	case progress.EventMeta:
		// Meta fires once the descriptor is resolved; the transfer starts
		// right after, so the task moves from resolving to active here.
		_, err := r.repo.Update(r.ctx, e.TaskID, func(t *data.Task) error {
			if e.Name != "" {
				t.Filename = e.Name
			}
			if e.Progress != nil && e.Progress.Total > 0 {
				t.TotalBytes = e.Progress.Total
			}
			if t.Status == data.StatusResolving {
				t.Status = data.StatusActive
			}
			return nil
		})
		if err != nil {
			r.log.Error("update meta", "id", e.TaskID, "err", err)
		} else {
			r.log.Info("updated meta", "id", e.TaskID, "name", e.Name)
		}
		return
	case progress.EventProgress:
		if e.Progress != nil {
			r.log.Debug("progress event", "id", e.TaskID, "completed", e.Progress.Completed, "total", e.Progress.Total)
		} else {
			r.log.Debug("progress event", "id", e.TaskID)
		}
		return
	case progress.EventComplete:
		status = data.StatusComplete
	case progress.EventFailed:
		status = data.StatusError
	default:
		r.log.Warn("unknown event type", "id", e.TaskID, "type", e.Type)
		return
	}

	_, err := r.repo.Update(r.ctx, e.TaskID, func(t *data.Task) error {
		t.Status = status
		if e.Name != "" {
			t.Filename = e.Name
		}
		if e.Progress != nil {
			t.Bytes = e.Progress.Completed
		}
		if e.Type == progress.EventFailed {
			t.ErrorDetail = e.Detail
		}
		return nil
	})
	if err != nil {
		r.log.Error("update", "id", e.TaskID, "status", status, "err", err)
		return
	}
	r.log.Info("reconciled event", "id", e.TaskID, "type", e.Type)
}
