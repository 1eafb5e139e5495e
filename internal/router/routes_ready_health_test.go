package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/TRIBUI106/czGDriveDownloader/internal/data"
	"github.com/TRIBUI106/czGDriveDownloader/internal/progress"
	"github.com/TRIBUI106/czGDriveDownloader/internal/service"
)

// fakeBatchSvc is a stub to satisfy service.Batch in router tests.
type fakeBatchSvc struct{}

func (f *fakeBatchSvc) Submit(ctx context.Context, links []string) (*data.Batch, error) {
	return nil, data.ErrNoLinks
}
func (f *fakeBatchSvc) Get(ctx context.Context, id string) (*data.Batch, error) {
	return nil, data.ErrNotFound
}
func (f *fakeBatchSvc) List(ctx context.Context) (data.Batches, error) { return nil, nil }
func (f *fakeBatchSvc) Tasks(ctx context.Context, batchID string) (data.Tasks, error) {
	return nil, data.ErrNotFound
}
func (f *fakeBatchSvc) AllTasks(ctx context.Context) (data.Tasks, error) { return nil, nil }
func (f *fakeBatchSvc) GetTask(ctx context.Context, id string) (*data.Task, error) {
	return nil, data.ErrNotFound
}
func (f *fakeBatchSvc) DeleteTask(ctx context.Context, id string) error { return nil }

var _ service.Batch = (*fakeBatchSvc)(nil)

// fakePinger allows toggling Ping behaviour.
type fakePinger struct{ pingErr error }

func (f *fakePinger) Ping(ctx context.Context) error { return f.pingErr }

func TestHealthzOK(t *testing.T) {
	t.Setenv("GDRIVE_API_TOKEN", "")
	r := New(slog.Default(), &fakeBatchSvc{}, progress.NewBus(), &fakePinger{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != "ok" {
		t.Fatalf("expected body 'ok', got %q", got)
	}
}

func TestReadyzSuccess(t *testing.T) {
	t.Setenv("GDRIVE_API_TOKEN", "")
	r := New(slog.Default(), &fakeBatchSvc{}, progress.NewBus(), &fakePinger{pingErr: nil})
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestReadyzFailure(t *testing.T) {
	t.Setenv("GDRIVE_API_TOKEN", "")
	r := New(slog.Default(), &fakeBatchSvc{}, progress.NewBus(), &fakePinger{pingErr: errors.New("nope")})
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
