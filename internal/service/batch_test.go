package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/TRIBUI106/czGDriveDownloader/internal/data"
	"github.com/TRIBUI106/czGDriveDownloader/internal/repo"
)

type stubRunner struct {
	mu      sync.Mutex
	batches []string
	links   [][]string
	summary data.Summary
	block   chan struct{}
}

func (s *stubRunner) Run(ctx context.Context, batchID string, links []string) data.Summary {
	s.mu.Lock()
	s.batches = append(s.batches, batchID)
	s.links = append(s.links, links)
	s.mu.Unlock()
	if s.block != nil {
		<-s.block
	}
	return s.summary
}

func newSvc(runner Runner) (Batch, *repo.InMemoryTaskRepo) {
	rpo := repo.NewInMemoryTaskRepo()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBatch(log, rpo, runner), rpo
}

func waitStatus(t *testing.T, svc Batch, id string, want data.BatchStatus) *data.Batch {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		b, err := svc.Get(context.Background(), id)
		if err == nil && b.Status == want {
			return b
		}
		select {
		case <-deadline:
			t.Fatalf("batch %s never reached %s", id, want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := newSvc(&stubRunner{})

	tests := []struct {
		name  string
		links []string
	}{
		{"no links", nil},
		{"empty strings", []string{"", "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Submit(context.Background(), tt.links); !errors.Is(err, data.ErrNoLinks) {
				t.Fatalf("expected ErrNoLinks got %v", err)
			}
		})
	}
}

func TestSubmitRunsBatch(t *testing.T) {
	runner := &stubRunner{summary: data.Summary{Successful: 2, Failed: 1, OutputRoot: "downloads"}}
	svc, _ := newSvc(runner)

	b, err := svc.Submit(context.Background(), []string{" https://drive.google.com/file/d/a/view ", "https://drive.google.com/file/d/b/view"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if b.Status != data.BatchPending {
		t.Fatalf("fresh batch status = %v", b.Status)
	}

	done := waitStatus(t, svc, b.ID, data.BatchComplete)
	if done.Summary == nil || !reflect.DeepEqual(*done.Summary, runner.summary) {
		t.Fatalf("summary = %#v", done.Summary)
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.batches) != 1 || runner.batches[0] != b.ID {
		t.Fatalf("runner batches = %v", runner.batches)
	}
	// Whitespace is trimmed before the runner sees the links.
	if runner.links[0][0] != "https://drive.google.com/file/d/a/view" {
		t.Fatalf("links = %v", runner.links[0])
	}
}

func TestSubmitReportsRunning(t *testing.T) {
	runner := &stubRunner{block: make(chan struct{})}
	svc, _ := newSvc(runner)

	b, err := svc.Submit(context.Background(), []string{"https://drive.google.com/file/d/a/view"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	waitStatus(t, svc, b.ID, data.BatchRunning)
	close(runner.block)
	waitStatus(t, svc, b.ID, data.BatchComplete)
}

func TestGetUnknownBatch(t *testing.T) {
	svc, _ := newSvc(&stubRunner{})
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, data.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestListPreservesOrder(t *testing.T) {
	svc, _ := newSvc(&stubRunner{})

	b1, _ := svc.Submit(context.Background(), []string{"https://drive.google.com/file/d/a/view"})
	b2, _ := svc.Submit(context.Background(), []string{"https://drive.google.com/file/d/b/view"})

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != b1.ID || list[1].ID != b2.ID {
		t.Fatalf("unexpected order: %v", list)
	}
}

func TestTasksUnknownBatch(t *testing.T) {
	svc, _ := newSvc(&stubRunner{})
	if _, err := svc.Tasks(context.Background(), "missing"); !errors.Is(err, data.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	svc, rpo := newSvc(&stubRunner{})
	ctx := context.Background()

	active, _ := rpo.Add(ctx, &data.Task{Ref: data.ResourceRef{ID: "a"}, Status: data.StatusActive})
	done, _ := rpo.Add(ctx, &data.Task{Ref: data.ResourceRef{ID: "b"}, Status: data.StatusComplete})

	if err := svc.DeleteTask(ctx, active.ID); !errors.Is(err, data.ErrBadStatus) {
		t.Fatalf("expected ErrBadStatus got %v", err)
	}
	if err := svc.DeleteTask(ctx, done.ID); err != nil {
		t.Fatalf("delete terminal: %v", err)
	}
	if _, err := rpo.Get(ctx, done.ID); !errors.Is(err, data.ErrNotFound) {
		t.Fatalf("task not removed: %v", err)
	}
	if err := svc.DeleteTask(ctx, "missing"); !errors.Is(err, data.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}
