package repo

import (
	"context"

	"github.com/TRIBUI106/czGDriveDownloader/internal/data"
)

type TaskRepo interface {
	TaskReader
	TaskWriter
}

type TaskReader interface {
	List(ctx context.Context) (data.Tasks, error)
	ListByBatch(ctx context.Context, batchID string) (data.Tasks, error)
	Get(ctx context.Context, id string) (*data.Task, error)
}

type TaskWriter interface {
	Add(ctx context.Context, task *data.Task) (*data.Task, error)
	Update(ctx context.Context, id string, mutate func(*data.Task) error) (*data.Task, error)
	Delete(ctx context.Context, id string) error
}
