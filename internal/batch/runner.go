// Package batch orchestrates a set of share links from resolution through
// transfer and aggregates the per-task outcomes.
package batch

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/TRIBUI106/czGDriveDownloader/internal/data"
	"github.com/TRIBUI106/czGDriveDownloader/internal/downloadcfg"
	"github.com/TRIBUI106/czGDriveDownloader/internal/fp"
	"github.com/TRIBUI106/czGDriveDownloader/internal/link"
	"github.com/TRIBUI106/czGDriveDownloader/internal/progress"
	"github.com/TRIBUI106/czGDriveDownloader/internal/repo"
)

// DescriptorResolver turns resource IDs into stream descriptors. Kind probes
// an ambiguous ID; Download never fails, falling back to a bare export URL.
type DescriptorResolver interface {
	Kind(ctx context.Context, id string) data.ResourceKind
	Download(ctx context.Context, id string) *data.Descriptor
}

// FolderExpander walks a folder listing into file tasks.
type FolderExpander interface {
	Expand(ctx context.Context, folderID, pathPrefix string, depth, maxDepth int) data.Tasks
	DisplayName(ctx context.Context, folderID string) string
}

// TransferEngine streams one descriptor to disk.
type TransferEngine interface {
	Run(ctx context.Context, t *data.Task, desc *data.Descriptor) data.Outcome
	Root() string
}

// Options tunes a batch run. Zero values fall back to package defaults.
type Options struct {
	WorkerLimit int
	MaxDepth    int
	Deduplicate bool
}

type Runner struct {
	log      *slog.Logger
	resolver DescriptorResolver
	expander FolderExpander
	engine   TransferEngine
	repo     repo.TaskRepo
	rep      progress.Reporter
	opts     Options
}

func New(log *slog.Logger, resolver DescriptorResolver, expander FolderExpander, engine TransferEngine, taskRepo repo.TaskRepo, rep progress.Reporter, opts Options) *Runner {
	if log == nil {
		log = slog.Default()
	}
	if rep == nil {
		rep = progress.NopReporter{}
	}
	if opts.WorkerLimit <= 0 {
		opts.WorkerLimit = downloadcfg.DefaultWorkerLimit
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = downloadcfg.DefaultMaxDepth
	}
	return &Runner{log: log, resolver: resolver, expander: expander, engine: engine, repo: taskRepo, rep: rep, opts: opts}
}

// Run resolves every link, expands folders, schedules the resulting tasks on
// a bounded worker pool and aggregates their outcomes. Unrecognized links are
// counted, never queued. A failing task never disturbs its siblings.
func (r *Runner) Run(ctx context.Context, batchID string, links []string) data.Summary {
	summary := data.Summary{OutputRoot: r.engine.Root()}

	planned := r.plan(ctx, batchID, links, &summary)

	queued := make(data.Tasks, 0, len(planned))
	for _, t := range planned {
		stored, err := r.repo.Add(ctx, t)
		if err != nil {
			r.log.Error("queue task", "batch_id", batchID, "resource_id", t.Ref.ID, "err", err)
			summary.Failed++
			continue
		}
		queued = append(queued, stored)
		r.rep.Report(progress.Event{Type: progress.EventQueued, TaskID: stored.ID, BatchID: batchID})
	}

	results := make(chan data.Outcome, len(queued))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.WorkerLimit)
	for _, t := range queued {
		t := t
		g.Go(func() error {
			results <- r.runTask(gctx, t)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	for out := range results {
		if out.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	r.log.Info("batch finished", "batch_id", batchID,
		"successful", summary.Successful, "failed", summary.Failed, "invalid", summary.Invalid)
	return summary
}

// plan resolves links into concrete file tasks. Folder links are expanded
// before anything is scheduled so the pool only ever sees files.
func (r *Runner) plan(ctx context.Context, batchID string, links []string, summary *data.Summary) data.Tasks {
	planned := make(data.Tasks, 0, len(links))
	for _, raw := range links {
		ref, err := link.Resolve(raw)
		if err != nil {
			summary.Invalid++
			r.log.Warn("skipping unrecognized link", "batch_id", batchID, "link", raw)
			continue
		}

		kind := ref.Kind
		if kind == data.KindUnknown {
			kind = r.resolver.Kind(ctx, ref.ID)
		}

		if kind == data.KindFolder {
			name := r.expander.DisplayName(ctx, ref.ID)
			for _, t := range r.expander.Expand(ctx, ref.ID, name, 1, r.opts.MaxDepth) {
				t.Link = raw
				t.BatchID = batchID
				t.Status = data.StatusQueued
				planned = append(planned, t)
			}
			continue
		}

		planned = append(planned, &data.Task{
			BatchID: batchID,
			Link:    raw,
			Ref:     data.ResourceRef{ID: ref.ID, Kind: data.KindFile},
			Status:  data.StatusQueued,
		})
	}

	if r.opts.Deduplicate {
		planned = dedupe(planned, r.log)
	}
	return planned
}

// dedupe drops tasks whose resource and destination fingerprint has already
// been seen in this batch.
func dedupe(tasks data.Tasks, log *slog.Logger) data.Tasks {
	seen := make(map[string]struct{}, len(tasks))
	out := make(data.Tasks, 0, len(tasks))
	for _, t := range tasks {
		key := fp.Fingerprint(t.Ref.ID, t.Subpath)
		if _, dup := seen[key]; dup {
			log.Debug("dropping duplicate task", "resource_id", t.Ref.ID, "subpath", t.Subpath)
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (r *Runner) runTask(ctx context.Context, t *data.Task) data.Outcome {
	r.rep.Report(progress.Event{Type: progress.EventStart, TaskID: t.ID, BatchID: t.BatchID})

	desc := r.resolver.Download(ctx, t.Ref.ID)
	t.Filename = desc.Filename
	t.TotalBytes = desc.Length
	meta := progress.Event{Type: progress.EventMeta, TaskID: t.ID, BatchID: t.BatchID, Name: desc.Filename}
	if desc.Length > 0 {
		meta.Progress = &progress.Snapshot{Total: desc.Length}
	}
	r.rep.Report(meta)

	out := r.engine.Run(ctx, t, desc)
	if out.Success {
		r.rep.Report(progress.Event{
			Type:     progress.EventComplete,
			TaskID:   t.ID,
			BatchID:  t.BatchID,
			Name:     out.Filename,
			Progress: &progress.Snapshot{Completed: out.Bytes, Total: desc.Length, Percent: progress.PercentOf(out.Bytes, desc.Length)},
		})
	} else {
		r.rep.Report(progress.Event{
			Type:     progress.EventFailed,
			TaskID:   t.ID,
			BatchID:  t.BatchID,
			Name:     out.Filename,
			Detail:   out.ErrorDetail,
			Progress: &progress.Snapshot{Completed: out.Bytes, Total: desc.Length},
		})
	}
	return out
}
