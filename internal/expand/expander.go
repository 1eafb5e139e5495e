// Package expand enumerates the files inside shared folders, walking nested
// folders down to a depth bound.
package expand

import (
	"context"
	"io"
	"log/slog"
	"path"

	"github.com/TRIBUI106/czGDriveDownloader/internal/data"
	"github.com/TRIBUI106/czGDriveDownloader/internal/drive"
	"github.com/TRIBUI106/czGDriveDownloader/internal/scrape"
)

// folderPageLimit caps how much of a folder listing is read. Listings embed
// every child reference well within this bound.
const folderPageLimit = 4 << 20

// KindProber settles IDs the page text cannot classify.
type KindProber interface {
	Kind(ctx context.Context, id string) data.ResourceKind
}

type Expander struct {
	cl     *drive.Client
	parser scrape.Parser
	prober KindProber
	log    *slog.Logger
}

func New(log *slog.Logger, cl *drive.Client, parser scrape.Parser, prober KindProber) *Expander {
	if log == nil {
		log = slog.Default()
	}
	return &Expander{cl: cl, parser: parser, prober: prober, log: log}
}

// Expand fetches a folder's view page, harvests every referenced resource
// ID, and returns file tasks rooted at pathPrefix. Child folders recurse
// with the prefix extended by their display name until depth+1 would exceed
// maxDepth. Failures yield an empty branch, never an error: one unreadable
// folder must not sink the batch.
func (e *Expander) Expand(ctx context.Context, folderID, pathPrefix string, depth, maxDepth int) data.Tasks {
	page, err := e.page(ctx, folderID)
	if err != nil {
		e.log.Warn("folder page fetch failed", "id", folderID, "err", err)
		return nil
	}

	var out data.Tasks
	for _, id := range e.parser.ResourceIDs(page) {
		if id == folderID {
			continue
		}

		isFolder := false
		switch {
		case e.parser.FolderRef(page, id):
			isFolder = true
		case e.parser.FileRef(page, id):
			isFolder = false
		default:
			isFolder = e.prober.Kind(ctx, id) == data.KindFolder
		}

		if isFolder {
			if depth+1 > maxDepth {
				e.log.Debug("depth bound reached, skipping folder", "id", id, "depth", depth)
				continue
			}
			name := e.DisplayName(ctx, id)
			out = append(out, e.Expand(ctx, id, path.Join(pathPrefix, name), depth+1, maxDepth)...)
			continue
		}

		out = append(out, &data.Task{
			Ref:     data.ResourceRef{ID: id, Kind: data.KindFile},
			Subpath: pathPrefix,
		})
	}
	return out
}

// DisplayName resolves a folder's name from its view-page title, falling
// back to a short synthetic name when the page gives nothing usable.
func (e *Expander) DisplayName(ctx context.Context, folderID string) string {
	page, err := e.page(ctx, folderID)
	if err == nil {
		if title, ok := e.parser.Title(page); ok {
			if name := data.SanitizeFilename(data.StripServiceSuffix(title)); name != "" {
				return name
			}
		}
	}
	return data.FallbackFolderName(folderID)
}

func (e *Expander) page(ctx context.Context, folderID string) ([]byte, error) {
	resp, err := e.cl.Get(ctx, "folder", e.cl.FolderURL(folderID))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(io.LimitReader(resp.Body, folderPageLimit))
}
