// Package resolve turns resource IDs into ready-to-stream download
// descriptors and settles ambiguous resource kinds.
package resolve

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/TRIBUI106/czGDriveDownloader/internal/data"
	"github.com/TRIBUI106/czGDriveDownloader/internal/drive"
	"github.com/TRIBUI106/czGDriveDownloader/internal/scrape"
)

// warningMarker appears in the interstitial page the service serves instead
// of large files it cannot virus-scan. The matching cookie name shares the
// prefix.
const warningMarker = "download_warning"

// sniffLen bounds how much of a response body is inspected for the
// interstitial marker. The interstitial is a small HTML page; real payloads
// must keep streaming, so the peeked prefix is spliced back onto the body.
const sniffLen = 32 << 10

// infoPageLimit caps how much of a view page is read for title extraction.
const infoPageLimit = 512 << 10

type Resolver struct {
	cl     *drive.Client
	parser scrape.Parser
	log    *slog.Logger
}

func New(log *slog.Logger, cl *drive.Client, parser scrape.Parser) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{cl: cl, parser: parser, log: log}
}

// Kind settles whether an ID names a file or a folder by probing the
// folder-view endpoint and inspecting where redirects land. Folder views
// stay on a /drive/folders/ path; files get bounced elsewhere. A transport
// failure assumes File so the download is still attempted.
func (r *Resolver) Kind(ctx context.Context, id string) data.ResourceKind {
	resp, err := r.cl.Get(ctx, "probe", r.cl.FolderURL(id))
	if err != nil {
		r.log.Debug("kind probe failed, assuming file", "id", id, "err", err)
		return data.KindFile
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.Request != nil && strings.Contains(resp.Request.URL.Path, "/drive/folders/") {
		return data.KindFolder
	}
	return data.KindFile
}

// Download resolves the descriptor for a file ID: candidate filename from
// the info page, canonical export fetch, large-file confirmation handshake,
// and the filename fallback chain. It never returns an error; the worst
// case is a synthetic filename with the unconfirmed export URL and no open
// body, which leaves the fetch to the transfer engine.
func (r *Resolver) Download(ctx context.Context, id string) *data.Descriptor {
	exportURL := r.cl.ExportURL(id)
	d := &data.Descriptor{
		ResourceID: id,
		Filename:   data.SyntheticName(id),
		StreamURL:  exportURL,
	}

	candidate := r.titleCandidate(ctx, id)

	resp, err := r.cl.Get(ctx, "export", exportURL)
	if err != nil {
		r.log.Warn("export fetch failed", "id", id, "err", err)
		return d
	}

	body, peeked := sniffBody(resp.Body)
	final := resp

	if bytes.Contains(peeked, []byte(warningMarker)) || resp.StatusCode != http.StatusOK {
		if token := confirmToken(resp); token != "" {
			_ = body.Close()
			confirmURL := r.cl.ConfirmURL(exportURL, token)
			retry, rerr := r.cl.Get(ctx, "confirm", confirmURL)
			if rerr != nil {
				r.log.Warn("confirm retry failed", "id", id, "err", rerr)
				d.Filename = r.pickFilename(id, candidate, nil)
				return d
			}
			final = retry
			body = retry.Body
			d.Confirmed = true
			d.StreamURL = confirmURL
		}
		// No token: attempt the download with the unconfirmed response.
	}

	d.Filename = r.pickFilename(id, candidate, final.Header)
	if final.ContentLength > 0 {
		d.Length = final.ContentLength
	}
	d.Body = body
	return d
}

// titleCandidate fetches the file-info page and derives a filename from its
// title. Failures only cost the candidate.
func (r *Resolver) titleCandidate(ctx context.Context, id string) string {
	resp, err := r.cl.Get(ctx, "fileinfo", r.cl.FileViewURL(id))
	if err != nil {
		r.log.Debug("info page fetch failed", "id", id, "err", err)
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	page, err := io.ReadAll(io.LimitReader(resp.Body, infoPageLimit))
	if err != nil {
		return ""
	}
	title, ok := r.parser.Title(page)
	if !ok {
		return ""
	}
	return data.SanitizeFilename(data.StripServiceSuffix(title))
}

// pickFilename applies the fallback chain: disposition name with an
// extension, then the title candidate, then an extensionless disposition
// name, then the synthetic name; a missing extension is derived from the
// declared content type when the table knows it.
func (r *Resolver) pickFilename(id, candidate string, hdr http.Header) string {
	disp := dispositionName(hdr)

	name := ""
	switch {
	case disp != "" && filepath.Ext(disp) != "":
		name = disp
	case candidate != "":
		name = candidate
	case disp != "":
		name = disp
	default:
		name = data.SyntheticName(id)
	}

	if filepath.Ext(name) == "" && hdr != nil {
		name += data.ExtensionForMIME(hdr.Get("Content-Type"))
	}

	name = data.SanitizeFilename(name)
	if name == "" {
		name = data.SyntheticName(id)
	}
	return name
}

// dispositionName extracts and percent-decodes the filename directive from
// a Content-Disposition header.
func dispositionName(hdr http.Header) string {
	if hdr == nil {
		return ""
	}
	cd := hdr.Get("Content-Disposition")
	if cd == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	name := params["filename"]
	if name == "" {
		return ""
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	return name
}

// confirmToken finds the confirmation token among the cookies set by the
// interstitial response.
func confirmToken(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if strings.HasPrefix(c.Name, warningMarker) {
			return c.Value
		}
	}
	return ""
}

// sniffBody peeks a bounded prefix of the body for marker inspection and
// returns a reader that still yields the full payload.
func sniffBody(rc io.ReadCloser) (io.ReadCloser, []byte) {
	br := bufio.NewReaderSize(rc, sniffLen)
	peeked, _ := br.Peek(sniffLen)
	return &splicedBody{r: br, c: rc}, peeked
}

type splicedBody struct {
	r io.Reader
	c io.Closer
}

func (b *splicedBody) Read(p []byte) (int, error) { return b.r.Read(p) }
func (b *splicedBody) Close() error               { return b.c.Close() }
