// Package link maps raw share links to resource references.
package link

import (
	"regexp"
	"strings"

	"github.com/TRIBUI106/czGDriveDownloader/internal/data"
)

// rule binds a URL shape to the kind it implies. Path-based shapes are
// listed before query-param shapes; the first match wins.
type rule struct {
	re   *regexp.Regexp
	kind data.ResourceKind
}

var rules = []rule{
	{regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`), data.KindFile},
	{regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`), data.KindFolder},
	{regexp.MustCompile(`open\?id=([a-zA-Z0-9_-]+)`), data.KindUnknown},
	{regexp.MustCompile(`id=([a-zA-Z0-9_-]+)`), data.KindUnknown},
}

// Resolve extracts the resource reference embedded in a raw share link.
// Kind is Unknown when the shape alone cannot decide; callers probe the
// service to settle it. Unmatched links return data.ErrInvalidLink.
func Resolve(raw string) (data.ResourceRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return data.ResourceRef{}, data.ErrInvalidLink
	}
	for _, ru := range rules {
		if m := ru.re.FindStringSubmatch(raw); m != nil {
			return data.ResourceRef{ID: m[1], Kind: ru.kind}, nil
		}
	}
	return data.ResourceRef{}, data.ErrInvalidLink
}

// HarvestIDs applies every rule across arbitrary page text and returns the
// IDs deduplicated, in rule order then first-seen order within a rule.
func HarvestIDs(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, ru := range rules {
		for _, m := range ru.re.FindAllStringSubmatch(text, -1) {
			id := m[1]
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
