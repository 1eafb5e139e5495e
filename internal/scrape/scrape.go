// Package scrape extracts structure from drive view pages. The markup the
// service serves changes without notice, so everything markup-coupled sits
// behind the Parser interface.
package scrape

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"github.com/TRIBUI106/czGDriveDownloader/internal/link"
)

// Parser reads raw page bytes and answers the narrow questions the
// resolvers need.
type Parser interface {
	// Title returns the page title, if one is present.
	Title(page []byte) (string, bool)
	// ResourceIDs returns every resource ID referenced by the page.
	ResourceIDs(page []byte) []string
	// FolderRef reports whether the page references the ID as a folder.
	FolderRef(page []byte, id string) bool
	// FileRef reports whether the page references the ID as a file.
	FileRef(page []byte, id string) bool
}

// HTMLParser is the production Parser over the service's HTML pages.
type HTMLParser struct{}

var _ Parser = (*HTMLParser)(nil)

func NewHTMLParser() *HTMLParser { return &HTMLParser{} }

func (p *HTMLParser) Title(page []byte) (string, bool) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", false
	}
	title := findTitle(doc)
	title = strings.TrimSpace(title)
	if title == "" {
		return "", false
	}
	return title, true
}

func (p *HTMLParser) ResourceIDs(page []byte) []string {
	return link.HarvestIDs(string(page))
}

func (p *HTMLParser) FolderRef(page []byte, id string) bool {
	return bytes.Contains(page, []byte("/folders/"+id))
}

func (p *HTMLParser) FileRef(page []byte, id string) bool {
	return bytes.Contains(page, []byte("/file/d/"+id))
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		var b strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
		return b.String()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
