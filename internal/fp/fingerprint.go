package fp

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
)

// NormalizeID trims surrounding whitespace. Drive IDs are case-sensitive so
// no further normalization applies.
func NormalizeID(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeSubpath trims whitespace and cleans the slash-separated subpath.
// An empty or "." subpath normalizes to the empty string so root-level tasks
// fingerprint identically regardless of how the subpath was spelled.
func NormalizeSubpath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return p
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return ""
	}
	return cleaned
}

// Fingerprint computes a stable hex-encoded SHA-256 over the normalized
// resource ID and subpath. This is used to deduplicate identical downloads
// within a batch.
func Fingerprint(resourceID, subpath string) string {
	ni := NormalizeID(resourceID)
	ns := NormalizeSubpath(subpath)
	h := sha256.New()
	// NUL never appears in IDs or subpaths, so the pair hashes unambiguously.
	h.Write([]byte(ni))
	h.Write([]byte{0})
	h.Write([]byte(ns))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}
