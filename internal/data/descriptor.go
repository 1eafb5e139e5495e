package data

import "io"

// Descriptor is a ready-to-stream download resolved from a resource ID.
//
// Body is the live response stream when resolution left one open; a nil Body
// means the transfer engine must fetch StreamURL itself. Confirmed records
// whether the large-file confirmation handshake completed. Length is the
// declared content length, 0 when unknown.
type Descriptor struct {
	ResourceID string
	Filename   string
	StreamURL  string
	Confirmed  bool
	Length     int64
	Body       io.ReadCloser
}
