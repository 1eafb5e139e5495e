package v1

import "errors"

var (
	ErrBatchCtx      = errors.New("batch request missing in context")
	ErrLinksRequired = errors.New("links is required")
	ErrContentType   = errors.New("Content-Type must be application/json")
)
