package data

import "errors"

var (
	ErrNotFound    = errors.New("task not found")
	ErrInvalidLink = errors.New("unrecognized share link")
	ErrBadStatus   = errors.New("invalid status")
	ErrConflict    = errors.New("target already exists")
	ErrNoLinks     = errors.New("no links provided")
)
