package data

import (
	"encoding/json"
	"io"
	"time"
)

// ResourceKind classifies what a share link points at.
type ResourceKind string

const (
	KindFile   ResourceKind = "File"
	KindFolder ResourceKind = "Folder"
	// KindUnknown means the link shape alone could not decide; callers
	// probe the remote service before scheduling.
	KindUnknown ResourceKind = "Unknown"
)

// ResourceRef identifies a remote resource extracted from a share link.
type ResourceRef struct {
	ID   string       `json:"id"`
	Kind ResourceKind `json:"kind"`
}

// TaskStatus tracks a download task through its lifecycle.
type TaskStatus string

const (
	StatusQueued    TaskStatus = "Queued"
	StatusResolving TaskStatus = "Resolving"
	StatusActive    TaskStatus = "Active"
	StatusComplete  TaskStatus = "Complete"
	StatusError     TaskStatus = "Failed"
)

// IsTerminal reports whether the status is final.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusComplete || s == StatusError
}

// Task is one scheduled file download. Folder links expand into many tasks;
// Subpath carries the folder ancestry relative to the output root.
type Task struct {
	ID          string      `json:"id"`
	BatchID     string      `json:"batchId,omitempty"`
	Link        string      `json:"link,omitempty"`
	Ref         ResourceRef `json:"resource"`
	Subpath     string      `json:"subpath,omitempty"`
	Filename    string      `json:"filename,omitempty"`
	Status      TaskStatus  `json:"status"`
	Bytes       int64       `json:"bytes"`
	TotalBytes  int64       `json:"totalBytes"`
	ErrorDetail string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type Tasks []*Task

// Clone returns a deep copy so repository callers cannot mutate shared state.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func (ts Tasks) Clone() Tasks {
	out := make(Tasks, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Clone())
	}
	return out
}

func (ts *Tasks) ToJSON(w io.Writer) error { return json.NewEncoder(w).Encode(ts) }

func (t *Task) ToJSON(w io.Writer) error { return json.NewEncoder(w).Encode(t) }

// Outcome is the per-task result a worker hands back to the batch owner.
type Outcome struct {
	TaskID      string `json:"taskId"`
	Filename    string `json:"filename,omitempty"`
	Success     bool   `json:"success"`
	Bytes       int64  `json:"bytes"`
	ErrorDetail string `json:"error,omitempty"`
}

// Summary aggregates a finished batch.
type Summary struct {
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
	Invalid    int    `json:"invalid"`
	OutputRoot string `json:"outputRoot"`
}

// BatchStatus tracks a submitted batch.
type BatchStatus string

const (
	BatchPending  BatchStatus = "Pending"
	BatchRunning  BatchStatus = "Running"
	BatchComplete BatchStatus = "Complete"
)

// Batch records one submission of raw share links.
type Batch struct {
	ID        string      `json:"id"`
	Status    BatchStatus `json:"status"`
	Links     []string    `json:"links"`
	Summary   *Summary    `json:"summary,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

type Batches []*Batch

func (b *Batch) Clone() *Batch {
	if b == nil {
		return nil
	}
	c := *b
	c.Links = append([]string(nil), b.Links...)
	if b.Summary != nil {
		s := *b.Summary
		c.Summary = &s
	}
	return &c
}

func (bs Batches) Clone() Batches {
	out := make(Batches, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Clone())
	}
	return out
}

func (bs *Batches) ToJSON(w io.Writer) error { return json.NewEncoder(w).Encode(bs) }

func (b *Batch) ToJSON(w io.Writer) error { return json.NewEncoder(w).Encode(b) }
