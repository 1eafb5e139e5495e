package progress

// Event represents a state change or progress update from a transfer
// worker.
//
// Terminal events (Complete, Failed) drive the reconciler's final status
// writes. Progress events carry transient byte counts and do not mutate
// repository state. Meta events publish the resolved filename as soon as it
// is known.
type Event struct {
	Type     EventType `json:"type"`
	TaskID   string    `json:"taskId"`
	BatchID  string    `json:"batchId,omitempty"`
	Name     string    `json:"name,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	Progress *Snapshot `json:"progress,omitempty"`
}

// EventType defines the set of events workers may emit.
type EventType string

const (
	EventQueued   EventType = "Queued"
	EventStart    EventType = "Start"
	EventMeta     EventType = "Meta"
	EventProgress EventType = "Progress"
	EventComplete EventType = "Complete"
	EventFailed   EventType = "Failed"
)

// Snapshot captures transfer progress at a point in time. Total is 0 when
// the remote side declared no length.
type Snapshot struct {
	Completed int64   `json:"completed"`
	Total     int64   `json:"total"`
	Percent   float64 `json:"percent"`
}

// PercentOf derives a percentage, 0 when the total is unknown.
func PercentOf(completed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
