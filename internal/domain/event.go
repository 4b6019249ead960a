package domain

import "time"

// EventType identifies a notification emitted to the UI layer
type EventType string

const (
	EventDownloadProgress    EventType = "download.progress"
	EventDownloadCompleted   EventType = "download.completed"
	EventDownloadFailed      EventType = "download.failed"
	EventExtractionProgress  EventType = "extraction.progress"
	EventExtractionCompleted EventType = "extraction.completed"
	EventExtractionFailed    EventType = "extraction.failed"
)

// Event is a single notification about a job
type Event struct {
	Type       EventType           `json:"type"`
	JobID      string              `json:"job_id"`
	Download   *DownloadProgress   `json:"download,omitempty"`
	Extraction *ExtractionProgress `json:"extraction,omitempty"`
	Error      string              `json:"error,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

// IsTerminal reports whether the event ends a job
func (e Event) IsTerminal() bool {
	switch e.Type {
	case EventDownloadCompleted, EventDownloadFailed, EventExtractionCompleted, EventExtractionFailed:
		return true
	}
	return false
}

// EventSink receives job notifications. Publish must not block on slow consumers.
type EventSink interface {
	Publish(event Event)
}

// ActivityChecker reports whether a job is still admitted. Downloaders poll it
// before every network round-trip; false means the job was cancelled.
type ActivityChecker interface {
	Active() bool
}

// NewDownloadProgressEvent wraps a download snapshot
func NewDownloadProgressEvent(p DownloadProgress) Event {
	return Event{Type: EventDownloadProgress, JobID: p.JobID, Download: &p, Timestamp: time.Now()}
}

// NewExtractionProgressEvent wraps an extraction snapshot
func NewExtractionProgressEvent(p ExtractionProgress) Event {
	return Event{Type: EventExtractionProgress, JobID: p.JobID, Extraction: &p, Timestamp: time.Now()}
}

// NewTerminalEvent creates a completed or failed event; err is nil on success
func NewTerminalEvent(kind EventType, jobID string, err error) Event {
	e := Event{Type: kind, JobID: jobID, Timestamp: time.Now()}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}
