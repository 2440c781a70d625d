package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of OCR run event
type EventType string

const (
	EventRunStarted      EventType = "run.started"
	EventPagesRasterized EventType = "pages.rasterized"
	EventPageRecognized  EventType = "page.recognized"
	EventRunCompleted    EventType = "run.completed"
	EventRunFailed       EventType = "run.failed"
)

// RunEvent represents one step of an OCR run
type RunEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Path      string    `json:"path"`
	Page      int       `json:"page,omitempty"`
	Pages     int       `json:"pages,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// NewRunEvent creates a new run event
func NewRunEvent(eventType EventType, runID, path string) *RunEvent {
	return &RunEvent{
		ID:        "evt_" + uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		RunID:     runID,
		Path:      path,
	}
}
