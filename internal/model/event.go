package model

import (
	"time"
)

// EventType represents the type of out-of-band session event.
type EventType string

const (
	EventTypeFeedback       EventType = "feedback"
	EventTypeFault          EventType = "fault"
	EventTypeResponseFailed EventType = "response_failed"
	EventTypeSessionCleared EventType = "session_cleared"
)

// SessionEvent is an advisory notification published on the event bus.
// Events never feed back into session state; they exist for observers.
type SessionEvent struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	MessageID string         `json:"message_id,omitempty"`
	Type      EventType      `json:"type"`
	Reason    string         `json:"reason,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
