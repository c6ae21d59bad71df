// Package model defines data structures for the session platform.
package model

import (
	"time"
)

// ResponseLength selects how verbose assistant replies should be.
type ResponseLength string

const (
	ResponseLengthConcise  ResponseLength = "concise"
	ResponseLengthBalanced ResponseLength = "balanced"
	ResponseLengthDetailed ResponseLength = "detailed"
)

// Creativity selects how exploratory assistant replies should be.
type Creativity string

const (
	CreativityPrecise  Creativity = "precise"
	CreativityBalanced Creativity = "balanced"
	CreativityCreative Creativity = "creative"
)

// Profile carries optional personalization applied to outgoing queries.
type Profile struct {
	DisplayName string `json:"display_name,omitempty"`
	Persona     string `json:"persona,omitempty"`
}

// CreateSessionRequest is the request to open a new session.
type CreateSessionRequest struct {
	Streaming      bool           `json:"streaming"`
	Greeting       string         `json:"greeting,omitempty"`
	ResponseLength ResponseLength `json:"response_length,omitempty"`
	Creativity     Creativity     `json:"creativity,omitempty"`
	Profile        *Profile       `json:"profile,omitempty"`
}

// SessionInfo is the read-only projection of a session returned to callers.
type SessionInfo struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Messages       []Message `json:"messages"`
	SendInFlight   bool      `json:"send_in_flight"`
	StreamInFlight bool      `json:"stream_in_flight"`
	CreatedAt      time.Time `json:"created_at"`
}

// Attachment describes one selected file. Contents are opaque to the
// session layer; only display metadata travels with a submission.
type Attachment struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Size     int64           `json:"size"`
	MIMEType string          `json:"mime_type"`
	Progress int             `json:"progress"`
	State    AttachmentState `json:"state"`
}

// AttachmentState tracks upload lifecycle for display purposes.
type AttachmentState string

const (
	AttachmentPending   AttachmentState = "pending"
	AttachmentUploading AttachmentState = "uploading"
	AttachmentComplete  AttachmentState = "complete"
	AttachmentFailed    AttachmentState = "failed"
)

// Suggestion is one entry of the suggested-prompts catalog.
type Suggestion struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Text       string `json:"text"`
	AutoSubmit bool   `json:"auto_submit"`
}
