package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Feedback is a user rating recorded on an assistant message.
type Feedback string

const (
	FeedbackPositive Feedback = "positive"
	FeedbackNegative Feedback = "negative"
)

// Message represents one entry in a conversational session. User messages
// are immutable once created; assistant messages are mutated in place while
// a response streams in and once more at terminal resolution.
type Message struct {
	// Identity
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id,omitempty"`

	// Content
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Lifecycle flags
	Streaming   bool `json:"streaming,omitempty"`
	Error       bool `json:"error,omitempty"`
	Regenerated bool `json:"regenerated,omitempty"`

	// Advisory metrics (display estimates, never authoritative)
	Tokens       *int     `json:"tokens,omitempty"`
	ProcessingMs *int64   `json:"processing_ms,omitempty"`
	Confidence   *float64 `json:"confidence,omitempty"`

	Feedback Feedback `json:"feedback,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() Message {
	out := *m
	if m.Tokens != nil {
		v := *m.Tokens
		out.Tokens = &v
	}
	if m.ProcessingMs != nil {
		v := *m.ProcessingMs
		out.ProcessingMs = &v
	}
	if m.Confidence != nil {
		v := *m.Confidence
		out.Confidence = &v
	}
	return out
}

// SubmitMessageRequest is the request to submit a new message to a session.
type SubmitMessageRequest struct {
	Content string `json:"content"`
	Context string `json:"context,omitempty"`
}

// SubmitMessageResponse acknowledges a submission before streaming begins.
type SubmitMessageResponse struct {
	UserMessageID      string `json:"user_message_id"`
	AssistantMessageID string `json:"assistant_message_id"`
}

// FeedbackRequest records a rating on an assistant message.
type FeedbackRequest struct {
	Feedback Feedback `json:"feedback"`
}

// ChunkEvent is one streamed fragment of an assistant reply.
type ChunkEvent struct {
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
	Index     int    `json:"index"`
	Tokens    int    `json:"tokens"`
}

// MessageCompleteEvent signals terminal resolution of a submission.
type MessageCompleteEvent struct {
	Message Message `json:"message"`
}

// ErrorEvent reports a user-visible failure on a stream.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HeartbeatEvent keeps an idle stream connection alive.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}
