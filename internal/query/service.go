// Package query defines the external query service consumed by sessions,
// with provider implementations.
package query

import (
	"context"
)

// ChunkFunc is called for each text chunk during streaming.
type ChunkFunc func(text string) error

// ChatMessage is one {role, content} pair of conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries one outgoing query.
type Request struct {
	Text           string
	ProfileContext string
	ConversationID string
	History        []ChatMessage
	Context        string
}

// Result is the terminal resolution envelope of a query. Erred marks a
// recoverable, user-visible failure reported by the provider itself;
// transport faults surface as a returned error instead.
type Result struct {
	Text           string
	Erred          bool
	ConversationID string
}

// Service is the interface for query providers. Exactly one terminal
// resolution per call; chunks, if any, precede it and arrive in emission
// order.
type Service interface {
	// Query sends a single-shot request and returns the resolution.
	Query(ctx context.Context, req *Request) (*Result, error)

	// QueryStream sends a request, invoking onChunk zero or more times
	// before returning the resolution.
	QueryStream(ctx context.Context, req *Request, onChunk ChunkFunc) (*Result, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of query provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewService creates a query service for the given provider.
func NewService(provider Provider, apiKey string) (Service, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIService(apiKey)
	default:
		return NewAnthropicService(apiKey)
	}
}
