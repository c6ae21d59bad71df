package query

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
)

// OpenAIService answers queries through the OpenAI chat completion API.
type OpenAIService struct {
	client *openai.Client
	model  string
}

// NewOpenAIService creates a new OpenAI-backed query service.
func NewOpenAIService(apiKey string) (*OpenAIService, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	return &OpenAIService{
		client: openai.NewClient(apiKey),
		model:  "gpt-4o",
	}, nil
}

// Name returns the provider name.
func (s *OpenAIService) Name() string {
	return "openai"
}

// Query sends a single-shot request.
func (s *OpenAIService) Query(ctx context.Context, req *Request) (*Result, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: s.buildMessages(req),
	})
	if err != nil {
		return nil, err
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &Result{
		Text:           content,
		ConversationID: conversationID(req),
	}, nil
}

// QueryStream sends a streaming request, invoking onChunk per delta.
func (s *OpenAIService) QueryStream(ctx context.Context, req *Request, onChunk ChunkFunc) (*Result, error) {
	stream, err := s.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: s.buildMessages(req),
		Stream:   true,
	})
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var content string

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(response.Choices) > 0 {
			delta := response.Choices[0].Delta.Content
			if delta != "" {
				content += delta
				if onChunk != nil {
					if err := onChunk(delta); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	return &Result{
		Text:           content,
		ConversationID: conversationID(req),
	}, nil
}

func (s *OpenAIService) buildMessages(req *Request) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage

	if system := systemPrompt(req); system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, msg := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Text,
	})
}

// systemPrompt joins the directive context and profile context.
func systemPrompt(req *Request) string {
	switch {
	case req.Context != "" && req.ProfileContext != "":
		return req.Context + "\n" + req.ProfileContext
	case req.Context != "":
		return req.Context
	default:
		return req.ProfileContext
	}
}

// conversationID echoes the caller's identifier or mints a fresh one. The
// upstream API is stateless, so the correlation token lives on this side.
func conversationID(req *Request) string {
	if req.ConversationID != "" {
		return req.ConversationID
	}
	return uuid.Must(uuid.NewV7()).String()
}
