package query

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicService answers queries through the Anthropic messages API.
type AnthropicService struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicService creates a new Anthropic-backed query service.
func NewAnthropicService(apiKey string) (*AnthropicService, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}

	return &AnthropicService{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  "claude-3-5-sonnet-20241022",
	}, nil
}

// Name returns the provider name.
func (s *AnthropicService) Name() string {
	return "anthropic"
}

// Query sends a single-shot request.
func (s *AnthropicService) Query(ctx context.Context, req *Request) (*Result, error) {
	resp, err := s.client.Messages.New(ctx, s.buildParams(req))
	if err != nil {
		return nil, err
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			content += block.Text
		}
	}

	return &Result{
		Text:           content,
		ConversationID: conversationID(req),
	}, nil
}

// QueryStream sends a streaming request, invoking onChunk per text delta.
func (s *AnthropicService) QueryStream(ctx context.Context, req *Request, onChunk ChunkFunc) (*Result, error) {
	stream := s.client.Messages.NewStreaming(ctx, s.buildParams(req))

	var content string

	for stream.Next() {
		event := stream.Current()

		if event.Type == anthropic.MessageStreamEventTypeContentBlockDelta {
			if delta, ok := event.Delta.(anthropic.ContentBlockDeltaEventDelta); ok {
				if delta.Type == "text_delta" && delta.Text != "" {
					content += delta.Text
					if onChunk != nil {
						if err := onChunk(delta.Text); err != nil {
							return nil, err
						}
					}
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, err
	}

	return &Result{
		Text:           content,
		ConversationID: conversationID(req),
	}, nil
}

func (s *AnthropicService) buildParams(req *Request) anthropic.MessageNewParams {
	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, msg := range req.History {
		messages = append(messages, textMessage(msg.Role, msg.Content))
	}
	messages = append(messages, textMessage("user", req.Text))

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(s.model),
		MaxTokens: anthropic.F(int64(4096)),
		Messages:  anthropic.F(messages),
	}

	if system := systemPrompt(req); system != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			{
				Type: anthropic.F(anthropic.TextBlockParamTypeText),
				Text: anthropic.F(system),
			},
		})
	}

	return params
}

func textMessage(role, content string) anthropic.MessageParam {
	return anthropic.MessageParam{
		Role: anthropic.F(anthropic.MessageParamRole(role)),
		Content: anthropic.F([]anthropic.ContentBlockParamUnion{
			anthropic.TextBlockParam{
				Type: anthropic.F(anthropic.TextBlockParamTypeText),
				Text: anthropic.F(content),
			},
		}),
	}
}
