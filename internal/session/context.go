package session

import (
	"strings"

	"github.com/quillchat/session-platform/internal/model"
	"github.com/quillchat/session-platform/internal/query"
)

// defaultHistoryLimit bounds the trailing window of prior messages sent
// with each query, oldest discarded first.
const defaultHistoryLimit = 15

var lengthDirectives = map[model.ResponseLength]string{
	model.ResponseLengthConcise:  "Keep responses brief and to the point.",
	model.ResponseLengthBalanced: "Balance detail with readability.",
	model.ResponseLengthDetailed: "Provide thorough, detailed responses.",
}

var creativityDirectives = map[model.Creativity]string{
	model.CreativityPrecise:  "Favor precise, factual answers.",
	model.CreativityBalanced: "Balance accuracy with expressiveness.",
	model.CreativityCreative: "Feel free to be exploratory and creative.",
}

// buildContext joins the directive parts in fixed order, skipping absent
// ones: caller context, response length, creativity, personalization.
func buildContext(callerContext string, opts Options) string {
	var parts []string

	if callerContext != "" {
		parts = append(parts, callerContext)
	}
	if d, ok := lengthDirectives[opts.ResponseLength]; ok {
		parts = append(parts, d)
	}
	if d, ok := creativityDirectives[opts.Creativity]; ok {
		parts = append(parts, d)
	}
	if opts.Profile != nil && opts.Profile.DisplayName != "" {
		parts = append(parts, "Address the user as "+opts.Profile.DisplayName+".")
	}

	return strings.Join(parts, "\n")
}

// profileContext extracts the personalization context sent alongside the
// query text when the session has an associated profile.
func profileContext(profile *model.Profile) string {
	if profile == nil {
		return ""
	}
	return profile.Persona
}

// historyWindow translates prior messages to {role, content} pairs for the
// outgoing query. Error and regenerated messages are skipped; at most
// limit entries are kept, oldest discarded first.
func historyWindow(messages []*model.Message, limit int) []query.ChatMessage {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var window []query.ChatMessage
	for _, msg := range messages {
		if msg.Error || msg.Regenerated || msg.Streaming {
			continue
		}
		window = append(window, query.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	if len(window) > limit {
		window = window[len(window)-limit:]
	}
	return window
}
