// Package prompt provides the suggested-prompts catalog that pre-fills or
// auto-submits session input. It owns no session state.
package prompt

import (
	"errors"

	"github.com/quillchat/session-platform/internal/model"
)

// ErrNotFound reports an unknown suggestion identifier.
var ErrNotFound = errors.New("suggestion not found")

// Catalog holds an immutable set of suggestions.
type Catalog struct {
	entries []model.Suggestion
}

// NewCatalog creates a catalog from the given entries. A nil slice yields
// the default catalog.
func NewCatalog(entries []model.Suggestion) *Catalog {
	if entries == nil {
		entries = defaultSuggestions
	}
	return &Catalog{entries: entries}
}

// List returns all suggestions.
func (c *Catalog) List() []model.Suggestion {
	out := make([]model.Suggestion, len(c.entries))
	copy(out, c.entries)
	return out
}

// Pick resolves one suggestion by identifier.
func (c *Catalog) Pick(id string) (model.Suggestion, error) {
	for _, entry := range c.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return model.Suggestion{}, ErrNotFound
}

var defaultSuggestions = []model.Suggestion{
	{
		ID:         "summarize",
		Title:      "Summarize",
		Text:       "Summarize our conversation so far.",
		AutoSubmit: true,
	},
	{
		ID:         "explain",
		Title:      "Explain simply",
		Text:       "Explain that again in simpler terms.",
		AutoSubmit: true,
	},
	{
		ID:         "brainstorm",
		Title:      "Brainstorm",
		Text:       "Help me brainstorm ideas about ",
	},
	{
		ID:         "draft",
		Title:      "Draft a message",
		Text:       "Help me draft a message about ",
	},
}
