package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quillchat/session-platform/internal/prompt"
	"github.com/quillchat/session-platform/internal/session"
	"github.com/quillchat/session-platform/pkg/logger"
)

// SuggestionHandler serves the suggested-prompts catalog and applies a
// chosen suggestion to a session.
type SuggestionHandler struct {
	catalog  *prompt.Catalog
	messages *MessageHandler
	sessions *SessionHandler
	logger   *logger.Logger
}

// NewSuggestionHandler creates a new suggestion handler.
func NewSuggestionHandler(catalog *prompt.Catalog, messages *MessageHandler, sessions *SessionHandler, log *logger.Logger) *SuggestionHandler {
	return &SuggestionHandler{
		catalog:  catalog,
		messages: messages,
		sessions: sessions,
		logger:   log,
	}
}

// List handles GET /api/v1/suggestions
func (h *SuggestionHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.List())
}

// Apply handles POST /api/v1/sessions/:id/suggestions/:suggestionID
// Auto-submit suggestions dispatch immediately and stream the reply;
// pre-fill suggestions return their text for the caller's input field.
func (h *SuggestionHandler) Apply(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.sessions.lookup(w, r)
	if !ok {
		return
	}

	suggestion, err := h.catalog.Pick(chi.URLParam(r, "suggestionID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "suggestion not found")
		return
	}

	if !suggestion.AutoSubmit {
		writeJSON(w, http.StatusOK, suggestion)
		return
	}

	h.messages.stream(w, r, entry, func(ctx context.Context, onChunk session.ChunkObserver) (*session.SubmitResult, error) {
		return entry.Manager.Submit(ctx, session.SubmitInput{
			Text:    suggestion.Text,
			OnChunk: onChunk,
		})
	})
}
