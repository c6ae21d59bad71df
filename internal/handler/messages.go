package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quillchat/session-platform/internal/middleware"
	"github.com/quillchat/session-platform/internal/model"
	"github.com/quillchat/session-platform/internal/service"
	"github.com/quillchat/session-platform/internal/session"
	"github.com/quillchat/session-platform/pkg/logger"
	"github.com/quillchat/session-platform/pkg/metrics"
)

// MessageHandler handles submission, regeneration, and feedback endpoints.
type MessageHandler struct {
	registry *service.Registry
	sessions *SessionHandler
	logger   *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(registry *service.Registry, sessions *SessionHandler, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		registry: registry,
		sessions: sessions,
		logger:   log,
	}
}

// Submit handles POST /api/v1/sessions/:id/messages
// The response is an SSE stream: chunk events while the reply streams in,
// then message_complete or error, then done.
func (m *MessageHandler) Submit(w http.ResponseWriter, r *http.Request) {
	entry, ok := m.sessions.lookup(w, r)
	if !ok {
		return
	}

	var req model.SubmitMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m.stream(w, r, entry, func(ctx context.Context, onChunk session.ChunkObserver) (*session.SubmitResult, error) {
		return entry.Manager.Submit(ctx, session.SubmitInput{
			Text:    req.Content,
			Context: req.Context,
			OnChunk: onChunk,
		})
	})
}

// Regenerate handles POST /api/v1/sessions/:id/messages/:messageID/regenerate
func (m *MessageHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	entry, ok := m.sessions.lookup(w, r)
	if !ok {
		return
	}

	messageID := chi.URLParam(r, "messageID")
	if err := middleware.ValidateMessageID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m.stream(w, r, entry, func(ctx context.Context, onChunk session.ChunkObserver) (*session.SubmitResult, error) {
		return entry.Manager.Regenerate(ctx, messageID, onChunk)
	})
}

// Feedback handles PUT /api/v1/sessions/:id/messages/:messageID/feedback
func (m *MessageHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	entry, ok := m.sessions.lookup(w, r)
	if !ok {
		return
	}

	messageID := chi.URLParam(r, "messageID")
	if err := middleware.ValidateMessageID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch err := entry.Manager.SetFeedback(messageID, req.Feedback); {
	case errors.Is(err, session.ErrInvalidFeedback):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, "message not found")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// dispatchFunc initiates one submission or regeneration.
type dispatchFunc func(ctx context.Context, onChunk session.ChunkObserver) (*session.SubmitResult, error)

// stream drives one dispatched call over SSE. Chunk callbacks arrive on
// the manager's dispatch goroutine; a channel serializes them onto this
// handler's writer.
func (m *MessageHandler) stream(w http.ResponseWriter, r *http.Request, entry *service.Session, dispatch dispatchFunc) {
	ctx := r.Context()

	chunks := make(chan model.ChunkEvent, 256)
	onChunk := func(event model.ChunkEvent) {
		select {
		case chunks <- event:
		case <-ctx.Done():
			// Client went away; the manager still resolves the message.
		}
	}

	res, err := dispatch(ctx, onChunk)
	if err != nil {
		writeDispatchError(w, err)
		return
	}

	setSSEHeaders(w)
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sendSSEEvent(w, flusher, "accepted", &model.SubmitMessageResponse{
		UserMessageID:      res.UserMessageID,
		AssistantMessageID: res.AssistantMessageID,
	})

	for {
		select {
		case event := <-chunks:
			sendSSEEvent(w, flusher, "chunk", event)

		case <-res.Done:
			m.drain(w, flusher, chunks)
			m.finish(w, flusher, entry, res.AssistantMessageID)
			return

		case <-ctx.Done():
			return
		}
	}
}

// drain flushes chunks buffered before terminal resolution. All chunk
// callbacks complete before Done closes, so no event can arrive later.
func (m *MessageHandler) drain(w http.ResponseWriter, flusher http.Flusher, chunks <-chan model.ChunkEvent) {
	for {
		select {
		case event := <-chunks:
			sendSSEEvent(w, flusher, "chunk", event)
		default:
			return
		}
	}
}

func (m *MessageHandler) finish(w http.ResponseWriter, flusher http.Flusher, entry *service.Session, messageID string) {
	info := entry.Manager.Snapshot()

	for _, msg := range info.Messages {
		if msg.ID != messageID {
			continue
		}

		if msg.Error {
			sendSSEEvent(w, flusher, "error", &model.ErrorEvent{
				Code:    "response_failed",
				Message: msg.Content,
			})
		} else {
			sendSSEEvent(w, flusher, "message_complete", &model.MessageCompleteEvent{
				Message: msg,
			})
		}
		break
	}

	sendSSEEvent(w, flusher, "done", map[string]bool{"success": true})
}

func writeDispatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSendInFlight):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrEmptySubmission):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrCannotRegenerate):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "failed to dispatch message")
	}
}
