// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/quillchat/session-platform/internal/export"
	"github.com/quillchat/session-platform/internal/middleware"
	"github.com/quillchat/session-platform/internal/model"
	"github.com/quillchat/session-platform/internal/service"
	"github.com/quillchat/session-platform/pkg/logger"
)

// SessionHandler handles session lifecycle endpoints.
type SessionHandler struct {
	registry *service.Registry
	logger   *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(registry *service.Registry, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		logger:   log,
	}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateGreeting(req.Greeting); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry := h.registry.Create(&req)

	writeJSON(w, http.StatusCreated, entry.Manager.Snapshot())
}

// Get handles GET /api/v1/sessions/:id
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, entry.Manager.Snapshot())
}

// Delete handles DELETE /api/v1/sessions/:id
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.registry.Delete(sessionID); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clear handles POST /api/v1/sessions/:id/clear
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}

	entry.Manager.Clear()

	writeJSON(w, http.StatusOK, entry.Manager.Snapshot())
}

// Export handles GET /api/v1/sessions/:id/export
// The export is a one-way downloadable artifact; there is no import path.
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}

	displayName := middleware.GetDisplayName(r.Context())
	if displayName == "" {
		displayName = "User"
	}

	now := time.Now()
	doc := export.BuildDocument(displayName, entry.Manager.Snapshot(), now)

	filename := fmt.Sprintf("chat-export-%s.json", now.UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := doc.Write(w); err != nil {
		h.logger.Error("failed to write export", zap.Error(err))
	}
}

// lookup resolves the session named in the URL, writing the error response
// itself when resolution fails.
func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	sessionID := chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	entry, err := h.registry.Get(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}

	return entry, true
}
