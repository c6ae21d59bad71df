package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quillchat/session-platform/internal/attachment"
	"github.com/quillchat/session-platform/pkg/logger"
)

// AttachmentHandler manages a session's transient file selection.
type AttachmentHandler struct {
	sessions *SessionHandler
	logger   *logger.Logger
}

// NewAttachmentHandler creates a new attachment handler.
func NewAttachmentHandler(sessions *SessionHandler, log *logger.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		sessions: sessions,
		logger:   log,
	}
}

// AddAttachmentRequest carries the display metadata of one selected file.
// File contents stay client-side; the platform never receives them.
type AddAttachmentRequest struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mime_type"`
}

// Add handles POST /api/v1/sessions/:id/attachments
func (h *AttachmentHandler) Add(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.sessions.lookup(w, r)
	if !ok {
		return
	}

	var req AddAttachmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	att, err := entry.Attachments.Add(req.Name, req.Size, req.MIMEType)
	switch {
	case errors.Is(err, attachment.ErrTooManyFiles),
		errors.Is(err, attachment.ErrFileTooLarge),
		errors.Is(err, attachment.ErrEmptyName):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to add attachment")
		return
	}

	writeJSON(w, http.StatusCreated, att)
}

// List handles GET /api/v1/sessions/:id/attachments
func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.sessions.lookup(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, entry.Attachments.Selected())
}

// Remove handles DELETE /api/v1/sessions/:id/attachments/:attachmentID
func (h *AttachmentHandler) Remove(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.sessions.lookup(w, r)
	if !ok {
		return
	}

	if err := entry.Attachments.Remove(chi.URLParam(r, "attachmentID")); err != nil {
		writeError(w, http.StatusNotFound, "attachment not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
