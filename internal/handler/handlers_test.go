package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillchat/session-platform/internal/attachment"
	"github.com/quillchat/session-platform/internal/export"
	"github.com/quillchat/session-platform/internal/handler"
	"github.com/quillchat/session-platform/internal/model"
	"github.com/quillchat/session-platform/internal/prompt"
	"github.com/quillchat/session-platform/internal/query"
	"github.com/quillchat/session-platform/internal/service"
	"github.com/quillchat/session-platform/internal/session"
	"github.com/quillchat/session-platform/pkg/logger"
)

type stubService struct{}

func (stubService) Name() string { return "stub" }

func (stubService) Query(ctx context.Context, req *query.Request) (*query.Result, error) {
	return &query.Result{Text: "Hello", ConversationID: "conv-1"}, nil
}

func (stubService) QueryStream(ctx context.Context, req *query.Request, onChunk query.ChunkFunc) (*query.Result, error) {
	for _, chunk := range []string{"Hel", "lo"} {
		if err := onChunk(chunk); err != nil {
			return nil, err
		}
	}
	return &query.Result{ConversationID: "conv-1"}, nil
}

func newTestRouter() (*chi.Mux, *service.Registry) {
	log := logger.NewNop()
	registry := service.NewRegistry(stubService{}, nil, log, session.FixedScorer(0.9), attachment.FixedSource(100))

	sessions := handler.NewSessionHandler(registry, log)
	messages := handler.NewMessageHandler(registry, sessions, log)
	suggestions := handler.NewSuggestionHandler(prompt.NewCatalog(nil), messages, sessions, log)
	attachments := handler.NewAttachmentHandler(sessions, log)

	r := chi.NewRouter()
	r.Get("/suggestions", suggestions.List)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", sessions.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", sessions.Get)
			r.Delete("/", sessions.Delete)
			r.Post("/clear", sessions.Clear)
			r.Get("/export", sessions.Export)
			r.Post("/messages", messages.Submit)
			r.Post("/messages/{messageID}/regenerate", messages.Regenerate)
			r.Put("/messages/{messageID}/feedback", messages.Feedback)
			r.Post("/suggestions/{suggestionID}", suggestions.Apply)
			r.Post("/attachments", attachments.Add)
			r.Get("/attachments", attachments.List)
			r.Delete("/attachments/{attachmentID}", attachments.Remove)
		})
	})

	return r, registry
}

func createSession(t *testing.T, router http.Handler, body string) model.SessionInfo {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(body))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var info model.SessionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	return info
}

func TestSessionLifecycle(t *testing.T) {
	router, _ := newTestRouter()

	info := createSession(t, router, `{"streaming":true,"greeting":"Welcome!"}`)
	require.Len(t, info.Messages, 1)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+info.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/"+info.ID+"/clear", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/"+info.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+info.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitStreamsEvents(t *testing.T) {
	router, _ := newTestRouter()
	info := createSession(t, router, `{"streaming":true}`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+info.ID+"/messages", strings.NewReader(`{"content":"hi"}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: accepted")
	assert.Contains(t, body, "event: chunk")
	assert.Contains(t, body, "event: message_complete")
	assert.Contains(t, body, "event: done")
	assert.Contains(t, body, "Hello")
}

func TestSubmitEmptyRejected(t *testing.T) {
	router, _ := newTestRouter()
	info := createSession(t, router, `{"streaming":true}`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+info.ID+"/messages", strings.NewReader(`{"content":""}`))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeedbackEndpoint(t *testing.T) {
	router, registry := newTestRouter()
	info := createSession(t, router, `{"streaming":false}`)

	entry, err := registry.Get(info.ID)
	require.NoError(t, err)

	res, err := entry.Manager.Submit(context.Background(), session.SubmitInput{Text: "hi"})
	require.NoError(t, err)
	<-res.Done

	url := "/sessions/" + info.ID + "/messages/" + res.AssistantMessageID + "/feedback"

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, url, strings.NewReader(`{"feedback":"positive"}`)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, url, strings.NewReader(`{"feedback":"meh"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/sessions/"+info.ID+"/messages/"+res.UserMessageID+"/feedback", strings.NewReader(`{"feedback":"positive"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegenerateEndpoint(t *testing.T) {
	router, registry := newTestRouter()
	info := createSession(t, router, `{"streaming":true}`)

	entry, err := registry.Get(info.ID)
	require.NoError(t, err)

	res, err := entry.Manager.Submit(context.Background(), session.SubmitInput{Text: "hi"})
	require.NoError(t, err)
	<-res.Done

	rec := httptest.NewRecorder()
	url := "/sessions/" + info.ID + "/messages/" + res.AssistantMessageID + "/regenerate"
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event: message_complete")

	// Regenerating the user message violates preconditions.
	rec = httptest.NewRecorder()
	url = "/sessions/" + info.ID + "/messages/" + res.UserMessageID + "/regenerate"
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExportEndpoint(t *testing.T) {
	router, registry := newTestRouter()
	info := createSession(t, router, `{"streaming":false,"greeting":"Welcome!"}`)

	entry, err := registry.Get(info.ID)
	require.NoError(t, err)

	res, err := entry.Manager.Submit(context.Background(), session.SubmitInput{Text: "hi"})
	require.NoError(t, err)
	<-res.Done

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+info.ID+"/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	var doc export.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Messages, 3)
	assert.Equal(t, "assistant", doc.Messages[0].Role)
	assert.Equal(t, "Welcome!", doc.Messages[0].Content)
	assert.Equal(t, "user", doc.Messages[1].Role)
	assert.Equal(t, "hi", doc.Messages[1].Content)
	assert.Equal(t, "Hello", doc.Messages[2].Content)
}

func TestSuggestions(t *testing.T) {
	router, _ := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/suggestions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []model.Suggestion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.NotEmpty(t, entries)

	info := createSession(t, router, `{"streaming":true}`)

	// Auto-submit suggestions dispatch immediately over SSE.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/"+info.ID+"/suggestions/summarize", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event: done")

	// Pre-fill suggestions return their text instead.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/"+info.ID+"/suggestions/brainstorm", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var suggestion model.Suggestion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &suggestion))
	assert.False(t, suggestion.AutoSubmit)
}

func TestAttachmentEndpoints(t *testing.T) {
	router, _ := newTestRouter()
	info := createSession(t, router, `{"streaming":true}`)

	rec := httptest.NewRecorder()
	body := `{"name":"notes.txt","size":128,"mime_type":"text/plain"}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/"+info.ID+"/attachments", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var att model.Attachment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &att))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+info.ID+"/attachments", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []model.Attachment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 1)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/"+info.ID+"/attachments/"+att.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Oversize metadata is rejected before any state change.
	rec = httptest.NewRecorder()
	big := `{"name":"big.bin","size":99999999,"mime_type":"application/octet-stream"}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/"+info.ID+"/attachments", strings.NewReader(big)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
