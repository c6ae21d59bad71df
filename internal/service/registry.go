// Package service provides the session registry wiring managers to their
// collaborators.
package service

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quillchat/session-platform/internal/attachment"
	"github.com/quillchat/session-platform/internal/model"
	"github.com/quillchat/session-platform/internal/notify"
	"github.com/quillchat/session-platform/internal/query"
	"github.com/quillchat/session-platform/internal/session"
	"github.com/quillchat/session-platform/pkg/logger"
	"github.com/quillchat/session-platform/pkg/metrics"
)

// ErrSessionNotFound reports an unknown session identifier.
var ErrSessionNotFound = errors.New("session not found")

// Session bundles a manager with its sibling collaborators.
type Session struct {
	Manager     *session.Manager
	Attachments *attachment.Tracker
}

// Registry manages live sessions. Session state lives for the registry's
// lifetime only; there is no persistence or reload path.
type Registry struct {
	queryService query.Service
	notifier     notify.Notifier
	logger       *logger.Logger
	scorer       session.Scorer
	progress     attachment.ProgressSource

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates a session registry. Scorer and progress source are
// optional; nil selects the production defaults.
func NewRegistry(
	queryService query.Service,
	notifier notify.Notifier,
	log *logger.Logger,
	scorer session.Scorer,
	progress attachment.ProgressSource,
) *Registry {
	if log == nil {
		log = logger.Global()
	}
	return &Registry{
		queryService: queryService,
		notifier:     notifier,
		logger:       log,
		scorer:       scorer,
		progress:     progress,
		sessions:     make(map[string]*Session),
	}
}

// Create opens a new session with the requested options.
func (r *Registry) Create(req *model.CreateSessionRequest) *Session {
	id := uuid.Must(uuid.NewV7()).String()
	tracker := attachment.NewTracker(r.progress)

	mgr := session.NewManager(id, r.queryService, r.notifier, r.logger, session.Options{
		Streaming:      req.Streaming,
		Greeting:       req.Greeting,
		ResponseLength: req.ResponseLength,
		Creativity:     req.Creativity,
		Profile:        req.Profile,
		Scorer:         r.scorer,
		Attachments:    tracker,
	})

	entry := &Session{Manager: mgr, Attachments: tracker}

	r.mu.Lock()
	r.sessions[id] = entry
	r.mu.Unlock()

	metrics.SessionsActive.Inc()
	r.logger.Info("session created", zap.String("session_id", id))

	return entry
}

// Get retrieves a live session by identifier.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	entry, exists := r.sessions[id]
	r.mu.RUnlock()

	if !exists {
		return nil, ErrSessionNotFound
	}
	return entry, nil
}

// Delete removes a session from the registry. In-flight callbacks for the
// dropped session resolve against its detached manager and are harmless.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	entry, exists := r.sessions[id]
	if exists {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}

	entry.Manager.Clear()
	metrics.SessionsActive.Dec()
	r.logger.Info("session deleted", zap.String("session_id", id))

	return nil
}

// AdvanceUploads applies one progress step to every session's pending
// uploads. Driven by a ticker at the composition root.
func (r *Registry) AdvanceUploads() {
	r.mu.RLock()
	trackers := make([]*attachment.Tracker, 0, len(r.sessions))
	for _, entry := range r.sessions {
		trackers = append(trackers, entry.Attachments)
	}
	r.mu.RUnlock()

	for _, tracker := range trackers {
		tracker.Advance()
	}
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
