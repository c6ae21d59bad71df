// Package session implements the conversational session manager: an
// ordered message sequence whose mutations are driven by user submissions,
// streamed chunk delivery, and regeneration or feedback actions.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quillchat/session-platform/internal/model"
	"github.com/quillchat/session-platform/internal/notify"
	"github.com/quillchat/session-platform/internal/query"
	"github.com/quillchat/session-platform/pkg/logger"
	"github.com/quillchat/session-platform/pkg/metrics"
)

// Apology is the fixed user-facing content recorded on a failed reply.
const Apology = "I'm sorry, I wasn't able to produce a response. Please try again."

var (
	// ErrSendInFlight rejects a submission while another is outstanding.
	ErrSendInFlight = errors.New("a send is already in flight")

	// ErrEmptySubmission rejects a submission with no text and no attachments.
	ErrEmptySubmission = errors.New("submission requires text or an attachment")

	// ErrMessageNotFound reports an unknown message identifier.
	ErrMessageNotFound = errors.New("message not found")

	// ErrCannotRegenerate reports a regeneration target whose preconditions
	// do not hold.
	ErrCannotRegenerate = errors.New("message cannot be regenerated")

	// ErrInvalidFeedback reports an unknown feedback rating.
	ErrInvalidFeedback = errors.New("invalid feedback rating")
)

// AttachmentSource supplies the transient file selection consumed once at
// submission time. Siblings bind through this interface rather than shared
// mutable state.
type AttachmentSource interface {
	Selected() []model.Attachment
	Clear()
}

// ChunkObserver is notified of each chunk applied to a placeholder message.
type ChunkObserver func(event model.ChunkEvent)

// Options configure a session's behavior.
type Options struct {
	// Streaming enables chunked delivery of assistant replies.
	Streaming bool

	// Greeting, when set, seeds a single assistant message on creation
	// and after every Clear.
	Greeting string

	// Context is the caller-supplied context joined into every query.
	Context string

	ResponseLength model.ResponseLength
	Creativity     model.Creativity
	Profile        *model.Profile

	// Scorer supplies the advisory confidence value. Defaults to a
	// jittered baseline.
	Scorer Scorer

	// Attachments, when set, supplies the file selection consumed at
	// submission time.
	Attachments AttachmentSource

	// HistoryLimit bounds the trailing history window. Defaults to 15.
	HistoryLimit int

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// SubmitInput carries one user submission.
type SubmitInput struct {
	Text string

	// Context overrides the session's caller-supplied context for this
	// submission only.
	Context string

	// Attachments override the session's attachment source selection.
	Attachments []model.Attachment

	// OnChunk observes chunks as they are applied. Optional.
	OnChunk ChunkObserver
}

// SubmitResult acknowledges a dispatched submission. Done closes after
// terminal resolution has been applied.
type SubmitResult struct {
	UserMessageID      string
	AssistantMessageID string
	Done               <-chan struct{}
}

// Manager owns one session's ordered message sequence and mediates all
// mutations to it. A mutex serializes mutation; the sendInFlight gate
// guarantees at most one outstanding external call.
type Manager struct {
	id        string
	svc       query.Service
	notifier  notify.Notifier
	logger    *logger.Logger
	scorer    Scorer
	opts      Options
	now       func() time.Time
	createdAt time.Time

	mu             sync.Mutex
	messages       []*model.Message
	conversationID string
	sendInFlight   bool
	streamInFlight bool

	// epoch detaches in-flight calls from the sequence: Clear bumps it,
	// and callbacks carrying a stale epoch become no-ops.
	epoch uint64
}

// NewManager creates a session manager. A nil notifier discards events.
func NewManager(id string, svc query.Service, notifier notify.Notifier, log *logger.Logger, opts Options) *Manager {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if log == nil {
		log = logger.Global()
	}
	if opts.Scorer == nil {
		opts.Scorer = NewJitterScorer()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}

	m := &Manager{
		id:        id,
		svc:       svc,
		notifier:  notifier,
		logger:    log.WithSession(id),
		scorer:    opts.Scorer,
		opts:      opts,
		now:       opts.Now,
		createdAt: opts.Now(),
	}

	if opts.Greeting != "" {
		m.mu.Lock()
		m.seedGreetingLocked()
		m.mu.Unlock()
	}

	return m
}

// ID returns the session identifier.
func (m *Manager) ID() string {
	return m.id
}

// Submit appends an immutable user message and an assistant placeholder,
// then dispatches exactly one external call. It returns immediately; the
// placeholder is mutated as chunks arrive and once more at resolution.
func (m *Manager) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	m.mu.Lock()

	if m.sendInFlight {
		m.mu.Unlock()
		return nil, ErrSendInFlight
	}

	attachments := in.Attachments
	if len(attachments) == 0 && m.opts.Attachments != nil {
		attachments = m.opts.Attachments.Selected()
	}
	if strings.TrimSpace(in.Text) == "" && len(attachments) == 0 {
		m.mu.Unlock()
		return nil, ErrEmptySubmission
	}

	callerContext := in.Context
	if callerContext == "" {
		callerContext = m.opts.Context
	}

	req := &query.Request{
		Text:           in.Text,
		ProfileContext: profileContext(m.opts.Profile),
		ConversationID: m.conversationID,
		History:        historyWindow(m.messages, m.opts.HistoryLimit),
		Context:        buildContext(callerContext, m.opts),
	}

	now := m.now()
	userMsg := &model.Message{
		ID:             newID(),
		ConversationID: m.conversationID,
		Role:           model.RoleUser,
		Content:        in.Text,
		CreatedAt:      now,
	}
	placeholder := &model.Message{
		ID:        newID(),
		Role:      model.RoleAssistant,
		Streaming: m.opts.Streaming,
		CreatedAt: now,
	}

	m.messages = append(m.messages, userMsg, placeholder)
	m.sendInFlight = true
	m.streamInFlight = m.opts.Streaming
	epoch := m.epoch
	m.mu.Unlock()

	m.logger.Info("submission dispatched",
		zap.String("user_message_id", userMsg.ID),
		zap.String("assistant_message_id", placeholder.ID),
		zap.Int("attachments", len(attachments)),
	)

	done := make(chan struct{})
	go m.dispatch(ctx, epoch, placeholder.ID, req, in.OnChunk, done)

	return &SubmitResult{
		UserMessageID:      userMsg.ID,
		AssistantMessageID: placeholder.ID,
		Done:               done,
	}, nil
}

// Regenerate re-issues the user request preceding the given assistant
// message and overwrites that message in place, reusing its identifier.
// When the preconditions do not hold the sequence is left untouched and no
// call is dispatched.
func (m *Manager) Regenerate(ctx context.Context, messageID string, onChunk ChunkObserver) (*SubmitResult, error) {
	m.mu.Lock()

	if m.sendInFlight {
		m.mu.Unlock()
		return nil, ErrSendInFlight
	}

	idx := m.indexLocked(messageID)
	if idx < 0 {
		m.mu.Unlock()
		return nil, ErrMessageNotFound
	}

	target := m.messages[idx]
	if target.Role != model.RoleAssistant || idx == 0 || m.messages[idx-1].Role != model.RoleUser {
		m.mu.Unlock()
		metrics.RegenerationsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrCannotRegenerate
	}

	prompt := m.messages[idx-1]

	// Reset the target in place; the identifier survives regeneration.
	target.Content = ""
	target.Streaming = m.opts.Streaming
	target.Error = false
	target.Regenerated = true
	target.Feedback = ""
	target.Tokens = nil
	target.ProcessingMs = nil
	target.Confidence = nil

	req := &query.Request{
		Text:           prompt.Content,
		ProfileContext: profileContext(m.opts.Profile),
		ConversationID: m.conversationID,
		History:        historyWindow(m.messages[:idx-1], m.opts.HistoryLimit),
		Context:        buildContext(m.opts.Context, m.opts),
	}

	m.sendInFlight = true
	m.streamInFlight = m.opts.Streaming
	epoch := m.epoch
	m.mu.Unlock()

	metrics.RegenerationsTotal.WithLabelValues("dispatched").Inc()
	m.logger.Info("regeneration dispatched", zap.String("message_id", messageID))

	done := make(chan struct{})
	go m.dispatch(ctx, epoch, target.ID, req, onChunk, done)

	return &SubmitResult{
		UserMessageID:      prompt.ID,
		AssistantMessageID: target.ID,
		Done:               done,
	}, nil
}

// SetFeedback records a rating on an assistant message. Idempotent; the
// only side effect beyond the recorded tag is an out-of-band notification.
func (m *Manager) SetFeedback(messageID string, rating model.Feedback) error {
	if rating != model.FeedbackPositive && rating != model.FeedbackNegative {
		return ErrInvalidFeedback
	}

	m.mu.Lock()
	idx := m.indexLocked(messageID)
	if idx < 0 || m.messages[idx].Role != model.RoleAssistant {
		m.mu.Unlock()
		return ErrMessageNotFound
	}

	if m.messages[idx].Feedback == rating {
		m.mu.Unlock()
		return nil
	}

	m.messages[idx].Feedback = rating
	event := m.eventLocked(model.EventTypeFeedback, messageID, string(rating))
	m.mu.Unlock()

	metrics.FeedbackTotal.WithLabelValues(string(rating)).Inc()
	m.publish(event)

	return nil
}

// Clear discards the message sequence and the conversation identifier,
// reseeds the greeting when one is configured, and resets the in-flight
// flags. Safe to call mid-stream: late callbacks from a detached call
// target an epoch that no longer exists and are silently dropped.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.epoch++
	m.messages = nil
	m.conversationID = ""
	m.sendInFlight = false
	m.streamInFlight = false
	if m.opts.Greeting != "" {
		m.seedGreetingLocked()
	}
	event := m.eventLocked(model.EventTypeSessionCleared, "", "")
	m.mu.Unlock()

	if m.opts.Attachments != nil {
		m.opts.Attachments.Clear()
	}

	m.logger.Info("session cleared")
	m.publish(event)
}

// Snapshot returns a read-only deep copy of the session. Safe to call at
// any time, including while a send is in flight.
func (m *Manager) Snapshot() model.SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	messages := make([]model.Message, len(m.messages))
	for i, msg := range m.messages {
		messages[i] = msg.Clone()
	}

	return model.SessionInfo{
		ID:             m.id,
		ConversationID: m.conversationID,
		Messages:       messages,
		SendInFlight:   m.sendInFlight,
		StreamInFlight: m.streamInFlight,
		CreatedAt:      m.createdAt,
	}
}

// dispatch performs the external call and applies its terminal resolution.
func (m *Manager) dispatch(ctx context.Context, epoch uint64, targetID string, req *query.Request, onChunk ChunkObserver, done chan struct{}) {
	defer close(done)

	started := time.Now()

	var (
		res *query.Result
		err error
	)

	if m.opts.Streaming {
		index := 0
		res, err = m.svc.QueryStream(ctx, req, func(text string) error {
			m.applyChunk(epoch, targetID, text, index, onChunk)
			index++
			return nil
		})
	} else {
		res, err = m.svc.Query(ctx, req)
	}

	m.resolve(epoch, targetID, res, err, started)
}

// applyChunk appends one streamed chunk to the placeholder and recomputes
// the advisory token estimate. Chunks arriving after Clear are dropped.
func (m *Manager) applyChunk(epoch uint64, targetID, text string, index int, onChunk ChunkObserver) {
	m.mu.Lock()
	msg := m.findLocked(epoch, targetID)
	if msg == nil {
		m.mu.Unlock()
		metrics.StaleCallbacksTotal.Inc()
		return
	}

	msg.Content += text
	tokens := estimateTokens(msg.Content)
	msg.Tokens = &tokens

	event := model.ChunkEvent{
		MessageID: targetID,
		Text:      text,
		Index:     index,
		Tokens:    tokens,
	}
	m.mu.Unlock()

	metrics.ChunksTotal.Inc()

	if onChunk != nil {
		onChunk(event)
	}
}

// resolve applies the terminal resolution of one dispatched call. The
// in-flight flags are reset on every fresh path, success or failure.
func (m *Manager) resolve(epoch uint64, targetID string, res *query.Result, err error, started time.Time) {
	elapsed := time.Since(started)

	m.mu.Lock()
	msg := m.findLocked(epoch, targetID)
	if msg == nil {
		m.mu.Unlock()
		metrics.StaleCallbacksTotal.Inc()
		metrics.RecordQuery(m.svc.Name(), "stale", elapsed.Seconds())
		return
	}

	ms := elapsed.Milliseconds()
	msg.Streaming = false
	msg.ProcessingMs = &ms

	var (
		status string
		event  *model.SessionEvent
	)

	switch {
	case err != nil:
		status = "fault"
		m.failLocked(msg)
		event = m.eventLocked(model.EventTypeFault, targetID, "technical difficulty: "+err.Error())

	case res.Erred:
		status = "error"
		m.failLocked(msg)
		event = m.eventLocked(model.EventTypeResponseFailed, targetID, "the service declined to respond")

	default:
		status = "success"
		if res.Text != "" {
			msg.Content = res.Text
		}
		tokens := estimateTokens(msg.Content)
		msg.Tokens = &tokens
		confidence := m.scorer.Score()
		msg.Confidence = &confidence

		if res.ConversationID != "" && res.ConversationID != m.conversationID {
			m.conversationID = res.ConversationID
		}
		msg.ConversationID = m.conversationID
	}

	m.sendInFlight = false
	m.streamInFlight = false
	m.mu.Unlock()

	if m.opts.Attachments != nil {
		m.opts.Attachments.Clear()
	}

	metrics.RecordQuery(m.svc.Name(), status, elapsed.Seconds())
	metrics.SubmissionsTotal.WithLabelValues(status).Inc()

	if event != nil {
		m.publish(event)
	}

	m.logger.Info("submission resolved",
		zap.String("message_id", targetID),
		zap.String("status", status),
		zap.Duration("elapsed", elapsed),
	)
}

// failLocked marks a message with the terminal failure state. No retry is
// attempted; recovery is a fresh Submit or Regenerate.
func (m *Manager) failLocked(msg *model.Message) {
	msg.Content = Apology
	msg.Error = true
	zero := 0.0
	msg.Confidence = &zero
}

func (m *Manager) seedGreetingLocked() {
	m.messages = append(m.messages, &model.Message{
		ID:        newID(),
		Role:      model.RoleAssistant,
		Content:   m.opts.Greeting,
		CreatedAt: m.now(),
	})
}

// findLocked resolves a callback target. A bumped epoch or missing
// identifier means the call was detached by Clear.
func (m *Manager) findLocked(epoch uint64, id string) *model.Message {
	if epoch != m.epoch {
		return nil
	}
	if idx := m.indexLocked(id); idx >= 0 {
		return m.messages[idx]
	}
	return nil
}

func (m *Manager) indexLocked(id string) int {
	for i, msg := range m.messages {
		if msg.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) eventLocked(eventType model.EventType, messageID, reason string) *model.SessionEvent {
	return &model.SessionEvent{
		ID:        newID(),
		SessionID: m.id,
		MessageID: messageID,
		Type:      eventType,
		Reason:    reason,
		CreatedAt: m.now(),
	}
}

func (m *Manager) publish(event *model.SessionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.notifier.Publish(ctx, event); err != nil {
		m.logger.Warn("failed to publish session event", zap.Error(err))
	}
}

// estimateTokens is the display estimate: character count divided by four,
// rounded up.
func estimateTokens(content string) int {
	return (len(content) + 3) / 4
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
