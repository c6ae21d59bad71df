// Package attachment tracks the transient file selection a session
// consumes at submission time. File contents are never inspected here;
// only display metadata and upload state are kept.
package attachment

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quillchat/session-platform/internal/model"
)

const (
	// MaxFiles bounds the number of files in one selection.
	MaxFiles = 5

	// MaxFileSize bounds the size of a single file.
	MaxFileSize = 10 << 20 // 10 MiB
)

var (
	// ErrTooManyFiles rejects a selection beyond MaxFiles.
	ErrTooManyFiles = errors.New("too many attached files")

	// ErrFileTooLarge rejects a file larger than MaxFileSize.
	ErrFileTooLarge = errors.New("attached file exceeds size limit")

	// ErrEmptyName rejects a file without a display name.
	ErrEmptyName = errors.New("attached file requires a name")

	// ErrNotFound reports an unknown attachment identifier.
	ErrNotFound = errors.New("attachment not found")
)

// ProgressSource supplies upload progress steps. Production sources may
// simulate or proxy real transfers; tests supply deterministic fixtures.
type ProgressSource interface {
	// Step returns the next progress value after current, in [0, 100],
	// and whether the upload has failed.
	Step(current int) (next int, failed bool)
}

// SimulatedSource advances progress by a bounded random step and never
// fails. It stands in where no real upload pipeline exists.
type SimulatedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedSource creates a simulated progress source.
func NewSimulatedSource() *SimulatedSource {
	return &SimulatedSource{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Step advances progress by 15–35 points.
func (s *SimulatedSource) Step(current int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := current + 15 + s.rng.Intn(21)
	if next > 100 {
		next = 100
	}
	return next, false
}

// FixedSource advances progress by a constant step. Intended for tests.
type FixedSource int

// Step advances progress by the fixed step.
func (s FixedSource) Step(current int) (int, bool) {
	next := current + int(s)
	if next > 100 {
		next = 100
	}
	return next, false
}

// FailingSource fails every upload immediately. Intended for tests.
type FailingSource struct{}

// Step marks the upload failed.
func (FailingSource) Step(current int) (int, bool) {
	return current, true
}

// Tracker holds one session's file selection.
type Tracker struct {
	mu     sync.Mutex
	source ProgressSource
	items  []model.Attachment
}

// NewTracker creates a tracker. A nil source defaults to simulation.
func NewTracker(source ProgressSource) *Tracker {
	if source == nil {
		source = NewSimulatedSource()
	}
	return &Tracker{source: source}
}

// Add validates and records a new file selection entry.
func (t *Tracker) Add(name string, size int64, mimeType string) (model.Attachment, error) {
	if strings.TrimSpace(name) == "" {
		return model.Attachment{}, ErrEmptyName
	}
	if size > MaxFileSize {
		return model.Attachment{}, ErrFileTooLarge
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.items) >= MaxFiles {
		return model.Attachment{}, ErrTooManyFiles
	}

	att := model.Attachment{
		ID:       uuid.Must(uuid.NewV7()).String(),
		Name:     name,
		Size:     size,
		MIMEType: mimeType,
		State:    model.AttachmentPending,
	}
	t.items = append(t.items, att)

	return att, nil
}

// Advance applies one progress step to every non-terminal upload.
func (t *Tracker) Advance() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.items {
		item := &t.items[i]
		switch item.State {
		case model.AttachmentComplete, model.AttachmentFailed:
			continue
		}

		next, failed := t.source.Step(item.Progress)
		if failed {
			item.State = model.AttachmentFailed
			continue
		}

		item.Progress = next
		if next >= 100 {
			item.State = model.AttachmentComplete
		} else {
			item.State = model.AttachmentUploading
		}
	}
}

// Remove drops one entry from the selection.
func (t *Tracker) Remove(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, item := range t.items {
		if item.ID == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Selected returns a copy of the current selection.
func (t *Tracker) Selected() []model.Attachment {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]model.Attachment, len(t.items))
	copy(out, t.items)
	return out
}

// Clear discards the entire selection.
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.items = nil
	t.mu.Unlock()
}
