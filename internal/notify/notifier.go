// Package notify publishes out-of-band session events. Events are
// advisory for observers and never feed back into session state.
package notify

import (
	"context"

	"github.com/quillchat/session-platform/internal/model"
)

// Notifier publishes session events to an out-of-band channel.
type Notifier interface {
	Publish(ctx context.Context, event *model.SessionEvent) error
}

// Nop is a Notifier that discards all events.
type Nop struct{}

// Publish discards the event.
func (Nop) Publish(ctx context.Context, event *model.SessionEvent) error {
	return nil
}
