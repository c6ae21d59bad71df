// Package platform replaces ambient environment state with an explicit
// adapter: install availability, connectivity, and background agent
// registration become injected, process-wide state with documented init
// and teardown.
package platform

import (
	"context"
	"sync"

	"github.com/nats-io/nats.go"
)

// Adapter exposes platform signals to the session layer.
type Adapter interface {
	// OnInstallAvailable registers a callback fired when the hosting
	// platform offers installation.
	OnInstallAvailable(fn func())

	// OnConnectivityChange registers a callback fired when connectivity
	// flips. The callback receives the new online state.
	OnConnectivityChange(fn func(online bool))

	// RegisterBackgroundAgent registers the platform's background agent.
	RegisterBackgroundAgent(ctx context.Context) error

	// Close tears down all registrations.
	Close() error
}

// StaticAdapter is an Adapter with fixed state. Serves tests and
// single-binary deployments without platform integration.
type StaticAdapter struct {
	Online bool
}

// OnInstallAvailable never fires: a static platform offers no install.
func (a *StaticAdapter) OnInstallAvailable(fn func()) {}

// OnConnectivityChange fires once with the fixed state.
func (a *StaticAdapter) OnConnectivityChange(fn func(online bool)) {
	if fn != nil {
		fn(a.Online)
	}
}

// RegisterBackgroundAgent is a no-op.
func (a *StaticAdapter) RegisterBackgroundAgent(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (a *StaticAdapter) Close() error {
	return nil
}

// NATSAdapter derives connectivity from NATS connection status. Install
// availability never fires; there is no install affordance server-side.
type NATSAdapter struct {
	conn *nats.Conn

	mu        sync.Mutex
	listeners []func(online bool)
	closed    bool
}

// NewNATSAdapter creates an adapter bound to an established connection.
func NewNATSAdapter(conn *nats.Conn) *NATSAdapter {
	a := &NATSAdapter{conn: conn}

	conn.SetDisconnectErrHandler(func(nc *nats.Conn, err error) {
		a.notify(false)
	})
	conn.SetReconnectHandler(func(nc *nats.Conn) {
		a.notify(true)
	})

	return a
}

// OnInstallAvailable never fires.
func (a *NATSAdapter) OnInstallAvailable(fn func()) {}

// OnConnectivityChange registers a connectivity listener and fires it
// immediately with the current state.
func (a *NATSAdapter) OnConnectivityChange(fn func(online bool)) {
	if fn == nil {
		return
	}

	a.mu.Lock()
	a.listeners = append(a.listeners, fn)
	a.mu.Unlock()

	fn(a.conn.IsConnected())
}

// RegisterBackgroundAgent is satisfied by the connection's own reconnect
// loop; nothing further to register.
func (a *NATSAdapter) RegisterBackgroundAgent(ctx context.Context) error {
	return nil
}

// Close drops all listeners. The connection itself is owned by the caller.
func (a *NATSAdapter) Close() error {
	a.mu.Lock()
	a.listeners = nil
	a.closed = true
	a.mu.Unlock()
	return nil
}

func (a *NATSAdapter) notify(online bool) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	listeners := make([]func(bool), len(a.listeners))
	copy(listeners, a.listeners)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(online)
	}
}
