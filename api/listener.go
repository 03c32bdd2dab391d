// File: api/listener.go
// Package api defines the channel listener and setter contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Listeners are the only way channel readiness and lifecycle events reach
// user code. A listener slot is bound through a ListenerSetter; direct field
// access is never exposed. Setter mutations are atomic: a dispatch observes
// either the old or the new listener, never a torn value.

package api

// ChannelListener consumes a channel event. A readiness listener will not be
// re-invoked for the same direction until it has returned; a listener that
// receives ownership of a freshly opened channel must close it or hand it off
// before returning.
type ChannelListener[C any] interface {
	HandleEvent(channel C)
}

// ChannelListenerFunc converts a function into a ChannelListener.
type ChannelListenerFunc[C any] func(channel C)

// HandleEvent calls the underlying function.
func (f ChannelListenerFunc[C]) HandleEvent(channel C) {
	f(channel)
}

// ListenerSetter atomically binds a listener to one readiness or lifecycle
// slot. Setting nil empties the slot. Setters on a channel whose close has
// already been dispatched are no-ops.
type ListenerSetter[C any] interface {
	Set(listener ChannelListener[C])
}
