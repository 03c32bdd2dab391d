// File: adapters/setter.go
// Package adapters provides the glue between the api contracts and concrete
// channel implementations: listener cells, delegating setters, executors,
// cancellables, and safe-close plumbing.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package adapters

import (
	"sync/atomic"

	"github.com/rohankumardubey/xnio-core/api"
)

// listenerBox wraps a listener value so nil can be stored atomically.
type listenerBox[C any] struct {
	listener api.ChannelListener[C]
}

// ListenerCell is an atomic listener slot backing a channel's setter.
// Channel implementations hold one cell per direction plus one for close.
// After MarkClosed, further Set calls are no-ops.
type ListenerCell[C any] struct {
	p      atomic.Pointer[listenerBox[C]]
	closed atomic.Bool
}

// Ensure compliance with the setter contract.
var _ api.ListenerSetter[int] = (*ListenerCell[int])(nil)

// Set replaces the slot's listener atomically.
func (c *ListenerCell[C]) Set(listener api.ChannelListener[C]) {
	if c.closed.Load() {
		return
	}
	c.p.Store(&listenerBox[C]{listener: listener})
}

// Get returns the currently bound listener, or nil.
func (c *ListenerCell[C]) Get() api.ChannelListener[C] {
	if b := c.p.Load(); b != nil {
		return b.listener
	}
	return nil
}

// MarkClosed freezes the cell; used once the owning channel's close has been
// dispatched.
func (c *ListenerCell[C]) MarkClosed() {
	c.closed.Store(true)
	c.p.Store(&listenerBox[C]{})
}

// NullSetter returns a setter which discards every listener.
func NullSetter[C any]() api.ListenerSetter[C] {
	return nullSetter[C]{}
}

type nullSetter[C any] struct{}

func (nullSetter[C]) Set(api.ChannelListener[C]) {}

// DelegatingSetter binds to an upstream setter but substitutes a fixed real
// channel argument, so a listener written for channel type T can attach to an
// upstream emitting a different channel type. The substitution happens on
// each dispatch.
func DelegatingSetter[T, O any](target api.ListenerSetter[O], realChannel T) api.ListenerSetter[T] {
	return &delegatingSetter[T, O]{target: target, realChannel: realChannel}
}

type delegatingSetter[T, O any] struct {
	target      api.ListenerSetter[O]
	realChannel T
}

func (d *delegatingSetter[T, O]) Set(listener api.ChannelListener[T]) {
	if listener == nil {
		d.target.Set(nil)
		return
	}
	d.target.Set(api.ChannelListenerFunc[O](func(O) {
		listener.HandleEvent(d.realChannel)
	}))
}
