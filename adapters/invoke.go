// File: adapters/invoke.go
// Package adapters
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Listener invocation. Listener failures are logged and swallowed; they must
// never propagate into the selector thread.

package adapters

import (
	"go.uber.org/zap"

	"github.com/rohankumardubey/xnio-core/api"
	"github.com/rohankumardubey/xnio-core/internal/logging"
	"github.com/rohankumardubey/xnio-core/metrics"
)

// InvokeChannelListener invokes the listener on the channel, catching every
// panic. Returns true when the listener completed normally. A nil listener
// counts as success.
func InvokeChannelListener[C any](channel C, listener api.ChannelListener[C]) (ok bool) {
	if listener == nil {
		return true
	}
	ok = true
	defer func() {
		if r := recover(); r != nil {
			metrics.ListenerFailures.Inc()
			logging.ChannelListener().Error("channel event listener failed",
				zap.Any("panic", r))
			ok = false
		}
	}()
	listener.HandleEvent(channel)
	return ok
}

// InvokeChannelListenerOn submits the invocation to executor; a rejected
// submission falls back to invoking inline.
func InvokeChannelListenerOn[C any](executor api.Executor, channel C, listener api.ChannelListener[C]) {
	if err := executor.Submit(ChannelListenerTask(channel, listener)); err != nil {
		InvokeChannelListener(channel, listener)
	}
}

// ChannelListenerTask returns a task which invokes the listener on the
// channel.
func ChannelListenerTask[C any](channel C, listener api.ChannelListener[C]) func() {
	return func() {
		InvokeChannelListener(channel, listener)
	}
}

// ExecutorChannelListener returns a listener which dispatches the delegate on
// the executor. When the executor rejects the task, the channel is safe-closed.
func ExecutorChannelListener[C api.Channel](listener api.ChannelListener[C], executor api.Executor) api.ChannelListener[C] {
	return api.ChannelListenerFunc[C](func(channel C) {
		if err := executor.Submit(ChannelListenerTask(channel, listener)); err != nil {
			logging.ChannelListener().Error("failed to submit listener task to executor",
				zap.Error(err))
			SafeClose(channel)
		}
	})
}

// ClosingChannelListener returns a listener which safe-closes the channel it
// receives.
func ClosingChannelListener[C api.Channel]() api.ChannelListener[C] {
	return api.ChannelListenerFunc[C](func(channel C) {
		SafeClose(channel)
	})
}

// NullChannelListener returns a listener which does nothing.
func NullChannelListener[C any]() api.ChannelListener[C] {
	return api.ChannelListenerFunc[C](func(C) {})
}

// ChannelListenerNotifier returns a notifier which invokes the channel
// listener given as the attachment with the future's done value.
func ChannelListenerNotifier[C api.Channel]() api.Notifier[C] {
	return api.NotifierFunc[C](func(f api.Future[C], attachment any) {
		if f.Status() != api.StatusDone {
			return
		}
		listener, ok := attachment.(api.ChannelListener[C])
		if !ok {
			return
		}
		channel, err := f.Get()
		if err != nil {
			return
		}
		InvokeChannelListener(channel, listener)
	})
}
