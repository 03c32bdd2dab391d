// File: future/future.go
// Package future implements the asynchronous result state machine behind the
// api.Future contract, together with its write-only result sink.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The state machine holds one of waiting, done, failed, or cancelled. The
// transition out of waiting is monotonic and happens exactly once; it
// happens-before every notifier it fires and every later observation.
// Cancellation requests are advisory: they forward to attached cancel
// handlers and only a handler (or the operation itself) moves the future to
// the cancelled state.

package future

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rohankumardubey/xnio-core/api"
)

// FutureResult is a result sink bound one-to-one to a future it manages.
type FutureResult[T any] struct {
	f *ioFuture[T]
}

// Ensure compliance with the api.Result contract.
var _ api.Result[int] = (*FutureResult[int])(nil)

// NewResult creates a fresh sink with its future in the waiting state.
func NewResult[T any]() *FutureResult[T] {
	return &FutureResult[T]{f: newIoFuture[T]()}
}

// Future returns the read side managed by this sink.
func (r *FutureResult[T]) Future() api.Future[T] { return r.f }

// SetResult moves the future to done. Reports false when already terminal.
func (r *FutureResult[T]) SetResult(value T) bool {
	return r.f.transition(api.StatusDone, value, nil)
}

// SetException moves the future to failed.
func (r *FutureResult[T]) SetException(err error) bool {
	var zero T
	return r.f.transition(api.StatusFailed, zero, err)
}

// SetCancelled moves the future to cancelled.
func (r *FutureResult[T]) SetCancelled() bool {
	var zero T
	return r.f.transition(api.StatusCancelled, zero, nil)
}

// AddCancelHandler attaches a cooperating cancellable which receives any
// cancel request made against the future. A handler attached after a request
// was already made is cancelled immediately.
func (r *FutureResult[T]) AddCancelHandler(c api.Cancellable) {
	f := r.f
	f.mu.Lock()
	if f.status == api.StatusWaiting && !f.cancelRequested {
		f.cancelHandlers = append(f.cancelHandlers, c)
		f.mu.Unlock()
		return
	}
	requested := f.cancelRequested
	f.mu.Unlock()
	if requested {
		c.Cancel()
	}
}

type pendingNotifier[T any] struct {
	n          api.Notifier[T]
	attachment any
}

// ioFuture is the concrete future state machine.
type ioFuture[T any] struct {
	mu              sync.Mutex
	status          api.Status
	value           T
	err             error
	done            chan struct{}
	notifiers       []pendingNotifier[T]
	cancelHandlers  []api.Cancellable
	cancelRequested bool
}

var _ api.Future[int] = (*ioFuture[int])(nil)

func newIoFuture[T any]() *ioFuture[T] {
	return &ioFuture[T]{done: make(chan struct{})}
}

// transition performs the single terminal state change, firing every queued
// notifier on the completing goroutine.
func (f *ioFuture[T]) transition(to api.Status, value T, err error) bool {
	f.mu.Lock()
	if f.status != api.StatusWaiting {
		f.mu.Unlock()
		return false
	}
	f.status = to
	f.value = value
	f.err = err
	pending := f.notifiers
	f.notifiers = nil
	f.cancelHandlers = nil
	close(f.done)
	f.mu.Unlock()
	for _, p := range pending {
		p.n.Notify(f, p.attachment)
	}
	return true
}

func (f *ioFuture[T]) Status() api.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *ioFuture[T]) Await() api.Status {
	<-f.done
	return f.Status()
}

func (f *ioFuture[T]) AwaitFor(timeout time.Duration) api.Status {
	if timeout == 0 {
		return f.Await()
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-f.done:
	case <-t.C:
	}
	return f.Status()
}

func (f *ioFuture[T]) AwaitContext(ctx context.Context) (api.Status, error) {
	select {
	case <-f.done:
		return f.Status(), nil
	case <-ctx.Done():
		return f.Status(), joinInterrupted(ctx.Err())
	}
}

func (f *ioFuture[T]) Get() (T, error) {
	<-f.done
	return f.result()
}

func (f *ioFuture[T]) GetContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result()
	case <-ctx.Done():
		var zero T
		return zero, joinInterrupted(ctx.Err())
	}
}

func (f *ioFuture[T]) result() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.status {
	case api.StatusDone:
		return f.value, nil
	case api.StatusFailed:
		var zero T
		return zero, f.err
	default:
		var zero T
		return zero, api.ErrCancelled
	}
}

func (f *ioFuture[T]) Exception() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status != api.StatusFailed {
		return nil
	}
	return f.err
}

// Cancel forwards the request to every attached cancel handler exactly once.
// It never blocks and never changes the future's state by itself.
func (f *ioFuture[T]) Cancel() api.Future[T] {
	f.mu.Lock()
	if f.status != api.StatusWaiting || f.cancelRequested {
		f.mu.Unlock()
		return f
	}
	f.cancelRequested = true
	handlers := f.cancelHandlers
	f.cancelHandlers = nil
	f.mu.Unlock()
	for _, c := range handlers {
		c.Cancel()
	}
	return f
}

// AddNotifier queues the notifier, or fires it synchronously when the future
// is already terminal.
func (f *ioFuture[T]) AddNotifier(n api.Notifier[T], attachment any) api.Future[T] {
	f.mu.Lock()
	if f.status == api.StatusWaiting {
		f.notifiers = append(f.notifiers, pendingNotifier[T]{n: n, attachment: attachment})
		f.mu.Unlock()
		return f
	}
	f.mu.Unlock()
	n.Notify(f, attachment)
	return f
}

func joinInterrupted(cause error) error {
	return fmt.Errorf("%w: %w", api.ErrInterrupted, cause)
}
