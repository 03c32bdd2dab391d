// File: future/notifier.go
// Package future
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Notifier composition: state-dispatching notifiers, result forwarding, and
// multi-future waiting.

package future

import "github.com/rohankumardubey/xnio-core/api"

// HandlingNotifier dispatches a terminal future into the handler matching its
// state. A nil handler field is a no-op for that state.
type HandlingNotifier[T any] struct {
	Done      func(value T, attachment any)
	Failed    func(err error, attachment any)
	Cancelled func(attachment any)
}

// Notify implements api.Notifier.
func (h HandlingNotifier[T]) Notify(f api.Future[T], attachment any) {
	switch f.Status() {
	case api.StatusDone:
		if h.Done != nil {
			value, _ := f.Get()
			h.Done(value, attachment)
		}
	case api.StatusFailed:
		if h.Failed != nil {
			h.Failed(f.Exception(), attachment)
		}
	case api.StatusCancelled:
		if h.Cancelled != nil {
			h.Cancelled(attachment)
		}
	}
}

// ResultNotifier forwards a terminal state into the api.Result supplied as
// the attachment. Chaining a future into another future's sink is the
// library's forwarding primitive.
func ResultNotifier[T any]() api.Notifier[T] {
	return HandlingNotifier[T]{
		Done:      func(value T, a any) { a.(api.Result[T]).SetResult(value) },
		Failed:    func(err error, a any) { a.(api.Result[T]).SetException(err) },
		Cancelled: func(a any) { a.(api.Result[T]).SetCancelled() },
	}
}

// RunnableNotifier runs the supplied action on any terminal state.
func RunnableNotifier[T any](run func()) api.Notifier[T] {
	return api.NotifierFunc[T](func(api.Future[T], any) { run() })
}

// Awaitable is the minimal await surface shared by all future types.
type Awaitable interface {
	Await() api.Status
}

// AwaitAll waits until every given future is terminal.
func AwaitAll(futures ...Awaitable) {
	for _, f := range futures {
		f.Await()
	}
}
