// File: future/cast.go
// Package future
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Re-typing wrapper: presents a Future[I] as a Future[O] by projecting the
// payload at read time. All state, waiting, cancellation, and notification
// behavior forwards to the parent.

package future

import (
	"context"
	"time"

	"github.com/rohankumardubey/xnio-core/api"
)

// Cast wraps parent as a future of a different payload type. The projection
// runs on every successful Get; it must be cheap and side-effect free.
func Cast[I, O any](parent api.Future[I], project func(I) O) api.Future[O] {
	return &castFuture[I, O]{parent: parent, project: project}
}

type castFuture[I, O any] struct {
	parent  api.Future[I]
	project func(I) O
}

func (c *castFuture[I, O]) Status() api.Status { return c.parent.Status() }

func (c *castFuture[I, O]) Await() api.Status { return c.parent.Await() }

func (c *castFuture[I, O]) AwaitFor(timeout time.Duration) api.Status {
	return c.parent.AwaitFor(timeout)
}

func (c *castFuture[I, O]) AwaitContext(ctx context.Context) (api.Status, error) {
	return c.parent.AwaitContext(ctx)
}

func (c *castFuture[I, O]) Get() (O, error) {
	v, err := c.parent.Get()
	if err != nil {
		var zero O
		return zero, err
	}
	return c.project(v), nil
}

func (c *castFuture[I, O]) GetContext(ctx context.Context) (O, error) {
	v, err := c.parent.GetContext(ctx)
	if err != nil {
		var zero O
		return zero, err
	}
	return c.project(v), nil
}

func (c *castFuture[I, O]) Exception() error { return c.parent.Exception() }

func (c *castFuture[I, O]) Cancel() api.Future[O] {
	c.parent.Cancel()
	return c
}

func (c *castFuture[I, O]) AddNotifier(n api.Notifier[O], attachment any) api.Future[O] {
	c.parent.AddNotifier(api.NotifierFunc[I](func(api.Future[I], any) {
		n.Notify(c, attachment)
	}), attachment)
	return c
}
