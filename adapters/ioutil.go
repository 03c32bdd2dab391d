// File: adapters/ioutil.go
// Package adapters
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Resource teardown helpers. SafeClose swallows and logs close failures; a
// resource is never re-entrantly retried.

package adapters

import (
	"io"

	"go.uber.org/zap"

	"github.com/rohankumardubey/xnio-core/api"
	"github.com/rohankumardubey/xnio-core/internal/logging"
)

// SafeClose closes a resource, logging any failure instead of raising it.
// A nil resource is ignored.
func SafeClose(resource io.Closer) {
	if resource == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logging.SafeClose().Debug("closing resource panicked", zap.Any("panic", r))
		}
	}()
	if err := resource.Close(); err != nil {
		logging.SafeClose().Debug("closing resource failed", zap.Error(err))
	}
}

// SafeCloseFuture cancels a pending future resource and arranges for its
// value to be closed if the operation completes anyway.
func SafeCloseFuture[C io.Closer](futureResource api.Future[C]) {
	futureResource.Cancel().AddNotifier(ClosingNotifier[C](), nil)
}

// ClosingNotifier returns a notifier which safe-closes the future's done
// value. Failed and cancelled futures carry nothing to close.
func ClosingNotifier[C io.Closer]() api.Notifier[C] {
	return api.NotifierFunc[C](func(f api.Future[C], _ any) {
		if f.Status() != api.StatusDone {
			return
		}
		if v, err := f.Get(); err == nil {
			SafeClose(v)
		}
	})
}

// AttachmentClosingNotifier returns a notifier which safe-closes its
// attachment on any terminal state.
func AttachmentClosingNotifier[T any]() api.Notifier[T] {
	return api.NotifierFunc[T](func(_ api.Future[T], attachment any) {
		if c, ok := attachment.(io.Closer); ok {
			SafeClose(c)
		}
	})
}

// ClosingCancellable binds a resource so that Cancel safe-closes it. Closing
// is idempotent through the resource's own Close contract.
func ClosingCancellable(resource io.Closer) api.Cancellable {
	return &closingCancellable{resource: resource}
}

type closingCancellable struct {
	resource io.Closer
}

func (c *closingCancellable) Cancel() api.Cancellable {
	SafeClose(c.resource)
	return c
}

// NullCancellable returns a cancellable which does nothing.
func NullCancellable() api.Cancellable {
	return nullCancellable{}
}

type nullCancellable struct{}

func (n nullCancellable) Cancel() api.Cancellable { return n }

// NullCloseable returns a closer which does nothing.
func NullCloseable() io.Closer {
	return nullCloseable{}
}

type nullCloseable struct{}

func (nullCloseable) Close() error { return nil }
