// File: adapters/retry.go
// Package adapters
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Retrying channel source: re-drives a delegate source on failure up to a
// fixed attempt budget, surfacing done and cancelled outcomes directly.

package adapters

import (
	"fmt"
	"sync/atomic"

	"github.com/rohankumardubey/xnio-core/api"
	"github.com/rohankumardubey/xnio-core/future"
)

// RetryingChannelSource wraps delegate so each Open makes up to maxTries
// attempts. After the final failure the produced future fails with the last
// cause wrapped in an attempt-count message.
func RetryingChannelSource[C api.Channel](delegate api.ChannelSource[C], maxTries int) (api.ChannelSource[C], error) {
	if maxTries < 1 {
		return nil, fmt.Errorf("maxTries must be at least 1, got %d", maxTries)
	}
	return &retryingSource[C]{delegate: delegate, maxTries: maxTries}, nil
}

type retryingSource[C api.Channel] struct {
	delegate api.ChannelSource[C]
	maxTries int
}

func (s *retryingSource[C]) Open(openListener api.ChannelListener[C]) api.Future[C] {
	result := future.NewResult[C]()
	n := &retryNotifier[C]{
		source:       s,
		result:       result,
		openListener: openListener,
	}
	n.remaining.Store(int32(s.maxTries))
	n.tryOne()
	return result.Future()
}

type retryNotifier[C api.Channel] struct {
	source       *retryingSource[C]
	result       *future.FutureResult[C]
	openListener api.ChannelListener[C]
	remaining    atomic.Int32
}

func (n *retryNotifier[C]) tryOne() {
	f := n.source.delegate.Open(n.openListener)
	f.AddNotifier(future.HandlingNotifier[C]{
		Done: func(channel C, _ any) {
			n.result.SetResult(channel)
		},
		Cancelled: func(_ any) {
			n.result.SetCancelled()
		},
		Failed: func(err error, _ any) {
			if n.remaining.Add(-1) <= 0 {
				n.result.SetException(fmt.Errorf("failed to create channel after %d tries: %w", n.source.maxTries, err))
				return
			}
			n.tryOne()
		},
	}, nil)
}
