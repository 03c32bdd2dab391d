package adapters_test

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rohankumardubey/xnio-core/adapters"
	"github.com/rohankumardubey/xnio-core/api"
	"github.com/rohankumardubey/xnio-core/future"
)

// fakeChannel is a minimal closable channel for listener tests.
type fakeChannel struct {
	closes atomic.Int32
}

func (c *fakeChannel) Close() error {
	c.closes.Add(1)
	return nil
}

func (c *fakeChannel) IsOpen() bool { return c.closes.Load() == 0 }

func (c *fakeChannel) CloseSetter() api.ListenerSetter[api.Channel] {
	return adapters.NullSetter[api.Channel]()
}

func TestListenerCellAtomicSwap(t *testing.T) {
	var cell adapters.ListenerCell[int]
	if cell.Get() != nil {
		t.Fatal("fresh cell not empty")
	}
	cell.Set(api.ChannelListenerFunc[int](func(int) {}))
	if cell.Get() == nil {
		t.Fatal("listener lost")
	}
	cell.Set(nil)
	if cell.Get() != nil {
		t.Fatal("nil set did not empty the slot")
	}
}

func TestListenerCellSetAfterCloseIsNoOp(t *testing.T) {
	var cell adapters.ListenerCell[int]
	cell.MarkClosed()
	cell.Set(api.ChannelListenerFunc[int](func(int) {}))
	if cell.Get() != nil {
		t.Fatal("set after close took effect")
	}
}

func TestDelegatingSetterSubstitutesRealChannel(t *testing.T) {
	var upstream adapters.ListenerCell[string]
	setter := adapters.DelegatingSetter[int](&upstream, 99)

	var got atomic.Int32
	setter.Set(api.ChannelListenerFunc[int](func(c int) {
		got.Store(int32(c))
	}))
	// The upstream emits its own channel value; the listener must see the
	// substituted one.
	upstream.Get().HandleEvent("upstream-channel")
	if got.Load() != 99 {
		t.Fatalf("listener saw %d, want 99", got.Load())
	}

	setter.Set(nil)
	if upstream.Get() != nil {
		t.Fatal("nil did not propagate")
	}
}

func TestInvokeChannelListenerSwallowsPanic(t *testing.T) {
	ok := adapters.InvokeChannelListener(1, api.ChannelListenerFunc[int](func(int) {
		panic("listener exploded")
	}))
	if ok {
		t.Fatal("panicking listener reported success")
	}
	if !adapters.InvokeChannelListener(1, api.ChannelListenerFunc[int](func(int) {})) {
		t.Fatal("clean listener reported failure")
	}
	if !adapters.InvokeChannelListener[int](1, nil) {
		t.Fatal("nil listener reported failure")
	}
}

func TestExecutorChannelListenerRejectCloses(t *testing.T) {
	rejecting := api.ExecutorFunc(func(func()) error {
		return api.ErrExecutorRejected
	})
	ch := &fakeChannel{}
	listener := adapters.ExecutorChannelListener[api.Channel](
		api.ChannelListenerFunc[api.Channel](func(api.Channel) {
			t.Fatal("listener ran despite rejection")
		}), rejecting)
	listener.HandleEvent(ch)
	if ch.closes.Load() != 1 {
		t.Fatalf("channel closed %d times, want 1", ch.closes.Load())
	}
}

func TestExecutorChannelListenerDispatches(t *testing.T) {
	ch := &fakeChannel{}
	var ran atomic.Bool
	listener := adapters.ExecutorChannelListener[api.Channel](
		api.ChannelListenerFunc[api.Channel](func(api.Channel) {
			ran.Store(true)
		}), adapters.DirectExecutor())
	listener.HandleEvent(ch)
	if !ran.Load() {
		t.Fatal("listener did not run on direct executor")
	}
	if ch.closes.Load() != 0 {
		t.Fatal("channel closed on successful dispatch")
	}
}

func TestClosingCancellable(t *testing.T) {
	ch := &fakeChannel{}
	c := adapters.ClosingCancellable(ch)
	c.Cancel().Cancel()
	// Close itself is idempotent at the resource; the cancellable just
	// forwards.
	if ch.closes.Load() != 2 {
		t.Fatalf("closes = %d", ch.closes.Load())
	}
}

func TestDirectAndNullExecutors(t *testing.T) {
	var ran bool
	if err := adapters.DirectExecutor().Submit(func() { ran = true }); err != nil || !ran {
		t.Fatal("direct executor did not run inline")
	}
	ran = false
	if err := adapters.NullExecutor().Submit(func() { ran = true }); err != nil || ran {
		t.Fatal("null executor ran the task")
	}
}

// failingSource fails a fixed number of opens before succeeding.
type failingSource struct {
	failures atomic.Int32
	attempts atomic.Int32
}

func (s *failingSource) Open(openListener api.ChannelListener[api.Channel]) api.Future[api.Channel] {
	s.attempts.Add(1)
	r := future.NewResult[api.Channel]()
	if s.failures.Add(-1) >= 0 {
		r.SetException(errors.New("connection refused"))
	} else {
		ch := &fakeChannel{}
		r.SetResult(ch)
		adapters.InvokeChannelListener[api.Channel](ch, openListener)
	}
	return r.Future()
}

func TestRetrySourceSucceedsAfterFailures(t *testing.T) {
	src := &failingSource{}
	src.failures.Store(2) // fail K-1 times with K = 3
	retrying, err := adapters.RetryingChannelSource[api.Channel](src, 3)
	if err != nil {
		t.Fatal(err)
	}
	var opened atomic.Int32
	f := retrying.Open(api.ChannelListenerFunc[api.Channel](func(api.Channel) {
		opened.Add(1)
	}))
	if f.Await() != api.StatusDone {
		t.Fatalf("status = %v, err = %v", f.Status(), f.Exception())
	}
	if src.attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", src.attempts.Load())
	}
	if opened.Load() != 1 {
		t.Errorf("open listener fired %d times", opened.Load())
	}
}

func TestRetrySourceExhaustsAttempts(t *testing.T) {
	src := &failingSource{}
	src.failures.Store(100)
	retrying, err := adapters.RetryingChannelSource[api.Channel](src, 3)
	if err != nil {
		t.Fatal(err)
	}
	f := retrying.Open(nil)
	if f.Await() != api.StatusFailed {
		t.Fatalf("status = %v", f.Status())
	}
	msg := f.Exception().Error()
	if !strings.Contains(msg, "failed to create channel after 3 tries") {
		t.Errorf("message = %q", msg)
	}
	if !strings.Contains(msg, "connection refused") {
		t.Errorf("last cause missing: %q", msg)
	}
	if src.attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", src.attempts.Load())
	}
}

func TestRetrySourceRejectsBadCount(t *testing.T) {
	if _, err := adapters.RetryingChannelSource[api.Channel](&failingSource{}, 0); err == nil {
		t.Fatal("zero maxTries accepted")
	}
}

func TestClosingNotifierClosesResult(t *testing.T) {
	r := future.NewResult[*fakeChannel]()
	r.Future().AddNotifier(adapters.ClosingNotifier[*fakeChannel](), nil)
	ch := &fakeChannel{}
	r.SetResult(ch)
	if ch.closes.Load() != 1 {
		t.Fatalf("closes = %d", ch.closes.Load())
	}
}

func TestSafeCloseFutureCancelsPending(t *testing.T) {
	r := future.NewResult[*fakeChannel]()
	adapters.SafeCloseFuture(r.Future())
	// The operation completes after the safe-close request raced it; the
	// notifier must still reap the resource.
	ch := &fakeChannel{}
	r.SetResult(ch)
	if ch.closes.Load() != 1 {
		t.Fatalf("closes = %d", ch.closes.Load())
	}
}
