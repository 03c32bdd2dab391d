package channels_test

import (
	"io"
	"sync"
	"time"

	"github.com/rohankumardubey/xnio-core/adapters"
	"github.com/rohankumardubey/xnio-core/api"
	"github.com/rohankumardubey/xnio-core/buffers"
)

// baseChannel supplies inert defaults for the channel contract so the fakes
// only override what each test exercises.
type baseChannel struct {
	closed bool
}

func (b *baseChannel) Close() error { b.closed = true; return nil }
func (b *baseChannel) IsOpen() bool { return !b.closed }
func (b *baseChannel) CloseSetter() api.ListenerSetter[api.Channel] {
	return adapters.NullSetter[api.Channel]()
}
func (b *baseChannel) SuspendReads()        {}
func (b *baseChannel) ResumeReads()         {}
func (b *baseChannel) SuspendWrites()       {}
func (b *baseChannel) ResumeWrites()        {}
func (b *baseChannel) ShutdownReads() error { return nil }
func (b *baseChannel) ShutdownWrites() (bool, error) { return true, nil }
func (b *baseChannel) Flush() (bool, error) { return true, nil }
func (b *baseChannel) AwaitReadable() error { return nil }
func (b *baseChannel) AwaitReadableFor(time.Duration) error { return nil }
func (b *baseChannel) AwaitWritable() error { return nil }
func (b *baseChannel) AwaitWritableFor(time.Duration) error { return nil }
func (b *baseChannel) ReadSetter() api.ListenerSetter[api.SuspendableReadChannel] {
	return adapters.NullSetter[api.SuspendableReadChannel]()
}
func (b *baseChannel) WriteSetter() api.ListenerSetter[api.SuspendableWriteChannel] {
	return adapters.NullSetter[api.SuspendableWriteChannel]()
}

// recordingSink captures everything written, accepting at most window bytes
// per call (0 = unlimited) to exercise partial writes.
type recordingSink struct {
	baseChannel
	wire   []byte
	window int
}

func (s *recordingSink) Write(src *buffers.Buffer) (int, error) {
	if s.closed {
		return 0, api.ErrClosedChannel
	}
	n := src.Remaining()
	if s.window > 0 && n > s.window {
		n = s.window
	}
	if n == 0 {
		return 0, nil
	}
	s.wire = append(s.wire, src.Bytes()[:n]...)
	_ = buffers.Skip(src, n)
	return n, nil
}

func (s *recordingSink) WriteGather(srcs []*buffers.Buffer, offs, length int) (int64, error) {
	var total int64
	for i := offs; i < offs+length; i++ {
		n, err := s.Write(srcs[i])
		total += int64(n)
		if err != nil || n == 0 {
			return total, err
		}
	}
	return total, nil
}

// scriptedSource hands out bytes previously fed to it and tracks its read
// listener so tests can pump readiness by hand.
type scriptedSource struct {
	baseChannel
	data []byte
	eof  bool
	cell adapters.ListenerCell[api.SuspendableReadChannel]
}

func (s *scriptedSource) feed(p []byte) {
	s.data = append(s.data, p...)
}

func (s *scriptedSource) pump() {
	if l := s.cell.Get(); l != nil {
		l.HandleEvent(s)
	}
}

func (s *scriptedSource) Read(dst *buffers.Buffer) (int, error) {
	if len(s.data) == 0 {
		if s.eof {
			return 0, io.EOF
		}
		return 0, nil
	}
	n := dst.Remaining()
	if n > len(s.data) {
		n = len(s.data)
	}
	if err := dst.PutBytes(s.data[:n]); err != nil {
		return 0, err
	}
	s.data = s.data[n:]
	return n, nil
}

func (s *scriptedSource) ReadScatter(dsts []*buffers.Buffer, offs, length int) (int64, error) {
	var total int64
	for i := offs; i < offs+length; i++ {
		n, err := s.Read(dsts[i])
		total += int64(n)
		if err != nil || n == 0 {
			return total, err
		}
	}
	return total, nil
}

func (s *scriptedSource) ReadSetter() api.ListenerSetter[api.SuspendableReadChannel] {
	return &s.cell
}

// neverReadable is a stream channel that is never ready for reading; awaits
// simply run out the clock.
type neverReadable struct {
	baseChannel
}

func (n *neverReadable) Read(*buffers.Buffer) (int, error) { return 0, nil }

func (n *neverReadable) ReadScatter([]*buffers.Buffer, int, int) (int64, error) { return 0, nil }

func (n *neverReadable) Write(src *buffers.Buffer) (int, error) {
	c := src.Remaining()
	_ = buffers.Skip(src, c)
	return c, nil
}

func (n *neverReadable) WriteGather(srcs []*buffers.Buffer, offs, length int) (int64, error) {
	return buffers.Remaining(srcs, offs, length), nil
}

func (n *neverReadable) AwaitReadable() error {
	select {}
}

func (n *neverReadable) AwaitReadableFor(timeout time.Duration) error {
	time.Sleep(timeout)
	return nil
}

// collectingHandler records delivered messages and terminal signals.
// Safe for concurrent use; pipe dispatch runs off the test goroutine.
type collectingHandler struct {
	mu       sync.Mutex
	messages [][]byte
	eof      bool
	errs     []error
}

func (h *collectingHandler) HandleMessage(message *buffers.Buffer) {
	cp := make([]byte, message.Remaining())
	copy(cp, message.Bytes())
	h.mu.Lock()
	h.messages = append(h.messages, cp)
	h.mu.Unlock()
}

func (h *collectingHandler) HandleEOF() {
	h.mu.Lock()
	h.eof = true
	h.mu.Unlock()
}

func (h *collectingHandler) HandleError(err error) {
	h.mu.Lock()
	h.errs = append(h.errs, err)
	h.mu.Unlock()
}

func (h *collectingHandler) snapshot() ([][]byte, bool, []error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := make([][]byte, len(h.messages))
	copy(msgs, h.messages)
	return msgs, h.eof, append([]error(nil), h.errs...)
}
