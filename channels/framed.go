// File: channels/framed.go
// Package channels
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Length-framed message overlay. The wire format is an unsigned 32-bit
// big-endian payload length followed by exactly that many payload bytes;
// a zero length is a valid empty message. The reader turns a stream source
// into a message handler feed; the writer turns a stream sink into a
// writable message channel.

package channels

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"

	"github.com/rohankumardubey/xnio-core/adapters"
	"github.com/rohankumardubey/xnio-core/api"
	"github.com/rohankumardubey/xnio-core/buffers"
	"github.com/rohankumardubey/xnio-core/metrics"
	"github.com/rohankumardubey/xnio-core/option"
	"github.com/rohankumardubey/xnio-core/pool"
)

// DefaultMaxMessageSize bounds frame payloads when no option is configured.
const DefaultMaxMessageSize = 1 << 20 // 1 MiB

// frameHeaderSize is the length prefix width.
const frameHeaderSize = 4

// defaultMaxPending is the writer's backlog bound in whole frames beyond the
// frame currently in flight.
const defaultMaxPending = 64

// MessageHandler consumes messages delivered by a framed reader. The payload
// view is read-only and valid only for the duration of the call.
type MessageHandler interface {
	// HandleMessage receives exactly one whole message.
	HandleMessage(message *buffers.Buffer)

	// HandleEOF signals a clean end-of-input at a frame boundary.
	HandleEOF()

	// HandleError signals a framing violation or read failure. The source
	// channel is already closed when a framing error is reported.
	HandleError(err error)
}

// MessageHandlerSetter atomically binds the handler of a framed reader.
type MessageHandlerSetter struct {
	p atomic.Pointer[handlerBox]
}

type handlerBox struct {
	h MessageHandler
}

// Set replaces the handler. A nil handler drops subsequent messages.
func (s *MessageHandlerSetter) Set(h MessageHandler) {
	s.p.Store(&handlerBox{h: h})
}

func (s *MessageHandlerSetter) get() MessageHandler {
	if b := s.p.Load(); b != nil {
		return b.h
	}
	return nil
}

// NewMessageReader installs a framed message reader as the read listener of
// channel and returns the setter for its message handler. The maximum
// accepted payload size comes from the MaxInboundMessageSize option.
func NewMessageReader(channel api.StreamSourceChannel, options option.Map) *MessageHandlerSetter {
	r := &messageReader{
		channel: channel,
		max:     option.Get(options, option.MaxInboundMessageSize, DefaultMaxMessageSize),
		length:  buffers.New(frameHeaderSize),
		bpool:   pool.Default(),
	}
	channel.ReadSetter().Set(r)
	return &r.setter
}

// messageReader is the read-ready listener state machine. States: reading the
// length prefix (body nil), reading the body (body set), dispatch.
type messageReader struct {
	channel api.StreamSourceChannel
	setter  MessageHandlerSetter
	max     int
	length  *buffers.Buffer
	bpool   api.BytePool
	bodyRaw []byte
	body    *buffers.Buffer
}

var _ api.ChannelListener[api.SuspendableReadChannel] = (*messageReader)(nil)

// HandleEvent consumes as much input as is available, dispatching each
// completed message exactly once.
func (r *messageReader) HandleEvent(api.SuspendableReadChannel) {
	for {
		if r.body == nil {
			n, err := r.channel.Read(r.length)
			if err == io.EOF {
				r.handleEOF()
				return
			}
			if err != nil {
				r.fail(err)
				return
			}
			if n == 0 {
				return
			}
			if r.length.HasRemaining() {
				return
			}
			hdr := r.length.Flip().Bytes()
			size := binary.BigEndian.Uint32(hdr)
			if int64(size) > int64(r.max) {
				r.failFraming(fmt.Errorf("%w: inbound message of %d bytes exceeds maximum of %d", api.ErrFraming, size, r.max))
				return
			}
			r.bodyRaw = r.bpool.Acquire(int(size))
			r.body = buffers.Wrap(r.bodyRaw[:size])
			if size == 0 {
				r.dispatch()
				continue
			}
		}
		n, err := r.channel.Read(r.body)
		if err == io.EOF {
			r.failFraming(fmt.Errorf("%w: end of input inside a frame body", api.ErrFraming))
			return
		}
		if err != nil {
			r.fail(err)
			return
		}
		if n == 0 {
			return
		}
		if !r.body.HasRemaining() {
			r.dispatch()
		}
	}
}

// dispatch hands the accumulated payload to the handler as a read-only view
// and re-enters the reading-length state.
func (r *messageReader) dispatch() {
	view := r.body.Flip().AsReadOnly()
	if h := r.setter.get(); h != nil {
		h.HandleMessage(view)
	}
	metrics.MessagesReceived.Inc()
	r.bpool.Release(r.bodyRaw)
	r.bodyRaw = nil
	r.body = nil
	r.length.Clear()
}

// handleEOF reports a clean end at a frame boundary; a partially accumulated
// length prefix is a truncated frame.
func (r *messageReader) handleEOF() {
	if r.length.Position() != 0 {
		r.failFraming(fmt.Errorf("%w: end of input inside a length prefix", api.ErrFraming))
		return
	}
	if h := r.setter.get(); h != nil {
		h.HandleEOF()
	}
}

// failFraming closes the source channel, then notifies the handler.
func (r *messageReader) failFraming(err error) {
	adapters.SafeClose(r.channel)
	if h := r.setter.get(); h != nil {
		h.HandleError(err)
	}
}

func (r *messageReader) fail(err error) {
	if h := r.setter.get(); h != nil {
		h.HandleError(err)
	}
}

// FramedMessageChannel presents a writable message channel over a stream
// sink. Each accepted message is staged as prefix plus payload copy; partial
// writes are retried on writability, and whole frames queue behind the one in
// flight.
type FramedMessageChannel struct {
	sink       api.StreamSinkChannel
	max        int
	maxPending int
	bpool      api.BytePool

	mu       sync.Mutex
	staging  *buffers.Buffer // frame currently in flight, nil when idle
	stagRaw  []byte
	pending  *queue.Queue // queued whole frames ([]byte)
	shutdown bool
}

var _ api.WritableMessageChannel = (*FramedMessageChannel)(nil)

// NewMessageWriter creates the framed writer over sink. The maximum payload
// size comes from the MaxOutboundMessageSize option.
func NewMessageWriter(sink api.StreamSinkChannel, options option.Map) *FramedMessageChannel {
	return &FramedMessageChannel{
		sink:       sink,
		max:        option.Get(options, option.MaxOutboundMessageSize, DefaultMaxMessageSize),
		maxPending: defaultMaxPending,
		bpool:      pool.Default(),
		pending:    queue.New(),
	}
}

// Send writes one message drawn from src's remaining bytes. The call is
// all-or-nothing: on false or error no bytes from this call reach the wire
// and src is not consumed.
func (c *FramedMessageChannel) Send(src *buffers.Buffer) (bool, error) {
	return c.SendGather([]*buffers.Buffer{src}, 0, 1)
}

// SendGather writes one message drawn from srcs[offs : offs+length].
func (c *FramedMessageChannel) SendGather(srcs []*buffers.Buffer, offs, length int) (bool, error) {
	size := buffers.Remaining(srcs, offs, length)
	if size > int64(c.max) {
		return false, api.ErrOversizedMessage
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shutdown || !c.sink.IsOpen() {
		return false, api.ErrClosedChannel
	}
	if c.staging != nil || c.pending.Length() > 0 {
		c.drainLocked()
	}
	if c.staging != nil && c.pending.Length() >= c.maxPending {
		return false, nil
	}
	raw := c.bpool.Acquire(frameHeaderSize + int(size))
	frame := raw[:frameHeaderSize+size]
	binary.BigEndian.PutUint32(frame, uint32(size))
	at := frameHeaderSize
	for i := offs; i < offs+length; i++ {
		src := srcs[i]
		n := src.Remaining()
		copy(frame[at:], src.Bytes())
		_ = buffers.Skip(src, n)
		at += n
	}
	if c.staging == nil {
		c.stagRaw = raw
		c.staging = buffers.Wrap(frame)
		c.drainLocked()
	} else {
		c.pending.Add(frame)
	}
	metrics.MessagesSent.Inc()
	return true, nil
}

// drainLocked pushes staged bytes into the sink until it stops accepting.
// Caller holds mu.
func (c *FramedMessageChannel) drainLocked() {
	for {
		if c.staging == nil {
			if c.pending.Length() == 0 {
				return
			}
			frame := c.pending.Remove().([]byte)
			c.stagRaw = frame
			c.staging = buffers.Wrap(frame)
		}
		n, err := c.sink.Write(c.staging)
		if err != nil || n == 0 {
			return
		}
		if !c.staging.HasRemaining() {
			c.bpool.Release(c.stagRaw)
			c.stagRaw = nil
			c.staging = nil
		}
	}
}

// Flush retries staged frames and then flushes the sink. Reports true only
// when no framed bytes remain anywhere.
func (c *FramedMessageChannel) Flush() (bool, error) {
	c.mu.Lock()
	c.drainLocked()
	clean := c.staging == nil && c.pending.Length() == 0
	c.mu.Unlock()
	if !clean {
		return false, nil
	}
	return c.sink.Flush()
}

// ShutdownWrites flushes the backlog and then shuts down the sink's write
// side. Returns false while framed bytes remain queued.
func (c *FramedMessageChannel) ShutdownWrites() (bool, error) {
	c.mu.Lock()
	c.shutdown = true
	c.drainLocked()
	clean := c.staging == nil && c.pending.Length() == 0
	c.mu.Unlock()
	if !clean {
		return false, nil
	}
	return c.sink.ShutdownWrites()
}

// SuspendWrites forwards to the sink.
func (c *FramedMessageChannel) SuspendWrites() { c.sink.SuspendWrites() }

// ResumeWrites forwards to the sink.
func (c *FramedMessageChannel) ResumeWrites() { c.sink.ResumeWrites() }

// AwaitWritable forwards to the sink.
func (c *FramedMessageChannel) AwaitWritable() error { return c.sink.AwaitWritable() }

// AwaitWritableFor forwards to the sink.
func (c *FramedMessageChannel) AwaitWritableFor(timeout time.Duration) error {
	return c.sink.AwaitWritableFor(timeout)
}

// WriteSetter binds the write-ready listener; the listener receives this
// overlay channel rather than the underlying sink.
func (c *FramedMessageChannel) WriteSetter() api.ListenerSetter[api.SuspendableWriteChannel] {
	return adapters.DelegatingSetter[api.SuspendableWriteChannel](c.sink.WriteSetter(), c)
}

// CloseSetter binds the close listener; the listener receives this overlay.
func (c *FramedMessageChannel) CloseSetter() api.ListenerSetter[api.Channel] {
	return adapters.DelegatingSetter[api.Channel](c.sink.CloseSetter(), c)
}

// IsOpen reports whether the sink is open.
func (c *FramedMessageChannel) IsOpen() bool { return c.sink.IsOpen() }

// Close releases the backlog and closes the sink.
func (c *FramedMessageChannel) Close() error {
	c.mu.Lock()
	c.staging = nil
	c.stagRaw = nil
	for c.pending.Length() > 0 {
		c.pending.Remove()
	}
	c.mu.Unlock()
	return c.sink.Close()
}
