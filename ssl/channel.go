// File: ssl/channel.go
// Package ssl
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Engine-driven TLS over a byte-stream channel. The overlay presents a
// bidirectional stream channel whose readiness derives from the underlying
// stream and the engine's next needed action: when the engine needs unwrap
// and the stream is not readable, the overlay is not readable; when the
// engine needs a task run, the task goes to the configured executor.

package ssl

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rohankumardubey/xnio-core/adapters"
	"github.com/rohankumardubey/xnio-core/api"
	"github.com/rohankumardubey/xnio-core/buffers"
	"github.com/rohankumardubey/xnio-core/option"
)

const (
	// cipherBufSize holds at least one full TLS record plus overhead.
	cipherBufSize = 32 * 1024
	// plainBufSize holds one record's decrypted payload.
	plainBufSize = 17 * 1024
)

// WrappingSSLChannel is a stream channel running the engine between the
// application and an underlying stream channel.
type WrappingSSLChannel struct {
	next     api.StreamChannel
	engine   Engine
	executor api.Executor

	mu         sync.Mutex
	recvCipher *buffers.Buffer // inbound ciphertext, filling mode
	recvPlain  *buffers.Buffer // decrypted overflow, filling mode
	sendCipher *buffers.Buffer // outbound ciphertext, filling mode

	writeShut atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
	closeCell adapters.ListenerCell[api.Channel]
}

var _ api.StreamChannel = (*WrappingSSLChannel)(nil)

// NewClientChannel wraps next with a client-mode engine configured from
// options and begins the handshake.
func NewClientChannel(next api.StreamChannel, engine Engine, executor api.Executor, options option.Map) (*WrappingSSLChannel, error) {
	return newChannel(next, engine, executor, options, false)
}

// NewServerChannel wraps next with a server-mode engine configured from
// options and begins the handshake.
func NewServerChannel(next api.StreamChannel, engine Engine, executor api.Executor, options option.Map) (*WrappingSSLChannel, error) {
	return newChannel(next, engine, executor, options, true)
}

func newChannel(next api.StreamChannel, engine Engine, executor api.Executor, options option.Map, server bool) (*WrappingSSLChannel, error) {
	ConfigureEngine(engine, options, server)
	c := &WrappingSSLChannel{
		next:       next,
		engine:     engine,
		executor:   executor,
		recvCipher: buffers.New(cipherBufSize),
		recvPlain:  buffers.New(plainBufSize),
		sendCipher: buffers.New(cipherBufSize),
	}
	if err := engine.BeginHandshake(); err != nil {
		return nil, err
	}
	return c, nil
}

// WrappingChannelListener returns a listener for freshly accepted stream
// channels which wraps each in a server-mode SSL channel before handing it to
// sslListener. When wrapping or the listener fails, the underlying channel is
// safe-closed before the failure propagates.
func WrappingChannelListener(engineFactory func() Engine, executor api.Executor, options option.Map, sslListener api.ChannelListener[*WrappingSSLChannel]) api.ChannelListener[api.StreamChannel] {
	return api.ChannelListenerFunc[api.StreamChannel](func(channel api.StreamChannel) {
		ok := false
		defer func() {
			if !ok {
				adapters.SafeClose(channel)
			}
		}()
		ssl, err := NewServerChannel(channel, engineFactory(), executor, options)
		if err != nil {
			return
		}
		sslListener.HandleEvent(ssl)
		ok = true
	})
}

// runTasksLocked drives every pending delegated task to completion on the
// configured executor, inline when the executor rejects.
func (c *WrappingSSLChannel) runTasksLocked() {
	for c.engine.HandshakeStatus() == NeedTask {
		task := c.engine.DelegatedTask()
		if task == nil {
			return
		}
		done := make(chan struct{})
		if err := c.executor.Submit(func() {
			defer close(done)
			task()
		}); err != nil {
			task()
			continue
		}
		<-done
	}
}

// flushCipherLocked pushes staged ciphertext into the underlying sink.
// Reports true when the stage drained completely.
func (c *WrappingSSLChannel) flushCipherLocked() (bool, error) {
	if c.sendCipher.Position() == 0 {
		return true, nil
	}
	c.sendCipher.Flip()
	_, err := c.next.Write(c.sendCipher)
	drained := !c.sendCipher.HasRemaining()
	c.sendCipher.Compact()
	return drained, err
}

// drainPlainLocked moves previously decrypted bytes into dst.
func (c *WrappingSSLChannel) drainPlainLocked(dst *buffers.Buffer) int {
	if c.recvPlain.Position() == 0 {
		return 0
	}
	c.recvPlain.Flip()
	n := c.recvPlain.Remaining()
	if r := dst.Remaining(); r < n {
		n = r
	}
	view, _ := buffers.Slice(c.recvPlain, n)
	_ = dst.PutBuffer(view)
	c.recvPlain.Compact()
	return n
}

// Read decrypts application bytes into dst. Returns 0 when no progress is
// possible without waiting, io.EOF after the peer's close.
func (c *WrappingSSLChannel) Read(dst *buffers.Buffer) (int, error) {
	if c.closed.Load() {
		return 0, api.ErrClosedChannel
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := c.drainPlainLocked(dst); n > 0 {
		return n, nil
	}
	for {
		switch c.engine.HandshakeStatus() {
		case NeedTask:
			c.runTasksLocked()
		case NeedWrap:
			if _, err := c.engine.Wrap(emptyBuffer, c.sendCipher); err != nil {
				return 0, err
			}
			drained, err := c.flushCipherLocked()
			if err != nil {
				return 0, err
			}
			if !drained {
				return 0, nil
			}
		default:
			n, err := c.unwrapLocked(dst)
			if err != nil {
				return 0, err
			}
			if n != unwrapRetry {
				return n, nil
			}
		}
	}
}

// unwrapRetry signals the read loop to take another pass.
const unwrapRetry = -1

// unwrapLocked makes one fill-and-unwrap attempt. Returns the byte count
// moved into dst, unwrapRetry to loop again, or 0 when not readable.
func (c *WrappingSSLChannel) unwrapLocked(dst *buffers.Buffer) (int, error) {
	readN, err := c.next.Read(c.recvCipher)
	eofSeen := false
	if err == io.EOF {
		eofSeen = true
	} else if err != nil {
		return 0, err
	}
	c.recvCipher.Flip()
	res, err := c.engine.Unwrap(c.recvCipher, dst)
	c.recvCipher.Compact()
	if err != nil {
		return 0, err
	}
	switch res.Status {
	case StatusOK:
		if res.Produced > 0 {
			return res.Produced, nil
		}
		if res.Consumed == 0 && readN == 0 {
			if eofSeen {
				return 0, io.EOF
			}
			return 0, nil
		}
		return unwrapRetry, nil
	case StatusUnderflow:
		if eofSeen {
			return 0, io.EOF
		}
		if readN == 0 {
			return 0, nil
		}
		return unwrapRetry, nil
	case StatusOverflow:
		// dst is smaller than the record; decrypt into the overflow buffer
		// and hand out what fits.
		c.recvCipher.Flip()
		res, err = c.engine.Unwrap(c.recvCipher, c.recvPlain)
		c.recvCipher.Compact()
		if err != nil {
			return 0, err
		}
		if n := c.drainPlainLocked(dst); n > 0 {
			return n, nil
		}
		return 0, nil
	default: // StatusClosed
		return 0, io.EOF
	}
}

// ReadScatter decrypts into dsts in order.
func (c *WrappingSSLChannel) ReadScatter(dsts []*buffers.Buffer, offs, length int) (int64, error) {
	var total int64
	for i := offs; i < offs+length; i++ {
		n, err := c.Read(dsts[i])
		total += int64(n)
		if err != nil {
			if err == io.EOF && total > 0 {
				return total, nil
			}
			return total, err
		}
		if n == 0 || dsts[i].HasRemaining() {
			break
		}
	}
	return total, nil
}

// Write encrypts src's bytes toward the underlying sink. Returns the count
// of application bytes consumed, 0 when the overlay is not writable.
func (c *WrappingSSLChannel) Write(src *buffers.Buffer) (int, error) {
	if c.writeShut.Load() || c.closed.Load() {
		return 0, api.ErrClosedChannel
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		drained, err := c.flushCipherLocked()
		if err != nil {
			return 0, err
		}
		switch c.engine.HandshakeStatus() {
		case NeedTask:
			c.runTasksLocked()
		case NeedUnwrap:
			n, err := c.unwrapLocked(c.recvPlain)
			if err != nil {
				return 0, err
			}
			if n == 0 {
				return 0, nil
			}
		default:
			if !drained {
				return 0, nil
			}
			res, err := c.engine.Wrap(src, c.sendCipher)
			if err != nil {
				return 0, err
			}
			if _, err := c.flushCipherLocked(); err != nil {
				return res.Consumed, err
			}
			switch res.Status {
			case StatusClosed:
				return 0, api.ErrClosedChannel
			case StatusOverflow:
				if res.Consumed == 0 {
					return 0, nil
				}
				return res.Consumed, nil
			default:
				return res.Consumed, nil
			}
		}
	}
}

// WriteGather encrypts srcs in order.
func (c *WrappingSSLChannel) WriteGather(srcs []*buffers.Buffer, offs, length int) (int64, error) {
	var total int64
	for i := offs; i < offs+length; i++ {
		n, err := c.Write(srcs[i])
		total += int64(n)
		if err != nil {
			return total, err
		}
		if srcs[i].HasRemaining() {
			break
		}
	}
	return total, nil
}

// Handshake drives the engine to handshake completion, blocking on the
// underlying channel's readiness as needed.
func (c *WrappingSSLChannel) Handshake() error {
	scratch := buffers.New(plainBufSize)
	for {
		switch c.engine.HandshakeStatus() {
		case NotHandshaking, Finished:
			return nil
		case NeedTask:
			c.mu.Lock()
			c.runTasksLocked()
			c.mu.Unlock()
		case NeedWrap:
			c.mu.Lock()
			_, err := c.engine.Wrap(emptyBuffer, c.sendCipher)
			var drained bool
			if err == nil {
				drained, err = c.flushCipherLocked()
			}
			c.mu.Unlock()
			if err != nil {
				return err
			}
			if !drained {
				if err := c.next.AwaitWritable(); err != nil {
					return err
				}
			}
		case NeedUnwrap:
			c.mu.Lock()
			n, err := c.unwrapLocked(scratch.Clear())
			c.mu.Unlock()
			if err != nil {
				return err
			}
			if n == 0 {
				if err := c.next.AwaitReadable(); err != nil {
					return err
				}
			}
		}
	}
}

// SuspendReads forwards to the underlying channel.
func (c *WrappingSSLChannel) SuspendReads() { c.next.SuspendReads() }

// ResumeReads forwards to the underlying channel.
func (c *WrappingSSLChannel) ResumeReads() { c.next.ResumeReads() }

// SuspendWrites forwards to the underlying channel.
func (c *WrappingSSLChannel) SuspendWrites() { c.next.SuspendWrites() }

// ResumeWrites forwards to the underlying channel.
func (c *WrappingSSLChannel) ResumeWrites() { c.next.ResumeWrites() }

// ShutdownReads forwards to the underlying channel.
func (c *WrappingSSLChannel) ShutdownReads() error { return c.next.ShutdownReads() }

// ShutdownWrites emits the engine's close records, then shuts down the
// underlying write side once everything drained.
func (c *WrappingSSLChannel) ShutdownWrites() (bool, error) {
	c.writeShut.Store(true)
	c.mu.Lock()
	c.engine.CloseOutbound()
	for {
		res, err := c.engine.Wrap(emptyBuffer, c.sendCipher)
		if err != nil {
			c.mu.Unlock()
			return false, err
		}
		if res.Status == StatusClosed || res.Produced == 0 {
			break
		}
	}
	drained, err := c.flushCipherLocked()
	c.mu.Unlock()
	if err != nil {
		return false, err
	}
	if !drained {
		return false, nil
	}
	return c.next.ShutdownWrites()
}

// Flush drains staged ciphertext, then flushes the underlying channel.
func (c *WrappingSSLChannel) Flush() (bool, error) {
	c.mu.Lock()
	drained, err := c.flushCipherLocked()
	c.mu.Unlock()
	if err != nil || !drained {
		return false, err
	}
	return c.next.Flush()
}

// AwaitReadable returns immediately when decrypted or still-encrypted bytes
// are buffered, otherwise waits on the underlying stream.
func (c *WrappingSSLChannel) AwaitReadable() error {
	c.mu.Lock()
	buffered := c.recvPlain.Position() > 0 || c.recvCipher.Position() > 0
	c.mu.Unlock()
	if buffered {
		return nil
	}
	return c.next.AwaitReadable()
}

// AwaitReadableFor is AwaitReadable bounded by timeout.
func (c *WrappingSSLChannel) AwaitReadableFor(timeout time.Duration) error {
	c.mu.Lock()
	buffered := c.recvPlain.Position() > 0 || c.recvCipher.Position() > 0
	c.mu.Unlock()
	if buffered {
		return nil
	}
	return c.next.AwaitReadableFor(timeout)
}

// AwaitWritable waits on the underlying stream.
func (c *WrappingSSLChannel) AwaitWritable() error { return c.next.AwaitWritable() }

// AwaitWritableFor waits on the underlying stream, bounded by timeout.
func (c *WrappingSSLChannel) AwaitWritableFor(timeout time.Duration) error {
	return c.next.AwaitWritableFor(timeout)
}

// ReadSetter binds the read-ready listener; the listener receives this
// overlay channel.
func (c *WrappingSSLChannel) ReadSetter() api.ListenerSetter[api.SuspendableReadChannel] {
	return adapters.DelegatingSetter[api.SuspendableReadChannel](c.next.ReadSetter(), c)
}

// WriteSetter binds the write-ready listener; the listener receives this
// overlay channel.
func (c *WrappingSSLChannel) WriteSetter() api.ListenerSetter[api.SuspendableWriteChannel] {
	return adapters.DelegatingSetter[api.SuspendableWriteChannel](c.next.WriteSetter(), c)
}

// CloseSetter binds the overlay's close listener.
func (c *WrappingSSLChannel) CloseSetter() api.ListenerSetter[api.Channel] {
	return &c.closeCell
}

// IsOpen reports whether the overlay is open.
func (c *WrappingSSLChannel) IsOpen() bool { return !c.closed.Load() }

// Close closes the engine's outbound side and the underlying channel. The
// overlay's close listener fires exactly once.
func (c *WrappingSSLChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.engine.CloseOutbound()
		err = c.next.Close()
		listener := c.closeCell.Get()
		c.closeCell.MarkClosed()
		adapters.InvokeChannelListener[api.Channel](c, listener)
	})
	return err
}

var emptyBuffer = buffers.New(0)
