// File: transport/pipe.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// In-memory full-duplex stream channel pair. Each side stages inbound bytes
// in a streamInbox; writes land in the peer's inbox and schedule the peer's
// read listener. Dispatch for one direction is serialized: the listener is
// never re-entered for the same direction.

package transport

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rohankumardubey/xnio-core/adapters"
	"github.com/rohankumardubey/xnio-core/api"
	"github.com/rohankumardubey/xnio-core/buffers"
)

// PipeChannel is one end of an in-memory stream channel pair.
type PipeChannel struct {
	id   string
	in   *streamInbox
	peer *PipeChannel

	readSuspended  atomic.Bool
	writeSuspended atomic.Bool
	readShut       atomic.Bool
	writeShut      atomic.Bool
	closed         atomic.Bool

	readCell  adapters.ListenerCell[api.SuspendableReadChannel]
	writeCell adapters.ListenerCell[api.SuspendableWriteChannel]
	closeCell adapters.ListenerCell[api.Channel]

	readDispatch  sync.Mutex
	writeDispatch sync.Mutex
	closeOnce     sync.Once
}

var _ api.StreamChannel = (*PipeChannel)(nil)

// NewPipe creates a connected channel pair. Bytes written on one end become
// readable on the other. Reads are not suspended initially: once a read
// listener is set, each write from the peer dispatches it. Setting the
// listener does not itself dispatch for bytes that arrived earlier.
func NewPipe() (*PipeChannel, *PipeChannel) {
	a := &PipeChannel{id: uuid.NewString(), in: newStreamInbox()}
	b := &PipeChannel{id: uuid.NewString(), in: newStreamInbox()}
	a.peer = b
	b.peer = a
	return a, b
}

// ID returns the channel's identity for diagnostics.
func (p *PipeChannel) ID() string { return p.id }

// Read transfers buffered bytes into dst, returning 0 when nothing is
// pending and io.EOF once the peer half-closed and the buffer drained.
func (p *PipeChannel) Read(dst *buffers.Buffer) (int, error) {
	if p.readShut.Load() {
		return 0, io.EOF
	}
	if p.closed.Load() {
		return 0, api.ErrClosedChannel
	}
	if !dst.HasRemaining() {
		return 0, nil
	}
	tmp := make([]byte, dst.Remaining())
	n, end := p.in.consume(tmp)
	if n == 0 {
		if end {
			return 0, io.EOF
		}
		return 0, nil
	}
	if err := dst.PutBytes(tmp[:n]); err != nil {
		return 0, err
	}
	return n, nil
}

// ReadScatter transfers buffered bytes across dsts in order.
func (p *PipeChannel) ReadScatter(dsts []*buffers.Buffer, offs, length int) (int64, error) {
	var total int64
	for i := offs; i < offs+length; i++ {
		n, err := p.Read(dsts[i])
		total += int64(n)
		if err != nil {
			if err == io.EOF && total > 0 {
				return total, nil
			}
			return total, err
		}
		if dsts[i].HasRemaining() {
			break
		}
	}
	return total, nil
}

// Write appends src's remaining bytes to the peer's inbox. The pipe has no
// backpressure bound, so a write is accepted in full while open.
func (p *PipeChannel) Write(src *buffers.Buffer) (int, error) {
	if p.writeShut.Load() || p.closed.Load() {
		return 0, api.ErrClosedChannel
	}
	n := src.Remaining()
	if n == 0 {
		return 0, nil
	}
	if !p.peer.in.push(src.Bytes()) {
		return 0, api.ErrClosedChannel
	}
	_ = buffers.Skip(src, n)
	p.peer.signalReadable()
	return n, nil
}

// WriteGather writes srcs in order.
func (p *PipeChannel) WriteGather(srcs []*buffers.Buffer, offs, length int) (int64, error) {
	var total int64
	for i := offs; i < offs+length; i++ {
		n, err := p.Write(srcs[i])
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// SuspendReads stops read listener dispatch.
func (p *PipeChannel) SuspendReads() { p.readSuspended.Store(true) }

// ResumeReads re-enables dispatch, re-checking readiness synchronously.
func (p *PipeChannel) ResumeReads() {
	p.readSuspended.Store(false)
	p.signalReadable()
}

// SuspendWrites stops write listener dispatch.
func (p *PipeChannel) SuspendWrites() { p.writeSuspended.Store(true) }

// ResumeWrites re-enables dispatch. The pipe is always writable while open,
// so resuming schedules one write notification.
func (p *PipeChannel) ResumeWrites() {
	p.writeSuspended.Store(false)
	p.signalWritable()
}

// ShutdownReads closes the read side; further reads return io.EOF.
func (p *PipeChannel) ShutdownReads() error {
	p.readShut.Store(true)
	p.in.close()
	return nil
}

// ShutdownWrites half-closes toward the peer. The pipe buffers everything,
// so shutdown always completes on the first call.
func (p *PipeChannel) ShutdownWrites() (bool, error) {
	if p.writeShut.CompareAndSwap(false, true) {
		p.peer.in.setEOF()
		p.peer.signalReadable()
	}
	return true, nil
}

// Flush reports done; pipe writes are never queued.
func (p *PipeChannel) Flush() (bool, error) {
	if p.closed.Load() {
		return false, api.ErrClosedChannel
	}
	return true, nil
}

// AwaitReadable blocks until buffered data or end-of-input.
func (p *PipeChannel) AwaitReadable() error { return p.in.awaitReadable(0) }

// AwaitReadableFor blocks up to timeout; expiry is not an error.
func (p *PipeChannel) AwaitReadableFor(timeout time.Duration) error {
	return p.in.awaitReadable(timeout)
}

// AwaitWritable returns immediately; the pipe is always writable while open.
func (p *PipeChannel) AwaitWritable() error {
	if p.closed.Load() {
		return api.ErrClosedChannel
	}
	return nil
}

// AwaitWritableFor returns immediately while open.
func (p *PipeChannel) AwaitWritableFor(time.Duration) error { return p.AwaitWritable() }

// ReadSetter binds the read-ready listener.
func (p *PipeChannel) ReadSetter() api.ListenerSetter[api.SuspendableReadChannel] {
	return &p.readCell
}

// WriteSetter binds the write-ready listener.
func (p *PipeChannel) WriteSetter() api.ListenerSetter[api.SuspendableWriteChannel] {
	return &p.writeCell
}

// CloseSetter binds the close listener.
func (p *PipeChannel) CloseSetter() api.ListenerSetter[api.Channel] {
	return &p.closeCell
}

// IsOpen reports whether Close has not yet run.
func (p *PipeChannel) IsOpen() bool { return !p.closed.Load() }

// Close tears down this end. The peer observes end-of-input; the close
// listener fires exactly once and every slot becomes a terminal no-op.
func (p *PipeChannel) Close() error {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		p.in.close()
		p.peer.in.setEOF()
		p.peer.signalReadable()
		listener := p.closeCell.Get()
		p.readCell.MarkClosed()
		p.writeCell.MarkClosed()
		p.closeCell.MarkClosed()
		adapters.InvokeChannelListener[api.Channel](p, listener)
	})
	return nil
}

// signalReadable schedules one read listener dispatch when reads are resumed
// and data is pending. Dispatch runs off the caller's goroutine, serialized
// per direction.
func (p *PipeChannel) signalReadable() {
	if p.readSuspended.Load() || p.closed.Load() {
		return
	}
	if p.readCell.Get() == nil {
		return
	}
	go func() {
		p.readDispatch.Lock()
		defer p.readDispatch.Unlock()
		if p.readSuspended.Load() || p.closed.Load() || !p.in.readable() {
			return
		}
		adapters.InvokeChannelListener[api.SuspendableReadChannel](p, p.readCell.Get())
	}()
}

func (p *PipeChannel) signalWritable() {
	if p.writeSuspended.Load() || p.closed.Load() {
		return
	}
	if p.writeCell.Get() == nil {
		return
	}
	go func() {
		p.writeDispatch.Lock()
		defer p.writeDispatch.Unlock()
		if p.writeSuspended.Load() || p.closed.Load() {
			return
		}
		adapters.InvokeChannelListener[api.SuspendableWriteChannel](p, p.writeCell.Get())
	}()
}
