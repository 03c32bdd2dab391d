// File: api/channel.go
// Package api defines the channel capability contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Channels advertise capabilities by composing these interfaces. All transfer
// operations are non-blocking: a zero count means "not ready" and consumes
// nothing; end-of-input on the read side is io.EOF. Blocking is confined to
// AwaitReadable/AwaitWritable and the adapters built on top of them.

package api

import (
	"net"
	"time"

	"github.com/rohankumardubey/xnio-core/buffers"
)

// Channel is a resource with an open/closed lifecycle and a close listener
// slot. Close fires the close listener exactly once; after close every other
// listener slot is a terminal no-op.
type Channel interface {
	// Close closes the channel and releases its resources. Idempotent.
	Close() error

	// IsOpen reports whether the channel is still open.
	IsOpen() bool

	// CloseSetter binds the close listener.
	CloseSetter() ListenerSetter[Channel]
}

// BoundChannel exposes the channel's local address.
type BoundChannel interface {
	Channel
	LocalAddr() net.Addr
}

// ConnectedChannel exposes the channel's peer address.
type ConnectedChannel interface {
	Channel
	RemoteAddr() net.Addr
}

// SuspendableReadChannel is a channel whose read readiness can be paused.
// While reads are suspended the channel produces no read events; ResumeReads
// re-checks readiness synchronously before re-arming notification.
type SuspendableReadChannel interface {
	Channel

	// SuspendReads stops read readiness notification.
	SuspendReads()

	// ResumeReads re-enables read readiness notification.
	ResumeReads()

	// ShutdownReads closes the read side of the channel.
	ShutdownReads() error

	// AwaitReadable blocks until the channel may be readable or is closed.
	AwaitReadable() error

	// AwaitReadableFor blocks up to timeout. A zero timeout waits indefinitely.
	AwaitReadableFor(timeout time.Duration) error

	// ReadSetter binds the read-ready listener.
	ReadSetter() ListenerSetter[SuspendableReadChannel]
}

// SuspendableWriteChannel is a channel whose write readiness can be paused.
type SuspendableWriteChannel interface {
	Channel

	// SuspendWrites stops write readiness notification.
	SuspendWrites()

	// ResumeWrites re-enables write readiness notification.
	ResumeWrites()

	// ShutdownWrites attempts to flush and close the write side without
	// blocking. Returns false when data remains queued; repeat the call on
	// writability until it returns true. After completion further writes
	// fail with ErrClosedChannel.
	ShutdownWrites() (bool, error)

	// Flush pushes any queued data toward the peer without blocking,
	// reporting whether everything was flushed.
	Flush() (bool, error)

	// AwaitWritable blocks until the channel may be writable or is closed.
	AwaitWritable() error

	// AwaitWritableFor blocks up to timeout. A zero timeout waits indefinitely.
	AwaitWritableFor(timeout time.Duration) error

	// WriteSetter binds the write-ready listener.
	WriteSetter() ListenerSetter[SuspendableWriteChannel]
}

// StreamSourceChannel is a readable byte stream with scattering support.
// Read returns the byte count moved, 0 when not ready, io.EOF after the peer
// half-closed.
type StreamSourceChannel interface {
	SuspendableReadChannel

	// Read transfers bytes into dst, returning the count moved.
	Read(dst *buffers.Buffer) (int, error)

	// ReadScatter transfers bytes into dsts[offs : offs+length] in order.
	ReadScatter(dsts []*buffers.Buffer, offs, length int) (int64, error)
}

// StreamSinkChannel is a writable byte stream with gathering support.
// Write returns the byte count moved and 0 when the channel is not ready.
type StreamSinkChannel interface {
	SuspendableWriteChannel

	// Write transfers bytes out of src, returning the count moved.
	Write(src *buffers.Buffer) (int, error)

	// WriteGather transfers bytes out of srcs[offs : offs+length] in order.
	WriteGather(srcs []*buffers.Buffer, offs, length int) (int64, error)
}

// StreamChannel is a full-duplex byte stream.
type StreamChannel interface {
	StreamSourceChannel
	StreamSinkChannel
}

// ConnectedStreamChannel is a stream channel bound to a local address and
// connected to a peer.
type ConnectedStreamChannel interface {
	StreamChannel
	BoundChannel
	ConnectedChannel
}

// ReadableMessageChannel delivers at most one whole message per call.
// Receive returns 0 when no message is pending and io.EOF after end-of-input.
type ReadableMessageChannel interface {
	SuspendableReadChannel

	// Receive transfers one message into dst, returning its size.
	Receive(dst *buffers.Buffer) (int, error)

	// ReceiveScatter transfers one message across dsts[offs : offs+length].
	ReceiveScatter(dsts []*buffers.Buffer, offs, length int) (int64, error)
}

// WritableMessageChannel accepts whole messages. Send is all-or-nothing at
// the message boundary: false means the message was not accepted and no bytes
// reached the wire.
type WritableMessageChannel interface {
	SuspendableWriteChannel

	// Send writes one message drawn from src's remaining bytes.
	Send(src *buffers.Buffer) (bool, error)

	// SendGather writes one message drawn from srcs[offs : offs+length].
	SendGather(srcs []*buffers.Buffer, offs, length int) (bool, error)
}

// MessageChannel is a full-duplex message channel.
type MessageChannel interface {
	ReadableMessageChannel
	WritableMessageChannel
}

// ConnectedMessageChannel is a message channel with a bound and connected
// endpoint, such as a connected datagram socket.
type ConnectedMessageChannel interface {
	MessageChannel
	BoundChannel
	ConnectedChannel
}
