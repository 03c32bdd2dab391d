// File: channels/blocking.go
// Package channels builds stream adapters on top of the api channel
// contracts: the timeout-bounded blocking byte channel, blocking convenience
// helpers, and the length-framed message overlay.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package channels

import (
	"sync/atomic"
	"time"

	"github.com/rohankumardubey/xnio-core/api"
	"github.com/rohankumardubey/xnio-core/buffers"
)

// BlockingByteChannel wraps a stream channel and exposes blocking byte
// operations with independent read and write timeouts. A timeout of zero
// waits indefinitely. Timeouts are normalized to milliseconds; a positive
// sub-millisecond value is clamped up to one millisecond. Timeout setters
// take effect on the next blocking call.
type BlockingByteChannel struct {
	delegate     api.StreamChannel
	readTimeout  atomic.Int64 // milliseconds
	writeTimeout atomic.Int64
}

// NewBlockingByteChannel creates the adapter. Negative timeouts panic;
// a timeout is a configuration value, not an I/O outcome.
func NewBlockingByteChannel(delegate api.StreamChannel, readTimeout, writeTimeout time.Duration) *BlockingByteChannel {
	b := &BlockingByteChannel{delegate: delegate}
	b.SetReadTimeout(readTimeout)
	b.SetWriteTimeout(writeTimeout)
	return b
}

// SetReadTimeout atomically replaces the read timeout.
func (b *BlockingByteChannel) SetReadTimeout(d time.Duration) {
	b.readTimeout.Store(normalizeTimeout(d, "read"))
}

// SetWriteTimeout atomically replaces the write timeout.
func (b *BlockingByteChannel) SetWriteTimeout(d time.Duration) {
	b.writeTimeout.Store(normalizeTimeout(d, "write"))
}

func normalizeTimeout(d time.Duration, direction string) int64 {
	if d < 0 {
		panic("channels: negative " + direction + " timeout")
	}
	if d == 0 {
		return 0
	}
	if ms := d.Milliseconds(); ms >= 1 {
		return ms
	}
	return 1
}

// ReadBuffer blocks until at least one byte lands in dst, end-of-input, or
// the read timeout elapses, in which case it fails with ErrReadTimeout.
func (b *BlockingByteChannel) ReadBuffer(dst *buffers.Buffer) (int, error) {
	timeout := b.readTimeout.Load()
	if timeout == 0 {
		for {
			res, err := b.delegate.Read(dst)
			if err != nil || res != 0 || !dst.HasRemaining() {
				return res, err
			}
			if err := b.delegate.AwaitReadable(); err != nil {
				return 0, err
			}
		}
	}
	deadline := time.Now().Add(time.Duration(timeout) * time.Millisecond)
	for {
		res, err := b.delegate.Read(dst)
		if err != nil || res != 0 || !dst.HasRemaining() {
			return res, err
		}
		now := time.Now()
		if !now.Before(deadline) {
			return 0, api.ErrReadTimeout
		}
		if err := b.delegate.AwaitReadableFor(deadline.Sub(now)); err != nil {
			return 0, err
		}
	}
}

// ReadScatter is ReadBuffer over a buffer sequence.
func (b *BlockingByteChannel) ReadScatter(dsts []*buffers.Buffer, offs, length int) (int64, error) {
	timeout := b.readTimeout.Load()
	if timeout == 0 {
		for {
			res, err := b.delegate.ReadScatter(dsts, offs, length)
			if err != nil || res != 0 || !buffers.HasRemaining(dsts, offs, length) {
				return res, err
			}
			if err := b.delegate.AwaitReadable(); err != nil {
				return 0, err
			}
		}
	}
	deadline := time.Now().Add(time.Duration(timeout) * time.Millisecond)
	for {
		res, err := b.delegate.ReadScatter(dsts, offs, length)
		if err != nil || res != 0 || !buffers.HasRemaining(dsts, offs, length) {
			return res, err
		}
		now := time.Now()
		if !now.Before(deadline) {
			return 0, api.ErrReadTimeout
		}
		if err := b.delegate.AwaitReadableFor(deadline.Sub(now)); err != nil {
			return 0, err
		}
	}
}

// WriteBuffer blocks until all of src is accepted or the write timeout
// elapses, in which case it fails with ErrWriteTimeout.
func (b *BlockingByteChannel) WriteBuffer(src *buffers.Buffer) (int, error) {
	timeout := b.writeTimeout.Load()
	total := 0
	if timeout == 0 {
		for src.HasRemaining() {
			res, err := b.delegate.Write(src)
			if err != nil {
				return total, err
			}
			if res == 0 {
				if err := b.delegate.AwaitWritable(); err != nil {
					return total, err
				}
				continue
			}
			total += res
		}
		return total, nil
	}
	deadline := time.Now().Add(time.Duration(timeout) * time.Millisecond)
	for src.HasRemaining() {
		res, err := b.delegate.Write(src)
		if err != nil {
			return total, err
		}
		if res != 0 {
			total += res
			continue
		}
		now := time.Now()
		if !now.Before(deadline) {
			return total, api.ErrWriteTimeout
		}
		if err := b.delegate.AwaitWritableFor(deadline.Sub(now)); err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteGather is WriteBuffer over a buffer sequence.
func (b *BlockingByteChannel) WriteGather(srcs []*buffers.Buffer, offs, length int) (int64, error) {
	timeout := b.writeTimeout.Load()
	var total int64
	if timeout == 0 {
		for buffers.HasRemaining(srcs, offs, length) {
			res, err := b.delegate.WriteGather(srcs, offs, length)
			if err != nil {
				return total, err
			}
			if res == 0 {
				if err := b.delegate.AwaitWritable(); err != nil {
					return total, err
				}
				continue
			}
			total += res
		}
		return total, nil
	}
	deadline := time.Now().Add(time.Duration(timeout) * time.Millisecond)
	for buffers.HasRemaining(srcs, offs, length) {
		res, err := b.delegate.WriteGather(srcs, offs, length)
		if err != nil {
			return total, err
		}
		if res != 0 {
			total += res
			continue
		}
		now := time.Now()
		if !now.Before(deadline) {
			return total, api.ErrWriteTimeout
		}
		if err := b.delegate.AwaitWritableFor(deadline.Sub(now)); err != nil {
			return total, err
		}
	}
	return total, nil
}

// Read implements io.Reader over the adapter.
func (b *BlockingByteChannel) Read(p []byte) (int, error) {
	return b.ReadBuffer(buffers.Wrap(p).Clear())
}

// Write implements io.Writer over the adapter.
func (b *BlockingByteChannel) Write(p []byte) (int, error) {
	return b.WriteBuffer(buffers.Wrap(p))
}

// Flush blocks until all queued data is pushed toward the peer, bounded by
// the write timeout.
func (b *BlockingByteChannel) Flush() error {
	timeout := b.writeTimeout.Load()
	if timeout == 0 {
		return FlushBlocking(b.delegate)
	}
	deadline := time.Now().Add(time.Duration(timeout) * time.Millisecond)
	for {
		done, err := b.delegate.Flush()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		now := time.Now()
		if !now.Before(deadline) {
			return api.ErrWriteTimeout
		}
		if err := b.delegate.AwaitWritableFor(deadline.Sub(now)); err != nil {
			return err
		}
	}
}

// ShutdownWrites blocks until the write side is fully shut down, bounded by
// the write timeout.
func (b *BlockingByteChannel) ShutdownWrites() error {
	timeout := b.writeTimeout.Load()
	if timeout == 0 {
		return ShutdownWritesBlocking(b.delegate)
	}
	deadline := time.Now().Add(time.Duration(timeout) * time.Millisecond)
	for {
		done, err := b.delegate.ShutdownWrites()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		now := time.Now()
		if !now.Before(deadline) {
			return api.ErrWriteTimeout
		}
		if err := b.delegate.AwaitWritableFor(deadline.Sub(now)); err != nil {
			return err
		}
	}
}

// IsOpen reports whether the underlying channel is open.
func (b *BlockingByteChannel) IsOpen() bool { return b.delegate.IsOpen() }

// Close closes the underlying channel.
func (b *BlockingByteChannel) Close() error { return b.delegate.Close() }
