// File: transport/netchannel.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Readiness-channel facade over a net.Conn. A shuttle goroutine moves socket
// bytes into the channel's inbox, so reads never block. Write hands bytes to
// the socket directly and can block while the socket's send buffer is full.

package transport

import (
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rohankumardubey/xnio-core/adapters"
	"github.com/rohankumardubey/xnio-core/api"
	"github.com/rohankumardubey/xnio-core/buffers"
	"github.com/rohankumardubey/xnio-core/internal/logging"
	"github.com/rohankumardubey/xnio-core/metrics"
)

// shuttleBufSize is the per-connection read staging size.
const shuttleBufSize = 32 * 1024

// netStreamChannel adapts a net.Conn to the connected stream channel
// contract.
type netStreamChannel struct {
	id   string
	conn net.Conn
	in   *streamInbox

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

var _ api.ConnectedStreamChannel = (*netStreamChannel)(nil)

// newNetStreamChannel wraps conn and starts its inbound shuttle.
func newNetStreamChannel(conn net.Conn) *netStreamChannel {
	c := &netStreamChannel{
		id:   uuid.NewString(),
		conn: conn,
		in:   newStreamInbox(),
	}
	go c.shuttle()
	return c
}

// shuttle drains the socket into the inbox until end-of-input or close.
func (c *netStreamChannel) shuttle() {
	buf := make([]byte, shuttleBufSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			if !c.in.push(buf[:n]) {
				return
			}
			metrics.BytesRead.Add(float64(n))
			c.signalReadable()
		}
		if err != nil {
			if err != io.EOF && !c.closed.Load() {
				logging.L().Debug("transport read terminated",
					zap.String("channel", c.id), zap.Error(err))
			}
			c.in.setEOF()
			c.signalReadable()
			return
		}
	}
}

func (c *netStreamChannel) Read(dst *buffers.Buffer) (int, error) {
	if c.readShut.Load() {
		return 0, io.EOF
	}
	if c.closed.Load() {
		return 0, api.ErrClosedChannel
	}
	if !dst.HasRemaining() {
		return 0, nil
	}
	tmp := make([]byte, dst.Remaining())
	n, end := c.in.consume(tmp)
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

func (c *netStreamChannel) ReadScatter(dsts []*buffers.Buffer, offs, length int) (int64, error) {
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
		if dsts[i].HasRemaining() {
			break
		}
	}
	return total, nil
}

func (c *netStreamChannel) Write(src *buffers.Buffer) (int, error) {
	if c.writeShut.Load() || c.closed.Load() {
		return 0, api.ErrClosedChannel
	}
	n := src.Remaining()
	if n == 0 {
		return 0, nil
	}
	written, err := c.conn.Write(src.Bytes())
	if written > 0 {
		_ = buffers.Skip(src, written)
		metrics.BytesWritten.Add(float64(written))
	}
	if err != nil {
		return written, &api.Error{Code: api.ErrCodeInternal, Message: "write failed", Cause: err}
	}
	return written, nil
}

func (c *netStreamChannel) WriteGather(srcs []*buffers.Buffer, offs, length int) (int64, error) {
	var total int64
	for i := offs; i < offs+length; i++ {
		n, err := c.Write(srcs[i])
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (c *netStreamChannel) SuspendReads() { c.readSuspended.Store(true) }

func (c *netStreamChannel) ResumeReads() {
	c.readSuspended.Store(false)
	c.signalReadable()
}

func (c *netStreamChannel) SuspendWrites() { c.writeSuspended.Store(true) }

func (c *netStreamChannel) ResumeWrites() {
	c.writeSuspended.Store(false)
	c.signalWritable()
}

func (c *netStreamChannel) ShutdownReads() error {
	c.readShut.Store(true)
	c.in.close()
	if tcp, ok := c.conn.(*net.TCPConn); ok {
		return tcp.CloseRead()
	}
	return nil
}

func (c *netStreamChannel) ShutdownWrites() (bool, error) {
	if c.writeShut.CompareAndSwap(false, true) {
		if tcp, ok := c.conn.(*net.TCPConn); ok {
			if err := tcp.CloseWrite(); err != nil {
				return true, err
			}
		}
	}
	return true, nil
}

// Flush reports done; the socket accepts writes synchronously.
func (c *netStreamChannel) Flush() (bool, error) {
	if c.closed.Load() {
		return false, api.ErrClosedChannel
	}
	return true, nil
}

func (c *netStreamChannel) AwaitReadable() error { return c.in.awaitReadable(0) }

func (c *netStreamChannel) AwaitReadableFor(timeout time.Duration) error {
	return c.in.awaitReadable(timeout)
}

func (c *netStreamChannel) AwaitWritable() error {
	if c.closed.Load() {
		return api.ErrClosedChannel
	}
	return nil
}

func (c *netStreamChannel) AwaitWritableFor(time.Duration) error { return c.AwaitWritable() }

func (c *netStreamChannel) ReadSetter() api.ListenerSetter[api.SuspendableReadChannel] {
	return &c.readCell
}

func (c *netStreamChannel) WriteSetter() api.ListenerSetter[api.SuspendableWriteChannel] {
	return &c.writeCell
}

func (c *netStreamChannel) CloseSetter() api.ListenerSetter[api.Channel] {
	return &c.closeCell
}

func (c *netStreamChannel) LocalAddr() net.Addr { return c.conn.LocalAddr() }

func (c *netStreamChannel) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

func (c *netStreamChannel) IsOpen() bool { return !c.closed.Load() }

func (c *netStreamChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.in.close()
		err = c.conn.Close()
		listener := c.closeCell.Get()
		c.readCell.MarkClosed()
		c.writeCell.MarkClosed()
		c.closeCell.MarkClosed()
		adapters.InvokeChannelListener[api.Channel](c, listener)
	})
	return err
}

func (c *netStreamChannel) signalReadable() {
	if c.readSuspended.Load() || c.closed.Load() {
		return
	}
	if c.readCell.Get() == nil {
		return
	}
	go func() {
		c.readDispatch.Lock()
		defer c.readDispatch.Unlock()
		if c.readSuspended.Load() || c.closed.Load() || !c.in.readable() {
			return
		}
		adapters.InvokeChannelListener[api.SuspendableReadChannel](c, c.readCell.Get())
	}()
}

func (c *netStreamChannel) signalWritable() {
	if c.writeSuspended.Load() || c.closed.Load() {
		return
	}
	if c.writeCell.Get() == nil {
		return
	}
	go func() {
		c.writeDispatch.Lock()
		defer c.writeDispatch.Unlock()
		if c.writeSuspended.Load() || c.closed.Load() {
			return
		}
		adapters.InvokeChannelListener[api.SuspendableWriteChannel](c, c.writeCell.Get())
	}()
}
