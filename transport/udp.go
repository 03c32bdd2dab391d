// File: transport/udp.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Connected UDP message channel. Each datagram is one message: sends are
// all-or-nothing, receives deliver at most one message per call.

package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rohankumardubey/xnio-core/adapters"
	"github.com/rohankumardubey/xnio-core/api"
	"github.com/rohankumardubey/xnio-core/buffers"
	"github.com/rohankumardubey/xnio-core/future"
	"github.com/rohankumardubey/xnio-core/metrics"
	"github.com/rohankumardubey/xnio-core/option"
)

// maxDatagramSize bounds the receive staging buffer.
const maxDatagramSize = 65535

// UDPConnector establishes connected datagram channels.
type UDPConnector struct {
	options option.Map
}

var _ api.Connector[api.ConnectedMessageChannel] = (*UDPConnector)(nil)

// NewUDPConnector creates a connector configured by options.
func NewUDPConnector(options option.Map) *UDPConnector {
	return &UDPConnector{options: options}
}

// ConnectTo connects a datagram socket to dest.
func (u *UDPConnector) ConnectTo(dest net.Addr, openListener api.ChannelListener[api.ConnectedMessageChannel], bindListener api.ChannelListener[api.BoundChannel]) api.Future[api.ConnectedMessageChannel] {
	result := future.NewResult[api.ConnectedMessageChannel]()
	ctx, cancel := context.WithCancel(context.Background())
	result.AddCancelHandler(cancelFunc(func() {
		cancel()
		result.SetCancelled()
	}))
	go func() {
		dialer := net.Dialer{
			Control: func(network, address string, rc rawConn) error {
				return applySocketOptions(network, rc, u.options)
			},
		}
		conn, err := dialer.DialContext(ctx, "udp", dest.String())
		if err != nil {
			if ctx.Err() != nil {
				result.SetCancelled()
			} else {
				result.SetException(fmt.Errorf("connecting to %s: %w", dest, err))
			}
			return
		}
		channel := newUDPMessageChannel(conn)
		if bindListener != nil {
			adapters.InvokeChannelListener[api.BoundChannel](channel, bindListener)
		}
		if !result.SetResult(channel) {
			adapters.SafeClose(channel)
			return
		}
		metrics.ChannelsOpened.Inc()
	}()
	f := result.Future()
	if openListener != nil {
		f.AddNotifier(adapters.ChannelListenerNotifier[api.ConnectedMessageChannel](), openListener)
	}
	return f
}

// ChannelSourceFor fixes the destination, yielding a reusable source.
func (u *UDPConnector) ChannelSourceFor(dest net.Addr) api.ChannelSource[api.ConnectedMessageChannel] {
	return &udpChannelSource{connector: u, dest: dest}
}

type udpChannelSource struct {
	connector *UDPConnector
	dest      net.Addr
}

func (s *udpChannelSource) Open(openListener api.ChannelListener[api.ConnectedMessageChannel]) api.Future[api.ConnectedMessageChannel] {
	return s.connector.ConnectTo(s.dest, openListener, nil)
}

// udpMessageChannel adapts a connected datagram socket to the message
// channel contract.
type udpMessageChannel struct {
	id   string
	conn net.Conn
	in   *messageInbox

	readSuspended  atomic.Bool
	writeSuspended atomic.Bool
	closed         atomic.Bool

	readCell  adapters.ListenerCell[api.SuspendableReadChannel]
	writeCell adapters.ListenerCell[api.SuspendableWriteChannel]
	closeCell adapters.ListenerCell[api.Channel]

	readDispatch sync.Mutex
	closeOnce    sync.Once
}

var _ api.ConnectedMessageChannel = (*udpMessageChannel)(nil)

func newUDPMessageChannel(conn net.Conn) *udpMessageChannel {
	c := &udpMessageChannel{
		id:   uuid.NewString(),
		conn: conn,
		in:   newMessageInbox(),
	}
	go c.shuttle()
	return c
}

func (c *udpMessageChannel) shuttle() {
	buf := make([]byte, maxDatagramSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			msg := make([]byte, n)
			copy(msg, buf[:n])
			if !c.in.push(msg) {
				return
			}
			metrics.BytesRead.Add(float64(n))
			c.signalReadable()
		}
		if err != nil {
			c.in.setEOF()
			c.signalReadable()
			return
		}
	}
}

// Receive delivers at most one pending datagram into dst. A datagram larger
// than dst's remaining space is truncated to fit.
func (c *udpMessageChannel) Receive(dst *buffers.Buffer) (int, error) {
	if c.closed.Load() {
		return 0, api.ErrClosedChannel
	}
	msg, end := c.in.pop()
	if msg == nil {
		if end {
			return 0, io.EOF
		}
		return 0, nil
	}
	n := len(msg)
	if n > dst.Remaining() {
		n = dst.Remaining()
	}
	if err := dst.PutBytes(msg[:n]); err != nil {
		return 0, err
	}
	return n, nil
}

// ReceiveScatter delivers at most one pending datagram across dsts.
func (c *udpMessageChannel) ReceiveScatter(dsts []*buffers.Buffer, offs, length int) (int64, error) {
	if c.closed.Load() {
		return 0, api.ErrClosedChannel
	}
	msg, end := c.in.pop()
	if msg == nil {
		if end {
			return 0, io.EOF
		}
		return 0, nil
	}
	return buffers.PutInto(dsts, offs, length, buffers.Wrap(msg)), nil
}

// Send writes one datagram drawn from src. All-or-nothing per call.
func (c *udpMessageChannel) Send(src *buffers.Buffer) (bool, error) {
	return c.SendGather([]*buffers.Buffer{src}, 0, 1)
}

// SendGather writes one datagram drawn from srcs in order.
func (c *udpMessageChannel) SendGather(srcs []*buffers.Buffer, offs, length int) (bool, error) {
	if c.closed.Load() {
		return false, api.ErrClosedChannel
	}
	size := buffers.Remaining(srcs, offs, length)
	msg := make([]byte, 0, size)
	for i := offs; i < offs+length; i++ {
		msg = append(msg, srcs[i].Bytes()...)
	}
	if _, err := c.conn.Write(msg); err != nil {
		return false, &api.Error{Code: api.ErrCodeInternal, Message: "send failed", Cause: err}
	}
	for i := offs; i < offs+length; i++ {
		_ = buffers.Skip(srcs[i], srcs[i].Remaining())
	}
	metrics.BytesWritten.Add(float64(size))
	return true, nil
}

func (c *udpMessageChannel) SuspendReads() { c.readSuspended.Store(true) }

func (c *udpMessageChannel) ResumeReads() {
	c.readSuspended.Store(false)
	c.signalReadable()
}

func (c *udpMessageChannel) SuspendWrites() { c.writeSuspended.Store(true) }

func (c *udpMessageChannel) ResumeWrites() { c.writeSuspended.Store(false) }

func (c *udpMessageChannel) ShutdownReads() error {
	c.in.close()
	return nil
}

// ShutdownWrites reports completion at once. It does not close the write
// side: Send keeps delivering datagrams until the channel is closed.
func (c *udpMessageChannel) ShutdownWrites() (bool, error) { return true, nil }

func (c *udpMessageChannel) Flush() (bool, error) {
	if c.closed.Load() {
		return false, api.ErrClosedChannel
	}
	return true, nil
}

func (c *udpMessageChannel) AwaitReadable() error { return c.in.awaitReadable(0) }

func (c *udpMessageChannel) AwaitReadableFor(timeout time.Duration) error {
	return c.in.awaitReadable(timeout)
}

func (c *udpMessageChannel) AwaitWritable() error {
	if c.closed.Load() {
		return api.ErrClosedChannel
	}
	return nil
}

func (c *udpMessageChannel) AwaitWritableFor(time.Duration) error { return c.AwaitWritable() }

func (c *udpMessageChannel) ReadSetter() api.ListenerSetter[api.SuspendableReadChannel] {
	return &c.readCell
}

func (c *udpMessageChannel) WriteSetter() api.ListenerSetter[api.SuspendableWriteChannel] {
	return &c.writeCell
}

func (c *udpMessageChannel) CloseSetter() api.ListenerSetter[api.Channel] {
	return &c.closeCell
}

func (c *udpMessageChannel) LocalAddr() net.Addr { return c.conn.LocalAddr() }

func (c *udpMessageChannel) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

func (c *udpMessageChannel) IsOpen() bool { return !c.closed.Load() }

func (c *udpMessageChannel) Close() error {
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

func (c *udpMessageChannel) signalReadable() {
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
