// File: transport/tcp.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TCP connector and single-accept destination. Socket options from the
// option map are applied before connect/listen. The bind listener fires once
// the local address is bound, the open listener once the connection is fully
// established; the two invocations are independent and not ordered.

package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/rohankumardubey/xnio-core/adapters"
	"github.com/rohankumardubey/xnio-core/api"
	"github.com/rohankumardubey/xnio-core/future"
	"github.com/rohankumardubey/xnio-core/metrics"
	"github.com/rohankumardubey/xnio-core/option"
)

// cancelFunc adapts a plain function to the Cancellable contract.
type cancelFunc func()

func (f cancelFunc) Cancel() api.Cancellable {
	f()
	return f
}

// TCPConnector establishes outbound TCP connections.
type TCPConnector struct {
	options option.Map
}

var _ api.Connector[api.ConnectedStreamChannel] = (*TCPConnector)(nil)

// NewTCPConnector creates a connector configured by options.
func NewTCPConnector(options option.Map) *TCPConnector {
	return &TCPConnector{options: options}
}

// ConnectTo starts a connection attempt to dest. Cancelling the returned
// future aborts the in-flight dial; a channel that completes after the
// cancellation race is safe-closed.
func (t *TCPConnector) ConnectTo(dest net.Addr, openListener api.ChannelListener[api.ConnectedStreamChannel], bindListener api.ChannelListener[api.BoundChannel]) api.Future[api.ConnectedStreamChannel] {
	result := future.NewResult[api.ConnectedStreamChannel]()
	ctx, cancel := context.WithCancel(context.Background())
	result.AddCancelHandler(cancelFunc(func() {
		cancel()
		result.SetCancelled()
	}))
	go func() {
		dialer := net.Dialer{
			Control: func(network, address string, rc rawConn) error {
				return applySocketOptions(network, rc, t.options)
			},
		}
		conn, err := dialer.DialContext(ctx, "tcp", dest.String())
		if err != nil {
			if ctx.Err() != nil {
				result.SetCancelled()
			} else {
				result.SetException(fmt.Errorf("connecting to %s: %w", dest, err))
			}
			return
		}
		channel := newNetStreamChannel(conn)
		if bindListener != nil {
			adapters.InvokeChannelListener[api.BoundChannel](channel, bindListener)
		}
		if !result.SetResult(channel) {
			// Lost the race against cancellation.
			adapters.SafeClose(channel)
			return
		}
		metrics.ChannelsOpened.Inc()
	}()
	f := result.Future()
	if openListener != nil {
		f.AddNotifier(adapters.ChannelListenerNotifier[api.ConnectedStreamChannel](), openListener)
	}
	return f
}

// ChannelSourceFor fixes the destination, yielding a reusable source.
func (t *TCPConnector) ChannelSourceFor(dest net.Addr) api.ChannelSource[api.ConnectedStreamChannel] {
	return &tcpChannelSource{connector: t, dest: dest}
}

type tcpChannelSource struct {
	connector *TCPConnector
	dest      net.Addr
}

func (s *tcpChannelSource) Open(openListener api.ChannelListener[api.ConnectedStreamChannel]) api.Future[api.ConnectedStreamChannel] {
	return s.connector.ConnectTo(s.dest, openListener, nil)
}

// boundListenerChannel presents a listening socket to the bind listener.
type boundListenerChannel struct {
	ln net.Listener
}

var _ api.BoundChannel = (*boundListenerChannel)(nil)

func (b *boundListenerChannel) LocalAddr() net.Addr { return b.ln.Addr() }

func (b *boundListenerChannel) IsOpen() bool { return true }

func (b *boundListenerChannel) Close() error { return b.ln.Close() }

func (b *boundListenerChannel) CloseSetter() api.ListenerSetter[api.Channel] {
	return adapters.NullSetter[api.Channel]()
}

// TCPDestination accepts a single inbound connection from a local bind.
type TCPDestination struct {
	bindAddr string
	options  option.Map
}

var _ api.ChannelDestination[api.ConnectedStreamChannel] = (*TCPDestination)(nil)

// NewTCPDestination creates a destination bound to bindAddr on Accept.
func NewTCPDestination(bindAddr string, options option.Map) *TCPDestination {
	return &TCPDestination{bindAddr: bindAddr, options: options}
}

// Accept binds, fires the bind listener, takes one connection, and resolves
// the future with it. The listening socket is closed after the accept.
// Cancelling the future closes the listening socket to abort the accept.
func (d *TCPDestination) Accept(openListener api.ChannelListener[api.ConnectedStreamChannel], bindListener api.ChannelListener[api.BoundChannel]) api.Future[api.ConnectedStreamChannel] {
	result := future.NewResult[api.ConnectedStreamChannel]()
	lc := net.ListenConfig{
		Control: func(network, address string, rc rawConn) error {
			return applySocketOptions(network, rc, d.options)
		},
	}
	ln, err := lc.Listen(context.Background(), "tcp", d.bindAddr)
	if err != nil {
		result.SetException(fmt.Errorf("binding %s: %w", d.bindAddr, err))
		return result.Future()
	}
	result.AddCancelHandler(cancelFunc(func() {
		adapters.SafeClose(ln)
		result.SetCancelled()
	}))
	if bindListener != nil {
		adapters.InvokeChannelListener[api.BoundChannel](&boundListenerChannel{ln: ln}, bindListener)
	}
	go func() {
		conn, err := ln.Accept()
		adapters.SafeClose(ln)
		if err != nil {
			if !result.SetException(fmt.Errorf("accepting on %s: %w", d.bindAddr, err)) {
				return
			}
			return
		}
		channel := newNetStreamChannel(conn)
		if !result.SetResult(channel) {
			adapters.SafeClose(channel)
			return
		}
		metrics.ChannelsOpened.Inc()
	}()
	f := result.Future()
	if openListener != nil {
		f.AddNotifier(adapters.ChannelListenerNotifier[api.ConnectedStreamChannel](), openListener)
	}
	return f
}
