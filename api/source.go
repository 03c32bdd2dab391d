// File: api/source.go
// Package api defines channel factory and cancellation contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "net"

// Cancellable attempts cooperative abort of an in-flight operation without
// guaranteeing it. Cancel never blocks and never fails.
type Cancellable interface {
	// Cancel requests the abort and returns the same cancellable.
	Cancel() Cancellable
}

// ChannelSource is a factory for one kind of channel. Open starts an attempt
// and returns its future; the open listener is invoked with the channel once
// the attempt succeeds.
type ChannelSource[C Channel] interface {
	Open(openListener ChannelListener[C]) Future[C]
}

// Connector establishes outbound connections to arbitrary destinations.
// The bind listener fires after the local bind, the open listener after the
// full connect; the two invocations are independent and not ordered.
type Connector[C Channel] interface {
	// ConnectTo starts a connection attempt to dest.
	ConnectTo(dest net.Addr, openListener ChannelListener[C], bindListener ChannelListener[BoundChannel]) Future[C]

	// ChannelSourceFor fixes the destination, yielding a reusable source.
	ChannelSourceFor(dest net.Addr) ChannelSource[C]
}

// ChannelDestination accepts a single inbound connection from a local bind.
type ChannelDestination[C Channel] interface {
	Accept(openListener ChannelListener[C], bindListener ChannelListener[BoundChannel]) Future[C]
}
