// File: option/options.go
// Package option
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The options honored by the library. Builder.Parse and LoadYAML reject
// unknown option names with ErrUnsupportedOption. The transports do not
// reject inapplicable options: a socket option that does not apply to the
// socket type is skipped without an error.

package option

// SSLClientAuthMode controls peer certificate demands on the server side.
type SSLClientAuthMode int

const (
	// ClientAuthNotRequested asks for no client certificate.
	ClientAuthNotRequested SSLClientAuthMode = iota
	// ClientAuthRequested asks for, but does not demand, a certificate.
	ClientAuthRequested
	// ClientAuthRequired refuses peers without a certificate.
	ClientAuthRequired
)

func (m SSLClientAuthMode) String() string {
	switch m {
	case ClientAuthNotRequested:
		return "NOT_REQUESTED"
	case ClientAuthRequested:
		return "REQUESTED"
	case ClientAuthRequired:
		return "REQUIRED"
	default:
		return "unknown"
	}
}

// Message framing bounds, consumed by the length-framed overlay.
var (
	// MaxInboundMessageSize bounds the payload size the framed reader accepts.
	MaxInboundMessageSize = NewInt("max-inbound-message-size")

	// MaxOutboundMessageSize bounds the payload size the framed writer sends.
	MaxOutboundMessageSize = NewInt("max-outbound-message-size")
)

// SSL overlay configuration.
var (
	// SSLClientAuth selects the server's client certificate demand.
	SSLClientAuth = NewEnum("ssl-client-auth-mode", map[string]SSLClientAuthMode{
		"NOT_REQUESTED": ClientAuthNotRequested,
		"REQUESTED":     ClientAuthRequested,
		"REQUIRED":      ClientAuthRequired,
	})

	// SSLUseClientMode forces the engine into client or server handshaking.
	SSLUseClientMode = NewBool("ssl-use-client-mode")

	// SSLEnableSessionCreation permits establishing new sessions.
	SSLEnableSessionCreation = NewBool("ssl-enable-session-creation")

	// SSLEnabledCipherSuites restricts the enabled suites; unknown names are
	// dropped by intersecting with the engine's supported set.
	SSLEnabledCipherSuites = NewStringSequence("ssl-enabled-cipher-suites")

	// SSLEnabledProtocols restricts the enabled protocol versions.
	SSLEnabledProtocols = NewStringSequence("ssl-enabled-protocols")
)

// Socket-level options, applied by the transport connectors.
var (
	// KeepAlive enables TCP keep-alive probes.
	KeepAlive = NewBool("keep-alive")

	// TCPNoDelay disables Nagle's algorithm.
	TCPNoDelay = NewBool("tcp-no-delay")

	// Linger sets the close linger time in seconds; negative disables.
	Linger = NewInt("linger")

	// ReceiveBufferSize sets SO_RCVBUF.
	ReceiveBufferSize = NewInt("receive-buffer-size")

	// SendBufferSize sets SO_SNDBUF.
	SendBufferSize = NewInt("send-buffer-size")

	// ReuseAddress sets SO_REUSEADDR.
	ReuseAddress = NewBool("reuse-address")

	// Broadcast permits datagram broadcast.
	Broadcast = NewBool("broadcast")

	// MulticastTTL sets the multicast time-to-live.
	MulticastTTL = NewInt("multicast-ttl")
)
