// File: ssl/engine.go
// Package ssl layers TLS over a byte-stream channel, driven by an engine
// treated as a byte-in/byte-out oracle.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The engine exposes four operations: wrap (application plaintext to network
// ciphertext), unwrap (the reverse), handshake status, and begin-handshake.
// Everything else in this package derives channel readiness from the
// interplay between the engine's next needed action and the underlying
// stream's readiness.

package ssl

import (
	"github.com/rohankumardubey/xnio-core/buffers"
	"github.com/rohankumardubey/xnio-core/option"
)

// HandshakeStatus is the engine's next needed action.
type HandshakeStatus int

const (
	// NotHandshaking means application data can flow.
	NotHandshaking HandshakeStatus = iota
	// NeedWrap means the engine must produce handshake bytes.
	NeedWrap
	// NeedUnwrap means the engine must consume handshake bytes.
	NeedUnwrap
	// NeedTask means a delegated task must run before progress.
	NeedTask
	// Finished means the handshake just completed.
	Finished
)

// OpStatus is the outcome of a single wrap or unwrap operation.
type OpStatus int

const (
	// StatusOK means the operation made progress.
	StatusOK OpStatus = iota
	// StatusUnderflow means more input bytes are needed.
	StatusUnderflow
	// StatusOverflow means the destination buffer is too small.
	StatusOverflow
	// StatusClosed means the engine's stream is closed in that direction.
	StatusClosed
)

// EngineResult reports one wrap or unwrap step.
type EngineResult struct {
	Status    OpStatus
	Consumed  int
	Produced  int
	Handshake HandshakeStatus
}

// Engine is the TLS oracle.
type Engine interface {
	// Wrap moves application bytes from src into ciphertext in dst.
	Wrap(src, dst *buffers.Buffer) (EngineResult, error)

	// Unwrap moves ciphertext from src into application bytes in dst.
	Unwrap(src, dst *buffers.Buffer) (EngineResult, error)

	// BeginHandshake starts or renegotiates the handshake.
	BeginHandshake() error

	// HandshakeStatus returns the engine's next needed action.
	HandshakeStatus() HandshakeStatus

	// DelegatedTask returns the next pending task, or nil.
	DelegatedTask() func()

	// CloseOutbound signals no further application bytes will be wrapped.
	CloseOutbound()

	// SetClientMode selects client or server handshaking.
	SetClientMode(client bool)

	// SetNeedClientAuth demands a client certificate.
	SetNeedClientAuth(need bool)

	// SetWantClientAuth requests, without demanding, a client certificate.
	SetWantClientAuth(want bool)

	// SetEnableSessionCreation permits establishing new sessions.
	SetEnableSessionCreation(enable bool)

	// SupportedCipherSuites lists every suite the engine can use.
	SupportedCipherSuites() []string

	// SetEnabledCipherSuites restricts the active suites.
	SetEnabledCipherSuites(suites []string)

	// SupportedProtocols lists every protocol version the engine can use.
	SupportedProtocols() []string

	// SetEnabledProtocols restricts the active protocol versions.
	SetEnabledProtocols(protocols []string)
}

// ConfigureEngine applies the SSL options to the engine. The client/server
// default derives from which side created the overlay; explicit enabled sets
// are intersected with the engine's supported sets.
func ConfigureEngine(engine Engine, options option.Map, server bool) {
	clientMode := option.Get(options, option.SSLUseClientMode, !server)
	engine.SetClientMode(clientMode)
	if !clientMode {
		if mode, ok := option.GetOK(options, option.SSLClientAuth); ok {
			switch mode {
			case option.ClientAuthNotRequested:
				engine.SetNeedClientAuth(false)
				engine.SetWantClientAuth(false)
			case option.ClientAuthRequested:
				engine.SetWantClientAuth(true)
			case option.ClientAuthRequired:
				engine.SetNeedClientAuth(true)
			}
		}
	}
	engine.SetEnableSessionCreation(option.Get(options, option.SSLEnableSessionCreation, true))
	if suites, ok := option.GetOK(options, option.SSLEnabledCipherSuites); ok {
		engine.SetEnabledCipherSuites(intersect(suites.Values(), engine.SupportedCipherSuites()))
	}
	if protocols, ok := option.GetOK(options, option.SSLEnabledProtocols); ok {
		engine.SetEnabledProtocols(intersect(protocols.Values(), engine.SupportedProtocols()))
	}
}

// intersect keeps the requested names present in the supported set,
// preserving request order.
func intersect(requested, supported []string) []string {
	set := make(map[string]struct{}, len(supported))
	for _, name := range supported {
		set[name] = struct{}{}
	}
	out := make([]string, 0, len(requested))
	for _, name := range requested {
		if _, ok := set[name]; ok {
			out = append(out, name)
		}
	}
	return out
}
