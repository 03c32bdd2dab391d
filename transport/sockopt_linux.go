// File: transport/sockopt_linux.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket option application on Linux through raw setsockopt calls.

//go:build linux

package transport

import (
	"golang.org/x/sys/unix"

	"github.com/rohankumardubey/xnio-core/option"
)

// applySocketOptions sets every configured socket-level option on the raw
// socket before it is connected or bound.
func applySocketOptions(network string, rc rawConn, options option.Map) error {
	var optErr error
	ctrlErr := rc.Control(func(fd uintptr) {
		s := int(fd)
		if v, ok := option.GetOK(options, option.KeepAlive); ok {
			optErr = firstErr(optErr, unix.SetsockoptInt(s, unix.SOL_SOCKET, unix.SO_KEEPALIVE, boolToInt(v)))
		}
		if v, ok := option.GetOK(options, option.TCPNoDelay); ok && isTCP(network) {
			optErr = firstErr(optErr, unix.SetsockoptInt(s, unix.IPPROTO_TCP, unix.TCP_NODELAY, boolToInt(v)))
		}
		if v, ok := option.GetOK(options, option.Linger); ok {
			l := unix.Linger{}
			if v >= 0 {
				l.Onoff = 1
				l.Linger = int32(v)
			}
			optErr = firstErr(optErr, unix.SetsockoptLinger(s, unix.SOL_SOCKET, unix.SO_LINGER, &l))
		}
		if v, ok := option.GetOK(options, option.ReceiveBufferSize); ok {
			optErr = firstErr(optErr, unix.SetsockoptInt(s, unix.SOL_SOCKET, unix.SO_RCVBUF, v))
		}
		if v, ok := option.GetOK(options, option.SendBufferSize); ok {
			optErr = firstErr(optErr, unix.SetsockoptInt(s, unix.SOL_SOCKET, unix.SO_SNDBUF, v))
		}
		if v, ok := option.GetOK(options, option.ReuseAddress); ok {
			optErr = firstErr(optErr, unix.SetsockoptInt(s, unix.SOL_SOCKET, unix.SO_REUSEADDR, boolToInt(v)))
		}
		if v, ok := option.GetOK(options, option.Broadcast); ok {
			optErr = firstErr(optErr, unix.SetsockoptInt(s, unix.SOL_SOCKET, unix.SO_BROADCAST, boolToInt(v)))
		}
		if v, ok := option.GetOK(options, option.MulticastTTL); ok && isUDP(network) {
			optErr = firstErr(optErr, unix.SetsockoptInt(s, unix.IPPROTO_IP, unix.IP_MULTICAST_TTL, v))
		}
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return optErr
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func firstErr(a, b error) error {
	if a != nil {
		return a
	}
	return b
}

func isTCP(network string) bool {
	return len(network) >= 3 && network[:3] == "tcp"
}

func isUDP(network string) bool {
	return len(network) >= 3 && network[:3] == "udp"
}
