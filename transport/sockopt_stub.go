// File: transport/sockopt_stub.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket options are applied best-effort; platforms without raw setsockopt
// support accept the configuration silently.

//go:build !linux

package transport

import "github.com/rohankumardubey/xnio-core/option"

func applySocketOptions(string, rawConn, option.Map) error {
	return nil
}
