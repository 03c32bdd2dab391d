// File: transport/sockopt.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import "syscall"

// rawConn aliases the control-function connection type used by net.Dialer
// and net.ListenConfig.
type rawConn = syscall.RawConn
