// File: api/errors.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Common error types and error handling utilities shared across the library.

package api

import (
	"errors"
	"fmt"

	"github.com/rohankumardubey/xnio-core/buffers"
)

// Common errors used across the library.
var (
	// ErrBufferUnderflow aliases the buffers package sentinel so callers can
	// match either name.
	ErrBufferUnderflow = buffers.ErrUnderflow

	// ErrBufferOverflow aliases the buffers package sentinel.
	ErrBufferOverflow = buffers.ErrOverflow

	// ErrClosedChannel indicates an operation on a closed or write-shutdown channel.
	ErrClosedChannel = errors.New("channel is closed")

	// ErrCancelled indicates the operation's future was cancelled.
	ErrCancelled = errors.New("operation was cancelled")

	// ErrReadTimeout indicates a blocking read exceeded its timeout.
	ErrReadTimeout = errors.New("read timed out")

	// ErrWriteTimeout indicates a blocking write or flush exceeded its timeout.
	ErrWriteTimeout = errors.New("write timed out")

	// ErrUnsupportedOption indicates an option unknown to, or inapplicable on,
	// the target.
	ErrUnsupportedOption = errors.New("unsupported option")

	// ErrOversizedMessage indicates a message exceeding the configured
	// outbound maximum.
	ErrOversizedMessage = errors.New("oversized message")

	// ErrFraming indicates a violation of the length-framed wire format.
	ErrFraming = errors.New("framing error")

	// ErrInterrupted indicates a blocking wait was interrupted by context
	// cancellation.
	ErrInterrupted = errors.New("operation interrupted")

	// ErrExecutorRejected indicates an executor refused a submitted task.
	ErrExecutorRejected = errors.New("task rejected by executor")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeBufferUnderflow
	ErrCodeBufferOverflow
	ErrCodeClosed
	ErrCodeCancelled
	ErrCodeReadTimeout
	ErrCodeWriteTimeout
	ErrCodeUnsupportedOption
	ErrCodeOversizedMessage
	ErrCodeFraming
	ErrCodeInterrupted
	ErrCodeInternal
)

// Error represents a structured error with code and cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

// Unwrap exposes the cause for errors.Is/As matching.
func (e *Error) Unwrap() error { return e.Cause }

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause attaches a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}
