// File: channels/helpers.go
// Package channels
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Blocking convenience calls over readiness channels. ReadBlockingFor and
// ReceiveBlockingFor make a single bounded wait and one retry;
// WriteBlockingFor and SendBlockingFor keep retrying until a deadline of
// timeout from the call. BlockingByteChannel applies a hard deadline to reads
// as well.

package channels

import (
	"time"

	"github.com/rohankumardubey/xnio-core/api"
	"github.com/rohankumardubey/xnio-core/buffers"
)

// FlushBlocking loops the channel's flush until everything is pushed out.
func FlushBlocking(channel api.SuspendableWriteChannel) error {
	for {
		done, err := channel.Flush()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if err := channel.AwaitWritable(); err != nil {
			return err
		}
	}
}

// ShutdownWritesBlocking loops shutdown until the write side is closed.
func ShutdownWritesBlocking(channel api.SuspendableWriteChannel) error {
	for {
		done, err := channel.ShutdownWrites()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if err := channel.AwaitWritable(); err != nil {
			return err
		}
	}
}

// ReadBlocking blocks until at least one byte is read or end-of-input.
func ReadBlocking(channel api.StreamSourceChannel, dst *buffers.Buffer) (int, error) {
	for {
		res, err := channel.Read(dst)
		if err != nil || res != 0 || !dst.HasRemaining() {
			return res, err
		}
		if err := channel.AwaitReadable(); err != nil {
			return 0, err
		}
	}
}

// ReadBlockingFor attempts a read, waits up to timeout for readability, then
// retries once. A zero result after the retry means the wait expired.
func ReadBlockingFor(channel api.StreamSourceChannel, dst *buffers.Buffer, timeout time.Duration) (int, error) {
	res, err := channel.Read(dst)
	if err != nil || res != 0 || !dst.HasRemaining() {
		return res, err
	}
	if err := channel.AwaitReadableFor(timeout); err != nil {
		return 0, err
	}
	return channel.Read(dst)
}

// WriteBlocking blocks until all of src is accepted.
func WriteBlocking(channel api.StreamSinkChannel, src *buffers.Buffer) (int, error) {
	total := 0
	for src.HasRemaining() {
		res, err := channel.Write(src)
		if err != nil {
			return total, err
		}
		if res == 0 {
			if err := channel.AwaitWritable(); err != nil {
				return total, err
			}
			continue
		}
		total += res
	}
	return total, nil
}

// WriteBlockingFor writes as much of src as the channel accepts within
// timeout, returning the count moved.
func WriteBlockingFor(channel api.StreamSinkChannel, src *buffers.Buffer, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	total := 0
	for src.HasRemaining() {
		res, err := channel.Write(src)
		if err != nil {
			return total, err
		}
		if res != 0 {
			total += res
			continue
		}
		now := time.Now()
		if !now.Before(deadline) {
			return total, nil
		}
		if err := channel.AwaitWritableFor(deadline.Sub(now)); err != nil {
			return total, err
		}
	}
	return total, nil
}

// SendBlocking blocks until the message is accepted.
func SendBlocking(channel api.WritableMessageChannel, src *buffers.Buffer) error {
	for {
		ok, err := channel.Send(src)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if err := channel.AwaitWritable(); err != nil {
			return err
		}
	}
}

// SendBlockingFor attempts the send within timeout, reporting acceptance.
func SendBlockingFor(channel api.WritableMessageChannel, src *buffers.Buffer, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := channel.Send(src)
		if err != nil || ok {
			return ok, err
		}
		now := time.Now()
		if !now.Before(deadline) {
			return false, nil
		}
		if err := channel.AwaitWritableFor(deadline.Sub(now)); err != nil {
			return false, err
		}
	}
}

// ReceiveBlocking blocks until one message arrives or end-of-input.
func ReceiveBlocking(channel api.ReadableMessageChannel, dst *buffers.Buffer) (int, error) {
	for {
		res, err := channel.Receive(dst)
		if err != nil || res != 0 {
			return res, err
		}
		if err := channel.AwaitReadable(); err != nil {
			return 0, err
		}
	}
}

// ReceiveBlockingFor attempts a receive, waits up to timeout, then retries
// once.
func ReceiveBlockingFor(channel api.ReadableMessageChannel, dst *buffers.Buffer, timeout time.Duration) (int, error) {
	res, err := channel.Receive(dst)
	if err != nil || res != 0 {
		return res, err
	}
	if err := channel.AwaitReadableFor(timeout); err != nil {
		return 0, err
	}
	return channel.Receive(dst)
}
