// File: buffers/helpers.go
// Package buffers
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Slice, fill, skip/unget and scatter/gather transfer helpers. Every helper
// leaves the source buffer untouched when it fails.

package buffers

// Slice carves a view of n bytes out of buf and advances buf past it.
//
// A negative n counts from the end: the view covers the last |n| remaining
// bytes and buf's position moves to the start of that tail region. Fails with
// ErrUnderflow, changing nothing, when |n| exceeds the remaining bytes.
func Slice(buf *Buffer, n int) (*Buffer, error) {
	rem := buf.Remaining()
	if n > rem || n < -rem {
		return nil, ErrUnderflow
	}
	if n < 0 {
		start := buf.lim + n
		view := &Buffer{data: buf.data[start:buf.lim], lim: -n, mark: -1, readOnly: buf.readOnly}
		buf.pos = start
		return view, nil
	}
	view := &Buffer{data: buf.data[buf.pos : buf.pos+n], lim: n, mark: -1, readOnly: buf.readOnly}
	buf.pos += n
	return view, nil
}

// Fill writes n copies of v into buf, advancing the position.
func Fill(buf *Buffer, v byte, n int) error {
	if buf.readOnly {
		return ErrReadOnly
	}
	if n > buf.Remaining() {
		return ErrOverflow
	}
	for i := 0; i < n; i++ {
		buf.data[buf.pos+i] = v
	}
	buf.pos += n
	return nil
}

// Skip moves the position forward by n bytes.
func Skip(buf *Buffer, n int) error {
	if n < 0 || n > buf.Remaining() {
		return ErrUnderflow
	}
	buf.pos += n
	return nil
}

// Unget moves the position backward by n bytes, re-exposing consumed data.
func Unget(buf *Buffer, n int) error {
	if n < 0 || n > buf.pos {
		return ErrUnderflow
	}
	buf.pos -= n
	return nil
}

// Take consumes n bytes and returns them as a fresh slice.
func Take(buf *Buffer, n int) ([]byte, error) {
	if n > buf.Remaining() {
		return nil, ErrUnderflow
	}
	out := make([]byte, n)
	copy(out, buf.data[buf.pos:])
	buf.pos += n
	return out, nil
}

// Remaining sums the remaining byte counts of bufs[offs : offs+length].
func Remaining(bufs []*Buffer, offs, length int) int64 {
	var t int64
	for i := offs; i < offs+length; i++ {
		t += int64(bufs[i].Remaining())
	}
	return t
}

// HasRemaining reports whether any buffer in bufs[offs : offs+length] has
// bytes left.
func HasRemaining(bufs []*Buffer, offs, length int) bool {
	for i := offs; i < offs+length; i++ {
		if bufs[i].HasRemaining() {
			return true
		}
	}
	return false
}

// PutInto scatters as much of src as fits across dsts[offs : offs+length],
// returning the total number of bytes moved.
func PutInto(dsts []*Buffer, offs, length int, src *Buffer) int64 {
	var t int64
	for i := offs; i < offs+length && src.HasRemaining(); i++ {
		dst := dsts[i]
		if dst.readOnly {
			continue
		}
		n := dst.Remaining()
		if r := src.Remaining(); r < n {
			n = r
		}
		copy(dst.data[dst.pos:], src.data[src.pos:src.pos+n])
		dst.pos += n
		src.pos += n
		t += int64(n)
	}
	return t
}
