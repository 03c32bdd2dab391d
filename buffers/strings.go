// File: buffers/strings.go
// Package buffers
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Incremental string decoders over byte buffers. Each Read* decoder returns
// false when the source exhausts before the terminator, leaving the buffer
// positioned so the call can be repeated once more data arrives. A multi-byte
// sequence straddling the buffer end is un-read so the next call sees it from
// its lead byte.
//
// The modified UTF-8 form is the classical 1/2/3-byte encoding: U+0001..U+007F
// as one byte, U+0000 and U+0080..U+07FF as two, U+0800..U+FFFF as three.
// Four-byte forms are never produced; surrogate halves travel as two separate
// 3-byte sequences.

package buffers

import "strings"

// PutModifiedUTF8 encodes s into dst using the modified UTF-8 form.
// Fails with ErrOverflow when dst cannot hold the full encoding; dst may
// contain a partial prefix in that case.
func PutModifiedUTF8(dst *Buffer, s string) error {
	for _, c := range encodeUnits(s) {
		switch {
		case c > 0 && c <= 0x7f:
			if err := dst.Put(byte(c)); err != nil {
				return err
			}
		case c <= 0x07ff:
			if err := dst.Put(byte(0xc0 | 0x1f&(c>>6))); err != nil {
				return err
			}
			if err := dst.Put(byte(0x80 | 0x3f&c)); err != nil {
				return err
			}
		default:
			if err := dst.Put(byte(0xe0 | 0x0f&(c>>12))); err != nil {
				return err
			}
			if err := dst.Put(byte(0x80 | 0x3f&(c>>6))); err != nil {
				return err
			}
			if err := dst.Put(byte(0x80 | 0x3f&c)); err != nil {
				return err
			}
		}
	}
	return nil
}

// encodeUnits expands s into UTF-16 code units, the unit the modified form
// encodes. Supplementary planes become surrogate pairs.
func encodeUnits(s string) []uint16 {
	units := make([]uint16, 0, len(s))
	for _, r := range s {
		if r > 0xffff {
			r -= 0x10000
			units = append(units, uint16(0xd800+(r>>10)), uint16(0xdc00+(r&0x3ff)))
		} else {
			units = append(units, uint16(r))
		}
	}
	return units
}

// GetModifiedUTF8Z decodes a NUL-terminated modified UTF-8 string, consuming
// the terminator. Fails with ErrUnderflow when the terminator is missing.
func GetModifiedUTF8Z(src *Buffer, replacement rune) (string, error) {
	var sb strings.Builder
	for {
		ch, err := getUTFChar(src, replacement)
		if err != nil {
			return "", err
		}
		if ch == -1 {
			return sb.String(), nil
		}
		sb.WriteRune(rune(ch))
	}
}

// GetModifiedUTF8 decodes the full remaining region as modified UTF-8.
// Embedded NUL bytes decode to U+0000.
func GetModifiedUTF8(src *Buffer, replacement rune) (string, error) {
	var sb strings.Builder
	for src.HasRemaining() {
		ch, err := getUTFChar(src, replacement)
		if err != nil {
			return "", err
		}
		if ch == -1 {
			sb.WriteByte(0)
		} else {
			sb.WriteRune(rune(ch))
		}
	}
	return sb.String(), nil
}

// getUTFChar consumes one modified UTF-8 sequence. Returns -1 for a NUL lead
// byte, the replacement for malformed sequences, ErrUnderflow when src runs
// out mid-sequence.
func getUTFChar(src *Buffer, replacement rune) (int, error) {
	a, err := src.Get()
	if err != nil {
		return 0, err
	}
	switch {
	case a == 0:
		return -1, nil
	case a < 0x80:
		return int(a), nil
	case a < 0xc0:
		return int(replacement), nil
	case a < 0xe0:
		b, err := src.Get()
		if err != nil {
			return 0, err
		}
		if b&0xc0 != 0x80 {
			return int(replacement), nil
		}
		return int(a&0x1f)<<6 | int(b&0x3f), nil
	case a < 0xf0:
		b, err := src.Get()
		if err != nil {
			return 0, err
		}
		if b&0xc0 != 0x80 {
			return int(replacement), nil
		}
		c, err := src.Get()
		if err != nil {
			return 0, err
		}
		if c&0xc0 != 0x80 {
			return int(replacement), nil
		}
		return int(a&0x0f)<<12 | int(b&0x3f)<<6 | int(c&0x3f), nil
	}
	return int(replacement), nil
}

// ReadASCIIZ appends ASCII characters to sb until a NUL terminator.
// Returns false when src exhausts first; the call may be repeated.
// Bytes above 0x7f append the replacement.
func ReadASCIIZ(src *Buffer, sb *strings.Builder, replacement rune) bool {
	for {
		if !src.HasRemaining() {
			return false
		}
		b, _ := src.Get()
		if b == 0 {
			return true
		}
		if b > 0x7f {
			sb.WriteRune(replacement)
		} else {
			sb.WriteByte(b)
		}
	}
}

// ReadASCIILine appends ASCII characters to sb up to and including delimiter.
// Returns false when src exhausts before the delimiter.
func ReadASCIILine(src *Buffer, sb *strings.Builder, replacement rune, delimiter byte) bool {
	for {
		if !src.HasRemaining() {
			return false
		}
		b, _ := src.Get()
		if b > 0x7f {
			sb.WriteRune(replacement)
		} else {
			sb.WriteByte(b)
		}
		if b == delimiter {
			return true
		}
	}
}

// ReadASCII appends all remaining bytes as ASCII, substituting replacement
// for bytes above 0x7f.
func ReadASCII(src *Buffer, sb *strings.Builder, replacement rune) {
	for src.HasRemaining() {
		b, _ := src.Get()
		if b > 0x7f {
			sb.WriteRune(replacement)
		} else {
			sb.WriteByte(b)
		}
	}
}

// ReadASCIILimit appends at most limit bytes as ASCII.
func ReadASCIILimit(src *Buffer, sb *strings.Builder, limit int, replacement rune) {
	for limit > 0 && src.HasRemaining() {
		b, _ := src.Get()
		if b > 0x7f {
			sb.WriteRune(replacement)
		} else {
			sb.WriteByte(b)
		}
		limit--
	}
}

// ReadLatin1Z appends Latin-1 characters to sb until a NUL terminator.
// Returns false when src exhausts first.
func ReadLatin1Z(src *Buffer, sb *strings.Builder) bool {
	for {
		if !src.HasRemaining() {
			return false
		}
		b, _ := src.Get()
		if b == 0 {
			return true
		}
		sb.WriteRune(rune(b))
	}
}

// ReadLatin1Line appends Latin-1 characters to sb up to and including
// delimiter. Returns false when src exhausts before the delimiter.
func ReadLatin1Line(src *Buffer, sb *strings.Builder, delimiter byte) bool {
	for {
		if !src.HasRemaining() {
			return false
		}
		b, _ := src.Get()
		sb.WriteRune(rune(b))
		if b == delimiter {
			return true
		}
	}
}

// ReadLatin1 appends all remaining bytes as Latin-1 characters.
func ReadLatin1(src *Buffer, sb *strings.Builder) {
	for src.HasRemaining() {
		b, _ := src.Get()
		sb.WriteRune(rune(b))
	}
}

// ReadModifiedUTF8Z appends modified UTF-8 characters to sb until a NUL
// terminator. Returns false when src exhausts first; an incomplete trailing
// sequence is un-read so decoding resumes at its lead byte.
func ReadModifiedUTF8Z(src *Buffer, sb *strings.Builder, replacement rune) bool {
	for {
		ch, ok := readUTFCharResumable(src, replacement)
		if !ok {
			return false
		}
		if ch == -1 {
			return true
		}
		sb.WriteRune(rune(ch))
	}
}

// ReadModifiedUTF8Line appends modified UTF-8 characters to sb up to and
// including delimiter. Returns false when src exhausts before the delimiter,
// un-reading any incomplete trailing sequence.
func ReadModifiedUTF8Line(src *Buffer, sb *strings.Builder, replacement rune, delimiter rune) bool {
	for {
		ch, ok := readUTFCharResumable(src, replacement)
		if !ok {
			return false
		}
		if ch == -1 {
			sb.WriteByte(0)
			continue
		}
		sb.WriteRune(rune(ch))
		if rune(ch) == delimiter {
			return true
		}
	}
}

// readUTFCharResumable consumes one sequence, un-reading it when src exhausts
// mid-sequence. Returns (-1, true) for a NUL lead byte, (replacement, true)
// for malformed input, (_, false) when more data is needed.
func readUTFCharResumable(src *Buffer, replacement rune) (int, bool) {
	if !src.HasRemaining() {
		return 0, false
	}
	a, _ := src.Get()
	switch {
	case a == 0:
		return -1, true
	case a < 0x80:
		return int(a), true
	case a < 0xc0:
		return int(replacement), true
	case a < 0xe0:
		if !src.HasRemaining() {
			_ = Unget(src, 1)
			return 0, false
		}
		b, _ := src.Get()
		if b&0xc0 != 0x80 {
			return int(replacement), true
		}
		return int(a&0x1f)<<6 | int(b&0x3f), true
	case a < 0xf0:
		if !src.HasRemaining() {
			_ = Unget(src, 1)
			return 0, false
		}
		b, _ := src.Get()
		if b&0xc0 != 0x80 {
			return int(replacement), true
		}
		if !src.HasRemaining() {
			_ = Unget(src, 2)
			return 0, false
		}
		c, _ := src.Get()
		if c&0xc0 != 0x80 {
			return int(replacement), true
		}
		return int(a&0x0f)<<12 | int(b&0x3f)<<6 | int(c&0x3f), true
	}
	return int(replacement), true
}

// CharDecoder decodes one character from the head of p. It returns the
// decoded rune, the number of bytes consumed, and ok=false when p holds an
// incomplete sequence and more input is required.
type CharDecoder func(p []byte) (r rune, size int, ok bool)

// ReadLine appends characters decoded by decoder to sb up to and including
// delimiter. Returns false when src exhausts before the delimiter; an
// incomplete trailing sequence is left un-read.
func ReadLine(src *Buffer, sb *strings.Builder, decoder CharDecoder, delimiter rune) bool {
	for {
		if !src.HasRemaining() {
			return false
		}
		r, size, ok := decoder(src.Bytes())
		if !ok {
			return false
		}
		_ = Skip(src, size)
		sb.WriteRune(r)
		if r == delimiter {
			return true
		}
	}
}
