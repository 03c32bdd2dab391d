// File: buffers/dump.go
// Package buffers
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Hex dump rendering for diagnostics. Dumper defers the rendering until the
// value is actually formatted, so it can sit in a log call without cost.

package buffers

import (
	"fmt"
	"io"
	"strings"
)

// Dump renders the remaining region of buf as a hex/text table to dest.
// indent is the number of leading spaces per row; columns is the number of
// bytes per row. The buffer's position is not changed.
func Dump(buf *Buffer, dest io.Writer, indent, columns int) error {
	if columns <= 0 {
		columns = 16
	}
	for start := buf.pos; start < buf.lim; start += columns {
		var row strings.Builder
		for i := 0; i < indent; i++ {
			row.WriteByte(' ')
		}
		fmt.Fprintf(&row, "%08x  ", start-buf.pos)
		for i := 0; i < columns; i++ {
			if start+i < buf.lim {
				fmt.Fprintf(&row, "%02x ", buf.data[start+i])
			} else {
				row.WriteString("   ")
			}
			if i == columns/2-1 {
				row.WriteByte(' ')
			}
		}
		row.WriteString(" |")
		for i := 0; i < columns && start+i < buf.lim; i++ {
			b := buf.data[start+i]
			if b >= 0x20 && b < 0x7f {
				row.WriteByte(b)
			} else {
				row.WriteByte('.')
			}
		}
		row.WriteString("|\n")
		if _, err := io.WriteString(dest, row.String()); err != nil {
			return err
		}
	}
	return nil
}

// Dumper returns a value whose String method renders buf via Dump.
func Dumper(buf *Buffer, indent, columns int) fmt.Stringer {
	return dumper{buf: buf, indent: indent, columns: columns}
}

type dumper struct {
	buf     *Buffer
	indent  int
	columns int
}

func (d dumper) String() string {
	var sb strings.Builder
	if err := Dump(d.buf, &sb, d.indent, d.columns); err != nil {
		return fmt.Sprintf("dump failed: %v", err)
	}
	return sb.String()
}
