package buffers_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rohankumardubey/xnio-core/buffers"
)

func TestSliceAdvancesPastView(t *testing.T) {
	buf := buffers.Wrap([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	view, err := buffers.Slice(buf, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(view.Bytes(), []byte{0, 1, 2, 3}) {
		t.Errorf("view = %v", view.Bytes())
	}
	if buf.Position() != 4 {
		t.Errorf("source position = %d, want 4", buf.Position())
	}
}

func TestSliceNegativeCountsFromEnd(t *testing.T) {
	buf := buffers.Wrap([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	buf.SetPosition(2)
	view, err := buffers.Slice(buf, -3)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(view.Bytes(), []byte{7, 8, 9}) {
		t.Errorf("view = %v, want bytes at positions 7..10", view.Bytes())
	}
	if buf.Position() != 7 {
		t.Errorf("source position = %d, want 7", buf.Position())
	}
	if buf.Limit() != 10 {
		t.Errorf("source limit = %d, want 10", buf.Limit())
	}
}

func TestSliceUnderflowLeavesBufferUntouched(t *testing.T) {
	buf := buffers.Wrap([]byte{1, 2, 3})
	buf.SetPosition(1)
	if _, err := buffers.Slice(buf, 5); err != buffers.ErrUnderflow {
		t.Fatalf("err = %v, want ErrUnderflow", err)
	}
	if buf.Position() != 1 || buf.Limit() != 3 {
		t.Errorf("buffer changed: pos=%d lim=%d", buf.Position(), buf.Limit())
	}
	if _, err := buffers.Slice(buf, -5); err != buffers.ErrUnderflow {
		t.Fatalf("err = %v, want ErrUnderflow", err)
	}
}

func TestPositionRemainingInvariant(t *testing.T) {
	buf := buffers.New(32)
	_ = buf.PutBytes([]byte("hello"))
	buf.Flip()
	if buf.Position()+buf.Remaining() != buf.Limit() {
		t.Fatal("position + remaining != limit")
	}
	if err := buffers.Skip(buf, 2); err != nil {
		t.Fatal(err)
	}
	if buf.Position()+buf.Remaining() != buf.Limit() {
		t.Fatal("invariant broken after skip")
	}
	if err := buffers.Unget(buf, 2); err != nil {
		t.Fatal(err)
	}
	if buf.Position() != 0 {
		t.Errorf("position = %d after unget", buf.Position())
	}
}

func TestFillAndTake(t *testing.T) {
	buf := buffers.New(8)
	if err := buffers.Fill(buf, 0xAB, 8); err != nil {
		t.Fatal(err)
	}
	buf.Flip()
	got, err := buffers.Take(buf, 8)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range got {
		if b != 0xAB {
			t.Fatalf("take = %v", got)
		}
	}
	if err := buffers.Fill(buf, 0, 1); err != buffers.ErrOverflow {
		t.Errorf("fill past limit err = %v", err)
	}
}

func TestPutIntoScatters(t *testing.T) {
	src := buffers.Wrap([]byte("abcdefgh"))
	d1 := buffers.New(3)
	d2 := buffers.New(3)
	d3 := buffers.New(10)
	moved := buffers.PutInto([]*buffers.Buffer{d1, d2, d3}, 0, 3, src)
	if moved != 8 {
		t.Fatalf("moved = %d, want 8", moved)
	}
	if string(d1.Flip().Bytes()) != "abc" || string(d2.Flip().Bytes()) != "def" || string(d3.Flip().Bytes()) != "gh" {
		t.Error("scatter content wrong")
	}
	if src.HasRemaining() {
		t.Error("source not fully consumed")
	}
}

func TestModifiedUTF8RoundTrip(t *testing.T) {
	var sb strings.Builder
	for r := rune(1); r <= 0xFFFF; r++ {
		if r >= 0xD800 && r <= 0xDFFF {
			continue
		}
		sb.WriteRune(r)
	}
	s := sb.String()
	buf := buffers.New(3 * 0xFFFF)
	if err := buffers.PutModifiedUTF8(buf, s); err != nil {
		t.Fatal(err)
	}
	buf.Flip()
	got, err := buffers.GetModifiedUTF8(buf, '?')
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Fatal("round trip mismatch")
	}
}

func TestModifiedUTF8ZTerminatesOnNul(t *testing.T) {
	buf := buffers.New(16)
	_ = buffers.PutModifiedUTF8(buf, "hi")
	_ = buf.Put(0)
	_ = buffers.PutModifiedUTF8(buf, "rest")
	buf.Flip()
	got, err := buffers.GetModifiedUTF8Z(buf, '?')
	if err != nil {
		t.Fatal(err)
	}
	if got != "hi" {
		t.Errorf("got %q", got)
	}
}

func TestReadModifiedUTF8ZResumesAcrossSplit(t *testing.T) {
	full := buffers.New(16)
	_ = buffers.PutModifiedUTF8(full, "aéb") // 0x61 0xC3 0xA9 0x62
	_ = full.Put(0)
	full.Flip()
	raw := full.Bytes()

	// Split inside the two-byte sequence.
	var sb strings.Builder
	first := buffers.Wrap(raw[:2])
	if buffers.ReadModifiedUTF8Z(first, &sb, '?') {
		t.Fatal("decoder claimed completion on partial input")
	}
	// The incomplete lead byte must be un-read.
	if first.Position() != 1 {
		t.Fatalf("position = %d, want 1 (lead byte un-read)", first.Position())
	}
	rest := buffers.Wrap(raw[1:])
	if !buffers.ReadModifiedUTF8Z(rest, &sb, '?') {
		t.Fatal("decoder did not finish on full input")
	}
	if sb.String() != "aéb" {
		t.Errorf("decoded %q", sb.String())
	}
}

func TestReadASCIIZAndLines(t *testing.T) {
	var sb strings.Builder
	buf := buffers.Wrap([]byte("abc\x00tail"))
	if !buffers.ReadASCIIZ(buf, &sb, '?') {
		t.Fatal("terminator not found")
	}
	if sb.String() != "abc" {
		t.Errorf("got %q", sb.String())
	}

	sb.Reset()
	line := buffers.Wrap([]byte("one\ntwo"))
	if !buffers.ReadASCIILine(line, &sb, '?', '\n') {
		t.Fatal("delimiter not found")
	}
	if sb.String() != "one\n" {
		t.Errorf("got %q", sb.String())
	}
	sb.Reset()
	if buffers.ReadASCIILine(line, &sb, '?', '\n') {
		t.Error("found delimiter in remainder")
	}

	sb.Reset()
	latin := buffers.Wrap([]byte{0xE9, 0x00})
	if !buffers.ReadLatin1Z(latin, &sb) {
		t.Fatal("terminator not found")
	}
	if sb.String() != "é" {
		t.Errorf("got %q", sb.String())
	}
}

func TestReadLineGenericDecoder(t *testing.T) {
	ascii := func(p []byte) (rune, int, bool) {
		if len(p) == 0 {
			return 0, 0, false
		}
		return rune(p[0]), 1, true
	}
	var sb strings.Builder
	buf := buffers.Wrap([]byte("ok\nmore"))
	if !buffers.ReadLine(buf, &sb, ascii, '\n') {
		t.Fatal("delimiter not found")
	}
	if sb.String() != "ok\n" {
		t.Errorf("got %q", sb.String())
	}
}

func TestReadOnlyViewRejectsMutation(t *testing.T) {
	buf := buffers.Wrap([]byte("data"))
	ro := buf.AsReadOnly()
	if err := ro.Put('x'); err != buffers.ErrReadOnly {
		t.Errorf("err = %v, want ErrReadOnly", err)
	}
	if !ro.IsReadOnly() {
		t.Error("view not read-only")
	}
}

func TestDumpRendersRows(t *testing.T) {
	buf := buffers.Wrap([]byte("hello world, hex dump test"))
	var out strings.Builder
	if err := buffers.Dump(buf, &out, 2, 16); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "68 65 6c 6c 6f") {
		t.Errorf("dump missing hex row:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "|hello world, hex") {
		t.Errorf("dump missing text row:\n%s", out.String())
	}
	if buf.Position() != 0 {
		t.Error("dump moved the position")
	}
}
