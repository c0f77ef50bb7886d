package render

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/mtckit/mtckit/internal/c64x"
)

func disasm(t *testing.T, words []uint32, base uint32) *c64x.Listing {
	t.Helper()
	code := make([]byte, 32)
	for i, w := range words {
		binary.LittleEndian.PutUint32(code[i*4:], w)
	}
	l, err := c64x.Disassemble(code, base, c64x.Options{})
	if err != nil {
		t.Fatalf("Disassemble error = %v", err)
	}
	return l
}

func TestListingPlainOutput(t *testing.T) {
	// ADD .L1 A1,A2,A3 chained with MVK 7,B4, then NOP padding.
	words := []uint32{
		3<<23 | 2<<18 | 1<<13 | 0x03<<5 | 0x6<<2 | 1, // p-bit set
		4<<23 | 7<<7 | 0xA<<2 | 1<<1,
	}
	l := disasm(t, words, 0x800000)

	var buf bytes.Buffer
	NewPlain(&buf).Listing(l)
	out := buf.String()

	if !strings.Contains(out, "ADD .L1  A1,A2,A3") {
		t.Errorf("output missing ADD line:\n%s", out)
	}
	if !strings.Contains(out, "|| ") {
		t.Errorf("output missing parallel bar for the chained MVK:\n%s", out)
	}
	if !strings.Contains(out, "00800000") {
		t.Errorf("output missing base-relative address:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("plain renderer emitted ANSI escape sequences")
	}
}

func TestListingReportsIssues(t *testing.T) {
	// An unassigned .L opcode lands in the issue trailer, and the word
	// itself renders as data.
	l := disasm(t, []uint32{0x6 << 2}, 0)

	var buf bytes.Buffer
	NewPlain(&buf).Listing(l)
	out := buf.String()

	if !strings.Contains(out, ".word 0x00000018") {
		t.Errorf("undecoded word not rendered as data:\n%s", out)
	}
	if !strings.Contains(out, "decode issue") {
		t.Errorf("issue trailer missing:\n%s", out)
	}
}

func TestHexDump(t *testing.T) {
	data := append([]byte("MTCH"), make([]byte, 14)...)

	var buf bytes.Buffer
	NewPlain(&buf).HexDump(data, 0x100)
	out := buf.String()

	if !strings.Contains(out, "00000100") {
		t.Errorf("dump missing base offset:\n%s", out)
	}
	if !strings.Contains(out, "4d 54 43 48") {
		t.Errorf("dump missing hex bytes:\n%s", out)
	}
	if !strings.Contains(out, "|MTCH") {
		t.Errorf("dump missing ASCII column:\n%s", out)
	}
	if lines := strings.Count(out, "\n"); lines != 2 {
		t.Errorf("18 bytes dumped as %d rows, want 2", lines)
	}
}

func TestListingLines(t *testing.T) {
	l := disasm(t, []uint32{0}, 0x40)
	lines := ListingLines(l)
	if len(lines) != 8 {
		t.Fatalf("got %d lines, want 8", len(lines))
	}
	if !strings.Contains(lines[0], "NOP") {
		t.Errorf("first line = %q, want a NOP", lines[0])
	}
}
