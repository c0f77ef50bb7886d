package c64x

import (
	"encoding/binary"
	"errors"
	"testing"
)

// codeRange assembles raw words into a little-endian byte range.
func codeRange(words ...uint32) []byte {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

// fetchPacket pads words with NOPs up to a full 8-word fetch packet.
func fetchPacket(words ...uint32) []uint32 {
	for len(words) < FetchPacketWords {
		words = append(words, 0)
	}
	return words[:FetchPacketWords]
}

func collectPackets(t *testing.T, seq *PacketSeq) []*ExecutePacket {
	t.Helper()
	var out []*ExecutePacket
	for {
		pkt, ok := seq.Next()
		if !ok {
			return out
		}
		out = append(out, pkt)
	}
}

func TestScanRejectsMisalignedRange(t *testing.T) {
	for _, n := range []int{1, 4, 31, 33, 60} {
		_, err := ScanPackets(make([]byte, n))
		var ae *AlignmentError
		if !errors.As(err, &ae) {
			t.Errorf("ScanPackets(%d bytes) error = %v, want *AlignmentError", n, err)
			continue
		}
		if ae.Length != n {
			t.Errorf("AlignmentError.Length = %d, want %d", ae.Length, n)
		}
	}
}

func TestAllSerialWordsYieldSingletonPackets(t *testing.T) {
	// Two fetch packets, every p-bit clear: 16 one-instruction execute
	// packets.
	seq, err := ScanPackets(make([]byte, 2*FetchPacketBytes))
	if err != nil {
		t.Fatalf("ScanPackets error = %v", err)
	}

	pkts := collectPackets(t, seq)
	if len(pkts) != 16 {
		t.Fatalf("got %d execute packets, want 16", len(pkts))
	}
	for i, pkt := range pkts {
		if pkt.ID != i {
			t.Errorf("packet %d has ID %d", i, pkt.ID)
		}
		if len(pkt.Words) != 1 {
			t.Errorf("packet %d has %d words, want 1", i, len(pkt.Words))
		}
		if want := uint32(i * 4); pkt.Offset != want {
			t.Errorf("packet %d offset = 0x%x, want 0x%x", i, pkt.Offset, want)
		}
		if pkt.Issue != nil {
			t.Errorf("packet %d has unexpected issue %v", i, pkt.Issue)
		}
	}
}

func TestPBitChainGroupsPacket(t *testing.T) {
	// Words 1-4 chained (p set on 1, 2, 3; clear on 4), words 5-8
	// independent: one 4-wide packet then four singletons.
	code := codeRange(fetchPacket(1, 1, 1, 0, 0, 0, 0, 0)...)
	seq, err := ScanPackets(code)
	if err != nil {
		t.Fatalf("ScanPackets error = %v", err)
	}

	pkts := collectPackets(t, seq)
	widths := make([]int, len(pkts))
	for i, pkt := range pkts {
		widths[i] = len(pkt.Words)
	}
	want := []int{4, 1, 1, 1, 1}
	if len(widths) != len(want) {
		t.Fatalf("packet widths = %v, want %v", widths, want)
	}
	for i := range want {
		if widths[i] != want[i] {
			t.Fatalf("packet widths = %v, want %v", widths, want)
		}
	}
	if pkts[1].Offset != 16 {
		t.Errorf("second packet offset = 0x%x, want 0x10", pkts[1].Offset)
	}
}

func TestFetchPacketBoundaryCutsChain(t *testing.T) {
	// The last word of the first fetch packet carries p=1; the chain must
	// be cut at the boundary and the violation recorded, never allowed to
	// bleed into the next fetch packet.
	words := append(fetchPacket(0, 0, 0, 0, 0, 0, 0, 1), fetchPacket()...)
	seq, err := ScanPackets(codeRange(words...))
	if err != nil {
		t.Fatalf("ScanPackets error = %v", err)
	}

	pkts := collectPackets(t, seq)
	if len(pkts) != 16 {
		t.Fatalf("got %d packets, want 16", len(pkts))
	}

	violator := pkts[7]
	if len(violator.Words) != 1 {
		t.Errorf("packet at boundary has %d words, want 1", len(violator.Words))
	}
	if violator.Issue == nil {
		t.Fatal("packet at boundary has no issue, want a PacketError")
	}
	if violator.Issue.Offset != 28 {
		t.Errorf("issue offset = 0x%x, want 0x1c", violator.Issue.Offset)
	}
	if !IsIllegalPacket(violator.Issue) {
		t.Errorf("IsIllegalPacket(%v) = false, want true", violator.Issue)
	}

	// The next packet starts exactly at the second fetch packet.
	if pkts[8].Offset != FetchPacketBytes {
		t.Errorf("packet after boundary starts at 0x%x, want 0x20", pkts[8].Offset)
	}
}

func TestScanIsRestartable(t *testing.T) {
	code := codeRange(fetchPacket(1, 0, 1, 1, 0, 0, 0, 0)...)
	seq, err := ScanPackets(code)
	if err != nil {
		t.Fatalf("ScanPackets error = %v", err)
	}

	first := collectPackets(t, seq)
	seq.Reset()
	second := collectPackets(t, seq)

	if len(first) != len(second) {
		t.Fatalf("first scan %d packets, second %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Offset != second[i].Offset ||
			len(first[i].Words) != len(second[i].Words) {
			t.Errorf("packet %d differs across scans: %+v vs %+v", i, first[i], second[i])
		}
	}
}
