package c64x

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDisassembleSixteenSerialInstructions(t *testing.T) {
	// 64 bytes, all p-bits clear: 16 single-instruction execute packets,
	// each independently decoded (all NOPs here).
	l, err := Disassemble(make([]byte, 64), 0x1000, Options{})
	if err != nil {
		t.Fatalf("Disassemble error = %v", err)
	}

	if len(l.Instructions) != 16 || l.PacketCount != 16 {
		t.Fatalf("got %d instructions in %d packets, want 16 in 16", len(l.Instructions), l.PacketCount)
	}
	if !l.Clean() {
		t.Errorf("issues = %v, want none", l.Issues)
	}
	for i, in := range l.Instructions {
		if in.Mnemonic != "NOP" || in.Invalid {
			t.Errorf("instruction %d = %s invalid=%v, want NOP", i, in.Mnemonic, in.Invalid)
		}
		if in.Packet != i || in.Slot != 0 {
			t.Errorf("instruction %d placed at packet %d slot %d, want %d/0", i, in.Packet, in.Slot, i)
		}
		if want := uint32(0x1000 + i*4); in.Addr != want {
			t.Errorf("instruction %d addr = 0x%x, want 0x%x", i, in.Addr, want)
		}
	}
}

func TestDisassembleChainedPacket(t *testing.T) {
	// One wide packet (an ADD on each side plus two NOPs is overkill;
	// chain four distinct units) followed by singletons.
	words := fetchPacket(
		lWord(0x03, 1, 2, 3, 0, 0)|1, // ADD .L1  ||
		sWord(0x07, 1, 2, 3, 0, 0)|1, // ADD .S1  ||
		mWord(0x19, 1, 2, 3, 0, 1)|1, // MPY .M2  ||
		lWord(0x03, 1, 2, 3, 0, 1),   // ADD .L2
		0, 0, 0, 0,
	)
	l, err := Disassemble(codeRange(words...), 0, Options{})
	if err != nil {
		t.Fatalf("Disassemble error = %v", err)
	}
	if !l.Clean() {
		t.Fatalf("issues = %v, want none", l.Issues)
	}

	pkts := l.Packets()
	if len(pkts) != 5 {
		t.Fatalf("got %d packets, want 5", len(pkts))
	}
	if len(pkts[0]) != 4 {
		t.Fatalf("first packet has %d instructions, want 4", len(pkts[0]))
	}
	wantUnits := []Unit{UnitL1, UnitS1, UnitM2, UnitL2}
	for i, in := range pkts[0] {
		if in.Unit != wantUnits[i] {
			t.Errorf("slot %d unit = %s, want %s", i, in.Unit, wantUnits[i])
		}
		if in.Slot != i {
			t.Errorf("slot %d recorded as %d", i, in.Slot)
		}
	}
}

func TestDisassembleUnitCollision(t *testing.T) {
	// Two .L1 instructions chained into one packet: flagged, not fatal.
	words := fetchPacket(
		lWord(0x03, 1, 2, 3, 0, 0)|1,
		lWord(0x07, 4, 5, 6, 0, 0),
		0, 0, 0, 0, 0, 0,
	)
	code := codeRange(words...)

	l, err := Disassemble(code, 0, Options{})
	if err != nil {
		t.Fatalf("Disassemble error = %v", err)
	}
	if len(l.Instructions) != 8 {
		t.Errorf("collision dropped instructions: got %d, want 8", len(l.Instructions))
	}

	var found *PacketError
	for _, issue := range l.Issues {
		var pe *PacketError
		if IsIllegalPacket(issue.Err) {
			pe = issue.Err.(*PacketError)
		}
		if pe != nil {
			found = pe
		}
	}
	if found == nil {
		t.Fatalf("issues = %v, want a unit-collision PacketError", l.Issues)
	}
	if found.Unit != UnitL1 {
		t.Errorf("collision unit = %s, want .L1", found.Unit)
	}

	// Strict mode turns the same collision into a hard failure.
	if _, err := Disassemble(code, 0, Options{Strict: true}); !IsIllegalPacket(err) {
		t.Errorf("strict error = %v, want *PacketError", err)
	}
}

func TestDisassembleRandomChainsFlagUnitCollisions(t *testing.T) {
	// Randomly chained fetch packets of valid .L/.S/.M words: every
	// doubly-claimed unit in an execute packet must surface as a
	// PacketError, and nothing else may. Seeded so a failure is
	// reproducible from the logged words.
	rng := rand.New(rand.NewSource(0x6414))

	kinds := []struct {
		build func(s uint32) uint32
		units [2]Unit
	}{
		{func(s uint32) uint32 { return lWord(0x03, 1, 2, 3, 0, s) }, [2]Unit{UnitL1, UnitL2}},
		{func(s uint32) uint32 { return sWord(0x07, 1, 2, 3, 0, s) }, [2]Unit{UnitS1, UnitS2}},
		{func(s uint32) uint32 { return mWord(0x19, 1, 2, 3, 0, s) }, [2]Unit{UnitM1, UnitM2}},
	}

	for trial := 0; trial < 200; trial++ {
		words := make([]uint32, FetchPacketWords)
		units := make([]Unit, FetchPacketWords)
		for i := range words {
			k := kinds[rng.Intn(len(kinds))]
			s := uint32(rng.Intn(2))
			words[i] = k.build(s)
			units[i] = k.units[s]
			// The last word never chains: boundary legality is the
			// scanner's own test, not this one.
			if i < FetchPacketWords-1 && rng.Intn(2) == 1 {
				words[i] |= 1
			}
		}

		// Walk the p-bit chains and predict every collision.
		var wantOffsets []uint32
		var wantUnits []Unit
		claimed := map[Unit]bool{}
		for i := 0; i < FetchPacketWords; i++ {
			if i == 0 || words[i-1]&1 == 0 {
				claimed = map[Unit]bool{}
			}
			if claimed[units[i]] {
				wantOffsets = append(wantOffsets, uint32(i*4))
				wantUnits = append(wantUnits, units[i])
			}
			claimed[units[i]] = true
		}

		l, err := Disassemble(codeRange(words...), 0, Options{})
		if err != nil {
			t.Fatalf("trial %d (words %#x): Disassemble error = %v", trial, words, err)
		}

		var gotOffsets []uint32
		var gotUnits []Unit
		for _, issue := range l.Issues {
			pe, ok := issue.Err.(*PacketError)
			if !ok {
				t.Fatalf("trial %d (words %#x): unexpected issue %v", trial, words, issue.Err)
			}
			gotOffsets = append(gotOffsets, issue.Offset)
			gotUnits = append(gotUnits, pe.Unit)
		}

		if diff := cmp.Diff(wantOffsets, gotOffsets); diff != "" {
			t.Fatalf("trial %d (words %#x): collision offsets mismatch (-want +got):\n%s",
				trial, words, diff)
		}
		if diff := cmp.Diff(wantUnits, gotUnits); diff != "" {
			t.Fatalf("trial %d (words %#x): collision units mismatch (-want +got):\n%s",
				trial, words, diff)
		}
	}
}

func TestDisassembleCollectsUnknownOpcodes(t *testing.T) {
	words := fetchPacket(
		lWord(0x03, 1, 2, 3, 0, 0),
		lWord(0x00, 0, 0, 7, 0, 0), // unassigned .L op
		0, 0, 0, 0, 0, 0,
	)
	code := codeRange(words...)

	l, err := Disassemble(code, 0, Options{})
	if err != nil {
		t.Fatalf("Disassemble error = %v", err)
	}
	if len(l.Issues) != 1 || !IsUnknownOpcode(l.Issues[0].Err) {
		t.Fatalf("issues = %v, want exactly one unknown opcode", l.Issues)
	}
	if l.Issues[0].Offset != 4 {
		t.Errorf("issue offset = 0x%x, want 0x4", l.Issues[0].Offset)
	}

	// The slot is kept in the listing, marked invalid, and decoding of
	// the rest of the range continued.
	if in := l.At(4); in == nil || !in.Invalid {
		t.Errorf("At(4) = %+v, want an Invalid placeholder", in)
	}
	if in := l.At(0); in == nil || in.Mnemonic != "ADD" {
		t.Errorf("At(0) = %+v, want the ADD before the bad word", in)
	}

	if _, err := Disassemble(code, 0, Options{Strict: true}); !IsUnknownOpcode(err) {
		t.Errorf("strict error = %v, want unknown opcode", err)
	}
}

func TestDisassembleResolvesBranchTargets(t *testing.T) {
	// A branch in the second fetch packet with displacement -8 words:
	// the target is relative to that fetch packet's own address.
	words := append(fetchPacket(), fetchPacket(
		0,
		bDispWord(0x1FFFF8, 0), // B with disp -8
		0, 0, 0, 0, 0, 0,
	)...)
	base := uint32(0x8000_0000)

	l, err := Disassemble(codeRange(words...), base, Options{})
	if err != nil {
		t.Fatalf("Disassemble error = %v", err)
	}

	br := l.At(0x24)
	if br == nil || br.Mnemonic != "B" {
		t.Fatalf("At(0x24) = %+v, want the branch", br)
	}
	op := br.Operands[0]
	if !op.HasTarget {
		t.Fatal("branch target not resolved")
	}
	// Fetch packet at base+0x20, minus 8 words.
	if want := base + 0x20 - 32; op.Target != want {
		t.Errorf("target = 0x%08x, want 0x%08x", op.Target, want)
	}
	if br.DelaySlots != 5 {
		t.Errorf("delay slots = %d, want 5", br.DelaySlots)
	}
}

func TestListingLookups(t *testing.T) {
	words := fetchPacket(
		lWord(0x03, 1, 2, 3, 0, 0)|1,
		sWord(0x07, 1, 2, 3, 0, 1),
		0, 0, 0, 0, 0, 0,
	)
	base := uint32(0x4000)
	l, err := Disassemble(codeRange(words...), base, Options{})
	if err != nil {
		t.Fatalf("Disassemble error = %v", err)
	}

	if in := l.At(0x100); in != nil {
		t.Errorf("At(0x100) = %+v, want nil", in)
	}

	// Both instructions of the first packet issue at the same address;
	// AtAddr returns them in slot order.
	group := l.AtAddr(base)
	if len(group) != 2 {
		t.Fatalf("AtAddr(base) returned %d instructions, want 2", len(group))
	}
	if group[0].Unit != UnitL1 || group[1].Unit != UnitS2 {
		t.Errorf("group units = %s, %s; want .L1, .S2", group[0].Unit, group[1].Unit)
	}
	if l.AtAddr(base-4) != nil {
		t.Error("AtAddr below base returned instructions")
	}
}

func TestDisassembleIsDeterministic(t *testing.T) {
	words := fetchPacket(
		lWord(0x03, 1, 2, 3, 1, 0)|1,
		mvkWord(0xCAFE, 9, 0, 1),
		ldstWord(6, 4, 1, 5, uint32(ModePosOffsetCst), 0, 0),
		bDispWord(0x20, 0),
		lWord(0x00, 0, 0, 0, 1, 0), // junk word
		0, 0, 0,
	)
	code := codeRange(words...)

	a, err := Disassemble(code, 0x100, Options{})
	if err != nil {
		t.Fatalf("first Disassemble error = %v", err)
	}
	b, err := Disassemble(code, 0x100, Options{})
	if err != nil {
		t.Fatalf("second Disassemble error = %v", err)
	}

	opts := cmp.AllowUnexported(Listing{}, Instruction{})
	if diff := cmp.Diff(a, b, opts); diff != "" {
		t.Errorf("listings differ across runs:\n%s", diff)
	}
}

func TestDisassembleRejectsMisalignedRange(t *testing.T) {
	if _, err := Disassemble(make([]byte, 36), 0, Options{}); err == nil {
		t.Fatal("Disassemble of 36 bytes succeeded, want alignment error")
	}
}
