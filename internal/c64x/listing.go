package c64x

// Options controls a disassembly run.
type Options struct {
	// Strict aborts on the first instruction-level failure instead of
	// collecting it and carrying on. Default is best-effort: firmware
	// code sections routinely contain literal pools and padding that
	// decode as garbage.
	Strict bool
}

// Issue is one instruction- or packet-level failure, kept alongside the
// listing instead of aborting it.
type Issue struct {
	Offset uint32
	Err    error
}

// Listing is the flat, address-ordered result of disassembling one code
// range. Instructions are immutable once the Listing is built; consumers
// hold references, never copies they are expected to write back.
type Listing struct {
	// Base is the load address of the first byte of the range
	Base uint32

	Instructions []Instruction

	// Issues collects every non-fatal failure seen during the run, in
	// offset order. An empty slice means a clean decode.
	Issues []Issue

	// PacketCount is the number of execute packets in the range
	PacketCount int

	byOffset map[uint32]int
}

// Disassemble decodes a whole code range: packet scan, field decode,
// packet legality and address bookkeeping in one pass. The only fatal
// conditions are a misaligned range and, in strict mode, the first
// decode failure; everything else lands in Listing.Issues.
//
// The result is a pure function of code, base and opts: decoding the
// same range twice yields identical listings.
func Disassemble(code []byte, base uint32, opts Options) (*Listing, error) {
	seq, err := ScanPackets(code)
	if err != nil {
		return nil, err
	}

	l := &Listing{
		Base:     base,
		byOffset: make(map[uint32]int, len(code)/4),
	}

	for {
		pkt, ok := seq.Next()
		if !ok {
			break
		}
		l.PacketCount++
		if pkt.Issue != nil {
			l.Issues = append(l.Issues, Issue{Offset: pkt.Issue.Offset, Err: pkt.Issue})
		}

		claimed := make(map[Unit]bool, len(pkt.Words))
		for slot, w := range pkt.Words {
			in, derr := Decode(w)
			if derr != nil {
				if opts.Strict {
					return nil, derr
				}
				l.Issues = append(l.Issues, Issue{Offset: w.Offset, Err: derr})
			}

			in.Addr = base + w.Offset
			in.Packet = pkt.ID
			in.Slot = slot
			resolveBranch(&in, base)

			if !in.Invalid && in.Unit != UnitNone {
				if claimed[in.Unit] {
					perr := &PacketError{Offset: pkt.Offset, Unit: in.Unit}
					if opts.Strict {
						return nil, perr
					}
					l.Issues = append(l.Issues, Issue{Offset: w.Offset, Err: perr})
				}
				claimed[in.Unit] = true
			}

			l.byOffset[w.Offset] = len(l.Instructions)
			l.Instructions = append(l.Instructions, in)
		}
	}
	return l, nil
}

// resolveBranch turns a branch displacement into an absolute target. The
// displacement is in words, relative to the address of the fetch packet
// holding the branch, not the branch itself.
func resolveBranch(in *Instruction, base uint32) {
	for i := range in.Operands {
		op := &in.Operands[i]
		if op.Kind != OperandBranchDisp {
			continue
		}
		fp := base + in.Offset&^uint32(FetchPacketBytes-1)
		op.Target = fp + uint32(op.Val*4)
		op.HasTarget = true
	}
}

// At returns the instruction whose word starts at the given byte offset
// within the range, or nil. In a VLIW listing several instructions share
// one issue address; the word offset is the unique key.
func (l *Listing) At(offset uint32) *Instruction {
	i, ok := l.byOffset[offset]
	if !ok {
		return nil
	}
	return &l.Instructions[i]
}

// AtAddr returns all instructions of the execute packet issuing at the
// given absolute address, in slot order.
func (l *Listing) AtAddr(addr uint32) []*Instruction {
	if addr < l.Base {
		return nil
	}
	first := l.At(addr - l.Base)
	if first == nil {
		return nil
	}
	var out []*Instruction
	for i := l.byOffset[addr-l.Base]; i < len(l.Instructions); i++ {
		in := &l.Instructions[i]
		if in.Packet != first.Packet {
			break
		}
		out = append(out, in)
	}
	return out
}

// Packets groups the listing back into execute packets, in issue order.
func (l *Listing) Packets() [][]*Instruction {
	out := make([][]*Instruction, l.PacketCount)
	for i := range l.Instructions {
		in := &l.Instructions[i]
		out[in.Packet] = append(out[in.Packet], in)
	}
	return out
}

// Clean reports whether the range decoded without a single issue.
func (l *Listing) Clean() bool {
	return len(l.Issues) == 0
}
