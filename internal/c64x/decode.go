package c64x

import "errors"

// Common field positions. dst, src2 and src1 sit at the same bits in
// every register format; what differs between formats is the low marker
// bits and how the fields are interpreted.
//
//	31-29 creg   27-23 dst    22-18 src2   17-13 src1/cst
//	28    z      12    x      1     s      0     p
func bits(w uint32, lo, n uint) uint32 {
	return (w >> lo) & (1<<n - 1)
}

func se5(v uint32) int64  { return int64(int32(v<<27) >> 27) }
func se16(v uint32) int64 { return int64(int16(v)) }
func se21(v uint32) int64 { return int64(int32(v<<11) >> 11) }

// NOP and IDLE are all-zero words apart from the count field at 16-13
// (and the p-bit). A count field of 15 is IDLE.
const nopIgnoreMask = 0x0001E001

// Decode decodes one instruction word. The word's execute-packet context
// is not needed here; packet-level legality (unit collisions) is checked
// by Disassemble, which sees whole packets.
//
// A word matching no table entry returns an *UnknownOpcodeError together
// with an Instruction carrying the raw word, its offset and Invalid set,
// so best-effort callers can keep the slot in the listing.
func Decode(w InstructionWord) (Instruction, error) {
	in := Instruction{
		Word:     w.Raw,
		Offset:   w.Offset,
		Parallel: w.Parallel(),
	}
	raw := w.Raw

	if raw&^uint32(nopIgnoreMask) == 0 {
		count := bits(raw, 13, 4)
		if count == 0xF {
			in.Mnemonic = "IDLE"
		} else {
			in.Mnemonic = "NOP"
			if count > 0 {
				in.Operands = []Operand{ucst(count + 1)}
			}
		}
		return in, nil
	}

	pred, ok := predicate(bits(raw, 29, 3), bits(raw, 28, 1))
	if !ok {
		return unknown(in)
	}
	in.Pred = pred

	var err error
	switch {
	case bits(raw, 2, 2) == 0x1: // load/store, register-relative
		err = decodeLoadStore(&in, raw)
	case bits(raw, 2, 2) == 0x3: // load/store, 15-bit offset off B14/B15
		err = decodeLoadStoreLong(&in, raw)
	case bits(raw, 2, 3) == 0x6: // .L
		err = decodeTableOp(&in, raw, UnitL1, lOps[bits(raw, 5, 7)])
	case bits(raw, 2, 4) == 0x8: // .S
		err = decodeTableOp(&in, raw, UnitS1, sOps[bits(raw, 6, 6)])
	case bits(raw, 2, 4) == 0x2: // .S immediate bit-field
		err = decodeFieldOp(&in, raw)
	case bits(raw, 2, 4) == 0xA: // .S MVK/MVKH
		err = decodeMVK(&in, raw)
	case bits(raw, 2, 5) == 0x14: // .S ADDK
		err = decodeADDK(&in, raw)
	case bits(raw, 2, 5) == 0x04: // .S branch, 21-bit displacement
		err = decodeBranchDisp(&in, raw)
	case bits(raw, 2, 5) == 0x10: // .D register forms
		err = decodeTableOp(&in, raw, UnitD1, dOps[bits(raw, 7, 6)])
	case bits(raw, 2, 5) == 0x00: // .M
		err = decodeTableOp(&in, raw, UnitM1, mOps[bits(raw, 7, 5)])
	default:
		return unknown(in)
	}
	if err != nil {
		return unknown(in)
	}

	in.DelaySlots = in.flags.delaySlots()
	for _, op := range in.Operands {
		if op.Cross {
			in.Cross = true
		}
	}
	return in, nil
}

func unknown(in Instruction) (Instruction, error) {
	return Instruction{
		Word:     in.Word,
		Offset:   in.Offset,
		Parallel: in.Parallel,
		Invalid:  true,
	}, &UnknownOpcodeError{Word: in.Word, Offset: in.Offset}
}

// errBadEncoding is a private marker: the format matched but the fields
// are a reserved or impossible combination. Decode folds it into
// UnknownOpcodeError.
var errBadEncoding = errors.New("reserved encoding")

// decodeTableOp handles the register formats of the .L, .S, .M and .D
// units, whose field-to-operand mapping is given by the table entry's
// form. A zero entry (table miss) fails.
func decodeTableOp(in *Instruction, raw uint32, class Unit, entry opEntry) error {
	if entry.mnem == "" {
		return errBadEncoding
	}
	side2 := bits(raw, 1, 1) == 1
	if entry.side2Only && !side2 {
		return errBadEncoding
	}
	unit := unitFor(class, side2)
	side := unit.Side()

	x := bits(raw, 12, 1) == 1
	dstN := uint8(bits(raw, 23, 5))
	src2N := uint8(bits(raw, 18, 5))
	src1N := uint8(bits(raw, 13, 5))

	same := func(n uint8) Reg { return Reg{File: side, Num: n} }
	crossed := func(n uint8) Reg {
		f := side
		if x {
			f ^= 1
		}
		return Reg{File: f, Num: n}
	}

	switch entry.form {
	case formS1S2D:
		in.Operands = []Operand{reg(same(src1N)), xreg(crossed(src2N), x), reg(same(dstN))}
	case formS2S1D:
		in.Operands = []Operand{xreg(crossed(src2N), x), reg(same(src1N)), reg(same(dstN))}
	case formC5S2D:
		in.Operands = []Operand{scst(se5(uint32(src1N))), xreg(crossed(src2N), x), reg(same(dstN))}
	case formU5S2D:
		in.Operands = []Operand{ucst(uint32(src1N)), xreg(crossed(src2N), x), reg(same(dstN))}
	case formS2D:
		in.Operands = []Operand{xreg(crossed(src2N), x), reg(same(dstN))}
	case formS2U5D:
		in.Operands = []Operand{xreg(crossed(src2N), x), ucst(uint32(src1N)), reg(same(dstN))}
	case formS1S2PD:
		in.Operands = []Operand{reg(same(src1N)), xreg(crossed(src2N), x), regPair(same(dstN))}
	case formS1PS2PD:
		if x {
			return errBadEncoding // register pairs never ride the cross path
		}
		in.Operands = []Operand{reg(same(src1N)), regPair(same(src2N)), regPair(same(dstN))}
	case formC5PS2PD:
		if x {
			return errBadEncoding
		}
		in.Operands = []Operand{scst(se5(uint32(src1N))), regPair(same(src2N)), regPair(same(dstN))}
	case formS1PS2D:
		if x {
			return errBadEncoding
		}
		in.Operands = []Operand{reg(same(src1N)), regPair(same(src2N)), reg(same(dstN))}
	case formC5PS2D:
		if x {
			return errBadEncoding
		}
		in.Operands = []Operand{scst(se5(uint32(src1N))), regPair(same(src2N)), reg(same(dstN))}
	case formU5PS2D:
		if x {
			return errBadEncoding
		}
		in.Operands = []Operand{ucst(uint32(src1N)), regPair(same(src2N)), reg(same(dstN))}
	case formPS2D:
		if x {
			return errBadEncoding
		}
		in.Operands = []Operand{regPair(same(src2N)), reg(same(dstN))}
	case formPS2PD:
		if x {
			return errBadEncoding
		}
		in.Operands = []Operand{regPair(same(src2N)), regPair(same(dstN))}
	case formDS2S1D:
		// .D register forms have no x bit; bit 12 belongs to the op field
		in.Operands = []Operand{reg(same(src2N)), reg(same(src1N)), reg(same(dstN))}
	case formDS2U5D:
		in.Operands = []Operand{reg(same(src2N)), ucst(uint32(src1N)), reg(same(dstN))}
	case formMVCRead:
		in.Operands = []Operand{ctrl(CtrlReg(src2N)), reg(same(dstN))}
	case formMVCWrite:
		in.Operands = []Operand{xreg(crossed(src2N), x), ctrl(CtrlReg(dstN))}
	case formBReg:
		in.Operands = []Operand{xreg(crossed(src2N), x)}
	case formBCtrl:
		switch src2N {
		case uint8(CtrlIRP):
			in.Operands = []Operand{ctrl(CtrlIRP)}
		case uint8(CtrlNRP):
			in.Operands = []Operand{ctrl(CtrlNRP)}
		default:
			return errBadEncoding
		}
	default:
		return errBadEncoding
	}

	in.Mnemonic = entry.mnem
	in.Unit = unit
	in.flags = entry.flags
	return nil
}

// decodeLoadStore handles the register-relative load/store format. The
// y bit picks the .D unit doing the address math, and with it the file
// of the base and offset registers; the s bit picks the file of the data
// register independently.
func decodeLoadStore(in *Instruction, raw uint32) error {
	mode := AddrMode(bits(raw, 9, 4))
	if !mode.valid() {
		return errBadEncoding
	}

	y := bits(raw, 7, 1) == 1
	unit := UnitD1
	if y {
		unit = UnitD2
	}
	addrFile := unit.Side()

	dataFile := FileA
	if bits(raw, 1, 1) == 1 {
		dataFile = FileB
	}

	ref := MemRef{
		Base: Reg{File: addrFile, Num: uint8(bits(raw, 18, 5))},
		Mode: mode,
	}
	if mode.usesOffsetReg() {
		ref.Offset = Reg{File: addrFile, Num: uint8(bits(raw, 13, 5))}
	} else {
		ref.UCst = bits(raw, 13, 5)
	}

	entry := ldstMnems[bits(raw, 4, 3)]
	data := reg(Reg{File: dataFile, Num: uint8(bits(raw, 23, 5))})
	if entry.flags&flagStore != 0 {
		in.Operands = []Operand{data, mem(ref)}
	} else {
		in.Operands = []Operand{mem(ref), data}
	}
	in.Mnemonic = entry.mnem
	in.Unit = unit
	in.flags = entry.flags
	// The data register crosses to the address path's side when s and y
	// disagree; the architecture routes this without the x bit.
	return nil
}

// decodeLoadStoreLong handles the 15-bit-offset format: always on .D2,
// base register B14 (y=0) or B15 (y=1).
func decodeLoadStoreLong(in *Instruction, raw uint32) error {
	base := uint8(14)
	if bits(raw, 7, 1) == 1 {
		base = 15
	}
	dataFile := FileA
	if bits(raw, 1, 1) == 1 {
		dataFile = FileB
	}

	ref := MemRef{
		Base: Reg{File: FileB, Num: base},
		Mode: ModePosOffsetCst,
		UCst: bits(raw, 8, 15),
	}
	entry := ldstMnems[bits(raw, 4, 3)]
	data := reg(Reg{File: dataFile, Num: uint8(bits(raw, 23, 5))})
	if entry.flags&flagStore != 0 {
		in.Operands = []Operand{data, mem(ref)}
	} else {
		in.Operands = []Operand{mem(ref), data}
	}
	in.Mnemonic = entry.mnem
	in.Unit = UnitD2
	in.flags = entry.flags
	return nil
}

// decodeFieldOp handles the immediate forms of EXTU/EXT/SET/CLR: two
// 5-bit constants at 17-13 and 12-8, the sub-op at 7-6. No cross path.
func decodeFieldOp(in *Instruction, raw uint32) error {
	unit := unitFor(UnitS1, bits(raw, 1, 1) == 1)
	side := unit.Side()

	in.Mnemonic = fieldOpMnems[bits(raw, 6, 2)]
	in.Unit = unit
	in.Operands = []Operand{
		reg(Reg{File: side, Num: uint8(bits(raw, 18, 5))}),
		ucst(bits(raw, 13, 5)),
		ucst(bits(raw, 8, 5)),
		reg(Reg{File: side, Num: uint8(bits(raw, 23, 5))}),
	}
	return nil
}

func decodeMVK(in *Instruction, raw uint32) error {
	unit := unitFor(UnitS1, bits(raw, 1, 1) == 1)
	dst := reg(Reg{File: unit.Side(), Num: uint8(bits(raw, 23, 5))})
	cst := bits(raw, 7, 16)

	if bits(raw, 6, 1) == 1 {
		in.Mnemonic = "MVKH"
		in.Operands = []Operand{ucst(cst << 16), dst}
	} else {
		in.Mnemonic = "MVK"
		in.Operands = []Operand{scst(se16(cst)), dst}
	}
	in.Unit = unit
	return nil
}

func decodeADDK(in *Instruction, raw uint32) error {
	unit := unitFor(UnitS1, bits(raw, 1, 1) == 1)
	in.Mnemonic = "ADDK"
	in.Unit = unit
	in.Operands = []Operand{
		scst(se16(bits(raw, 7, 16))),
		reg(Reg{File: unit.Side(), Num: uint8(bits(raw, 23, 5))}),
	}
	return nil
}

// decodeBranchDisp handles the PC-relative branch: a signed 21-bit word
// displacement relative to the address of the branch's own fetch packet.
// The listing layer resolves it to an absolute target.
func decodeBranchDisp(in *Instruction, raw uint32) error {
	in.Mnemonic = "B"
	in.Unit = unitFor(UnitS1, bits(raw, 1, 1) == 1)
	in.Operands = []Operand{{Kind: OperandBranchDisp, Val: se21(bits(raw, 7, 21))}}
	in.flags = flagBranch
	return nil
}
