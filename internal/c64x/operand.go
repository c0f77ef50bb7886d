package c64x

import "fmt"

// OperandKind discriminates Operand.
type OperandKind uint8

const (
	OperandReg OperandKind = iota
	OperandRegPair
	OperandSCst
	OperandUCst
	OperandMem
	OperandCtrl
	OperandBranchDisp
)

// AddrMode is the raw addressing mode field of a load or store.
type AddrMode uint8

const (
	ModeNegOffsetCst AddrMode = 0x0 // *-R[ucst5]
	ModePosOffsetCst AddrMode = 0x1 // *+R[ucst5]
	ModeNegOffsetReg AddrMode = 0x4 // *-R[offR]
	ModePosOffsetReg AddrMode = 0x5 // *+R[offR]
	ModePreDecCst    AddrMode = 0x8 // *--R[ucst5]
	ModePreIncCst    AddrMode = 0x9 // *++R[ucst5]
	ModePostDecCst   AddrMode = 0xA // *R--[ucst5]
	ModePostIncCst   AddrMode = 0xB // *R++[ucst5]
	ModePreDecReg    AddrMode = 0xC // *--R[offR]
	ModePreIncReg    AddrMode = 0xD // *++R[offR]
	ModePostDecReg   AddrMode = 0xE // *R--[offR]
	ModePostIncReg   AddrMode = 0xF // *R++[offR]
)

func (m AddrMode) valid() bool {
	switch m {
	case 0x2, 0x3, 0x6, 0x7:
		return false
	}
	return true
}

func (m AddrMode) usesOffsetReg() bool {
	return m&0x4 != 0
}

// MemRef is the addressing expression of a load or store. UCst holds up
// to 15 bits: 5 in the register-relative forms, 15 in the B14/B15 form.
type MemRef struct {
	Base   Reg
	Mode   AddrMode
	Offset Reg    // offset register, when the mode uses one
	UCst   uint32 // constant offset otherwise
}

func (m *MemRef) String() string {
	var off string
	if m.Mode.usesOffsetReg() {
		off = m.Offset.String()
	} else {
		off = fmt.Sprintf("%d", m.UCst)
	}
	base := m.Base.String()
	switch m.Mode {
	case ModeNegOffsetCst, ModeNegOffsetReg:
		return fmt.Sprintf("*-%s[%s]", base, off)
	case ModePosOffsetCst, ModePosOffsetReg:
		return fmt.Sprintf("*+%s[%s]", base, off)
	case ModePreDecCst, ModePreDecReg:
		return fmt.Sprintf("*--%s[%s]", base, off)
	case ModePreIncCst, ModePreIncReg:
		return fmt.Sprintf("*++%s[%s]", base, off)
	case ModePostDecCst, ModePostDecReg:
		return fmt.Sprintf("*%s--[%s]", base, off)
	case ModePostIncCst, ModePostIncReg:
		return fmt.Sprintf("*%s++[%s]", base, off)
	}
	return fmt.Sprintf("*%s[%s]", base, off)
}

// Operand is one decoded operand. Exactly the fields implied by Kind are
// meaningful.
type Operand struct {
	Kind OperandKind

	Reg  Reg     // OperandReg, OperandRegPair
	Val  int64   // OperandSCst, OperandUCst, OperandBranchDisp (words)
	Mem  *MemRef // OperandMem
	Ctrl CtrlReg // OperandCtrl

	// Cross marks the operand read over the cross path
	Cross bool

	// Target is the resolved absolute branch target; valid once the
	// listing layer has resolved displacements against real addresses
	Target    uint32
	HasTarget bool
}

func reg(r Reg) Operand          { return Operand{Kind: OperandReg, Reg: r} }
func xreg(r Reg, x bool) Operand { return Operand{Kind: OperandReg, Reg: r, Cross: x} }
func regPair(r Reg) Operand      { return Operand{Kind: OperandRegPair, Reg: r} }
func scst(v int64) Operand       { return Operand{Kind: OperandSCst, Val: v} }
func ucst(v uint32) Operand      { return Operand{Kind: OperandUCst, Val: int64(v)} }
func ctrl(c CtrlReg) Operand     { return Operand{Kind: OperandCtrl, Ctrl: c} }
func mem(m MemRef) Operand       { return Operand{Kind: OperandMem, Mem: &m} }

func (o Operand) String() string {
	switch o.Kind {
	case OperandReg:
		return o.Reg.String()
	case OperandRegPair:
		return o.Reg.Pair()
	case OperandSCst:
		return fmt.Sprintf("%d", o.Val)
	case OperandUCst:
		return fmt.Sprintf("%d", o.Val)
	case OperandMem:
		return o.Mem.String()
	case OperandCtrl:
		return o.Ctrl.String()
	case OperandBranchDisp:
		if o.HasTarget {
			return fmt.Sprintf("0x%08x", o.Target)
		}
		if o.Val >= 0 {
			return fmt.Sprintf("$+0x%x", o.Val*4)
		}
		return fmt.Sprintf("$-0x%x", -o.Val*4)
	}
	return "?"
}
