package c64x

import "fmt"

// RegFile selects one of the two register banks.
type RegFile uint8

const (
	FileA RegFile = 0
	FileB RegFile = 1
)

func (f RegFile) String() string {
	if f == FileB {
		return "B"
	}
	return "A"
}

// Reg is one general-purpose register, A0-A31 or B0-B31.
type Reg struct {
	File RegFile
	Num  uint8
}

func (r Reg) String() string {
	return fmt.Sprintf("%s%d", r.File, r.Num)
}

// Pair renders the 40-bit register pair this register participates in,
// odd:even.
func (r Reg) Pair() string {
	hi := Reg{File: r.File, Num: r.Num | 1}
	lo := Reg{File: r.File, Num: r.Num &^ 1}
	return hi.String() + ":" + lo.String()
}

// Unit is a functional unit of the CPU. Each side of the datapath has an
// L, S, M and D unit; an execute packet may use each at most once.
type Unit uint8

const (
	UnitNone Unit = iota
	UnitL1
	UnitS1
	UnitM1
	UnitD1
	UnitL2
	UnitS2
	UnitM2
	UnitD2
)

func (u Unit) String() string {
	switch u {
	case UnitL1:
		return ".L1"
	case UnitS1:
		return ".S1"
	case UnitM1:
		return ".M1"
	case UnitD1:
		return ".D1"
	case UnitL2:
		return ".L2"
	case UnitS2:
		return ".S2"
	case UnitM2:
		return ".M2"
	case UnitD2:
		return ".D2"
	default:
		return ""
	}
}

// Side returns the register file that belongs to the unit's side.
func (u Unit) Side() RegFile {
	switch u {
	case UnitL2, UnitS2, UnitM2, UnitD2:
		return FileB
	default:
		return FileA
	}
}

// unitFor picks the concrete unit from a unit class and the s-bit.
func unitFor(class Unit, side2 bool) Unit {
	if !side2 {
		return class
	}
	switch class {
	case UnitL1:
		return UnitL2
	case UnitS1:
		return UnitS2
	case UnitM1:
		return UnitM2
	case UnitD1:
		return UnitD2
	}
	return class
}

// CtrlReg is a control register code as used by MVC and the return
// branches.
type CtrlReg uint8

const (
	CtrlAMR  CtrlReg = 0x00
	CtrlCSR  CtrlReg = 0x01
	CtrlISR  CtrlReg = 0x02
	CtrlICR  CtrlReg = 0x03
	CtrlIER  CtrlReg = 0x04
	CtrlISTP CtrlReg = 0x05
	CtrlIRP  CtrlReg = 0x06
	CtrlNRP  CtrlReg = 0x07
	CtrlPCE1 CtrlReg = 0x10
)

var ctrlNames = map[CtrlReg]string{
	CtrlAMR:  "AMR",
	CtrlCSR:  "CSR",
	CtrlISR:  "ISR",
	CtrlICR:  "ICR",
	CtrlIER:  "IER",
	CtrlISTP: "ISTP",
	CtrlIRP:  "IRP",
	CtrlNRP:  "NRP",
	CtrlPCE1: "PCE1",
}

func (c CtrlReg) String() string {
	if name, ok := ctrlNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CR0x%02x", uint8(c))
}

// Predicate is the conditional-execution guard of an instruction. Only
// A0, A1, A2, B0, B1 and B2 can predicate; Z inverts the sense (execute
// when the register is zero).
type Predicate struct {
	Reg Reg
	Z   bool
}

func (p *Predicate) String() string {
	if p.Z {
		return "[!" + p.Reg.String() + "]"
	}
	return "[" + p.Reg.String() + "]"
}

// predicate decodes the creg/z field. creg 0 means unconditional (nil);
// the reserved combination reports false.
func predicate(creg, z uint32) (*Predicate, bool) {
	if creg == 0 {
		if z != 0 {
			return nil, false
		}
		return nil, true
	}
	var r Reg
	switch creg {
	case 1:
		r = Reg{FileB, 0}
	case 2:
		r = Reg{FileB, 1}
	case 3:
		r = Reg{FileB, 2}
	case 4:
		r = Reg{FileA, 1}
	case 5:
		r = Reg{FileA, 2}
	case 6:
		r = Reg{FileA, 0}
	default:
		return nil, false
	}
	return &Predicate{Reg: r, Z: z != 0}, true
}
