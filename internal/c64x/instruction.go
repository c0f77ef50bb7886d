package c64x

// instFlags classify an instruction for delay-slot accounting and for
// consumers that follow control flow.
type instFlags uint8

const (
	flagBranch instFlags = 1 << iota
	flagLoad
	flagStore
	flagMul
)

// Delay slots by instruction class: results of a branch take effect 5
// cycles later, loads land 4 cycles later, multiplies 1.
const (
	delayBranch = 5
	delayLoad   = 4
	delayMul    = 1
)

func (f instFlags) delaySlots() int {
	switch {
	case f&flagBranch != 0:
		return delayBranch
	case f&flagLoad != 0:
		return delayLoad
	case f&flagMul != 0:
		return delayMul
	default:
		return 0
	}
}

// InstructionWord is one raw 32-bit slot of a fetch packet.
type InstructionWord struct {
	Offset uint32 // byte offset within the scanned range
	Raw    uint32
}

// Parallel reports the p-bit: this word issues in the same execute packet
// as the next word.
func (w InstructionWord) Parallel() bool {
	return w.Raw&1 != 0
}

// Instruction is one fully decoded instruction.
type Instruction struct {
	Word   uint32
	Offset uint32 // byte offset within the scanned range
	Addr   uint32 // absolute address, filled in by Disassemble

	Mnemonic string
	Unit     Unit
	Pred     *Predicate // nil when unconditional
	Operands []Operand

	// Cross reports a cross-path read; the crossed operand also carries
	// its own Cross mark
	Cross bool

	DelaySlots int

	// Parallel is the word's p-bit: the next instruction issues in the
	// same cycle
	Parallel bool

	// Invalid marks a word that failed to decode; Word and Offset are
	// still meaningful, the rest is zero
	Invalid bool

	// Packet and Slot place the instruction in its execute packet; they
	// are assigned by Disassemble
	Packet int
	Slot   int

	flags instFlags
}

// IsBranch reports whether the instruction redirects the program counter.
func (in *Instruction) IsBranch() bool { return in.flags&flagBranch != 0 }

// IsLoad reports whether the instruction reads memory.
func (in *Instruction) IsLoad() bool { return in.flags&flagLoad != 0 }

// IsStore reports whether the instruction writes memory.
func (in *Instruction) IsStore() bool { return in.flags&flagStore != 0 }
