package c64x

import (
	"errors"
	"fmt"
)

// AlignmentError reports a code range whose length is not a whole number
// of fetch packets. Nothing useful can be decoded from such a range.
type AlignmentError struct {
	Length int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("code range of %d bytes is not a multiple of the %d-byte fetch packet",
		e.Length, FetchPacketBytes)
}

// UnknownOpcodeError reports a word that matches no decode table entry.
// Guessing at such a word would produce a plausible-looking wrong listing,
// which is worse than admitting failure; the word is reported and skipped.
type UnknownOpcodeError struct {
	Word   uint32
	Offset uint32
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode 0x%08x at offset 0x%x", e.Word, e.Offset)
}

// PacketError reports an execute packet that no real pipeline could issue:
// two instructions claiming the same functional unit, or a p-bit chain
// running into the fetch-packet boundary. The packet is kept in the
// listing but flagged; it usually means the range being decoded is data,
// not code.
type PacketError struct {
	Offset uint32 // offending word
	Unit   Unit   // the doubly-claimed unit, when that is the violation
	Detail string // otherwise a description of the violation
}

func (e *PacketError) Error() string {
	if e.Unit != UnitNone {
		return fmt.Sprintf("execute packet at offset 0x%x claims unit %s twice", e.Offset, e.Unit)
	}
	return fmt.Sprintf("illegal execute packet at offset 0x%x: %s", e.Offset, e.Detail)
}

// IsIllegalPacket reports whether err is an execute-packet legality
// verdict.
func IsIllegalPacket(err error) bool {
	var pe *PacketError
	return errors.As(err, &pe)
}

// IsUnknownOpcode reports whether err is an unknown-opcode verdict.
func IsUnknownOpcode(err error) bool {
	var ue *UnknownOpcodeError
	return errors.As(err, &ue)
}
