package c64x

import "encoding/binary"

// Fetch packet geometry. The CPU fetches 8 words (32 bytes) per cycle;
// execute packets are carved out of fetch packets by the p-bit chain and
// never cross a fetch-packet boundary.
const (
	FetchPacketWords = 8
	FetchPacketBytes = 32
)

// ExecutePacket is one group of instructions that issue in the same
// cycle: 1 to 8 words from within a single fetch packet.
type ExecutePacket struct {
	// ID numbers execute packets in scan order, from 0
	ID int

	// Offset is the byte offset of the first word within the scanned
	// code range
	Offset uint32

	Words []InstructionWord

	// Issue records a boundary violation seen while carving the packet:
	// the last word of the fetch packet had its p-bit set. The boundary
	// wins (the packet is still terminated here), but the encoding is
	// illegal and the caller should distrust the surrounding bytes.
	Issue *PacketError
}

// PacketSeq is a restartable scan of a code range into execute packets.
// The range is not copied; iteration is cheap and deterministic.
type PacketSeq struct {
	code []byte
	word int // index of the next word to consume
	id   int
}

// ScanPackets prepares a scan of code into execute packets. The range
// must be a whole number of fetch packets or nothing can be trusted
// about packet boundaries.
func ScanPackets(code []byte) (*PacketSeq, error) {
	if len(code)%FetchPacketBytes != 0 {
		return nil, &AlignmentError{Length: len(code)}
	}
	return &PacketSeq{code: code}, nil
}

// Reset rewinds the scan to the start of the code range.
func (s *PacketSeq) Reset() {
	s.word = 0
	s.id = 0
}

// Next carves the next execute packet. The second return is false once
// the range is exhausted.
//
// The p-bit of each word says "the next word issues with me"; the chain
// is followed until a clear p-bit or the end of the 8-word fetch packet,
// whichever comes first. A set p-bit on the last word of a fetch packet
// is an encoding violation: the packet is cut at the boundary anyway and
// the violation recorded on it.
func (s *PacketSeq) Next() (*ExecutePacket, bool) {
	if s.word*4 >= len(s.code) {
		return nil, false
	}

	pkt := &ExecutePacket{
		ID:     s.id,
		Offset: uint32(s.word * 4),
	}
	for {
		w := InstructionWord{
			Offset: uint32(s.word * 4),
			Raw:    binary.LittleEndian.Uint32(s.code[s.word*4:]),
		}
		pkt.Words = append(pkt.Words, w)
		s.word++

		atBoundary := s.word%FetchPacketWords == 0
		if !w.Parallel() {
			break
		}
		if atBoundary {
			pkt.Issue = &PacketError{
				Offset: w.Offset,
				Detail: "p-bit set on the last word of a fetch packet",
			}
			break
		}
	}
	s.id++
	return pkt, true
}
