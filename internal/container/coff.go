package container

import (
	"encoding/binary"
	"fmt"

	"github.com/mtckit/mtckit/internal/cursor"
	"github.com/mtckit/mtckit/internal/profile"
)

// TI COFF2 geometry. The file header is followed by an optional header
// (28 bytes when present) and the section table; symbol entries are 18
// bytes each, with the string table directly after the last one.
const (
	coffFileHeaderSize = 22
	coffOptHeaderSize  = 28
	coffSectionSize    = 48
	coffSymbolSize     = 18
	coffRelocSize      = 12
)

// FileHeader is the TI COFF2 file header.
type FileHeader struct {
	Version      uint16 // COFF version id (0xC2 for COFF2)
	SectionCount uint16
	Timestamp    uint32
	SymbolOffset uint32 // payload-relative offset of the symbol table
	SymbolCount  uint32 // entries including auxiliary records
	OptionalSize uint16
	Flags        uint16
	TargetID     uint16 // machine id (0x0099 for TMS320C6000)
}

// OptionalHeader carries load-time information when the linker emitted it.
type OptionalHeader struct {
	Magic     uint16
	Version   uint16
	TextSize  uint32
	DataSize  uint32
	BSSSize   uint32
	Entry     uint32
	TextStart uint32
	DataStart uint32
}

// SectionFlags is the STYP_* bit set from the section header.
type SectionFlags uint32

const (
	StypReg    SectionFlags = 0x00000000 // regular (allocated, relocated, loaded)
	StypDsect  SectionFlags = 0x00000001 // dummy (not allocated, not loaded)
	StypNoload SectionFlags = 0x00000002 // allocated but not loaded
	StypCopy   SectionFlags = 0x00000010 // loaded but not allocated
	StypText   SectionFlags = 0x00000020 // executable code
	StypData   SectionFlags = 0x00000040 // initialized data
	StypBSS    SectionFlags = 0x00000080 // uninitialized data
	StypVector SectionFlags = 0x00008000 // vector table
)

// COFFSection is one entry of the section table. RawOffset is relative to
// the start of the COFF payload, not the image.
type COFFSection struct {
	Name       string
	PhysAddr   uint32
	VirtAddr   uint32
	Size       uint32
	RawOffset  uint32
	RelocOff   uint32
	LineOff    uint32
	RelocCount uint32
	LineCount  uint32
	Flags      SectionFlags
	Page       uint16

	// Relocations are the section's relocation table entries, empty for
	// fully linked sections
	Relocations []Relocation
}

// Relocation is one 12-byte relocation table entry. Release images are
// fully linked and carry none; partially linked factory images do.
type Relocation struct {
	VirtAddr    uint32
	SymbolIndex uint32
	Type        uint16
}

// HasRawData reports whether the section occupies bytes in the file.
// BSS-style sections are allocated at load time only.
func (s *COFFSection) HasRawData() bool {
	return s.RawOffset != 0 && s.Size != 0 && s.Flags&StypBSS == 0
}

// Symbol is one symbol table entry with its name already resolved.
type Symbol struct {
	Name         string
	Value        uint32
	SectionNum   int16 // 1-based section index; 0 undefined, -1 absolute
	Type         uint16
	StorageClass uint8
}

// symTypeFunction tags function symbols in these images. Recovered by
// correlating symbol values against known entry points.
const symTypeFunction = 4

// IsFunction reports whether the symbol names a function entry point.
func (s *Symbol) IsFunction() bool {
	return s.Type == symTypeFunction
}

// COFF is the parsed payload: headers, section table and symbols.
type COFF struct {
	File     FileHeader
	Optional *OptionalHeader // nil when the image carries none
	Sections []COFFSection
	Symbols  []Symbol

	// HeaderSize is the total size of file header, optional header and
	// section table, in payload-relative bytes
	HeaderSize uint32

	// SymtabSize is the byte length of the symbol table plus string
	// table, 0 when the image carries no symbols
	SymtabSize uint32
}

// RelocationCount returns the total relocation entries across all
// sections.
func (c *COFF) RelocationCount() int {
	n := 0
	for i := range c.Sections {
		n += len(c.Sections[i].Relocations)
	}
	return n
}

// parseCOFF decodes the payload. base is the image-absolute offset of the
// payload start, used only so corruption reports point into the image
// rather than the payload.
func parseCOFF(payload []byte, base uint32, prof *profile.Profile) (*COFF, error) {
	cur := cursor.New(payload, prof.ByteOrder())

	fh, err := parseFileHeader(cur, base, prof)
	if err != nil {
		return nil, err
	}

	c := &COFF{File: fh}
	off := uint32(coffFileHeaderSize)

	switch fh.OptionalSize {
	case 0:
		// no optional header
	case coffOptHeaderSize:
		opt, err := parseOptionalHeader(cur, off, base)
		if err != nil {
			return nil, err
		}
		c.Optional = opt
		off += coffOptHeaderSize
	default:
		return nil, &CorruptError{
			Offset: base + 16,
			Detail: fmt.Sprintf("unsupported optional header size %d", fh.OptionalSize),
		}
	}

	// Geometry check before any allocation sized from header counts.
	tableEnd := uint64(off) + uint64(fh.SectionCount)*coffSectionSize
	if tableEnd > uint64(len(payload)) {
		return nil, &CorruptError{
			Offset: base + off,
			Detail: fmt.Sprintf("section table of %d entries does not fit in %d payload bytes",
				fh.SectionCount, len(payload)),
		}
	}
	c.HeaderSize = uint32(tableEnd)

	strtab, err := stringTable(cur, &fh, base)
	if err != nil {
		return nil, err
	}
	if fh.SymbolOffset != 0 && fh.SymbolCount != 0 {
		c.SymtabSize = fh.SymbolCount*coffSymbolSize + uint32(len(strtab))
	}

	c.Sections = make([]COFFSection, 0, fh.SectionCount)
	for i := uint16(0); i < fh.SectionCount; i++ {
		s, err := parseSectionHeader(cur, off, base, strtab)
		if err != nil {
			return nil, err
		}
		c.Sections = append(c.Sections, s)
		off += coffSectionSize
	}

	for i := range c.Sections {
		if err := parseRelocations(cur, &c.Sections[i], base); err != nil {
			return nil, err
		}
	}

	c.Symbols, err = parseSymbols(cur, &fh, base, strtab)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// parseRelocations reads a section's relocation table, if it has one.
func parseRelocations(cur *cursor.Cursor, s *COFFSection, base uint32) error {
	if s.RelocOff == 0 || s.RelocCount == 0 {
		return nil
	}

	end := uint64(s.RelocOff) + uint64(s.RelocCount)*coffRelocSize
	if end > uint64(cur.Len()) {
		return &CorruptError{
			Offset: base + s.RelocOff,
			Detail: fmt.Sprintf("relocation table of %d entries for section %s does not fit in %d payload bytes",
				s.RelocCount, s.Name, cur.Len()),
		}
	}

	s.Relocations = make([]Relocation, 0, s.RelocCount)
	for i := uint32(0); i < s.RelocCount; i++ {
		off := s.RelocOff + i*coffRelocSize
		var r Relocation
		r.VirtAddr, _ = cur.U32(off)
		r.SymbolIndex, _ = cur.U32(off + 4)
		// 2 reserved bytes at off+8
		r.Type, _ = cur.U16(off + 10)
		s.Relocations = append(s.Relocations, r)
	}
	return nil
}

// parseFileHeader reads the 22-byte file header. An unaccepted version or
// target id is a FormatError so the caller can retry another profile.
func parseFileHeader(cur *cursor.Cursor, base uint32, prof *profile.Profile) (FileHeader, error) {
	var fh FileHeader
	if cur.Len() < coffFileHeaderSize {
		return fh, &CorruptError{
			Offset: base,
			Detail: fmt.Sprintf("payload of %d bytes cannot hold a file header", cur.Len()),
		}
	}

	fh.Version, _ = cur.U16(0)
	fh.SectionCount, _ = cur.U16(2)
	fh.Timestamp, _ = cur.U32(4)
	fh.SymbolOffset, _ = cur.U32(8)
	fh.SymbolCount, _ = cur.U32(12)
	fh.OptionalSize, _ = cur.U16(16)
	fh.Flags, _ = cur.U16(18)
	fh.TargetID, _ = cur.U16(20)

	if !prof.AcceptsVersion(fh.Version) {
		return fh, &FormatError{
			Profile: prof.Name,
			Offset:  base,
			Detail:  fmt.Sprintf("COFF version 0x%04x not accepted", fh.Version),
		}
	}
	if !prof.AcceptsTarget(fh.TargetID) {
		return fh, &FormatError{
			Profile: prof.Name,
			Offset:  base + 20,
			Detail:  fmt.Sprintf("target id 0x%04x not accepted", fh.TargetID),
		}
	}
	return fh, nil
}

func parseOptionalHeader(cur *cursor.Cursor, off, base uint32) (*OptionalHeader, error) {
	if _, err := cur.Bytes(off, coffOptHeaderSize); err != nil {
		return nil, &CorruptError{Offset: base + off, Detail: "truncated optional header", Err: err}
	}
	var oh OptionalHeader
	oh.Magic, _ = cur.U16(off)
	oh.Version, _ = cur.U16(off + 2)
	oh.TextSize, _ = cur.U32(off + 4)
	oh.DataSize, _ = cur.U32(off + 8)
	oh.BSSSize, _ = cur.U32(off + 12)
	oh.Entry, _ = cur.U32(off + 16)
	oh.TextStart, _ = cur.U32(off + 20)
	oh.DataStart, _ = cur.U32(off + 24)
	return &oh, nil
}

func parseSectionHeader(cur *cursor.Cursor, off, base uint32, strtab []byte) (COFFSection, error) {
	var s COFFSection
	nameRaw, err := cur.Bytes(off, 8)
	if err != nil {
		return s, &CorruptError{Offset: base + off, Detail: "truncated section header", Err: err}
	}
	s.Name, err = resolveName(nameRaw, strtab, cur.Order())
	if err != nil {
		return s, &CorruptError{Offset: base + off, Detail: "bad section name", Err: err}
	}
	s.PhysAddr, _ = cur.U32(off + 8)
	s.VirtAddr, _ = cur.U32(off + 12)
	s.Size, _ = cur.U32(off + 16)
	s.RawOffset, _ = cur.U32(off + 20)
	s.RelocOff, _ = cur.U32(off + 24)
	s.LineOff, _ = cur.U32(off + 28)
	s.RelocCount, _ = cur.U32(off + 32)
	s.LineCount, _ = cur.U32(off + 36)
	flags, _ := cur.U32(off + 40)
	s.Flags = SectionFlags(flags)
	s.Page, _ = cur.U16(off + 46)
	return s, nil
}

// stringTable returns the raw string table (length word included), or nil
// when the payload ends at the last symbol entry.
func stringTable(cur *cursor.Cursor, fh *FileHeader, base uint32) ([]byte, error) {
	if fh.SymbolOffset == 0 || fh.SymbolCount == 0 {
		return nil, nil
	}
	symEnd := uint64(fh.SymbolOffset) + uint64(fh.SymbolCount)*coffSymbolSize
	if symEnd > uint64(cur.Len()) {
		return nil, &CorruptError{
			Offset: base + fh.SymbolOffset,
			Detail: fmt.Sprintf("symbol table of %d entries does not fit in %d payload bytes",
				fh.SymbolCount, cur.Len()),
		}
	}
	tabOff := uint32(symEnd)
	if cur.Remaining(tabOff) == 0 {
		return nil, nil
	}
	size, err := cur.U32(tabOff)
	if err != nil || size < 4 {
		return nil, &CorruptError{Offset: base + tabOff, Detail: "bad string table size", Err: err}
	}
	tab, err := cur.Bytes(tabOff, size)
	if err != nil {
		return nil, &CorruptError{
			Offset: base + tabOff,
			Detail: fmt.Sprintf("string table of %d bytes does not fit", size),
			Err:    err,
		}
	}
	return tab, nil
}

func parseSymbols(cur *cursor.Cursor, fh *FileHeader, base uint32, strtab []byte) ([]Symbol, error) {
	if fh.SymbolOffset == 0 || fh.SymbolCount == 0 {
		return nil, nil
	}

	syms := make([]Symbol, 0, fh.SymbolCount)
	off := fh.SymbolOffset
	for i := uint32(0); i < fh.SymbolCount; i++ {
		entry := off + i*coffSymbolSize
		nameRaw, err := cur.Bytes(entry, 8)
		if err != nil {
			return nil, &CorruptError{Offset: base + entry, Detail: "truncated symbol entry", Err: err}
		}

		var sym Symbol
		sym.Name, err = resolveName(nameRaw, strtab, cur.Order())
		if err != nil {
			return nil, &CorruptError{Offset: base + entry, Detail: "bad symbol name", Err: err}
		}
		sym.Value, _ = cur.U32(entry + 8)
		scnum, _ := cur.U16(entry + 12)
		sym.SectionNum = int16(scnum)
		sym.Type, _ = cur.U16(entry + 14)
		sym.StorageClass, _ = cur.U8(entry + 16)
		aux, _ := cur.U8(entry + 17)

		syms = append(syms, sym)

		// Auxiliary records are counted in SymbolCount but carry no
		// name of their own; skip them.
		i += uint32(aux)
	}
	return syms, nil
}

// resolveName decodes an 8-byte COFF name field: inline NUL-padded text,
// or, when the first four bytes are zero, an offset into the string table
// (offsets count from the table start, length word included).
func resolveName(raw []byte, strtab []byte, order binary.ByteOrder) (string, error) {
	if raw[0] == 0 && raw[1] == 0 && raw[2] == 0 && raw[3] == 0 {
		off := order.Uint32(raw[4:8])
		if strtab == nil {
			return "", fmt.Errorf("name offset %d but image has no string table", off)
		}
		if off < 4 || off >= uint32(len(strtab)) {
			return "", fmt.Errorf("name offset %d outside string table of %d bytes", off, len(strtab))
		}
		return trimNul(strtab[off:]), nil
	}
	return trimNul(raw), nil
}
