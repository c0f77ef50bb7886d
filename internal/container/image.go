package container

import (
	"fmt"
	"sort"
)

// Kind classifies a section of the image.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindHeader
	KindCode
	KindChecksum
	KindMetadata
)

func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindCode:
		return "code"
	case KindChecksum:
		return "checksum"
	case KindMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// Section is one classified region of the image. Offset and Length are
// image-absolute; LoadAddr is where the module maps the bytes at runtime
// (0 for regions that are never mapped).
type Section struct {
	Kind     Kind
	Name     string
	Offset   uint32
	Length   uint32
	LoadAddr uint32

	img *Image
}

// Data returns the section bytes as a view into the image buffer. Callers
// must not write through it; patching goes through the patch package.
func (s *Section) Data() []byte {
	return s.img.buf[s.Offset : s.Offset+s.Length : s.Offset+s.Length]
}

// End returns the first offset past the section.
func (s *Section) End() uint32 {
	return s.Offset + s.Length
}

// Image is a fully parsed MTC firmware image. All fields are populated by
// Parse; an Image is never returned half-built.
type Image struct {
	// ProfileName records which profile the image parsed under
	ProfileName string

	Header   Header
	COFF     *COFF
	Sections []*Section

	buf []byte
}

// Bytes returns the underlying image buffer. Read-only by convention.
func (img *Image) Bytes() []byte {
	return img.buf
}

// Len returns the image length in bytes.
func (img *Image) Len() uint32 {
	return uint32(len(img.buf))
}

// Payload returns the COFF payload bytes.
func (img *Image) Payload() []byte {
	off := img.payloadOffset()
	return img.buf[off : off+img.payloadLength()]
}

// PayloadOffset returns the image-absolute offset of the COFF payload.
func (img *Image) PayloadOffset() uint32 {
	return img.payloadOffset()
}

func (img *Image) payloadOffset() uint32 {
	return img.Header.PayloadOffset
}

func (img *Image) payloadLength() uint32 {
	return img.Header.PayloadLength
}

// Signature returns the signature block bytes, or nil for unsigned images.
func (img *Image) Signature() []byte {
	if !img.Header.Signed() {
		return nil
	}
	off, n := img.Header.SignatureOffset, img.Header.SignatureLength
	return img.buf[off : off+n : off+n]
}

// Section returns the named section, or nil when absent.
func (img *Image) Section(name string) *Section {
	for _, s := range img.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// CodeSections returns the sections holding executable code, in image
// order.
func (img *Image) CodeSections() []*Section {
	var out []*Section
	for _, s := range img.Sections {
		if s.Kind == KindCode {
			out = append(out, s)
		}
	}
	return out
}

// Symbols returns the COFF symbol table.
func (img *Image) Symbols() []Symbol {
	return img.COFF.Symbols
}

// Functions returns the function symbols sorted by value.
func (img *Image) Functions() []Symbol {
	var fns []Symbol
	for _, s := range img.COFF.Symbols {
		if s.IsFunction() {
			fns = append(fns, s)
		}
	}
	sort.Slice(fns, func(i, j int) bool { return fns[i].Value < fns[j].Value })
	return fns
}

// FunctionBytes returns the bytes of one function, bounded by the next
// function symbol in the same section or by the section end. The second
// return is the function's load address.
func (img *Image) FunctionBytes(fn Symbol) ([]byte, uint32, error) {
	if !fn.IsFunction() {
		return nil, 0, fmt.Errorf("symbol %s is not a function", fn.Name)
	}
	if fn.SectionNum < 1 || int(fn.SectionNum) > len(img.COFF.Sections) {
		return nil, 0, fmt.Errorf("function %s has no section (scnum %d)", fn.Name, fn.SectionNum)
	}
	scn := &img.COFF.Sections[fn.SectionNum-1]
	if !scn.HasRawData() {
		return nil, 0, fmt.Errorf("function %s lives in section %s with no raw data", fn.Name, scn.Name)
	}
	if fn.Value < scn.PhysAddr || fn.Value >= scn.PhysAddr+scn.Size {
		return nil, 0, fmt.Errorf("function %s at 0x%08x lies outside section %s", fn.Name, fn.Value, scn.Name)
	}

	end := scn.PhysAddr + scn.Size
	for _, other := range img.Functions() {
		if other.SectionNum == fn.SectionNum && other.Value > fn.Value && other.Value < end {
			end = other.Value
		}
	}

	start := img.payloadOffset() + scn.RawOffset + (fn.Value - scn.PhysAddr)
	n := end - fn.Value
	return img.buf[start : start+n : start+n], fn.Value, nil
}
