package patch

import (
	"fmt"

	"github.com/mtckit/mtckit/internal/container"
	"github.com/mtckit/mtckit/internal/profile"
)

// RangeError reports an edit that does not fit its target field or
// section. No bytes have been written when one is returned.
type RangeError struct {
	What   string
	Offset uint32
	Length uint32
	Limit  uint32
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s edit at 0x%x+%d exceeds limit %d", e.What, e.Offset, e.Length, e.Limit)
}

type edit struct {
	off  uint32 // image-absolute
	data []byte
}

// Set accumulates edits against one parsed image. The zero value is not
// usable; construct with NewSet. A Set is not safe for concurrent use.
type Set struct {
	img   *container.Image
	prof  *profile.Profile
	edits []edit
}

// NewSet starts an empty edit set against img. The profile must be the
// one the image parsed under: it supplies the header geometry for the
// metadata edits and the checksum refresh.
func NewSet(img *container.Image, prof *profile.Profile) *Set {
	return &Set{img: img, prof: prof}
}

// Bytes stages a raw edit at an image-absolute offset.
func (s *Set) Bytes(off uint32, data []byte) error {
	if uint64(off)+uint64(len(data)) > uint64(s.img.Len()) {
		return &RangeError{What: "image", Offset: off, Length: uint32(len(data)), Limit: s.img.Len()}
	}
	s.stage(off, data)
	return nil
}

// Section stages an edit at an offset within the named section. The
// edit may not cross the section end even when the image continues past
// it; the section boundary is the contract the exploit payload is built
// against.
func (s *Set) Section(name string, off uint32, data []byte) error {
	scn := s.img.Section(name)
	if scn == nil {
		return fmt.Errorf("image has no section %q", name)
	}
	if uint64(off)+uint64(len(data)) > uint64(scn.Length) {
		return &RangeError{What: "section " + name, Offset: off, Length: uint32(len(data)), Limit: scn.Length}
	}
	s.stage(scn.Offset+off, data)
	return nil
}

// ModuleName stages a new module name in the outer header. The field is
// fixed-width and NUL-padded; a name that does not fit is refused.
func (s *Set) ModuleName(name string) error {
	return s.stringField("module name", s.prof.Header.NameField, name)
}

// Description stages a new description string in the outer header.
func (s *Set) Description(desc string) error {
	return s.stringField("description", s.prof.Header.DescriptionField, desc)
}

// Version stages new version bytes. Downgrading the declared version is
// how a rollback image gets past the updater's freshness check.
func (s *Set) Version(v [4]uint8) error {
	return s.Bytes(s.prof.Header.VersionField, v[:])
}

func (s *Set) stringField(what string, span profile.FieldSpan, value string) error {
	if uint32(len(value)) > span.Length {
		return &RangeError{What: what, Offset: span.Offset, Length: uint32(len(value)), Limit: span.Length}
	}
	padded := make([]byte, span.Length)
	copy(padded, value)
	return s.Bytes(span.Offset, padded)
}

func (s *Set) stage(off uint32, data []byte) {
	d := make([]byte, len(data))
	copy(d, data)
	s.edits = append(s.edits, edit{off: off, data: d})
}

// Apply materializes the edits: a fresh copy of the original image with
// every staged edit written in order and the header checksum recomputed.
// The original image buffer is left untouched. Images whose stored
// checksum was zero (unchecked by the loader) keep it zero.
func (s *Set) Apply() []byte {
	out := make([]byte, s.img.Len())
	copy(out, s.img.Bytes())
	for _, e := range s.edits {
		copy(out[e.off:], e.data)
	}

	if s.img.Header.Checksum != 0 {
		layout := &s.prof.Header
		sum := container.ComputeHeaderChecksum(out, layout)
		s.prof.ByteOrder().PutUint32(out[layout.ChecksumField:], sum)
	}
	return out
}

// SectionCopy returns a mutable copy of the named section's bytes for
// payload construction. The copy is independent of the image buffer.
func SectionCopy(img *container.Image, name string) ([]byte, error) {
	scn := img.Section(name)
	if scn == nil {
		return nil, fmt.Errorf("image has no section %q", name)
	}
	out := make([]byte, scn.Length)
	copy(out, scn.Data())
	return out, nil
}
