package container

import (
	"bytes"
	"fmt"

	"github.com/mtckit/mtckit/internal/cursor"
	"github.com/mtckit/mtckit/internal/profile"
)

// Header is the decoded outer MTC header.
type Header struct {
	ModuleName  string
	Version     [4]uint8
	Description string

	// ImageSize is the declared total image length; 0 means unchecked
	// (older images do not fill the field in)
	ImageSize uint32

	// PayloadOffset/PayloadLength locate the COFF payload. A zero offset
	// in the image means "directly after the header".
	PayloadOffset uint32
	PayloadLength uint32

	// SignatureOffset/SignatureLength locate the signature block; both
	// zero means the image is unsigned
	SignatureOffset uint32
	SignatureLength uint32

	// Checksum is the stored header checksum; 0 means unchecked
	Checksum uint32
}

// VersionString renders the version bytes the way the module's own UI
// does, as dotted decimal.
func (h *Header) VersionString() string {
	return fmt.Sprintf("%d.%d.%d.%d", h.Version[0], h.Version[1], h.Version[2], h.Version[3])
}

// Signed reports whether the header declares a signature block.
func (h *Header) Signed() bool {
	return h.SignatureLength > 0
}

// parseMTCHeader reads the outer header at the profile's offsets. A magic
// mismatch (or a buffer too short to hold the magic) is a FormatError;
// once the magic has matched, every further failure is a CorruptError.
func parseMTCHeader(cur *cursor.Cursor, prof *profile.Profile) (Header, error) {
	layout := &prof.Header

	magic, err := cur.Bytes(layout.MagicOffset, uint32(len(layout.Magic)))
	if err != nil || !bytes.Equal(magic, []byte(layout.Magic)) {
		return Header{}, &FormatError{
			Profile: prof.Name,
			Offset:  layout.MagicOffset,
			Detail:  fmt.Sprintf("magic %q not found", layout.Magic),
		}
	}

	if cur.Len() < layout.Size {
		return Header{}, &CorruptError{
			Offset: cur.Len(),
			Detail: fmt.Sprintf("image of %d bytes is shorter than the %d-byte header", cur.Len(), layout.Size),
		}
	}

	var h Header
	read := func(off uint32, dst *uint32, what string) error {
		v, err := cur.U32(off)
		if err != nil {
			return &CorruptError{Offset: off, Detail: "short read of " + what, Err: err}
		}
		*dst = v
		return nil
	}
	if err := read(layout.ImageSizeField, &h.ImageSize, "image size"); err != nil {
		return Header{}, err
	}
	if err := read(layout.PayloadOffsetField, &h.PayloadOffset, "payload offset"); err != nil {
		return Header{}, err
	}
	if err := read(layout.PayloadLengthField, &h.PayloadLength, "payload length"); err != nil {
		return Header{}, err
	}
	if err := read(layout.SignatureOffsetField, &h.SignatureOffset, "signature offset"); err != nil {
		return Header{}, err
	}
	if err := read(layout.SignatureLengthField, &h.SignatureLength, "signature length"); err != nil {
		return Header{}, err
	}
	if err := read(layout.ChecksumField, &h.Checksum, "checksum"); err != nil {
		return Header{}, err
	}

	name, err := cur.Bytes(layout.NameField.Offset, layout.NameField.Length)
	if err != nil {
		return Header{}, &CorruptError{Offset: layout.NameField.Offset, Detail: "short read of module name", Err: err}
	}
	h.ModuleName = trimNul(name)

	ver, err := cur.Bytes(layout.VersionField, 4)
	if err != nil {
		return Header{}, &CorruptError{Offset: layout.VersionField, Detail: "short read of version", Err: err}
	}
	copy(h.Version[:], ver)

	desc, err := cur.Bytes(layout.DescriptionField.Offset, layout.DescriptionField.Length)
	if err != nil {
		return Header{}, &CorruptError{Offset: layout.DescriptionField.Offset, Detail: "short read of description", Err: err}
	}
	h.Description = trimNul(desc)

	return h, nil
}

// ComputeHeaderChecksum sums the header bytes with the checksum word
// treated as zero. This is the value the module's loader recomputes before
// accepting an image, so patched images must refresh it.
func ComputeHeaderChecksum(buf []byte, layout *profile.HeaderLayout) uint32 {
	var sum uint32
	end := layout.Size
	if uint32(len(buf)) < end {
		end = uint32(len(buf))
	}
	for i := uint32(0); i < end; i++ {
		if i >= layout.ChecksumField && i < layout.ChecksumField+4 {
			continue
		}
		sum += uint32(buf[i])
	}
	return sum
}

func trimNul(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
