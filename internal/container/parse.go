package container

import (
	"fmt"
	"sort"

	"github.com/mtckit/mtckit/internal/cursor"
	"github.com/mtckit/mtckit/internal/profile"
)

// Parse validates buf against the profile and returns the parsed image.
// The buffer is retained, not copied; callers must not modify it while the
// Image is in use.
func Parse(buf []byte, prof *profile.Profile) (*Image, error) {
	if prof == nil {
		return nil, fmt.Errorf("nil profile")
	}
	cur := cursor.New(buf, prof.ByteOrder())

	hdr, err := parseMTCHeader(cur, prof)
	if err != nil {
		return nil, err
	}

	if hdr.ImageSize != 0 && hdr.ImageSize != cur.Len() {
		return nil, &CorruptError{
			Offset: prof.Header.ImageSizeField,
			Detail: fmt.Sprintf("declared image size %d does not match %d actual bytes",
				hdr.ImageSize, cur.Len()),
		}
	}

	if hdr.Checksum != 0 {
		computed := ComputeHeaderChecksum(buf, &prof.Header)
		if computed != hdr.Checksum {
			return nil, &CorruptError{
				Offset: prof.Header.ChecksumField,
				Detail: fmt.Sprintf("header checksum mismatch: stored 0x%08x, computed 0x%08x",
					hdr.Checksum, computed),
			}
		}
	}

	// Old images leave the payload fields zero: the payload starts right
	// after the header and runs to the end of the image.
	if hdr.PayloadOffset == 0 {
		hdr.PayloadOffset = prof.Header.Size
	}
	if hdr.PayloadOffset > cur.Len() {
		return nil, &CorruptError{
			Offset: prof.Header.PayloadOffsetField,
			Detail: fmt.Sprintf("payload offset 0x%x past end of %d-byte image", hdr.PayloadOffset, cur.Len()),
		}
	}
	if hdr.PayloadLength == 0 {
		hdr.PayloadLength = cur.Len() - hdr.PayloadOffset
	}
	payload, err := cur.Bytes(hdr.PayloadOffset, hdr.PayloadLength)
	if err != nil {
		return nil, &CorruptError{
			Offset: prof.Header.PayloadOffsetField,
			Detail: fmt.Sprintf("payload extent 0x%x+0x%x does not fit", hdr.PayloadOffset, hdr.PayloadLength),
			Err:    err,
		}
	}

	if hdr.Signed() {
		if _, err := cur.Bytes(hdr.SignatureOffset, hdr.SignatureLength); err != nil {
			return nil, &CorruptError{
				Offset: prof.Header.SignatureOffsetField,
				Detail: fmt.Sprintf("signature extent 0x%x+0x%x does not fit", hdr.SignatureOffset, hdr.SignatureLength),
				Err:    err,
			}
		}
	}

	coff, err := parseCOFF(payload, hdr.PayloadOffset, prof)
	if err != nil {
		return nil, err
	}

	img := &Image{
		ProfileName: prof.Name,
		Header:      hdr,
		COFF:        coff,
		buf:         buf,
	}
	if err := buildSections(img, cur, prof); err != nil {
		return nil, err
	}
	return img, nil
}

// buildSections classifies the image into non-overlapping regions: the
// outer header, the COFF structural headers, every COFF section with raw
// data, the symbol table region, and the signature block.
func buildSections(img *Image, cur *cursor.Cursor, prof *profile.Profile) error {
	hdr := &img.Header
	coff := img.COFF

	add := func(kind Kind, name string, off, n, load uint32) {
		if n == 0 {
			return
		}
		img.Sections = append(img.Sections, &Section{
			Kind: kind, Name: name, Offset: off, Length: n, LoadAddr: load, img: img,
		})
	}

	add(KindHeader, "$header", 0, prof.Header.Size, 0)
	add(KindMetadata, "$coffheaders", hdr.PayloadOffset, coff.HeaderSize, 0)

	for i := range coff.Sections {
		scn := &coff.Sections[i]
		if !scn.HasRawData() {
			continue
		}
		off := hdr.PayloadOffset + scn.RawOffset
		if _, err := cur.Bytes(off, scn.Size); err != nil {
			return &CorruptError{
				Offset: off,
				Detail: fmt.Sprintf("section %s raw data 0x%x+0x%x does not fit", scn.Name, off, scn.Size),
				Err:    err,
			}
		}
		add(sectionKind(scn.Flags), scn.Name, off, scn.Size, scn.PhysAddr)
	}

	for i := range coff.Sections {
		scn := &coff.Sections[i]
		if len(scn.Relocations) == 0 {
			continue
		}
		add(KindMetadata, fmt.Sprintf("$reloc(%s)", scn.Name),
			hdr.PayloadOffset+scn.RelocOff, scn.RelocCount*coffRelocSize, 0)
	}

	if coff.SymtabSize > 0 {
		add(KindMetadata, "$symtab", hdr.PayloadOffset+coff.File.SymbolOffset, coff.SymtabSize, 0)
	}

	if hdr.Signed() {
		add(KindChecksum, "$signature", hdr.SignatureOffset, hdr.SignatureLength, 0)
	}

	sort.Slice(img.Sections, func(i, j int) bool {
		return img.Sections[i].Offset < img.Sections[j].Offset
	})
	for i := 1; i < len(img.Sections); i++ {
		prev, s := img.Sections[i-1], img.Sections[i]
		if s.Offset < prev.End() {
			return &CorruptError{
				Offset: s.Offset,
				Detail: fmt.Sprintf("section %s [0x%x,0x%x) overlaps %s [0x%x,0x%x)",
					s.Name, s.Offset, s.End(), prev.Name, prev.Offset, prev.End()),
			}
		}
	}
	return nil
}

func sectionKind(flags SectionFlags) Kind {
	switch {
	case flags&StypText != 0, flags&StypVector != 0:
		return KindCode
	case flags&StypData != 0, flags&StypCopy != 0:
		return KindMetadata
	default:
		return KindUnknown
	}
}
