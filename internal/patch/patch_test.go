package patch

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/mtckit/mtckit/internal/container"
	"github.com/mtckit/mtckit/internal/profile"
)

// buildImage assembles a minimal valid MTC image: 128-byte header and a
// COFF payload with a single 32-byte .text section, no symbols, no
// signature.
func buildImage(t *testing.T, prof *profile.Profile) []byte {
	t.Helper()
	const (
		hdrSize  = 128
		scnTab   = 22 + 28 // file header + optional header
		textPtr  = scnTab + 48
		textSize = 32
		payLen   = textPtr + textSize
		total    = hdrSize + payLen
	)

	buf := make([]byte, total)
	le := binary.LittleEndian

	copy(buf[0:], "MTCH")
	le.PutUint32(buf[4:], total)
	le.PutUint32(buf[8:], hdrSize)
	le.PutUint32(buf[12:], payLen)
	copy(buf[44:], "HSM-CORE")
	copy(buf[60:], []byte{2, 1, 0, 7})
	copy(buf[64:], "security module firmware")

	// COFF file header + optional header.
	base := uint32(hdrSize)
	le.PutUint16(buf[base:], 0xC2)
	le.PutUint16(buf[base+2:], 1) // one section
	le.PutUint16(buf[base+16:], 28)
	le.PutUint16(buf[base+20:], 0x0099)
	le.PutUint16(buf[base+22:], 0x0108)

	// .text section header.
	scn := base + scnTab
	copy(buf[scn:], ".text")
	le.PutUint32(buf[scn+8:], 0x00800000)
	le.PutUint32(buf[scn+12:], 0x00800000)
	le.PutUint32(buf[scn+16:], textSize)
	le.PutUint32(buf[scn+20:], textPtr)
	le.PutUint32(buf[scn+40:], 0x20) // STYP_TEXT

	le.PutUint32(buf[24:], container.ComputeHeaderChecksum(buf, &prof.Header))
	return buf
}

func parseImage(t *testing.T, buf []byte, prof *profile.Profile) *container.Image {
	t.Helper()
	img, err := container.Parse(buf, prof)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return img
}

func defaultProfile(t *testing.T) *profile.Profile {
	t.Helper()
	catalog, err := profile.Load()
	if err != nil {
		t.Fatalf("loading profile catalog: %v", err)
	}
	return catalog.Default()
}

func TestSectionPatchLeavesOriginalUntouched(t *testing.T) {
	prof := defaultProfile(t)
	buf := buildImage(t, prof)
	orig := append([]byte(nil), buf...)
	img := parseImage(t, buf, prof)

	set := NewSet(img, prof)
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if err := set.Section(".text", 8, payload); err != nil {
		t.Fatalf("Section failed: %v", err)
	}
	out := set.Apply()

	if !bytes.Equal(buf, orig) {
		t.Fatal("Apply mutated the original image buffer")
	}

	// The patched copy carries the payload at the right spot and still
	// parses, checksum included.
	patched := parseImage(t, out, prof)
	text := patched.Section(".text")
	if !bytes.Equal(text.Data()[8:12], payload) {
		t.Errorf("patched .text bytes = % x, want % x", text.Data()[8:12], payload)
	}
}

func TestHeaderFieldPatches(t *testing.T) {
	prof := defaultProfile(t)
	img := parseImage(t, buildImage(t, prof), prof)

	set := NewSet(img, prof)
	if err := set.ModuleName("HSM-LAB"); err != nil {
		t.Fatalf("ModuleName failed: %v", err)
	}
	if err := set.Version([4]uint8{2, 0, 0, 0}); err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if err := set.Description("patched for rollback test"); err != nil {
		t.Fatalf("Description failed: %v", err)
	}

	patched := parseImage(t, set.Apply(), prof)
	if patched.Header.ModuleName != "HSM-LAB" {
		t.Errorf("module name = %q, want HSM-LAB", patched.Header.ModuleName)
	}
	if got := patched.Header.VersionString(); got != "2.0.0.0" {
		t.Errorf("version = %q, want 2.0.0.0", got)
	}
	if patched.Header.Description != "patched for rollback test" {
		t.Errorf("description = %q", patched.Header.Description)
	}
}

func TestModuleNamePatchStopsAtFieldEnd(t *testing.T) {
	prof := defaultProfile(t)

	// The name field is header[44:59]: 15 bytes. Plant a sentinel in
	// byte 59 so a name patch that spills into it is caught.
	buf := buildImage(t, prof)
	buf[59] = 0x5A
	prof.ByteOrder().PutUint32(buf[prof.Header.ChecksumField:],
		container.ComputeHeaderChecksum(buf, &prof.Header))
	img := parseImage(t, buf, prof)

	const exact = "ABCDEFGHIJKLMNO" // 15 bytes
	set := NewSet(img, prof)
	if err := set.ModuleName(exact); err != nil {
		t.Fatalf("15-byte ModuleName refused: %v", err)
	}
	out := set.Apply()
	if out[59] != 0x5A {
		t.Errorf("name patch overwrote byte 59: 0x%02x, want sentinel 0x5A", out[59])
	}
	if patched := parseImage(t, out, prof); patched.Header.ModuleName != exact {
		t.Errorf("module name = %q, want %q", patched.Header.ModuleName, exact)
	}

	var re *RangeError
	if err := NewSet(img, prof).ModuleName(exact + "P"); !errors.As(err, &re) {
		t.Fatalf("16-byte ModuleName error = %v, want *RangeError", err)
	}
	if re.Limit != 15 {
		t.Errorf("name field limit = %d, want 15", re.Limit)
	}
}

func TestChecksumRefreshedOnApply(t *testing.T) {
	prof := defaultProfile(t)
	img := parseImage(t, buildImage(t, prof), prof)

	set := NewSet(img, prof)
	if err := set.ModuleName("X"); err != nil {
		t.Fatalf("ModuleName failed: %v", err)
	}
	out := set.Apply()

	stored := prof.ByteOrder().Uint32(out[prof.Header.ChecksumField:])
	computed := container.ComputeHeaderChecksum(out, &prof.Header)
	if stored != computed {
		t.Errorf("stored checksum 0x%08x, computed 0x%08x", stored, computed)
	}
	if stored == img.Header.Checksum {
		t.Error("checksum unchanged although the header bytes changed")
	}
}

func TestEditsAreBoundsChecked(t *testing.T) {
	prof := defaultProfile(t)
	img := parseImage(t, buildImage(t, prof), prof)
	set := NewSet(img, prof)

	var re *RangeError
	if err := set.Section(".text", 30, []byte{1, 2, 3, 4}); !errors.As(err, &re) {
		t.Errorf("section overflow error = %v, want *RangeError", err)
	}
	if err := set.Bytes(img.Len()-2, []byte{1, 2, 3}); !errors.As(err, &re) {
		t.Errorf("image overflow error = %v, want *RangeError", err)
	}
	if err := set.ModuleName("a-name-much-longer-than-the-field-holds"); !errors.As(err, &re) {
		t.Errorf("oversized name error = %v, want *RangeError", err)
	}
	if err := set.Section(".nosuch", 0, []byte{1}); err == nil {
		t.Error("patching a missing section succeeded")
	}

	// Every edit was refused, so Apply reproduces the original exactly.
	if !bytes.Equal(set.Apply(), img.Bytes()) {
		t.Error("Apply with no staged edits altered the image")
	}
}

func TestSectionCopyIsIndependent(t *testing.T) {
	prof := defaultProfile(t)
	img := parseImage(t, buildImage(t, prof), prof)

	cp, err := SectionCopy(img, ".text")
	if err != nil {
		t.Fatalf("SectionCopy failed: %v", err)
	}
	cp[0] = 0xFF
	if img.Section(".text").Data()[0] == 0xFF {
		t.Error("writing the copy reached the image buffer")
	}

	if _, err := SectionCopy(img, ".nosuch"); err == nil {
		t.Error("SectionCopy of a missing section succeeded")
	}
}
