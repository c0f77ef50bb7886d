package container

import (
	"errors"
	"fmt"
)

// FormatError indicates the buffer does not match the profile's format.
// Recoverable: the caller may retry the same bytes with another profile.
type FormatError struct {
	Profile string // profile the buffer was tried against
	Offset  uint32 // where the mismatch was seen
	Detail  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("not a %s image: %s (at offset 0x%x)", e.Profile, e.Detail, e.Offset)
}

// CorruptError indicates the image matched the format but its structure is
// inconsistent. Fatal for the image: parsing stops and nothing partial is
// returned.
type CorruptError struct {
	Offset uint32 // offset of the offending structure
	Detail string
	Err    error // underlying cause, when one exists
}

func (e *CorruptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt image at offset 0x%x: %s: %v", e.Offset, e.Detail, e.Err)
	}
	return fmt.Sprintf("corrupt image at offset 0x%x: %s", e.Offset, e.Detail)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// IsUnrecognizedFormat reports whether err means the bytes are not this
// format, as opposed to being a damaged instance of it.
func IsUnrecognizedFormat(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsCorrupt reports whether err is a structural corruption verdict.
func IsCorrupt(err error) bool {
	var ce *CorruptError
	return errors.As(err, &ce)
}
