package cursor

import (
	"errors"
	"fmt"
)

// BoundsError reports a read that would cross the end of the buffer.
type BoundsError struct {
	Offset uint32 // where the read started
	Width  uint32 // how many bytes were requested
	Length uint32 // buffer length
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("read of %d bytes at offset 0x%x exceeds buffer length 0x%x",
		e.Width, e.Offset, e.Length)
}

// IsBounds reports whether err is a bounds violation from a Cursor read.
func IsBounds(err error) bool {
	var be *BoundsError
	return errors.As(err, &be)
}
