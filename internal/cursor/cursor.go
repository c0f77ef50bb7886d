package cursor

import "encoding/binary"

// Cursor reads integers and byte ranges from a buffer at explicit offsets.
// The zero value is unusable; construct with New, LittleEndian or BigEndian.
type Cursor struct {
	buf   []byte
	order binary.ByteOrder
}

// New returns a cursor over buf using the given byte order.
func New(buf []byte, order binary.ByteOrder) *Cursor {
	return &Cursor{buf: buf, order: order}
}

// LittleEndian returns a cursor over buf with little-endian integer reads.
func LittleEndian(buf []byte) *Cursor {
	return New(buf, binary.LittleEndian)
}

// BigEndian returns a cursor over buf with big-endian integer reads.
func BigEndian(buf []byte) *Cursor {
	return New(buf, binary.BigEndian)
}

// Len returns the buffer length.
func (c *Cursor) Len() uint32 {
	return uint32(len(c.buf))
}

// Remaining returns how many bytes lie at or after off, or 0 when off is
// past the end.
func (c *Cursor) Remaining(off uint32) uint32 {
	if off >= c.Len() {
		return 0
	}
	return c.Len() - off
}

// Order returns the byte order the cursor was constructed with.
func (c *Cursor) Order() binary.ByteOrder {
	return c.order
}

func (c *Cursor) check(off, width uint32) error {
	// off+width can wrap a uint32 for hostile offsets; compare in uint64.
	if uint64(off)+uint64(width) > uint64(len(c.buf)) {
		return &BoundsError{Offset: off, Width: width, Length: c.Len()}
	}
	return nil
}

// U8 reads one byte at off.
func (c *Cursor) U8(off uint32) (uint8, error) {
	if err := c.check(off, 1); err != nil {
		return 0, err
	}
	return c.buf[off], nil
}

// U16 reads a 16-bit unsigned integer at off.
func (c *Cursor) U16(off uint32) (uint16, error) {
	if err := c.check(off, 2); err != nil {
		return 0, err
	}
	return c.order.Uint16(c.buf[off:]), nil
}

// U32 reads a 32-bit unsigned integer at off.
func (c *Cursor) U32(off uint32) (uint32, error) {
	if err := c.check(off, 4); err != nil {
		return 0, err
	}
	return c.order.Uint32(c.buf[off:]), nil
}

// Bytes returns a view of n bytes starting at off. The slice aliases the
// underlying buffer; callers that keep it must not write through it.
func (c *Cursor) Bytes(off, n uint32) ([]byte, error) {
	if err := c.check(off, n); err != nil {
		return nil, err
	}
	return c.buf[off : off+n : off+n], nil
}
