// Package cursor provides bounds-checked reads over a raw firmware buffer.
//
// A Cursor wraps a byte slice together with a declared byte order and
// exposes integer and slice reads at arbitrary offsets. Every read is
// validated against the buffer length before any byte is touched. There is
// no read position: callers pass explicit offsets, so a parse failure
// always knows exactly where it happened.
//
// Reads never wrap, never truncate, and never return partial data. A read
// that would cross the end of the buffer returns a *BoundsError carrying
// the offset and requested width.
package cursor
