// Package render prints parsed images and disassembly listings.
//
// The decoding core never formats anything; this package is the
// presentation collaborator that turns its read-only structures into
// text. Output is styled with lipgloss when the destination is a
// terminal and falls back to plain text for pipes and files, so
// `mtckit disasm image.mtc > listing.txt` yields grep-able output.
package render
