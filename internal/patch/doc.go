// Package patch builds modified firmware images without touching the
// original.
//
// A Set accumulates edits against a parsed image: raw section bytes,
// the module name, version or description fields of the outer header.
// Apply copies the original buffer, writes the edits into the copy and
// refreshes the header checksum, so the result is something the
// module's own loader will accept. The image the Set was built from is
// never written to; every edit is bounds-checked when it is added, long
// before any byte moves.
//
// This is deliberately the only write path in the repository. The
// parser's section views stay read-only and re-encoding is limited to
// fields the parser itself models.
package patch
