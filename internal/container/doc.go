// Package container parses MTC firmware images into sections.
//
// An MTC image is what the module downloads over the update channel: a
// fixed-size outer header (magic "MTCH", module name, version, payload and
// signature extents, additive checksum) followed by a TI COFF2 object file
// holding the actual code and data, and optionally a trailing signature
// block. All geometry comes from a profile; this package contains no
// hard-coded offsets.
//
// Parse validates the whole image before returning it. Failures split into
// two families:
//
//   - FormatError: the buffer does not look like this profile's format at
//     all (wrong magic, unaccepted COFF version or target id). Recoverable;
//     the caller may retry with a different profile.
//   - CorruptError: the magic matched but the structure is inconsistent
//     (truncated header, section table past the end of the buffer,
//     overlapping sections, bad string table reference). The image is
//     rejected wholesale; there are no partial results.
//
// The returned Image exposes a classified section table (header, code,
// signature, metadata regions), the raw COFF section headers, and the
// symbol table, including the function symbols the original firmware was
// built with. Section data accessors
// return views into the image buffer; callers must not write through them.
// Patching is copy-on-write and lives in the patch package.
package container
