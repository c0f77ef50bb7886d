// Package profile describes the reverse-engineered layout of MTC firmware
// images as data.
//
// Vendor documentation for the image format does not exist. Everything the
// parser knows about header geometry (field offsets, magic values, accepted
// COFF version and target ids, byte order) was recovered by inspecting
// captured update images, and is recorded here as profiles rather than
// hard-coded in parsing logic. New format variants become catalog entries or
// user-supplied YAML files, not code changes.
//
// The embedded catalog ships the profiles verified in the lab. Load returns
// it as a singleton; LoadFile parses an external profile for variants the
// catalog does not cover yet.
package profile
