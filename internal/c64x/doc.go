// Package c64x disassembles TMS320C64x (C6000-family VLIW) machine code.
//
// The CPU fetches 8 instruction words per cycle and issues between 1 and
// 8 of them in parallel across its functional units (.L1 .S1 .M1 .D1 and
// their B-side twins). Which words issue together is encoded in each
// word's p-bit; an execute packet never crosses the 32-byte fetch-packet
// boundary.
//
// The package works in three layers that mirror that structure:
//
//   - ScanPackets carves a code range into execute packets using only
//     the p-bit chain; it knows nothing about opcodes.
//   - Decode turns one 32-bit word into an Instruction: mnemonic, unit,
//     operands, predicate, cross-path use and delay slots, driven by the
//     per-unit opcode tables in tables.go.
//   - Disassemble runs both over a whole range, checks per-packet
//     legality (one instruction per unit), resolves branch targets and
//     returns an address-ordered Listing.
//
// Decoding is deliberately fail-closed: a bit pattern outside the tables
// is reported as an unknown opcode rather than guessed at, because a
// plausible-looking wrong listing is far more dangerous to build patches
// against than a hole. The tables cover the C62x fixed-point base ISA,
// which is the subset the module's firmware is compiled to; C64x-only
// extended encodings surface as unknown opcodes.
//
// Everything here is pure: no global state, no I/O, deterministic output
// for a given input range. Decoding different images concurrently needs
// no coordination.
package c64x
