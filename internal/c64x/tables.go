package c64x

// operandForm names the field-to-operand mapping of a table entry. Field
// positions are fixed across formats (dst 27-23, src2 22-18, src1 17-13);
// what varies is which fields are registers, register pairs or constants,
// and their order in assembly syntax. Forms with a register pair in the
// src2 field cannot take the cross path; decode rejects x=1 for them.
type operandForm uint8

const (
	formS1S2D   operandForm = iota // src1, src2^x, dst
	formS2S1D                      // src2^x, src1, dst
	formC5S2D                      // scst5, src2^x, dst
	formU5S2D                      // ucst5, src2^x, dst
	formS2D                        // src2^x, dst
	formS2U5D                      // src2^x, ucst5, dst
	formS1S2PD                     // src1, src2^x, dst pair
	formS1PS2PD                    // src1, src2 pair, dst pair (no cross)
	formC5PS2PD                    // scst5, src2 pair, dst pair (no cross)
	formS1PS2D                     // src1, src2 pair, dst (no cross)
	formC5PS2D                     // scst5, src2 pair, dst (no cross)
	formU5PS2D                     // ucst5, src2 pair, dst (no cross)
	formPS2D                       // src2 pair, dst (no cross)
	formPS2PD                      // src2 pair, dst pair (no cross)
	formDS2S1D                     // src2, src1, dst (.D register form, no x bit)
	formDS2U5D                     // src2, ucst5, dst (.D constant form, no x bit)
	formMVCRead                    // control(src2 code), dst
	formMVCWrite                   // src2^x, control(dst code)
	formBReg                       // src2^x
	formBCtrl                      // IRP or NRP from the src2 code
)

type opEntry struct {
	mnem  string
	form  operandForm
	flags instFlags

	// side2Only restricts the encoding to the B-side unit (MVC and
	// register branches exist on .S2 only)
	side2Only bool
}

// lOps is the .L-unit map, keyed by the 7-bit op field (bits 11-5).
var lOps = map[uint32]opEntry{
	0x02: {mnem: "ADD", form: formC5S2D},
	0x03: {mnem: "ADD", form: formS1S2D},
	0x06: {mnem: "SUB", form: formC5S2D},
	0x07: {mnem: "SUB", form: formS1S2D},
	0x0E: {mnem: "SSUB", form: formC5S2D},
	0x0F: {mnem: "SSUB", form: formS1S2D},
	0x12: {mnem: "SADD", form: formC5S2D},
	0x13: {mnem: "SADD", form: formS1S2D},
	0x17: {mnem: "SUB", form: formS2S1D},
	0x1A: {mnem: "ABS", form: formS2D},
	0x21: {mnem: "ADD", form: formC5PS2PD},
	0x23: {mnem: "ADD", form: formS1PS2PD},
	0x29: {mnem: "ADDU", form: formS1PS2PD},
	0x2B: {mnem: "ADDU", form: formS1S2PD},
	0x2F: {mnem: "SUBU", form: formS1S2PD},
	0x30: {mnem: "SADD", form: formC5PS2PD},
	0x31: {mnem: "SADD", form: formS1PS2PD},
	0x38: {mnem: "ABS", form: formPS2PD},
	0x40: {mnem: "SAT", form: formPS2D},
	0x44: {mnem: "CMPGT", form: formC5PS2D},
	0x45: {mnem: "CMPGT", form: formS1PS2D},
	0x46: {mnem: "CMPGT", form: formC5S2D},
	0x47: {mnem: "CMPGT", form: formS1S2D},
	0x4B: {mnem: "SUBC", form: formS1S2D},
	0x4C: {mnem: "CMPGTU", form: formU5PS2D},
	0x4D: {mnem: "CMPGTU", form: formS1PS2D},
	0x4E: {mnem: "CMPGTU", form: formU5S2D},
	0x4F: {mnem: "CMPGTU", form: formS1S2D},
	0x50: {mnem: "CMPEQ", form: formC5PS2D},
	0x51: {mnem: "CMPEQ", form: formS1PS2D},
	0x52: {mnem: "CMPEQ", form: formC5S2D},
	0x53: {mnem: "CMPEQ", form: formS1S2D},
	0x54: {mnem: "CMPLT", form: formC5PS2D},
	0x55: {mnem: "CMPLT", form: formS1PS2D},
	0x56: {mnem: "CMPLT", form: formC5S2D},
	0x57: {mnem: "CMPLT", form: formS1S2D},
	0x5C: {mnem: "CMPLTU", form: formU5PS2D},
	0x5D: {mnem: "CMPLTU", form: formS1PS2D},
	0x5E: {mnem: "CMPLTU", form: formU5S2D},
	0x5F: {mnem: "CMPLTU", form: formS1S2D},
	0x60: {mnem: "NORM", form: formPS2D},
	0x63: {mnem: "NORM", form: formS2D},
	0x6A: {mnem: "LMBD", form: formU5S2D},
	0x6B: {mnem: "LMBD", form: formS1S2D},
	0x6E: {mnem: "XOR", form: formC5S2D},
	0x6F: {mnem: "XOR", form: formS1S2D},
	0x7A: {mnem: "AND", form: formC5S2D},
	0x7B: {mnem: "AND", form: formS1S2D},
	0x7E: {mnem: "OR", form: formC5S2D},
	0x7F: {mnem: "OR", form: formS1S2D},
}

// sOps is the .S-unit map, keyed by the 6-bit op field (bits 11-6). MVK,
// ADDK, branch displacements and the bit-field constants have their own
// formats and are not in here.
var sOps = map[uint32]opEntry{
	0x01: {mnem: "ADD2", form: formS1S2D},
	0x03: {mnem: "B", form: formBCtrl, flags: flagBranch, side2Only: true},
	0x06: {mnem: "ADD", form: formC5S2D},
	0x07: {mnem: "ADD", form: formS1S2D},
	0x0A: {mnem: "XOR", form: formC5S2D},
	0x0B: {mnem: "XOR", form: formS1S2D},
	0x0D: {mnem: "B", form: formBReg, flags: flagBranch, side2Only: true},
	0x0E: {mnem: "MVC", form: formMVCWrite, side2Only: true},
	0x0F: {mnem: "MVC", form: formMVCRead, side2Only: true},
	0x11: {mnem: "SUB2", form: formS1S2D},
	0x16: {mnem: "SUB", form: formC5S2D},
	0x17: {mnem: "SUB", form: formS1S2D},
	0x1A: {mnem: "OR", form: formC5S2D},
	0x1B: {mnem: "OR", form: formS1S2D},
	0x1E: {mnem: "AND", form: formC5S2D},
	0x1F: {mnem: "AND", form: formS1S2D},
	0x22: {mnem: "SSHL", form: formS2U5D},
	0x23: {mnem: "SSHL", form: formS2S1D},
	0x26: {mnem: "SHRU", form: formS2U5D},
	0x27: {mnem: "SHRU", form: formS2S1D},
	0x2B: {mnem: "EXTU", form: formS2S1D},
	0x2F: {mnem: "EXT", form: formS2S1D},
	0x32: {mnem: "SHL", form: formS2U5D},
	0x33: {mnem: "SHL", form: formS2S1D},
	0x36: {mnem: "SHR", form: formS2U5D},
	0x37: {mnem: "SHR", form: formS2S1D},
	0x3B: {mnem: "SET", form: formS2S1D},
	0x3F: {mnem: "CLR", form: formS2S1D},
}

// mOps is the .M-unit map, keyed by the 5-bit op field (bits 11-7). Every
// multiply has one delay slot.
var mOps = map[uint32]opEntry{
	0x01: {mnem: "MPYH", form: formS1S2D, flags: flagMul},
	0x02: {mnem: "SMPYH", form: formS1S2D, flags: flagMul},
	0x03: {mnem: "MPYHSU", form: formS1S2D, flags: flagMul},
	0x05: {mnem: "MPYHUS", form: formS1S2D, flags: flagMul},
	0x07: {mnem: "MPYHU", form: formS1S2D, flags: flagMul},
	0x09: {mnem: "MPYHL", form: formS1S2D, flags: flagMul},
	0x0A: {mnem: "SMPYHL", form: formS1S2D, flags: flagMul},
	0x11: {mnem: "MPYLH", form: formS1S2D, flags: flagMul},
	0x12: {mnem: "SMPYLH", form: formS1S2D, flags: flagMul},
	0x18: {mnem: "MPY", form: formC5S2D, flags: flagMul},
	0x19: {mnem: "MPY", form: formS1S2D, flags: flagMul},
	0x1A: {mnem: "SMPY", form: formS1S2D, flags: flagMul},
	0x1B: {mnem: "MPYSU", form: formS1S2D, flags: flagMul},
	0x1D: {mnem: "MPYUS", form: formS1S2D, flags: flagMul},
	0x1E: {mnem: "MPYSU", form: formC5S2D, flags: flagMul},
	0x1F: {mnem: "MPYU", form: formS1S2D, flags: flagMul},
}

// dOps is the .D-unit register map, keyed by the 6-bit op field (bits
// 12-7). Loads and stores have their own formats.
var dOps = map[uint32]opEntry{
	0x10: {mnem: "ADD", form: formDS2S1D},
	0x11: {mnem: "SUB", form: formDS2S1D},
	0x12: {mnem: "ADD", form: formDS2U5D},
	0x13: {mnem: "SUB", form: formDS2U5D},
	0x30: {mnem: "ADDAB", form: formDS2S1D},
	0x31: {mnem: "SUBAB", form: formDS2S1D},
	0x32: {mnem: "ADDAB", form: formDS2U5D},
	0x33: {mnem: "SUBAB", form: formDS2U5D},
	0x34: {mnem: "ADDAH", form: formDS2S1D},
	0x35: {mnem: "SUBAH", form: formDS2S1D},
	0x36: {mnem: "ADDAH", form: formDS2U5D},
	0x37: {mnem: "SUBAH", form: formDS2U5D},
	0x38: {mnem: "ADDAW", form: formDS2S1D},
	0x39: {mnem: "SUBAW", form: formDS2S1D},
	0x3A: {mnem: "ADDAW", form: formDS2U5D},
	0x3B: {mnem: "SUBAW", form: formDS2U5D},
}

// ldstMnems maps the 3-bit load/store op field (bits 6-4).
var ldstMnems = [8]struct {
	mnem  string
	flags instFlags
}{
	{"LDHU", flagLoad},
	{"LDBU", flagLoad},
	{"LDB", flagLoad},
	{"STB", flagStore},
	{"LDH", flagLoad},
	{"STH", flagStore},
	{"LDW", flagLoad},
	{"STW", flagStore},
}

// fieldOpMnems maps the 2-bit op (bits 7-6) of the immediate bit-field
// format.
var fieldOpMnems = [4]string{"EXTU", "EXT", "SET", "CLR"}
