package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mtckit/mtckit/internal/c64x"
	"github.com/mtckit/mtckit/internal/container"
)

// Renderer writes human-readable views of parsed images. Styling is
// decided at construction and never re-probed per call.
type Renderer struct {
	w      io.Writer
	styled bool
}

// New returns a renderer for w, styled when w is a terminal.
func New(w io.Writer) *Renderer {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = term.IsTerminal(int(f.Fd()))
	}
	return &Renderer{w: w, styled: styled}
}

// NewPlain returns a renderer that never emits styling, for pipes and
// test output.
func NewPlain(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

func (r *Renderer) s(style interface{ Render(...string) string }, text string) string {
	if !r.styled {
		return text
	}
	return style.Render(text)
}

func (r *Renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

// Summary prints the outer header metadata and payload shape.
func (r *Renderer) Summary(img *container.Image) {
	hdr := &img.Header
	r.printf("%s\n", r.s(HeaderStyle, "MTC firmware image"))

	row := func(label, value string) {
		r.printf("%s %s\n", r.s(LabelStyle, label), r.s(ValueStyle, value))
	}
	row("Module", hdr.ModuleName)
	row("Version", hdr.VersionString())
	row("Description", hdr.Description)
	row("Image size", fmt.Sprintf("%d bytes", img.Len()))
	row("Payload", fmt.Sprintf("COFF 0x%04x, target 0x%04x, %d sections, %d symbols",
		img.COFF.File.Version, img.COFF.File.TargetID, len(img.COFF.Sections), len(img.Symbols())))
	if n := img.COFF.RelocationCount(); n > 0 {
		row("Relocations", fmt.Sprintf("%d entries (image is partially linked)", n))
	}
	if hdr.Signed() {
		row("Signature", fmt.Sprintf("%d bytes at 0x%x (present, not verified here)",
			hdr.SignatureLength, hdr.SignatureOffset))
	} else {
		row("Signature", "none")
	}
	if opt := img.COFF.Optional; opt != nil {
		row("Entry point", fmt.Sprintf("0x%08x", opt.Entry))
	}
	row("Profile", img.ProfileName)
}

// SectionTable prints the classified section table.
func (r *Renderer) SectionTable(img *container.Image) {
	r.printf("%s\n", r.s(HeaderStyle,
		fmt.Sprintf("%-16s %-9s %10s %10s %12s", "NAME", "KIND", "OFFSET", "LENGTH", "LOAD ADDR")))
	for _, scn := range img.Sections {
		load := "-"
		if scn.LoadAddr != 0 {
			load = fmt.Sprintf("0x%08x", scn.LoadAddr)
		}
		r.printf("%-16s %-9s %s %10d %12s\n",
			scn.Name, scn.Kind,
			r.s(AddrStyle, fmt.Sprintf("0x%08x", scn.Offset)),
			scn.Length, load)
	}
}

// SymbolTable prints every symbol with its value and section.
func (r *Renderer) SymbolTable(img *container.Image) {
	r.printf("%s\n", r.s(HeaderStyle,
		fmt.Sprintf("%10s  %-5s %-4s %s", "VALUE", "SCN", "TYPE", "NAME")))
	for _, sym := range img.Symbols() {
		tag := ""
		if sym.IsFunction() {
			tag = "fn"
		}
		r.printf("%s  %5d %-4s %s\n",
			r.s(AddrStyle, fmt.Sprintf("0x%08x", sym.Value)),
			sym.SectionNum, tag, sym.Name)
	}
}

// FunctionTable prints function symbols with their recovered extents.
func (r *Renderer) FunctionTable(img *container.Image) {
	r.printf("%s\n", r.s(HeaderStyle, fmt.Sprintf("%10s %8s  %s", "ADDR", "BYTES", "FUNCTION")))
	for _, fn := range img.Functions() {
		body, _, err := img.FunctionBytes(fn)
		size := "?"
		if err == nil {
			size = fmt.Sprintf("%d", len(body))
		}
		r.printf("%s %8s  %s\n",
			r.s(AddrStyle, fmt.Sprintf("0x%08x", fn.Value)), size, fn.Name)
	}
}

// Listing prints a disassembly listing, one instruction per line, with
// parallel bars marking instructions that issue with the previous one.
func (r *Renderer) Listing(l *c64x.Listing) {
	for i := range l.Instructions {
		in := &l.Instructions[i]
		r.printf("%s\n", r.instructionLine(in))
	}
	if !l.Clean() {
		r.printf("\n%s\n", r.s(BadStyle, fmt.Sprintf("%d decode issue(s):", len(l.Issues))))
		for _, issue := range l.Issues {
			r.printf("  %s\n", r.s(BadStyle, issue.Err.Error()))
		}
	}
}

func (r *Renderer) instructionLine(in *c64x.Instruction) string {
	bar := "  "
	if in.Slot > 0 {
		bar = "||"
	}

	addr := r.s(AddrStyle, fmt.Sprintf("%08x", in.Addr))
	raw := r.s(RawStyle, fmt.Sprintf("%08x", in.Word))

	if in.Invalid {
		return fmt.Sprintf("%s  %s  %s %s", addr, raw, bar,
			r.s(BadStyle, fmt.Sprintf(".word 0x%08x  ; undecoded", in.Word)))
	}

	var b strings.Builder
	if in.Pred != nil {
		b.WriteString(r.s(PredStyle, fmt.Sprintf("%-6s", in.Pred)))
	} else {
		b.WriteString("      ")
	}
	b.WriteString(r.s(MnemStyle, in.Mnemonic))
	if in.Unit != c64x.UnitNone {
		b.WriteString(r.s(MnemStyle, " "+in.Unit.String()))
		if in.Cross {
			b.WriteString(r.s(PredStyle, "X"))
		}
	}
	if len(in.Operands) > 0 {
		ops := make([]string, len(in.Operands))
		for i, op := range in.Operands {
			ops[i] = op.String()
		}
		b.WriteString("  ")
		b.WriteString(r.s(ValueStyle, strings.Join(ops, ",")))
	}
	return fmt.Sprintf("%s  %s  %s %s", addr, raw, bar, b.String())
}

// ListingLines renders a listing as plain text lines, for the
// interactive viewer.
func ListingLines(l *c64x.Listing) []string {
	plain := NewPlain(io.Discard)
	lines := make([]string, 0, len(l.Instructions))
	for i := range l.Instructions {
		lines = append(lines, plain.instructionLine(&l.Instructions[i]))
	}
	return lines
}

// hexDumpWidth is bytes per dump row.
const hexDumpWidth = 16

// HexDump prints data in offset/hex/ASCII rows, offsets relative to
// base.
func (r *Renderer) HexDump(data []byte, base uint32) {
	for row := 0; row < len(data); row += hexDumpWidth {
		end := row + hexDumpWidth
		if end > len(data) {
			end = len(data)
		}
		chunk := data[row:end]

		var hexPart, asciiPart strings.Builder
		for i := 0; i < hexDumpWidth; i++ {
			if i == hexDumpWidth/2 {
				hexPart.WriteByte(' ')
			}
			if i < len(chunk) {
				fmt.Fprintf(&hexPart, "%02x ", chunk[i])
				if chunk[i] >= 0x20 && chunk[i] < 0x7F {
					asciiPart.WriteByte(chunk[i])
				} else {
					asciiPart.WriteByte('.')
				}
			} else {
				hexPart.WriteString("   ")
			}
		}
		r.printf("%s  %s |%s|\n",
			r.s(AddrStyle, fmt.Sprintf("%08x", base+uint32(row))),
			r.s(RawStyle, hexPart.String()),
			asciiPart.String())
	}
}
