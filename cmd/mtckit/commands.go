package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtckit/mtckit/internal/c64x"
	"github.com/mtckit/mtckit/internal/container"
	"github.com/mtckit/mtckit/internal/discovery"
	"github.com/mtckit/mtckit/internal/patch"
	"github.com/mtckit/mtckit/internal/profile"
	"github.com/mtckit/mtckit/internal/render"
	"github.com/mtckit/mtckit/internal/viewer"
)

// Command flags
var (
	profileName string
	profileFile string

	outputPath string

	disasmSection     string
	disasmFunc        string
	disasmStrict      bool
	disasmInteractive bool

	patchName     string
	patchDesc     string
	patchVersion  string
	patchSections []string

	scanTimeout int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Format profile name from the embedded catalog (default: "+profile.DefaultName+")")
	rootCmd.PersistentFlags().StringVar(&profileFile, "profile-file", "", "Load format profile from a YAML file (overrides --profile)")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(functionsCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(scanCmd)
}

// loadImage reads and parses an image file under the selected profile.
func loadImage(path string) (*container.Image, *profile.Profile, error) {
	prof, err := profile.Resolve(profileName, profileFile)
	if err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image: %w", err)
	}

	img, err := container.Parse(data, prof)
	if err != nil {
		return nil, nil, err
	}
	return img, prof, nil
}

// infoCmd shows the container and payload summary
var infoCmd = &cobra.Command{
	Use:   "info <image>",
	Short: "Show image summary",
	Long: `Parse an MTC firmware image and display its container header and
COFF payload summary: module name, version, payload and signature extents,
checksum state, COFF target and section/symbol counts.`,
	Example: `  # Summarise an image
  mtckit info firmware.mtc

  # Summarise under an alternate format profile
  mtckit info firmware.mtc --profile mtc-c64x-be`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	img, _, err := loadImage(args[0])
	if err != nil {
		return err
	}
	render.New(os.Stdout).Summary(img)
	return nil
}

// sectionsCmd lists the image section map
var sectionsCmd = &cobra.Command{
	Use:   "sections <image>",
	Short: "List image sections",
	Long: `List every classified region of the image: the outer header, the
COFF sections of the payload, and the checksum and signature regions,
with image offsets, lengths and load addresses.`,
	Example: `  mtckit sections firmware.mtc`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, _, err := loadImage(args[0])
		if err != nil {
			return err
		}
		render.New(os.Stdout).SectionTable(img)
		return nil
	},
}

// symbolsCmd lists the COFF symbol table
var symbolsCmd = &cobra.Command{
	Use:   "symbols <image>",
	Short: "List COFF symbols",
	Long: `List the symbol table of the COFF payload. Images stripped by the
vendor's release process carry no symbols; the command reports that
rather than failing.`,
	Example: `  mtckit symbols firmware.mtc`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, _, err := loadImage(args[0])
		if err != nil {
			return err
		}
		if len(img.Symbols()) == 0 {
			fmt.Println("Image carries no symbols (stripped).")
			return nil
		}
		render.New(os.Stdout).SymbolTable(img)
		return nil
	},
}

// functionsCmd lists function symbols with their extents
var functionsCmd = &cobra.Command{
	Use:   "functions <image>",
	Short: "List function symbols",
	Long: `List function symbols in load-address order, with the extent of
each one (bounded by the next function in the same section, or the
section end).`,
	Example: `  mtckit functions firmware.mtc`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, _, err := loadImage(args[0])
		if err != nil {
			return err
		}
		if len(img.Functions()) == 0 {
			fmt.Println("Image carries no function symbols.")
			return nil
		}
		render.New(os.Stdout).FunctionTable(img)
		return nil
	},
}

// extractCmd writes the COFF payload to a file
var extractCmd = &cobra.Command{
	Use:   "extract <image>",
	Short: "Extract the COFF payload",
	Long: `Write the raw COFF payload of an image to a file, for use with
external TI COFF tooling. The payload is written byte-for-byte as it
appears in the image.`,
	Example: `  # Write firmware.mtc.coff next to the image
  mtckit extract firmware.mtc

  # Explicit output path
  mtckit extract firmware.mtc -o payload.coff`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: <image>.coff)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	img, _, err := loadImage(args[0])
	if err != nil {
		return err
	}

	out := outputPath
	if out == "" {
		out = args[0] + ".coff"
	}

	payload := img.Payload()
	if err := os.WriteFile(out, payload, 0644); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}

	fmt.Printf("Wrote %d bytes to %s\n", len(payload), out)
	return nil
}

// disasmCmd disassembles code from the image
var disasmCmd = &cobra.Command{
	Use:   "disasm <image>",
	Short: "Disassemble TMS320C6000 code",
	Long: `Disassemble code sections of the image. By default every code
section is disassembled in turn; --section restricts to one section and
--func to one function symbol.

Decoding is best-effort: literal pools and padding inside code sections
decode as garbage, so undecodable words and packet violations are
collected and reported after the listing. Use --strict to abort on the
first failure instead.

With --interactive the listing opens in a scrollable viewer with
search ('/', then n/N to step through matches).`,
	Example: `  # Disassemble all code sections
  mtckit disasm firmware.mtc

  # One section, strict decoding
  mtckit disasm firmware.mtc --section .text --strict

  # One function, in the interactive viewer
  mtckit disasm firmware.mtc --func _auth_check --interactive`,
	Args: cobra.ExactArgs(1),
	RunE: runDisasm,
}

func init() {
	disasmCmd.Flags().StringVar(&disasmSection, "section", "", "Disassemble only the named section")
	disasmCmd.Flags().StringVar(&disasmFunc, "func", "", "Disassemble only the named function symbol")
	disasmCmd.Flags().BoolVar(&disasmStrict, "strict", false, "Abort on the first undecodable instruction")
	disasmCmd.Flags().BoolVar(&disasmInteractive, "interactive", false, "Open the listing in the interactive viewer")
}

// disasmTarget is one named code range to disassemble.
type disasmTarget struct {
	name string
	code []byte
	base uint32
}

func runDisasm(cmd *cobra.Command, args []string) error {
	if disasmSection != "" && disasmFunc != "" {
		return fmt.Errorf("--section and --func are mutually exclusive")
	}

	img, _, err := loadImage(args[0])
	if err != nil {
		return err
	}

	targets, err := disasmTargets(img)
	if err != nil {
		return err
	}
	if disasmInteractive && len(targets) > 1 {
		return fmt.Errorf("image has %d code sections; use --section or --func with --interactive", len(targets))
	}

	opts := c64x.Options{Strict: disasmStrict}
	r := render.New(os.Stdout)

	for _, t := range targets {
		listing, err := c64x.Disassemble(t.code, t.base, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", t.name, err)
		}

		if disasmInteractive {
			return viewer.Run(fmt.Sprintf("%s  %s", args[0], t.name), listing)
		}

		fmt.Printf("%s:\n", t.name)
		r.Listing(listing)
		fmt.Println()
	}

	return nil
}

func disasmTargets(img *container.Image) ([]disasmTarget, error) {
	if disasmFunc != "" {
		for _, fn := range img.Functions() {
			if fn.Name != disasmFunc {
				continue
			}
			code, addr, err := img.FunctionBytes(fn)
			if err != nil {
				return nil, err
			}
			return []disasmTarget{{name: fn.Name, code: code, base: addr}}, nil
		}
		return nil, fmt.Errorf("no function symbol named %s (try 'mtckit functions')", disasmFunc)
	}

	if disasmSection != "" {
		s := img.Section(disasmSection)
		if s == nil {
			return nil, fmt.Errorf("no section named %s (try 'mtckit sections')", disasmSection)
		}
		if s.Kind != container.KindCode {
			return nil, fmt.Errorf("section %s is %s, not code", s.Name, s.Kind)
		}
		return []disasmTarget{{name: s.Name, code: s.Data(), base: s.LoadAddr}}, nil
	}

	code := img.CodeSections()
	if len(code) == 0 {
		return nil, fmt.Errorf("image has no code sections")
	}
	targets := make([]disasmTarget, 0, len(code))
	for _, s := range code {
		targets = append(targets, disasmTarget{name: s.Name, code: s.Data(), base: s.LoadAddr})
	}
	return targets, nil
}

// patchCmd applies header and section edits and writes a new image
var patchCmd = &cobra.Command{
	Use:   "patch <image>",
	Short: "Patch an image",
	Long: `Apply edits to an image and write the result to a new file. The
input image is never modified. Edits are staged, bounds-checked against
the parsed layout, and applied in one pass; the header checksum is
recomputed when the original image carried one.

Section writes take the form NAME:OFFSET:FILE, where OFFSET is relative
to the start of the named section and FILE supplies the bytes.`,
	Example: `  # Rename the module and bump the version
  mtckit patch firmware.mtc --set-name MTC_CUSTOM --set-version 2.4.1.0 -o patched.mtc

  # Overwrite 8 bytes at the start of .text
  mtckit patch firmware.mtc --write-section .text:0:stub.bin -o patched.mtc`,
	Args: cobra.ExactArgs(1),
	RunE: runPatch,
}

func init() {
	patchCmd.Flags().StringVar(&patchName, "set-name", "", "Set the module name header field")
	patchCmd.Flags().StringVar(&patchDesc, "set-desc", "", "Set the description header field")
	patchCmd.Flags().StringVar(&patchVersion, "set-version", "", "Set the version header field (a.b.c.d)")
	patchCmd.Flags().StringArrayVar(&patchSections, "write-section", nil, "Write bytes into a section (NAME:OFFSET:FILE, repeatable)")
	patchCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (required)")
	patchCmd.MarkFlagRequired("output")
}

func runPatch(cmd *cobra.Command, args []string) error {
	if patchName == "" && patchDesc == "" && patchVersion == "" && len(patchSections) == 0 {
		return fmt.Errorf("no edits requested")
	}

	img, prof, err := loadImage(args[0])
	if err != nil {
		return err
	}

	set := patch.NewSet(img, prof)

	if patchName != "" {
		if err := set.ModuleName(patchName); err != nil {
			return err
		}
	}
	if patchDesc != "" {
		if err := set.Description(patchDesc); err != nil {
			return err
		}
	}
	if patchVersion != "" {
		v, err := parseVersion(patchVersion)
		if err != nil {
			return err
		}
		if err := set.Version(v); err != nil {
			return err
		}
	}
	for _, spec := range patchSections {
		name, off, data, err := parseSectionWrite(spec)
		if err != nil {
			return err
		}
		if err := set.Section(name, off, data); err != nil {
			return err
		}
	}

	patched := set.Apply()

	// Re-parse before writing: a patch that produces an unparseable
	// image is a bug worth catching here rather than on the module.
	if _, err := container.Parse(patched, prof); err != nil {
		return fmt.Errorf("patched image does not parse: %w", err)
	}

	if err := os.WriteFile(outputPath, patched, 0644); err != nil {
		return fmt.Errorf("failed to write patched image: %w", err)
	}

	fmt.Printf("Wrote %d bytes to %s\n", len(patched), outputPath)
	return nil
}

// parseVersion parses dotted-decimal version strings like "2.4.1.0".
func parseVersion(s string) ([4]uint8, error) {
	var v [4]uint8
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return v, fmt.Errorf("invalid version %q (want a.b.c.d)", s)
	}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return v, fmt.Errorf("invalid version component %q: %w", p, err)
		}
		v[i] = uint8(n)
	}
	return v, nil
}

// parseSectionWrite parses a NAME:OFFSET:FILE section write spec.
func parseSectionWrite(spec string) (string, uint32, []byte, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return "", 0, nil, fmt.Errorf("invalid section write %q (want NAME:OFFSET:FILE)", spec)
	}
	off, err := strconv.ParseUint(parts[1], 0, 32)
	if err != nil {
		return "", 0, nil, fmt.Errorf("invalid offset in %q: %w", spec, err)
	}
	data, err := os.ReadFile(parts[2])
	if err != nil {
		return "", 0, nil, fmt.Errorf("failed to read patch data: %w", err)
	}
	return parts[0], uint32(off), data, nil
}

// scanCmd discovers modules on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for MTC modules on the network",
	Long: `Scan for MTC modules using mDNS/DNS-SD discovery.

Modules advertise their maintenance interface as _mtc-maint._tcp; the
scan lists every module seen within the timeout, with its serial
number, address and TXT metadata (model, running firmware version).`,
	Example: `  # Scan for 10 seconds (default)
  mtckit scan

  # Quick 3-second scan
  mtckit scan --timeout 3`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for MTC modules (timeout: %ds)...\n\n", scanTimeout)

	modules, err := discovery.ScanForModules(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(modules) == 0 {
		fmt.Println("No modules found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the module is powered on and on the same network segment")
		fmt.Println("  - mDNS does not cross subnets; scan from the module's own subnet")
		fmt.Println("  - Try increasing --timeout for slower networks")
		return nil
	}

	fmt.Printf("Found %d module(s):\n\n", len(modules))

	for i, m := range modules {
		fmt.Printf("%d. %s\n", i+1, m.Hostname)
		fmt.Printf("   Serial:  %s\n", m.Serial)
		fmt.Printf("   IP:      %s:%d\n", m.IP, m.Port)
		if model := m.Model(); model != "" {
			fmt.Printf("   Model:   %s\n", model)
		}
		if fw := m.RunningVersion(); fw != "" {
			fmt.Printf("   Running: %s\n", fw)
		}
		fmt.Println()
	}

	return nil
}
