// Mtckit is an analysis toolkit for MTC firmware images.
//
// It parses the MTC container format and its TI COFF2 payload, lists
// sections and symbols, disassembles TMS320C6000 code ranges, applies
// byte-level patches, and discovers modules on the local network.
// Everything works on image files; no hardware is required.
//
// Usage:
//
//	mtckit [command] [flags]
//
// See 'mtckit --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mtckit/mtckit/internal/logging"
	"github.com/mtckit/mtckit/internal/version"
)

func main() {
	// Silent unless MTCKIT_LOG_LEVEL is set
	_ = logging.InitializeFromEnv()

	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mtckit",
	Short: "MTC Firmware Analysis Toolkit",
	Long: `A standalone toolkit for analysing MTC firmware images.

Parses the MTC container and its TI COFF2 payload, lists sections and
symbols, disassembles TMS320C6000 code, applies byte-level patches and
discovers modules over mDNS.

All image commands accept --profile to select a format profile from the
embedded catalog, or --profile-file to load one from a YAML file.`,
	Version: version.Version,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mtckit %s (commit: %s)\n", version.Version, version.Commit)
	},
}
