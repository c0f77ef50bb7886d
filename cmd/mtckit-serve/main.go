// Mtckit-serve is a firmware-update delivery server for MTC modules.
//
// It stages a single MTC firmware image and serves it to modules that
// connect to the update endpoint over WebSocket, speaking the module's
// own update protocol: a control handshake, chunked binary transfer
// with per-chunk acknowledgements, and a final status report. Built for
// bench work against modules pointed at a replacement update host.
//
// Usage:
//
//	mtckit-serve serve [flags]
//
// See 'mtckit-serve serve --help' for available options.
package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mtckit/mtckit/internal/profile"
	"github.com/mtckit/mtckit/internal/update"
	"github.com/mtckit/mtckit/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mtckit-serve",
	Short: "MTC Firmware Update Delivery Server",
	Long: `A standalone delivery server for MTC module firmware updates.

Stages one firmware image and delivers it to modules connecting on the
update endpoint, using the module's own chunked WebSocket protocol.

Note: for image analysis and patching, use the separate 'mtckit' utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	listenAddr  string
	imagePath   string
	chunkSize   int
	logLevel    string
	profileName string
	profileFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the update delivery server",
	Long: `Start the delivery server with a staged firmware image.

The image is parsed on startup so the offer sent to connecting modules
carries the real module name and version from the container header; an
image that does not parse is still served, under its file name, for
work on deliberately malformed containers.`,
	Example: `  # Serve an image on the default port
  mtckit-serve serve --image firmware.mtc

  # Custom listen address and smaller chunks
  mtckit-serve serve --image firmware.mtc --listen 0.0.0.0:8630 --chunk-size 1024

  # Verbose protocol logging
  mtckit-serve serve --image firmware.mtc --log-level debug`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", ":7630", "Listen address (host:port)")
	serveCmd.Flags().StringVar(&imagePath, "image", "", "Firmware image to stage (required)")
	serveCmd.Flags().IntVar(&chunkSize, "chunk-size", update.DefaultChunkSize, "Transfer chunk size in bytes")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&profileName, "profile", "", "Format profile name for image metadata")
	serveCmd.Flags().StringVar(&profileFile, "profile-file", "", "Load format profile from a YAML file")
	serveCmd.MarkFlagRequired("image")
}

func runServe(cmd *cobra.Command, args []string) error {
	if chunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive")
	}

	host, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", listenAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid listen port %q: %w", portStr, err)
	}

	prof, err := profile.Resolve(profileName, profileFile)
	if err != nil {
		return err
	}

	staged, err := update.StageFile(imagePath, prof)
	if err != nil {
		return err
	}

	fmt.Printf("Staged %s: %s version %s (%d bytes, sha256 %s)\n",
		imagePath, staged.Name, staged.Version, staged.Size(), staged.SHA256)

	config := &update.Config{
		Host:      host,
		Port:      port,
		ChunkSize: chunkSize,
		LogLevel:  logLevel,
	}

	srv, err := update.New(config, staged)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mtckit-serve %s (commit: %s)\n", version.Version, version.Commit)
	},
}
