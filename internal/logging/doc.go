// Package logging provides structured logging for the mtckit tools.
//
// This package wraps zap logger with convenience functions shared by the
// analysis CLI, the update delivery server, and module discovery. The
// decoding packages themselves do not log; they return errors, and the
// callers here decide what is worth reporting.
//
// # Log Levels
//
//   - Debug: byte-level detail (hex dumps of headers, packet scans, frames)
//   - Info: normal operations (image loaded, module connected, chunk sent)
//   - Warn: non-fatal issues (unknown opcodes collected, connection drops)
//   - Error: fatal issues (corrupt image, server startup failure)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Image parsed",
//	    zap.String("profile", "mtc-c64x"),
//	    zap.Int("sections", len(img.Sections)),
//	)
//
// # Configuration
//
// CLI commands are silent by default. Set MTCKIT_LOG_LEVEL or pass an
// explicit level to enable output:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
