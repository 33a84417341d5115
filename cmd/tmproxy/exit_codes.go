package main

import (
	"errors"
	"os"

	tmproxy "github.com/alnah/go-tmproxy"
	"github.com/alnah/go-tmproxy/internal/config"
	"github.com/alnah/go-tmproxy/internal/fileutil"
	"github.com/alnah/go-tmproxy/internal/logging"
)

// Exit codes for the tmproxy CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Clean exit, including shutdown on a signal
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitNetwork = 4 // Listen address unavailable
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, ErrListen) {
		return ExitNetwork
	}

	// Usage/config/validation errors (exit 2). Checked before I/O so a
	// missing config file is reported as a configuration problem.
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidEnv) ||
		errors.Is(err, ErrURLInput) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, tmproxy.ErrMissingListenPort) ||
		errors.Is(err, tmproxy.ErrInvalidListenPort) ||
		errors.Is(err, tmproxy.ErrMissingOrigin) ||
		errors.Is(err, tmproxy.ErrInvalidOrigin) ||
		errors.Is(err, tmproxy.ErrEmptyMarker) ||
		errors.Is(err, tmproxy.ErrInvalidMarker) ||
		errors.Is(err, tmproxy.ErrInvalidTagName) ||
		errors.Is(err, logging.ErrUnknownLevel) ||
		errors.Is(err, logging.ErrUnknownFormat) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, fileutil.ErrEmptyPath) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	return ExitGeneral
}
