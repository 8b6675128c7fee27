package main

import (
	"context"
	"errors"
	"os"

	convertmd "github.com/alnah/go-convert-md"
	"github.com/alnah/go-convert-md/internal/config"
)

// Exit codes for the convert-md CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid arguments, flags, or config
	ExitIO      = 3 // Missing input, write failure
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, convertmd.ErrBrowserConnect) ||
		errors.Is(err, convertmd.ErrPageCreate) ||
		errors.Is(err, convertmd.ErrPageLoad) ||
		errors.Is(err, convertmd.ErrPDFGeneration) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, convertmd.ErrInputNotFound) ||
		errors.Is(err, convertmd.ErrWriteOutput) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, convertmd.ErrInvalidFormat) ||
		errors.Is(err, convertmd.ErrInvalidPageSize) ||
		errors.Is(err, convertmd.ErrInvalidMargin) ||
		errors.Is(err, convertmd.ErrInvalidRenderWait) ||
		errors.Is(err, convertmd.ErrStyleNotFound) ||
		errors.Is(err, convertmd.ErrHighlightStyleNotFound) ||
		errors.Is(err, convertmd.ErrInvalidAssetPath) {
		return ExitUsage
	}

	return ExitGeneral
}
