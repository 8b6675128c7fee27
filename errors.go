package convertmd

import "errors"

// Sentinel errors for library operations.
var (
	ErrInputNotFound  = errors.New("input file not found")
	ErrHTMLConversion = errors.New("HTML conversion failed")
	ErrWriteOutput    = errors.New("failed to write output file")

	// Browser and capture errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")

	// Settings validation errors.
	ErrInvalidFormat     = errors.New("unknown format")
	ErrInvalidPageSize   = errors.New("invalid page size")
	ErrInvalidMargin     = errors.New("invalid margin")
	ErrInvalidRenderWait = errors.New("invalid render wait")

	// Asset loading errors.
	ErrStyleNotFound          = errors.New("style not found")
	ErrHighlightStyleNotFound = errors.New("highlight style not found")
	ErrInvalidAssetPath       = errors.New("invalid asset path")
)
