package convertmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-convert-md/internal/fileutil"
)

// DefaultInput is the document converted when no input is given.
const DefaultInput = "CODE_SUMMARY.md"

// Format selects which artifacts a Job produces.
type Format string

// Output formats.
const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatBoth Format = "both"
)

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatHTML, FormatPDF, FormatBoth:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q (must be html, pdf, or both)", ErrInvalidFormat, s)
}

// WantsHTML reports whether the format produces an HTML file.
func (f Format) WantsHTML() bool { return f == FormatHTML || f == FormatBoth }

// WantsPDF reports whether the format produces a PDF file.
func (f Format) WantsPDF() bool { return f == FormatPDF || f == FormatBoth }

// Document is a Markdown file read from disk.
type Document struct {
	Path    string
	Content string
}

// ReadDocument reads the Markdown file at path.
// Returns ErrInputNotFound if the file does not exist.
func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided input path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Document{}, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Document{Path: path, Content: string(data)}, nil
}

// Title is the document's file name without its extension.
func (d Document) Title() string {
	return fileutil.Stem(d.Path)
}

// Dir is the absolute directory holding the document, or "" when the path
// cannot be made absolute.
func (d Document) Dir() string {
	abs, err := filepath.Abs(d.Path)
	if err != nil {
		return ""
	}
	return filepath.Dir(abs)
}

// Job describes one conversion: which input, which formats, which outputs.
type Job struct {
	Input      string
	Format     Format
	HTMLOutput string // empty unless Format.WantsHTML()
	PDFOutput  string // empty unless Format.WantsPDF()
}

// NewJob derives output paths for input.
//
// For FormatHTML and FormatPDF, output is the output file. For FormatBoth it
// is a base path whose extension is replaced by .html and .pdf. An empty
// output defaults to the input's base name in the current directory.
func NewJob(format Format, input, output string) Job {
	if input == "" {
		input = DefaultInput
	}
	job := Job{Input: input, Format: format}

	stem := fileutil.Stem(input)
	switch {
	case output == "":
		if format.WantsHTML() {
			job.HTMLOutput = stem + ".html"
		}
		if format.WantsPDF() {
			job.PDFOutput = stem + ".pdf"
		}
	case format == FormatBoth:
		job.HTMLOutput = fileutil.ReplaceExtension(output, ".html")
		job.PDFOutput = fileutil.ReplaceExtension(output, ".pdf")
	case format == FormatHTML:
		job.HTMLOutput = output
	case format == FormatPDF:
		job.PDFOutput = output
	}
	return job
}

// Validate checks the job's format and that every wanted output is set.
func (j Job) Validate() error {
	if _, err := ParseFormat(string(j.Format)); err != nil {
		return err
	}
	if j.Format.WantsHTML() && j.HTMLOutput == "" {
		return fmt.Errorf("%w: missing HTML output path", ErrWriteOutput)
	}
	if j.Format.WantsPDF() && j.PDFOutput == "" {
		return fmt.Errorf("%w: missing PDF output path", ErrWriteOutput)
	}
	return nil
}

// Result lists the files a Job created.
type Result struct {
	HTML string
	PDF  string
}

// Page size constants.
const (
	PageSizeA4     = "a4"
	PageSizeLetter = "letter"
	PageSizeLegal  = "legal"
)

// Margin bounds in millimeters.
const (
	MinMarginMM     = 0.0
	MaxMarginMM     = 50.0
	DefaultMarginMM = 20.0
)

// paperSizes maps page sizes to width and height in inches.
var paperSizes = map[string][2]float64{
	PageSizeA4:     {8.27, 11.69},
	PageSizeLetter: {8.5, 11},
	PageSizeLegal:  {8.5, 14},
}

const mmPerInch = 25.4

// PageSettings configures PDF page dimensions. Backgrounds are always printed.
type PageSettings struct {
	Size     string  // "a4", "letter", "legal"
	MarginMM float64 // applied to all sides
}

// DefaultPageSettings returns A4 with 20mm margins.
func DefaultPageSettings() PageSettings {
	return PageSettings{Size: PageSizeA4, MarginMM: DefaultMarginMM}
}

// Validate checks that page settings are valid.
// Does not mutate - uses case-insensitive comparison.
func (p PageSettings) Validate() error {
	if _, ok := paperSizes[strings.ToLower(p.Size)]; !ok {
		return fmt.Errorf("%w: %q (must be a4, letter, or legal)", ErrInvalidPageSize, p.Size)
	}
	if p.MarginMM < MinMarginMM || p.MarginMM > MaxMarginMM {
		return fmt.Errorf("%w: %.2f (must be between %.0f and %.0f mm)", ErrInvalidMargin, p.MarginMM, MinMarginMM, MaxMarginMM)
	}
	return nil
}

// paperInches returns the page width and height in inches.
func (p PageSettings) paperInches() (width, height float64) {
	size := paperSizes[strings.ToLower(p.Size)]
	return size[0], size[1]
}

// marginInches returns the margin in inches.
func (p PageSettings) marginInches() float64 {
	return p.MarginMM / mmPerInch
}

// RenderWait bounds how long the browser waits for diagrams before printing.
type RenderWait struct {
	InitialDelay time.Duration // before the first check
	PollInterval time.Duration // between checks
	PollTimeout  time.Duration // measured from the start of the wait, initial delay included
	Settle       time.Duration // after the last check, before printing
}

// DefaultRenderWait returns 1s initial delay, 100ms polls, a 5s bound and a
// 2s settle delay.
func DefaultRenderWait() RenderWait {
	return RenderWait{
		InitialDelay: time.Second,
		PollInterval: 100 * time.Millisecond,
		PollTimeout:  5 * time.Second,
		Settle:       2 * time.Second,
	}
}

// Validate checks that durations are usable.
func (w RenderWait) Validate() error {
	if w.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive, got %s", ErrInvalidRenderWait, w.PollInterval)
	}
	if w.InitialDelay < 0 || w.PollTimeout < 0 || w.Settle < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidRenderWait)
	}
	return nil
}
