package convertmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"html", FormatHTML, false},
		{"pdf", FormatPDF, false},
		{"both", FormatBoth, false},
		{"HTML", "", true},
		{"docx", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFormat) {
					t.Errorf("ParseFormat(%q) error = %v, want ErrInvalidFormat", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestFormat_Wants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format            Format
		wantHTML, wantPDF bool
	}{
		{FormatHTML, true, false},
		{FormatPDF, false, true},
		{FormatBoth, true, true},
	}
	for _, tt := range tests {
		if tt.format.WantsHTML() != tt.wantHTML || tt.format.WantsPDF() != tt.wantPDF {
			t.Errorf("%s: WantsHTML=%v WantsPDF=%v", tt.format, tt.format.WantsHTML(), tt.format.WantsPDF())
		}
	}
}

func TestNewJob(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format Format
		input  string
		output string
		want   Job
	}{
		{
			name:   "default input and outputs",
			format: FormatHTML,
			want:   Job{Input: DefaultInput, Format: FormatHTML, HTMLOutput: "CODE_SUMMARY.html"},
		},
		{
			name:   "pdf defaults to input base name in current directory",
			format: FormatPDF,
			input:  "docs/report.md",
			want:   Job{Input: "docs/report.md", Format: FormatPDF, PDFOutput: "report.pdf"},
		},
		{
			name:   "both defaults",
			format: FormatBoth,
			input:  "notes.markdown",
			want:   Job{Input: "notes.markdown", Format: FormatBoth, HTMLOutput: "notes.html", PDFOutput: "notes.pdf"},
		},
		{
			name:   "explicit html output",
			format: FormatHTML,
			input:  "a.md",
			output: "out/page.htm",
			want:   Job{Input: "a.md", Format: FormatHTML, HTMLOutput: "out/page.htm"},
		},
		{
			name:   "explicit pdf output",
			format: FormatPDF,
			input:  "a.md",
			output: "out/a4.pdf",
			want:   Job{Input: "a.md", Format: FormatPDF, PDFOutput: "out/a4.pdf"},
		},
		{
			name:   "both output is a base path",
			format: FormatBoth,
			input:  "a.md",
			output: "out/final.pdf",
			want:   Job{Input: "a.md", Format: FormatBoth, HTMLOutput: "out/final.html", PDFOutput: "out/final.pdf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := NewJob(tt.format, tt.input, tt.output); got != tt.want {
				t.Errorf("NewJob() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestJob_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		job     Job
		wantErr error
	}{
		{"valid", NewJob(FormatBoth, "a.md", ""), nil},
		{"unknown format", Job{Input: "a.md", Format: "txt"}, ErrInvalidFormat},
		{"missing html output", Job{Input: "a.md", Format: FormatHTML}, ErrWriteOutput},
		{"missing pdf output", Job{Input: "a.md", Format: FormatBoth, HTMLOutput: "a.html"}, ErrWriteOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := tt.job.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReadDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "report.md")
	if err := os.WriteFile(path, []byte("# Report\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := ReadDocument(path)
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	if doc.Content != "# Report\n" {
		t.Errorf("Content = %q", doc.Content)
	}
	if doc.Title() != "report" {
		t.Errorf("Title() = %q, want report", doc.Title())
	}
	if doc.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", doc.Dir(), dir)
	}

	_, err = ReadDocument(filepath.Join(dir, "missing.md"))
	if !errors.Is(err, ErrInputNotFound) {
		t.Errorf("missing file error = %v, want ErrInputNotFound", err)
	}
}

func TestPageSettings_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		page    PageSettings
		wantErr error
	}{
		{"default", DefaultPageSettings(), nil},
		{"letter uppercase", PageSettings{Size: "LETTER", MarginMM: 0}, nil},
		{"max margin", PageSettings{Size: "legal", MarginMM: MaxMarginMM}, nil},
		{"unknown size", PageSettings{Size: "a5", MarginMM: 10}, ErrInvalidPageSize},
		{"empty size", PageSettings{MarginMM: 10}, ErrInvalidPageSize},
		{"negative margin", PageSettings{Size: "a4", MarginMM: -1}, ErrInvalidMargin},
		{"margin too large", PageSettings{Size: "a4", MarginMM: 50.5}, ErrInvalidMargin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := tt.page.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRenderWait_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		wait    RenderWait
		wantErr error
	}{
		{"default", DefaultRenderWait(), nil},
		{"no delays", RenderWait{PollInterval: time.Millisecond}, nil},
		{"zero interval", RenderWait{PollTimeout: time.Second}, ErrInvalidRenderWait},
		{"negative settle", RenderWait{PollInterval: time.Millisecond, Settle: -time.Second}, ErrInvalidRenderWait},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := tt.wait.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
