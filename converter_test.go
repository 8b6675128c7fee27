package convertmd

// Notes:
// - A mock pdfRenderer stands in for the browser: it records the temporary
//   page it was handed and writes fixed bytes to the output stream.
// - Paths live under t.TempDir so cleanup assertions see the real filesystem.

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"cdr.dev/slog"

	"github.com/alnah/go-convert-md/internal/log"
)

// ---------------------------------------------------------------------------
// Mock Implementations
// ---------------------------------------------------------------------------

type mockRenderer struct {
	mu sync.Mutex

	pdf []byte
	err error

	calls       int
	htmlPath    string
	htmlContent string
	opts        pdfOptions
	closed      bool
}

func (m *mockRenderer) RenderFile(ctx context.Context, htmlPath string, w io.Writer, opts pdfOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.htmlPath = htmlPath
	m.opts = opts
	if data, err := os.ReadFile(htmlPath); err == nil {
		m.htmlContent = string(data)
	}
	if m.err != nil {
		_, _ = w.Write([]byte("%PDF-partial"))
		return m.err
	}
	_, err := w.Write(m.pdf)
	return err
}

func (m *mockRenderer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// captureSink records log entries.
type captureSink struct {
	mu      sync.Mutex
	entries []slog.SinkEntry
}

func (s *captureSink) LogEntry(_ context.Context, e slog.SinkEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func (s *captureSink) Sync() {}

// warnings returns the messages logged at warn level.
func (s *captureSink) warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.entries {
		if e.Level == slog.LevelWarn {
			out = append(out, e.Message)
		}
	}
	return out
}

// names returns the logger names of the entries with message msg.
func (s *captureSink) names(msg string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out [][]string
	for _, e := range s.entries {
		if e.Message == msg {
			out = append(out, e.LoggerNames)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const diagramDoc = "# Report\n\n```mermaid\ngraph TD\nsubgraph Payment Service\n  A --> B\nend\n```\n"

func newTestConverter(t *testing.T, r *mockRenderer, opts ...Option) *Converter {
	t.Helper()

	conv, err := NewConverter(append([]Option{withRenderer(r)}, opts...)...)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	t.Cleanup(func() { _ = conv.Close() })
	return conv
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func assertNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("%s should not exist, stat error = %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

// ---------------------------------------------------------------------------
// NewConverter
// ---------------------------------------------------------------------------

func TestNewConverter_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{"unknown style name", []Option{WithStyle("nope")}, ErrStyleNotFound},
		{"missing style file", []Option{WithStyle("./missing/style.css")}, ErrStyleNotFound},
		{"unknown highlight style", []Option{WithHighlighting("no-such-style")}, ErrHighlightStyleNotFound},
		{"invalid page size", []Option{WithPageSettings(PageSettings{Size: "a3", MarginMM: 10})}, ErrInvalidPageSize},
		{"margin too large", []Option{WithPageSettings(PageSettings{Size: "a4", MarginMM: 80})}, ErrInvalidMargin},
		{"zero poll interval", []Option{WithRenderWait(RenderWait{PollTimeout: 0})}, ErrInvalidRenderWait},
		{"missing asset path", []Option{WithAssetPath("/no/such/assets/dir")}, ErrInvalidAssetPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewConverter(append([]Option{withRenderer(&mockRenderer{})}, tt.opts...)...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewConverter() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewConverter_StyleFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cssPath := writeInput(t, dir, "custom.css", "body { color: rebeccapurple; }")
	conv := newTestConverter(t, &mockRenderer{}, WithStyle(cssPath))

	page, err := conv.RenderHTML(context.Background(), Document{Path: "x.md", Content: "hi"})
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if !strings.Contains(page, "rebeccapurple") {
		t.Error("custom CSS not embedded in page")
	}
}

func TestWithTimeout_PanicsOnNonPositive(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("WithTimeout(0) should panic")
		}
	}()
	WithTimeout(0)
}

func TestConverter_CloseClosesRenderer(t *testing.T) {
	t.Parallel()

	r := &mockRenderer{}
	conv, err := NewConverter(withRenderer(r))
	if err != nil {
		t.Fatal(err)
	}
	if err := conv.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !r.closed {
		t.Error("renderer not closed")
	}
}

// ---------------------------------------------------------------------------
// RenderHTML / ConvertToHTML
// ---------------------------------------------------------------------------

func TestRenderHTML_PageContents(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, &mockRenderer{},
		WithScriptURL("file:///opt/mermaid.min.js"),
		WithTheme("dark"),
	)
	ctx := log.WithTB(context.Background(), t, nil)

	page, err := conv.RenderHTML(ctx, Document{Path: "docs/report.md", Content: diagramDoc})
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}

	for _, want := range []string{
		"<title>report</title>",
		`<pre class="mermaid">`,
		`subgraph Payment_Service["Payment Service"]`,
		"A --&gt; B",
		`<script src="file:///opt/mermaid.min.js">`,
		`theme: "dark"`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestConvertToHTML_WritesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "notes.md", diagramDoc)
	output := filepath.Join(dir, "notes.html")
	r := &mockRenderer{}
	conv := newTestConverter(t, r)

	if err := conv.ConvertToHTML(context.Background(), input, output); err != nil {
		t.Fatalf("ConvertToHTML() error = %v", err)
	}

	got := readFile(t, output)
	if !strings.Contains(got, "<title>notes</title>") {
		t.Error("title not derived from input file name")
	}
	if r.calls != 0 {
		t.Errorf("renderer called %d times for HTML output", r.calls)
	}
}

func TestConvertToHTML_RelativePaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "docs/guide.md", "![chart](img/chart.png)\n\n[more](other.md)\n")
	conv := newTestConverter(t, &mockRenderer{})

	t.Run("same directory keeps paths", func(t *testing.T) {
		output := filepath.Join(dir, "docs", "guide.html")
		if err := conv.ConvertToHTML(context.Background(), input, output); err != nil {
			t.Fatal(err)
		}
		got := readFile(t, output)
		for _, want := range []string{`src="img/chart.png"`, `href="other.md"`} {
			if !strings.Contains(got, want) {
				t.Errorf("missing %q for same-directory output:\n%s", want, got)
			}
		}
	})

	t.Run("other directory rewrites relative to output", func(t *testing.T) {
		output := filepath.Join(dir, "out", "guide.html")
		if err := os.MkdirAll(filepath.Dir(output), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := conv.ConvertToHTML(context.Background(), input, output); err != nil {
			t.Fatal(err)
		}
		got := readFile(t, output)
		for _, want := range []string{`src="../docs/img/chart.png"`, `href="../docs/other.md"`} {
			if !strings.Contains(got, want) {
				t.Errorf("missing %q for output elsewhere:\n%s", want, got)
			}
		}
		for _, bad := range []string{`src=""`, `href=""`} {
			if strings.Contains(got, bad) {
				t.Errorf("destination blanked (%s):\n%s", bad, got)
			}
		}
	})
}

func TestConvertToHTML_MissingInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	output := filepath.Join(dir, "missing.html")
	conv := newTestConverter(t, &mockRenderer{})

	err := conv.ConvertToHTML(context.Background(), filepath.Join(dir, "missing.md"), output)
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("error = %v, want ErrInputNotFound", err)
	}
	assertNotExists(t, output)
}

func TestConvertToHTML_CanceledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "a.md", "# A\n")
	conv := newTestConverter(t, &mockRenderer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := conv.ConvertToHTML(ctx, input, filepath.Join(dir, "a.html"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// ConvertToPDF
// ---------------------------------------------------------------------------

func TestConvertToPDF_WritesPDFAndRemovesTempPage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "report.md", diagramDoc)
	output := filepath.Join(dir, "report.pdf")
	r := &mockRenderer{pdf: []byte("%PDF-1.7 fake")}
	conv := newTestConverter(t, r, WithPageSettings(PageSettings{Size: "letter", MarginMM: 10}))

	if err := conv.ConvertToPDF(context.Background(), input, output); err != nil {
		t.Fatalf("ConvertToPDF() error = %v", err)
	}

	if got := readFile(t, output); got != "%PDF-1.7 fake" {
		t.Errorf("output = %q", got)
	}
	if want := filepath.Join(dir, "report_temp.html"); r.htmlPath != want {
		t.Errorf("temp page = %q, want %q", r.htmlPath, want)
	}
	assertNotExists(t, r.htmlPath)

	if !strings.Contains(r.htmlContent, `<pre class="mermaid">`) {
		t.Error("temp page missing diagram block")
	}
	if r.opts.Page != (PageSettings{Size: "letter", MarginMM: 10}) {
		t.Errorf("page settings = %+v", r.opts.Page)
	}
	if r.opts.Wait != DefaultRenderWait() {
		t.Errorf("render wait = %+v", r.opts.Wait)
	}
	if r.opts.ScriptURL != DefaultScriptURL {
		t.Errorf("script URL = %q", r.opts.ScriptURL)
	}
}

func TestConvertToPDF_TempPageKeepsImagesResolvable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "docs/guide.md", "![chart](img/chart.png)\n")
	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		t.Fatal(err)
	}
	r := &mockRenderer{pdf: []byte("%PDF-1.7 fake")}
	conv := newTestConverter(t, r)

	if err := conv.ConvertToPDF(context.Background(), input, filepath.Join(outDir, "guide.pdf")); err != nil {
		t.Fatalf("ConvertToPDF() error = %v", err)
	}
	if !strings.Contains(r.htmlContent, `src="../docs/img/chart.png"`) {
		t.Errorf("temp page image not relative to its own directory:\n%s", r.htmlContent)
	}
}

func TestConvertTo_NamesLoggerPerOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "report.md", diagramDoc)
	sink := &captureSink{}
	logger := slog.Make(sink).Leveled(slog.LevelDebug)
	conv := newTestConverter(t, &mockRenderer{pdf: []byte("%PDF-1.7 fake")}, WithLogger(logger))

	res, err := conv.Run(context.Background(), NewJob(FormatBoth, input, filepath.Join(dir, "report")))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.HTML == "" || res.PDF == "" {
		t.Fatalf("Run() result = %+v", res)
	}

	tests := []struct {
		msg  string
		want string
	}{
		{"wrote HTML", "html"},
		{"wrote PDF", "pdf"},
		{"wrote temporary page", "pdf"},
	}
	for _, tt := range tests {
		got := sink.names(tt.msg)
		if len(got) != 1 || len(got[0]) != 1 || got[0][0] != tt.want {
			t.Errorf("logger names for %q = %v, want [[%s]]", tt.msg, got, tt.want)
		}
	}
}

func TestConvertToPDF_RendererFailureCleansUp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "report.md", diagramDoc)
	output := filepath.Join(dir, "report.pdf")
	r := &mockRenderer{err: ErrBrowserConnect}
	conv := newTestConverter(t, r)

	err := conv.ConvertToPDF(context.Background(), input, output)
	if !errors.Is(err, ErrBrowserConnect) {
		t.Fatalf("error = %v, want ErrBrowserConnect", err)
	}
	assertNotExists(t, output)
	assertNotExists(t, filepath.Join(dir, "report_temp.html"))
}

func TestConvertToPDF_MissingInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	output := filepath.Join(dir, "gone.pdf")
	r := &mockRenderer{pdf: []byte("%PDF")}
	conv := newTestConverter(t, r)

	err := conv.ConvertToPDF(context.Background(), filepath.Join(dir, "gone.md"), output)
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("error = %v, want ErrInputNotFound", err)
	}
	if r.calls != 0 {
		t.Error("renderer called for missing input")
	}
	assertNotExists(t, output)
	assertNotExists(t, filepath.Join(dir, "gone_temp.html"))
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestRun_Both(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "summary.md", diagramDoc)
	r := &mockRenderer{pdf: []byte("%PDF-1.7")}
	conv := newTestConverter(t, r)

	job := NewJob(FormatBoth, input, filepath.Join(dir, "out"))
	res, err := conv.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.HTML != filepath.Join(dir, "out.html") || res.PDF != filepath.Join(dir, "out.pdf") {
		t.Errorf("result = %+v", res)
	}
	readFile(t, res.HTML)
	readFile(t, res.PDF)
}

func TestRun_BothKeepsHTMLWhenPDFFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "summary.md", diagramDoc)
	r := &mockRenderer{err: ErrPDFGeneration}
	conv := newTestConverter(t, r)

	job := NewJob(FormatBoth, input, filepath.Join(dir, "summary.md"))
	res, err := conv.Run(context.Background(), job)
	if !errors.Is(err, ErrPDFGeneration) {
		t.Fatalf("error = %v, want ErrPDFGeneration", err)
	}
	if res == nil || res.HTML != job.HTMLOutput {
		t.Fatalf("result = %+v, want HTML reported", res)
	}
	readFile(t, job.HTMLOutput)
	assertNotExists(t, job.PDFOutput)
}

func TestRun_InvalidJob(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, &mockRenderer{})

	_, err := conv.Run(context.Background(), Job{Input: "a.md", Format: "docx"})
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("error = %v, want ErrInvalidFormat", err)
	}
}
