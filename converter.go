package convertmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cdr.dev/slog"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/alnah/go-convert-md/internal/assets"
	"github.com/alnah/go-convert-md/internal/fileutil"
	"github.com/alnah/go-convert-md/internal/log"
	"github.com/alnah/go-convert-md/internal/pipeline"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.MarkdownPreprocessor = (*pipeline.SourcePreprocessor)(nil)
	_ pipeline.HTMLConverter        = (*pipeline.GoldmarkConverter)(nil)
	_ pdfRenderer                   = (*rodRenderer)(nil)
)

// Converter turns Markdown documents into standalone HTML pages and PDFs.
// Create with NewConverter and call Close when done: the headless browser is
// started on the first PDF conversion and reused until then.
// A Converter serializes PDF conversions; HTML rendering is safe for
// concurrent use.
type Converter struct {
	cfg           converterConfig
	assetLoader   assets.AssetLoader
	preprocessor  pipeline.MarkdownPreprocessor
	htmlConverter pipeline.HTMLConverter
	pageBuilder   *pipeline.PageBuilder
	css           string
	renderer      pdfRenderer

	pdfMu sync.Mutex
}

// NewConverter creates a Converter with default configuration.
// Use options to customize behavior (e.g., WithTimeout, WithStyle, WithPageSettings).
// Returns error if settings are invalid or assets cannot be loaded.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg:          defaultConfig(),
		assetLoader:  assets.NewEmbeddedLoader(),
		preprocessor: &pipeline.SourcePreprocessor{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.cfg.page.Validate(); err != nil {
		return nil, err
	}
	if err := c.cfg.wait.Validate(); err != nil {
		return nil, err
	}

	// Handle WithAssetPath: custom directory with embedded fallback
	if c.cfg.assetPath != "" {
		resolver, err := assets.NewAssetResolver(c.cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
		}
		c.assetLoader = resolver
	}

	if err := c.resolveStyle(); err != nil {
		return nil, err
	}

	tmpl, err := c.assetLoader.LoadTemplate(assets.PageTemplateName)
	if err != nil {
		return nil, fmt.Errorf("loading page template: %w", err)
	}
	c.pageBuilder, err = pipeline.NewPageBuilder(tmpl)
	if err != nil {
		return nil, fmt.Errorf("initializing page builder: %w", err)
	}

	goldmarkOpts := []pipeline.GoldmarkOption{pipeline.WithDiagramTag(c.cfg.diagramTag)}
	if c.cfg.highlight != "" {
		if _, ok := styles.Registry[c.cfg.highlight]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrHighlightStyleNotFound, c.cfg.highlight)
		}
		goldmarkOpts = append(goldmarkOpts, pipeline.WithHighlightStyle(c.cfg.highlight))
	}
	c.htmlConverter = pipeline.NewGoldmarkConverter(goldmarkOpts...)

	// Create PDF renderer if not injected (e.g., by tests)
	if c.renderer == nil {
		c.renderer = newRodRenderer(c.cfg.browserBin, c.cfg.noSandbox)
	}

	return c, nil
}

// RenderHTML renders doc as a standalone HTML page. Relative image and link
// destinations are left as written.
func (c *Converter) RenderHTML(ctx context.Context, doc Document) (string, error) {
	return c.renderPage(c.logContext(ctx), doc, "")
}

// renderPage converts doc to a complete page. When outputDir differs from
// the document's directory, relative destinations are rewritten relative to
// outputDir so they still resolve from the output location.
func (c *Converter) renderPage(ctx context.Context, doc Document, outputDir string) (string, error) {
	content := c.preprocessor.PreprocessMarkdown(ctx, doc.Content)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	reloc := pipeline.Relocation{SourceDir: doc.Dir(), OutputDir: outputDir}
	body, err := c.htmlConverter.ToHTML(ctx, content, reloc)
	if err != nil {
		if errors.Is(err, pipeline.ErrHTMLConversion) {
			return "", fmt.Errorf("%w: %s: %v", ErrHTMLConversion, doc.Path, err)
		}
		return "", err
	}

	if summary, err := pipeline.InspectDiagrams(body); err == nil {
		log.Debug(ctx, "rendered document body",
			slog.F("path", doc.Path),
			slog.F("diagrams", summary.Blocks),
			slog.F("kinds", summary.Kinds),
			slog.F("output_dir", outputDir),
		)
	}

	page, err := c.pageBuilder.Build(pipeline.PageData{
		Title:          doc.Title(),
		CSS:            c.css,
		Body:           body,
		ScriptURL:      c.cfg.scriptURL,
		LoadAttempts:   c.cfg.loadAttempts,
		LoadIntervalMS: int(c.cfg.loadInterval.Milliseconds()),
		Theme:          c.cfg.theme,
		SecurityLevel:  c.cfg.securityLevel,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	return page, nil
}

// ConvertToHTML reads input and writes the rendered page to output,
// replacing any existing file.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) ConvertToHTML(ctx context.Context, input, output string) (err error) {
	defer recoverInternal(&err)
	ctx = log.Named(c.logContext(ctx), "html")

	doc, err := ReadDocument(input)
	if err != nil {
		return err
	}

	page, err := c.renderPage(ctx, doc, absDir(output))
	if err != nil {
		return err
	}

	if err := fileutil.WriteFile(output, page); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	log.Debug(ctx, "wrote HTML", slog.F("path", output))
	return nil
}

// ConvertToPDF reads input, renders it next to output as <base>_temp.html,
// prints that page with the headless browser and writes the PDF to output.
// The temporary page is removed on every exit path.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) ConvertToPDF(ctx context.Context, input, output string) (err error) {
	defer recoverInternal(&err)
	ctx = log.Named(c.logContext(ctx), "pdf")

	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	doc, err := ReadDocument(input)
	if err != nil {
		return err
	}

	page, err := c.renderPage(ctx, doc, absDir(output))
	if err != nil {
		return err
	}

	tmpPath, cleanup, err := fileutil.WriteSiblingTemp(output, page, "html")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	defer cleanup()
	log.Debug(ctx, "wrote temporary page", slog.F("path", tmpPath))

	c.pdfMu.Lock()
	defer c.pdfMu.Unlock()

	return c.writePDF(ctx, tmpPath, output)
}

// writePDF streams the rendered PDF into output. A partial file is removed
// when rendering fails.
func (c *Converter) writePDF(ctx context.Context, htmlPath, output string) error {
	// #nosec G304 G302 -- output path is user-provided; PDFs are meant to be readable
	f, err := os.OpenFile(output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fileutil.OutputFileMode)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}

	renderErr := c.renderer.RenderFile(ctx, htmlPath, f, pdfOptions{
		Page:      c.cfg.page,
		Wait:      c.cfg.wait,
		ScriptURL: c.cfg.scriptURL,
	})
	closeErr := f.Close()

	if renderErr != nil {
		_ = os.Remove(output)
		return renderErr
	}
	if closeErr != nil {
		_ = os.Remove(output)
		return fmt.Errorf("%w: %v", ErrWriteOutput, closeErr)
	}
	log.Debug(ctx, "wrote PDF", slog.F("path", output))
	return nil
}

// Run converts job.Input to every format the job asks for, HTML first.
// When the HTML succeeds and the PDF fails, the HTML stays on disk and is
// reported in the result alongside the error.
func (c *Converter) Run(ctx context.Context, job Job) (*Result, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	if job.Format.WantsHTML() {
		if err := c.ConvertToHTML(ctx, job.Input, job.HTMLOutput); err != nil {
			return res, err
		}
		res.HTML = job.HTMLOutput
	}
	if job.Format.WantsPDF() {
		if err := c.ConvertToPDF(ctx, job.Input, job.PDFOutput); err != nil {
			return res, err
		}
		res.PDF = job.PDFOutput
	}
	return res, nil
}

// Close releases resources (headless Chrome browser).
func (c *Converter) Close() error {
	if c.renderer != nil {
		return c.renderer.Close()
	}
	return nil
}

// resolveStyle loads the page style sheet: the default embedded style, an
// embedded style by name, or a CSS file by path.
func (c *Converter) resolveStyle() error {
	input := c.cfg.style
	if input == "" {
		input = assets.DefaultStyleName
	}

	// File path? (contains / or \)
	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("%w: %q: %v", ErrStyleNotFound, input, err)
		}
		c.css = string(content)
		return nil
	}

	// Style name -> use asset loader
	css, err := c.assetLoader.LoadStyle(input)
	if err != nil {
		if errors.Is(err, assets.ErrStyleNotFound) {
			return fmt.Errorf("%w: %q", ErrStyleNotFound, input)
		}
		return fmt.Errorf("loading style %q: %w", input, err)
	}
	c.css = css
	return nil
}

// logContext attaches the configured logger unless ctx already carries one.
func (c *Converter) logContext(ctx context.Context) context.Context {
	if c.cfg.logger != nil && !log.Has(ctx) {
		return log.With(ctx, *c.cfg.logger)
	}
	return ctx
}

// recoverInternal turns a panic into an error.
func recoverInternal(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("internal error: %v", r)
	}
}

// absDir returns the absolute directory of path, or "" if it cannot be resolved.
func absDir(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	return filepath.Dir(abs)
}
