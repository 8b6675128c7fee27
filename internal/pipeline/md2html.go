package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// DefaultDiagramTag is the fenced code block language routed to the sanitizer.
const DefaultDiagramTag = "mermaid"

// HTMLConverter abstracts Markdown to HTML body conversion.
type HTMLConverter interface {
	// ToHTML converts Markdown to an HTML fragment. When reloc is set,
	// relative image and link destinations are rewritten to resolve from
	// reloc.OutputDir.
	ToHTML(ctx context.Context, content string, reloc Relocation) (string, error)
}

// GoldmarkOption configures a GoldmarkConverter.
type GoldmarkOption func(*goldmarkConfig)

type goldmarkConfig struct {
	diagramTag     string
	highlightStyle string
}

// WithDiagramTag sets the code block language treated as diagram source.
func WithDiagramTag(tag string) GoldmarkOption {
	return func(c *goldmarkConfig) {
		if tag != "" {
			c.diagramTag = tag
		}
	}
}

// WithHighlightStyle enables chroma syntax highlighting for non-diagram code
// blocks using the named style. Empty keeps plain <pre><code> output.
func WithHighlightStyle(style string) GoldmarkOption {
	return func(c *goldmarkConfig) {
		c.highlightStyle = style
	}
}

// GoldmarkConverter converts Markdown to HTML using goldmark (pure Go).
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// NewGoldmarkConverter creates a GoldmarkConverter with GFM extensions, hard
// line breaks and diagram block routing.
func NewGoldmarkConverter(opts ...GoldmarkOption) *GoldmarkConverter {
	cfg := goldmarkConfig{diagramTag: DefaultDiagramTag}
	for _, opt := range opts {
		opt(&cfg)
	}

	var codeBlocks renderer.NodeRenderer = html.NewRenderer()
	if cfg.highlightStyle != "" {
		codeBlocks = highlighting.NewHTMLRenderer(
			highlighting.WithStyle(cfg.highlightStyle),
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(false), // inline styles: the page has no chroma stylesheet
			),
		)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,      // Tables, strikethrough, autolinks, task lists
			extension.Footnote, // [^1] footnotes
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&relativePathTransformer{}, 100),
			),
		),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(
				util.Prioritized(newDiagramRenderer(cfg.diagramTag, codeBlocks), 100),
			),
			html.WithHardWraps(), // Treat newlines as <br>
			html.WithXHTML(),     // Self-closing tags
			// WithUnsafe is off: raw HTML in the source is dropped.
		),
	)
	return &GoldmarkConverter{md: md}
}

// ToHTML converts Markdown content to an HTML fragment.
// Supports context cancellation via goroutine + select pattern since
// Goldmark doesn't natively support context.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content string, reloc Relocation) (string, error) {
	// Fast path: check context before starting
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		pc := parser.NewContext()
		if reloc.active() {
			pc.Set(relocationKey, reloc)
		}

		var buf bytes.Buffer
		if err := c.md.Convert([]byte(content), &buf, parser.WithContext(pc)); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}
