package convertmd

import (
	"time"

	"cdr.dev/slog"

	"github.com/alnah/go-convert-md/internal/pipeline"
)

// Defaults for the in-page diagram library.
const (
	DefaultScriptURL     = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"
	DefaultTheme         = "default"
	DefaultSecurityLevel = "loose"
	DefaultLoadAttempts  = 50
	DefaultLoadInterval  = 100 * time.Millisecond
	DefaultDiagramTag    = pipeline.DefaultDiagramTag
)

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 2 * time.Minute

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout time.Duration
	page    PageSettings
	wait    RenderWait

	diagramTag    string
	scriptURL     string
	theme         string
	securityLevel string
	loadAttempts  int
	loadInterval  time.Duration

	style     string // embedded style name or CSS file path
	highlight string // chroma style name, empty disables highlighting
	assetPath string

	browserBin string
	noSandbox  bool

	logger *slog.Logger
}

func defaultConfig() converterConfig {
	return converterConfig{
		timeout:       defaultTimeout,
		page:          DefaultPageSettings(),
		wait:          DefaultRenderWait(),
		diagramTag:    DefaultDiagramTag,
		scriptURL:     DefaultScriptURL,
		theme:         DefaultTheme,
		securityLevel: DefaultSecurityLevel,
		loadAttempts:  DefaultLoadAttempts,
		loadInterval:  DefaultLoadInterval,
	}
}

// WithTimeout bounds a whole PDF conversion, browser launch included.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("convertmd: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithPageSettings sets the PDF page size and margins.
// Invalid settings make NewConverter fail.
func WithPageSettings(p PageSettings) Option {
	return func(c *Converter) {
		c.cfg.page = p
	}
}

// WithRenderWait sets the diagram wait timings.
// Invalid timings make NewConverter fail.
func WithRenderWait(w RenderWait) Option {
	return func(c *Converter) {
		c.cfg.wait = w
	}
}

// WithDiagramTag sets the fenced code block language treated as diagram
// source (default "mermaid"). Matching is case-sensitive.
func WithDiagramTag(tag string) Option {
	return func(c *Converter) {
		if tag != "" {
			c.cfg.diagramTag = tag
		}
	}
}

// WithScriptURL sets where the page loads the diagram library from. A file://
// URL allows offline rendering.
func WithScriptURL(url string) Option {
	return func(c *Converter) {
		if url != "" {
			c.cfg.scriptURL = url
		}
	}
}

// WithTheme sets the diagram library theme.
func WithTheme(theme string) Option {
	return func(c *Converter) {
		if theme != "" {
			c.cfg.theme = theme
		}
	}
}

// WithSecurityLevel sets the diagram library security level.
func WithSecurityLevel(level string) Option {
	return func(c *Converter) {
		if level != "" {
			c.cfg.securityLevel = level
		}
	}
}

// WithScriptLoad sets how many times, and how often, the page checks for the
// diagram library before giving up. Non-positive values keep the defaults.
func WithScriptLoad(attempts int, interval time.Duration) Option {
	return func(c *Converter) {
		if attempts > 0 {
			c.cfg.loadAttempts = attempts
		}
		if interval > 0 {
			c.cfg.loadInterval = interval
		}
	}
}

// WithStyle sets the page style sheet: an embedded style name ("default",
// "print") or a path to a CSS file.
func WithStyle(style string) Option {
	return func(c *Converter) {
		c.cfg.style = style
	}
}

// WithHighlighting enables chroma syntax highlighting of non-diagram code
// blocks with the named style ("github", "monokai", ...).
func WithHighlighting(style string) Option {
	return func(c *Converter) {
		c.cfg.highlight = style
	}
}

// WithAssetPath overrides embedded styles and templates with files from a
// directory; missing files fall back to the embedded ones.
func WithAssetPath(path string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = path
	}
}

// WithBrowserBin uses a specific Chrome/Chromium executable. It takes
// precedence over ROD_BROWSER_BIN.
func WithBrowserBin(path string) Option {
	return func(c *Converter) {
		c.cfg.browserBin = path
	}
}

// WithNoSandbox disables the Chrome sandbox, as needed in most containers.
func WithNoSandbox(disable bool) Option {
	return func(c *Converter) {
		c.cfg.noSandbox = disable
	}
}

// WithLogger sets the logger used when the call context carries none.
func WithLogger(l slog.Logger) Option {
	return func(c *Converter) {
		c.cfg.logger = &l
	}
}

// withRenderer injects a PDF renderer (tests).
func withRenderer(r pdfRenderer) Option {
	return func(c *Converter) {
		c.renderer = r
	}
}
