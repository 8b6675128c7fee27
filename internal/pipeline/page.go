package pipeline

import (
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// ErrPageRender indicates the page template could not be parsed or executed.
var ErrPageRender = errors.New("page rendering failed")

// PageData holds everything the page template needs.
type PageData struct {
	Title string
	CSS   string
	Body  string

	// ScriptURL is loaded with a plain <script src>. The init script polls for
	// the library global LoadAttempts times, LoadIntervalMS apart.
	ScriptURL      string
	LoadAttempts   int
	LoadIntervalMS int

	Theme         string
	SecurityLevel string
}

// pageView is PageData with the trusted fragments typed for html/template.
type pageView struct {
	Title          string
	CSS            template.CSS
	Body           template.HTML
	ScriptURL      template.URL
	LoadAttempts   int
	LoadIntervalMS int
	Theme          string
	SecurityLevel  string
	Selector       string
}

// PageBuilder wraps an HTML body in the standalone page template.
type PageBuilder struct {
	tmpl *template.Template
}

// NewPageBuilder parses the page template source.
func NewPageBuilder(tmplContent string) (*PageBuilder, error) {
	tmpl, err := template.New("page").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing template: %v", ErrPageRender, err)
	}
	return &PageBuilder{tmpl: tmpl}, nil
}

// Build renders a complete HTML document. CSS, Body and ScriptURL are
// trusted: the body comes from goldmark with raw HTML disabled, the rest from
// assets and configuration.
func (b *PageBuilder) Build(data PageData) (string, error) {
	view := pageView{
		Title:          data.Title,
		CSS:            template.CSS(data.CSS),       // #nosec G203 -- trusted asset content
		Body:           template.HTML(data.Body),     // #nosec G203 -- goldmark output without WithUnsafe
		ScriptURL:      template.URL(data.ScriptURL), // #nosec G203 -- from config, may be file:// for offline use
		LoadAttempts:   data.LoadAttempts,
		LoadIntervalMS: data.LoadIntervalMS,
		Theme:          data.Theme,
		SecurityLevel:  data.SecurityLevel,
		Selector:       "." + DiagramClass,
	}

	var buf strings.Builder
	if err := b.tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageRender, err)
	}
	return buf.String(), nil
}
