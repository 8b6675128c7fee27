package convertmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cdr.dev/slog"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-convert-md/internal/log"
	"github.com/alnah/go-convert-md/internal/pipeline"
	"github.com/alnah/go-convert-md/internal/process"
)

// pdfRenderer prints a local HTML file to PDF. It abstracts the browser so
// the conversion flow can be tested without one.
type pdfRenderer interface {
	RenderFile(ctx context.Context, htmlPath string, w io.Writer, opts pdfOptions) error
	Close() error
}

// pdfOptions holds options for PDF generation.
type pdfOptions struct {
	Page      PageSettings
	Wait      RenderWait
	ScriptURL string // for the timeout hint
}

// diagramStatusJS counts diagram elements and those already holding an SVG.
const diagramStatusJS = `(selector) => {
  const all = Array.from(document.querySelectorAll(selector));
  return {
    loaded: typeof mermaid !== 'undefined',
    total: all.length,
    rendered: all.filter((el) => el.querySelector('svg') !== null).length,
  };
}`

// rodRenderer implements pdfRenderer using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodRenderer struct {
	bin       string
	noSandbox bool
	clock     clock

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// newRodRenderer creates a rodRenderer. An empty bin falls back to
// ROD_BROWSER_BIN, then to rod's lookup.
func newRodRenderer(bin string, noSandbox bool) *rodRenderer {
	return &rodRenderer{bin: bin, noSandbox: noSandbox, clock: realClock{}}
}

// browserBin returns the configured executable, if any.
func (r *rodRenderer) browserBin() string {
	if r.bin != "" {
		return r.bin
	}
	return os.Getenv("ROD_BROWSER_BIN")
}

// sandboxDisabled reports whether Chrome must run without its sandbox:
// when asked to, in CI, or with a pre-installed browser (containers).
func (r *rodRenderer) sandboxDisabled() bool {
	return r.noSandbox ||
		os.Getenv("ROD_NO_SANDBOX") == "1" ||
		process.InCI() ||
		r.browserBin() != ""
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return nil
	}

	// Configure launcher
	l := launcher.New().Headless(true)

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := r.browserBin(); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if r.sandboxDisabled() {
		l = l.NoSandbox(true)
	}

	log.Debug(ctx, "launching browser", slog.F("bin", r.browserBin()), slog.F("no_sandbox", r.sandboxDisabled()))
	u, err := l.Launch()
	if err != nil {
		l.Kill()
		l.Cleanup()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.launcher = l
	r.browser = browser
	log.Debug(ctx, "browser connected", slog.F("control_url", u), slog.F("pid", l.PID()))
	return nil
}

// Close shuts the browser down, kills its process group and removes the
// launcher's user-data directory.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		// Chrome helpers may outlive the main process; kill the group.
		_ = process.KillProcessGroup(r.launcher.PID())
		r.launcher.Kill()
		r.launcher.Cleanup()
		r.launcher = nil
	}
	return err
}

// RenderFile opens htmlPath in headless Chrome, waits for network idle and
// for diagrams to render, then streams the printed PDF into w.
func (r *rodRenderer) RenderFile(ctx context.Context, htmlPath string, w io.Writer, opts pdfOptions) error {
	// Check context before starting
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.ensureBrowser(ctx); err != nil {
		return err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	stopConsole := forwardConsoleErrors(ctx, page)
	defer stopConsole()

	p := page.Context(ctx)
	fileURL, err := pageURL(htmlPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	waitIdle := p.WaitNavigation(proto.PageLifecycleEventNameNetworkIdle)
	if err := p.Navigate(fileURL); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	waitIdle()
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Debug(ctx, "page loaded", slog.F("url", fileURL))

	if err := awaitDiagrams(ctx, probePage(p), opts, r.clock); err != nil {
		return err
	}

	reader, err := p.PDF(buildPDFOptions(opts.Page))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	if _, err := io.Copy(w, reader); err != nil {
		return fmt.Errorf("%w: writing PDF stream: %v", ErrPDFGeneration, err)
	}
	return nil
}

// probePage evaluates diagramStatusJS on the page.
func probePage(p *rod.Page) diagramProbe {
	return func(ctx context.Context) (diagramStatus, error) {
		res, err := p.Context(ctx).Eval(diagramStatusJS, "."+pipeline.DiagramClass)
		if err != nil {
			return diagramStatus{}, err
		}
		v := res.Value
		return diagramStatus{
			Loaded:   v.Get("loaded").Bool(),
			Total:    v.Get("total").Int(),
			Rendered: v.Get("rendered").Int(),
		}, nil
	}
}

// forwardConsoleErrors logs the page's console.error calls at warn level
// until the returned func is called.
func forwardConsoleErrors(ctx context.Context, page *rod.Page) func() {
	evCtx, cancel := context.WithCancel(ctx)
	p := page.Context(evCtx)

	if err := (proto.RuntimeEnable{}).Call(p); err != nil {
		log.Debug(ctx, "console forwarding unavailable", slog.Error(err))
		return cancel
	}

	wait := p.EachEvent(func(e *proto.RuntimeConsoleAPICalled) {
		if e.Type != proto.RuntimeConsoleAPICalledTypeError {
			return
		}
		log.Warn(ctx, "browser console error", slog.F("message", consoleText(e.Args)))
	})
	go wait()
	return cancel
}

// consoleText joins console call arguments the way DevTools displays them.
func consoleText(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		if !arg.Value.Nil() {
			parts = append(parts, arg.Value.String())
			continue
		}
		parts = append(parts, arg.Description)
	}
	return strings.Join(parts, " ")
}

// pageURL returns the file:// URL of path.
func pageURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path // Windows drive letters
	}
	return u.String(), nil
}

// buildPDFOptions constructs proto.PagePrintToPDF for the page settings.
func buildPDFOptions(p PageSettings) *proto.PagePrintToPDF {
	width, height := p.paperInches()
	margin := p.marginInches()

	return &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(margin),
		MarginBottom:    floatPtr(margin),
		MarginLeft:      floatPtr(margin),
		MarginRight:     floatPtr(margin),
		PrintBackground: true,
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
