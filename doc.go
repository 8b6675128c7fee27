// Package convertmd converts Markdown documents to standalone HTML pages and
// to PDF using headless Chrome.
//
// # Quick Start
//
//	conv, err := convertmd.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	job := convertmd.NewJob(convertmd.FormatBoth, "CODE_SUMMARY.md", "")
//	res, err := conv.Run(ctx, job)
//
// # Conversion Pipeline
//
//  1. Markdown preprocessing (BOM removal, line ending normalization)
//  2. Markdown to HTML via goldmark (GFM, optional chroma highlighting).
//     Fenced blocks tagged "mermaid" are sanitized and emitted as
//     <pre class="mermaid"> for the in-page diagram library.
//  3. Page template: title, style sheet, diagram library script and its
//     initialization.
//  4. PDF: the page is written next to the output as <base>_temp.html, opened
//     in headless Chrome (go-rod), printed once diagrams have rendered, and
//     removed.
//
// # Waiting for Diagrams
//
// After network idle the browser waits RenderWait.InitialDelay, then checks
// every PollInterval whether each diagram element holds an SVG. It stops when
// all have rendered, when the library is absent, or once PollTimeout has
// passed since the wait began. It then waits Settle before printing. A
// timeout is logged and the PDF is printed anyway.
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. go-rod downloads a managed
// Chromium on first run (~/.cache/rod/browser/). Set ROD_BROWSER_BIN or use
// WithBrowserBin for a pre-installed browser; set ROD_NO_SANDBOX=1 or use
// WithNoSandbox in containers.
package convertmd
