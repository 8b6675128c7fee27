package pipeline

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-convert-md/internal/diagram"
)

// DiagramClass marks elements the in-browser diagram library renders.
const DiagramClass = "mermaid"

// diagramRenderer claims every fenced code block. Blocks tagged with the
// diagram language are sanitized and wrapped for client-side rendering; the
// rest are handed to the wrapped code block renderer.
type diagramRenderer struct {
	tag      string
	inner    renderer.NodeRenderer
	fallback renderer.NodeRendererFunc
}

func newDiagramRenderer(tag string, inner renderer.NodeRenderer) *diagramRenderer {
	return &diagramRenderer{tag: tag, inner: inner}
}

// SetOption forwards renderer options (XHTML, hard wraps) to the wrapped
// renderer, which goldmark never sees directly.
func (r *diagramRenderer) SetOption(name renderer.OptionName, value interface{}) {
	if so, ok := r.inner.(renderer.SetOptioner); ok {
		so.SetOption(name, value)
	}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *diagramRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	captured := funcCapture{}
	r.inner.RegisterFuncs(captured)
	r.fallback = captured[ast.KindFencedCodeBlock]

	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *diagramRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.FencedCodeBlock)
	if strings.TrimSpace(string(n.Language(source))) != r.tag {
		if r.fallback == nil {
			return ast.WalkContinue, nil
		}
		return r.fallback(w, source, node, entering)
	}
	if !entering {
		return ast.WalkContinue, nil
	}

	_, _ = w.WriteString(`<pre class="` + DiagramClass + `">`)
	_, _ = w.WriteString(diagram.Sanitize(blockText(n, source)))
	_, _ = w.WriteString("</pre>\n")
	return ast.WalkSkipChildren, nil
}

// blockText joins the raw lines of a code block without its final newline.
func blockText(n *ast.FencedCodeBlock, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// funcCapture records the render funcs a NodeRenderer registers so they can
// be called from another renderer.
type funcCapture map[ast.NodeKind]renderer.NodeRendererFunc

func (c funcCapture) Register(kind ast.NodeKind, fn renderer.NodeRendererFunc) {
	c[kind] = fn
}
