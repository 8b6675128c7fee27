package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// relocationKey carries the Relocation of the document being converted.
var relocationKey = parser.NewContextKey()

// Relocation describes a page written away from its source document.
// The zero value leaves every destination as written.
type Relocation struct {
	SourceDir string // directory holding the Markdown source
	OutputDir string // directory the rendered page is written to
}

// active reports whether destinations need rewriting.
func (r Relocation) active() bool {
	return r.SourceDir != "" && r.OutputDir != "" &&
		filepath.Clean(r.SourceDir) != filepath.Clean(r.OutputDir)
}

// relativePathTransformer rewrites relative image and link destinations so
// they resolve from the output directory. The result stays a relative path,
// which the HTML renderer accepts without WithUnsafe.
//
// Does NOT rewrite:
//   - absolute paths, URLs and anchors (already resolved)
//   - paths escaping the source directory (left as written)
//   - raw HTML (never rendered, WithUnsafe is off)
type relativePathTransformer struct{}

// Transform implements parser.ASTTransformer.
func (t *relativePathTransformer) Transform(doc *ast.Document, _ text.Reader, pc parser.Context) {
	reloc, _ := pc.Get(relocationKey).(Relocation)
	if !reloc.active() {
		return
	}
	srcDir, err := filepath.Abs(reloc.SourceDir)
	if err != nil {
		return
	}
	outDir, err := filepath.Abs(reloc.OutputDir)
	if err != nil {
		return
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Image:
			node.Destination = rewriteDestination(node.Destination, srcDir, outDir)
		case *ast.Link:
			node.Destination = rewriteDestination(node.Destination, srcDir, outDir)
		}
		return ast.WalkContinue, nil
	})
}

// rewriteDestination re-roots dest, a path relative to srcDir, onto outDir.
// Anything that is not a relative path under srcDir is returned unchanged.
func rewriteDestination(dest []byte, srcDir, outDir string) []byte {
	raw := string(dest)
	if !isRelativePath(raw) {
		return dest
	}

	// Keep fragments and queries out of the filesystem path.
	path, suffix := raw, ""
	if i := strings.IndexAny(raw, "#?"); i >= 0 {
		path, suffix = raw[:i], raw[i:]
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}

	absPath := filepath.Join(srcDir, filepath.FromSlash(path))
	if !isPathUnderDir(absPath, srcDir) {
		return dest
	}
	rel, err := filepath.Rel(outDir, absPath)
	if err != nil {
		return dest
	}
	return []byte(relativeURL(rel) + suffix)
}

// isRelativePath returns true if the path should be rewritten.
func isRelativePath(path string) bool {
	if path == "" {
		return false
	}

	// Skip URLs (http, https, file, data, protocol-relative)
	if strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "file://") ||
		strings.HasPrefix(path, "data:") ||
		strings.HasPrefix(path, "//") {
		return false
	}

	// Skip anchors
	if strings.HasPrefix(path, "#") {
		return false
	}

	// Skip other schemes (mailto:, tel:, ...)
	if u, err := url.Parse(path); err == nil && u.Scheme != "" && !filepath.IsAbs(path) {
		return false
	}

	// Skip absolute paths
	if filepath.IsAbs(path) {
		return false
	}

	return true
}

// isPathUnderDir checks if absPath is under dir (prevents path traversal).
func isPathUnderDir(absPath, dir string) bool {
	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(dir)

	// Ensure dir ends with separator for correct prefix matching
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}

	// Path is under dir if it starts with dir/ or equals dir
	return strings.HasPrefix(cleanPath+string(filepath.Separator), cleanDir)
}

// relativeURL escapes a relative filesystem path as a URL path. A first
// segment containing a colon is prefixed with "./" so it never reads as a
// scheme.
func relativeURL(rel string) string {
	u := url.URL{Path: filepath.ToSlash(rel)}
	return u.String()
}
