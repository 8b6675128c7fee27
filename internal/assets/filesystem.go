package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemLoader serves asset overrides from a directory laid out like the
// embedded tree (styles/*.css, templates/page.html).
type FilesystemLoader struct {
	root string // absolute, symlinks resolved
}

// NewFilesystemLoader opens root as an override directory. It fails with
// ErrInvalidBasePath unless root is a readable directory.
func NewFilesystemLoader(root string) (*FilesystemLoader, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: no directory given", ErrInvalidBasePath)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s does not exist", ErrInvalidBasePath, abs)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s is a file, want a directory holding styles/ or templates/", ErrInvalidBasePath, abs)
	}
	if _, err := os.ReadDir(abs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}

	return &FilesystemLoader{root: abs}, nil
}

// LoadStyle reads {root}/styles/{name}.css.
func (f *FilesystemLoader) LoadStyle(name string) (string, error) {
	return f.load(styleKind, name)
}

// LoadTemplate reads {root}/templates/{name}.html.
func (f *FilesystemLoader) LoadTemplate(name string) (string, error) {
	return f.load(templateKind, name)
}

func (f *FilesystemLoader) load(k kind, name string) (string, error) {
	if err := k.check(name); err != nil {
		return "", err
	}

	file := filepath.Join(f.root, filepath.FromSlash(k.file(name)))
	if err := f.contain(file); err != nil {
		return "", err
	}

	content, err := os.ReadFile(file) // #nosec G304 -- name checked and path contained
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s missing from %s", k.notFound, k.file(name), f.root)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s %q: %v", ErrAssetRead, k.label, name, err)
	}
	return string(content), nil
}

// contain fails with ErrPathTraversal when file, after resolving symlinks,
// is not below the root. A missing file is checked as written and then fails
// on read.
func (f *FilesystemLoader) contain(file string) error {
	if resolved, err := filepath.EvalSymlinks(file); err == nil {
		file = resolved
	}
	if !strings.HasPrefix(file, f.root+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrPathTraversal, file)
	}
	return nil
}

var _ AssetLoader = (*FilesystemLoader)(nil)
