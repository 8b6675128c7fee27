package assets

import (
	"fmt"
	"strings"
)

// kind is one family of assets: the subdirectory it lives in, its file
// extension and the error a miss reports.
type kind struct {
	label    string
	dir      string
	ext      string
	notFound error
}

var (
	styleKind    = kind{label: "style", dir: "styles", ext: ".css", notFound: ErrStyleNotFound}
	templateKind = kind{label: "template", dir: "templates", ext: ".html", notFound: ErrTemplateNotFound}
)

// file returns the slash-separated location of name below an asset root.
func (k kind) file(name string) string {
	return k.dir + "/" + name + k.ext
}

// check accepts only bare stems: "print" selects styles/print.css, while
// "print.css" or "../print" could pick another file or leave the directory.
func (k kind) check(name string) error {
	if name == "" {
		return fmt.Errorf("%w: %s name is empty", ErrInvalidAssetName, k.label)
	}
	if i := strings.IndexAny(name, `/\.`); i >= 0 {
		return fmt.Errorf("%w: %s %q contains %q, want a bare name like %q",
			ErrInvalidAssetName, k.label, name, name[i], k.example())
	}
	return nil
}

func (k kind) example() string {
	if k == templateKind {
		return PageTemplateName
	}
	return DefaultStyleName
}
