package page

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"golang.org/x/net/html"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/internal/htmltree"
)

// TemplateSource fetches base page templates by name.
type TemplateSource interface {
	Template(ctx context.Context, name string) (string, error)
}

// DirSource reads templates from a directory. A name without an
// extension gets ".html" appended. Names cannot escape Dir.
type DirSource struct {
	Dir string
}

// Template implements TemplateSource.
func (s DirSource) Template(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if path.Ext(name) == "" {
		name += ".html"
	}

	root, err := os.OpenRoot(s.Dir)
	if err != nil {
		return "", kiterrors.NewIOError(kiterrors.ErrCodeFileNotFound,
			fmt.Sprintf("open template dir %s", s.Dir), err)
	}
	defer root.Close()

	f, err := root.Open(name)
	if err != nil {
		return "", kiterrors.NewIOError(kiterrors.ErrCodeFileNotFound,
			fmt.Sprintf("template %q not found in %s", name, s.Dir), err).
			WithContext("template", name)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", kiterrors.NewIOError(kiterrors.ErrCodeFileNotFound,
			fmt.Sprintf("read template %q", name), err)
	}

	return string(data), nil
}

// MapSource serves templates from memory.
type MapSource map[string]string

// Template implements TemplateSource.
func (s MapSource) Template(_ context.Context, name string) (string, error) {
	if t, ok := s[name]; ok {
		return t, nil
	}

	return "", kiterrors.NewIOError(kiterrors.ErrCodeFileNotFound,
		fmt.Sprintf("template %q not found", name), nil).
		WithContext("template", name)
}

// TemplateRegions lists the distinct data-region names in a page template,
// in document order.
func TemplateRegions(src string) ([]string, error) {
	doc, err := htmltree.ParseDocument(src)
	if err != nil {
		return nil, kiterrors.NewCompileError(kiterrors.ErrCodeTemplateParse, "parse page template", err)
	}

	var names []string
	seen := make(map[string]bool)
	htmltree.Walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		if name, ok := htmltree.Attr(n, RegionAttr); ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	})

	return names, nil
}
