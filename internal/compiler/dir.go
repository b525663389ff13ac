package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/pkg/block"
	"github.com/conneroisu/statickit/pkg/schema"
)

const (
	blockSuffix  = ".block.html"
	templateFile = "template.html"
	outputSuffix = "_render.go"
)

// Template is a block template found on disk.
type Template struct {
	Name string
	Path string
}

// ManifestEntry describes one generated file.
type ManifestEntry struct {
	Name    string `json:"name"`
	Source  string `json:"source"`
	Output  string `json:"output"`
	Func    string `json:"func"`
	Changed bool   `json:"changed"`
}

// Manifest lists the files written by CompileDir, sorted by block name.
type Manifest struct {
	Entries []ManifestEntry `json:"entries"`
}

// Discover finds block templates under dir: every *.block.html file and
// every template.html directly inside a block directory. Two templates
// with the same block name, or whose names give the same render function,
// are an error.
func Discover(dir string) ([]Template, error) {
	var found []Template
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(name, blockSuffix) || (name == templateFile && filepath.Dir(path) != filepath.Clean(dir)) {
			found = append(found, Template{Name: BlockName(filepath.ToSlash(path)), Path: path})
		}

		return nil
	})
	if err != nil {
		return nil, kiterrors.NewIOError(kiterrors.ErrCodeFileNotFound, fmt.Sprintf("scan %s", dir), err)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	for i := 1; i < len(found); i++ {
		if found[i].Name == found[i-1].Name {
			return nil, kiterrors.NewCompileError(kiterrors.ErrCodeDuplicateType,
				fmt.Sprintf("block %q is defined by both %s and %s", found[i].Name, found[i-1].Path, found[i].Path), nil).
				WithLocation(found[i].Path, 0, 0)
		}
	}

	generated := make(map[string]Template, 2*len(found))
	for _, t := range found {
		for _, out := range []string{"Render" + PascalName(t.Name), outputName(t.Name)} {
			if prev, ok := generated[out]; ok {
				return nil, kiterrors.NewCompileError(kiterrors.ErrCodeDuplicateType,
					fmt.Sprintf("blocks %q and %q both compile to %s", prev.Name, t.Name, out), nil).
					WithLocation(t.Path, 0, 0)
			}
			generated[out] = t
		}
	}

	return found, nil
}

// CompileDir compiles every template under srcDir into outDir as
// <name>_render.go. Templates compile in parallel. A failing template does
// not stop the others; all failures are returned together, each carrying
// its file path. Files whose content is unchanged are not rewritten.
func CompileDir(ctx context.Context, srcDir, outDir string, opts ...Option) (*Manifest, error) {
	templates, err := Discover(srcDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, kiterrors.NewIOError(kiterrors.ErrCodeInternalError, fmt.Sprintf("create %s", outDir), err)
	}

	entries := make([]ManifestEntry, len(templates))
	collector := kiterrors.NewErrorCollector()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, t := range templates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry, err := compileFile(t, outDir, opts)
			if err != nil {
				collector.AddError(err)

				return nil
			}
			entries[i] = entry

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := &Manifest{}
	for _, e := range entries {
		if e.Name != "" {
			m.Entries = append(m.Entries, e)
		}
	}
	if collector.HasErrors() {
		return m, collector.Err()
	}

	return m, nil
}

func compileFile(t Template, outDir string, opts []Option) (ManifestEntry, error) {
	src, err := os.ReadFile(t.Path)
	if err != nil {
		return ManifestEntry{}, kiterrors.NewIOError(kiterrors.ErrCodeFileNotFound, "read template", err).
			WithLocation(t.Path, 0, 0)
	}

	fileOpts := append(append([]Option{}, opts...), WithSource(filepath.ToSlash(t.Path)))
	code, err := Compile(string(src), t.Name, fileOpts...)
	if err != nil {
		return ManifestEntry{}, locate(err, t.Path)
	}

	out := filepath.Join(outDir, outputName(t.Name))
	entry := ManifestEntry{
		Name:   t.Name,
		Source: t.Path,
		Output: out,
		Func:   "Render" + PascalName(t.Name),
	}

	if existing, err := os.ReadFile(out); err == nil && bytes.Equal(existing, []byte(code)) {
		return entry, nil
	}
	if err := os.WriteFile(out, []byte(code), 0o644); err != nil {
		return ManifestEntry{}, kiterrors.NewIOError(kiterrors.ErrCodeInternalError, "write generated file", err).
			WithLocation(out, 0, 0)
	}
	entry.Changed = true

	return entry, nil
}

func outputName(name string) string {
	return strings.ReplaceAll(name, "-", "_") + outputSuffix
}

// locate attaches path to err.
func locate(err error, path string) error {
	var kerr *kiterrors.KitError
	if errors.As(err, &kerr) {
		return kerr.WithLocation(path, kerr.Line, kerr.Column)
	}

	return kiterrors.NewCompileError(kiterrors.ErrCodeTemplateParse, "compile failed", err).WithLocation(path, 0, 0)
}

// ParseDir lowers every template under dir into an interpreted Program.
// Like CompileDir it reports every failing template at once.
func ParseDir(ctx context.Context, dir string) ([]*Program, error) {
	templates, err := Discover(dir)
	if err != nil {
		return nil, err
	}

	programs := make([]*Program, len(templates))
	collector := kiterrors.NewErrorCollector()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, t := range templates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(t.Path)
			if err != nil {
				collector.AddError(kiterrors.NewIOError(kiterrors.ErrCodeFileNotFound, "read template", err).
					WithLocation(t.Path, 0, 0))

				return nil
			}
			p, err := Parse(string(src), t.Name)
			if err != nil {
				collector.AddError(locate(err, t.Path))

				return nil
			}
			p.Source = t.Path
			programs[i] = p

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if collector.HasErrors() {
		return nil, collector.Err()
	}

	return programs, nil
}

// Definitions wraps interpreted programs as block definitions that accept
// any props.
func Definitions(programs []*Program) []block.Definition {
	defs := make([]block.Definition, 0, len(programs))
	for _, p := range programs {
		defs = append(defs, block.Definition{
			Type:       p.Name,
			Schema:     schema.Any(),
			Render:     p.Render,
			SourceFile: p.Source,
		})
	}

	return defs
}
