package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
)

// devOnlyAssets are public files a production build leaves out.
var devOnlyAssets = map[string]bool{
	"js/dev-overlay.js": true,
}

// SiteOptions controls BuildSite.
type SiteOptions struct {
	// OutDir receives the rendered pages.
	OutDir string
	// Source provides the base templates.
	Source TemplateSource
	// AssetBase is passed to every block. Defaults to "/".
	AssetBase string
	// CacheBust defaults to the build time in milliseconds.
	CacheBust string
	// PostProcess is applied to every page.
	PostProcess func(string) string
	// PublicDir, when set, is copied to OutDir/PublicPath.
	PublicDir  string
	PublicPath string
	// Concurrency bounds parallel page renders. Zero means GOMAXPROCS.
	Concurrency int
}

// PageResult describes one written page.
type PageResult struct {
	ID     string `json:"id"`
	Path   string `json:"path"`
	Output string `json:"output"`
	Bytes  int    `json:"bytes"`
}

// SiteResult summarizes a build.
type SiteResult struct {
	Pages    []PageResult  `json:"pages"`
	Assets   int           `json:"assets"`
	Duration time.Duration `json:"duration"`
}

// OutputPath maps a page path to its file under the output directory:
// "/" is index.html and "/about" is about.html.
func OutputPath(pagePath string) string {
	p := strings.Trim(pagePath, "/")
	if p == "" {
		return "index.html"
	}

	return filepath.FromSlash(p) + ".html"
}

// BuildSite renders every page in production mode and writes it under
// opts.OutDir, then copies the public directory. Pages render in parallel;
// each page is rendered on its own. Every failing page is reported, and
// pages that rendered are still written.
func (r *Renderer) BuildSite(ctx context.Context, pages []Config, opts SiteOptions) (*SiteResult, error) {
	start := time.Now()
	if opts.CacheBust == "" {
		opts.CacheBust = fmt.Sprintf("%d", start.UnixMilli())
	}
	if err := checkPaths(pages); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, kiterrors.NewIOError(kiterrors.ErrCodeInternalError, "create output dir", err).
			WithLocation(opts.OutDir, 0, 0)
	}
	root, err := os.OpenRoot(opts.OutDir)
	if err != nil {
		return nil, kiterrors.NewIOError(kiterrors.ErrCodeInternalError, "open output dir", err).
			WithLocation(opts.OutDir, 0, 0)
	}
	defer root.Close()

	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]PageResult, len(pages))
	collector := kiterrors.NewErrorCollector()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, cfg := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.buildPage(gctx, root, cfg, opts)
			if err != nil {
				collector.AddError(err)

				return nil
			}
			results[i] = res
			r.logger.Debug(gctx, "page written", "page", cfg.ID, "output", res.Output)

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	site := &SiteResult{}
	for _, res := range results {
		if res.ID != "" {
			site.Pages = append(site.Pages, res)
		}
	}

	if opts.PublicDir != "" {
		n, err := copyPublic(opts.PublicDir, root, filepath.FromSlash(strings.Trim(opts.PublicPath, "/")))
		if err != nil {
			collector.AddError(err)
		}
		site.Assets = n
	}
	site.Duration = time.Since(start)

	if collector.HasErrors() {
		return site, collector.Err()
	}

	return site, nil
}

func (r *Renderer) buildPage(ctx context.Context, root *os.Root, cfg Config, opts SiteOptions) (PageResult, error) {
	doc, err := r.RenderPage(ctx, cfg, Options{
		Source:      opts.Source,
		AssetBase:   opts.AssetBase,
		CacheBust:   opts.CacheBust,
		PostProcess: opts.PostProcess,
	})
	if err != nil {
		var kerr *kiterrors.KitError
		if errors.As(err, &kerr) && kerr.FilePath == "" && cfg.Source != "" {
			kerr.WithLocation(cfg.Source, 0, 0)
		}

		return PageResult{}, err
	}

	rel := OutputPath(cfg.Path)
	out := filepath.Join(opts.OutDir, rel)
	if err := writeFile(root, rel, strings.NewReader(doc)); err != nil {
		return PageResult{}, kiterrors.NewIOError(kiterrors.ErrCodeInternalError, "write page", err).
			WithLocation(out, 0, 0)
	}

	return PageResult{ID: cfg.ID, Path: cfg.Path, Output: out, Bytes: len(doc)}, nil
}

// checkPaths rejects two pages that would write the same file and any page
// that would write outside the output directory.
func checkPaths(pages []Config) error {
	seen := make(map[string]string, len(pages))
	var dups []string
	for _, cfg := range pages {
		out := OutputPath(cfg.Path)
		if !filepath.IsLocal(out) {
			dups = append(dups, fmt.Sprintf("%q writes %s outside the output directory", cfg.ID, out))
			continue
		}
		if prev, ok := seen[out]; ok {
			dups = append(dups, fmt.Sprintf("%q and %q both write %s", prev, cfg.ID, out))
			continue
		}
		seen[out] = cfg.ID
	}
	if len(dups) == 0 {
		return nil
	}
	sort.Strings(dups)

	return kiterrors.NewValidationError(kiterrors.ErrCodePageInvalid, "bad page paths: "+strings.Join(dups, "; "))
}

// copyPublic mirrors src into dir inside root, leaving out dev-only files.
func copyPublic(src string, root *os.Root, dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if d.IsDir() || devOnlyAssets[filepath.ToSlash(rel)] {
			return nil
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		if err := writeFile(root, filepath.Join(dir, rel), in); err != nil {
			return err
		}
		count++

		return nil
	})
	if err != nil {
		return count, kiterrors.NewIOError(kiterrors.ErrCodeInternalError, "copy public assets", err).
			WithLocation(src, 0, 0)
	}

	return count, nil
}

// writeFile creates name inside root, with its parent directories, and
// copies r into it. Names that leave root fail.
func writeFile(root *os.Root, name string, r io.Reader) error {
	if err := mkdirAll(root, filepath.Dir(name)); err != nil {
		return err
	}
	out, err := root.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()

		return err
	}

	return out.Close()
}

func mkdirAll(root *os.Root, dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	if err := mkdirAll(root, filepath.Dir(dir)); err != nil {
		return err
	}
	if err := root.Mkdir(dir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}

	return nil
}
