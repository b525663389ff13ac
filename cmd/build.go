package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/statickit/internal/loader"
	"github.com/conneroisu/statickit/pkg/page"
)

type buildOptions struct {
	json        bool
	concurrency int
}

func newBuildCmd(a *app) *cobra.Command {
	var o buildOptions
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render every page into the output directory",
		Long: `Render every page config in production mode and copy the public
directory alongside. "/" is written to index.html and "/about" to
about.html.

Examples:
  statickit build
  statickit build --out public_html --cache-bust v42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBuild(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringP("out", "o", "", "output directory")
	f.String("cache-bust", "", "token appended as ?v= to local css and js URLs (default: build time)")
	f.BoolVar(&o.json, "json", false, "print the build result as JSON")
	f.IntVarP(&o.concurrency, "jobs", "j", 0, "pages rendered in parallel (default: GOMAXPROCS)")

	return cmd
}

func (a *app) runBuild(cmd *cobra.Command, o buildOptions) error {
	ctx := cmd.Context()
	if err := a.bind(cmd, map[string]string{"out_dir": "out", "cache_bust": "cache-bust"}); err != nil {
		return err
	}
	cfg, logger, err := a.load(cmd)
	if err != nil {
		return err
	}
	pages, err := loader.LoadDir(ctx, cfg.PagesDir)
	if err != nil {
		return err
	}
	r, err := newRenderer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	site, err := r.BuildSite(ctx, pages, page.SiteOptions{
		OutDir:      cfg.OutDir,
		Source:      templateSource(cfg),
		CacheBust:   cfg.CacheBust,
		PublicDir:   publicDir(cfg),
		PublicPath:  cfg.PublicPath,
		Concurrency: o.concurrency,
	})
	if site == nil {
		return err
	}

	out := cmd.OutOrStdout()
	if o.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(site); encErr != nil {
			return encErr
		}

		return err
	}
	for _, p := range site.Pages {
		fmt.Fprintf(out, "%-20s %s (%d bytes)\n", p.Path, p.Output, p.Bytes)
	}
	fmt.Fprintf(out, "built %d page(s), copied %d asset(s) in %s\n",
		len(site.Pages), site.Assets, site.Duration.Round(time.Millisecond))

	return err
}
