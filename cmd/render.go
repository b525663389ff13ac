package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/pkg/page"
)

type renderOptions struct {
	out string
	dev bool
}

func newRenderCmd(a *app) *cobra.Command {
	var o renderOptions
	cmd := &cobra.Command{
		Use:   "render <page-id|path|file>",
		Short: "Render one page",
		Long: `Render a single page with the interpreted block templates and print it.

The page is found by config file, page id or URL path.

Examples:
  statickit render home
  statickit render /about --dev
  statickit render site/pages/home.yaml --out home.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRender(cmd, args[0], o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.out, "out", "o", "", "write to a file instead of stdout")
	f.BoolVar(&o.dev, "dev", false, "keep editor attributes and emit slot diagnostics")
	f.String("cache-bust", "", "token appended as ?v= to local css and js URLs")

	return cmd
}

func (a *app) runRender(cmd *cobra.Command, key string, o renderOptions) error {
	ctx := cmd.Context()
	if err := a.bind(cmd, map[string]string{"cache_bust": "cache-bust"}); err != nil {
		return err
	}
	cfg, logger, err := a.load(cmd)
	if err != nil {
		return err
	}
	p, err := findPage(ctx, cfg, key, logger)
	if err != nil {
		return err
	}
	r, err := newRenderer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	html, err := r.RenderPage(ctx, p, page.Options{
		Source:    templateSource(cfg),
		IsDev:     o.dev,
		CacheBust: cfg.CacheBust,
	})
	if err != nil {
		return err
	}

	if o.out == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), html)

		return err
	}
	if err := os.WriteFile(o.out, []byte(html), 0o644); err != nil {
		return kiterrors.NewIOError(kiterrors.ErrCodeInternalError, "write rendered page", err).
			WithLocation(o.out, 0, 0)
	}
	logger.Info(ctx, "page rendered", "page", p.ID, "output", o.out)

	return nil
}
