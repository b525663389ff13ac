package cmd

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conneroisu/statickit/internal/loader"
	"github.com/conneroisu/statickit/internal/logging"
	"github.com/conneroisu/statickit/internal/server"
	"github.com/conneroisu/statickit/pkg/page"
)

func newServeCmd(a *app) *cobra.Command {
	var host string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview pages in dev mode",
		Long: `Start a preview server that renders pages on request in dev mode.

Page configs are re-read on every request. Block templates are read at
startup; restart the server after editing them.

Endpoints:
  /<page path>        the rendered page
  /__dev-overlay.js   slot diagnostics overlay
  /__pages, /__site   page listings as JSON
  /__inspect?address= resolve a schema address
  /health             health check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd, host)
		},
	}

	f := cmd.Flags()
	f.IntP("port", "p", 0, "port to serve on (default: dev_port, 3000)")
	f.StringVar(&host, "host", "localhost", "host to bind to")

	return cmd
}

func (a *app) runServe(cmd *cobra.Command, host string) error {
	ctx := cmd.Context()
	if err := a.bind(cmd, map[string]string{"dev_port": "port"}); err != nil {
		return err
	}
	cfg, logger, err := a.load(cmd)
	if err != nil {
		return err
	}
	r, err := newRenderer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(host, strconv.Itoa(cfg.DevPort))
	srv := server.New(r, server.Options{
		Addr:       addr,
		Pages:      pagesFromDir(cfg.PagesDir, logger),
		Templates:  templateSource(cfg),
		PublicDir:  publicDir(cfg),
		PublicPath: cfg.PublicPath,
		CacheBust:  cfg.CacheBust,
	}, logger)
	fmt.Fprintf(cmd.OutOrStdout(), "serving %d block type(s) on http://%s\n", r.Registry().Count(), addr)

	return srv.Start(ctx)
}

// pagesFromDir reloads page configs on every call. Pages that load are
// served even when others are broken.
func pagesFromDir(dir string, logger logging.Logger) server.PageSource {
	return server.PageSourceFunc(func(ctx context.Context) ([]page.Config, error) {
		pages, err := loader.LoadDir(ctx, dir)
		if err != nil {
			if len(pages) == 0 {
				return nil, err
			}
			logger.Warn(ctx, err, "some page configs failed to load")
		}

		return pages, nil
	})
}
