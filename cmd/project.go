package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/conneroisu/statickit/internal/compiler"
	"github.com/conneroisu/statickit/internal/config"
	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/internal/loader"
	"github.com/conneroisu/statickit/internal/logging"
	"github.com/conneroisu/statickit/pkg/block"
	"github.com/conneroisu/statickit/pkg/page"
)

// blockRegistry interprets every template under the blocks directory and
// registers it with a schema that accepts any props.
func blockRegistry(ctx context.Context, cfg *config.Config) (*block.Registry, error) {
	programs, err := compiler.ParseDir(ctx, cfg.BlocksDir)
	if err != nil {
		return nil, err
	}
	reg := block.NewRegistry()
	for _, def := range compiler.Definitions(programs) {
		if err := reg.Register(def); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func newRenderer(ctx context.Context, cfg *config.Config, logger logging.Logger) (*page.Renderer, error) {
	reg, err := blockRegistry(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return page.NewRenderer(reg, page.WithLogger(logger)), nil
}

func templateSource(cfg *config.Config) page.TemplateSource {
	return page.DirSource{Dir: cfg.TemplatesDir}
}

// publicDir returns the public directory, or "" when it does not exist.
func publicDir(cfg *config.Config) string {
	if cfg.PublicDir == "" {
		return ""
	}
	if info, err := os.Stat(cfg.PublicDir); err != nil || !info.IsDir() {
		return ""
	}

	return cfg.PublicDir
}

// findPage loads a page by config file path, page id or URL path. Other
// broken configs do not stop the lookup.
func findPage(ctx context.Context, cfg *config.Config, key string, logger logging.Logger) (page.Config, error) {
	if _, ok := loader.FormatOf(key); ok {
		if _, err := os.Stat(key); err == nil {
			p, err := loader.LoadFile(key)
			if err != nil {
				return page.Config{}, err
			}

			return p, p.Validate()
		}
	}

	pages, loadErr := loader.LoadDir(ctx, cfg.PagesDir)
	if p, ok := loader.Lookup(pages, key); ok {
		if loadErr != nil {
			logger.Warn(ctx, loadErr, "some page configs failed to load")
		}

		return p, nil
	}
	if loadErr != nil {
		return page.Config{}, loadErr
	}

	return page.Config{}, notFound(key, cfg.PagesDir)
}

func notFound(key, dir string) error {
	return kiterrors.NewLookupError(kiterrors.ErrCodePageNotFound,
		fmt.Sprintf("no page with id or path %q in %s", key, dir))
}
