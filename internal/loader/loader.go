// Package loader reads page configs from YAML, HCL and JSON files.
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/pkg/page"
)

// Format is a page config file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension. ok is false for files
// that are not page configs.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".hcl":
		return FormatHCL, true
	case ".json":
		return FormatJSON, true
	}

	return "", false
}

// LoadFile reads one page config. The returned config records path as its
// source.
func LoadFile(path string) (page.Config, error) {
	format, ok := FormatOf(path)
	if !ok {
		return page.Config{}, kiterrors.NewConfigError(kiterrors.ErrCodeConfigInvalid,
			fmt.Sprintf("unsupported page config format %q", filepath.Ext(path))).
			WithLocation(path, 0, 0)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return page.Config{}, kiterrors.NewIOError(kiterrors.ErrCodeFileNotFound, "read page config", err).
			WithLocation(path, 0, 0)
	}

	return Parse(data, format, path)
}

// Parse decodes a page config. filename is used for error locations.
func Parse(data []byte, format Format, filename string) (page.Config, error) {
	var (
		cfg page.Config
		err error
	)
	switch format {
	case FormatYAML:
		cfg, err = parseYAML(data, filename)
	case FormatHCL:
		cfg, err = parseHCL(data, filename)
	case FormatJSON:
		cfg, err = parseJSON(data, filename)
	default:
		err = kiterrors.NewConfigError(kiterrors.ErrCodeConfigInvalid, fmt.Sprintf("unknown format %q", format))
	}
	if err != nil {
		return page.Config{}, err
	}
	cfg.Source = filename

	return cfg, nil
}

func parseYAML(data []byte, filename string) (page.Config, error) {
	var cfg page.Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return page.Config{}, kiterrors.NewConfigError(kiterrors.ErrCodeConfigInvalid, "invalid YAML page config").
			WithCause(err).
			WithLocation(filename, yamlLine(err), 0)
	}

	return cfg, nil
}

// yamlLine pulls the line number out of a yaml.v3 syntax error.
func yamlLine(err error) int {
	var line int
	if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr != nil {
		return 0
	}

	return line
}

func parseJSON(data []byte, filename string) (page.Config, error) {
	var cfg page.Config
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return page.Config{}, kiterrors.NewConfigError(kiterrors.ErrCodeConfigInvalid, "invalid JSON page config").
			WithCause(err).
			WithLocation(filename, 0, 0)
	}

	return cfg, nil
}

// LoadDir loads every page config under dir, sorted by path. Every file
// that fails to load or validate is reported, and two configs with the
// same page id are an error.
func LoadDir(ctx context.Context, dir string) ([]page.Config, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := FormatOf(path); ok && !d.IsDir() {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, kiterrors.NewIOError(kiterrors.ErrCodeFileNotFound, fmt.Sprintf("scan %s", dir), err)
	}
	sort.Strings(paths)

	collector := kiterrors.NewErrorCollector()
	pages := make([]page.Config, 0, len(paths))
	byID := make(map[string]string, len(paths))
	for _, path := range paths {
		cfg, err := LoadFile(path)
		if err != nil {
			collector.AddError(err)
			continue
		}
		if err := cfg.Validate(); err != nil {
			collector.AddError(err)
			continue
		}
		if prev, ok := byID[cfg.ID]; ok {
			collector.AddError(kiterrors.NewValidationError(kiterrors.ErrCodePageInvalid,
				fmt.Sprintf("page id %q is already defined in %s", cfg.ID, prev)).
				WithLocation(path, 0, 0))
			continue
		}
		byID[cfg.ID] = path
		pages = append(pages, cfg)
	}
	if collector.HasErrors() {
		return pages, collector.Err()
	}

	return pages, nil
}

// Lookup finds a page by id or by path.
func Lookup(pages []page.Config, key string) (page.Config, bool) {
	for _, p := range pages {
		if p.ID == key || p.Path == key {
			return p, true
		}
	}

	return page.Config{}, false
}
