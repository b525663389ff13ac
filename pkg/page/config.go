// Package page composes pages from a base HTML template and the blocks
// configured for each of its regions.
package page

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/pkg/layout"
	"github.com/conneroisu/statickit/pkg/schema"
)

// Instance is one block placed in a region. Props are validated against
// the block's schema at render time.
type Instance struct {
	ID     string           `json:"id" yaml:"id" validate:"required"`
	Type   string           `json:"type" yaml:"type" validate:"required"`
	Props  map[string]any   `json:"props,omitempty" yaml:"props,omitempty"`
	Layout *layout.Override `json:"layout,omitempty" yaml:"layout,omitempty"`
}

// Region is the ordered block list of one named region. Output order is
// list order.
type Region struct {
	Blocks []Instance `json:"blocks" yaml:"blocks" validate:"dive"`
}

// Config describes one page.
type Config struct {
	ID       string            `json:"id" yaml:"id" validate:"required"`
	Path     string            `json:"path" yaml:"path" validate:"required,startswith=/"`
	Title    string            `json:"title" yaml:"title"`
	Template string            `json:"template" yaml:"template" validate:"required"`
	Density  string            `json:"density,omitempty" yaml:"density,omitempty" validate:"omitempty,oneof=compact comfortable relaxed"`
	Regions  map[string]Region `json:"regions" yaml:"regions" validate:"dive"`
	Meta     map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`

	// Source is the file the config was loaded from, if any.
	Source string `json:"-" yaml:"-"`
}

// Validate checks required fields, the page path, the density token,
// instance layouts and that instance ids are unique within each region.
// All problems are reported together.
func (c Config) Validate() error {
	issues := schema.Check(c)
	if hasDotSegment(c.Path) {
		issues = append(issues, schema.Issue{Path: "path", Message: `must not contain "." or ".." segments`})
	}

	for _, name := range c.RegionNames() {
		seen := make(map[string]bool)
		for i, inst := range c.Regions[name].Blocks {
			path := fmt.Sprintf("regions.%s.blocks[%d]", name, i)
			if inst.ID != "" && seen[inst.ID] {
				issues = append(issues, schema.Issue{
					Path:    path + ".id",
					Message: fmt.Sprintf("duplicate block id %q in region %q", inst.ID, name),
				})
			}
			seen[inst.ID] = true

			if _, err := layout.Resolve(inst.Layout); err != nil {
				issues = append(issues, schema.Issue{Path: path + ".layout", Message: layoutMessage(err)})
			}
		}
	}

	if len(issues) == 0 {
		return nil
	}

	kerr := kiterrors.NewValidationError(kiterrors.ErrCodePageInvalid,
		fmt.Sprintf("page %q is invalid: %s", c.ID, issues.Error())).
		WithCause(issues).
		WithContext("page", c.ID)
	if c.Source != "" {
		kerr = kerr.WithLocation(c.Source, 0, 0)
	}

	return kerr
}

// RegionNames returns the configured region names, sorted.
func (c Config) RegionNames() []string {
	names := make([]string, 0, len(c.Regions))
	for name := range c.Regions {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Find returns the instance with the given id in region.
func (c Config) Find(region, id string) (Instance, bool) {
	for _, inst := range c.Regions[region].Blocks {
		if inst.ID == id {
			return inst, true
		}
	}

	return Instance{}, false
}

func hasDotSegment(p string) bool {
	for _, seg := range strings.Split(strings.ReplaceAll(p, "\\", "/"), "/") {
		if seg == "." || seg == ".." {
			return true
		}
	}

	return false
}

func layoutMessage(err error) string {
	var kerr *kiterrors.KitError
	if errors.As(err, &kerr) {
		return strings.TrimPrefix(kerr.Message, "invalid layout: ")
	}

	return err.Error()
}
