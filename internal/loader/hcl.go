package loader

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/pkg/layout"
	"github.com/conneroisu/statickit/pkg/page"
)

// hclPage is the HCL shape of a page config:
//
//	id       = "home"
//	path     = "/"
//	template = "base.html"
//
//	region "main" {
//	  block "hero-1" {
//	    type  = "hero"
//	    props = { title = "Welcome" }
//	    layout {
//	      tone = "accent"
//	    }
//	  }
//	}
type hclPage struct {
	ID       string            `hcl:"id"`
	Path     string            `hcl:"path"`
	Title    string            `hcl:"title,optional"`
	Template string            `hcl:"template"`
	Density  string            `hcl:"density,optional"`
	Meta     map[string]string `hcl:"meta,optional"`
	Regions  []hclRegion       `hcl:"region,block"`
}

type hclRegion struct {
	Name   string     `hcl:"name,label"`
	Blocks []hclBlock `hcl:"block,block"`
}

type hclBlock struct {
	ID     string           `hcl:"id,label"`
	Type   string           `hcl:"type"`
	Props  cty.Value        `hcl:"props,optional"`
	Layout *layout.Override `hcl:"layout,block"`
}

func parseHCL(data []byte, filename string) (page.Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return page.Config{}, diagError("invalid HCL page config", diags, filename)
	}

	var raw hclPage
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return page.Config{}, diagError("invalid HCL page config", diags, filename)
	}

	cfg := page.Config{
		ID:       raw.ID,
		Path:     raw.Path,
		Title:    raw.Title,
		Template: raw.Template,
		Density:  raw.Density,
		Meta:     raw.Meta,
		Regions:  make(map[string]page.Region, len(raw.Regions)),
	}
	for _, r := range raw.Regions {
		if _, dup := cfg.Regions[r.Name]; dup {
			return page.Config{}, kiterrors.NewConfigError(kiterrors.ErrCodeConfigInvalid,
				fmt.Sprintf("region %q is declared twice", r.Name)).
				WithLocation(filename, 0, 0)
		}
		region := page.Region{Blocks: make([]page.Instance, 0, len(r.Blocks))}
		for _, b := range r.Blocks {
			props, err := ctyToMap(b.Props)
			if err != nil {
				return page.Config{}, kiterrors.NewConfigError(kiterrors.ErrCodeConfigInvalid,
					fmt.Sprintf("props of block %q: %v", b.ID, err)).
					WithLocation(filename, 0, 0)
			}
			region.Blocks = append(region.Blocks, page.Instance{
				ID:     b.ID,
				Type:   b.Type,
				Props:  props,
				Layout: b.Layout,
			})
		}
		cfg.Regions[r.Name] = region
	}

	return cfg, nil
}

// ctyToMap converts an HCL object value into plain Go values by way of
// its JSON form.
func ctyToMap(v cty.Value) (map[string]any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("props must be known values")
	}
	if t := v.Type(); !t.IsObjectType() && !t.IsMapType() {
		return nil, fmt.Errorf("props must be an object, got %s", t.FriendlyName())
	}

	data, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// diagError turns HCL diagnostics into a config error located at the
// first error's position.
func diagError(msg string, diags hcl.Diagnostics, filename string) error {
	line, col := 0, 0
	for _, d := range diags {
		if d.Severity == hcl.DiagError && d.Subject != nil {
			line, col = d.Subject.Start.Line, d.Subject.Start.Column
			break
		}
	}

	return kiterrors.NewConfigError(kiterrors.ErrCodeConfigInvalid, msg).
		WithCause(diags).
		WithLocation(filename, line, col)
}
