// Package block holds the block registry, the render-function calling
// convention shared by hand-written and compiled blocks, and the runtime
// helpers compiled templates call into.
package block

import (
	"fmt"

	"github.com/conneroisu/statickit/pkg/address"
	"github.com/conneroisu/statickit/pkg/layout"
	"github.com/conneroisu/statickit/pkg/schema"
)

// Context is the render context handed to every block.
type Context struct {
	PageID    string       `json:"pageId"`
	AssetBase string       `json:"assetBase"`
	IsDev     bool         `json:"isDev"`
	Layout    layout.Props `json:"layout"`
	// Blocks resolves render-slot delegation. A nil registry makes every
	// slot render its fallback.
	Blocks *Registry `json:"-"`
}

// Input is the single argument of a render function.
type Input struct {
	Props any             `json:"props"`
	Ctx   Context         `json:"ctx"`
	Addr  address.Address `json:"addr"`
}

// RenderFunc renders a block to HTML. It must not mutate its input.
type RenderFunc func(in Input) string

// Meta is optional tooling metadata.
type Meta struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Definition ties a block type to its props schema and render function.
type Definition struct {
	Type       string
	Schema     schema.Schema
	Render     RenderFunc
	SourceFile string
	Meta       Meta
}

// Define builds a Definition whose render function receives typed props.
// Validated props reach render as P; anything else is a programming error
// in the schema and panics.
func Define[P any](typ string, sch schema.Schema, render func(props P, ctx Context, addr address.Address) string) Definition {
	return Definition{
		Type:   typ,
		Schema: sch,
		Render: func(in Input) string {
			props, ok := in.Props.(P)
			if !ok {
				panic(fmt.Sprintf("block %q: schema produced %T, render expects %T", typ, in.Props, *new(P)))
			}

			return render(props, in.Ctx, in.Addr)
		},
	}
}

// Validate runs the definition's schema, treating a nil schema as
// accept-anything.
func (d Definition) Validate(raw any) (any, schema.Issues) {
	if d.Schema == nil {
		return raw, nil
	}

	return d.Schema.Validate(raw)
}
