package block

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/statickit/pkg/address"
	"github.com/conneroisu/statickit/pkg/schema"
)

// FromTempl adapts a templ component constructor into a RenderFunc, so
// hand-written templ blocks can sit in the same registry as compiled
// templates. A component that fails to render panics with *EvalError,
// which the page renderer treats like any other broken block.
func FromTempl(component func(in Input) templ.Component) RenderFunc {
	return func(in Input) string {
		return renderComponent(component(in))
	}
}

// DefineTempl is Define for templ components with typed props.
func DefineTempl[P any](typ string, sch schema.Schema, component func(props P, ctx Context, addr address.Address) templ.Component) Definition {
	return Define(typ, sch, func(props P, ctx Context, addr address.Address) string {
		return renderComponent(component(props, ctx, addr))
	})
}

func renderComponent(c templ.Component) string {
	var b strings.Builder
	if err := c.Render(context.Background(), &b); err != nil {
		panic(&EvalError{Expr: "templ component", Err: err})
	}

	return b.String()
}
