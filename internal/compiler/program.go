package compiler

import (
	"strings"

	"github.com/conneroisu/statickit/pkg/block"
)

// Program is a lowered template that renders without a Go build step. It
// runs through the same block.Scope as generated code, so both produce the
// same markup.
type Program struct {
	Name   string
	Source string
	ops    []op
}

// Parse lowers src into a Program.
func Parse(src, blockName string) (*Program, error) {
	ops, err := lower(src, blockName)
	if err != nil {
		return nil, err
	}

	return &Program{Name: blockName, ops: ops}, nil
}

// Render executes the program. Expression failures panic with
// *block.EvalError, the same as generated render functions.
func (p *Program) Render(in block.Input) string {
	var out strings.Builder
	exec(&out, block.NewScope(in), p.ops)

	return out.String()
}

// RenderFunc adapts the program to the block render ABI.
func (p *Program) RenderFunc() block.RenderFunc {
	return p.Render
}

func exec(out *strings.Builder, s *block.Scope, ops []op) {
	for _, o := range ops {
		switch o.kind {
		case opText:
			out.WriteString(o.text)
		case opEscape:
			out.WriteString(s.Escape(o.expr))
		case opRaw:
			out.WriteString(s.Raw(o.expr))
		case opAttr:
			out.WriteString(s.Attr(o.text, o.expr))
		case opIf:
			if s.Truthy(o.expr) {
				exec(out, s, o.body)
			}
		case opFor:
			for i, v := range s.Range(o.expr) {
				exec(out, s.Child(map[string]any{o.item: v, o.index: i}), o.body)
			}
		case opSlot:
			body := o.body
			out.WriteString(s.Slot(o.expr, o.props, o.mode, o.path, func() string {
				var fallback strings.Builder
				exec(&fallback, s, body)

				return fallback.String()
			}))
		}
	}
}
