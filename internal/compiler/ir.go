package compiler

import "github.com/conneroisu/statickit/pkg/block"

type opKind int

const (
	// opText writes a literal.
	opText opKind = iota
	// opEscape writes an expression value, HTML-escaped.
	opEscape
	// opRaw writes an expression value as-is.
	opRaw
	// opAttr writes ` name="value"` when the expression is truthy.
	opAttr
	// opIf guards body with a condition.
	opIf
	// opFor repeats body once per item of a list expression.
	opFor
	// opSlot delegates to another block, with body as the fallback.
	opSlot
)

// op is one instruction of a lowered template. Attribute values built from
// literals and escaped expressions are lowered to opText and opEscape runs,
// so only opAttr needs its own kind.
type op struct {
	kind opKind

	// text is the literal for opText and the attribute name for opAttr.
	text string
	// expr is the expression for every kind except opText. For opSlot it
	// is the block type expression.
	expr string

	// loop variables of opFor
	item  string
	index string

	// render-slot bindings
	props string
	mode  block.SlotPath
	path  string

	body []op
}

// merge coalesces adjacent literals, recursing into bodies.
func merge(ops []op) []op {
	out := make([]op, 0, len(ops))
	for _, o := range ops {
		if o.body != nil {
			o.body = merge(o.body)
		}
		if o.kind == opText {
			if o.text == "" {
				continue
			}
			if n := len(out); n > 0 && out[n-1].kind == opText {
				out[n-1].text += o.text
				continue
			}
		}
		out = append(out, o)
	}

	return out
}

// usesScope reports whether any op in ops reads the expression scope.
func usesScope(ops []op) bool {
	for _, o := range ops {
		if o.kind != opText {
			return true
		}
	}

	return false
}
