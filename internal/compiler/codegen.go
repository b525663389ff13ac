package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"mvdan.cc/gofumpt/format"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/pkg/block"
)

// GeneratedHeader opens every generated file.
const GeneratedHeader = "// Code generated by statickit; DO NOT EDIT."

// Compile lowers a template and emits a Go source file holding its render
// function, formatted with gofumpt.
func Compile(src, blockName string, opts ...Option) (string, error) {
	o := newOptions(opts)

	ops, err := lower(src, blockName)
	if err != nil {
		return "", err
	}

	g := &generator{}
	g.file(o, blockName, ops)

	out, err := format.Source([]byte(g.b.String()), format.Options{
		LangVersion: "go1.24",
		ModulePath:  o.modulePath,
	})
	if err != nil {
		return "", kiterrors.NewInternalError(kiterrors.ErrCodeInternalError, "generated code does not format", err).
			WithComponent(blockName)
	}

	return string(out), nil
}

type generator struct {
	b strings.Builder
}

func (g *generator) line(format string, args ...any) {
	fmt.Fprintf(&g.b, format, args...)
	g.b.WriteByte('\n')
}

func (g *generator) file(o options, blockName string, ops []op) {
	g.line(GeneratedHeader)
	if o.source != "" {
		g.line("// Source: %s", o.source)
	}
	g.line("")
	g.line("package %s", o.pkg)
	g.line("")
	g.line("import (")
	g.line("%q", "strings")
	g.line("")
	g.line("block %q", o.importPath)
	g.line(")")
	g.line("")

	name := "Render" + PascalName(blockName)
	g.line("// %s renders the %s block.", name, blockName)
	g.line("func %s(in block.Input) string {", name)
	if usesScope(ops) {
		g.line("s := block.NewScope(in)")
	} else {
		g.line("_ = in")
	}
	g.line("var out strings.Builder")
	g.ops(ops)
	g.line("return out.String()")
	g.line("}")
}

func (g *generator) ops(ops []op) {
	for _, o := range ops {
		g.op(o)
	}
}

func (g *generator) op(o op) {
	switch o.kind {
	case opText:
		g.line("out.WriteString(%s)", strconv.Quote(o.text))
	case opEscape:
		g.line("out.WriteString(s.Escape(%s))", strconv.Quote(o.expr))
	case opRaw:
		g.line("out.WriteString(s.Raw(%s))", strconv.Quote(o.expr))
	case opAttr:
		g.line("out.WriteString(s.Attr(%s, %s))", strconv.Quote(o.text), strconv.Quote(o.expr))
	case opIf:
		g.line("if s.Truthy(%s) {", strconv.Quote(o.expr))
		g.ops(o.body)
		g.line("}")
	case opFor:
		if !usesScope(o.body) {
			g.line("for range s.Range(%s) {", strconv.Quote(o.expr))
			g.ops(o.body)
			g.line("}")

			return
		}
		g.line("for i, v := range s.Range(%s) {", strconv.Quote(o.expr))
		g.line("s := s.Child(map[string]any{%s: v, %s: i})", strconv.Quote(o.item), strconv.Quote(o.index))
		g.ops(o.body)
		g.line("}")
	case opSlot:
		g.line("out.WriteString(s.Slot(%s, %s, block.%s, %s, func() string {",
			strconv.Quote(o.expr), strconv.Quote(o.props), slotModeName(o.mode), strconv.Quote(o.path))
		g.line("var out strings.Builder")
		g.ops(o.body)
		g.line("return out.String()")
		g.line("}))")
	}
}

func slotModeName(m block.SlotPath) string {
	switch m {
	case block.SlotIndex:
		return "SlotIndex"
	case block.SlotPropPath:
		return "SlotPropPath"
	default:
		return "SlotAddr"
	}
}
