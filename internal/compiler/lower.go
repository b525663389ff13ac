package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/internal/htmltree"
	"github.com/conneroisu/statickit/pkg/block"
)

const defaultIndexVar = "_i"

var (
	interpPattern = regexp.MustCompile(`\{\{\{.+?\}\}\}|\{\{.+?\}\}`)
	rawPattern    = regexp.MustCompile(`^\{\{\{\s*(.+?)\s*\}\}\}$`)
	escapePattern = regexp.MustCompile(`^\{\{\s*(.+?)\s*\}\}$`)

	// "item in list", "item, i in list", "(item) in list" or "(item, i) in list"
	forPattern = regexp.MustCompile(`^\s*(?:\(\s*(\w+)\s*(?:,\s*(\w+))?\s*\)|(\w+)\s*(?:,\s*(\w+))?)\s+in\s+(.+)\s*$`)

	leadingSpace  = regexp.MustCompile(`^\s+`)
	trailingSpace = regexp.MustCompile(`\s+$`)
	spaceRun      = regexp.MustCompile(`\s+`)
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// rawTextElements hold text the browser never decodes. Their literal text
// is copied through as written; interpolations still apply.
var rawTextElements = map[string]bool{
	"script": true, "style": true,
}

// lower parses src and lowers it to a merged op list.
func lower(src, blockName string) ([]op, error) {
	nodes, err := htmltree.ParseFragment(src)
	if err != nil {
		return nil, kiterrors.NewCompileError(kiterrors.ErrCodeTemplateParse, "failed to parse template", err).
			WithComponent(blockName)
	}

	l := &lowerer{block: blockName}
	ops, err := l.nodes(nodes)
	if err != nil {
		return nil, err
	}

	return merge(ops), nil
}

type lowerer struct {
	block string
}

func (l *lowerer) fail(code, msg string) *kiterrors.KitError {
	return kiterrors.NewCompileError(code, msg, nil).WithComponent(l.block)
}

// checkExpr rejects expressions that do not compile.
func (l *lowerer) checkExpr(src string) error {
	if _, err := block.CompileExpr(src); err != nil {
		return kiterrors.NewCompileError(kiterrors.ErrCodeInvalidExpression,
			fmt.Sprintf("invalid expression %q", src), err).
			WithComponent(l.block).
			WithContext("expr", src)
	}

	return nil
}

func (l *lowerer) nodes(nodes []*html.Node) ([]op, error) {
	var out []op
	for _, n := range nodes {
		ops, err := l.node(n)
		if err != nil {
			return nil, err
		}
		out = append(out, ops...)
	}

	return out, nil
}

func (l *lowerer) node(n *html.Node) ([]op, error) {
	switch n.Type {
	case html.TextNode:
		if htmltree.IsWhitespace(n.Data) {
			return nil, nil
		}

		return l.text(n.Data, n.Parent != nil && rawTextElements[n.Parent.Data])
	case html.ElementNode:
		// an empty directive counts as absent
		if src, _ := htmltree.Attr(n, "v-for"); src != "" {
			return l.loop(n, src)
		}
		if src, _ := htmltree.Attr(n, "v-if"); src != "" {
			return l.cond(n, src)
		}

		return l.element(n)
	case html.DocumentNode:
		return l.nodes(htmltree.ChildNodes(n))
	default:
		// comments and doctypes
		return nil, nil
	}
}

// text splits a text node into literal and interpolated parts. Literal
// parts of raw text keep their whitespace and are not escaped.
func (l *lowerer) text(data string, raw bool) ([]op, error) {
	parts := splitInterpolation(data)

	var out []op
	for i, part := range parts {
		if i%2 == 1 {
			o, err := l.interpolation(part)
			if err != nil {
				return nil, err
			}
			out = append(out, o)
			continue
		}
		if raw {
			out = append(out, op{kind: opText, text: part})
			continue
		}

		text := normalizeText(part, i == 0, i == len(parts)-1)
		if text == "" {
			continue
		}
		out = append(out, op{kind: opText, text: escapeText(text)})
	}

	return out, nil
}

// interpolation lowers a single {{ }} or {{{ }}} marker.
func (l *lowerer) interpolation(marker string) (op, error) {
	kind := opEscape
	m := escapePattern.FindStringSubmatch(marker)
	if r := rawPattern.FindStringSubmatch(marker); r != nil {
		kind, m = opRaw, r
	}
	if m == nil {
		return op{}, l.fail(kiterrors.ErrCodeInvalidExpression, fmt.Sprintf("invalid interpolation %q", marker))
	}
	if err := l.checkExpr(m[1]); err != nil {
		return op{}, err
	}

	return op{kind: kind, expr: m[1]}, nil
}

// splitInterpolation splits s around {{ }} and {{{ }}} markers. The result
// alternates literal and marker parts and always starts and ends with a
// literal, which may be empty.
func splitInterpolation(s string) []string {
	var parts []string
	last := 0
	for _, m := range interpPattern.FindAllStringIndex(s, -1) {
		parts = append(parts, s[last:m[0]], s[m[0]:m[1]])
		last = m[1]
	}

	return append(parts, s[last:])
}

// normalizeText collapses whitespace runs in a literal part. Edges are
// trimmed only where the part touches the edge of its text node.
func normalizeText(s string, first, last bool) string {
	if first {
		s = leadingSpace.ReplaceAllString(s, "")
	}
	if last {
		s = trailingSpace.ReplaceAllString(s, "")
	}

	return spaceRun.ReplaceAllString(s, " ")
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escapeText re-escapes decoded text so it reads back as the same text.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// loop lowers an element carrying v-for. A v-if on the same element is
// evaluated once per item.
func (l *lowerer) loop(n *html.Node, src string) ([]op, error) {
	m := forPattern.FindStringSubmatch(src)
	if m == nil {
		return nil, l.fail(kiterrors.ErrCodeInvalidFor, fmt.Sprintf("invalid v-for expression: %s", src)).
			WithContext("expr", src)
	}

	item, index, list := m[1], m[2], strings.TrimSpace(m[5])
	if item == "" {
		item, index = m[3], m[4]
	}
	if index == "" {
		index = defaultIndexVar
	}
	if err := l.checkExpr(list); err != nil {
		return nil, err
	}

	inner := stripDirectives(n, "v-for")

	var (
		body []op
		err  error
	)
	if cond, _ := htmltree.Attr(n, "v-if"); cond != "" {
		body, err = l.cond(inner, cond)
	} else {
		body, err = l.element(inner)
	}
	if err != nil {
		return nil, err
	}

	return []op{{kind: opFor, item: item, index: index, expr: list, body: body}}, nil
}

func (l *lowerer) cond(n *html.Node, src string) ([]op, error) {
	if err := l.checkExpr(src); err != nil {
		return nil, err
	}
	body, err := l.element(stripDirectives(n, "v-if"))
	if err != nil {
		return nil, err
	}

	return []op{{kind: opIf, expr: src, body: body}}, nil
}

// stripDirectives returns a shallow copy of n without the named attributes.
// The copy shares n's children.
func stripDirectives(n *html.Node, names ...string) *html.Node {
	c := *n
	c.Attr = htmltree.WithoutAttrs(n.Attr, names...)

	return &c
}

func (l *lowerer) element(n *html.Node) ([]op, error) {
	switch n.Data {
	case "template":
		return l.nodes(htmltree.TrimEdgeWhitespace(htmltree.ChildNodes(n)))
	case "render-slot":
		return l.slot(n)
	}

	out := []op{{kind: opText, text: "<" + n.Data}}
	for _, a := range n.Attr {
		ops, err := l.attr(a)
		if err != nil {
			return nil, err
		}
		out = append(out, ops...)
	}
	out = append(out, op{kind: opText, text: ">"})

	if voidElements[n.Data] {
		return out, nil
	}

	children, err := l.nodes(htmltree.ChildNodes(n))
	if err != nil {
		return nil, err
	}
	out = append(out, children...)

	return append(out, op{kind: opText, text: "</" + n.Data + ">"}), nil
}

func (l *lowerer) attr(a html.Attribute) ([]op, error) {
	name := a.Key
	if a.Namespace != "" {
		name = a.Namespace + ":" + a.Key
	}

	switch {
	case strings.HasPrefix(name, "v-"):
		return nil, nil
	case strings.HasPrefix(name, ":"):
		bound := name[1:]
		if bound == "key" {
			return nil, nil
		}
		if err := l.checkExpr(a.Val); err != nil {
			return nil, err
		}

		return []op{{kind: opAttr, text: bound, expr: a.Val}}, nil
	case strings.Contains(a.Val, "{{"):
		return l.interpolatedAttr(name, a.Val)
	default:
		return []op{{kind: opText, text: " " + name + `="` + block.EscapeAttr(a.Val) + `"`}}, nil
	}
}

// interpolatedAttr lowers name="a {{ x }} b". Every expression part is
// escaped, including triple-brace parts.
func (l *lowerer) interpolatedAttr(name, val string) ([]op, error) {
	out := []op{{kind: opText, text: " " + name + `="`}}
	for i, part := range splitInterpolation(val) {
		if i%2 == 0 {
			out = append(out, op{kind: opText, text: block.EscapeAttr(part)})
			continue
		}
		o, err := l.interpolation(part)
		if err != nil {
			return nil, err
		}
		o.kind = opEscape
		out = append(out, o)
	}

	return append(out, op{kind: opText, text: `"`}), nil
}

func (l *lowerer) slot(n *html.Node) ([]op, error) {
	blockSrc, _ := htmltree.Attr(n, ":block")
	if blockSrc == "" {
		return nil, l.fail(kiterrors.ErrCodeSlotMissingBlock, "<render-slot> requires :block attribute")
	}
	propsSrc, _ := htmltree.Attr(n, ":props")
	if propsSrc == "" {
		return nil, l.fail(kiterrors.ErrCodeSlotMissingProps, "<render-slot> requires :props attribute")
	}

	o := op{kind: opSlot, expr: blockSrc, props: propsSrc, mode: block.SlotAddr}
	if p, ok := htmltree.Attr(n, ":prop-path"); ok && p != "" {
		o.mode, o.path = block.SlotPropPath, p
	} else if i, ok := htmltree.Attr(n, ":index"); ok && i != "" {
		o.mode, o.path = block.SlotIndex, i
	}

	for _, src := range []string{o.expr, o.props, o.path} {
		if src == "" {
			continue
		}
		if err := l.checkExpr(src); err != nil {
			return nil, err
		}
	}

	body, err := l.nodes(htmltree.TrimEdgeWhitespace(htmltree.ChildNodes(n)))
	if err != nil {
		return nil, err
	}
	o.body = body

	return []op{o}, nil
}
