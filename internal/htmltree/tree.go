// Package htmltree adapts golang.org/x/net/html for the template compiler
// and the page renderer: parsing, walking, attribute edits and
// serialization.
package htmltree

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// fragmentContext parses fragments the way a <template> element's content
// is parsed, so rows, list items and other context-sensitive tags survive
// at the top level.
func fragmentContext() *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Template,
		Data:     "template",
	}
}

// ParseFragment parses a template fragment and returns its top-level nodes.
func ParseFragment(src string) ([]*html.Node, error) {
	return html.ParseFragment(strings.NewReader(src), fragmentContext())
}

// ParseDocument parses a full HTML document.
func ParseDocument(src string) (*html.Node, error) {
	return html.Parse(strings.NewReader(src))
}

// Render serializes a node and its descendants.
func Render(n *html.Node) (string, error) {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return "", err
	}

	return b.String(), nil
}

// Walk calls fn for n and every descendant in document order. The next
// sibling is read before descending, so fn may replace the children of the
// node it is given.
func Walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		Walk(c, fn)
		c = next
	}
}

// ChildNodes returns the children of n.
func ChildNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}

	return out
}

// Attr returns the value of the named attribute.
func Attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}

	return "", false
}

// SetAttr sets an attribute, keeping its position when it already exists
// and appending it otherwise.
func SetAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// WithoutAttrs returns a copy of attrs minus the named keys.
func WithoutAttrs(attrs []html.Attribute, names ...string) []html.Attribute {
	out := make([]html.Attribute, 0, len(attrs))
next:
	for _, a := range attrs {
		for _, name := range names {
			if a.Key == name {
				continue next
			}
		}
		out = append(out, a)
	}

	return out
}

// removeChildren detaches every child of n.
func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// ReplaceChildren makes child the only child of n.
func ReplaceChildren(n *html.Node, child *html.Node) {
	removeChildren(n)
	n.AppendChild(child)
}

// SetText replaces the children of n with a single text node.
func SetText(n *html.Node, text string) {
	ReplaceChildren(n, &html.Node{Type: html.TextNode, Data: text})
}

// Comment creates a detached comment node.
func Comment(data string) *html.Node {
	return &html.Node{Type: html.CommentNode, Data: data}
}

// IsWhitespace reports whether s holds only ASCII whitespace.
func IsWhitespace(s string) bool {
	return strings.Trim(s, " \t\n\r\f") == ""
}

// TrimEdgeWhitespace drops whitespace-only text nodes at the first and last
// positions of nodes. Interior whitespace-only nodes are kept.
func TrimEdgeWhitespace(nodes []*html.Node) []*html.Node {
	out := make([]*html.Node, 0, len(nodes))
	for i, n := range nodes {
		if n.Type == html.TextNode && IsWhitespace(n.Data) && (i == 0 || i == len(nodes)-1) {
			continue
		}
		out = append(out, n)
	}

	return out
}
