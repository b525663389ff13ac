package htmltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestParseFragment_ContextSensitiveTags(t *testing.T) {
	tests := []struct {
		name string
		src  string
		tags []string
	}{
		{"list item at top level", `<li>a</li><li>b</li>`, []string{"li", "li"}},
		{"table row at top level", `<tr><td>x</td></tr>`, []string{"tr"}},
		{"custom element", `<render-slot :block="t" :props="p"></render-slot>`, []string{"render-slot"}},
		{"template grouping", `<template v-if="x"><p>a</p></template>`, []string{"template"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := ParseFragment(tt.src)
			require.NoError(t, err)
			var tags []string
			for _, n := range nodes {
				if n.Type == html.ElementNode {
					tags = append(tags, n.Data)
				}
			}
			assert.Equal(t, tt.tags, tags)
		})
	}
}

func TestParseFragment_TemplateChildrenAreRegularChildren(t *testing.T) {
	nodes, err := ParseFragment("<template>\n  <p>a</p>\n  <p>b</p>\n</template>")
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	children := ChildNodes(nodes[0])
	require.Len(t, children, 5)
	trimmed := TrimEdgeWhitespace(children)
	require.Len(t, trimmed, 3)
	assert.Equal(t, "p", trimmed[0].Data)
	assert.Equal(t, html.TextNode, trimmed[1].Type)
	assert.Equal(t, "p", trimmed[2].Data)
}

func TestParseFragment_PreservesAttributeOrder(t *testing.T) {
	nodes, err := ParseFragment(`<a :href="item.href" class="link" v-if="item" :key="item.id">x</a>`)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	var keys []string
	for _, a := range nodes[0].Attr {
		keys = append(keys, a.Key)
	}
	assert.Equal(t, []string{":href", "class", "v-if", ":key"}, keys)
}

func TestAttributeHelpers(t *testing.T) {
	n := &html.Node{Type: html.ElementNode, Data: "html"}

	SetAttr(n, "lang", "en")
	SetAttr(n, "data-page-id", "home")
	SetAttr(n, "lang", "cs")

	v, ok := Attr(n, "lang")
	assert.True(t, ok)
	assert.Equal(t, "cs", v)
	assert.Equal(t, "lang", n.Attr[0].Key)

	v, ok = Attr(n, "data-page-id")
	assert.True(t, ok)
	assert.Equal(t, "home", v)

	_, ok = Attr(n, "missing")
	assert.False(t, ok)

	attrs := WithoutAttrs([]html.Attribute{{Key: "a"}, {Key: "v-if"}, {Key: "b"}}, "v-if")
	assert.Equal(t, []html.Attribute{{Key: "a"}, {Key: "b"}}, attrs)
}

func TestWalkAndRender(t *testing.T) {
	doc, err := ParseDocument(`<!doctype html><html><head><title>Old</title></head><body><main data-region="main"><p>placeholder</p></main></body></html>`)
	require.NoError(t, err)

	Walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.Data {
		case "title":
			SetText(n, "New & improved")
		case "main":
			ReplaceChildren(n, Comment("__REGION_CONTENT_main__"))
		}
	})

	out, err := Render(doc)
	require.NoError(t, err)
	assert.Contains(t, out, "<title>New &amp; improved</title>")
	assert.Contains(t, out, `<main data-region="main"><!--__REGION_CONTENT_main__--></main>`)
	assert.NotContains(t, out, "placeholder")
}

func TestIsWhitespace(t *testing.T) {
	assert.True(t, IsWhitespace(" \n\t "))
	assert.True(t, IsWhitespace(""))
	assert.False(t, IsWhitespace(" x "))
	assert.False(t, IsWhitespace("\u00a0"))
}
