package block

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/pkg/address"
	"github.com/conneroisu/statickit/pkg/schema"
)

func staticBlock(typ, html string) Definition {
	return Definition{
		Type:   typ,
		Schema: schema.Any(),
		Render: func(Input) string { return html },
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(staticBlock("hero", "<h1>hero</h1>")))

	def, ok := reg.Get("hero")
	require.True(t, ok)
	assert.Equal(t, "hero", def.Type)
	assert.Equal(t, "<h1>hero</h1>", def.Render(Input{}))

	_, ok = reg.Get("missing")
	assert.False(t, ok)
	assert.True(t, reg.Has("hero"))
	assert.False(t, reg.Has("missing"))
}

func TestRegistry_DuplicateKeepsFirst(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(staticBlock("hero", "first")))

	err := reg.Register(staticBlock("hero", "second"))
	require.Error(t, err)
	assert.ErrorIs(t, err, kiterrors.ErrDuplicateType)
	assert.Contains(t, err.Error(), `block type "hero" is already registered`)

	def, ok := reg.Get("hero")
	require.True(t, ok)
	assert.Equal(t, "first", def.Render(Input{}))
	assert.Equal(t, 1, reg.Count())

	assert.Panics(t, func() { reg.MustRegister(staticBlock("hero", "third")) })
}

func TestRegistry_RejectsIncompleteDefinitions(t *testing.T) {
	tests := map[string]Definition{
		"empty type": {Render: func(Input) string { return "" }},
		"no render":  {Type: "no-render"},
	}
	for name, def := range tests {
		t.Run(name, func(t *testing.T) {
			reg := NewRegistry()
			err := reg.Register(def)
			require.Error(t, err)
			assert.ErrorIs(t, err, kiterrors.ErrInvalidDefinition)
			assert.NotErrorIs(t, err, kiterrors.ErrDuplicateType)
			assert.Zero(t, reg.Count())
		})
	}
}

func TestRegistry_Require(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(staticBlock("card", "c"))

	def, err := reg.Require("card")
	require.NoError(t, err)
	assert.Equal(t, "card", def.Type)

	_, err = reg.Require("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, kiterrors.ErrUnknownType)
	assert.Contains(t, err.Error(), `unknown block type: "nope"`)
}

func TestRegistry_ListingAndClear(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(staticBlock("teaser", ""), staticBlock("card", ""), staticBlock("grid", ""))

	assert.Equal(t, []string{"card", "grid", "teaser"}, reg.Types())
	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, "card", all[0].Type)

	reg.Clear()
	assert.Zero(t, reg.Count())
	assert.Empty(t, reg.Types())
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	reg := NewRegistry()
	for i := 0; i < 20; i++ {
		reg.MustRegister(staticBlock(fmt.Sprintf("b%d", i), ""))
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.True(t, reg.Has(fmt.Sprintf("b%d", i%20)))
			assert.Len(t, reg.Types(), 20)
		}(i)
	}
	wg.Wait()
}

type cardProps struct {
	Title string `json:"title" validate:"required"`
}

func TestDefine_TypedRender(t *testing.T) {
	def := Define("card", schema.For[cardProps](), func(p cardProps, ctx Context, addr address.Address) string {
		return fmt.Sprintf("<h2 data-page=%q>%s</h2>", ctx.PageID, EscapeHTML(p.Title))
	})

	validated, issues := def.Validate(map[string]any{"title": "A & B"})
	require.Empty(t, issues)
	out := def.Render(Input{Props: validated, Ctx: Context{PageID: "home"}})
	assert.Equal(t, `<h2 data-page="home">A &amp; B</h2>`, out)

	assert.Panics(t, func() { def.Render(Input{Props: map[string]any{"title": "raw"}}) })
}

func TestDefinition_NilSchemaAcceptsAnything(t *testing.T) {
	def := Definition{Type: "x", Render: func(Input) string { return "" }}
	got, issues := def.Validate(42)
	assert.Empty(t, issues)
	assert.Equal(t, 42, got)
}
