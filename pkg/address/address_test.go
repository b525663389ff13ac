package address

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
)

func ptr(s string) *string { return &s }

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		addr     Address
		expected string
	}{
		{"without prop path", New("home", "main", "hero-1"), "home::main::hero-1"},
		{"with prop path", Address{"about", "sidebar", "card-2", ptr("title")}, "about::sidebar::card-2::title"},
		{"nested prop path", Address{"blog", "content", "post-1", ptr("author.name")}, "blog::content::post-1::author.name"},
		{"indexed prop path", Address{"products", "main", "grid-1", ptr("items[0].title")}, "products::main::grid-1::items[0].title"},
		{"empty prop path kept", Address{"home", "main", "hero-1", ptr("")}, "home::main::hero-1::"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Encode(tt.addr))
			assert.Equal(t, tt.expected, tt.addr.String())
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		encoded  string
		expected Address
	}{
		{"three parts", "home::main::hero-1", New("home", "main", "hero-1")},
		{"four parts", "about::sidebar::card-2::title", Address{"about", "sidebar", "card-2", ptr("title")}},
		{"indexed path", "products::main::grid-1::items[0].title", Address{"products", "main", "grid-1", ptr("items[0].title")}},
		{"trailing delimiter gives empty path", "home::main::hero-1::", Address{"home", "main", "hero-1", ptr("")}},
		{"all empty three parts", "::::", Address{}},
		{"all empty four parts", "::::::", Address{PropPath: ptr("")}},
		{"extra delimiters stay in path", "p::r::b::a::b", Address{"p", "r", "b", ptr("a::b")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.encoded)
			require.NoError(t, err)
			assert.True(t, Equal(tt.expected, got), "got %#v", got)
			assert.Equal(t, tt.expected.HasPropPath(), got.HasPropPath())
		})
	}
}

func TestDecode_TooFewParts(t *testing.T) {
	for _, in := range []string{"", "home", "home::main", "::"} {
		t.Run(in, func(t *testing.T) {
			_, err := Decode(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, kiterrors.ErrInvalidAddress)
			assert.Contains(t, err.Error(), "invalid schema address")
		})
	}

	assert.Panics(t, func() { MustDecode("home") })
}

func TestWithPropPath_DoesNotMutate(t *testing.T) {
	orig := New("home", "main", "hero-1")
	next := WithPropPath(orig, "title")

	assert.Nil(t, orig.PropPath)
	assert.Equal(t, "title", next.Path())

	again := WithPropPath(next, "subtitle")
	assert.Equal(t, "title", next.Path())
	assert.Equal(t, "subtitle", again.Path())
	assert.False(t, WithoutPropPath(again).HasPropPath())
}

func TestIsSameBlock(t *testing.T) {
	a := Address{"home", "main", "hero-1", ptr("title")}
	b := Address{"home", "main", "hero-1", ptr("items[2]")}
	c := New("home", "main", "hero-2")

	assert.True(t, IsSameBlock(a, b))
	assert.True(t, IsSameBlock(a, New("home", "main", "hero-1")))
	assert.False(t, IsSameBlock(a, c))
	assert.False(t, Equal(a, b))
}

func TestChildIndex(t *testing.T) {
	root := New("home", "main", "list")
	assert.Equal(t, "[3]", ChildIndex(root, 3).Path())
	assert.Equal(t, "items[0]", ChildIndex(WithPropPath(root, "items"), 0).Path())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(New("home", "main", "hero-1")))
	err := Validate(New("home", "ma::in", "hero-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region")
}

func TestJSONShape(t *testing.T) {
	data, err := json.Marshal(New("home", "main", "hero-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"pageId":"home","region":"main","blockId":"hero-1"}`, string(data))

	data, err = json.Marshal(WithPropPath(New("home", "main", "hero-1"), ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"pageId":"home","region":"main","blockId":"hero-1","propPath":""}`, string(data))
}

func TestResolve(t *testing.T) {
	props := map[string]any{
		"title": "Hello",
		"items": []any{
			map[string]any{"title": "first"},
			map[string]any{"title": "second"},
		},
	}
	base := New("home", "main", "grid")

	tests := []struct {
		name string
		path *string
		want any
	}{
		{"absent path returns props", nil, props},
		{"top level", ptr("title"), "Hello"},
		{"indexed nested", ptr("items[1].title"), "second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := base
			a.PropPath = tt.path
			got, err := Resolve(props, a)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("typed props", func(t *testing.T) {
		type item struct {
			Title string `json:"title"`
		}
		typed := struct {
			Items []item `json:"items"`
		}{Items: []item{{"a"}, {"b"}}}
		got, err := Resolve(typed, WithPropPath(base, "items[0].title"))
		require.NoError(t, err)
		assert.Equal(t, "a", got)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := Resolve(props, WithPropPath(base, "nope"))
		assert.Error(t, err)
	})

	t.Run("index on root array", func(t *testing.T) {
		got, err := Resolve([]any{"x", "y"}, WithPropPath(base, "[1]"))
		require.NoError(t, err)
		assert.Equal(t, "y", got)
	})
}
