package page

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/internal/logging"
	"github.com/conneroisu/statickit/pkg/address"
	"github.com/conneroisu/statickit/pkg/block"
	"github.com/conneroisu/statickit/pkg/layout"
	"github.com/conneroisu/statickit/pkg/schema"
)

const baseTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<title>Placeholder</title>
<link rel="stylesheet" href="/public/css/site.css">
<link rel="icon" href="/favicon.ico">
<script src="/public/js/app.js?x=1"></script>
<script src="https://cdn.example.com/lib.js"></script>
</head>
<body>
<header data-region="header"><p>placeholder</p></header>
<main data-region="main"></main>
<aside data-region="unused"><p>keep</p></aside>
</body>
</html>`

type textProps struct {
	Text string `json:"text" validate:"required"`
}

func testRegistry(t *testing.T) *block.Registry {
	t.Helper()
	reg := block.NewRegistry()
	reg.MustRegister(
		block.Define("text", schema.For[textProps](), func(p textProps, ctx block.Context, addr address.Address) string {
			return `<p data-block-id="` + addr.BlockID + `" data-schema-address="` + address.Encode(addr) +
				`" data-tone="` + string(ctx.Layout.Tone) + `">` + block.EscapeHTML(p.Text) + `</p>`
		}),
		block.Define("boom", schema.Any(), func(_ any, _ block.Context, _ address.Address) string {
			panic(&block.EvalError{Expr: "props.x.y", Err: errors.New("cannot fetch y from <nil>")})
		}),
	)

	return reg
}

func text(id, s string) Instance {
	return Instance{ID: id, Type: "text", Props: map[string]any{"text": s}}
}

func testPage() Config {
	return Config{
		ID:       "home",
		Path:     "/",
		Title:    "Test Page",
		Template: "base.html",
		Density:  "compact",
		Regions: map[string]Region{
			"header": {Blocks: []Instance{text("h1", "Header")}},
			"main": {Blocks: []Instance{
				text("first", "First"),
				text("second", "Second"),
				text("third", "Third"),
			}},
		},
	}
}

func newTestRenderer(t *testing.T, buf *bytes.Buffer) *Renderer {
	t.Helper()
	var l logging.Logger = logging.NewNop()
	if buf != nil {
		l = logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelDebug, Output: buf})
	}

	return NewRenderer(testRegistry(t), WithLogger(l))
}

func TestRenderPage(t *testing.T) {
	r := newTestRenderer(t, nil)

	out, err := r.RenderPage(t.Context(), testPage(), Options{Source: MapSource{"base.html": baseTemplate}})
	require.NoError(t, err)

	t.Run("title, page id and density", func(t *testing.T) {
		assert.Contains(t, out, "<title>Test Page</title>")
		assert.Contains(t, out, `<html lang="en" data-page-id="home" data-density="compact">`)
	})

	t.Run("blocks render in order", func(t *testing.T) {
		first := strings.Index(out, ">First<")
		second := strings.Index(out, ">Second<")
		third := strings.Index(out, ">Third<")
		require.True(t, first > 0 && second > 0 && third > 0, out)
		assert.Less(t, first, second)
		assert.Less(t, second, third)
	})

	t.Run("region children are replaced", func(t *testing.T) {
		assert.Contains(t, out, `<header data-region="header"><p data-tone="surface">Header</p></header>`)
		assert.NotContains(t, out, "placeholder")
		assert.NotContains(t, out, "__REGION_CONTENT_")
	})

	t.Run("regions missing from the config keep their children", func(t *testing.T) {
		assert.Contains(t, out, `<aside data-region="unused"><p>keep</p></aside>`)
	})

	t.Run("production strips editor attributes and the overlay", func(t *testing.T) {
		assert.NotContains(t, out, "data-block-id")
		assert.NotContains(t, out, "data-schema-address")
		assert.NotContains(t, out, DevOverlayPath)
	})
}

func TestRenderPage_BlockHTMLIsNotEscaped(t *testing.T) {
	r := newTestRenderer(t, nil)
	cfg := testPage()
	cfg.Regions = map[string]Region{"main": {Blocks: []Instance{text("t", "a < b")}}}

	out, err := r.RenderPage(t.Context(), cfg, Options{Source: MapSource{"base.html": baseTemplate}})
	require.NoError(t, err)
	assert.Contains(t, out, `<main data-region="main"><p data-tone="surface">a &lt; b</p></main>`)
}

func TestRenderPage_Dev(t *testing.T) {
	r := newTestRenderer(t, nil)

	cfg := testPage()
	cfg.Regions["main"] = Region{Blocks: []Instance{
		text("ok", "Fine"),
		{ID: "ghost", Type: "missing"},
		{ID: "empty", Type: "text", Props: map[string]any{}},
	}}

	out, err := r.RenderPage(t.Context(), cfg, Options{Source: MapSource{"base.html": baseTemplate}, IsDev: true})
	require.NoError(t, err)

	assert.Contains(t, out, `data-block-id="ok"`)
	assert.Contains(t, out, `data-schema-address="home::main::ok"`)
	assert.Contains(t, out, `<script src="/__dev-overlay.js"></script></body>`)
	assert.Equal(t, 1, strings.Count(out, DevOverlayPath))
	assert.Equal(t, 2, strings.Count(out, "data-slot-error"))
	assert.Contains(t, out, "not-found")
	assert.Contains(t, out, "text: is required")
}

func TestRenderPage_SkipsBrokenBlocks(t *testing.T) {
	var logs bytes.Buffer
	r := newTestRenderer(t, &logs)

	cfg := testPage()
	cfg.Regions = map[string]Region{"main": {Blocks: []Instance{
		text("before", "Before"),
		{ID: "unknown", Type: "unknown-type"},
		{ID: "invalid", Type: "text", Props: map[string]any{"text": ""}},
		{ID: "neon", Type: "text", Props: map[string]any{"text": "x"}, Layout: &layout.Override{Tone: "neon"}},
		{ID: "panics", Type: "boom"},
		text("after", "After"),
	}}}

	out, err := r.RenderPage(t.Context(), cfg, Options{Source: MapSource{"base.html": baseTemplate}})
	require.NoError(t, err)

	assert.Contains(t, out, `<main data-region="main"><p data-tone="surface">Before</p><p data-tone="surface">After</p></main>`)
	assert.NotContains(t, out, "unknown-type")
	assert.NotContains(t, out, "data-slot-error")

	for _, id := range []string{"unknown", "invalid", "neon", "panics"} {
		assert.Contains(t, logs.String(), "block="+id)
	}
	assert.Contains(t, logs.String(), "skipping block")
	assert.Contains(t, logs.String(), "component=page")
}

func TestRenderPage_CacheBust(t *testing.T) {
	r := newTestRenderer(t, nil)

	out, err := r.RenderPage(t.Context(), testPage(), Options{
		Source:    MapSource{"base.html": baseTemplate},
		CacheBust: "abc",
	})
	require.NoError(t, err)

	assert.Contains(t, out, `href="/public/css/site.css?v=abc"`)
	assert.Contains(t, out, `src="/public/js/app.js?x=1&amp;v=abc"`)
	assert.Contains(t, out, `href="/favicon.ico"`)
	assert.Contains(t, out, `src="https://cdn.example.com/lib.js"`)
}

func TestRenderPage_PostProcess(t *testing.T) {
	r := newTestRenderer(t, nil)

	var seen string
	out, err := r.RenderPage(t.Context(), testPage(), Options{
		Source: MapSource{"base.html": baseTemplate},
		IsDev:  true,
		PostProcess: func(s string) string {
			seen = s
			return strings.ReplaceAll(s, "Test Page", "Processed")
		},
	})
	require.NoError(t, err)

	assert.NotContains(t, seen, DevOverlayPath)
	assert.Contains(t, out, "<title>Processed</title>")
	assert.Contains(t, out, DevOverlayPath)
}

func TestRenderPage_Failures(t *testing.T) {
	r := newTestRenderer(t, nil)

	t.Run("missing template", func(t *testing.T) {
		_, err := r.RenderPage(t.Context(), testPage(), Options{Source: MapSource{}})
		require.Error(t, err)
		assert.True(t, kiterrors.IsType(err, kiterrors.ErrorTypeIO))
	})

	t.Run("no source", func(t *testing.T) {
		_, err := r.RenderPage(t.Context(), testPage(), Options{})
		require.Error(t, err)
	})

	t.Run("bad density", func(t *testing.T) {
		cfg := testPage()
		cfg.Density = "cozy"
		_, err := r.RenderPage(t.Context(), cfg, Options{Source: MapSource{"base.html": baseTemplate}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cozy")
	})
}

func TestRenderBlock(t *testing.T) {
	r := newTestRenderer(t, nil)
	opts := BlockOptions{PageID: "home", Region: "main"}

	t.Run("renders with merged layout", func(t *testing.T) {
		inst := text("b1", "Hello")
		inst.Layout = &layout.Override{Tone: layout.ToneAccent}
		out, err := r.RenderBlock(inst, BlockOptions{PageID: "home", Region: "main", IsDev: true})
		require.NoError(t, err)
		assert.Equal(t, `<p data-block-id="b1" data-schema-address="home::main::b1" data-tone="accent">Hello</p>`, out)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := r.RenderBlock(Instance{ID: "x", Type: "nope"}, opts)
		assert.True(t, errors.Is(err, kiterrors.ErrUnknownType))
	})

	t.Run("invalid props", func(t *testing.T) {
		_, err := r.RenderBlock(Instance{ID: "x", Type: "text"}, opts)
		require.Error(t, err)
		assert.True(t, errors.Is(err, kiterrors.ErrInvalidProps))

		var issues schema.Issues
		require.True(t, errors.As(err, &issues))
		assert.Equal(t, "text", issues[0].Path)
	})

	t.Run("invalid layout", func(t *testing.T) {
		inst := text("x", "y")
		inst.Layout = &layout.Override{Density: "cozy"}
		_, err := r.RenderBlock(inst, opts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cozy")
	})

	t.Run("render panic becomes an error", func(t *testing.T) {
		_, err := r.RenderBlock(Instance{ID: "x", Type: "boom"}, opts)
		require.Error(t, err)

		var evalErr *block.EvalError
		assert.True(t, errors.As(err, &evalErr))
		assert.Contains(t, err.Error(), kiterrors.ErrCodeRenderFailed)
	})
}

func TestCacheBust(t *testing.T) {
	tests := []struct {
		in, ext, want string
		ok            bool
	}{
		{"/css/site.css", ".css", "/css/site.css?v=1", true},
		{"/css/site.css?x=2", ".css", "/css/site.css?x=2&v=1", true},
		{"/js/app.js#main", ".js", "/js/app.js?v=1#main", true},
		{"app.JS", ".js", "app.JS?v=1", true},
		{"/css/site.scss", ".css", "/css/site.scss", false},
		{"https://cdn.example.com/a.css", ".css", "https://cdn.example.com/a.css", false},
		{"//cdn.example.com/a.js", ".js", "//cdn.example.com/a.js", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := cacheBust(tt.in, tt.ext, "1")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInjectDevOverlay(t *testing.T) {
	assert.Equal(t,
		`<body><p>&lt;/body&gt;</p>`+devOverlayTag+`</body></html>`,
		injectDevOverlay(`<body><p>&lt;/body&gt;</p></body></html>`))
	assert.Equal(t, "<p>x</p>"+devOverlayTag, injectDevOverlay("<p>x</p>"))
}
