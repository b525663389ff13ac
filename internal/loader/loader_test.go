package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/pkg/layout"
)

const homeYAML = `id: home
path: /
title: Home
template: base.html
density: compact
meta:
  description: Landing page
regions:
  main:
    blocks:
      - id: hero-1
        type: hero
        props:
          title: Welcome
          items: [a, b]
        layout:
          tone: accent
      - id: text-1
        type: text
`

const homeHCL = `
id       = "home"
path     = "/"
title    = "Home"
template = "base.html"
density  = "compact"
meta = {
  description = "Landing page"
}

region "main" {
  block "hero-1" {
    type  = "hero"
    props = {
      title = "Welcome"
      items = ["a", "b"]
    }
    layout {
      tone = "accent"
    }
  }

  block "text-1" {
    type = "text"
  }
}
`

const homeJSON = `{
  "id": "home",
  "path": "/",
  "title": "Home",
  "template": "base.html",
  "density": "compact",
  "meta": {"description": "Landing page"},
  "regions": {
    "main": {"blocks": [
      {"id": "hero-1", "type": "hero", "props": {"title": "Welcome", "items": ["a", "b"]}, "layout": {"tone": "accent"}},
      {"id": "text-1", "type": "text"}
    ]}
  }
}`

func TestParse_Formats(t *testing.T) {
	tests := []struct {
		format Format
		src    string
	}{
		{FormatYAML, homeYAML},
		{FormatHCL, homeHCL},
		{FormatJSON, homeJSON},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			cfg, err := Parse([]byte(tt.src), tt.format, "pages/home."+string(tt.format))
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())

			assert.Equal(t, "home", cfg.ID)
			assert.Equal(t, "/", cfg.Path)
			assert.Equal(t, "Home", cfg.Title)
			assert.Equal(t, "base.html", cfg.Template)
			assert.Equal(t, "compact", cfg.Density)
			assert.Equal(t, "Landing page", cfg.Meta["description"])
			assert.Equal(t, "pages/home."+string(tt.format), cfg.Source)

			blocks := cfg.Regions["main"].Blocks
			require.Len(t, blocks, 2)
			assert.Equal(t, "hero-1", blocks[0].ID)
			assert.Equal(t, "hero", blocks[0].Type)
			assert.Equal(t, "Welcome", blocks[0].Props["title"])
			assert.Equal(t, []any{"a", "b"}, blocks[0].Props["items"])
			require.NotNil(t, blocks[0].Layout)
			assert.Equal(t, layout.ToneAccent, blocks[0].Layout.Tone)

			assert.Equal(t, "text-1", blocks[1].ID)
			assert.Empty(t, blocks[1].Props)
			assert.Nil(t, blocks[1].Layout)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		src    string
		want   string
		line   int
	}{
		{
			name:   "yaml unknown field",
			format: FormatYAML,
			src:    "id: home\nslug: nope\n",
			want:   "slug",
		},
		{
			name:   "yaml syntax",
			format: FormatYAML,
			src:    "id: home\npath: [\n",
			want:   "invalid YAML",
		},
		{
			name:   "json unknown field",
			format: FormatJSON,
			src:    `{"id": "home", "slug": "nope"}`,
			want:   "slug",
		},
		{
			name:   "hcl unknown attribute",
			format: FormatHCL,
			src:    "id = \"home\"\npath = \"/\"\ntemplate = \"t\"\nslug = \"nope\"\n",
			want:   "slug",
			line:   4,
		},
		{
			name:   "hcl props must be an object",
			format: FormatHCL,
			src:    "id = \"home\"\npath = \"/\"\ntemplate = \"t\"\nregion \"main\" {\n  block \"a\" {\n    type = \"x\"\n    props = \"flat\"\n  }\n}\n",
			want:   "props must be an object",
		},
		{
			name:   "hcl region declared twice",
			format: FormatHCL,
			src:    "id = \"home\"\npath = \"/\"\ntemplate = \"t\"\nregion \"main\" {}\nregion \"main\" {}\n",
			want:   `region "main" is declared twice`,
		},
		{
			name:   "unknown format",
			format: Format("toml"),
			src:    "",
			want:   "unknown format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), tt.format, "page.src")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, kiterrors.IsType(err, kiterrors.ErrorTypeConfig))

			if tt.line > 0 {
				var kerr *kiterrors.KitError
				require.True(t, errors.As(err, &kerr))
				assert.Equal(t, tt.line, kerr.Line)
			}
		})
	}
}

func TestFormatOf(t *testing.T) {
	tests := map[string]Format{
		"home.yaml":     FormatYAML,
		"home.YML":      FormatYAML,
		"home.hcl":      FormatHCL,
		"pages/a.json":  FormatJSON,
		"README.md":     "",
		"home.yaml.bak": "",
	}
	for path, want := range tests {
		got, ok := FormatOf(path)
		assert.Equal(t, want != "", ok, path)
		assert.Equal(t, want, got, path)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "home.yaml"), homeYAML)
	writeFile(t, filepath.Join(dir, "nested", "about.hcl"), `
id       = "about"
path     = "/about"
template = "base.html"
`)
	writeFile(t, filepath.Join(dir, "notes.md"), "# not a page")

	pages, err := LoadDir(t.Context(), dir)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "home", pages[0].ID)
	assert.Equal(t, "about", pages[1].ID)
	assert.Equal(t, filepath.Join(dir, "nested", "about.hcl"), pages[1].Source)

	got, ok := Lookup(pages, "/about")
	require.True(t, ok)
	assert.Equal(t, "about", got.ID)

	got, ok = Lookup(pages, "home")
	require.True(t, ok)
	assert.Equal(t, "/", got.Path)

	_, ok = Lookup(pages, "/missing")
	assert.False(t, ok)
}

func TestLoadDir_ReportsEveryFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), homeYAML)
	writeFile(t, filepath.Join(dir, "b.json"), `{"id": "home", "path": "/copy", "template": "base.html"}`)
	writeFile(t, filepath.Join(dir, "c.yaml"), "id: broken\npath: relative\ntemplate: base.html\n")
	writeFile(t, filepath.Join(dir, "d.yaml"), "id: [\n")

	pages, err := LoadDir(t.Context(), dir)
	require.Error(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "home", pages[0].ID)

	msg := err.Error()
	assert.Contains(t, msg, `page id "home" is already defined`)
	assert.Contains(t, msg, `must start with "/"`)
	assert.Contains(t, msg, "invalid YAML")
	assert.Contains(t, msg, filepath.Join(dir, "d.yaml"))
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, kiterrors.IsType(err, kiterrors.ErrorTypeIO))

	_, err = LoadFile("page.toml")
	require.Error(t, err)
	assert.True(t, kiterrors.IsType(err, kiterrors.ErrorTypeConfig))
}
