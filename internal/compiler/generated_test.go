package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/statickit/internal/compiler/internal/gentest"
	"github.com/conneroisu/statickit/pkg/address"
	"github.com/conneroisu/statickit/pkg/block"
	"github.com/conneroisu/statickit/pkg/layout"
	"github.com/conneroisu/statickit/pkg/schema"
)

const generatedSrc = "testdata/blocks"

var generatedFuncs = map[string]block.RenderFunc{
	"hero-banner":  gentest.RenderHeroBanner,
	"feature-list": gentest.RenderFeatureList,
	"card-slot":    gentest.RenderCardSlot,
}

func generatedInput(props map[string]any) block.Input {
	reg := block.NewRegistry()
	reg.MustRegister(block.Definition{
		Type:   "child",
		Schema: schema.Any(),
		Render: func(in block.Input) string {
			return "[" + address.Encode(in.Addr) + "]"
		},
	})

	return block.Input{
		Props: props,
		Ctx:   block.Context{PageID: "home", AssetBase: "/", Layout: layout.Defaults(), Blocks: reg},
		Addr:  address.New("home", "main", "b1"),
	}
}

func TestGenerated_Render(t *testing.T) {
	tests := []struct {
		name  string
		block string
		props map[string]any
		want  string
	}{
		{
			name:  "escaped title",
			block: "hero-banner",
			props: map[string]any{"title": "<x>"},
			want:  "<div>&lt;x&gt;</div>",
		},
		{
			name:  "loop with condition, bound and interpolated attributes",
			block: "feature-list",
			props: map[string]any{
				"items": []any{
					map[string]any{"label": "Fast", "show": true, "tone": "accent"},
					map[string]any{"label": "Hidden", "show": false},
					map[string]any{"label": "<Safe>", "show": true, "tone": ""},
				},
				"spacers": []any{1, 2},
			},
			want: `<ul class="features"><li class="accent" data-index="0">Fast</li><li data-index="2">&lt;Safe&gt;</li><li><hr></li><li><hr></li></ul>`,
		},
		{
			name:  "empty lists",
			block: "feature-list",
			props: map[string]any{},
			want:  `<ul class="features"></ul>`,
		},
		{
			name:  "slots inside a loop",
			block: "card-slot",
			props: map[string]any{
				"heading": "Hi <you>",
				"cards": []any{
					map[string]any{"type": "child"},
					map[string]any{"type": "nope", "fallback": "<b>fb</b>"},
				},
			},
			want: `<section class="card"><h2>Hi &lt;you&gt;</h2><div>[home::main::b1::[0]]</div><div><p><b>fb</b></p></div></section>`,
		},
		{
			name:  "falsy heading",
			block: "card-slot",
			props: map[string]any{"heading": ""},
			want:  `<section class="card"></section>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := generatedInput(tt.props)
			assert.Equal(t, tt.want, generatedFuncs[tt.block](in))

			src, err := os.ReadFile(filepath.Join(generatedSrc, tt.block+blockSuffix))
			require.NoError(t, err)
			p, err := Parse(string(src), tt.block)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Render(in), "interpreter")
		})
	}
}

func TestGenerated_UpToDate(t *testing.T) {
	templates, err := Discover(generatedSrc)
	require.NoError(t, err)
	require.Len(t, templates, len(generatedFuncs))

	for _, tmpl := range templates {
		t.Run(tmpl.Name, func(t *testing.T) {
			src, err := os.ReadFile(tmpl.Path)
			require.NoError(t, err)

			want, err := Compile(string(src), tmpl.Name, WithPackage("gentest"), WithSource(filepath.ToSlash(tmpl.Path)))
			require.NoError(t, err)

			got, err := os.ReadFile(filepath.Join("internal", "gentest", outputName(tmpl.Name)))
			require.NoError(t, err)
			assert.Equal(t, want, string(got), "run go generate ./internal/compiler")
		})
	}
}
