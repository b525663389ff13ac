package page

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/internal/htmltree"
	"github.com/conneroisu/statickit/internal/logging"
	"github.com/conneroisu/statickit/pkg/address"
	"github.com/conneroisu/statickit/pkg/block"
	"github.com/conneroisu/statickit/pkg/layout"
	"github.com/conneroisu/statickit/pkg/schema"
)

// RegionAttr names the region an element's children are replaced with.
const RegionAttr = "data-region"

var editorAttrs = regexp.MustCompile(` data-(?:block-id|schema-address)="[^"]*"`)

// Options controls a single page render.
type Options struct {
	// Source provides the base template named by Config.Template.
	Source TemplateSource
	// IsDev loads the dev overlay and emits diagnostic markers. Production
	// renders strip editor attributes instead.
	IsDev bool
	// AssetBase is exposed to blocks as ctx.assetBase. Defaults to "/".
	AssetBase string
	// CacheBust, when set, is appended as ?v= to local stylesheet and
	// script URLs.
	CacheBust string
	// PostProcess runs over the serialized page before dev/production
	// finishing.
	PostProcess func(string) string
}

// BlockOptions places a standalone block render.
type BlockOptions struct {
	PageID    string
	Region    string
	IsDev     bool
	AssetBase string
}

// Renderer renders pages and blocks against a block registry.
type Renderer struct {
	registry *block.Registry
	logger   logging.Logger
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithLogger sets the logger skipped blocks are reported to.
func WithLogger(l logging.Logger) RendererOption {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRenderer returns a renderer backed by reg. The registry is shared
// read-only between concurrent renders.
func NewRenderer(reg *block.Registry, opts ...RendererOption) *Renderer {
	if reg == nil {
		reg = block.NewRegistry()
	}
	r := &Renderer{
		registry: reg,
		logger:   logging.NewLogger(logging.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("page")

	return r
}

// Registry returns the registry blocks are looked up in.
func (r *Renderer) Registry() *block.Registry {
	return r.registry
}

// RenderPage renders cfg into its base template. A template that cannot
// be fetched or parsed fails the page. A block that cannot be rendered is
// logged and left out, and the rest of the page still renders.
func (r *Renderer) RenderPage(ctx context.Context, cfg Config, opts Options) (string, error) {
	if opts.Source == nil {
		return "", kiterrors.NewConfigError(kiterrors.ErrCodeConfigInvalid, "page render needs a template source")
	}
	if opts.AssetBase == "" {
		opts.AssetBase = "/"
	}
	density, err := layout.ParseDensity(cfg.Density)
	if err != nil {
		return "", err
	}

	src, err := opts.Source.Template(ctx, cfg.Template)
	if err != nil {
		return "", err
	}
	doc, err := htmltree.ParseDocument(src)
	if err != nil {
		return "", kiterrors.NewCompileError(kiterrors.ErrCodeTemplateParse,
			fmt.Sprintf("parse page template %q", cfg.Template), err)
	}

	regions := make(map[string]string)
	htmltree.Walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.Data {
		case "title":
			if cfg.Title != "" {
				htmltree.SetText(n, cfg.Title)
			}
		case "html":
			htmltree.SetAttr(n, "data-page-id", cfg.ID)
			if density != "" {
				htmltree.SetAttr(n, "data-density", string(density))
			}
		case "link":
			if opts.CacheBust != "" && isStylesheet(n) {
				bustAttr(n, "href", ".css", opts.CacheBust)
			}
		case "script":
			if opts.CacheBust != "" {
				bustAttr(n, "src", ".js", opts.CacheBust)
			}
		}

		name, ok := htmltree.Attr(n, RegionAttr)
		if !ok {
			return
		}
		region, ok := cfg.Regions[name]
		if !ok {
			return
		}
		if _, done := regions[name]; !done {
			regions[name] = r.renderRegion(ctx, cfg, name, region, opts)
		}
		htmltree.ReplaceChildren(n, htmltree.Comment(regionMarker(name)))
	})

	out, err := htmltree.Render(doc)
	if err != nil {
		return "", kiterrors.NewInternalError(kiterrors.ErrCodeRenderFailed,
			fmt.Sprintf("serialize page %q", cfg.ID), err)
	}
	out = spliceRegions(out, regions)

	if opts.PostProcess != nil {
		out = opts.PostProcess(out)
	}
	if opts.IsDev {
		return injectDevOverlay(out), nil
	}

	return editorAttrs.ReplaceAllString(out, ""), nil
}

func regionMarker(name string) string {
	return "__REGION_CONTENT_" + name + "__"
}

// spliceRegions swaps every region marker comment for the region's HTML in
// one pass, so region output is never scanned for other markers.
func spliceRegions(doc string, regions map[string]string) string {
	if len(regions) == 0 {
		return doc
	}
	names := make([]string, 0, len(regions))
	for name := range regions {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, "<!--"+regionMarker(name)+"-->", regions[name])
	}

	return strings.NewReplacer(pairs...).Replace(doc)
}

// renderRegion renders the region's blocks in order. Failures are logged
// and the block is skipped; in dev mode a diagnostic marker takes its
// place.
func (r *Renderer) renderRegion(ctx context.Context, cfg Config, name string, region Region, opts Options) string {
	bopts := BlockOptions{PageID: cfg.ID, Region: name, IsDev: opts.IsDev, AssetBase: opts.AssetBase}

	var b strings.Builder
	for _, inst := range region.Blocks {
		out, err := r.RenderBlock(inst, bopts)
		if err != nil {
			r.logger.Warn(ctx, err, "skipping block",
				"page", cfg.ID,
				"region", name,
				"block", inst.ID,
				"type", inst.Type,
			)
			if opts.IsDev {
				b.WriteString(block.SlotErrorMarker(skipMarker(err, inst, address.New(cfg.ID, name, inst.ID))))
			}

			continue
		}
		b.WriteString(out)
	}

	return b.String()
}

func skipMarker(err error, inst Instance, addr address.Address) block.SlotError {
	se := block.SlotError{Type: block.SlotRender, BlockType: inst.Type, Addr: addr}
	switch {
	case errors.Is(err, kiterrors.ErrUnknownType):
		se.Type = block.SlotNotFound
	case kiterrors.IsType(err, kiterrors.ErrorTypeValidation):
		se.Type = block.SlotValidation
		var issues schema.Issues
		if errors.As(err, &issues) {
			se.Details = issues.Error()
		} else {
			se.Details = err.Error()
		}
	default:
		se.Details = err.Error()
	}

	return se
}

// RenderBlock renders one instance on its own. Unlike RenderPage it fails
// on an unknown type, invalid props, an invalid layout or a render panic.
func (r *Renderer) RenderBlock(inst Instance, opts BlockOptions) (out string, err error) {
	def, err := r.registry.Require(inst.Type)
	if err != nil {
		return "", err
	}

	props, issues := def.Validate(inst.Props)
	if len(issues) > 0 {
		return "", kiterrors.NewValidationError(kiterrors.ErrCodeInvalidProps,
			fmt.Sprintf("invalid props for block %q: %s", inst.ID, issues.Error())).
			WithCause(issues).
			WithContext("block", inst.ID).
			WithContext("type", inst.Type)
	}

	lay, err := layout.Resolve(inst.Layout)
	if err != nil {
		return "", err
	}

	if opts.AssetBase == "" {
		opts.AssetBase = "/"
	}
	in := block.Input{
		Props: props,
		Ctx: block.Context{
			PageID:    opts.PageID,
			AssetBase: opts.AssetBase,
			IsDev:     opts.IsDev,
			Layout:    lay,
			Blocks:    r.registry,
		},
		Addr: address.New(opts.PageID, opts.Region, inst.ID),
	}

	defer func() {
		if rec := recover(); rec != nil {
			cause, ok := rec.(error)
			if !ok {
				cause = fmt.Errorf("%v", rec)
			}
			out, err = "", kiterrors.NewInternalError(kiterrors.ErrCodeRenderFailed,
				fmt.Sprintf("render block %q (%s)", inst.ID, inst.Type), cause).
				WithContext("block", inst.ID)
		}
	}()

	return def.Render(in), nil
}

func isStylesheet(n *html.Node) bool {
	rel, _ := htmltree.Attr(n, "rel")
	for _, token := range strings.Fields(strings.ToLower(rel)) {
		if token == "stylesheet" {
			return true
		}
	}

	return false
}

// bustAttr appends the cache-bust query to a local URL ending in ext.
func bustAttr(n *html.Node, attr, ext, token string) {
	u, ok := htmltree.Attr(n, attr)
	if !ok {
		return
	}
	if busted, ok := cacheBust(u, ext, token); ok {
		htmltree.SetAttr(n, attr, busted)
	}
}

// cacheBust returns u with v=token added to its query when u is a local
// URL whose path ends in ext.
func cacheBust(u, ext, token string) (string, bool) {
	if strings.HasPrefix(u, "//") || strings.Contains(u, "://") || strings.HasPrefix(u, "data:") {
		return u, false
	}

	rest, fragment := u, ""
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest, fragment = rest[:i], rest[i:]
	}
	path, sep := rest, "?"
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		path, sep = rest[:i], "&"
	}
	if !strings.HasSuffix(strings.ToLower(path), ext) {
		return u, false
	}

	return rest + sep + "v=" + token + fragment, true
}
