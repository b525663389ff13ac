package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/internal/version"
	"github.com/conneroisu/statickit/pkg/address"
	"github.com/conneroisu/statickit/pkg/page"
)

// PageSummary is one entry of GET /__pages.
type PageSummary struct {
	ID     string `json:"id"`
	Path   string `json:"path"`
	Title  string `json:"title,omitempty"`
	Source string `json:"source,omitempty"`
}

// InspectResult is the body of GET /__inspect.
type InspectResult struct {
	Address  address.Address `json:"address"`
	Encoded  string          `json:"encoded"`
	Type     string          `json:"type"`
	Props    map[string]any  `json:"props"`
	Value    any             `json:"value,omitempty"`
	Resolved bool            `json:"resolved"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn(r.Context(), err, "encode response", "path", r.URL.Path)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case kiterrors.IsType(err, kiterrors.ErrorTypeLookup):
		status = http.StatusNotFound
	case kiterrors.IsType(err, kiterrors.ErrorTypeValidation):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), err, "request failed", "path", r.URL.Path)
	}
	s.writeJSON(w, r, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := version.Get()
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   info.Short(),
		"blocks":    s.renderer.Registry().Count(),
	})
}

// handleOverlay prefers a project override at <public>/js/dev-overlay.js
// over the embedded script.
func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	if s.opts.PublicDir != "" {
		override := filepath.Join(s.opts.PublicDir, "js", "dev-overlay.js")
		if data, err := os.ReadFile(override); err == nil {
			_, _ = w.Write(data)

			return
		}
	}
	_, _ = w.Write(page.DevOverlayScript)
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.opts.Pages.Pages(r.Context())
	if err != nil {
		s.writeError(w, r, err)

		return
	}
	out := make([]PageSummary, 0, len(pages))
	for _, p := range pages {
		out = append(out, PageSummary{ID: p.ID, Path: p.Path, Title: p.Title, Source: p.Source})
	}
	s.writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	pages, err := s.opts.Pages.Pages(r.Context())
	if err != nil {
		s.writeError(w, r, err)

		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"pages":  pages,
		"blocks": s.renderer.Registry().Types(),
	})
}

// handleInspect resolves ?address= against the page configs.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	addr, err := address.Decode(r.URL.Query().Get("address"))
	if err != nil {
		s.writeError(w, r, err)

		return
	}
	pages, err := s.opts.Pages.Pages(r.Context())
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	var (
		inst  page.Instance
		found bool
	)
	for _, p := range pages {
		if p.ID == addr.PageID {
			inst, found = p.Find(addr.Region, addr.BlockID)

			break
		}
	}
	if !found {
		s.writeError(w, r, kiterrors.NewLookupError(kiterrors.ErrCodeInvalidAddress,
			"no block at "+address.Encode(address.WithoutPropPath(addr))))

		return
	}

	res := InspectResult{Address: addr, Encoded: address.Encode(addr), Type: inst.Type, Props: inst.Props}
	if addr.HasPropPath() {
		v, err := address.Resolve(inst.Props, addr)
		if err != nil {
			s.writeError(w, r, err)

			return
		}
		res.Value, res.Resolved = v, true
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

// handlePage renders the page whose path matches the request. "/about",
// "/about/" and "/about.html" all find the page at "/about".
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	pages, err := s.opts.Pages.Pages(r.Context())
	if err != nil {
		s.writeError(w, r, err)

		return
	}
	cfg, ok := matchPage(pages, r.URL.Path)
	if !ok {
		http.NotFound(w, r)

		return
	}

	out, err := s.renderer.RenderPage(r.Context(), cfg, page.Options{
		Source:    s.opts.Templates,
		IsDev:     true,
		AssetBase: s.opts.AssetBase,
		CacheBust: s.opts.CacheBust,
	})
	if err != nil {
		var kerr *kiterrors.KitError
		if errors.As(err, &kerr) && kerr.FilePath == "" {
			kerr.WithLocation(cfg.Source, 0, 0)
		}
		s.logger.Error(r.Context(), err, "page render failed", "page", cfg.ID)
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

func matchPage(pages []page.Config, urlPath string) (page.Config, bool) {
	p := strings.TrimSuffix(urlPath, ".html")
	if p == "/index" {
		p = "/"
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	for _, cfg := range pages {
		want := cfg.Path
		if len(want) > 1 {
			want = strings.TrimSuffix(want, "/")
		}
		if want == p {
			return cfg, true
		}
	}

	return page.Config{}, false
}
