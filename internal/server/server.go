// Package server is the statickit dev preview server. It renders pages on
// request in dev mode so editor attributes and slot diagnostics stay in
// the output, and serves the dev overlay script and public assets.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/internal/logging"
	"github.com/conneroisu/statickit/pkg/page"
)

// PageSource lists the site's pages. The server asks on every request so
// edited configs show up on reload.
type PageSource interface {
	Pages(ctx context.Context) ([]page.Config, error)
}

// PageSourceFunc adapts a function to PageSource.
type PageSourceFunc func(ctx context.Context) ([]page.Config, error)

// Pages implements PageSource.
func (f PageSourceFunc) Pages(ctx context.Context) ([]page.Config, error) {
	return f(ctx)
}

// StaticPages serves a fixed page list.
type StaticPages []page.Config

// Pages implements PageSource.
func (p StaticPages) Pages(context.Context) ([]page.Config, error) {
	return p, nil
}

// Options configures a Server.
type Options struct {
	// Addr is the listen address, e.g. ":3000".
	Addr string
	// Pages and Templates feed page renders.
	Pages     PageSource
	Templates page.TemplateSource
	// PublicDir is served under PublicPath.
	PublicDir  string
	PublicPath string
	AssetBase  string
	CacheBust  string
}

// Server renders pages for local preview.
type Server struct {
	renderer *page.Renderer
	opts     Options
	logger   logging.Logger

	serverMu     sync.RWMutex
	httpServer   *http.Server
	shutdownOnce sync.Once
}

// New returns a server that renders with r.
func New(r *page.Renderer, opts Options, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.PublicPath == "" {
		opts.PublicPath = "/public"
	}
	opts.PublicPath = "/" + strings.Trim(opts.PublicPath, "/")

	return &Server{
		renderer: r,
		opts:     opts,
		logger:   logger.WithComponent("server"),
	}
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET "+page.DevOverlayPath, s.handleOverlay)
	mux.HandleFunc("GET /__pages", s.handlePages)
	mux.HandleFunc("GET /__site", s.handleSite)
	mux.HandleFunc("GET /__inspect", s.handleInspect)
	if s.opts.PublicDir != "" {
		mux.Handle("GET "+s.opts.PublicPath+"/",
			http.StripPrefix(s.opts.PublicPath, http.FileServer(http.Dir(s.opts.PublicDir))))
	}
	mux.HandleFunc("GET /", s.handlePage)

	return s.withLogging(securityHeaders(mux))
}

// Start listens until ctx is done or the server fails, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.serverMu.Lock()
	s.httpServer = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.serverMu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "dev server listening", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return kiterrors.NewIOError(kiterrors.ErrCodeInternalError, "dev server failed", err)
		}

		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown stops the server. Later calls are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.serverMu.RLock()
		srv := s.httpServer
		s.serverMu.RUnlock()

		if srv != nil {
			s.logger.Info(ctx, "shutting down dev server")
			err = srv.Shutdown(ctx)
		}
	})

	return err
}

// securityHeaders sets the headers every preview response carries.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
