// Package api provides the HTTP REST API server for skillchart.
//
// It exposes endpoints for rendering progress charts from loose records,
// browsing stored skills and their updates, and exporting reports.
package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/skillchart/internal/chart"
	"github.com/seenimoa/skillchart/internal/config"
	"github.com/seenimoa/skillchart/internal/infra"
	"github.com/seenimoa/skillchart/pkg/metrics"
	"github.com/seenimoa/skillchart/pkg/models"
	"github.com/seenimoa/skillchart/web"
)

// SkillStore is the persistence the API reads and writes.
// *store.Store satisfies it.
type SkillStore interface {
	SaveSkill(ctx context.Context, sk models.Skill) error
	Skill(ctx context.Context, id string) (models.Skill, error)
	ListSkills(ctx context.Context) ([]models.Skill, error)
	AddUpdate(ctx context.Context, skillID string, u models.ProgressUpdate) (string, error)
	Updates(ctx context.Context, skillID string) ([]models.ProgressUpdate, error)
}

// Options carries the server's collaborators. Zero fields get defaults.
type Options struct {
	Store   SkillStore
	Metrics *metrics.Manager
	Logger  *slog.Logger
	Version string
	ServeUI bool // serve the embedded chart playground at /
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	mode    chart.Mode
	store   SkillStore
	cache   *infra.Cache[string]
	metrics *metrics.Manager
	log     *slog.Logger
	version string
	serveUI bool
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	mode, err := cfg.Chart.ParsedMode()
	if err != nil {
		return nil, fmt.Errorf("chart mode: %w", err)
	}

	srv := &Server{
		cfg:     cfg,
		mode:    mode,
		store:   opts.Store,
		cache:   infra.NewCache[string](time.Duration(cfg.API.CacheTTL) * time.Second),
		metrics: opts.Metrics,
		log:     opts.Logger,
		version: opts.Version,
		serveUI: opts.ServeUI,
	}
	if srv.metrics == nil {
		srv.metrics = metrics.NewManager()
	}
	if srv.log == nil {
		srv.log = slog.Default()
	}
	if srv.version == "" {
		srv.version = "dev"
	}

	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled
// or SIGINT/SIGTERM arrives, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go s.sweepCache(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// sweepCache drops expired chart entries until ctx is done.
func (s *Server) sweepCache(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.cache.Cleanup(); n > 0 {
				s.log.Debug("chart cache sweep", "evicted", n)
			}
		}
	}
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Cache"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/config", s.handleGetConfig)

		// Stateless rendering
		r.Post("/charts/progress", s.handleRenderProgress)

		// Stored skills
		r.Route("/skills", func(r chi.Router) {
			r.Use(s.requireStore)
			r.Get("/", s.handleListSkills)
			r.Post("/", s.handleCreateSkill)
			r.Get("/{id}", s.handleGetSkill)
			r.Get("/{id}/updates", s.handleListUpdates)
			r.Post("/{id}/updates", s.handleAddUpdate)
			r.Get("/{id}/chart", s.handleSkillChart)
			r.Get("/{id}/report", s.handleSkillReport)
		})
	})

	if s.serveUI {
		s.mountUI(r, web.DistFS())
	}

	return r
}

// mountUI serves the embedded playground files.
func (s *Server) mountUI(r chi.Router, distFS fs.FS) {
	fileServer := http.FileServerFS(distFS)

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		rPath := strings.TrimPrefix(r.URL.Path, "/")
		if rPath == "" {
			rPath = "index.html"
		}

		f, err := distFS.Open(rPath)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		f.Close()

		if strings.HasSuffix(rPath, ".html") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		fileServer.ServeHTTP(w, r)
	})
}

// unmatchedRoute labels requests that matched no route pattern.
const unmatchedRoute = "unmatched"

// instrument logs each request and counts it by route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		// Raw paths would give every 404 its own series.
		route := unmatchedRoute
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.metrics.RecordHTTPRequest(route, strconv.Itoa(status))
		s.log.Info("http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			writeError(w, http.StatusServiceUnavailable, "progress store is not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ════════════════════════════════════════════════════════════════════
// Response types
// ════════════════════════════════════════════════════════════════════

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string           `json:"status"`
	Version string           `json:"version"`
	Mode    string           `json:"mode"`
	Cache   infra.CacheStats `json:"cache"`
	Time    string           `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: HealthResponse{
			Status:  "ok",
			Version: s.version,
			Mode:    s.mode.String(),
			Cache:   s.cache.Stats(),
			Time:    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// ════════════════════════════════════════════════════════════════════
// Chart rendering
// ════════════════════════════════════════════════════════════════════

// renderCached renders updates, serving repeats from the chart cache.
// The key is a SHA-256 of the canonical JSON of (mode, updates).
func (s *Server) renderCached(updates []models.ProgressUpdate, mode chart.Mode) (svg string, hit bool) {
	key, err := cacheKey(updates, mode)
	if err == nil {
		if v, ok := s.cache.Get(key); ok {
			s.metrics.RecordCacheHit()
			return v, true
		}
	}

	start := time.Now()
	svg = chart.Render(updates, mode)
	s.metrics.ObserveRender(svg, time.Since(start))

	if err == nil {
		s.cache.Set(key, svg)
	}
	return svg, false
}

func cacheKey(updates []models.ProgressUpdate, mode chart.Mode) (string, error) {
	b, err := json.Marshal(struct {
		Mode    string                  `json:"mode"`
		Updates []models.ProgressUpdate `json:"updates"`
	}{mode.String(), updates})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// modeFrom returns the request's mode override, or the server default.
func (s *Server) modeFrom(raw string) (chart.Mode, error) {
	if raw == "" {
		return s.mode, nil
	}
	return chart.ParseMode(raw)
}

func writeSVG(w http.ResponseWriter, svg string, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	if svg == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(svg))
}

// ════════════════════════════════════════════════════════════════════
// Helpers
// ════════════════════════════════════════════════════════════════════

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
