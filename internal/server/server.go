// Package server serves the directory pages, choosing per request between
// the crawler rendering and the browser shell.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"knowfounders/internal/analytics"
	"knowfounders/internal/audit"
	"knowfounders/internal/models"
	"knowfounders/internal/policy"
	"knowfounders/internal/render"
	"knowfounders/internal/store"
	"knowfounders/pkg/logger"
)

// Options wires the server's collaborators. Store and Recorder may be nil:
// without a store only the homepage, robots, sitemap and APIs are served.
type Options struct {
	Resolver *policy.Resolver
	Renderer *render.Renderer
	Auditor  *audit.Auditor
	Loader   *analytics.Loader
	Store    store.Repository
	Recorder analytics.Recorder
	Logger   *logger.Logger

	// Shell is the SPA index.html served to browsers; empty serves the
	// static rendering instead.
	Shell         string
	AboveFold     int
	FeaturedCount int
	ExploreLimit  int
	// RateEvery and RateBurst configure the per-IP limiter; zero disables it.
	RateEvery time.Duration
	RateBurst int
}

type Server struct {
	resolver *policy.Resolver
	renderer *render.Renderer
	auditor  *audit.Auditor
	loader   *analytics.Loader
	store    store.Repository
	recorder analytics.Recorder
	log      *logger.Logger

	shell         string
	aboveFold     int
	featuredCount int
	exploreLimit  int

	mux     *http.ServeMux
	handler http.Handler
}

func New(opts Options) *Server {
	s := &Server{
		resolver:      opts.Resolver,
		renderer:      opts.Renderer,
		auditor:       opts.Auditor,
		loader:        opts.Loader,
		store:         opts.Store,
		recorder:      opts.Recorder,
		log:           opts.Logger,
		shell:         opts.Shell,
		aboveFold:     opts.AboveFold,
		featuredCount: opts.FeaturedCount,
		exploreLimit:  opts.ExploreLimit,
		mux:           http.NewServeMux(),
	}
	if s.resolver == nil {
		s.resolver = policy.NewResolver(nil, policy.Defaults{Analytics: true, Ads: true})
	}
	if s.renderer == nil {
		s.renderer = render.New(models.Site{Name: "Know Founders", URL: "https://knowfounders.com"})
	}
	if s.auditor == nil {
		s.auditor = audit.New(s.resolver.Classifier())
	}
	if s.loader == nil {
		s.loader = analytics.NewLoader(analytics.Config{})
	}
	if s.recorder == nil {
		s.recorder = analytics.NopRecorder{}
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	if s.featuredCount <= 0 {
		s.featuredCount = 6
	}
	s.routes()

	var h http.Handler = s.mux
	h = rateLimit(newIPLimiter(opts.RateEvery, opts.RateBurst), s.log, h)
	h = logRequest(s.log, h)
	h = s.withPolicy(h)
	h = requestID(h)
	s.handler = h
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("GET /explore", s.handleExplore)
	s.mux.HandleFunc("GET /startups/{slug}", s.handleStartup)
	s.mux.HandleFunc("GET /blog", s.handleBlogIndex)
	s.mux.HandleFunc("GET /blog/{slug}", s.handleBlogPost)
	s.mux.HandleFunc("GET /robots.txt", s.handleRobots)
	s.mux.HandleFunc("GET /sitemap.xml", s.handleSitemap)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/classify", s.handleClassify)
	s.mux.HandleFunc("POST /api/audit", s.handleAudit)
	s.mux.HandleFunc("POST /api/analytics", s.handleBeacon)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"database":  s.store != nil,
		"timestamp": time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
