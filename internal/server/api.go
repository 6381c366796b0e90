package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"knowfounders/internal/analytics"
	"knowfounders/internal/audit"
	"knowfounders/internal/classifier"
	"knowfounders/internal/models"
	"knowfounders/internal/parser"
	"knowfounders/internal/robots"
)

const maxAuditBody = 5 << 20

type classifyResponse struct {
	UserAgent       string                    `json:"userAgent"`
	Category        models.CrawlerCategory    `json:"category"`
	Crawler         string                    `json:"crawler,omitempty"`
	PatternsVersion string                    `json:"patternsVersion"`
	Policy          models.OptimizationPolicy `json:"policy"`
}

// GET /api/classify?ua=...  (defaults to the caller's own user agent)
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	ua := r.URL.Query().Get("ua")
	if ua == "" {
		ua = r.UserAgent()
	}
	p := s.resolver.Resolve(ua)
	writeJSON(w, http.StatusOK, classifyResponse{
		UserAgent:       ua,
		Category:        p.Category,
		Crawler:         s.resolver.Classifier().Name(ua),
		PatternsVersion: classifier.PatternsVersion,
		Policy:          p,
	})
}

type auditRequest struct {
	HTML      string `json:"html"`
	URL       string `json:"url,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	// LoadMs is the measured page load time; omitted means not measured.
	LoadMs *int64 `json:"loadMs,omitempty"`
}

// POST /api/audit  {"html": "...", "userAgent": "Twitterbot/1.0"}
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAuditBody)
	var req auditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.HTML) == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	doc, err := parser.Parse(strings.NewReader(req.HTML), "text/html; charset=utf-8")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var timing *audit.Timing
	if req.LoadMs != nil {
		timing = &audit.Timing{Load: time.Duration(*req.LoadMs) * time.Millisecond}
	}
	res := models.AuditResult{
		SourceURL: req.URL,
		Meta:      parser.Meta(doc),
		Report:    s.auditor.Audit(doc, timing),
	}
	if req.UserAgent != "" {
		v := s.auditor.Validate(doc, req.UserAgent, audit.ValidateOptions{
			RobotsTxt: robots.Generate(s.renderer.Site(), robots.Options{}),
			Path:      pathOf(req.URL),
		})
		res.Validation = &v
	}
	writeJSON(w, http.StatusOK, res)
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

type beacon struct {
	Path string `json:"path"`
}

// POST /api/analytics  {"path": "/startups/acme"}
// Client-side navigations inside the shell report views here. Only paths the
// server itself serves are counted.
func (s *Server) handleBeacon(w http.ResponseWriter, r *http.Request) {
	var b beacon
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	slug, ok := s.beaconTarget(r.Context(), b.Path)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown page")
		return
	}
	sess := analytics.NewSession(policyFrom(r.Context()))
	if err := s.recorder.RecordView(r.Context(), sess, b.Path); err != nil {
		s.log.Warnf("record beacon %s: %v", b.Path, err)
	}
	if slug != "" {
		if err := s.recorder.RecordStartupView(r.Context(), sess, slug); err != nil {
			s.log.Warnf("record beacon startup %s: %v", slug, err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// beaconTarget reports whether path is one of the served pages. Startup and
// post paths must name an existing record; slug is set for startup pages.
func (s *Server) beaconTarget(ctx context.Context, path string) (slug string, ok bool) {
	switch path {
	case "/", "/explore", "/blog":
		return "", true
	}
	kind, rest, found := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if !found || !validSlug(rest) || s.store == nil {
		return "", false
	}
	switch kind {
	case "startups":
		if _, err := s.store.StartupBySlug(ctx, rest); err != nil {
			return "", false
		}
		return rest, true
	case "blog":
		if _, err := s.store.PostBySlug(ctx, rest); err != nil {
			return "", false
		}
		return "", true
	}
	return "", false
}

func validSlug(s string) bool {
	if s == "" || len(s) > 120 {
		return false
	}
	for _, c := range s {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return true
}
