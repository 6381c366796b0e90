package server

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"knowfounders/internal/analytics"
	"knowfounders/internal/dom"
	"knowfounders/internal/models"
	"knowfounders/internal/render"
	"knowfounders/internal/robots"
	"knowfounders/internal/store"
)

const sitemapLimit = 50000

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	var featured []models.Startup
	if s.store != nil {
		var err error
		featured, err = s.store.ListStartups(r.Context(), store.ListOptions{Sort: store.SortMostVoted, Limit: s.featuredCount})
		if err != nil {
			// the homepage still renders without featured startups
			s.log.Errorf("featured startups: %v", err)
			featured = nil
		}
	}
	s.deliver(w, r, s.renderer.BuildHomepage(featured))
}

func (s *Server) handleExplore(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	q := r.URL.Query()
	startups, err := s.store.ListStartups(r.Context(), store.ListOptions{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		Limit:    s.exploreLimit,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	categories, err := s.store.Categories(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.deliver(w, r, s.renderer.BuildExplore(startups, categories))
}

func (s *Server) handleStartup(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	slug := r.PathValue("slug")
	st, err := s.store.StartupBySlug(r.Context(), slug)
	if err != nil {
		s.fail(w, err)
		return
	}
	sess := s.deliver(w, r, s.renderer.BuildStartup(st))
	if err := s.recorder.RecordStartupView(r.Context(), sess, slug); err != nil {
		s.log.Warnf("record startup view %s: %v", slug, err)
	}
}

func (s *Server) handleBlogIndex(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	posts, err := s.store.ListPosts(r.Context(), s.exploreLimit)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.deliver(w, r, s.renderer.BuildBlogIndex(posts))
}

func (s *Server) handleBlogPost(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	post, err := s.store.PostBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.deliver(w, r, s.renderer.BuildBlogPost(post))
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(robots.Generate(s.renderer.Site(), robots.Options{})))
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	var (
		startups []models.Startup
		posts    []models.BlogPost
	)
	if s.store != nil {
		var err error
		if startups, err = s.store.ListStartups(r.Context(), store.ListOptions{Limit: sitemapLimit}); err != nil {
			s.fail(w, err)
			return
		}
		if posts, err = s.store.ListPosts(r.Context(), sitemapLimit); err != nil {
			s.fail(w, err)
			return
		}
	}
	var buf bytes.Buffer
	if err := robots.WriteSitemap(&buf, robots.Entries(s.renderer.Site(), startups, posts)); err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// deliver writes pg in the form the request's policy calls for and records
// the page view. The returned session reflects whether tracking survived.
func (s *Server) deliver(w http.ResponseWriter, r *http.Request, pg render.Page) *analytics.Session {
	p := policyFrom(r.Context())
	sess := analytics.NewSession(p)

	var out string
	switch {
	case p.Category.IsCrawler():
		out = s.crawlerHTML(pg, p, sess)
	case s.shell != "":
		out = s.shellHTML(pg, p)
	default:
		out = injectHead(s.renderer.RenderPage(pg, p), s.loader.Tags(p))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(out))

	if err := s.recorder.RecordView(r.Context(), sess, r.URL.Path); err != nil {
		s.log.Warnf("record view %s: %v", r.URL.Path, err)
	}
	return sess
}

func (s *Server) crawlerHTML(pg render.Page, p models.OptimizationPolicy, sess *analytics.Session) string {
	html := s.renderer.RenderPage(pg, p)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		s.log.Errorf("parse rendered page: %v", err)
		return html
	}
	dom.New(
		dom.WithViewport(dom.FoldViewport{Images: s.aboveFold}),
		dom.WithTracker(sess),
		dom.WithLogger(s.log),
	).Apply(doc, p)
	adapted, err := dom.HTML(doc)
	if err != nil {
		s.log.Errorf("serialise adapted page: %v", err)
		return html
	}
	return adapted
}

// shellHTML replaces the shell's own title and description with the page's
// composed head tags, structured data and the analytics loader.
func (s *Server) shellHTML(pg render.Page, p models.OptimizationPolicy) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.shell))
	if err != nil {
		s.log.Errorf("parse shell: %v", err)
		return s.shell
	}
	head := doc.Find("head").First()
	head.Find(`title, meta[name="description"], link[rel="canonical"]`).Remove()

	var b strings.Builder
	b.WriteString(s.renderer.HeadTags(pg.SEO, p).HTML())
	if len(pg.Graph) > 0 {
		if js, err := pg.Graph.Indent(); err == nil {
			b.WriteString(`<script type="application/ld+json">` + js + "</script>\n")
		}
	}
	b.WriteString(s.loader.Tags(p))
	head.AppendHtml(b.String())

	out, err := dom.HTML(doc)
	if err != nil {
		s.log.Errorf("serialise shell: %v", err)
		return s.shell
	}
	return out
}

func injectHead(doc, tags string) string {
	if tags == "" {
		return doc
	}
	return strings.Replace(doc, "</head>", tags+"</head>", 1)
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		http.Error(w, "directory unavailable", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	s.log.Errorf("request failed: %v", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
