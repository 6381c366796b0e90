package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowfounders/internal/analytics"
	"knowfounders/internal/dom"
	"knowfounders/internal/models"
	"knowfounders/internal/policy"
	"knowfounders/internal/render"
	"knowfounders/internal/store"
)

const (
	googlebot = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
	chrome    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

var site = models.Site{
	Name:         "Know Founders",
	URL:          "https://knowfounders.com",
	Description:  "Discover startups built by everyday founders.",
	DefaultImage: "/og-image.png",
	Locale:       "en_US",
}

type fakeStore struct {
	startups []models.Startup
	posts    []models.BlogPost
	lastOpts store.ListOptions
}

func (f *fakeStore) StartupBySlug(_ context.Context, slug string) (models.Startup, error) {
	for _, s := range f.startups {
		if s.Slug == slug {
			return s, nil
		}
	}
	return models.Startup{}, store.ErrNotFound
}

func (f *fakeStore) ListStartups(_ context.Context, opts store.ListOptions) ([]models.Startup, error) {
	f.lastOpts = opts
	return f.startups, nil
}

func (f *fakeStore) Categories(context.Context) ([]models.Category, error) {
	return []models.Category{{Name: "Fintech", Slug: "fintech"}}, nil
}

func (f *fakeStore) PostBySlug(_ context.Context, slug string) (models.BlogPost, error) {
	for _, p := range f.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return models.BlogPost{}, store.ErrNotFound
}

func (f *fakeStore) ListPosts(context.Context, int) ([]models.BlogPost, error) {
	return f.posts, nil
}

// spyRecorder counts only views from sessions that still allow tracking.
type spyRecorder struct {
	mu       sync.Mutex
	views    []string
	startups []string
}

func (s *spyRecorder) RecordView(_ context.Context, sess *analytics.Session, path string) error {
	if sess.Enabled() {
		s.mu.Lock()
		s.views = append(s.views, path)
		s.mu.Unlock()
	}
	return nil
}

func (s *spyRecorder) RecordStartupView(_ context.Context, sess *analytics.Session, slug string) error {
	if sess.Enabled() {
		s.mu.Lock()
		s.startups = append(s.startups, slug)
		s.mu.Unlock()
	}
	return nil
}

func newTestServer(t *testing.T, mutate func(*Options)) (*Server, *fakeStore, *spyRecorder) {
	t.Helper()
	fs := &fakeStore{
		startups: []models.Startup{{
			Slug:        "acme",
			Name:        "Acme",
			Tagline:     "Rockets for everyone",
			Description: "Acme builds small rockets.",
			Category:    "Space",
			CreatedAt:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		}},
		posts: []models.BlogPost{{Slug: "launch", Title: "We launched", Excerpt: "Hello", PublishedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)}},
	}
	spy := &spyRecorder{}
	opts := Options{
		Resolver:  policy.NewResolver(nil, policy.Defaults{Analytics: true, Ads: false}),
		Renderer:  render.New(site),
		Loader:    analytics.NewLoader(analytics.Config{MeasurementID: "G-TEST"}),
		Store:     fs,
		Recorder:  spy,
		AboveFold: 1,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return New(opts), fs, spy
}

func get(t *testing.T, h http.Handler, path, ua string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("User-Agent", ua)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func doc(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	return d
}

func TestCrawlerGetsAdaptedStaticPage(t *testing.T) {
	srv, _, spy := newTestServer(t, nil)
	rec := get(t, srv, "/startups/acme", googlebot)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "search", rec.Header().Get("X-Crawler-Category"))
	assert.Contains(t, rec.Header().Values("Vary"), "User-Agent")

	d := doc(t, rec)
	assert.True(t, d.Find("html").HasClass(dom.CrawlerModeClass))
	assert.Equal(t, 1, d.Find("title").Length())
	assert.Equal(t, "Acme | Know Founders", d.Find("title").Text())
	assert.Equal(t, 1, d.Find(`script[type="application/ld+json"]`).Length())
	assert.Equal(t, 0, d.Find(`script[data-analytics]`).Length())
	assert.Empty(t, spy.views, "crawlers are never counted")
	assert.Empty(t, spy.startups)
}

func TestBrowserGetsStaticPageWithAnalytics(t *testing.T) {
	srv, _, spy := newTestServer(t, nil)
	rec := get(t, srv, "/startups/acme", chrome)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "none", rec.Header().Get("X-Crawler-Category"))
	d := doc(t, rec)
	assert.False(t, d.Find("html").HasClass(dom.CrawlerModeClass))
	src, _ := d.Find(`head script[data-analytics]`).First().Attr("src")
	assert.Contains(t, src, "G-TEST")
	assert.Equal(t, []string{"/startups/acme"}, spy.views)
	assert.Equal(t, []string{"acme"}, spy.startups)
}

func TestBrowserGetsShellWithComposedHead(t *testing.T) {
	shell := `<!DOCTYPE html><html><head><title>App</title><meta name="description" content="spa"></head><body><div id="root"></div></body></html>`
	srv, _, _ := newTestServer(t, func(o *Options) { o.Shell = shell })
	rec := get(t, srv, "/startups/acme", chrome)

	require.Equal(t, http.StatusOK, rec.Code)
	d := doc(t, rec)
	assert.Equal(t, 1, d.Find("#root").Length())
	require.Equal(t, 1, d.Find("title").Length())
	assert.Equal(t, "Acme | Know Founders", d.Find("title").Text())
	desc, _ := d.Find(`meta[name="description"]`).Attr("content")
	assert.NotEqual(t, "spa", desc)
	assert.Equal(t, 1, d.Find(`script[type="application/ld+json"]`).Length())
	assert.Equal(t, 0, d.Find("main.container").Length(), "shell body is kept as is")
}

func TestCrawlerIgnoresShell(t *testing.T) {
	srv, _, _ := newTestServer(t, func(o *Options) { o.Shell = `<html><head></head><body><div id="root"></div></body></html>` })
	d := doc(t, get(t, srv, "/", "Twitterbot/1.0"))
	assert.Equal(t, 0, d.Find("#root").Length())
	assert.Equal(t, 1, d.Find("h1").Length())
}

func TestHomeFeaturesMostVoted(t *testing.T) {
	srv, fs, _ := newTestServer(t, nil)
	rec := get(t, srv, "/", googlebot)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.SortMostVoted, fs.lastOpts.Sort)
	assert.Equal(t, 6, fs.lastOpts.Limit)
	assert.Contains(t, rec.Body.String(), `href="/startups/acme"`)
}

func TestExplorePassesQuery(t *testing.T) {
	srv, fs, _ := newTestServer(t, nil)
	rec := get(t, srv, "/explore?search=rock&category=space&sort=name", googlebot)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.ListOptions{Search: "rock", Category: "space", Sort: "name"}, fs.lastOpts)
}

func TestNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/startups/missing", googlebot).Code)
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/blog/missing", chrome).Code)
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/nope", chrome).Code)
}

func TestBlogPages(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	rec := get(t, srv, "/blog/launch", "GPTBot/1.0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ai", rec.Header().Get("X-Crawler-Category"))
	assert.Equal(t, "We launched", doc(t, rec).Find("h1").Text())

	rec = get(t, srv, "/blog", chrome)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/blog/launch"`)
}

func TestWithoutStoreServesHomeOnly(t *testing.T) {
	srv, _, _ := newTestServer(t, func(o *Options) { o.Store = nil })
	assert.Equal(t, http.StatusOK, get(t, srv, "/", chrome).Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/explore", chrome).Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/startups/acme", chrome).Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/sitemap.xml", chrome).Code)

	var health map[string]any
	require.NoError(t, json.Unmarshal(get(t, srv, "/health", chrome).Body.Bytes(), &health))
	assert.Equal(t, false, health["database"])
}

func TestRobotsAndSitemap(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	rec := get(t, srv, "/robots.txt", googlebot)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Disallow: /api/")
	assert.Contains(t, rec.Body.String(), "Sitemap: https://knowfounders.com/sitemap.xml")

	rec = get(t, srv, "/sitemap.xml", googlebot)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<loc>https://knowfounders.com/startups/acme</loc>")
	assert.Contains(t, rec.Body.String(), "<loc>https://knowfounders.com/blog/launch</loc>")
}

func TestClassifyAPI(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	rec := get(t, srv, "/api/classify?ua=GPTBot/1.0", chrome)
	require.Equal(t, http.StatusOK, rec.Code)

	var out classifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, models.CategoryAI, out.Category)
	assert.Equal(t, "gptbot", out.Crawler)
	assert.NotEmpty(t, out.PatternsVersion)
	assert.False(t, out.Policy.EnableImages)
	assert.Equal(t, 3, out.Policy.MaxRetries)

	rec = get(t, srv, "/api/classify", chrome)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, models.CategoryNone, out.Category)
	assert.Equal(t, chrome, out.UserAgent)
}

func TestAuditAPI(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	body := `{"html":"<html><head><title>Hi</title></head><body><h1>Hi</h1></body></html>","userAgent":"facebookexternalhit/1.1","url":"https://knowfounders.com/startups/acme"}`
	req := httptest.NewRequest(http.MethodPost, "/api/audit", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out models.AuditResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Hi", out.Meta.Title)
	assert.False(t, out.Report.MetaTags)
	assert.True(t, out.Report.Performance, "unmeasured load time passes")
	require.NotNil(t, out.Validation)
	assert.False(t, out.Validation.Passed)
	assert.Contains(t, out.Validation.Issues, "facebookexternalhit requires og:image")
}

func TestAuditAPIRejectsBadInput(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/audit", strings.NewReader(`{"html":""}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusMethodNotAllowed, get(t, srv, "/api/audit", chrome).Code)
}

func TestBeacon(t *testing.T) {
	srv, _, spy := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/analytics", strings.NewReader(`{"path":"/startups/acme"}`))
	req.Header.Set("User-Agent", chrome)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"/startups/acme"}, spy.views)
	assert.Equal(t, []string{"acme"}, spy.startups)

	req = httptest.NewRequest(http.MethodPost, "/api/analytics", strings.NewReader(`{"path":"/"}`))
	req.Header.Set("User-Agent", googlebot)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, spy.views, 1)
}

func postBeacon(srv *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/analytics", strings.NewReader(`{"path":"`+path+`"}`))
	req.Header.Set("User-Agent", chrome)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestBeaconOnlyCountsServedPages(t *testing.T) {
	srv, _, spy := newTestServer(t, nil)
	for _, path := range []string{"/", "/explore", "/blog", "/blog/launch"} {
		assert.Equal(t, http.StatusNoContent, postBeacon(srv, path).Code, path)
	}
	for _, path := range []string{
		"/random-1234", "/startups/ghost", "/blog/ghost", "/startups/", "/startups/acme/extra",
		"/startups/ACME", "/explore?x=1", "/api/audit", "relative", "",
	} {
		assert.Equal(t, http.StatusBadRequest, postBeacon(srv, path).Code, path)
	}
	assert.Equal(t, []string{"/", "/explore", "/blog", "/blog/launch"}, spy.views)
	assert.Empty(t, spy.startups)

	noStore, _, spy := newTestServer(t, func(o *Options) { o.Store = nil })
	assert.Equal(t, http.StatusNoContent, postBeacon(noStore, "/").Code)
	assert.Equal(t, http.StatusBadRequest, postBeacon(noStore, "/startups/acme").Code)
	assert.Equal(t, []string{"/"}, spy.views)
}

func TestRequestID(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	rec := get(t, srv, "/health", chrome)
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestRateLimitPerIP(t *testing.T) {
	srv, _, _ := newTestServer(t, func(o *Options) {
		o.RateEvery = time.Hour
		o.RateBurst = 1
	})
	assert.Equal(t, http.StatusOK, get(t, srv, "/health", chrome).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, srv, "/health", chrome).Code)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "other clients keep their own budget")
}
