package batch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowfounders/internal/audit"
	"knowfounders/internal/classifier"
	"knowfounders/internal/crawler"
	"knowfounders/internal/ioformats"
	"knowfounders/internal/models"
	"knowfounders/internal/policy"
)

const page = `<!DOCTYPE html><html><head>
<title>Acme | Know Founders</title>
<meta name="description" content="Acme builds rockets">
<meta property="og:title" content="Acme">
<meta property="og:description" content="Acme builds rockets">
<meta property="og:image" content="https://kf.test/acme.png">
<meta property="og:url" content="https://kf.test/startups/acme">
<meta name="twitter:card" content="summary">
<meta name="twitter:title" content="Acme">
<meta name="twitter:description" content="Acme builds rockets">
</head><body><h1>Acme</h1></body></html>`

func newSite(t *testing.T, robotsHits *int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			atomic.AddInt32(robotsHits, 1)
			fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
		case "/ok", "/private":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, page)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newRunner(client *crawler.HTTPClient) *Runner {
	cl := classifier.New()
	return &Runner{
		Fetcher:     client,
		Resolver:    policy.NewResolver(cl, policy.Defaults{}),
		Auditor:     audit.New(cl),
		Robots:      client.Client(),
		DefaultUA:   crawler.DefaultUserAgent,
		Concurrency: 2,
	}
}

func TestRunAuditsEachTargetInOrder(t *testing.T) {
	var robotsHits int32
	ts := newSite(t, &robotsHits)
	client := crawler.NewHTTPClient(5*time.Second, 2*time.Second, 1<<20)
	r := newRunner(client)

	var done int32
	r.OnDone = func(Record) { atomic.AddInt32(&done, 1) }

	recs := r.Run(context.Background(), []ioformats.Target{
		{URL: ts.URL + "/ok", UserAgent: "Twitterbot/1.0"},
		{URL: ts.URL + "/private", UserAgent: "Twitterbot/1.0"},
		{URL: ts.URL + "/missing"},
		{URL: ts.URL + "/ok"},
	})
	require.Len(t, recs, 4)
	assert.EqualValues(t, 4, done)

	ok := recs[0]
	require.NotNil(t, ok.Result, ok.Error)
	assert.Equal(t, "Acme | Know Founders", ok.Result.Meta.Title)
	require.NotNil(t, ok.Result.Validation)
	assert.Equal(t, models.CategorySocial, ok.Result.Validation.Category)
	assert.True(t, ok.Result.Validation.Passed, "%v", ok.Result.Validation.Issues)
	assert.True(t, ok.Result.Report.Performance)

	blocked := recs[1]
	require.NotNil(t, blocked.Result)
	assert.False(t, blocked.Result.Validation.Passed)
	assert.Contains(t, blocked.Result.Validation.Issues, "robots.txt blocks this crawler from /private")

	assert.Nil(t, recs[2].Result)
	assert.Contains(t, recs[2].Error, "404")
	assert.Equal(t, crawler.DefaultUserAgent, recs[2].UserAgent)

	assert.NotNil(t, recs[3].Result)
	assert.Nil(t, recs[3].Result.Validation, "browsers get no crawler validation")

	assert.EqualValues(t, 1, robotsHits, "robots.txt is fetched once per host")
}

type fakeRenderer struct{ load time.Duration }

func (f fakeRenderer) Render(_ context.Context, rawURL, _ string) (*crawler.Response, error) {
	return &crawler.Response{
		Body:        []byte(page),
		FinalURL:    rawURL,
		ContentType: "text/html; charset=utf-8",
		Load:        f.load,
	}, nil
}

func TestRunWithRendererUsesLoadTiming(t *testing.T) {
	r := newRunner(crawler.NewHTTPClient(time.Second, time.Second, 1024))
	r.Robots = nil
	r.Renderer = fakeRenderer{load: 4 * time.Second}

	recs := r.Run(context.Background(), []ioformats.Target{{URL: "https://kf.test/ok"}})
	require.NotNil(t, recs[0].Result)
	assert.False(t, recs[0].Result.Report.Performance)
	assert.Contains(t, strings.Join(recs[0].Result.Report.Errors, "\n"), "page load took 4000ms")
}
