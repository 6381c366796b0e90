// Package batch audits many pages concurrently, each fetched as the user
// agent it names.
package batch

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"knowfounders/internal/audit"
	"knowfounders/internal/crawler"
	"knowfounders/internal/ioformats"
	"knowfounders/internal/models"
	"knowfounders/internal/parser"
	"knowfounders/internal/policy"
	"knowfounders/internal/robots"
	"knowfounders/pkg/logger"
)

type Fetcher interface {
	FetchWithPolicy(ctx context.Context, rawURL, userAgent string, p models.OptimizationPolicy) (*crawler.Response, error)
}

type Renderer interface {
	Render(ctx context.Context, rawURL, userAgent string) (*crawler.Response, error)
}

// Record is one output line.
type Record struct {
	URL       string              `json:"url"`
	UserAgent string              `json:"userAgent,omitempty"`
	Result    *models.AuditResult `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
}

type Runner struct {
	Fetcher  Fetcher
	Renderer Renderer // optional; when set pages are loaded in a browser
	Resolver *policy.Resolver
	Auditor  *audit.Auditor
	// Robots, when set, fetches each host's robots.txt once for validation.
	Robots      *http.Client
	DefaultUA   string
	Concurrency int
	Log         *logger.Logger
	// OnDone is called after each target, e.g. to advance a progress display.
	OnDone func(Record)

	robotsMu    sync.Mutex
	robotsCache map[string]string
}

// Run audits targets and returns one record per target, in input order.
// Per-target failures are reported in the record, not returned.
func (r *Runner) Run(ctx context.Context, targets []ioformats.Target) []Record {
	if r.Log == nil {
		r.Log = logger.Discard()
	}
	limit := r.Concurrency
	if limit <= 0 {
		limit = 1
	}
	out := make([]Record, len(targets))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			out[i] = r.one(ctx, t)
			if r.OnDone != nil {
				r.OnDone(out[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *Runner) one(ctx context.Context, t ioformats.Target) Record {
	ua := t.UserAgent
	if ua == "" {
		ua = r.DefaultUA
	}
	rec := Record{URL: t.URL, UserAgent: ua}
	p := r.Resolver.Resolve(ua)

	var (
		resp *crawler.Response
		err  error
	)
	if r.Renderer != nil {
		resp, err = r.Renderer.Render(ctx, t.URL, ua)
	} else {
		resp, err = r.Fetcher.FetchWithPolicy(ctx, t.URL, ua, p)
	}
	if err != nil {
		r.Log.Warnf("audit %s: %v", t.URL, err)
		rec.Error = err.Error()
		return rec
	}

	doc, err := parser.Parse(bytes.NewReader(resp.Body), resp.ContentType)
	if err != nil {
		rec.Error = err.Error()
		return rec
	}

	var timing *audit.Timing
	if resp.Load > 0 {
		timing = &audit.Timing{Load: resp.Load}
	}
	res := models.AuditResult{
		SourceURL: resp.FinalURL,
		FetchMs:   resp.Elapsed.Milliseconds(),
		Meta:      parser.Meta(doc),
		Report:    r.Auditor.Audit(doc, timing),
	}
	if p.Category.IsCrawler() {
		opts := audit.ValidateOptions{Path: "/"}
		if u, err := url.Parse(resp.FinalURL); err == nil {
			if u.Path != "" {
				opts.Path = u.Path
			}
			opts.RobotsTxt = r.robotsFor(ctx, u, ua)
		}
		v := r.Auditor.Validate(doc, ua, opts)
		res.Validation = &v
	}
	rec.Result = &res
	return rec
}

func (r *Runner) robotsFor(ctx context.Context, u *url.URL, ua string) string {
	if r.Robots == nil || u.Host == "" {
		return ""
	}
	site := u.Scheme + "://" + u.Host
	r.robotsMu.Lock()
	defer r.robotsMu.Unlock()
	if r.robotsCache == nil {
		r.robotsCache = map[string]string{}
	}
	if body, ok := r.robotsCache[site]; ok {
		return body
	}
	fctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	body, err := robots.Fetch(fctx, r.Robots, site, ua)
	if err != nil {
		r.Log.Debugf("robots.txt %s: %v", site, err)
	}
	r.robotsCache[site] = body
	return body
}
