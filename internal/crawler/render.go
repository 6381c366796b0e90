package crawler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"knowfounders/pkg/logger"
)

// loadTimingJS reports navigation load time in ms, or -1 when unavailable.
const loadTimingJS = `(() => {
  const n = performance.getEntriesByType("navigation")[0];
  if (n && n.loadEventEnd > 0) return Math.round(n.loadEventEnd - n.startTime);
  const t = performance.timing;
  if (t && t.loadEventEnd > 0) return t.loadEventEnd - t.navigationStart;
  return -1;
})()`

type RenderOptions struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	// Settle waits after the load event before the DOM is captured.
	Settle time.Duration
}

// Renderer loads pages in headless Chrome so audits see the executed DOM
// and a real load time. One browser session is used per call.
type Renderer struct {
	opts RenderOptions
	log  *logger.Logger
}

func NewRenderer(opts RenderOptions, log *logger.Logger) *Renderer {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 * 1024 * 1024
	}
	if opts.Settle <= 0 {
		opts.Settle = 250 * time.Millisecond
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Renderer{opts: opts, log: log}
}

func (r *Renderer) Render(parent context.Context, rawURL, userAgent string) (*Response, error) {
	ctx, cancel := context.WithTimeout(parent, r.opts.Timeout)
	defer cancel()

	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	)
	if ua := strings.TrimSpace(userAgent); ua != "" {
		execOpts = append(execOpts, chromedp.UserAgent(ua))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOpts...)
	defer allocCancel()
	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	defer chromeCancel()

	start := time.Now()
	var (
		html     string
		finalURL string
		loadMs   float64
	)
	err := chromedp.Run(chromeCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(r.opts.Settle),
		chromedp.Evaluate(loadTimingJS, &loadMs),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp run: %w", err)
	}
	if int64(len(html)) > r.opts.MaxBodyBytes {
		html = html[:r.opts.MaxBodyBytes]
	}
	if finalURL == "" {
		finalURL = rawURL
	}

	resp := &Response{
		Body:        []byte("<!DOCTYPE html>" + html),
		FinalURL:    finalURL,
		ContentType: "text/html; charset=utf-8",
		StatusCode:  200,
		Elapsed:     time.Since(start),
	}
	if loadMs >= 0 {
		resp.Load = time.Duration(loadMs) * time.Millisecond
	}
	r.log.Debugf("rendered %s in %dms (load %dms)", finalURL, resp.Elapsed.Milliseconds(), resp.Load.Milliseconds())
	return resp, nil
}
