// Package robots generates and evaluates robots.txt and sitemap.xml.
package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/temoto/robotstxt"

	"knowfounders/internal/models"
)

// Disallowed paths for every agent.
var defaultDisallow = []string{"/api/", "/admin"}

// Options tunes the generated robots.txt.
type Options struct {
	// Blocked user-agent tokens receive a full Disallow.
	Blocked []string
	// CrawlDelay in seconds for the wildcard group, 0 to omit.
	CrawlDelay int
}

// Generate returns the robots.txt body for site.
func Generate(site models.Site, opts Options) string {
	var b strings.Builder
	for _, ua := range opts.Blocked {
		ua = strings.TrimSpace(ua)
		if ua == "" {
			continue
		}
		fmt.Fprintf(&b, "User-agent: %s\nDisallow: /\n\n", ua)
	}
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	for _, p := range defaultDisallow {
		b.WriteString("Disallow: " + p + "\n")
	}
	if opts.CrawlDelay > 0 {
		fmt.Fprintf(&b, "Crawl-delay: %d\n", opts.CrawlDelay)
	}
	b.WriteString("\nSitemap: " + site.Abs("/sitemap.xml") + "\n")
	return b.String()
}

// Allowed reports whether userAgent may fetch path under the given rules.
func Allowed(robotsTxt, userAgent, path string) (bool, error) {
	data, err := robotstxt.FromString(robotsTxt)
	if err != nil {
		return false, fmt.Errorf("parse robots.txt: %w", err)
	}
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, userAgent), nil
}

// Fetch downloads robots.txt for the origin of siteURL. A missing file
// yields an empty body, which allows everything.
func Fetch(ctx context.Context, client *http.Client, siteURL, userAgent string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	origin := strings.TrimRight(siteURL, "/")
	if i := strings.Index(origin, "://"); i >= 0 {
		if j := strings.Index(origin[i+3:], "/"); j >= 0 {
			origin = origin[:i+3+j]
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return "", fmt.Errorf("build robots request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("robots returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return "", fmt.Errorf("read robots.txt: %w", err)
	}
	return string(body), nil
}
