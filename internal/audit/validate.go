package audit

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"knowfounders/internal/models"
	"knowfounders/internal/robots"
)

// ValidateOptions carries optional context for the crawler pass.
type ValidateOptions struct {
	// RobotsTxt, when set, is checked for whether the crawler may fetch Path.
	RobotsTxt string
	Path      string
}

// Validate applies the rule set of the crawler named by userAgent. Ordinary
// browsers have no extra rules and always pass.
func (a *Auditor) Validate(doc *goquery.Document, userAgent string, opts ValidateOptions) models.ValidationResult {
	cat := a.cl.Classify(userAgent)
	res := models.ValidationResult{
		UserAgent: userAgent,
		Category:  cat,
		Crawler:   a.cl.Name(userAgent),
		Issues:    []string{},
	}
	if !cat.IsCrawler() {
		res.Passed = true
		return res
	}

	issue := func(format string, args ...any) {
		res.Issues = append(res.Issues, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(doc.Find("title").First().Text()) == "" {
		issue("missing title")
	}
	if metaName(doc, "description") == "" {
		issue("missing meta description")
	}

	switch cat {
	case models.CategorySocial:
		for _, p := range []string{"og:title", "og:description", "og:image", "og:url"} {
			if metaProperty(doc, p) == "" {
				issue("%s requires %s", res.Crawler, p)
			}
		}
		if res.Crawler == "twitterbot" {
			for _, n := range []string{"twitter:card", "twitter:title", "twitter:description"} {
				if metaName(doc, n) == "" {
					issue("%s requires %s", res.Crawler, n)
				}
			}
		}
	case models.CategorySearch:
		if doc.Find(`link[rel="canonical"]`).AttrOr("href", "") == "" {
			issue("search crawlers require a canonical link")
		}
		if strings.Contains(strings.ToLower(metaName(doc, "robots")), "noindex") {
			issue("page is marked noindex")
		}
		if !hasJSONLD(doc) {
			issue("search crawlers require JSON-LD structured data")
		}
	case models.CategoryAI:
		if !hasJSONLD(doc) {
			issue("AI crawlers require JSON-LD structured data")
		}
		if doc.Find("h1").Length() == 0 {
			issue("AI crawlers require a primary h1 heading")
		}
	}

	if !a.cl.SupportsJavaScript(userAgent) {
		doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
			_, async := s.Attr("async")
			_, deferred := s.Attr("defer")
			if !async && !deferred {
				issue("blocking script %s is not executed by this crawler; add defer or async", s.AttrOr("src", ""))
			}
		})
	}

	if opts.RobotsTxt != "" {
		ok, err := robots.Allowed(opts.RobotsTxt, userAgent, opts.Path)
		switch {
		case err != nil:
			issue("robots.txt unreadable: %v", err)
		case !ok:
			issue("robots.txt blocks this crawler from %s", firstNonEmpty(opts.Path, "/"))
		}
	}

	res.Passed = len(res.Issues) == 0
	return res
}

func hasJSONLD(doc *goquery.Document) bool {
	return doc.Find(`script[type="application/ld+json"]`).Length() > 0
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
