package policy

import (
	"knowfounders/internal/classifier"
	"knowfounders/internal/models"
)

const (
	defaultTimeoutMs = 10000
	aiTimeoutMs      = 30000
	defaultRetries   = 1
	aiRetries        = 3
)

// Defaults are the caller's settings for ordinary browser sessions.
type Defaults struct {
	Analytics bool
	Ads       bool
}

// Resolver turns a user agent into an OptimizationPolicy.
type Resolver struct {
	cl       *classifier.Classifier
	defaults Defaults
}

func NewResolver(cl *classifier.Classifier, d Defaults) *Resolver {
	if cl == nil {
		cl = classifier.New()
	}
	return &Resolver{cl: cl, defaults: d}
}

// Resolve is deterministic: the same input always yields an equal policy.
func (r *Resolver) Resolve(userAgent string) models.OptimizationPolicy {
	cat := r.cl.Classify(userAgent)
	js := r.cl.SupportsJavaScript(userAgent)
	p := ForCategory(cat, js, r.defaults)
	return p
}

// Classifier exposes the underlying classifier so callers share one table.
func (r *Resolver) Classifier() *classifier.Classifier { return r.cl }

// ForCategory is the lookup table behind Resolve.
func ForCategory(cat models.CrawlerCategory, supportsJS bool, d Defaults) models.OptimizationPolicy {
	p := models.OptimizationPolicy{
		Category:             cat,
		SupportsJavaScript:   supportsJS,
		EnableJavaScript:     supportsJS,
		EnableStructuredData: true,
		EnableMetaTags:       true,
		EnableSocialSharing:  cat == models.CategorySocial,
		TimeoutMs:            defaultTimeoutMs,
		MaxRetries:           defaultRetries,
	}

	switch cat {
	case models.CategoryAI:
		p.EnableSitemap = true
		p.EnableRobots = true
		p.TimeoutMs = aiTimeoutMs
		p.MaxRetries = aiRetries
	case models.CategorySocial:
		p.EnableImages = true
		p.EnableRobots = true
	case models.CategorySearch:
		p.EnableImages = true
		p.EnableCSS = true
		p.EnableFonts = true
		p.EnableSitemap = true
		p.EnableRobots = true
	case models.CategoryOther:
		p.EnableImages = true
		p.EnableCSS = true
		p.EnableRobots = true
	default:
		// interactive browser
		p.Category = models.CategoryNone
		p.EnableJavaScript = true
		p.EnableImages = true
		p.EnableCSS = true
		p.EnableFonts = true
		p.EnableAnalytics = d.Analytics
		p.EnableAds = d.Ads
	}
	return p
}
