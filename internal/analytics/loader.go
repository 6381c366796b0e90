// Package analytics emits first-party tracking tags and counts page views.
// Nothing here runs for agents whose policy disables analytics.
package analytics

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"knowfounders/internal/models"
)

const (
	gtagURL    = "https://www.googletagmanager.com/gtag/js"
	pixelURL   = "https://connect.facebook.net/en_US/fbevents.js"
	adsURL     = "https://pagead2.googlesyndication.com/pagead/js/adsbygoogle.js"
	loaderPath = "/static/analytics.js"
)

// Config identifies the tracking accounts. Empty IDs disable that tracker.
type Config struct {
	MeasurementID string `yaml:"measurement_id"`
	PixelID       string `yaml:"pixel_id"`
	AdClient      string `yaml:"ad_client"`
	// Endpoint receives first-party page-view beacons.
	Endpoint string `yaml:"endpoint"`
}

// Loader renders script tags from Config. The tags only reference external
// sources and pass IDs as data attributes; no inline code is generated.
type Loader struct {
	cfg Config
}

func NewLoader(cfg Config) *Loader {
	return &Loader{cfg: cfg}
}

// Tags returns the head markup for p, or "" when p allows neither
// analytics nor ads.
func (l *Loader) Tags(p models.OptimizationPolicy) string {
	var b strings.Builder
	if p.EnableAnalytics {
		if id := l.cfg.MeasurementID; id != "" {
			fmt.Fprintf(&b, `<script async src="%s" data-analytics="true"></script>`+"\n",
				html.EscapeString(gtagURL+"?id="+url.QueryEscape(id)))
		}
		if l.cfg.PixelID != "" {
			fmt.Fprintf(&b, `<script async src="%s" data-analytics="true"></script>`+"\n", pixelURL)
		}
		if l.cfg.MeasurementID != "" || l.cfg.PixelID != "" || l.cfg.Endpoint != "" {
			fmt.Fprintf(&b, `<script defer src="%s" data-analytics="true"%s%s%s></script>`+"\n",
				loaderPath,
				attr("data-measurement-id", l.cfg.MeasurementID),
				attr("data-pixel-id", l.cfg.PixelID),
				attr("data-endpoint", l.cfg.Endpoint))
		}
	}
	if p.EnableAds && l.cfg.AdClient != "" {
		fmt.Fprintf(&b, `<script async src="%s" data-ads="true" crossorigin="anonymous"></script>`+"\n",
			html.EscapeString(adsURL+"?client="+url.QueryEscape(l.cfg.AdClient)))
	}
	return b.String()
}

func attr(name, value string) string {
	if value == "" {
		return ""
	}
	return " " + name + `="` + html.EscapeString(value) + `"`
}

// Session is the per-request analytics handle. The DOM adapter disables it
// when it strips tracking scripts.
type Session struct {
	enabled bool
}

func NewSession(p models.OptimizationPolicy) *Session {
	return &Session{enabled: p.EnableAnalytics}
}

func (s *Session) Disable() { s.enabled = false }

func (s *Session) Enabled() bool { return s != nil && s.enabled }
