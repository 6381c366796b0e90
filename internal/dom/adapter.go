// Package dom adapts a parsed page for crawler consumption.
package dom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"knowfounders/internal/models"
	"knowfounders/pkg/logger"
)

// Ids of nodes the adapter injects; their presence marks a step as done.
const (
	FontDisplayID = "crawler-font-display"
	CrawlerModeID = "crawler-mode-style"
	ErrorGuardID  = "crawler-error-guard"

	CrawlerModeClass = "crawler-mode"
	PlaceholderAlt   = "Image"
)

var analyticsDomains = []string{
	"googletagmanager.com",
	"google-analytics.com",
	"connect.facebook.net",
	"static.hotjar.com",
	"cdn.segment.com",
	"plausible.io",
	"clarity.ms",
}

var adDomains = []string{
	"googlesyndication.com",
	"doubleclick.net",
	"adservice.google.com",
	"amazon-adsystem.com",
	"cdn.taboola.com",
	"widgets.outbrain.com",
}

const fontDisplayCSS = `@font-face{font-display:swap}`

const crawlerModeCSS = `.crawler-mode *,.crawler-mode *::before,.crawler-mode *::after{animation:none!important;transition:none!important}`

const errorGuardJS = `window.addEventListener("error",function(e){console.warn("suppressed error:",e.message);e.preventDefault();});
window.addEventListener("unhandledrejection",function(e){console.warn("suppressed rejection:",e.reason);e.preventDefault();});`

// Viewport decides which images are visible without scrolling.
type Viewport interface {
	InView(index int, img *goquery.Selection) bool
}

// FoldViewport treats the first Images images, plus any marked
// data-above-fold="true", as in view.
type FoldViewport struct {
	Images int
}

func (v FoldViewport) InView(index int, img *goquery.Selection) bool {
	if img.AttrOr("data-above-fold", "") == "true" {
		return true
	}
	return index < v.Images
}

// Tracker is the page's analytics sink; it is told when its scripts are removed.
type Tracker interface {
	Disable()
}

type Option func(*Adapter)

func WithViewport(v Viewport) Option { return func(a *Adapter) { a.viewport = v } }
func WithTracker(t Tracker) Option   { return func(a *Adapter) { a.tracker = t } }
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

type Adapter struct {
	viewport Viewport
	tracker  Tracker
	log      *logger.Logger
}

func New(opts ...Option) *Adapter {
	a := &Adapter{
		viewport: FoldViewport{Images: 3},
		log:      logger.Discard(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Apply mutates doc for the crawler described by p. Browsers are left alone.
// Each step is independent and checks the document before mutating, so
// repeated calls leave it unchanged. Calls on one document must not overlap.
func (a *Adapter) Apply(doc *goquery.Document, p models.OptimizationPolicy) {
	if doc == nil || !p.Category.IsCrawler() {
		return
	}
	a.step("analytics", func() {
		if !p.EnableAnalytics && removeScripts(doc, analyticsDomains, "data-analytics") > 0 && a.tracker != nil {
			a.tracker.Disable()
		}
	})
	a.step("ads", func() {
		if !p.EnableAds {
			removeScripts(doc, adDomains, "data-ads")
		}
	})
	a.step("defer", func() { deferScripts(doc) })
	a.step("images", func() { a.images(doc, p.EnableImages) })
	a.step("labels", func() { labelControls(doc) })
	a.step("stylesheets", func() { promoteLinks(doc, p.EnableCSS) })
	a.step("fonts", func() {
		if p.EnableFonts {
			injectStyle(doc, FontDisplayID, fontDisplayCSS)
		}
	})
	a.step("crawler-mode", func() {
		doc.Find("html").AddClass(CrawlerModeClass)
		injectStyle(doc, CrawlerModeID, crawlerModeCSS)
	})
	a.step("error-guard", func() {
		if p.EnableJavaScript {
			injectErrorGuard(doc)
		}
	})
}

func (a *Adapter) step(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Debugf("dom step %s skipped: %v", name, r)
		}
	}()
	fn()
}

// removeScripts drops scripts served from any of domains or carrying marker.
func removeScripts(doc *goquery.Document, domains []string, marker string) int {
	n := 0
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr(marker); ok || matchesDomain(s.AttrOr("src", ""), domains) {
			s.Remove()
			n++
		}
	})
	return n
}

func matchesDomain(src string, domains []string) bool {
	if src == "" {
		return false
	}
	src = strings.ToLower(src)
	for _, d := range domains {
		if strings.Contains(src, d) {
			return true
		}
	}
	return false
}

func deferScripts(doc *goquery.Document) {
	doc.Find(`script[data-defer="true"]`).Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("defer"); !ok {
			s.SetAttr("defer", "")
		}
	})
}

func (a *Adapter) images(doc *goquery.Document, enabled bool) {
	doc.Find("img").Each(func(i int, img *goquery.Selection) {
		if enabled {
			loading := "lazy"
			if a.viewport.InView(i, img) {
				loading = "eager"
			}
			img.SetAttr("loading", loading)
		}
		if _, ok := img.Attr("alt"); !ok {
			img.SetAttr("alt", PlaceholderAlt)
		}
	})
}

// labelControls gives text-less links and buttons an aria-label taken from
// their title, an inner image's alt text or, for links, the target.
func labelControls(doc *goquery.Document) {
	doc.Find("a, button").Each(func(_ int, el *goquery.Selection) {
		if strings.TrimSpace(el.Text()) != "" {
			return
		}
		if _, ok := el.Attr("aria-label"); ok {
			return
		}
		label := strings.TrimSpace(el.AttrOr("title", ""))
		if label == "" {
			label = strings.TrimSpace(el.Find("img[alt]").First().AttrOr("alt", ""))
		}
		if label == "" && goquery.NodeName(el) == "a" {
			label = el.AttrOr("href", "")
		}
		if label != "" {
			el.SetAttr("aria-label", label)
		}
	})
}

// promoteLinks loads flagged styles up front when CSS is wanted and demotes
// deferred ones to preload hints when it is not.
func promoteLinks(doc *goquery.Document, css bool) {
	if css {
		doc.Find(`link[rel="preload"][data-critical="true"], link[rel="preload"][data-deferred="true"]`).Each(func(_ int, l *goquery.Selection) {
			if as := l.AttrOr("as", "style"); as != "style" && as != "font" {
				return
			}
			l.SetAttr("rel", "stylesheet")
			l.RemoveAttr("as")
		})
		return
	}
	doc.Find(`link[rel="stylesheet"][data-deferred="true"]`).Each(func(_ int, l *goquery.Selection) {
		l.SetAttr("rel", "preload")
		l.SetAttr("as", "style")
	})
}

func injectStyle(doc *goquery.Document, id, css string) {
	if doc.Find("#"+id).Length() > 0 {
		return
	}
	doc.Find("head").First().AppendHtml(fmt.Sprintf(`<style id="%s">%s</style>`, id, css))
}

func injectErrorGuard(doc *goquery.Document) {
	if doc.Find("#"+ErrorGuardID).Length() > 0 {
		return
	}
	doc.Find("head").First().PrependHtml(fmt.Sprintf(`<script id="%s">%s</script>`, ErrorGuardID, errorGuardJS))
}

// HTML serialises the adapted document.
func HTML(doc *goquery.Document) (string, error) {
	return goquery.OuterHtml(doc.Selection)
}
