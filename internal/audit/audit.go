// Package audit inspects rendered pages for crawler compatibility. It never
// mutates the document it is given.
package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"knowfounders/internal/classifier"
	"knowfounders/internal/models"
)

// LoadThreshold is the slowest load time that still passes.
const LoadThreshold = 3000 * time.Millisecond

const (
	weightMeta          = 20
	weightStructured    = 20
	weightImages        = 15
	weightLinks         = 10
	weightPerformance   = 15
	weightAccessibility = 20
)

// maxListed caps how many offending elements one error line names.
const maxListed = 5

var recommendations = map[string]string{
	"metaTags":       "Add a title, a meta description and og:title/og:description tags to every page.",
	"structuredData": `Embed valid schema.org JSON-LD in a <script type="application/ld+json"> block.`,
	"images":         "Give every image an alt attribute describing its content.",
	"links":          "Use absolute http(s), root-relative or fragment links; avoid empty and javascript: hrefs.",
	"performance":    "Bring page load under 3 seconds: defer scripts, compress images and trim render-blocking CSS.",
	"accessibility":  "Use exactly one h1 per page and keep a logical heading hierarchy.",
}

// Timing is an optional load measurement for the audited page.
type Timing struct {
	Load time.Duration
}

type Auditor struct {
	cl *classifier.Classifier
}

func New(cl *classifier.Classifier) *Auditor {
	if cl == nil {
		cl = classifier.New()
	}
	return &Auditor{cl: cl}
}

// Audit scores doc out of 100. A nil timing means load time was not
// measured; that check then passes.
func (a *Auditor) Audit(doc *goquery.Document, timing *Timing) models.AuditReport {
	rep := models.AuditReport{Errors: []string{}, Recommendations: []string{}}

	rep.MetaTags = checkMeta(doc, &rep.Errors)
	rep.StructuredData = checkStructuredData(doc, &rep.Errors)
	rep.Images = checkImages(doc, &rep.Errors)
	rep.Links = checkLinks(doc, &rep.Errors)
	rep.Performance = checkPerformance(timing, &rep.Errors)
	rep.Accessibility = checkHeadings(doc, &rep.Errors)

	checks := []struct {
		key    string
		ok     bool
		weight int
	}{
		{"metaTags", rep.MetaTags, weightMeta},
		{"structuredData", rep.StructuredData, weightStructured},
		{"images", rep.Images, weightImages},
		{"links", rep.Links, weightLinks},
		{"performance", rep.Performance, weightPerformance},
		{"accessibility", rep.Accessibility, weightAccessibility},
	}
	for _, c := range checks {
		if c.ok {
			rep.OverallScore += c.weight
			continue
		}
		rep.Recommendations = append(rep.Recommendations, recommendations[c.key])
	}
	return rep
}

func checkMeta(doc *goquery.Document, errs *[]string) bool {
	required := []struct {
		label string
		value string
	}{
		{"title", strings.TrimSpace(doc.Find("title").First().Text())},
		{"meta description", metaName(doc, "description")},
		{"og:title", metaProperty(doc, "og:title")},
		{"og:description", metaProperty(doc, "og:description")},
	}
	ok := true
	for _, r := range required {
		if r.value == "" {
			*errs = append(*errs, "missing "+r.label)
			ok = false
		}
	}
	return ok
}

func checkStructuredData(doc *goquery.Document, errs *[]string) bool {
	blocks := doc.Find(`script[type="application/ld+json"]`)
	if blocks.Length() == 0 {
		*errs = append(*errs, "no JSON-LD structured data block")
		return false
	}
	ok := true
	blocks.Each(func(i int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			*errs = append(*errs, fmt.Sprintf("structured data block %d: invalid JSON: %v", i+1, err))
			ok = false
		}
	})
	return ok
}

func checkImages(doc *goquery.Document, errs *[]string) bool {
	total, missing := 0, 0
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		total++
		if _, ok := s.Attr("alt"); !ok {
			missing++
		}
	})
	if missing > 0 {
		*errs = append(*errs, fmt.Sprintf("%d of %d images missing alt text", missing, total))
		return false
	}
	return true
}

func checkLinks(doc *goquery.Document, errs *[]string) bool {
	var bad []string
	doc.Find("a[href], link[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if !validHref(href) {
			bad = append(bad, fmt.Sprintf("%q", href))
		}
	})
	if len(bad) == 0 {
		return true
	}
	listed := bad
	if len(listed) > maxListed {
		listed = listed[:maxListed]
	}
	*errs = append(*errs, fmt.Sprintf("%d invalid links: %s", len(bad), strings.Join(listed, ", ")))
	return false
}

func validHref(href string) bool {
	return strings.HasPrefix(href, "http") || strings.HasPrefix(href, "/") || strings.HasPrefix(href, "#")
}

func checkPerformance(t *Timing, errs *[]string) bool {
	if t == nil {
		return true
	}
	if t.Load >= LoadThreshold {
		*errs = append(*errs, fmt.Sprintf("page load took %dms (threshold %dms)", t.Load.Milliseconds(), LoadThreshold.Milliseconds()))
		return false
	}
	return true
}

func checkHeadings(doc *goquery.Document, errs *[]string) bool {
	h1 := doc.Find("h1").Length()
	all := doc.Find("h1, h2, h3, h4, h5, h6").Length()
	ok := true
	if all == 0 {
		*errs = append(*errs, "page has no headings")
		ok = false
	}
	if h1 != 1 {
		*errs = append(*errs, fmt.Sprintf("expected exactly one h1, found %d", h1))
		ok = false
	}
	return ok
}

func metaName(doc *goquery.Document, name string) string {
	return strings.TrimSpace(doc.Find(`meta[name="`+name+`"]`).First().AttrOr("content", ""))
}

func metaProperty(doc *goquery.Document, prop string) string {
	return strings.TrimSpace(doc.Find(`meta[property="`+prop+`"]`).First().AttrOr("content", ""))
}
