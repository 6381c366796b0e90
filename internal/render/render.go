// Package render produces standalone HTML documents for agents that should
// not depend on client-side script execution.
package render

import (
	"html"
	"net/url"
	"sort"
	"strings"

	"knowfounders/internal/meta"
	"knowfounders/internal/models"
	"knowfounders/internal/schema"
)

const (
	fontURL    = "https://fonts.googleapis.com/css2?family=Inter:wght@400;600;700&display=swap"
	faviconURL = "/favicon.ico"
)

const baseCSS = `body{font-family:Inter,system-ui,-apple-system,"Segoe UI",Roboto,sans-serif;line-height:1.6;color:#1f2937;margin:0;background:#fff}
.container{max-width:960px;margin:0 auto;padding:24px}
h1{font-size:2rem;margin:0 0 .5rem}
h2{font-size:1.4rem;margin:1.5rem 0 .5rem}
a{color:#2563eb}
.card{border:1px solid #e5e7eb;border-radius:8px;padding:16px;margin:12px 0}
.grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(260px,1fr));gap:12px}
.muted{color:#6b7280}
img{max-width:100%;height:auto}
nav.breadcrumbs{font-size:.9rem;margin-bottom:1rem}`

// Document is the input to Render. Context, when set, takes precedence over
// the flat Title/Description/CanonicalURL/Image fields.
type Document struct {
	Title          string
	Description    string
	Content        string
	StructuredData schema.Graph
	MetaTags       map[string]string
	CanonicalURL   string
	Image          string

	Context *models.PageSEOContext
	Policy  models.OptimizationPolicy
}

// Page is a specialization's output before it is turned into markup.
type Page struct {
	SEO     models.PageSEOContext
	Content string
	Graph   schema.Graph
}

type Option func(*Renderer)

// WithImageResolver maps stored logo and cover paths to public URLs.
func WithImageResolver(fn func(string) string) Option {
	return func(r *Renderer) { r.images = fn }
}

// Renderer is stateless after construction and safe for concurrent use.
type Renderer struct {
	site   models.Site
	meta   *meta.Composer
	schema *schema.Composer
	images func(string) string
}

func New(site models.Site, opts ...Option) *Renderer {
	r := &Renderer{
		site:   site,
		meta:   meta.New(site),
		schema: schema.New(site),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Renderer) Site() models.Site { return r.site }

// Schema exposes the structured data composer shared with the server.
func (r *Renderer) Schema() *schema.Composer { return r.schema }

// HeadTags composes the head tags for a page context under a policy.
func (r *Renderer) HeadTags(ctx models.PageSEOContext, p models.OptimizationPolicy) meta.Tags {
	return r.meta.Compose(ctx, p)
}

// Render returns a complete HTML5 document. Content is embedded verbatim.
func (r *Renderer) Render(doc Document) string {
	ctx := doc.seoContext()
	tags := r.meta.Compose(ctx, doc.Policy)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString(`<html lang="` + html.EscapeString(lang(r.site.Locale)) + `">` + "\n")
	b.WriteString("<head>\n")
	b.WriteString(`<meta charset="utf-8">` + "\n")
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")
	b.WriteString(tags.HTML())
	writeExtraMeta(&b, tags, doc.MetaTags)
	b.WriteString(`<link rel="icon" href="` + faviconURL + `">` + "\n")
	if doc.Policy.EnableFonts || !doc.Policy.Category.IsCrawler() {
		b.WriteString(`<link rel="preconnect" href="https://fonts.googleapis.com">` + "\n")
		b.WriteString(`<link rel="stylesheet" href="` + html.EscapeString(fontURL) + `" data-deferred="true">` + "\n")
	}
	if len(doc.StructuredData) > 0 {
		if js, err := doc.StructuredData.Indent(); err == nil {
			b.WriteString(`<script type="application/ld+json">` + "\n")
			b.WriteString(js)
			b.WriteString("\n</script>\n")
		}
	}
	b.WriteString("<style>\n" + baseCSS + "\n</style>\n")
	b.WriteString("</head>\n")
	b.WriteString("<body>\n")
	b.WriteString(`<main class="container">` + "\n")
	b.WriteString(doc.Content)
	b.WriteString("\n</main>\n")
	b.WriteString("</body>\n")
	b.WriteString("</html>\n")
	return b.String()
}

// RenderPage renders a specialization's page under the given policy.
func (r *Renderer) RenderPage(pg Page, p models.OptimizationPolicy) string {
	seo := pg.SEO
	return r.Render(Document{
		Content:        pg.Content,
		StructuredData: pg.Graph,
		Context:        &seo,
		Policy:         p,
	})
}

func (d Document) seoContext() models.PageSEOContext {
	if d.Context != nil {
		return *d.Context
	}
	return models.PageSEOContext{
		Title:        d.Title,
		Description:  d.Description,
		CanonicalURL: d.CanonicalURL,
		ImageURL:     d.Image,
		PageType:     models.PageWebsite,
	}
}

// writeExtraMeta emits caller-supplied name/content pairs in key order,
// skipping keys the composer already produced.
func writeExtraMeta(b *strings.Builder, tags meta.Tags, extra map[string]string) {
	if len(extra) == 0 {
		return
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		if _, dup := tags.Get(k); dup || k == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		tag := meta.Tag{Kind: meta.KindName, Key: k, Value: extra[k]}
		if strings.HasPrefix(k, "og:") || strings.HasPrefix(k, "article:") {
			tag.Kind = meta.KindProperty
		}
		b.WriteString(tag.HTML())
		b.WriteByte('\n')
	}
}

func lang(locale string) string {
	if locale == "" {
		return "en"
	}
	l, _, _ := strings.Cut(locale, "_")
	return strings.ToLower(l)
}

func esc(s string) string { return html.EscapeString(s) }

// safeHref returns raw when it is an http(s) or root-relative URL, prefixes
// bare domains with https://, and returns "" for anything else.
func safeHref(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	} else if strings.HasPrefix(raw, "/") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return ""
		}
		return raw
	case "":
		host, _, _ := strings.Cut(raw, "/")
		if !strings.Contains(host, ".") || strings.ContainsAny(host, " @\\") {
			return ""
		}
		return "https://" + raw
	}
	return ""
}

func (r *Renderer) image(path string) string {
	if path == "" {
		return ""
	}
	if r.images != nil && !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") && !strings.HasPrefix(path, "/") {
		return r.images(path)
	}
	return r.site.Abs(path)
}
