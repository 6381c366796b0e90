package meta

import (
	"strconv"
	"strings"
	"time"

	"knowfounders/internal/models"
)

const (
	maxDescription = 160
	ellipsis       = "..."

	imageWidth  = 1200
	imageHeight = 630
)

// Composer builds head tags for a page. It is safe for concurrent use.
type Composer struct {
	site models.Site
}

func New(site models.Site) *Composer {
	return &Composer{site: site}
}

func (c *Composer) Site() models.Site { return c.site }

// Compose returns title, description, robots and canonical tags, the
// crawler diagnostic block when the policy calls for it, then Open Graph
// and Twitter Card tags.
func (c *Composer) Compose(ctx models.PageSEOContext, p models.OptimizationPolicy) Tags {
	var b builder

	title := c.Title(ctx.Title)
	desc := Truncate(ctx.Description)
	canonical := c.site.Abs(ctx.CanonicalURL)
	image := firstNonEmpty(ctx.ImageURL, c.site.DefaultImage)
	if image != "" {
		image = c.site.Abs(image)
	}
	imageAlt := firstNonEmpty(ctx.ImageAlt, title)

	b.add(KindTitle, "title", title)
	b.add(KindName, "description", desc)
	keywords := ctx.Keywords
	if len(keywords) == 0 {
		keywords = TopKeywords(ctx.Description, 10)
	}
	b.addIf(KindName, "keywords", strings.Join(keywords, ", "))
	b.add(KindName, "robots", robotsDirective(ctx))
	b.add(KindLink, "canonical", canonical)

	if p.Category.IsCrawler() && p.EnableMetaTags {
		diagnostics(&b, p)
	}

	ogType := string(ctx.PageType)
	if ogType == "" {
		ogType = string(models.PageWebsite)
	}
	b.add(KindProperty, "og:type", ogType)
	b.add(KindProperty, "og:url", canonical)
	b.add(KindProperty, "og:title", title)
	b.add(KindProperty, "og:description", desc)
	b.addIf(KindProperty, "og:image", image)
	if image != "" {
		b.add(KindProperty, "og:image:width", strconv.Itoa(imageWidth))
		b.add(KindProperty, "og:image:height", strconv.Itoa(imageHeight))
		b.add(KindProperty, "og:image:alt", imageAlt)
	}
	b.add(KindProperty, "og:site_name", c.site.Name)
	b.addIf(KindProperty, "og:locale", c.site.Locale)

	if ctx.PageType == models.PageArticle && ctx.Article != nil {
		article(&b, ctx.Article)
	}

	b.add(KindName, "twitter:card", "summary_large_image")
	b.addIf(KindName, "twitter:site", c.site.TwitterHandle)
	b.addIf(KindName, "twitter:creator", c.site.TwitterHandle)
	b.add(KindName, "twitter:title", title)
	b.add(KindName, "twitter:description", desc)
	b.addIf(KindName, "twitter:image", image)
	if image != "" {
		b.add(KindName, "twitter:image:alt", imageAlt)
	}
	return b.tags
}

// Title appends the site name unless the title already carries it.
func (c *Composer) Title(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return c.site.Name
	}
	if c.site.Name == "" || strings.Contains(title, c.site.Name) {
		return title
	}
	return title + " | " + c.site.Name
}

// Truncate cuts descriptions longer than 160 characters to their first 157
// characters, unmodified, plus an ellipsis.
func Truncate(desc string) string {
	r := []rune(desc)
	if len(r) <= maxDescription {
		return desc
	}
	return string(r[:maxDescription-len(ellipsis)]) + ellipsis
}

func robotsDirective(ctx models.PageSEOContext) string {
	if ctx.NoIndex {
		return "noindex, nofollow"
	}
	return "index, follow"
}

func diagnostics(b *builder, p models.OptimizationPolicy) {
	b.add(KindName, "crawler-type", string(p.Category))
	b.add(KindName, "supports-javascript", strconv.FormatBool(p.EnableJavaScript))
	b.add(KindName, "supports-images", strconv.FormatBool(p.EnableImages))
	b.add(KindName, "supports-css", strconv.FormatBool(p.EnableCSS))
	b.add(KindName, "supports-fonts", strconv.FormatBool(p.EnableFonts))
	b.add(KindName, "analytics-enabled", strconv.FormatBool(p.EnableAnalytics))
	b.add(KindName, "ads-enabled", strconv.FormatBool(p.EnableAds))
	b.add(KindName, "social-sharing-enabled", strconv.FormatBool(p.EnableSocialSharing))
	b.add(KindName, "structured-data-enabled", strconv.FormatBool(p.EnableStructuredData))
	b.add(KindName, "meta-tags-enabled", strconv.FormatBool(p.EnableMetaTags))
	b.add(KindName, "sitemap-enabled", strconv.FormatBool(p.EnableSitemap))
	b.add(KindName, "robots-enabled", strconv.FormatBool(p.EnableRobots))
}

func article(b *builder, a *models.ArticleMeta) {
	if !a.PublishedAt.IsZero() {
		b.add(KindProperty, "article:published_time", a.PublishedAt.UTC().Format(time.RFC3339))
	}
	if !a.ModifiedAt.IsZero() {
		b.add(KindProperty, "article:modified_time", a.ModifiedAt.UTC().Format(time.RFC3339))
	}
	b.addIf(KindProperty, "article:author", a.Author)
	b.addIf(KindProperty, "article:section", a.Section)
	for _, tag := range a.Tags {
		b.addIf(KindProperty, "article:tag", tag)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
