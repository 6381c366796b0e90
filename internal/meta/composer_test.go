package meta

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowfounders/internal/models"
	"knowfounders/internal/policy"
)

var testSite = models.Site{
	Name:          "Know Founders",
	URL:           "https://knowfounders.com",
	TwitterHandle: "@knowfounders",
	DefaultImage:  "/og-image.png",
	Locale:        "en_US",
}

func TestTitleNormalisation(t *testing.T) {
	c := New(testSite)
	assert.Equal(t, "Foo | Know Founders", c.Title("Foo"))
	assert.Equal(t, "Know Founders - Discover Startups", c.Title("Know Founders - Discover Startups"))
	assert.Equal(t, "Know Founders", c.Title(""))
}

func TestDescriptionTruncation(t *testing.T) {
	long := strings.Repeat("abcdefghij", 20)
	got := Truncate(long)
	assert.Len(t, got, 160)
	assert.Equal(t, long[:157], got[:157])
	assert.True(t, strings.HasSuffix(got, "..."))

	exact := strings.Repeat("x", 160)
	assert.Equal(t, exact, Truncate(exact))

	// counts characters, not bytes
	runes := strings.Repeat("é", 170)
	assert.Equal(t, 160, len([]rune(Truncate(runes))))

	padded := "  " + strings.Repeat("abcdefghij", 20)
	got = Truncate(padded)
	assert.Len(t, got, 160)
	assert.Equal(t, padded[:157], got[:157])
}

func TestComposeOrderAndDefaults(t *testing.T) {
	c := New(testSite)
	tags := c.Compose(models.PageSEOContext{
		Title:        "Acme",
		Description:  "A widget.",
		CanonicalURL: "https://knowfounders.com/startups/acme",
	}, policy.ForCategory(models.CategoryNone, false, policy.Defaults{}))

	keys := tags.Keys()
	require.GreaterOrEqual(t, len(keys), 5)
	assert.Equal(t, []string{"title", "description", "keywords", "robots", "canonical"}, keys[:5])

	v, _ := tags.Get("robots")
	assert.Equal(t, "index, follow", v)
	v, _ = tags.Get("canonical")
	assert.Equal(t, "https://knowfounders.com/startups/acme", v)
	v, _ = tags.Get("og:image")
	assert.Equal(t, "https://knowfounders.com/og-image.png", v)
	v, _ = tags.Get("og:image:width")
	assert.Equal(t, "1200", v)
	v, _ = tags.Get("og:image:height")
	assert.Equal(t, "630", v)
	v, _ = tags.Get("twitter:card")
	assert.Equal(t, "summary_large_image", v)

	_, ok := tags.Get("crawler-type")
	assert.False(t, ok, "browsers do not get diagnostic tags")
}

func TestComposeDiagnosticsForCrawlers(t *testing.T) {
	c := New(testSite)
	r := policy.NewResolver(nil, policy.Defaults{Analytics: true})
	tags := c.Compose(models.PageSEOContext{Title: "Acme"}, r.Resolve("facebookexternalhit/1.1"))

	m := tags.Map()
	assert.Equal(t, "social", m["crawler-type"])
	assert.Equal(t, "false", m["analytics-enabled"])
	assert.Equal(t, "true", m["social-sharing-enabled"])
	for _, k := range []string{"supports-javascript", "supports-images", "supports-css", "supports-fonts",
		"ads-enabled", "structured-data-enabled", "meta-tags-enabled", "sitemap-enabled", "robots-enabled"} {
		assert.Contains(t, []string{"true", "false"}, m[k], k)
	}
	assert.Equal(t, "Acme | Know Founders", m["og:title"])
	assert.Equal(t, "Acme | Know Founders", m["twitter:title"])
}

func TestComposeArticleAndNoIndex(t *testing.T) {
	c := New(testSite)
	pub := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tags := c.Compose(models.PageSEOContext{
		Title:    "Raising a seed round",
		PageType: models.PageArticle,
		NoIndex:  true,
		Article:  &models.ArticleMeta{Author: "Jo", PublishedAt: pub, Tags: []string{"funding", "seed"}},
	}, models.OptimizationPolicy{})

	m := tags.Map()
	assert.Equal(t, "article", m["og:type"])
	assert.Equal(t, "noindex, nofollow", m["robots"])
	assert.Equal(t, "2024-05-01T12:00:00Z", m["article:published_time"])

	var tagValues []string
	for _, tg := range tags {
		if tg.Key == "article:tag" {
			tagValues = append(tagValues, tg.Value)
		}
	}
	assert.Equal(t, []string{"funding", "seed"}, tagValues)
}

func TestTagsHTMLEscapes(t *testing.T) {
	c := New(testSite)
	out := c.Compose(models.PageSEOContext{Title: `Tom & "Jerry"`}, models.OptimizationPolicy{}).HTML()
	assert.Contains(t, out, "<title>Tom &amp; &#34;Jerry&#34; | Know Founders</title>")
	assert.Contains(t, out, `<link rel="canonical" href="https://knowfounders.com">`)
}

func TestTopKeywords(t *testing.T) {
	got := TopKeywords("go go network network network parsing parsing", 3)
	assert.Equal(t, []string{"network", "parsing"}, got)
	assert.Empty(t, TopKeywords("the and of", 5))
}
