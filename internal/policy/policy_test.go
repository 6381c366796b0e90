package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"knowfounders/internal/classifier"
	"knowfounders/internal/models"
)

func TestResolveIsPure(t *testing.T) {
	r := NewResolver(classifier.New(), Defaults{Analytics: true})
	for _, ua := range []string{"", "GPTBot", "Twitterbot", "Googlebot", "curl/8.0", "Mozilla/5.0 (Macintosh)"} {
		assert.Equal(t, r.Resolve(ua), r.Resolve(ua), ua)
	}
}

func TestTimeoutsAndRetries(t *testing.T) {
	r := NewResolver(nil, Defaults{})
	ai := r.Resolve("Mozilla/5.0 (compatible; PerplexityBot/1.0)")
	assert.Equal(t, models.CategoryAI, ai.Category)
	assert.Equal(t, 30000, ai.TimeoutMs)
	assert.Equal(t, 3, ai.MaxRetries)

	for _, ua := range []string{"Twitterbot/1.0", "Googlebot/2.1", "wget/1.21", "Mozilla/5.0 (Macintosh)", ""} {
		p := r.Resolve(ua)
		assert.Equal(t, 10000, p.TimeoutMs, ua)
		assert.Equal(t, 1, p.MaxRetries, ua)
	}
}

func TestCrawlersNeverSeeTrackers(t *testing.T) {
	r := NewResolver(nil, Defaults{Analytics: true, Ads: true})
	for _, ua := range []string{"GPTBot", "Slackbot-LinkExpanding 1.0", "Googlebot", "python-requests/2.31"} {
		p := r.Resolve(ua)
		assert.False(t, p.EnableAnalytics, ua)
		assert.False(t, p.EnableAds, ua)
		assert.True(t, p.EnableStructuredData, ua)
	}
}

func TestSocialSharingOnlyForSocial(t *testing.T) {
	r := NewResolver(nil, Defaults{})
	assert.True(t, r.Resolve("facebookexternalhit/1.1").EnableSocialSharing)
	assert.False(t, r.Resolve("Googlebot").EnableSocialSharing)
	assert.False(t, r.Resolve("").EnableSocialSharing)
}

func TestJavaScriptFollowsUserAgent(t *testing.T) {
	r := NewResolver(nil, Defaults{})
	assert.True(t, r.Resolve("Mozilla/5.0 (compatible; Googlebot/2.1)").EnableJavaScript)
	assert.False(t, r.Resolve("facebookexternalhit/1.1").EnableJavaScript)
	assert.False(t, r.Resolve("GPTBot/1.0").EnableJavaScript)
}

func TestEmptyUserAgentUsesDefaults(t *testing.T) {
	on := NewResolver(nil, Defaults{Analytics: true, Ads: true}).Resolve("")
	assert.Equal(t, models.CategoryNone, on.Category)
	assert.False(t, on.SupportsJavaScript)
	assert.True(t, on.EnableAnalytics)
	assert.True(t, on.EnableAds)

	off := NewResolver(nil, Defaults{}).Resolve("")
	assert.False(t, off.EnableAnalytics)
	assert.False(t, off.EnableAds)
	assert.True(t, off.EnableJavaScript)
}
