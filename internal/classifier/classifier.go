package classifier

import (
	"strings"

	"knowfounders/internal/models"
)

// PatternsVersion identifies the revision of the token tables below.
// Bump it whenever a token is added or removed.
const PatternsVersion = "2024.11"

type Classifier struct{}

func New() *Classifier { return &Classifier{} }

// Token tables are matched case-insensitively as substrings, in this order.
var aiTokens = []string{
	"gptbot",
	"chatgpt-user",
	"oai-searchbot",
	"claude-web",
	"claudebot",
	"anthropic-ai",
	"perplexitybot",
	"ccbot",
	"bytespider",
	"cohere-ai",
	"google-extended",
	"applebot-extended",
	"youbot",
	"diffbot",
	"amazonbot",
	"meta-externalagent",
}

var socialTokens = []string{
	"facebookexternalhit",
	"facebot",
	"twitterbot",
	"linkedinbot",
	"pinterestbot",
	"pinterest/",
	"whatsapp",
	"telegrambot",
	"slackbot",
	"slack-imgproxy",
	"discordbot",
	"skypeuripreview",
	"viberbot",
	"linebot",
	"redditbot",
}

var searchTokens = []string{
	"googlebot",
	"google-inspectiontool",
	"storebot-google",
	"adsbot-google",
	"mediapartners-google",
	"bingbot",
	"bingpreview",
	"msnbot",
	"slurp",
	"duckduckbot",
	"baiduspider",
	"yandexbot",
	"yandex.com/bots",
	"applebot",
	"sogou",
	"exabot",
	"seznambot",
	"petalbot",
	"ia_archiver",
	"archive.org_bot",
	"ahrefsbot",
	"semrushbot",
	"mj12bot",
	"dotbot",
	"rogerbot",
	"screaming frog",
	"sitebulb",
}

// genericTokens mark automated clients that are not in any named table.
var genericTokens = []string{
	"bot",
	"crawler",
	"spider",
	"scraper",
	"headless",
	"curl/",
	"wget/",
	"python-requests",
	"go-http-client",
	"httpclient",
}

// modernCrawlers execute JavaScript when rendering pages.
var modernCrawlers = []string{
	"googlebot",
	"bingbot",
	"slurp",
	"duckduckbot",
	"baiduspider",
	"yandexbot",
	"applebot",
}

// Classify maps a raw user-agent header to a crawler category.
// Empty or unmatched input yields CategoryNone.
func (c *Classifier) Classify(userAgent string) models.CrawlerCategory {
	ua := normalise(userAgent)
	if ua == "" {
		return models.CategoryNone
	}
	switch {
	case containsAny(ua, aiTokens):
		return models.CategoryAI
	case containsAny(ua, socialTokens):
		return models.CategorySocial
	case containsAny(ua, searchTokens):
		return models.CategorySearch
	case containsAny(ua, genericTokens):
		return models.CategoryOther
	}
	return models.CategoryNone
}

// SupportsJavaScript reports whether the agent is a crawler known to run scripts.
// It is independent of Classify.
func (c *Classifier) SupportsJavaScript(userAgent string) bool {
	ua := normalise(userAgent)
	if ua == "" {
		return false
	}
	return containsAny(ua, modernCrawlers)
}

// Name returns the first matching token, for logs and diagnostics.
func (c *Classifier) Name(userAgent string) string {
	ua := normalise(userAgent)
	if ua == "" {
		return ""
	}
	for _, table := range [][]string{aiTokens, socialTokens, searchTokens} {
		if tok, ok := firstMatch(ua, table); ok {
			return tok
		}
	}
	return ""
}

// IsCrawler is shorthand for Classify(ua).IsCrawler().
func (c *Classifier) IsCrawler(userAgent string) bool {
	return c.Classify(userAgent).IsCrawler()
}

func normalise(ua string) string {
	return strings.ToLower(strings.TrimSpace(ua))
}

func containsAny(ua string, tokens []string) bool {
	_, ok := firstMatch(ua, tokens)
	return ok
}

func firstMatch(ua string, tokens []string) (string, bool) {
	for _, tok := range tokens {
		if strings.Contains(ua, tok) {
			return tok, true
		}
	}
	return "", false
}

// Tokens exposes copies of the tables for tests and the classify API.
func Tokens() map[models.CrawlerCategory][]string {
	cp := func(in []string) []string { return append([]string(nil), in...) }
	return map[models.CrawlerCategory][]string{
		models.CategoryAI:     cp(aiTokens),
		models.CategorySocial: cp(socialTokens),
		models.CategorySearch: cp(searchTokens),
	}
}
