package classifier

import (
	"strings"
	"testing"

	"knowfounders/internal/models"
)

func TestClassify(t *testing.T) {
	cl := New()
	cases := []struct {
		ua   string
		want models.CrawlerCategory
	}{
		{"Mozilla/5.0 AppleWebKit/537.36 (KHTML, like Gecko; compatible; GPTBot/1.0; +https://openai.com/gptbot)", models.CategoryAI},
		{"Claude-Web/1.0", models.CategoryAI},
		{"facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)", models.CategorySocial},
		{"Twitterbot/1.0", models.CategorySocial},
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", models.CategorySearch},
		{"Mozilla/5.0 (compatible; bingbot/2.0; +http://www.bing.com/bingbot.htm)", models.CategorySearch},
		{"curl/8.4.0", models.CategoryOther},
		{"Mozilla/5.0 (Macintosh)", models.CategoryNone},
		{"", models.CategoryNone},
		{"   ", models.CategoryNone},
	}
	for _, tc := range cases {
		if got := cl.Classify(tc.ua); got != tc.want {
			t.Fatalf("Classify(%q) = %s, want %s", tc.ua, got, tc.want)
		}
	}
}

func TestClassifyEveryToken(t *testing.T) {
	cl := New()
	for cat, tokens := range Tokens() {
		for _, tok := range tokens {
			for _, ua := range []string{tok, strings.ToUpper(tok), "Mozilla/5.0 (compatible; " + tok + ")"} {
				if got := cl.Classify(ua); got != cat {
					t.Fatalf("Classify(%q) = %s, want %s", ua, got, cat)
				}
			}
		}
	}
}

func TestPrecedence(t *testing.T) {
	cl := New()
	if got := cl.Classify("Googlebot facebookexternalhit GPTBot"); got != models.CategoryAI {
		t.Fatalf("AI should win, got %s", got)
	}
	if got := cl.Classify("Googlebot Twitterbot"); got != models.CategorySocial {
		t.Fatalf("social should beat search, got %s", got)
	}
	if got := cl.Classify("Applebot-Extended/0.1"); got != models.CategoryAI {
		t.Fatalf("Applebot-Extended is an AI agent, got %s", got)
	}
}

func TestSupportsJavaScript(t *testing.T) {
	cl := New()
	if !cl.SupportsJavaScript("Mozilla/5.0 (compatible; Googlebot/2.1)") {
		t.Fatal("googlebot renders javascript")
	}
	if cl.SupportsJavaScript("facebookexternalhit/1.1") {
		t.Fatal("facebook preview fetcher does not render javascript")
	}
	if cl.SupportsJavaScript("") {
		t.Fatal("empty user agent must not support javascript")
	}
	// independent of category: AI category, but token also names a modern crawler
	if !cl.SupportsJavaScript("Applebot-Extended") {
		t.Fatal("applebot token should match the modern crawler list")
	}
}

func TestName(t *testing.T) {
	cl := New()
	if got := cl.Name("Mozilla/5.0 (compatible; YandexBot/3.0)"); got != "yandexbot" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := cl.Name("Mozilla/5.0 (Macintosh)"); got != "" {
		t.Fatalf("expected empty name, got %q", got)
	}
}
