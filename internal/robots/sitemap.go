package robots

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"knowfounders/internal/models"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type URL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq,omitempty"`
	Priority   float64 `xml:"priority,omitempty"`
}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// Entries lists the public pages of the site: home, explore, blog index,
// then every startup and post.
func Entries(site models.Site, startups []models.Startup, posts []models.BlogPost) []URL {
	out := []URL{
		{Loc: site.Abs("/"), ChangeFreq: "daily", Priority: 1.0},
		{Loc: site.Abs("/explore"), ChangeFreq: "daily", Priority: 0.9},
		{Loc: site.Abs("/blog"), ChangeFreq: "weekly", Priority: 0.7},
	}
	for _, s := range startups {
		if s.Slug == "" {
			continue
		}
		out = append(out, URL{
			Loc:        site.Abs("/startups/" + s.Slug),
			LastMod:    lastMod(s.UpdatedAt, s.CreatedAt),
			ChangeFreq: "weekly",
			Priority:   0.8,
		})
	}
	for _, p := range posts {
		if p.Slug == "" {
			continue
		}
		out = append(out, URL{
			Loc:        site.Abs("/blog/" + p.Slug),
			LastMod:    lastMod(p.UpdatedAt, p.PublishedAt),
			ChangeFreq: "monthly",
			Priority:   0.6,
		})
	}
	return out
}

// WriteSitemap encodes urls as a sitemap.xml document.
func WriteSitemap(w io.Writer, urls []URL) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(urlset{XMLNS: sitemapNS, URLs: urls}); err != nil {
		return fmt.Errorf("encode sitemap: %w", err)
	}
	return enc.Flush()
}

func lastMod(ts ...time.Time) string {
	for _, t := range ts {
		if !t.IsZero() {
			return t.UTC().Format("2006-01-02")
		}
	}
	return ""
}
