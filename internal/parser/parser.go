package parser

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"knowfounders/internal/models"
)

// Parse decodes r to UTF-8 using the content type and any <meta charset>,
// then builds a document.
func Parse(r io.Reader, contentType string) (*goquery.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		if !utf8.Valid(data) {
			return nil, err
		}
		utf8data = data
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
}

// Meta collects the head tags and headings crawlers look at.
func Meta(doc *goquery.Document) models.Meta {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	desc := strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	if desc == "" {
		desc = strings.TrimSpace(doc.Find(`meta[property="og:description"]`).AttrOr("content", ""))
	}

	var keywords []string
	if kw := doc.Find(`meta[name="keywords"]`).AttrOr("content", ""); kw != "" {
		for _, k := range strings.Split(kw, ",") {
			trim := strings.ToLower(strings.TrimSpace(k))
			if trim != "" {
				keywords = append(keywords, trim)
			}
		}
	}

	og := collect(doc, `meta[property^="og:"]`, "property")
	twitter := collect(doc, `meta[name^="twitter:"]`, "name")

	var h2s []string
	doc.Find("h2").Each(func(i int, s *goquery.Selection) {
		if txt := strings.TrimSpace(s.Text()); txt != "" {
			h2s = append(h2s, txt)
		}
	})

	return models.Meta{
		Title:       title,
		Description: desc,
		Keywords:    keywords,
		OG:          og,
		Twitter:     twitter,
		Canonical:   strings.TrimSpace(doc.Find(`link[rel="canonical"]`).AttrOr("href", "")),
		Robots:      strings.TrimSpace(doc.Find(`meta[name="robots"]`).AttrOr("content", "")),
		H1:          strings.TrimSpace(doc.Find("h1").First().Text()),
		H2:          h2s,
	}
}

// first occurrence of each key wins
func collect(doc *goquery.Document, sel, keyAttr string) map[string]string {
	out := map[string]string{}
	doc.Find(sel).Each(func(i int, s *goquery.Selection) {
		key, _ := s.Attr(keyAttr)
		content, _ := s.Attr("content")
		if key == "" || content == "" {
			return
		}
		if _, ok := out[key]; !ok {
			out[key] = content
		}
	})
	if len(out) == 0 {
		return nil
	}
	return out
}
