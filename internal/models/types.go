package models

import (
	"strings"
	"time"
)

// CrawlerCategory is the audience derived from a user-agent string.
type CrawlerCategory string

const (
	CategorySearch CrawlerCategory = "search"
	CategorySocial CrawlerCategory = "social"
	CategoryAI     CrawlerCategory = "ai"
	CategoryOther  CrawlerCategory = "other"
	CategoryNone   CrawlerCategory = "none"
)

// IsCrawler reports whether the category names an automated agent.
func (c CrawlerCategory) IsCrawler() bool {
	return c != CategoryNone && c != ""
}

// OptimizationPolicy is resolved once per request and never mutated afterwards.
type OptimizationPolicy struct {
	Category           CrawlerCategory `json:"category"`
	SupportsJavaScript bool            `json:"supportsJavaScript"`

	EnableJavaScript     bool `json:"enableJavaScript"`
	EnableImages         bool `json:"enableImages"`
	EnableCSS            bool `json:"enableCSS"`
	EnableFonts          bool `json:"enableFonts"`
	EnableAnalytics      bool `json:"enableAnalytics"`
	EnableAds            bool `json:"enableAds"`
	EnableSocialSharing  bool `json:"enableSocialSharing"`
	EnableStructuredData bool `json:"enableStructuredData"`
	EnableMetaTags       bool `json:"enableMetaTags"`
	EnableSitemap        bool `json:"enableSitemap"`
	EnableRobots         bool `json:"enableRobots"`
	TimeoutMs            int  `json:"timeoutMs"`
	MaxRetries           int  `json:"maxRetries"`
}

type PageType string

const (
	PageWebsite PageType = "website"
	PageArticle PageType = "article"
)

type Breadcrumb struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type ArticleMeta struct {
	Author      string    `json:"author,omitempty"`
	PublishedAt time.Time `json:"publishedAt,omitempty"`
	ModifiedAt  time.Time `json:"modifiedAt,omitempty"`
	Section     string    `json:"section,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

// PageSEOContext is the transient per-render bundle feeding the head composers.
type PageSEOContext struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Keywords     []string     `json:"keywords,omitempty"`
	CanonicalURL string       `json:"canonicalUrl,omitempty"`
	ImageURL     string       `json:"imageUrl,omitempty"`
	ImageAlt     string       `json:"imageAlt,omitempty"`
	PageType     PageType     `json:"pageType"`
	Breadcrumbs  []Breadcrumb `json:"breadcrumbs,omitempty"`
	FAQEntries   []FAQEntry   `json:"faqEntries,omitempty"`
	Article      *ArticleMeta `json:"article,omitempty"`
	NoIndex      bool         `json:"noIndex,omitempty"`
}

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

func (a Address) IsZero() bool {
	return a == Address{}
}

type Socials struct {
	Twitter   string `json:"twitter,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
}

// URLs returns the non-empty profile links in a stable order.
func (s Socials) URLs() []string {
	var out []string
	for _, u := range []string{s.Twitter, s.LinkedIn, s.Facebook, s.Instagram, s.YouTube} {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

type Startup struct {
	ID           int64     `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Tagline      string    `json:"tagline,omitempty"`
	Description  string    `json:"description,omitempty"`
	LogoURL      string    `json:"logoUrl,omitempty"`
	WebsiteURL   string    `json:"websiteUrl,omitempty"`
	Category     string    `json:"category,omitempty"`
	Stage        string    `json:"stage,omitempty"`
	FoundedYear  int       `json:"foundedYear,omitempty"`
	TeamSize     int       `json:"teamSize,omitempty"`
	FounderName  string    `json:"founderName,omitempty"`
	ContactEmail string    `json:"contactEmail,omitempty"`
	ContactPhone string    `json:"contactPhone,omitempty"`
	Address      Address   `json:"address,omitempty"`
	Socials      Socials   `json:"socials,omitempty"`
	LookingFor   []string  `json:"lookingFor,omitempty"`
	ViewCount    int64     `json:"viewCount,omitempty"`
	VoteCount    int64     `json:"voteCount,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
}

type Profile struct {
	Name     string   `json:"name"`
	URL      string   `json:"url,omitempty"`
	JobTitle string   `json:"jobTitle,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	SameAs   []string `json:"sameAs,omitempty"`
}

type EventDetails struct {
	Name      string    `json:"name"`
	StartAt   time.Time `json:"startAt"`
	EndAt     time.Time `json:"endAt,omitempty"`
	Location  string    `json:"location,omitempty"`
	Online    bool      `json:"online,omitempty"`
	TicketURL string    `json:"ticketUrl,omitempty"`
}

type BlogPost struct {
	ID          int64         `json:"id"`
	Slug        string        `json:"slug"`
	Title       string        `json:"title"`
	Excerpt     string        `json:"excerpt,omitempty"`
	Content     string        `json:"content,omitempty"`
	CoverImage  string        `json:"coverImage,omitempty"`
	Author      Profile       `json:"author"`
	Section     string        `json:"section,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	Event       *EventDetails `json:"event,omitempty"`
	PublishedAt time.Time     `json:"publishedAt"`
	UpdatedAt   time.Time     `json:"updatedAt,omitempty"`
}

type HowToStep struct {
	Name string `json:"name"`
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// AuditReport is the read-only result of a compatibility audit.
type AuditReport struct {
	MetaTags        bool     `json:"metaTags"`
	StructuredData  bool     `json:"structuredData"`
	Images          bool     `json:"images"`
	Links           bool     `json:"links"`
	Performance     bool     `json:"performance"`
	Accessibility   bool     `json:"accessibility"`
	Errors          []string `json:"errors"`
	OverallScore    int      `json:"overallScore"`
	Recommendations []string `json:"recommendations"`
}

// ValidationResult is the outcome of the crawler-specific rule pass.
type ValidationResult struct {
	UserAgent string          `json:"userAgent"`
	Category  CrawlerCategory `json:"category"`
	Crawler   string          `json:"crawler,omitempty"`
	Passed    bool            `json:"passed"`
	Issues    []string        `json:"issues"`
}

// AuditResult is the CLI/API envelope for one audited page.
type AuditResult struct {
	SourceURL  string            `json:"sourceUrl,omitempty"`
	FetchMs    int64             `json:"fetchMs,omitempty"`
	Meta       Meta              `json:"meta"`
	Report     AuditReport       `json:"report"`
	Validation *ValidationResult `json:"validation,omitempty"`
}

// Meta is the head summary read back from a fetched document.
type Meta struct {
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Keywords    []string          `json:"keywords,omitempty"`
	OG          map[string]string `json:"og,omitempty"`
	Twitter     map[string]string `json:"twitter,omitempty"`
	Canonical   string            `json:"canonical,omitempty"`
	Robots      string            `json:"robots,omitempty"`
	H1          string            `json:"h1,omitempty"`
	H2          []string          `json:"h2,omitempty"`
}

// Site carries the brand-level values shared by every page.
type Site struct {
	Name          string   `json:"name" yaml:"name"`
	URL           string   `json:"url" yaml:"url"`
	Description   string   `json:"description" yaml:"description"`
	TwitterHandle string   `json:"twitterHandle" yaml:"twitter_handle"`
	DefaultImage  string   `json:"defaultImage" yaml:"default_image"`
	LogoURL       string   `json:"logoUrl" yaml:"logo_url"`
	Locale        string   `json:"locale" yaml:"locale"`
	ContactEmail  string   `json:"contactEmail" yaml:"contact_email"`
	SameAs        []string `json:"sameAs,omitempty" yaml:"same_as"`
}

// Abs joins a site-relative path onto the site URL.
func (s Site) Abs(path string) string {
	if path == "" {
		return s.URL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(s.URL, "/") + "/" + strings.TrimLeft(path, "/")
}
