package schema

import (
	"strconv"
	"time"

	"knowfounders/internal/models"
)

// Composer holds the site identity shared by every builder.
type Composer struct {
	site models.Site
}

func New(site models.Site) *Composer {
	return &Composer{site: site}
}

func (c *Composer) Organization() Object {
	o := root("Organization")
	o.set("name", c.site.Name)
	o.set("url", c.site.URL)
	o.set("description", c.site.Description)
	if c.site.LogoURL != "" {
		o.set("logo", c.site.Abs(c.site.LogoURL))
	}
	o.set("sameAs", compact(c.site.SameAs...))
	if c.site.ContactEmail != "" {
		o.set("contactPoint", node("ContactPoint").
			set("contactType", "customer support").
			set("email", c.site.ContactEmail))
	}
	return o
}

func (c *Composer) WebSite() Object {
	o := root("WebSite")
	o.set("name", c.site.Name)
	o.set("url", c.site.URL)
	o.set("description", c.site.Description)
	o.set("potentialAction", node("SearchAction").
		set("target", node("EntryPoint").set("urlTemplate", c.site.Abs("/explore")+"?search={search_term_string}")).
		set("query-input", "required name=search_term_string"))
	o.set("publisher", c.publisher())
	return o
}

func (c *Composer) publisher() Object {
	p := node("Organization").set("name", c.site.Name).set("url", c.site.URL)
	if c.site.LogoURL != "" {
		p.set("logo", node("ImageObject").set("url", c.site.Abs(c.site.LogoURL)))
	}
	return p
}

func (c *Composer) Article(post models.BlogPost) Object {
	o := root("Article")
	url := c.site.Abs("/blog/" + post.Slug)
	o.set("headline", post.Title)
	o.set("description", post.Excerpt)
	if post.CoverImage != "" {
		o.set("image", c.site.Abs(post.CoverImage))
	}
	o.set("url", url)
	o.set("mainEntityOfPage", node("WebPage").set("@id", url))
	o.set("datePublished", isoDate(post.PublishedAt))
	o.set("dateModified", isoDate(firstTime(post.UpdatedAt, post.PublishedAt)))
	o.set("author", personNode(post.Author))
	o.set("publisher", c.publisher())
	o.set("articleSection", post.Section)
	o.set("keywords", compact(post.Tags...))
	return o
}

// Breadcrumbs numbers items from 1 in input order.
func (c *Composer) Breadcrumbs(items []models.Breadcrumb) Object {
	list := make([]Object, 0, len(items))
	for i, it := range items {
		list = append(list, node("ListItem").
			set("position", i+1).
			set("name", it.Name).
			set("item", c.site.Abs(it.URL)))
	}
	o := root("BreadcrumbList")
	o["itemListElement"] = list
	return o
}

// StartupOrganization describes a listed startup as an Organization.
func (c *Composer) StartupOrganization(s models.Startup) Object {
	o := root("Organization")
	c.startupFields(o, s)
	o.set("foundingDate", year(s.FoundedYear))
	if s.FounderName != "" {
		o.set("founder", node("Person").set("name", s.FounderName))
	}
	if s.TeamSize > 0 {
		o.set("numberOfEmployees", node("QuantitativeValue").set("value", s.TeamSize))
	}
	o.set("hasOfferCatalog", offerCatalog(s.LookingFor))
	return o
}

// LocalBusiness describes the startup as a place with an address.
func (c *Composer) LocalBusiness(s models.Startup) Object {
	o := root("LocalBusiness")
	c.startupFields(o, s)
	o.set("hasOfferCatalog", offerCatalog(s.LookingFor))
	return o
}

func (c *Composer) startupFields(o Object, s models.Startup) {
	page := c.site.Abs("/startups/" + s.Slug)
	o.set("@id", page)
	o.set("name", s.Name)
	o.set("alternateName", s.Tagline)
	o.set("description", s.Description)
	o.set("url", firstNonEmpty(s.WebsiteURL, page))
	o.set("mainEntityOfPage", page)
	if s.LogoURL != "" {
		o.set("logo", c.site.Abs(s.LogoURL))
		o.set("image", c.site.Abs(s.LogoURL))
	}
	o.set("email", s.ContactEmail)
	o.set("telephone", s.ContactPhone)
	o.set("address", postalAddress(s.Address))
	o.set("sameAs", s.Socials.URLs())
	o.set("additionalProperty", additionalProperties(s))
}

func postalAddress(a models.Address) Object {
	if a.IsZero() {
		return nil
	}
	return node("PostalAddress").
		set("streetAddress", a.Street).
		set("addressLocality", a.City).
		set("addressRegion", a.Region).
		set("postalCode", a.PostalCode).
		set("addressCountry", a.Country)
}

func offerCatalog(items []string) Object {
	offers := make([]Object, 0, len(items))
	for _, it := range compact(items...) {
		offers = append(offers, node("Offer").set("itemOffered", node("Service").set("name", it)))
	}
	if len(offers) == 0 {
		return nil
	}
	o := node("OfferCatalog").set("name", "Looking for")
	o["itemListElement"] = offers
	return o
}

// additionalProperties keeps only properties with a truthy value.
func additionalProperties(s models.Startup) []Object {
	candidates := []struct {
		name  string
		value any
	}{
		{"viewCount", s.ViewCount},
		{"stage", s.Stage},
		{"category", s.Category},
	}
	out := make([]Object, 0, len(candidates))
	for _, p := range candidates {
		if isZero(p.value) {
			continue
		}
		out = append(out, node("PropertyValue").set("name", p.name).set("value", p.value))
	}
	return out
}

func (c *Composer) FAQ(entries []models.FAQEntry) Object {
	qs := make([]Object, 0, len(entries))
	for _, e := range entries {
		if e.Question == "" || e.Answer == "" {
			continue
		}
		qs = append(qs, node("Question").
			set("name", e.Question).
			set("acceptedAnswer", node("Answer").set("text", e.Answer)))
	}
	o := root("FAQPage")
	o["mainEntity"] = qs
	return o
}

// CollectionPageInput describes a listing page such as explore.
type CollectionPageInput struct {
	Name        string
	Description string
	URL         string
	Startups    []models.Startup
}

func (c *Composer) CollectionPage(page CollectionPageInput) Object {
	o := root("CollectionPage")
	o.set("name", page.Name)
	o.set("description", page.Description)
	o.set("url", c.site.Abs(page.URL))
	o.set("isPartOf", node("WebSite").set("name", c.site.Name).set("url", c.site.URL))

	items := make([]Object, 0, len(page.Startups))
	for i, s := range page.Startups {
		items = append(items, node("ListItem").
			set("position", i+1).
			set("url", c.site.Abs("/startups/"+s.Slug)).
			set("name", s.Name))
	}
	list := node("ItemList").set("numberOfItems", len(items))
	list["itemListElement"] = items
	o.set("mainEntity", list)
	return o
}

func (c *Composer) Person(p models.Profile) Object {
	o := personNode(p)
	if o == nil {
		o = node("Person")
	}
	o["@context"] = Context
	return o
}

func personNode(p models.Profile) Object {
	if p.Name == "" {
		return nil
	}
	return node("Person").
		set("name", p.Name).
		set("url", p.URL).
		set("jobTitle", p.JobTitle).
		set("image", p.ImageURL).
		set("sameAs", compact(p.SameAs...))
}

func (c *Composer) Event(e models.EventDetails) Object {
	o := root("Event")
	o.set("name", e.Name)
	o.set("startDate", isoDate(e.StartAt))
	o.set("endDate", isoDate(e.EndAt))
	o.set("eventStatus", "https://schema.org/EventScheduled")
	if e.Online {
		o.set("eventAttendanceMode", "https://schema.org/OnlineEventAttendanceMode")
		o.set("location", node("VirtualLocation").set("url", firstNonEmpty(e.TicketURL, c.site.URL)))
	} else {
		o.set("eventAttendanceMode", "https://schema.org/OfflineEventAttendanceMode")
		o.set("location", node("Place").set("name", e.Location))
	}
	if e.TicketURL != "" {
		o.set("offers", node("Offer").set("url", e.TicketURL))
	}
	o.set("organizer", node("Organization").set("name", c.site.Name).set("url", c.site.URL))
	return o
}

func (c *Composer) HowTo(name, description string, steps []models.HowToStep) Object {
	o := root("HowTo")
	o.set("name", name)
	o.set("description", description)
	list := make([]Object, 0, len(steps))
	for i, s := range steps {
		st := node("HowToStep").
			set("position", i+1).
			set("name", s.Name).
			set("text", s.Text)
		if s.URL != "" {
			st.set("url", c.site.Abs(s.URL))
		}
		list = append(list, st)
	}
	o["step"] = list
	return o
}

func isoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func year(y int) string {
	if y <= 0 {
		return ""
	}
	return strconv.Itoa(y)
}

func firstTime(ts ...time.Time) time.Time {
	for _, t := range ts {
		if !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
