package render

import (
	"fmt"
	"strings"

	"knowfounders/internal/models"
	"knowfounders/internal/schema"
)

var homeFeatures = []struct{ title, text string }{
	{"List your startup", "Share what you are building in a few minutes, no technical skills needed."},
	{"Get discovered", "Visitors browse by category, search by name and vote for the ideas they like."},
	{"Find help", "Say what you are looking for, from cofounders to first customers."},
}

var listingSteps = []models.HowToStep{
	{Name: "Create an account", Text: "Sign up with your email address.", URL: "/"},
	{Name: "Describe your startup", Text: "Add a name, tagline, description, category and logo."},
	{Name: "Share your profile", Text: "Publish the listing and share its page with your network.", URL: "/explore"},
}

var homeFAQ = []models.FAQEntry{
	{Question: "Who can list a startup?", Answer: "Any founder. Listings are free and do not require technical skills."},
	{Question: "How are startups ranked?", Answer: "Explore shows the newest listings first. You can also sort by votes or by name."},
	{Question: "Can I update my listing?", Answer: "Yes. Owners can edit their listing at any time from their profile."},
}

// BuildHomepage assembles the landing page with featured startups.
func (r *Renderer) BuildHomepage(featured []models.Startup) Page {
	var b strings.Builder
	b.WriteString("<header>\n<h1>" + esc(r.site.Name) + "</h1>\n")
	if r.site.Description != "" {
		b.WriteString(`<p class="muted">` + esc(r.site.Description) + "</p>\n")
	}
	b.WriteString("</header>\n")

	b.WriteString("<section>\n<h2>Why list here</h2>\n<div class=\"grid\">\n")
	for _, f := range homeFeatures {
		b.WriteString(`<div class="card"><h3>` + esc(f.title) + "</h3><p>" + esc(f.text) + "</p></div>\n")
	}
	b.WriteString("</div>\n</section>\n")

	if len(featured) > 0 {
		b.WriteString("<section>\n<h2>Featured startups</h2>\n")
		r.writeStartupCards(&b, featured)
		b.WriteString("</section>\n")
	}

	b.WriteString("<section>\n<h2>How to list a startup</h2>\n<ol>\n")
	for _, s := range listingSteps {
		b.WriteString("<li><strong>" + esc(s.Name) + "</strong> " + esc(s.Text) + "</li>\n")
	}
	b.WriteString("</ol>\n</section>\n")

	writeFAQ(&b, homeFAQ)
	b.WriteString(`<p><a href="/explore">Explore all startups</a></p>`)

	return Page{
		SEO: models.PageSEOContext{
			Title:        r.site.Name + " - Discover Startups",
			Description:  r.site.Description,
			CanonicalURL: r.site.Abs("/"),
			PageType:     models.PageWebsite,
			FAQEntries:   homeFAQ,
		},
		Content: b.String(),
		Graph: schema.Graph{
			r.schema.Organization(),
			r.schema.WebSite(),
			r.schema.HowTo("How to list a startup on "+r.site.Name, "", listingSteps),
			r.schema.FAQ(homeFAQ),
		},
	}
}

// BuildStartup assembles a startup profile. Sections whose source fields are
// empty are left out.
func (r *Renderer) BuildStartup(s models.Startup) Page {
	path := "/startups/" + s.Slug
	logo := r.image(s.LogoURL)
	crumbs := []models.Breadcrumb{
		{Name: "Home", URL: "/"},
		{Name: "Explore", URL: "/explore"},
		{Name: s.Name, URL: path},
	}

	var b strings.Builder
	writeBreadcrumbs(&b, crumbs)
	b.WriteString("<article>\n<header>\n")
	if logo != "" {
		b.WriteString(`<img src="` + esc(logo) + `" alt="` + esc(s.Name) + ` logo" width="96" height="96">` + "\n")
	}
	b.WriteString("<h1>" + esc(s.Name) + "</h1>\n")
	if s.Tagline != "" {
		b.WriteString(`<p class="muted">` + esc(s.Tagline) + "</p>\n")
	}
	b.WriteString("</header>\n")

	if s.Description != "" {
		b.WriteString("<section>\n<h2>About</h2>\n<p>" + esc(s.Description) + "</p>\n</section>\n")
	}

	var facts []string
	if s.Category != "" {
		facts = append(facts, "Category: "+esc(s.Category))
	}
	if s.Stage != "" {
		facts = append(facts, "Stage: "+esc(s.Stage))
	}
	if s.FoundedYear > 0 {
		facts = append(facts, fmt.Sprintf("Founded: %d", s.FoundedYear))
	}
	if s.TeamSize > 0 {
		facts = append(facts, fmt.Sprintf("Team size: %d", s.TeamSize))
	}
	if s.FounderName != "" {
		facts = append(facts, "Founder: "+esc(s.FounderName))
	}
	if len(facts) > 0 {
		b.WriteString("<section>\n<h2>Details</h2>\n<ul>\n")
		for _, f := range facts {
			b.WriteString("<li>" + f + "</li>\n")
		}
		b.WriteString("</ul>\n</section>\n")
	}

	if href := safeHref(s.WebsiteURL); href != "" {
		b.WriteString("<section>\n<h2>Website</h2>\n")
		b.WriteString(`<p><a href="` + esc(href) + `" rel="noopener">` + esc(s.WebsiteURL) + "</a></p>\n</section>\n")
	}

	if s.ContactEmail != "" || s.ContactPhone != "" || !s.Address.IsZero() {
		b.WriteString("<section>\n<h2>Contact</h2>\n")
		if s.ContactEmail != "" {
			b.WriteString("<p>Email: " + esc(s.ContactEmail) + "</p>\n")
		}
		if s.ContactPhone != "" {
			b.WriteString("<p>Phone: " + esc(s.ContactPhone) + "</p>\n")
		}
		if !s.Address.IsZero() {
			b.WriteString("<address>" + esc(formatAddress(s.Address)) + "</address>\n")
		}
		b.WriteString("</section>\n")
	}

	var follow []string
	for _, u := range s.Socials.URLs() {
		if href := safeHref(u); href != "" {
			follow = append(follow, `<li><a href="`+esc(href)+`" rel="noopener">`+esc(u)+"</a></li>\n")
		}
	}
	if len(follow) > 0 {
		b.WriteString("<section>\n<h2>Follow</h2>\n<ul>\n")
		for _, li := range follow {
			b.WriteString(li)
		}
		b.WriteString("</ul>\n</section>\n")
	}

	if len(s.LookingFor) > 0 {
		b.WriteString("<section>\n<h2>Looking for</h2>\n<ul>\n")
		for _, l := range s.LookingFor {
			if l == "" {
				continue
			}
			b.WriteString("<li>" + esc(l) + "</li>\n")
		}
		b.WriteString("</ul>\n</section>\n")
	}
	b.WriteString("</article>")

	withLogo := s
	withLogo.LogoURL = logo
	graph := schema.Graph{r.schema.StartupOrganization(withLogo)}
	if !s.Address.IsZero() {
		graph = append(graph, r.schema.LocalBusiness(withLogo))
	}
	graph = append(graph, r.schema.Breadcrumbs(crumbs))

	desc := s.Description
	if desc == "" {
		desc = s.Tagline
	}
	return Page{
		SEO: models.PageSEOContext{
			Title:        s.Name,
			Description:  desc,
			CanonicalURL: r.site.Abs(path),
			ImageURL:     logo,
			ImageAlt:     s.Name + " logo",
			PageType:     models.PageWebsite,
			Breadcrumbs:  crumbs,
		},
		Content: b.String(),
		Graph:   graph,
	}
}

// BuildExplore assembles the listing page with the category index.
func (r *Renderer) BuildExplore(startups []models.Startup, categories []models.Category) Page {
	crumbs := []models.Breadcrumb{{Name: "Home", URL: "/"}, {Name: "Explore", URL: "/explore"}}
	desc := "Browse startups listed on " + r.site.Name + " by category, votes and newest additions."

	var b strings.Builder
	writeBreadcrumbs(&b, crumbs)
	b.WriteString("<h1>Explore startups</h1>\n")
	b.WriteString(`<p class="muted">` + esc(desc) + "</p>\n")

	if len(categories) > 0 {
		b.WriteString("<section>\n<h2>Categories</h2>\n<ul>\n")
		for _, c := range categories {
			b.WriteString(`<li><a href="/explore?category=` + esc(c.Slug) + `">` + esc(c.Name) + "</a></li>\n")
		}
		b.WriteString("</ul>\n</section>\n")
	}

	b.WriteString("<section>\n<h2>Startups</h2>\n")
	if len(startups) == 0 {
		b.WriteString("<p>No startups listed yet.</p>\n")
	} else {
		r.writeStartupCards(&b, startups)
	}
	b.WriteString("</section>")

	return Page{
		SEO: models.PageSEOContext{
			Title:        "Explore startups",
			Description:  desc,
			CanonicalURL: r.site.Abs("/explore"),
			PageType:     models.PageWebsite,
			Breadcrumbs:  crumbs,
		},
		Content: b.String(),
		Graph: schema.Graph{
			r.schema.CollectionPage(schema.CollectionPageInput{
				Name:        "Explore startups",
				Description: desc,
				URL:         "/explore",
				Startups:    startups,
			}),
			r.schema.Breadcrumbs(crumbs),
		},
	}
}

// BuildBlogPost assembles an article page. Posts announcing an event also
// carry the Event node.
func (r *Renderer) BuildBlogPost(post models.BlogPost) Page {
	path := "/blog/" + post.Slug
	cover := r.image(post.CoverImage)
	crumbs := []models.Breadcrumb{
		{Name: "Home", URL: "/"},
		{Name: "Blog", URL: "/blog"},
		{Name: post.Title, URL: path},
	}

	var b strings.Builder
	writeBreadcrumbs(&b, crumbs)
	b.WriteString("<article>\n<header>\n<h1>" + esc(post.Title) + "</h1>\n")
	var byline []string
	if post.Author.Name != "" {
		byline = append(byline, "By "+esc(post.Author.Name))
	}
	if !post.PublishedAt.IsZero() {
		byline = append(byline, `<time datetime="`+post.PublishedAt.UTC().Format("2006-01-02")+`">`+post.PublishedAt.UTC().Format("January 2, 2006")+"</time>")
	}
	if len(byline) > 0 {
		b.WriteString(`<p class="muted">` + strings.Join(byline, " · ") + "</p>\n")
	}
	b.WriteString("</header>\n")
	if cover != "" {
		b.WriteString(`<img src="` + esc(cover) + `" alt="` + esc(post.Title) + `">` + "\n")
	}
	if post.Event != nil {
		b.WriteString(`<aside class="card">` + "\n<h2>" + esc(post.Event.Name) + "</h2>\n")
		if !post.Event.StartAt.IsZero() {
			b.WriteString("<p>Starts " + post.Event.StartAt.UTC().Format("January 2, 2006 15:04 MST") + "</p>\n")
		}
		if post.Event.Location != "" {
			b.WriteString("<p>" + esc(post.Event.Location) + "</p>\n")
		}
		if href := safeHref(post.Event.TicketURL); href != "" {
			b.WriteString(`<p><a href="` + esc(href) + `">Register</a></p>` + "\n")
		}
		b.WriteString("</aside>\n")
	}
	if post.Content != "" {
		b.WriteString(post.Content + "\n")
	} else if post.Excerpt != "" {
		b.WriteString("<p>" + esc(post.Excerpt) + "</p>\n")
	}
	if len(post.Tags) > 0 {
		b.WriteString(`<p class="muted">Tags: ` + esc(strings.Join(post.Tags, ", ")) + "</p>\n")
	}
	b.WriteString("</article>")

	withCover := post
	withCover.CoverImage = cover
	graph := schema.Graph{r.schema.Article(withCover), r.schema.Breadcrumbs(crumbs)}
	if post.Event != nil {
		graph = append(graph, r.schema.Event(*post.Event))
	}

	return Page{
		SEO: models.PageSEOContext{
			Title:        post.Title,
			Description:  post.Excerpt,
			Keywords:     post.Tags,
			CanonicalURL: r.site.Abs(path),
			ImageURL:     cover,
			PageType:     models.PageArticle,
			Breadcrumbs:  crumbs,
			Article: &models.ArticleMeta{
				Author:      post.Author.Name,
				PublishedAt: post.PublishedAt,
				ModifiedAt:  post.UpdatedAt,
				Section:     post.Section,
				Tags:        post.Tags,
			},
		},
		Content: b.String(),
		Graph:   graph,
	}
}

// BuildBlogIndex lists published posts, newest first as given.
func (r *Renderer) BuildBlogIndex(posts []models.BlogPost) Page {
	crumbs := []models.Breadcrumb{{Name: "Home", URL: "/"}, {Name: "Blog", URL: "/blog"}}
	desc := "News, founder stories and events from " + r.site.Name + "."

	var b strings.Builder
	writeBreadcrumbs(&b, crumbs)
	b.WriteString("<h1>Blog</h1>\n")
	b.WriteString(`<p class="muted">` + esc(desc) + "</p>\n")
	if len(posts) == 0 {
		b.WriteString("<p>No posts yet.</p>")
	} else {
		b.WriteString("<ul>\n")
		for _, post := range posts {
			b.WriteString(`<li><a href="/blog/` + esc(post.Slug) + `">` + esc(post.Title) + "</a>")
			if post.Excerpt != "" {
				b.WriteString(" - " + esc(post.Excerpt))
			}
			b.WriteString("</li>\n")
		}
		b.WriteString("</ul>")
	}

	return Page{
		SEO: models.PageSEOContext{
			Title:        "Blog",
			Description:  desc,
			CanonicalURL: r.site.Abs("/blog"),
			PageType:     models.PageWebsite,
			Breadcrumbs:  crumbs,
		},
		Content: b.String(),
		Graph: schema.Graph{
			r.schema.CollectionPage(schema.CollectionPageInput{Name: "Blog", Description: desc, URL: "/blog"}),
			r.schema.Breadcrumbs(crumbs),
		},
	}
}

func (r *Renderer) Homepage(featured []models.Startup, p models.OptimizationPolicy) string {
	return r.RenderPage(r.BuildHomepage(featured), p)
}

func (r *Renderer) Startup(s models.Startup, p models.OptimizationPolicy) string {
	return r.RenderPage(r.BuildStartup(s), p)
}

func (r *Renderer) Explore(startups []models.Startup, categories []models.Category, p models.OptimizationPolicy) string {
	return r.RenderPage(r.BuildExplore(startups, categories), p)
}

func (r *Renderer) BlogPost(post models.BlogPost, p models.OptimizationPolicy) string {
	return r.RenderPage(r.BuildBlogPost(post), p)
}

func (r *Renderer) writeStartupCards(b *strings.Builder, startups []models.Startup) {
	b.WriteString(`<div class="grid">` + "\n")
	for _, s := range startups {
		b.WriteString(`<div class="card">`)
		if logo := r.image(s.LogoURL); logo != "" {
			b.WriteString(`<img src="` + esc(logo) + `" alt="` + esc(s.Name) + ` logo" width="48" height="48" loading="lazy">`)
		}
		b.WriteString(`<h3><a href="/startups/` + esc(s.Slug) + `">` + esc(s.Name) + "</a></h3>")
		if s.Tagline != "" {
			b.WriteString("<p>" + esc(s.Tagline) + "</p>")
		}
		if s.Category != "" {
			b.WriteString(`<p class="muted">` + esc(s.Category) + "</p>")
		}
		b.WriteString("</div>\n")
	}
	b.WriteString("</div>\n")
}

func writeBreadcrumbs(b *strings.Builder, items []models.Breadcrumb) {
	b.WriteString(`<nav class="breadcrumbs" aria-label="Breadcrumb">`)
	for i, it := range items {
		if i > 0 {
			b.WriteString(" / ")
		}
		if i == len(items)-1 {
			b.WriteString("<span>" + esc(it.Name) + "</span>")
			continue
		}
		b.WriteString(`<a href="` + esc(it.URL) + `">` + esc(it.Name) + "</a>")
	}
	b.WriteString("</nav>\n")
}

func writeFAQ(b *strings.Builder, entries []models.FAQEntry) {
	if len(entries) == 0 {
		return
	}
	b.WriteString("<section>\n<h2>Frequently asked questions</h2>\n")
	for _, e := range entries {
		b.WriteString("<details><summary>" + esc(e.Question) + "</summary><p>" + esc(e.Answer) + "</p></details>\n")
	}
	b.WriteString("</section>\n")
}

func formatAddress(a models.Address) string {
	var parts []string
	for _, p := range []string{a.Street, a.City, a.Region, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
