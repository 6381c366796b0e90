package store

import (
	"strings"
	"time"

	"knowfounders/internal/models"
)

type categoryRow struct {
	ID          int64 `gorm:"primaryKey"`
	Name        string
	Slug        string
	Description *string
}

func (categoryRow) TableName() string { return "categories" }

type startupRow struct {
	ID           int64 `gorm:"primaryKey"`
	Slug         string
	Name         string
	Tagline      *string
	Description  *string
	LogoURL      *string `gorm:"column:logo_url"`
	WebsiteURL   *string `gorm:"column:website_url"`
	CategoryID   *int64
	Category     *categoryRow `gorm:"foreignKey:CategoryID"`
	Stage        *string
	FoundedYear  *int
	TeamSize     *int
	FounderName  *string
	ContactEmail *string
	ContactPhone *string

	AddressStreet     *string
	AddressCity       *string
	AddressRegion     *string
	AddressPostalCode *string
	AddressCountry    *string

	SocialTwitter   *string
	SocialLinkedin  *string
	SocialFacebook  *string
	SocialInstagram *string
	SocialYoutube   *string

	// comma separated
	LookingFor *string
	ViewCount  int64
	VoteCount  int64 `gorm:"->;column:vote_count"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (startupRow) TableName() string { return "startups" }

type voteRow struct {
	ID        int64 `gorm:"primaryKey"`
	StartupID int64
	UserID    string
	CreatedAt time.Time
}

func (voteRow) TableName() string { return "votes" }

type profileRow struct {
	ID        int64 `gorm:"primaryKey"`
	FullName  string
	Website   *string
	JobTitle  *string
	AvatarURL *string `gorm:"column:avatar_url"`
	Twitter   *string
	Linkedin  *string
}

func (profileRow) TableName() string { return "profiles" }

type postRow struct {
	ID          int64 `gorm:"primaryKey"`
	Slug        string
	Title       string
	Excerpt     *string
	Content     *string
	CoverImage  *string
	AuthorID    *int64
	Author      *profileRow `gorm:"foreignKey:AuthorID"`
	Section     *string
	Tags        *string
	Published   bool
	PublishedAt time.Time
	UpdatedAt   time.Time

	EventName      *string
	EventStartAt   *time.Time
	EventEndAt     *time.Time
	EventLocation  *string
	EventOnline    bool
	EventTicketURL *string `gorm:"column:event_ticket_url"`
}

func (postRow) TableName() string { return "blog_posts" }

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func num(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func splitList(p *string) []string {
	var out []string
	for _, v := range strings.Split(str(p), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (c categoryRow) model() models.Category {
	return models.Category{ID: c.ID, Name: c.Name, Slug: c.Slug, Description: str(c.Description)}
}

func (r startupRow) model() models.Startup {
	s := models.Startup{
		ID:           r.ID,
		Slug:         r.Slug,
		Name:         r.Name,
		Tagline:      str(r.Tagline),
		Description:  str(r.Description),
		LogoURL:      str(r.LogoURL),
		WebsiteURL:   str(r.WebsiteURL),
		Stage:        str(r.Stage),
		FoundedYear:  num(r.FoundedYear),
		TeamSize:     num(r.TeamSize),
		FounderName:  str(r.FounderName),
		ContactEmail: str(r.ContactEmail),
		ContactPhone: str(r.ContactPhone),
		Address: models.Address{
			Street:     str(r.AddressStreet),
			City:       str(r.AddressCity),
			Region:     str(r.AddressRegion),
			PostalCode: str(r.AddressPostalCode),
			Country:    str(r.AddressCountry),
		},
		Socials: models.Socials{
			Twitter:   str(r.SocialTwitter),
			LinkedIn:  str(r.SocialLinkedin),
			Facebook:  str(r.SocialFacebook),
			Instagram: str(r.SocialInstagram),
			YouTube:   str(r.SocialYoutube),
		},
		LookingFor: splitList(r.LookingFor),
		ViewCount:  r.ViewCount,
		VoteCount:  r.VoteCount,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.Category != nil {
		s.Category = r.Category.Name
	}
	return s
}

func (p profileRow) model() models.Profile {
	pr := models.Profile{
		Name:     strings.TrimSpace(p.FullName),
		URL:      str(p.Website),
		JobTitle: str(p.JobTitle),
		ImageURL: str(p.AvatarURL),
	}
	for _, u := range []string{str(p.Twitter), str(p.Linkedin)} {
		if u != "" {
			pr.SameAs = append(pr.SameAs, u)
		}
	}
	return pr
}

func (r postRow) model() models.BlogPost {
	post := models.BlogPost{
		ID:          r.ID,
		Slug:        r.Slug,
		Title:       r.Title,
		Excerpt:     str(r.Excerpt),
		Content:     str(r.Content),
		CoverImage:  str(r.CoverImage),
		Section:     str(r.Section),
		Tags:        splitList(r.Tags),
		PublishedAt: r.PublishedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.Author != nil {
		post.Author = r.Author.model()
	}
	if name := str(r.EventName); name != "" && r.EventStartAt != nil {
		ev := &models.EventDetails{
			Name:      name,
			StartAt:   *r.EventStartAt,
			Location:  str(r.EventLocation),
			Online:    r.EventOnline,
			TicketURL: str(r.EventTicketURL),
		}
		if r.EventEndAt != nil {
			ev.EndAt = *r.EventEndAt
		}
		post.Event = ev
	}
	return post
}
