package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"knowfounders/internal/dom"
	"knowfounders/internal/models"
	"knowfounders/internal/render"
	"knowfounders/internal/storage"
	"knowfounders/internal/store"
)

const googlebotUA = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

type RenderCmd struct {
	Page      string `arg:"" enum:"home,explore,startup,blog,post" help:"Page to render (home, explore, startup, blog, post)."`
	Slug      string `help:"Startup or post slug for the startup and post pages."`
	UserAgent string `help:"Render as this user agent." default:"${googlebot}" name:"ua"`
}

func (c *RenderCmd) Run(a *app) error {
	ctx := context.Background()
	var repo store.Repository
	if c.Page != "home" || a.cfg.Database.DSN != "" {
		var err error
		if repo, err = a.openStore(); err != nil {
			return err
		}
	}
	r := a.renderer()
	pg, err := buildPage(ctx, r, repo, c.Page, c.Slug, a.cfg.Render.ExploreLimit)
	if err != nil {
		return err
	}
	p := a.resolver().Resolve(c.UserAgent)
	out, err := a.adapt(r.RenderPage(pg, p), p)
	if err != nil {
		return err
	}
	_, err = os.Stdout.WriteString(out)
	return err
}

func (a *app) renderer() *render.Renderer {
	var opts []render.Option
	if a.cfg.Storage.Bucket != "" {
		sc := a.cfg.Storage
		opts = append(opts, render.WithImageResolver(func(path string) string {
			return storage.PublicURL(sc, path)
		}))
	}
	return render.New(a.cfg.Site, opts...)
}

func (a *app) openStore() (store.Repository, error) {
	if a.cfg.Database.DSN == "" {
		return nil, errors.New("database.dsn (or DATABASE_URL) is required for this page")
	}
	db, err := store.Open(a.cfg.Database.DSN, store.PoolConfig{MaxOpenConns: a.cfg.Database.MaxOpenConns})
	if err != nil {
		return nil, err
	}
	return store.NewRepository(db, a.log.With("component", "store")), nil
}

// adapt applies the crawler DOM pass; browsers get the document unchanged.
func (a *app) adapt(html string, p models.OptimizationPolicy) (string, error) {
	if !p.Category.IsCrawler() {
		return html, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse rendered page: %w", err)
	}
	dom.New(dom.WithViewport(dom.FoldViewport{Images: a.cfg.Render.AboveFold}), dom.WithLogger(a.log)).Apply(doc, p)
	return dom.HTML(doc)
}

func buildPage(ctx context.Context, r *render.Renderer, repo store.Repository, page, slug string, limit int) (render.Page, error) {
	switch page {
	case "home":
		var featured []models.Startup
		if repo != nil {
			var err error
			if featured, err = repo.ListStartups(ctx, store.ListOptions{Sort: store.SortMostVoted, Limit: 6}); err != nil {
				return render.Page{}, err
			}
		}
		return r.BuildHomepage(featured), nil
	case "explore":
		startups, err := repo.ListStartups(ctx, store.ListOptions{Limit: limit})
		if err != nil {
			return render.Page{}, err
		}
		cats, err := repo.Categories(ctx)
		if err != nil {
			return render.Page{}, err
		}
		return r.BuildExplore(startups, cats), nil
	case "startup":
		s, err := repo.StartupBySlug(ctx, slug)
		if err != nil {
			return render.Page{}, fmt.Errorf("startup %q: %w", slug, err)
		}
		return r.BuildStartup(s), nil
	case "blog":
		posts, err := repo.ListPosts(ctx, limit)
		if err != nil {
			return render.Page{}, err
		}
		return r.BuildBlogIndex(posts), nil
	case "post":
		post, err := repo.PostBySlug(ctx, slug)
		if err != nil {
			return render.Page{}, fmt.Errorf("post %q: %w", slug, err)
		}
		return r.BuildBlogPost(post), nil
	}
	return render.Page{}, fmt.Errorf("unknown page %q", page)
}
