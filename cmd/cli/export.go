package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/briandowns/spinner"

	"knowfounders/internal/render"
	"knowfounders/internal/storage"
	"knowfounders/internal/store"
)

type ExportCmd struct {
	Prefix    string `help:"Key prefix for uploaded snapshots." default:"snapshots"`
	UserAgent string `help:"Render snapshots as this user agent." default:"${googlebot}" name:"ua"`
	DryRun    bool   `help:"Render but do not upload; print the keys instead." name:"dry-run"`
}

type snapshot struct {
	key  string
	page render.Page
}

func (c *ExportCmd) Run(a *app) error {
	ctx := context.Background()
	repo, err := a.openStore()
	if err != nil {
		return err
	}
	r := a.renderer()

	snaps, err := c.collect(ctx, r, repo, a.cfg.Render.ExploreLimit)
	if err != nil {
		return err
	}

	var client *storage.Client
	if !c.DryRun {
		if client, err = storage.New(ctx, a.cfg.Storage); err != nil {
			return err
		}
	}

	sp := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Start()
	defer sp.Stop()

	p := a.resolver().Resolve(c.UserAgent)
	for i, s := range snaps {
		sp.Lock()
		sp.Suffix = fmt.Sprintf(" exporting %d/%d %s", i+1, len(snaps), s.key)
		sp.Unlock()

		html, err := a.adapt(r.RenderPage(s.page, p), p)
		if err != nil {
			return fmt.Errorf("%s: %w", s.key, err)
		}
		if c.DryRun {
			fmt.Println(s.key)
			continue
		}
		if _, err := client.Upload(ctx, s.key, []byte(html), "text/html; charset=utf-8"); err != nil {
			return err
		}
	}
	a.log.Infof("exported %d snapshots under %s", len(snaps), c.Prefix)
	return nil
}

func (c *ExportCmd) collect(ctx context.Context, r *render.Renderer, repo store.Repository, limit int) ([]snapshot, error) {
	key := func(p string) string { return path.Join(c.Prefix, p, "index.html") }

	var snaps []snapshot
	for _, name := range []string{"home", "explore", "blog"} {
		pg, err := buildPage(ctx, r, repo, name, "", limit)
		if err != nil {
			return nil, err
		}
		dir := name
		if name == "home" {
			dir = ""
		}
		snaps = append(snaps, snapshot{key: key(dir), page: pg})
	}

	startups, err := repo.ListStartups(ctx, store.ListOptions{})
	if err != nil {
		return nil, err
	}
	for _, s := range startups {
		snaps = append(snaps, snapshot{key: key("startups/" + s.Slug), page: r.BuildStartup(s)})
	}
	posts, err := repo.ListPosts(ctx, 0)
	if err != nil {
		return nil, err
	}
	for _, post := range posts {
		snaps = append(snaps, snapshot{key: key("blog/" + post.Slug), page: r.BuildBlogPost(post)})
	}
	return snaps, nil
}
