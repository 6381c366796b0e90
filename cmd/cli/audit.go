package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/briandowns/spinner"

	"knowfounders/internal/audit"
	"knowfounders/internal/batch"
	"knowfounders/internal/classifier"
	"knowfounders/internal/crawler"
	"knowfounders/internal/ioformats"
)

type AuditCmd struct {
	URLs        []string `arg:"" optional:"" help:"Page URLs to audit." name:"url"`
	Input       string   `help:"CSV (url, user_agent columns) or NDJSON file of targets." type:"existingfile" short:"i"`
	UserAgent   string   `help:"User agent for targets that do not name one." name:"ua"`
	Render      bool     `help:"Load pages in headless Chrome to measure load time."`
	Concurrency int      `help:"Concurrent audits; defaults to audit.concurrency." short:"c"`
	Output      string   `help:"Output NDJSON file (default stdout)." short:"o"`
	Quiet       bool     `help:"Hide the progress spinner." short:"q"`
}

func (c *AuditCmd) Run(a *app) error {
	var targets []ioformats.Target
	for _, u := range c.URLs {
		targets = append(targets, ioformats.Target{URL: u})
	}
	if c.Input != "" {
		fromFile, err := ioformats.ReadTargets(c.Input)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		targets = append(targets, fromFile...)
	}
	if len(targets) == 0 {
		return errors.New("no targets: pass URLs or --input")
	}

	ua := c.UserAgent
	if ua == "" {
		ua = crawler.DefaultUserAgent
	}
	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = a.cfg.Audit.Concurrency
	}

	client := crawler.NewHTTPClient(a.cfg.Audit.Timeout.Duration, a.cfg.Audit.DialTimeout.Duration, a.cfg.Audit.MaxBodyBytes)
	cl := classifier.New()
	runner := &batch.Runner{
		Fetcher:     client,
		Resolver:    a.resolver(),
		Auditor:     audit.New(cl),
		Robots:      client.Client(),
		DefaultUA:   ua,
		Concurrency: concurrency,
		Log:         a.log,
	}
	if c.Render {
		runner.Renderer = crawler.NewRenderer(crawler.RenderOptions{
			Timeout:      a.cfg.Audit.Timeout.Duration * 4,
			MaxBodyBytes: a.cfg.Audit.MaxBodyBytes,
		}, a.log)
	}

	stopSpinner := func() {}
	if !c.Quiet {
		sp := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		var done int32
		total := len(targets)
		sp.Suffix = fmt.Sprintf(" auditing 0/%d", total)
		runner.OnDone = func(batch.Record) {
			n := atomic.AddInt32(&done, 1)
			sp.Lock()
			sp.Suffix = fmt.Sprintf(" auditing %d/%d", n, total)
			sp.Unlock()
		}
		sp.Start()
		stopSpinner = sp.Stop
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	records := runner.Run(ctx, targets)
	stopSpinner()

	var w io.Writer = os.Stdout
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	return ioformats.WriteNDJSON(w, records)
}
