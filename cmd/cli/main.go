package main

import (
	"encoding/json"
	"os"

	"github.com/alecthomas/kong"

	"knowfounders/internal/classifier"
	"knowfounders/internal/config"
	"knowfounders/internal/models"
	"knowfounders/internal/policy"
	"knowfounders/pkg/logger"
)

type CLI struct {
	Config   string `help:"Path to the YAML config file." type:"path" env:"KF_CONFIG"`
	LogLevel string `help:"Override the configured log level." name:"log-level"`

	Classify ClassifyCmd `cmd:"" help:"Classify a user agent and print its optimization policy."`
	Render   RenderCmd   `cmd:"" help:"Render a page as the given user agent would receive it."`
	Audit    AuditCmd    `cmd:"" help:"Fetch pages and print SEO audit reports as NDJSON."`
	Export   ExportCmd   `cmd:"" help:"Upload crawler snapshots of the directory to the bucket."`
}

type app struct {
	cfg *config.Config
	log *logger.Logger
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("kf"),
		kong.Description("Know Founders crawler tooling."),
		kong.UsageOnError(),
		kong.Vars{"googlebot": googlebotUA},
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		logger.New().Errorf("config: %v", err)
		os.Exit(1)
	}
	level := cfg.Logging.Level
	if cli.LogLevel != "" {
		level = cli.LogLevel
	}
	a := &app{cfg: cfg, log: logger.NewWithOptions(os.Stderr, level, cfg.Logging.Format)}
	ctx.FatalIfErrorf(ctx.Run(a))
}

func (a *app) resolver() *policy.Resolver {
	return policy.NewResolver(classifier.New(), policy.Defaults{
		Analytics: a.cfg.Policy.BrowserAnalytics,
		Ads:       a.cfg.Policy.BrowserAds,
	})
}

type ClassifyCmd struct {
	UserAgent string `arg:"" help:"User-agent string to classify." name:"user-agent"`
}

func (c *ClassifyCmd) Run(a *app) error {
	r := a.resolver()
	out := struct {
		UserAgent       string                    `json:"userAgent"`
		Category        models.CrawlerCategory    `json:"category"`
		Crawler         string                    `json:"crawler,omitempty"`
		PatternsVersion string                    `json:"patternsVersion"`
		Policy          models.OptimizationPolicy `json:"policy"`
	}{
		UserAgent:       c.UserAgent,
		Crawler:         r.Classifier().Name(c.UserAgent),
		PatternsVersion: classifier.PatternsVersion,
		Policy:          r.Resolve(c.UserAgent),
	}
	out.Category = out.Policy.Category
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
