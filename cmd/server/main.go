package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"knowfounders/internal/analytics"
	"knowfounders/internal/audit"
	"knowfounders/internal/classifier"
	"knowfounders/internal/config"
	"knowfounders/internal/policy"
	"knowfounders/internal/render"
	"knowfounders/internal/server"
	"knowfounders/internal/storage"
	"knowfounders/internal/store"
	"knowfounders/pkg/logger"
)

var cli struct {
	Config string `help:"Path to the YAML config file." type:"path" env:"KF_CONFIG"`
}

func main() {
	kong.Parse(&cli, kong.Description("Know Founders crawler-aware web server."))

	cfg, err := config.Load(cli.Config)
	if err != nil {
		logger.New().Errorf("config: %v", err)
		os.Exit(1)
	}
	l := logger.NewWithOptions(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	opts := server.Options{
		Logger:        l,
		AboveFold:     cfg.Render.AboveFold,
		FeaturedCount: cfg.Render.FeaturedCount,
		ExploreLimit:  cfg.Render.ExploreLimit,
		RateEvery:     cfg.RateLimit.Every(),
		RateBurst:     cfg.RateLimit.Burst,
	}

	cl := classifier.New()
	opts.Resolver = policy.NewResolver(cl, policy.Defaults{
		Analytics: cfg.Policy.BrowserAnalytics,
		Ads:       cfg.Policy.BrowserAds,
	})
	opts.Auditor = audit.New(cl)
	opts.Loader = analytics.NewLoader(cfg.Analytics.Config)

	var renderOpts []render.Option
	if cfg.Storage.Bucket != "" {
		sc := cfg.Storage
		renderOpts = append(renderOpts, render.WithImageResolver(func(path string) string {
			return storage.PublicURL(sc, path)
		}))
	}
	opts.Renderer = render.New(cfg.Site, renderOpts...)

	if cfg.Render.ShellPath != "" {
		shell, err := os.ReadFile(cfg.Render.ShellPath)
		if err != nil {
			l.Errorf("read shell: %v", err)
			os.Exit(1)
		}
		opts.Shell = string(shell)
	}

	if cfg.Database.DSN != "" {
		db, err := store.Open(cfg.Database.DSN, store.PoolConfig{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime.Duration,
		})
		if err != nil {
			l.Errorf("database: %v", err)
			os.Exit(1)
		}
		opts.Store = store.NewRepository(db, l.With("component", "store"))
	} else {
		l.Warnf("no database configured; directory pages are disabled")
	}

	if cfg.Analytics.RedisAddr != "" {
		rec := analytics.NewRedisRecorder(cfg.Analytics.RedisAddr, cfg.Analytics.RedisPassword, cfg.Analytics.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rec.Ping(ctx)
		cancel()
		if err != nil {
			l.Warnf("view counting disabled: %v", err)
			_ = rec.Close()
		} else {
			defer rec.Close()
			opts.Recorder = rec
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.New(opts),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  cfg.Server.IdleTimeout.Duration,
	}

	go func() {
		l.Infof("server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	l.Infof("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	_ = srv.Shutdown(ctx)
	l.Infof("bye")
}
