// Package config loads server and CLI settings from YAML, .env and the
// environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"knowfounders/internal/analytics"
	"knowfounders/internal/models"
	"knowfounders/internal/storage"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Site      models.Site     `yaml:"site"`
	Policy    PolicyConfig    `yaml:"policy"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   storage.Config  `yaml:"storage"`
	Render    RenderConfig    `yaml:"render"`
	Audit     AuditConfig     `yaml:"audit"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	IdleTimeout     Duration `yaml:"idle_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// PolicyConfig holds the browser defaults; crawler policies are fixed.
type PolicyConfig struct {
	BrowserAnalytics bool `yaml:"browser_analytics"`
	BrowserAds       bool `yaml:"browser_ads"`
}

type AnalyticsConfig struct {
	analytics.Config `yaml:",inline"`
	RedisAddr        string `yaml:"redis_addr"`
	RedisPassword    string `yaml:"redis_password"`
	RedisDB          int    `yaml:"redis_db"`
}

type DatabaseConfig struct {
	DSN             string   `yaml:"dsn"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
}

type RenderConfig struct {
	// ShellPath points at the SPA index.html served to browsers. Empty
	// means browsers get the static rendering too.
	ShellPath     string `yaml:"shell_path"`
	AboveFold     int    `yaml:"above_fold_images"`
	FeaturedCount int    `yaml:"featured_count"`
	ExploreLimit  int    `yaml:"explore_limit"`
}

type AuditConfig struct {
	Concurrency  int      `yaml:"concurrency"`
	Timeout      Duration `yaml:"timeout"`
	DialTimeout  Duration `yaml:"dial_timeout"`
	MaxBodyBytes int64    `yaml:"max_body_bytes"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     DurationFrom(10 * time.Second),
			WriteTimeout:    DurationFrom(60 * time.Second),
			IdleTimeout:     DurationFrom(120 * time.Second),
			ShutdownTimeout: DurationFrom(10 * time.Second),
		},
		Site: models.Site{
			Name:         "Know Founders",
			URL:          "https://knowfounders.com",
			Description:  "Discover startups and the founders building them.",
			DefaultImage: "/og-image.png",
			LogoURL:      "/logo.png",
			Locale:       "en_US",
		},
		Policy: PolicyConfig{BrowserAnalytics: true, BrowserAds: true},
		Analytics: AnalyticsConfig{
			Config: analytics.Config{Endpoint: "/api/analytics"},
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: DurationFrom(30 * time.Minute),
		},
		Render: RenderConfig{
			AboveFold:     3,
			FeaturedCount: 6,
			ExploreLimit:  48,
		},
		Audit: AuditConfig{
			Concurrency:  10,
			Timeout:      DurationFrom(15 * time.Second),
			DialTimeout:  DurationFrom(5 * time.Second),
			MaxBodyBytes: 5 * 1024 * 1024,
		},
		RateLimit: RateLimitConfig{RequestsPerMinute: 120, Burst: 30},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (optional; empty skips the file), then applies .env and
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fh, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer fh.Close()
		if err := decodeYAML(fh, &cfg); err != nil {
			return nil, err
		}
	}
	// a missing .env is fine
	_ = godotenv.Load()
	cfg.applyEnv(os.Getenv)
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromReader decodes YAML only; the environment is not consulted.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decodeYAML(r, &cfg); err != nil {
		return nil, err
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	setString(&c.Database.DSN, getenv("DATABASE_URL"))
	setString(&c.Analytics.RedisAddr, getenv("REDIS_ADDR"))
	setString(&c.Analytics.RedisPassword, getenv("REDIS_PASSWORD"))
	setString(&c.Analytics.MeasurementID, getenv("ANALYTICS_MEASUREMENT_ID"))
	setString(&c.Storage.Bucket, getenv("S3_BUCKET"))
	setString(&c.Storage.PublicBaseURL, getenv("S3_PUBLIC_BASE_URL"))
	setString(&c.Storage.Region, getenv("AWS_REGION"))
	setString(&c.Server.Addr, getenv("KF_ADDR"))
	setString(&c.Logging.Level, getenv("LOG_LEVEL"))
	if v := getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analytics.RedisDB = n
		}
	}
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}
	if c.Site.Name == "" {
		return errors.New("site.name must be set")
	}
	u, err := url.Parse(c.Site.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("site.url must be an absolute url (got %q)", c.Site.URL)
	}
	if c.Render.AboveFold < 0 {
		return fmt.Errorf("render.above_fold_images must be >= 0 (got %d)", c.Render.AboveFold)
	}
	if c.Audit.Concurrency <= 0 {
		return fmt.Errorf("audit.concurrency must be > 0 (got %d)", c.Audit.Concurrency)
	}
	if c.Audit.MaxBodyBytes <= 0 {
		return fmt.Errorf("audit.max_body_bytes must be > 0 (got %d)", c.Audit.MaxBodyBytes)
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate_limit values must be >= 0")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json (got %q)", c.Logging.Format)
	}
	if c.Render.ShellPath != "" {
		if _, err := os.Stat(c.Render.ShellPath); err != nil {
			return fmt.Errorf("render.shell_path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalise() {
	c.Site.URL = strings.TrimRight(strings.TrimSpace(c.Site.URL), "/")
	c.Site.TwitterHandle = strings.TrimSpace(c.Site.TwitterHandle)
	if h := c.Site.TwitterHandle; h != "" && !strings.HasPrefix(h, "@") {
		c.Site.TwitterHandle = "@" + h
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	c.Database.DSN = strings.TrimSpace(c.Database.DSN)
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Render.ShellPath = strings.TrimSpace(c.Render.ShellPath)
}

// Every converts requests per minute into a token interval.
// Zero disables limiting.
func (c RateLimitConfig) Every() time.Duration {
	if c.RequestsPerMinute <= 0 {
		return 0
	}
	return time.Minute / time.Duration(c.RequestsPerMinute)
}
