package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Know Founders", cfg.Site.Name)
	assert.True(t, cfg.Policy.BrowserAnalytics)
}

func TestLoadFromReader(t *testing.T) {
	in := `
server:
  addr: ":9090"
  read_timeout: 5s
  shutdown_timeout: 3
site:
  url: "https://kf.test/"
  twitter_handle: knowfounders
policy:
  browser_ads: false
analytics:
  measurement_id: G-TEST
  redis_addr: localhost:6379
storage:
  bucket: kf-assets
  public_base_url: https://cdn.kf.test
logging:
  level: DEBUG
  format: JSON
`
	cfg, err := LoadFromReader(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Duration)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout.Duration)
	assert.Equal(t, "https://kf.test", cfg.Site.URL)
	assert.Equal(t, "@knowfounders", cfg.Site.TwitterHandle)
	assert.Equal(t, "Know Founders", cfg.Site.Name, "unset fields keep defaults")
	assert.False(t, cfg.Policy.BrowserAds)
	assert.True(t, cfg.Policy.BrowserAnalytics)
	assert.Equal(t, "G-TEST", cfg.Analytics.MeasurementID)
	assert.Equal(t, "/api/analytics", cfg.Analytics.Endpoint)
	assert.Equal(t, "kf-assets", cfg.Storage.Bucket)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromReaderEmpty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestUnknownFieldsRejected(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("site:\n  nmae: typo\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"relative site url": func(c *Config) { c.Site.URL = "/home" },
		"empty addr":        func(c *Config) { c.Server.Addr = " " },
		"bad format":        func(c *Config) { c.Logging.Format = "xml" },
		"zero concurrency":  func(c *Config) { c.Audit.Concurrency = 0 },
		"missing shell":     func(c *Config) { c.Render.ShellPath = "/does/not/exist/index.html" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DATABASE_URL":             "postgres://kf@db/kf",
		"REDIS_ADDR":               "redis:6379",
		"REDIS_DB":                 "2",
		"S3_BUCKET":                "bucket-from-env",
		"ANALYTICS_MEASUREMENT_ID": "G-ENV",
		"KF_ADDR":                  ":7000",
		"LOG_LEVEL":                "  ",
	}
	cfg := Default()
	cfg.applyEnv(func(k string) string { return env[k] })
	assert.Equal(t, "postgres://kf@db/kf", cfg.Database.DSN)
	assert.Equal(t, "redis:6379", cfg.Analytics.RedisAddr)
	assert.Equal(t, 2, cfg.Analytics.RedisDB)
	assert.Equal(t, "bucket-from-env", cfg.Storage.Bucket)
	assert.Equal(t, "G-ENV", cfg.Analytics.MeasurementID)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Logging.Level, "blank values are ignored")
}

func TestRateLimitEvery(t *testing.T) {
	assert.Equal(t, time.Second, RateLimitConfig{RequestsPerMinute: 60}.Every())
	assert.Equal(t, time.Duration(0), RateLimitConfig{}.Every())
}
