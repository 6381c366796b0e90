package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"

	"knowfounders/internal/models"
	"knowfounders/internal/policy"
)

var (
	browser = policy.ForCategory(models.CategoryNone, true, policy.Defaults{Analytics: true, Ads: true})
	crawler = policy.ForCategory(models.CategorySocial, false, policy.Defaults{Analytics: true, Ads: true})
)

func TestLoaderTags(t *testing.T) {
	l := NewLoader(Config{MeasurementID: "G-123", PixelID: "999", AdClient: "ca-pub-1", Endpoint: "https://collect.test/v"})

	out := l.Tags(browser)
	assert.Contains(t, out, `src="https://www.googletagmanager.com/gtag/js?id=G-123"`)
	assert.Contains(t, out, "fbevents.js")
	assert.Contains(t, out, `data-measurement-id="G-123"`)
	assert.Contains(t, out, `data-endpoint="https://collect.test/v"`)
	assert.Contains(t, out, "adsbygoogle.js?client=ca-pub-1")
	assert.NotContains(t, out, "<script>", "no inline code")

	assert.Empty(t, l.Tags(crawler))
}

func TestLoaderHonoursEachFlag(t *testing.T) {
	l := NewLoader(Config{MeasurementID: "G-1", AdClient: "ca-pub-1"})
	onlyAds := browser
	onlyAds.EnableAnalytics = false
	out := l.Tags(onlyAds)
	assert.NotContains(t, out, "googletagmanager")
	assert.Contains(t, out, "adsbygoogle")

	assert.Empty(t, NewLoader(Config{}).Tags(browser))
}

func TestSession(t *testing.T) {
	s := NewSession(browser)
	assert.True(t, s.Enabled())
	s.Disable()
	assert.False(t, s.Enabled())
	assert.False(t, NewSession(crawler).Enabled())

	var nilSession *Session
	assert.False(t, nilSession.Enabled())
}

func TestRecordView(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedisRecorderFromClient(db)
	ctx := context.TODO()

	mock.ExpectIncr("views:/explore").SetVal(1)
	assert.NoError(t, r.RecordView(ctx, NewSession(browser), "/explore/?sort=newest"))

	// crawlers never reach redis
	assert.NoError(t, r.RecordView(ctx, NewSession(crawler), "/explore"))

	mock.ExpectIncr("views:/").SetErr(errors.New("redis error"))
	err := r.RecordView(ctx, NewSession(browser), "/")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis incr failure")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestRecordStartupView(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedisRecorderFromClient(db)
	ctx := context.TODO()

	mock.ExpectIncr("startup_views:acme").SetVal(7)
	assert.NoError(t, r.RecordStartupView(ctx, NewSession(browser), "acme"))
	assert.NoError(t, r.RecordStartupView(ctx, NewSession(browser), ""))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestViews(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedisRecorderFromClient(db)
	ctx := context.TODO()

	mock.ExpectGet("views:/explore").SetVal("42")
	n, err := r.Views(ctx, "/explore")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), n)

	mock.ExpectGet("startup_views:ghost").RedisNil()
	n, err = r.StartupViews(ctx, "ghost")
	assert.NoError(t, err)
	assert.Zero(t, n)

	mock.ExpectGet("views:/").SetErr(errors.New("boom"))
	_, err = r.Views(ctx, "/")
	assert.Contains(t, err.Error(), "redis get failure")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestViewKey(t *testing.T) {
	assert.Equal(t, "views:/", ViewKey(""))
	assert.Equal(t, "views:/", ViewKey("/"))
	assert.Equal(t, "views:/startups/acme", ViewKey("/startups/acme/#top"))
}

var _ Recorder = (*RedisRecorder)(nil)
var _ Recorder = NopRecorder{}
