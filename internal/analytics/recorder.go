package analytics

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	viewKeyPrefix    = "views:"
	startupKeyPrefix = "startup_views:"
)

// Recorder counts page views for sessions that allow analytics.
type Recorder interface {
	RecordView(ctx context.Context, s *Session, path string) error
	RecordStartupView(ctx context.Context, s *Session, slug string) error
}

type RedisRecorder struct {
	client *redis.Client
}

func NewRedisRecorder(addr, password string, db int) *RedisRecorder {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisRecorder{client: rdb}
}

// NewRedisRecorderFromClient wraps an existing client.
func NewRedisRecorderFromClient(c *redis.Client) *RedisRecorder {
	return &RedisRecorder{client: c}
}

func (r *RedisRecorder) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failure: %w", err)
	}
	return nil
}

// RecordView increments views:<path>. Disabled sessions are ignored.
func (r *RedisRecorder) RecordView(ctx context.Context, s *Session, path string) error {
	if !s.Enabled() {
		return nil
	}
	if err := r.client.Incr(ctx, ViewKey(path)).Err(); err != nil {
		return fmt.Errorf("redis incr failure: %w", err)
	}
	return nil
}

func (r *RedisRecorder) RecordStartupView(ctx context.Context, s *Session, slug string) error {
	if !s.Enabled() || slug == "" {
		return nil
	}
	if err := r.client.Incr(ctx, startupKeyPrefix+slug).Err(); err != nil {
		return fmt.Errorf("redis incr failure: %w", err)
	}
	return nil
}

// Views returns the counter for path; a missing key is zero.
func (r *RedisRecorder) Views(ctx context.Context, path string) (int64, error) {
	return r.get(ctx, ViewKey(path))
}

func (r *RedisRecorder) StartupViews(ctx context.Context, slug string) (int64, error) {
	return r.get(ctx, startupKeyPrefix+slug)
}

func (r *RedisRecorder) get(ctx context.Context, key string) (int64, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get failure: %w", err)
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse counter %s: %w", key, err)
	}
	return n, nil
}

func (r *RedisRecorder) Close() error {
	return r.client.Close()
}

// ViewKey normalises path so /explore and /explore/ share a counter.
func ViewKey(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		path = "/"
	}
	return viewKeyPrefix + path
}

// NopRecorder discards views; used when redis is not configured.
type NopRecorder struct{}

func (NopRecorder) RecordView(context.Context, *Session, string) error        { return nil }
func (NopRecorder) RecordStartupView(context.Context, *Session, string) error { return nil }
