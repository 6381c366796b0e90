// Package store reads the directory's startups, categories and posts from
// Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"knowfounders/internal/models"
	"knowfounders/pkg/logger"
)

var ErrNotFound = errors.New("not found")

// Sort orders for ListStartups.
const (
	SortNewest    = "newest"
	SortMostVoted = "most_voted"
	SortName      = "name"
)

// likeEscaper makes search text match literally inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type ListOptions struct {
	Search   string
	Category string // category slug
	Sort     string
	// Limit 0 means no limit.
	Limit  int
	Offset int
}

type Repository interface {
	StartupBySlug(ctx context.Context, slug string) (models.Startup, error)
	ListStartups(ctx context.Context, opts ListOptions) ([]models.Startup, error)
	Categories(ctx context.Context) ([]models.Category, error)
	PostBySlug(ctx context.Context, slug string) (models.BlogPost, error)
	ListPosts(ctx context.Context, limit int) ([]models.BlogPost, error)
}

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to Postgres through gorm's pgx dialector.
func Open(dsn string, pool PoolConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return db, nil
}

type PostgresRepository struct {
	DB  *gorm.DB
	log *logger.Logger
}

func NewRepository(db *gorm.DB, log *logger.Logger) *PostgresRepository {
	if log == nil {
		log = logger.Discard()
	}
	return &PostgresRepository{DB: db, log: log}
}

func (r *PostgresRepository) StartupBySlug(ctx context.Context, slug string) (models.Startup, error) {
	var row startupRow
	err := r.DB.WithContext(ctx).
		Preload("Category").
		Where("slug = ?", slug).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Startup{}, ErrNotFound
	}
	if err != nil {
		return models.Startup{}, fmt.Errorf("startup %q: %w", slug, err)
	}

	var votes int64
	if err := r.DB.WithContext(ctx).Model(&voteRow{}).Where("startup_id = ?", row.ID).Count(&votes).Error; err != nil {
		return models.Startup{}, fmt.Errorf("count votes for %q: %w", slug, err)
	}
	row.VoteCount = votes
	return row.model(), nil
}

// ListStartups filters and orders startups. An unknown sort logs a warning
// and falls back to newest first.
func (r *PostgresRepository) ListStartups(ctx context.Context, opts ListOptions) ([]models.Startup, error) {
	q := r.DB.WithContext(ctx).Model(&startupRow{}).Preload("Category")

	if opts.Search != "" {
		pat := "%" + likeEscaper.Replace(opts.Search) + "%"
		q = q.Where(`startups.name ILIKE ? ESCAPE '\' OR startups.tagline ILIKE ? ESCAPE '\'`, pat, pat)
	}
	if opts.Category != "" {
		q = q.Where("startups.category_id = (SELECT id FROM categories WHERE slug = ?)", opts.Category)
	}

	switch opts.Sort {
	case SortMostVoted:
		q = q.Select("startups.*, COUNT(votes.id) AS vote_count").
			Joins("LEFT JOIN votes ON votes.startup_id = startups.id").
			Group("startups.id").
			Order("vote_count DESC").
			Order("startups.created_at DESC")
	case SortName:
		q = q.Order("startups.name ASC")
	case SortNewest, "":
		q = q.Order("startups.created_at DESC")
	default:
		r.log.Warnf("unknown sort %q, using %s", opts.Sort, SortNewest)
		q = q.Order("startups.created_at DESC")
	}

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	var rows []startupRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list startups: %w", err)
	}
	out := make([]models.Startup, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r *PostgresRepository) Categories(ctx context.Context) ([]models.Category, error) {
	var rows []categoryRow
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]models.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r *PostgresRepository) PostBySlug(ctx context.Context, slug string) (models.BlogPost, error) {
	var row postRow
	err := r.DB.WithContext(ctx).
		Preload("Author").
		Where("slug = ? AND published = ?", slug, true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.BlogPost{}, ErrNotFound
	}
	if err != nil {
		return models.BlogPost{}, fmt.Errorf("post %q: %w", slug, err)
	}
	return row.model(), nil
}

// ListPosts returns published posts, newest first. limit 0 means all.
func (r *PostgresRepository) ListPosts(ctx context.Context, limit int) ([]models.BlogPost, error) {
	q := r.DB.WithContext(ctx).
		Preload("Author").
		Where("published = ?", true).
		Order("published_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []postRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	out := make([]models.BlogPost, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}
