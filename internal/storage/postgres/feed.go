package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"rss_ingestor/internal/domain"
)

type FeedStore struct {
	db *sqlx.DB
}

func NewFeedStore(db *sqlx.DB) *FeedStore {
	return &FeedStore{db: db}
}

// ListActive returns feeds eligible for crawling, optionally narrowed to a
// single region.
func (s *FeedStore) ListActive(ctx context.Context, region *domain.Region) ([]domain.Feed, error) {
	builder := sq.Select(
		"feed_id", "region", "url", "is_active",
		"last_crawled_at", "created_at", "updated_at",
	).
		From("rss_feeds").
		Where(sq.Eq{"is_active": true}).
		OrderBy("feed_id").
		PlaceholderFormat(sq.Dollar)

	if region != nil {
		builder = builder.Where(sq.Eq{"region": *region})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var feeds []domain.Feed
	err = sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &feeds, query, args...)
	return feeds, err
}

// MarkCrawled stamps a completed feed run. Both columns take the caller's
// timestamp.
func (s *FeedStore) MarkCrawled(ctx context.Context, feedID int64, crawledAt time.Time) error {
	query := `
		UPDATE rss_feeds
		SET last_crawled_at = $2, updated_at = $2
		WHERE feed_id = $1`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, feedID, crawledAt)
	return err
}
