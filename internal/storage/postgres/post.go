package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"rss_ingestor/internal/domain"
)

type PostStore struct {
	db *sqlx.DB
}

func NewPostStore(db *sqlx.DB) *PostStore {
	return &PostStore{db: db}
}

// Insert stores a candidate post unless its link_hash is already claimed.
// The unique constraint arbitrates concurrent writers: one insert wins, the
// rest observe inserted=false without an error.
func (s *PostStore) Insert(ctx context.Context, feedID int64, candidate domain.CandidatePost) (*domain.Post, bool, error) {
	query := `
		INSERT INTO posts (feed_id, region, title, link, link_hash, content, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (link_hash) DO NOTHING
		RETURNING post_id, created_at, updated_at`

	post := &domain.Post{
		FeedID:      feedID,
		Region:      candidate.Region,
		Title:       candidate.Title,
		Link:        candidate.Link,
		LinkHash:    candidate.LinkHash,
		Content:     candidate.Content,
		PublishedAt: candidate.PublishedAt,
	}

	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		feedID,
		candidate.Region,
		candidate.Title,
		candidate.Link,
		candidate.LinkHash,
		candidate.Content,
		candidate.PublishedAt,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return post, true, nil
}

func (s *PostStore) GetByLinkHash(ctx context.Context, linkHash string) (*domain.Post, error) {
	query := `
		SELECT post_id, feed_id, region, title, link, link_hash,
		       content, summary, published_at, created_at, updated_at
		FROM posts
		WHERE link_hash = $1`

	var post domain.Post
	if err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &post, query, linkHash); err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *PostStore) CountByFeedID(ctx context.Context, feedID int64) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count,
		"SELECT COUNT(*) FROM posts WHERE feed_id = $1", feedID)
	return count, err
}
