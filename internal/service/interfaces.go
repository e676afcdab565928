package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"rss_ingestor/internal/domain"
	"rss_ingestor/internal/feedparser"
)

type FeedStore interface {
	ListActive(ctx context.Context, region *domain.Region) ([]domain.Feed, error)
	MarkCrawled(ctx context.Context, feedID int64, crawledAt time.Time) error
}

type PostStore interface {
	Insert(ctx context.Context, feedID int64, candidate domain.CandidatePost) (*domain.Post, bool, error)
}

type KeywordStore interface {
	ListActive(ctx context.Context) ([]domain.Keyword, error)
	LinkToPost(ctx context.Context, postID int64, keywordIDs []int64) error
}

type Fetcher interface {
	Fetch(ctx context.Context, feed domain.Feed) ([]byte, error)
}

type Parser interface {
	Parse(feed domain.Feed, data []byte) (feedparser.Result, error)
}

type Tagger interface {
	Match(candidate domain.CandidatePost, keywords []domain.Keyword) []int64
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, post *domain.Post) error
	Close() error
}

type BatchRecorder interface {
	FeedRunSucceeded(ctx context.Context, feed domain.Feed, stats domain.FeedRunStats)
	FeedRunFailed(ctx context.Context, feed domain.Feed, err error)
	BatchCompleted(ctx context.Context, status domain.BatchStatus, stats domain.BatchStats)
}
