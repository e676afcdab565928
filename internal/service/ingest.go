package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"rss_ingestor/internal/config"
	"rss_ingestor/internal/domain"
)

type IngestService struct {
	feeds     FeedStore
	posts     PostStore
	keywords  KeywordStore
	fetcher   Fetcher
	parser    Parser
	tagger    Tagger
	txManager TransactionManager
	publisher Publisher
	recorder  BatchRecorder
	logger    *slog.Logger
	config    config.IngestConfig
}

func NewIngestService(
	feeds FeedStore,
	posts PostStore,
	keywords KeywordStore,
	fetcher Fetcher,
	parser Parser,
	tagger Tagger,
	txManager TransactionManager,
	publisher Publisher,
	recorder BatchRecorder,
	logger *slog.Logger,
	cfg config.IngestConfig,
) *IngestService {
	return &IngestService{
		feeds:     feeds,
		posts:     posts,
		keywords:  keywords,
		fetcher:   fetcher,
		parser:    parser,
		tagger:    tagger,
		txManager: txManager,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger.With("component", "ingest"),
		config:    cfg,
	}
}

type feedResult struct {
	feed  domain.Feed
	stats domain.FeedRunStats
	err   error
}

// Ingest runs one batch: every active feed is fetched, parsed, deduplicated
// and tagged inside the batch deadline. A feed that fails is recorded and
// skipped; the batch itself only fails when listing feeds or keywords fails.
func (s *IngestService) Ingest(ctx context.Context) (*domain.BatchStats, error) {
	startTime := time.Now()

	batchCtx, cancel := context.WithTimeout(ctx, s.config.BatchTimeout)
	defer cancel()

	var region *domain.Region
	if s.config.Region != "" {
		region = &s.config.Region
	}

	feeds, err := s.feeds.ListActive(batchCtx, region)
	if err != nil {
		return nil, fmt.Errorf("list active feeds: %w", err)
	}

	s.logger.Info("starting ingest batch",
		"feeds", len(feeds),
		"workers", s.config.WorkerCount,
		"batch_timeout", s.config.BatchTimeout,
	)

	stats := &domain.BatchStats{Feeds: len(feeds)}
	if len(feeds) == 0 {
		stats.Duration = time.Since(startTime)
		s.recorder.BatchCompleted(batchCtx, domain.BatchStatusSuccess, *stats)
		return stats, nil
	}

	keywords, err := s.keywords.ListActive(batchCtx)
	if err != nil {
		return nil, fmt.Errorf("list active keywords: %w", err)
	}

	var timedOut bool
	for res := range s.processFeeds(batchCtx, feeds, keywords) {
		if res.err != nil {
			stats.Failed++
			if errors.Is(res.err, context.DeadlineExceeded) {
				timedOut = true
			}
			s.recorder.FeedRunFailed(batchCtx, res.feed, res.err)
			s.logger.Error("feed run failed",
				"feed_id", res.feed.ID,
				"feed_url", res.feed.URL,
				"error", res.err,
			)
			continue
		}

		stats.Succeeded++
		stats.Created += res.stats.Created
		stats.Duplicates += res.stats.Duplicates
		stats.Tagged += res.stats.Tagged
		stats.Published += res.stats.Published
		s.recorder.FeedRunSucceeded(batchCtx, res.feed, res.stats)
	}

	stats.Duration = time.Since(startTime)

	status := domain.BatchStatusSuccess
	switch {
	case stats.Failed > 0 && stats.FailureRate() >= s.config.FailureThreshold:
		status = domain.BatchStatusFailed
	case timedOut:
		status = domain.BatchStatusTimeout
	}

	s.recorder.BatchCompleted(batchCtx, status, *stats)

	s.logger.Info("ingest batch completed",
		"status", status,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"created", stats.Created,
		"duplicates", stats.Duplicates,
		"tagged", stats.Tagged,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return stats, nil
}

// processFeeds fans feeds out to a bounded worker pool and returns a channel
// that yields exactly one result per feed.
func (s *IngestService) processFeeds(ctx context.Context, feeds []domain.Feed, keywords []domain.Keyword) <-chan feedResult {
	workers := s.config.WorkerCount
	if workers > len(feeds) {
		workers = len(feeds)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan domain.Feed)
	results := make(chan feedResult, len(feeds))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for feed := range jobs {
				stats, err := s.processFeed(ctx, feed, keywords)
				results <- feedResult{feed: feed, stats: stats, err: err}
			}
		}()
	}

	go func() {
		defer close(results)

		for i, feed := range feeds {
			select {
			case jobs <- feed:
			case <-ctx.Done():
				// Feeds that were never dispatched still get a result so
				// every feed is accounted for in the batch log.
				for _, remaining := range feeds[i:] {
					results <- feedResult{feed: remaining, err: fmt.Errorf("batch deadline: %w", ctx.Err())}
				}
				close(jobs)
				wg.Wait()
				return
			}
		}
		close(jobs)
		wg.Wait()
	}()

	return results
}

func (s *IngestService) processFeed(ctx context.Context, feed domain.Feed, keywords []domain.Keyword) (domain.FeedRunStats, error) {
	startTime := time.Now()
	var stats domain.FeedRunStats

	body, err := s.fetcher.Fetch(ctx, feed)
	if err != nil {
		return stats, fmt.Errorf("fetch feed: %w", err)
	}

	result, err := s.parser.Parse(feed, body)
	if err != nil {
		return stats, fmt.Errorf("parse feed: %w", err)
	}
	stats.Parsed = len(result.Candidates)
	stats.Skipped = result.Skipped

	for i := range result.Candidates {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("batch deadline: %w", err)
		}

		post, tagged, err := s.storePost(ctx, feed.ID, result.Candidates[i], keywords)
		if err != nil {
			return stats, fmt.Errorf("store post: %w", err)
		}

		if post == nil {
			stats.Duplicates++
			continue
		}

		stats.Created++
		stats.Tagged += tagged

		if s.publisher != nil {
			// The post is already committed; a broker outage must not fail
			// the feed run.
			if err := s.publisher.Publish(ctx, post); err != nil {
				s.logger.Warn("publish post", "post_id", post.ID, "error", err)
			} else {
				stats.Published++
			}
		}
	}

	if err := s.feeds.MarkCrawled(ctx, feed.ID, time.Now().UTC()); err != nil {
		return stats, fmt.Errorf("mark crawled: %w", err)
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// storePost inserts the candidate and its keyword links in one transaction.
// A duplicate returns (nil, 0, nil) so the caller can count it without
// treating it as a failure.
func (s *IngestService) storePost(ctx context.Context, feedID int64, candidate domain.CandidatePost, keywords []domain.Keyword) (*domain.Post, int, error) {
	var (
		post   *domain.Post
		tagged int
	)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		inserted, ok, err := s.posts.Insert(txCtx, feedID, candidate)
		if err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		if !ok {
			return nil
		}

		keywordIDs := s.tagger.Match(candidate, keywords)
		if len(keywordIDs) > 0 {
			if err := s.keywords.LinkToPost(txCtx, inserted.ID, keywordIDs); err != nil {
				return fmt.Errorf("link keywords: %w", err)
			}
		}

		post = inserted
		tagged = len(keywordIDs)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return post, tagged, nil
}
