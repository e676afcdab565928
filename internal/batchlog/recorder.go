package batchlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rss_ingestor/internal/domain"
)

// Outcome records must land even when the batch deadline has already
// expired, so writes run on a detached context with their own deadline.
const writeTimeout = 5 * time.Second

// Store persists batch log entries.
type Store interface {
	Insert(ctx context.Context, entry domain.BatchLog) error
}

// Recorder writes the pipeline's append-only execution records. Recording
// never fails the caller; persistence errors are logged and dropped.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.With("component", "batchlog"),
	}
}

func (r *Recorder) FeedRunSucceeded(ctx context.Context, feed domain.Feed, stats domain.FeedRunStats) {
	r.record(ctx, domain.BatchLog{
		JobType:       domain.JobTypeRSSIngest,
		Level:         domain.LogLevelInfo,
		Status:        domain.BatchStatusSuccess,
		AffectedCount: stats.Created,
		Detail: domain.Detail{
			"feed_id":     feed.ID,
			"feed_url":    feed.URL,
			"parsed":      stats.Parsed,
			"skipped":     stats.Skipped,
			"created":     stats.Created,
			"duplicates":  stats.Duplicates,
			"tagged":      stats.Tagged,
			"published":   stats.Published,
			"duration_ms": stats.Duration.Milliseconds(),
		},
	})
}

// FeedRunFailed records a feed run that produced no result. A deadline hit
// is recorded as TIMEOUT, everything else as FAILED.
func (r *Recorder) FeedRunFailed(ctx context.Context, feed domain.Feed, err error) {
	status := domain.BatchStatusFailed
	if errors.Is(err, context.DeadlineExceeded) {
		status = domain.BatchStatusTimeout
	}
	msg := err.Error()

	r.record(ctx, domain.BatchLog{
		JobType: domain.JobTypeRSSIngest,
		Level:   domain.LogLevelError,
		Status:  status,
		Detail: domain.Detail{
			"feed_id":  feed.ID,
			"feed_url": feed.URL,
		},
		ErrorMessage: &msg,
	})
}

func (r *Recorder) FetchAttemptFailed(ctx context.Context, feed domain.Feed, attempt int, err error) {
	msg := err.Error()

	r.record(ctx, domain.BatchLog{
		JobType: domain.JobTypeRSSIngest,
		Level:   domain.LogLevelWarn,
		Status:  domain.BatchStatusFailed,
		Detail: domain.Detail{
			"feed_id":  feed.ID,
			"feed_url": feed.URL,
			"attempt":  attempt,
		},
		ErrorMessage: &msg,
	})
}

func (r *Recorder) FetchRecovered(ctx context.Context, feed domain.Feed, attempts int) {
	r.record(ctx, domain.BatchLog{
		JobType: domain.JobTypeRSSIngest,
		Level:   domain.LogLevelInfo,
		Status:  domain.BatchStatusSuccess,
		Detail: domain.Detail{
			"feed_id":  feed.ID,
			"feed_url": feed.URL,
			"attempts": attempts,
		},
	})
}

func (r *Recorder) BatchCompleted(ctx context.Context, status domain.BatchStatus, stats domain.BatchStats) {
	entry := domain.BatchLog{
		JobType:       domain.JobTypeRSSIngestBatch,
		Level:         domain.LogLevelInfo,
		Status:        status,
		AffectedCount: stats.Created,
		Detail: domain.Detail{
			"success_count": stats.Succeeded,
			"fail_count":    stats.Failed,
			"total_count":   stats.Feeds,
			"created":       stats.Created,
			"duplicates":    stats.Duplicates,
			"tagged":        stats.Tagged,
			"published":     stats.Published,
			"duration_ms":   stats.Duration.Milliseconds(),
		},
	}

	if status != domain.BatchStatusSuccess {
		entry.Level = domain.LogLevelError
		msg := fmt.Sprintf("%d of %d feeds failed", stats.Failed, stats.Feeds)
		entry.ErrorMessage = &msg
	}

	r.record(ctx, entry)
}

func (r *Recorder) record(ctx context.Context, entry domain.BatchLog) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := r.store.Insert(ctx, entry); err != nil {
		r.logger.Error("failed to record batch log",
			"job_type", entry.JobType,
			"status", entry.Status,
			"error", err,
		)
	}
}
