package batchlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rss_ingestor/internal/domain"
)

type captureStore struct {
	mu      sync.Mutex
	entries []domain.BatchLog
	ctxErrs []error
	err     error
}

func (s *captureStore) Insert(ctx context.Context, entry domain.BatchLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	return s.err
}

func (s *captureStore) last(t *testing.T) domain.BatchLog {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.entries)
	return s.entries[len(s.entries)-1]
}

func newTestRecorder(store Store) *Recorder {
	return NewRecorder(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testFeed() domain.Feed {
	return domain.Feed{ID: 42, URL: "https://example.com/feed", Region: domain.RegionGlobal}
}

func TestFeedRunSucceeded(t *testing.T) {
	store := &captureStore{}
	newTestRecorder(store).FeedRunSucceeded(context.Background(), testFeed(), domain.FeedRunStats{
		Parsed:     10,
		Skipped:    1,
		Created:    6,
		Duplicates: 4,
		Tagged:     9,
		Published:  6,
		Duration:   1500 * time.Millisecond,
	})

	entry := store.last(t)
	assert.Equal(t, domain.JobTypeRSSIngest, entry.JobType)
	assert.Equal(t, domain.LogLevelInfo, entry.Level)
	assert.Equal(t, domain.BatchStatusSuccess, entry.Status)
	assert.Equal(t, 6, entry.AffectedCount)
	assert.Nil(t, entry.ErrorMessage)
	assert.Equal(t, int64(42), entry.Detail["feed_id"])
	assert.Equal(t, "https://example.com/feed", entry.Detail["feed_url"])
	assert.Equal(t, 6, entry.Detail["created"])
	assert.Equal(t, 4, entry.Detail["duplicates"])
	assert.Equal(t, int64(1500), entry.Detail["duration_ms"])
}

func TestFeedRunFailed(t *testing.T) {
	store := &captureStore{}
	newTestRecorder(store).FeedRunFailed(context.Background(), testFeed(), errors.New("fetch exploded"))

	entry := store.last(t)
	assert.Equal(t, domain.LogLevelError, entry.Level)
	assert.Equal(t, domain.BatchStatusFailed, entry.Status)
	require.NotNil(t, entry.ErrorMessage)
	assert.Equal(t, "fetch exploded", *entry.ErrorMessage)
}

func TestFeedRunFailedDeadlineBecomesTimeout(t *testing.T) {
	store := &captureStore{}
	err := fmt.Errorf("processing feed: %w", context.DeadlineExceeded)
	newTestRecorder(store).FeedRunFailed(context.Background(), testFeed(), err)

	entry := store.last(t)
	assert.Equal(t, domain.BatchStatusTimeout, entry.Status)
	assert.Equal(t, domain.LogLevelError, entry.Level)
}

func TestFetchAttemptFailed(t *testing.T) {
	store := &captureStore{}
	newTestRecorder(store).FetchAttemptFailed(context.Background(), testFeed(), 2, errors.New("status 503"))

	entry := store.last(t)
	assert.Equal(t, domain.LogLevelWarn, entry.Level)
	assert.Equal(t, domain.BatchStatusFailed, entry.Status)
	assert.Equal(t, 2, entry.Detail["attempt"])
	require.NotNil(t, entry.ErrorMessage)
	assert.Equal(t, "status 503", *entry.ErrorMessage)
}

func TestFetchRecovered(t *testing.T) {
	store := &captureStore{}
	newTestRecorder(store).FetchRecovered(context.Background(), testFeed(), 3)

	entry := store.last(t)
	assert.Equal(t, domain.LogLevelInfo, entry.Level)
	assert.Equal(t, domain.BatchStatusSuccess, entry.Status)
	assert.Equal(t, 3, entry.Detail["attempts"])
	assert.Nil(t, entry.ErrorMessage)
}

func TestBatchCompletedSuccess(t *testing.T) {
	store := &captureStore{}
	newTestRecorder(store).BatchCompleted(context.Background(), domain.BatchStatusSuccess, domain.BatchStats{
		Feeds:     10,
		Succeeded: 9,
		Failed:    1,
		Created:   37,
	})

	entry := store.last(t)
	assert.Equal(t, domain.JobTypeRSSIngestBatch, entry.JobType)
	assert.Equal(t, domain.LogLevelInfo, entry.Level)
	assert.Equal(t, 37, entry.AffectedCount)
	assert.Equal(t, 9, entry.Detail["success_count"])
	assert.Equal(t, 1, entry.Detail["fail_count"])
	assert.Equal(t, 10, entry.Detail["total_count"])
	assert.Nil(t, entry.ErrorMessage)
}

func TestBatchCompletedFailed(t *testing.T) {
	store := &captureStore{}
	newTestRecorder(store).BatchCompleted(context.Background(), domain.BatchStatusFailed, domain.BatchStats{
		Feeds:     10,
		Succeeded: 4,
		Failed:    6,
	})

	entry := store.last(t)
	assert.Equal(t, domain.LogLevelError, entry.Level)
	assert.Equal(t, domain.BatchStatusFailed, entry.Status)
	require.NotNil(t, entry.ErrorMessage)
	assert.Equal(t, "6 of 10 feeds failed", *entry.ErrorMessage)
}

func TestRecordSurvivesExpiredContext(t *testing.T) {
	store := &captureStore{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	newTestRecorder(store).FeedRunFailed(ctx, testFeed(), errors.New("deadline work"))

	require.Len(t, store.entries, 1)
	assert.NoError(t, store.ctxErrs[0], "store must see a live context")
}

func TestRecordSwallowsStoreErrors(t *testing.T) {
	store := &captureStore{err: errors.New("connection refused")}

	assert.NotPanics(t, func() {
		newTestRecorder(store).FeedRunSucceeded(context.Background(), testFeed(), domain.FeedRunStats{})
	})
	assert.Len(t, store.entries, 1)
}
