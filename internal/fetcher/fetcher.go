package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"rss_ingestor/internal/domain"
)

// Feeds occasionally misbehave and serve huge documents. Anything past this
// is not a feed we want.
const maxBodySize = 10 << 20

// Config holds HTTP behavior for feed downloads.
type Config struct {
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	UserAgent      string
}

// FetchError describes a failed feed download. StatusCode is zero when the
// request never produced an HTTP response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Transient reports whether a later attempt could plausibly succeed. Network
// failures, rate limiting and server errors are transient; any other HTTP
// status is treated as the feed's final answer.
func (e *FetchError) Transient() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// AttemptLogger receives per-attempt outcomes during a fetch so they can be
// recorded outside the fetcher.
type AttemptLogger interface {
	FetchAttemptFailed(ctx context.Context, feed domain.Feed, attempt int, err error)
	FetchRecovered(ctx context.Context, feed domain.Feed, attempts int)
}

// Client downloads feed documents with bounded retries on transient failures.
type Client struct {
	httpClient     *http.Client
	userAgent      string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	attempts       AttemptLogger
	logger         *slog.Logger
}

// New creates a fetch client. attempts may be nil when per-attempt records
// are not wanted.
func New(cfg Config, attempts AttemptLogger, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent:      cfg.UserAgent,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		attempts:       attempts,
		logger:         logger.With("component", "fetcher"),
	}
}

// Fetch downloads the feed document. Transient failures are retried with
// exponential backoff up to MaxAttempts; permanent failures return
// immediately.
func (c *Client) Fetch(ctx context.Context, feed domain.Feed) ([]byte, error) {
	var body []byte
	var err error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		body, err = c.doRequest(ctx, feed.URL)
		if err == nil {
			if attempt > 1 && c.attempts != nil {
				c.attempts.FetchRecovered(ctx, feed, attempt)
			}
			return body, nil
		}

		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) || !fetchErr.Transient() {
			return nil, err
		}

		if c.attempts != nil {
			c.attempts.FetchAttemptFailed(ctx, feed, attempt, err)
		}

		if attempt == c.maxAttempts {
			break
		}

		backoff := c.calculateBackoff(attempt)
		c.logger.Warn("fetch failed, retrying",
			"feed_id", feed.ID,
			"url", feed.URL,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", c.maxAttempts, err)
}

func (c *Client) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("fetch %s: response exceeds %d bytes", url, maxBodySize)
	}

	return body, nil
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}
