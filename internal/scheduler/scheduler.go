package scheduler

import (
	"context"
	"log/slog"
	"time"

	"rss_ingestor/internal/domain"
)

// Ingestor defines the interface for batch ingest operations.
type Ingestor interface {
	Ingest(ctx context.Context) (*domain.BatchStats, error)
}

type Scheduler struct {
	ingestor Ingestor
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(ingestor Ingestor, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		ingestor: ingestor,
		interval: interval,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runIngest(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runIngest(ctx)
		}
	}
}

// runIngest does not add its own timeout; the service applies the batch
// deadline from config to every run.
func (s *Scheduler) runIngest(ctx context.Context) {
	if _, err := s.ingestor.Ingest(ctx); err != nil {
		s.logger.Error("ingest failed", "error", err)
	}
}
