package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"rss_ingestor/internal/domain"
)

type BatchLogStore struct {
	db *sqlx.DB
}

func NewBatchLogStore(db *sqlx.DB) *BatchLogStore {
	return &BatchLogStore{db: db}
}

// Insert appends one execution record. executed_at is stamped by the
// database.
func (s *BatchLogStore) Insert(ctx context.Context, entry domain.BatchLog) error {
	query := `
		INSERT INTO batch_logs (job_type, log_level, status, affected_count, detail, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		entry.JobType,
		entry.Level,
		entry.Status,
		entry.AffectedCount,
		entry.Detail,
		entry.ErrorMessage,
	)
	return err
}

// ListFilter narrows List results. Zero values leave the dimension
// unconstrained.
type ListFilter struct {
	JobType        string
	Status         domain.BatchStatus
	DetailContains domain.Detail
	Since          time.Time
	Limit          uint64
}

// List returns entries newest first. DetailContains uses jsonb containment,
// so dashboards can select on an embedded key such as feed_id.
func (s *BatchLogStore) List(ctx context.Context, filter ListFilter) ([]domain.BatchLog, error) {
	builder := sq.Select(
		"batch_log_id", "job_type", "log_level", "status",
		"affected_count", "detail", "error_message", "executed_at",
	).
		From("batch_logs").
		OrderBy("executed_at DESC", "batch_log_id DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.JobType != "" {
		builder = builder.Where(sq.Eq{"job_type": filter.JobType})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if len(filter.DetailContains) > 0 {
		builder = builder.Where(sq.Expr("detail @> ?::jsonb", filter.DetailContains))
	}
	if !filter.Since.IsZero() {
		builder = builder.Where(sq.GtOrEq{"executed_at": filter.Since})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var entries []domain.BatchLog
	err = sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &entries, query, args...)
	return entries, err
}
