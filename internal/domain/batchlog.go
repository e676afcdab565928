package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type LogLevel string

const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

type BatchStatus string

const (
	BatchStatusSuccess BatchStatus = "SUCCESS"
	BatchStatusFailed  BatchStatus = "FAILED"
	BatchStatusTimeout BatchStatus = "TIMEOUT"
)

// Job types recorded by the ingestion pipeline. Other batches (summarization,
// cleanup) write their own types into the same table.
const (
	JobTypeRSSIngest      = "RSS_INGEST"
	JobTypeRSSIngestBatch = "RSS_INGEST_BATCH"
)

// Detail is the free-form JSON payload of a batch log entry. It round-trips
// through a jsonb column.
type Detail map[string]any

func (d Detail) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

func (d *Detail) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("scan detail: unsupported type %T", src)
	}
}

// BatchLog is one append-only execution record. Entries are never updated or
// deleted by the pipeline.
type BatchLog struct {
	ID            int64       `db:"batch_log_id"`
	JobType       string      `db:"job_type"`
	Level         LogLevel    `db:"log_level"`
	Status        BatchStatus `db:"status"`
	AffectedCount int         `db:"affected_count"`
	Detail        Detail      `db:"detail"`
	ErrorMessage  *string     `db:"error_message"`
	ExecutedAt    time.Time   `db:"executed_at"`
}
