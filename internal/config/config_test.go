package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rss_ingestor/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "s3cret")

	path := writeConfig(t, `
database:
  host: localhost
  port: 5432
  user: ingestor
  password: ${TEST_DB_PASSWORD}
  dbname: platform
  sslmode: disable
ingest:
  interval: 15m
  worker_count: 4
  region: DOMESTIC
  fetch:
    timeout: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t,
		"host=localhost port=5432 user=ingestor password=s3cret dbname=platform sslmode=disable",
		cfg.Database.DSN(),
	)
	assert.Equal(t, 15*time.Minute, cfg.Ingest.Interval)
	assert.Equal(t, 4, cfg.Ingest.WorkerCount)
	assert.Equal(t, domain.RegionDomestic, cfg.Ingest.Region)
	assert.Equal(t, 5*time.Second, cfg.Ingest.Fetch.Timeout)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Ingest.Interval)
	assert.Equal(t, 10*time.Minute, cfg.Ingest.BatchTimeout)
	assert.Equal(t, 8, cfg.Ingest.WorkerCount)
	assert.Equal(t, 0.5, cfg.Ingest.FailureThreshold)
	assert.Equal(t, 3, cfg.Ingest.Fetch.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Ingest.Fetch.InitialBackoff)
	assert.Equal(t, 30*time.Second, cfg.Ingest.Fetch.MaxBackoff)
	assert.Equal(t, "rss-ingestor/1.0", cfg.Ingest.UserAgent)
	assert.Equal(t, "rss_ingestor", cfg.RabbitMQ.Exchange)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Ingest.Region)
}

func TestLoadRejectsUnknownRegion(t *testing.T) {
	path := writeConfig(t, `
ingest:
  region: MARS
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown region")
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	path := writeConfig(t, `
ingest:
  failure_threshold: 1.5
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failure_threshold")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
