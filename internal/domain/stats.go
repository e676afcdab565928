package domain

import "time"

// FeedRunStats holds counters for a single feed's ingestion run.
type FeedRunStats struct {
	Parsed     int // entries that became candidates
	Skipped    int // malformed entries dropped by the parser
	Created    int
	Duplicates int
	Tagged     int // keyword links written for created posts
	Published  int
	Duration   time.Duration
}

// BatchStats aggregates one pipeline batch across all dispatched feeds.
type BatchStats struct {
	Feeds      int
	Succeeded  int
	Failed     int
	Created    int
	Duplicates int
	Tagged     int
	Published  int
	Duration   time.Duration
}

// FailureRate returns the failed fraction of the batch, 0 for an empty batch.
func (s BatchStats) FailureRate() float64 {
	if s.Feeds == 0 {
		return 0
	}
	return float64(s.Failed) / float64(s.Feeds)
}
