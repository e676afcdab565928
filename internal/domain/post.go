package domain

import "time"

// CandidatePost is a feed entry after parsing and normalization, ready for the
// duplicate check. Link is already canonicalized and LinkHash derived from it.
type CandidatePost struct {
	Title       string
	Link        string
	LinkHash    string
	Content     *string
	Region      Region
	PublishedAt time.Time
}

// Post is a stored article. Summary is never written by the ingestion
// pipeline; the summarization batch fills it in later.
type Post struct {
	ID          int64      `db:"post_id"`
	FeedID      int64      `db:"feed_id"`
	Region      Region     `db:"region"`
	Title       string     `db:"title"`
	Link        string     `db:"link"`
	LinkHash    string     `db:"link_hash"`
	Content     *string    `db:"content"`
	Summary     *string    `db:"summary"`
	PublishedAt time.Time  `db:"published_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}
