package domain

import "time"

// Keyword is a curated topic with an English and a Korean surface form.
// A soft-deleted keyword (DeletedAt set) keeps its historical post links but
// is excluded from tagging.
type Keyword struct {
	ID        int64      `db:"keyword_id"`
	EnName    string     `db:"en_name"`
	KoName    string     `db:"ko_name"`
	Active    bool       `db:"is_active"`
	CreatedAt time.Time  `db:"created_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}
