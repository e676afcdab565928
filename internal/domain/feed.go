package domain

import "time"

// Region partitions feeds and posts into the two catalogs the platform serves.
type Region string

const (
	RegionDomestic Region = "DOMESTIC"
	RegionGlobal   Region = "GLOBAL"
)

// Valid reports whether r is one of the known regions.
func (r Region) Valid() bool {
	return r == RegionDomestic || r == RegionGlobal
}

// Feed is a registered RSS/Atom source. The pipeline only ever reads feeds and
// stamps last_crawled_at; activation and removal happen elsewhere.
type Feed struct {
	ID            int64      `db:"feed_id"`
	Region        Region     `db:"region"`
	URL           string     `db:"url"`
	Active        bool       `db:"is_active"`
	LastCrawledAt *time.Time `db:"last_crawled_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}
