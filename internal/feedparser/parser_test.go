package feedparser

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rss_ingestor/internal/domain"
)

const rssSample = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
  <title>Example Tech</title>
  <link>https://example.com</link>
  <item>
    <title>Go 1.25 Released</title>
    <link>HTTPS://Example.COM/posts/go-125?utm_source=rss</link>
    <pubDate>Mon, 18 Aug 2025 09:30:00 GMT</pubDate>
    <content:encoded><![CDATA[<p>The Go team <b>announced</b> the release.</p>]]></content:encoded>
  </item>
  <item>
    <title></title>
    <link>https://example.com/posts/untitled</link>
  </item>
  <item>
    <title>No Link Here</title>
  </item>
</channel>
</rss>`

const atomSample = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Global Dev</title>
  <id>urn:example:global-dev</id>
  <entry>
    <title>Rust in the Kernel</title>
    <id>urn:example:rust-kernel</id>
    <link href="https://example.org/rust-kernel#ref"/>
    <updated>2025-08-19T10:00:00Z</updated>
    <summary>Progress report from the maintainers.</summary>
  </entry>
</feed>`

func newTestParser() *Parser {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParseRSS(t *testing.T) {
	feed := domain.Feed{ID: 1, Region: domain.RegionGlobal}

	result, err := newTestParser().Parse(feed, []byte(rssSample))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Candidates, 1)

	candidate := result.Candidates[0]
	assert.Equal(t, "Go 1.25 Released", candidate.Title)
	assert.Equal(t, "https://example.com/posts/go-125", candidate.Link)
	assert.Equal(t, LinkHash("https://example.com/posts/go-125"), candidate.LinkHash)
	assert.Equal(t, domain.RegionGlobal, candidate.Region)
	assert.True(t, candidate.PublishedAt.Equal(time.Date(2025, 8, 18, 9, 30, 0, 0, time.UTC)))
	require.NotNil(t, candidate.Content)
	assert.Equal(t, "The Go team announced the release.", *candidate.Content)
}

func TestParseAtomFallsBackToUpdated(t *testing.T) {
	feed := domain.Feed{ID: 2, Region: domain.RegionDomestic}

	result, err := newTestParser().Parse(feed, []byte(atomSample))
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)

	candidate := result.Candidates[0]
	assert.Equal(t, "Rust in the Kernel", candidate.Title)
	assert.Equal(t, "https://example.org/rust-kernel", candidate.Link)
	assert.Equal(t, domain.RegionDomestic, candidate.Region)
	assert.True(t, candidate.PublishedAt.Equal(time.Date(2025, 8, 19, 10, 0, 0, 0, time.UTC)))
	require.NotNil(t, candidate.Content)
	assert.Equal(t, "Progress report from the maintainers.", *candidate.Content)
}

func TestParseFallsBackToIngestTime(t *testing.T) {
	const sample = `<?xml version="1.0"?>
<rss version="2.0">
<channel>
  <title>Undated</title>
  <item>
    <title>Entry Without Dates</title>
    <link>https://example.com/undated</link>
  </item>
</channel>
</rss>`

	fixed := time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC)
	parser := newTestParser()
	parser.now = func() time.Time { return fixed }

	result, err := parser.Parse(domain.Feed{ID: 3, Region: domain.RegionGlobal}, []byte(sample))
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.True(t, result.Candidates[0].PublishedAt.Equal(fixed))
	assert.Nil(t, result.Candidates[0].Content)
}

func TestParseUnrecognizedDocument(t *testing.T) {
	_, err := newTestParser().Parse(domain.Feed{ID: 4}, []byte("definitely not a feed"))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoEntries)
}

func TestParseNoUsableEntries(t *testing.T) {
	const sample = `<?xml version="1.0"?>
<rss version="2.0">
<channel>
  <title>All Broken</title>
  <item><title></title></item>
  <item><link>ftp://example.com/feed</link><title>Bad Scheme</title></item>
</channel>
</rss>`

	result, err := newTestParser().Parse(domain.Feed{ID: 5}, []byte(sample))

	require.ErrorIs(t, err, ErrNoEntries)
	assert.Empty(t, result.Candidates)
	assert.Equal(t, 2, result.Skipped)
}

func TestParseEmptyChannel(t *testing.T) {
	const sample = `<?xml version="1.0"?>
<rss version="2.0">
<channel>
  <title>Quiet Feed</title>
</channel>
</rss>`

	result, err := newTestParser().Parse(domain.Feed{ID: 6}, []byte(sample))

	require.ErrorIs(t, err, ErrNoEntries)
	assert.Empty(t, result.Candidates)
	assert.Zero(t, result.Skipped)
}
