package feedparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLink(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases host and strips default https port",
			in:   "HTTPS://Example.COM:443/Posts/1",
			want: "https://example.com/Posts/1",
		},
		{
			name: "strips default http port",
			in:   "http://example.com:80/a",
			want: "http://example.com/a",
		},
		{
			name: "keeps non-default port",
			in:   "http://example.com:8080/a",
			want: "http://example.com:8080/a",
		},
		{
			name: "drops fragment",
			in:   "https://example.com/a#section-2",
			want: "https://example.com/a",
		},
		{
			name: "strips utm and click identifiers",
			in:   "https://example.com/a?utm_source=rss&utm_medium=feed&fbclid=xyz&id=42",
			want: "https://example.com/a?id=42",
		},
		{
			name: "drops query entirely when only tracking params remain",
			in:   "https://example.com/a?utm_campaign=launch&gclid=123",
			want: "https://example.com/a",
		},
		{
			name: "strips bare utm",
			in:   "https://x.com/a?utm=1",
			want: "https://x.com/a",
		},
		{
			name: "sorts surviving query params",
			in:   "https://example.com/a?z=1&a=2&m=3",
			want: "https://example.com/a?a=2&m=3&z=1",
		},
		{
			name: "adds root path when empty",
			in:   "https://example.com",
			want: "https://example.com/",
		},
		{
			name: "trims surrounding whitespace",
			in:   "  https://example.com/a \n",
			want: "https://example.com/a",
		},
		{
			name: "preserves path case",
			in:   "https://example.com/Posts/Go-125",
			want: "https://example.com/Posts/Go-125",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeLink(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeLinkRejectsUnusableLinks(t *testing.T) {
	for _, in := range []string{
		"",
		"not a url",
		"ftp://example.com/feed",
		"mailto:dev@example.com",
		"https://",
		"/relative/path",
	} {
		_, err := NormalizeLink(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestLinkHash(t *testing.T) {
	hash := LinkHash("https://example.com/posts/go-125")

	assert.Equal(t, "0dce870965158a234cdb48e3ebc09b5ec166a1a31aca63b24baebf02df14cd1e", hash)
	assert.Len(t, hash, 64)
}

func TestNormalizedVariantsHashIdentically(t *testing.T) {
	first, err := NormalizeLink("HTTPS://Example.COM/posts/go-125?utm_source=rss")
	require.NoError(t, err)
	second, err := NormalizeLink("https://example.com:443/posts/go-125#comments")
	require.NoError(t, err)

	assert.Equal(t, LinkHash(first), LinkHash(second))
}

func TestDecoratedAndBareLinksHashIdentically(t *testing.T) {
	decorated, err := NormalizeLink("https://x.com/a?utm=1")
	require.NoError(t, err)
	bare, err := NormalizeLink("https://x.com/a")
	require.NoError(t, err)

	assert.Equal(t, "https://x.com/a", decorated)
	assert.Equal(t, LinkHash(bare), LinkHash(decorated))
}
