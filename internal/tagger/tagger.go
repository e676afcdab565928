package tagger

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"rss_ingestor/internal/domain"
)

// Tagger matches curated keywords against candidate posts. Matching is
// case-insensitive on NFC-normalized text. English names must sit on word
// boundaries so "go" does not fire inside "google"; Korean names match as
// substrings because Korean compounds are written without spaces.
type Tagger struct{}

func New() *Tagger {
	return &Tagger{}
}

// Match returns the IDs of keywords found in the candidate's title or
// content. Inactive and soft-deleted keywords never match, whatever the
// caller passes in.
func (t *Tagger) Match(candidate domain.CandidatePost, keywords []domain.Keyword) []int64 {
	text := candidate.Title
	if candidate.Content != nil {
		text += " " + *candidate.Content
	}
	normalized := normalize(text)

	var ids []int64
	for _, keyword := range keywords {
		if !keyword.Active || keyword.DeletedAt != nil {
			continue
		}
		if matchesKeyword(normalized, keyword) {
			ids = append(ids, keyword.ID)
		}
	}
	return ids
}

func matchesKeyword(text string, keyword domain.Keyword) bool {
	if en := normalize(keyword.EnName); en != "" && containsWord(text, en) {
		return true
	}
	if ko := normalize(keyword.KoName); ko != "" && strings.Contains(text, ko) {
		return true
	}
	return false
}

// normalize folds text to a single matching form: composed Unicode,
// collapsed whitespace, lower case.
func normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}

// containsWord reports whether needle occurs in text bounded by
// non-alphanumeric runes on both sides.
func containsWord(text, needle string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], needle)
		if idx < 0 {
			return false
		}
		idx += start
		if boundaryBefore(text, idx) && boundaryAfter(text, idx+len(needle)) {
			return true
		}
		start = idx + 1
	}
}

func boundaryBefore(text string, idx int) bool {
	if idx == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:idx])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(text string, idx int) bool {
	if idx >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[idx:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
