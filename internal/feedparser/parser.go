package feedparser

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"rss_ingestor/internal/domain"
)

// ErrNoEntries is returned when a document parses but yields no usable posts.
var ErrNoEntries = errors.New("feed contains no usable entries")

// Result carries the candidates of one document plus the number of entries
// dropped as malformed.
type Result struct {
	Candidates []domain.CandidatePost
	Skipped    int
}

// Parser turns RSS and Atom documents into candidate posts.
type Parser struct {
	parser *gofeed.Parser
	logger *slog.Logger
	now    func() time.Time
}

func New(logger *slog.Logger) *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
		logger: logger.With("component", "feedparser"),
		now:    time.Now,
	}
}

// Parse decodes a feed document and normalizes its entries. Malformed
// entries are skipped and counted; a document without a single usable entry
// returns ErrNoEntries.
func (p *Parser) Parse(feed domain.Feed, data []byte) (Result, error) {
	parsed, err := p.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("parse feed: %w", err)
	}

	result := Result{Candidates: make([]domain.CandidatePost, 0, len(parsed.Items))}

	for _, item := range parsed.Items {
		candidate, err := p.normalizeItem(feed, item)
		if err != nil {
			result.Skipped++
			p.logger.Warn("skipping entry",
				"feed_id", feed.ID,
				"title", item.Title,
				"error", err,
			)
			continue
		}
		result.Candidates = append(result.Candidates, candidate)
	}

	if len(result.Candidates) == 0 {
		return result, ErrNoEntries
	}

	return result, nil
}

func (p *Parser) normalizeItem(feed domain.Feed, item *gofeed.Item) (domain.CandidatePost, error) {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return domain.CandidatePost{}, errors.New("entry has no title")
	}

	link := item.Link
	if strings.TrimSpace(link) == "" && len(item.Links) > 0 {
		link = item.Links[0]
	}
	if strings.TrimSpace(link) == "" {
		return domain.CandidatePost{}, errors.New("entry has no link")
	}

	normalized, err := NormalizeLink(link)
	if err != nil {
		return domain.CandidatePost{}, err
	}

	candidate := domain.CandidatePost{
		Title:       title,
		Link:        normalized,
		LinkHash:    LinkHash(normalized),
		Region:      feed.Region,
		PublishedAt: p.publishedAt(item),
	}

	if content := extractText(item); content != "" {
		candidate.Content = &content
	}

	return candidate, nil
}

// publishedAt prefers the entry's publication time, falls back to its update
// time and finally to ingestion time so published_at is never empty.
func (p *Parser) publishedAt(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC()
	default:
		return p.now().UTC()
	}
}

// extractText flattens the entry body to plain text, preferring full content
// over the summary field.
func extractText(item *gofeed.Item) string {
	raw := strings.TrimSpace(item.Content)
	if raw == "" {
		raw = strings.TrimSpace(item.Description)
	}
	if raw == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}
