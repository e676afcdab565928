package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"rss_ingestor/internal/domain"
)

type KeywordStore struct {
	db *sqlx.DB
}

func NewKeywordStore(db *sqlx.DB) *KeywordStore {
	return &KeywordStore{db: db}
}

// ListActive returns keywords eligible for tagging. Soft-deleted keywords
// keep their existing post links but are never offered for new tagging.
func (s *KeywordStore) ListActive(ctx context.Context) ([]domain.Keyword, error) {
	query := `
		SELECT keyword_id, en_name, ko_name, is_active, created_at, deleted_at
		FROM keywords
		WHERE is_active = TRUE AND deleted_at IS NULL
		ORDER BY keyword_id`

	var keywords []domain.Keyword
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &keywords, query)
	return keywords, err
}

// LinkToPost writes post-keyword associations. The composite key absorbs
// replays, so tagging the same post twice is safe.
func (s *KeywordStore) LinkToPost(ctx context.Context, postID int64, keywordIDs []int64) error {
	if len(keywordIDs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO post_keywords (post_id, keyword_id) VALUES ")
	valueArgs := make([]interface{}, 0, len(keywordIDs)+1)
	valueArgs = append(valueArgs, postID)

	for i, keywordID := range keywordIDs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($1, $")
		sb.WriteString(itoa(i + 2))
		sb.WriteString(")")
		valueArgs = append(valueArgs, keywordID)
	}
	sb.WriteString(" ON CONFLICT DO NOTHING")

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, sb.String(), valueArgs...)
	return err
}

func (s *KeywordStore) GetByPostID(ctx context.Context, postID int64) ([]domain.Keyword, error) {
	query := `
		SELECT k.keyword_id, k.en_name, k.ko_name, k.is_active, k.created_at, k.deleted_at
		FROM keywords k
		INNER JOIN post_keywords pk ON pk.keyword_id = k.keyword_id
		WHERE pk.post_id = $1
		ORDER BY k.keyword_id`

	var keywords []domain.Keyword
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &keywords, query, postID)
	return keywords, err
}

func itoa(i int) string {
	if i < 10 {
		return string(rune('0' + i))
	}
	return itoa(i/10) + string(rune('0'+i%10))
}
