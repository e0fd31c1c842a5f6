// Package storage implements the Postgres repositories behind the
// pipeline's store ports.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
	"github.com/trueinf/Repushieldv7-sub000/internal/ports"
)

// ErrValidation marks a mention rejected before it reached the database.
var ErrValidation = errors.New("mention validation failed")

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var mentionColumns = []string{
	"id", "config_id", "platform", "post_id", "title", "content", "url",
	"author_handle", "author_name", "likes", "shares", "comments",
	"media_urls", "raw_payload", "published_at", "fetched_at",
	"sentiment", "risk_score", "topics", "keywords", "summary", "scored_at",
	"fact_check",
}

// MentionRepository persists mentions in Postgres.
type MentionRepository struct {
	pool *pgxpool.Pool
}

var _ ports.MentionStore = (*MentionRepository)(nil)

// NewMentionRepository wires a pgx connection pool.
func NewMentionRepository(pool *pgxpool.Pool) *MentionRepository {
	return &MentionRepository{pool: pool}
}

// Insert stores a new mention. Duplicates on the (platform, post_id)
// natural key are silently discarded via ON CONFLICT DO NOTHING: the
// uniqueness constraint itself is the dedup signal, so concurrent fetches
// of the same native post cannot produce two rows.
func (r *MentionRepository) Insert(ctx context.Context, m domain.Mention) (bool, error) {
	if strings.TrimSpace(string(m.Platform)) == "" ||
		strings.TrimSpace(m.PostID) == "" ||
		strings.TrimSpace(m.ConfigID) == "" {
		return false, fmt.Errorf("%w: platform, post id and config id are required", ErrValidation)
	}

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	published := m.PublishedAt
	if published.IsZero() {
		published = time.Now().UTC()
	}

	mediaURLs, err := json.Marshal(emptySlice(m.MediaURLs))
	if err != nil {
		return false, fmt.Errorf("marshal media urls: %w", err)
	}

	query, args, err := builder.Insert("mentions").
		Columns("id", "config_id", "platform", "post_id", "title", "content", "url",
			"author_handle", "author_name", "likes", "shares", "comments",
			"media_urls", "raw_payload", "published_at").
		Values(m.ID, m.ConfigID, string(m.Platform), m.PostID, m.Title, m.Content, m.URL,
			m.Author.Handle, m.Author.Name, m.Engagement.Likes, m.Engagement.Shares,
			m.Engagement.Comments, mediaURLs, rawOrNil(m.RawPayload), published).
		Suffix("ON CONFLICT (platform, post_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert mention: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Unscored returns the configuration's most recent mentions without a risk
// score.
func (r *MentionRepository) Unscored(ctx context.Context, configID string, limit int) ([]domain.Mention, error) {
	query, args, err := builder.Select(mentionColumns...).
		From("mentions").
		Where(sq.Eq{"config_id": configID}).
		Where("risk_score IS NULL").
		OrderBy("fetched_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build unscored query: %w", err)
	}
	return r.queryMentions(ctx, query, args...)
}

// Incomplete returns mentions missing a risk score or with an empty topic
// list, bounded to limit.
func (r *MentionRepository) Incomplete(ctx context.Context, configID string, limit int) ([]domain.Mention, error) {
	query, args, err := builder.Select(mentionColumns...).
		From("mentions").
		Where(sq.Eq{"config_id": configID}).
		Where("(risk_score IS NULL OR topics IS NULL OR topics = '[]'::jsonb)").
		OrderBy("fetched_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build incomplete query: %w", err)
	}
	return r.queryMentions(ctx, query, args...)
}

// ByIDs returns the mentions for an explicit id list.
func (r *MentionRepository) ByIDs(ctx context.Context, ids []string) ([]domain.Mention, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := builder.Select(mentionColumns...).
		From("mentions").
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build by-ids query: %w", err)
	}
	return r.queryMentions(ctx, query, args...)
}

// FactCheckCandidates returns mentions at or above minRisk that have not
// been fact-checked yet.
func (r *MentionRepository) FactCheckCandidates(ctx context.Context, configID string, minRisk float64) ([]domain.Mention, error) {
	query, args, err := builder.Select(mentionColumns...).
		From("mentions").
		Where(sq.Eq{"config_id": configID}).
		Where(sq.GtOrEq{"risk_score": minRisk}).
		Where("fact_check IS NULL").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build candidates query: %w", err)
	}
	return r.queryMentions(ctx, query, args...)
}

// SaveAnalysis writes all derived analysis fields in one update keyed by
// mention id.
func (r *MentionRepository) SaveAnalysis(ctx context.Context, mentionID string, a domain.Analysis) error {
	topics, err := json.Marshal(emptySlice(a.Topics))
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}
	keywords, err := json.Marshal(emptySlice(a.Keywords))
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}

	query, args, err := builder.Update("mentions").
		Set("sentiment", string(a.Sentiment)).
		Set("risk_score", a.RiskScore).
		Set("topics", topics).
		Set("keywords", keywords).
		Set("summary", a.Summary).
		Set("scored_at", a.ScoredAt).
		Where(sq.Eq{"id": mentionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build analysis update: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mention %s not found", mentionID)
	}
	return nil
}

// SaveFactCheck writes the combined evidence, verdict and draft object.
func (r *MentionRepository) SaveFactCheck(ctx context.Context, mentionID string, fc domain.FactCheck) error {
	payload, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal fact check: %w", err)
	}

	query, args, err := builder.Update("mentions").
		Set("fact_check", payload).
		Where(sq.Eq{"id": mentionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build fact-check update: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update fact check: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mention %s not found", mentionID)
	}
	return nil
}

func (r *MentionRepository) queryMentions(ctx context.Context, query string, args ...any) ([]domain.Mention, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query mentions: %w", err)
	}
	defer rows.Close()

	var out []domain.Mention
	for rows.Next() {
		m, err := scanMention(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mentions: %w", err)
	}
	return out, nil
}

func scanMention(row pgx.Row) (domain.Mention, error) {
	var (
		m         domain.Mention
		platform  string
		mediaRaw  []byte
		rawBytes  []byte
		sentiment *string
		riskScore *float64
		topicsRaw []byte
		kwRaw     []byte
		summary   *string
		scoredAt  *time.Time
		fcRaw     []byte
	)

	err := row.Scan(&m.ID, &m.ConfigID, &platform, &m.PostID, &m.Title, &m.Content, &m.URL,
		&m.Author.Handle, &m.Author.Name,
		&m.Engagement.Likes, &m.Engagement.Shares, &m.Engagement.Comments,
		&mediaRaw, &rawBytes, &m.PublishedAt, &m.FetchedAt,
		&sentiment, &riskScore, &topicsRaw, &kwRaw, &summary, &scoredAt,
		&fcRaw)
	if err != nil {
		return domain.Mention{}, fmt.Errorf("scan mention: %w", err)
	}

	m.Platform = domain.Platform(platform)
	m.RawPayload = rawBytes

	if len(mediaRaw) > 0 {
		if err := json.Unmarshal(mediaRaw, &m.MediaURLs); err != nil {
			return domain.Mention{}, fmt.Errorf("unmarshal media urls: %w", err)
		}
	}

	if riskScore != nil {
		analysis := domain.Analysis{RiskScore: *riskScore}
		if sentiment != nil {
			analysis.Sentiment = domain.Sentiment(*sentiment)
		}
		if summary != nil {
			analysis.Summary = *summary
		}
		if scoredAt != nil {
			analysis.ScoredAt = *scoredAt
		}
		if len(topicsRaw) > 0 {
			if err := json.Unmarshal(topicsRaw, &analysis.Topics); err != nil {
				return domain.Mention{}, fmt.Errorf("unmarshal topics: %w", err)
			}
		}
		if len(kwRaw) > 0 {
			if err := json.Unmarshal(kwRaw, &analysis.Keywords); err != nil {
				return domain.Mention{}, fmt.Errorf("unmarshal keywords: %w", err)
			}
		}
		m.Analysis = &analysis
	}

	if len(fcRaw) > 0 {
		var fc domain.FactCheck
		if err := json.Unmarshal(fcRaw, &fc); err != nil {
			return domain.Mention{}, fmt.Errorf("unmarshal fact check: %w", err)
		}
		m.FactCheck = &fc
	}

	return m, nil
}

func emptySlice(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func rawOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
