package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
	"github.com/trueinf/Repushieldv7-sub000/internal/ports"
)

// AuditRepository writes per-stage job-log rows.
type AuditRepository struct {
	pool *pgxpool.Pool
}

var _ ports.AuditStore = (*AuditRepository)(nil)

// NewAuditRepository wires a pgx connection pool.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// RecordStage appends one stage outcome to the job log.
func (r *AuditRepository) RecordStage(ctx context.Context, rec domain.StageRecord) error {
	query, args, err := builder.Insert("job_log").
		Columns("run_id", "config_id", "stage", "status", "fetched", "stored",
			"error_text", "started_at", "finished_at").
		Values(rec.RunID, rec.ConfigID, rec.Stage, string(rec.Status), rec.Fetched,
			rec.Stored, nullableText(rec.ErrorText), rec.StartedAt, rec.FinishedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build job-log insert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert job-log row: %w", err)
	}
	return nil
}

// RecentStages returns the latest stage rows for a configuration.
func (r *AuditRepository) RecentStages(ctx context.Context, configID string, limit int) ([]domain.StageRecord, error) {
	query, args, err := builder.Select("run_id", "config_id", "stage", "status",
		"fetched", "stored", "error_text", "started_at", "finished_at").
		From("job_log").
		Where(sq.Eq{"config_id": configID}).
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build job-log query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query job log: %w", err)
	}
	defer rows.Close()

	var out []domain.StageRecord
	for rows.Next() {
		var (
			rec       domain.StageRecord
			status    string
			errorText *string
		)
		if err := rows.Scan(&rec.RunID, &rec.ConfigID, &rec.Stage, &status,
			&rec.Fetched, &rec.Stored, &errorText, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan job-log row: %w", err)
		}
		rec.Status = domain.StageStatus(status)
		if errorText != nil {
			rec.ErrorText = *errorText
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job log: %w", err)
	}
	return out, nil
}

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
