package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
	"github.com/trueinf/Repushieldv7-sub000/internal/ports"
)

// DefaultReconcilePageSize bounds how many incomplete mentions one
// reconciliation pass picks up.
const DefaultReconcilePageSize = 100

// CompletenessValidator finds mentions that came out of scoring without a
// risk score or topic list and re-drives the scoring stage for exactly that
// set. One retry pass, then a warning: best-effort, not guaranteed-complete.
type CompletenessValidator struct {
	store    ports.MentionStore
	scoring  *RiskScoringStage
	pageSize int
	logger   zerolog.Logger
}

// NewCompletenessValidator wires the validator.
func NewCompletenessValidator(store ports.MentionStore, scoring *RiskScoringStage,
	pageSize int, logger zerolog.Logger) *CompletenessValidator {
	if pageSize <= 0 {
		pageSize = DefaultReconcilePageSize
	}
	return &CompletenessValidator{
		store:    store,
		scoring:  scoring,
		pageSize: pageSize,
		logger:   logger.With().Str("component", "completeness").Logger(),
	}
}

// Reconcile retries scoring for incomplete mentions. Every failure here is
// non-fatal: logged, never raised to the orchestration run.
func (v *CompletenessValidator) Reconcile(ctx context.Context, cfg domain.Configuration) {
	incomplete, err := v.store.Incomplete(ctx, cfg.ID, v.pageSize)
	if err != nil {
		v.logger.Warn().Err(err).Str("config_id", cfg.ID).Msg("incomplete scan failed")
		return
	}
	if len(incomplete) == 0 {
		return
	}

	ids := make([]string, len(incomplete))
	for i, m := range incomplete {
		ids[i] = m.ID
	}

	v.logger.Info().Str("config_id", cfg.ID).Int("count", len(ids)).Msg("retrying incomplete mentions")
	retry := v.scoring.ScoreSpecific(ctx, cfg, ids)
	for _, msg := range retry.Errors {
		v.logger.Warn().Str("config_id", cfg.ID).Msg(msg)
	}

	remaining, err := v.store.Incomplete(ctx, cfg.ID, v.pageSize)
	if err != nil {
		v.logger.Warn().Err(err).Str("config_id", cfg.ID).Msg("post-retry scan failed")
		return
	}
	if len(remaining) > 0 {
		v.logger.Warn().
			Str("config_id", cfg.ID).
			Int("remaining", len(remaining)).
			Msg("mentions still incomplete after retry")
	}
}
