// Package usecase contains the orchestration pipeline: risk scoring,
// completeness reconciliation, fact-checking and the run orchestrator.
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
	"github.com/trueinf/Repushieldv7-sub000/internal/ports"
)

const (
	// DefaultScoringBatchSize is the deliberate backpressure bound on
	// concurrent classifier calls. Tunable, never unlimited.
	DefaultScoringBatchSize = 10

	// DefaultBacklogLimit caps how many unscored mentions one run picks up.
	DefaultBacklogLimit = 200
)

// RiskScoringStage classifies unscored mentions in concurrency-limited
// batches and persists the derived analysis fields.
type RiskScoringStage struct {
	store      ports.MentionStore
	classifier ports.Classifier
	grouper    ports.Grouper
	batchSize  int
	backlog    int
	logger     zerolog.Logger
	now        func() time.Time
}

// ScoringOption tweaks the stage at construction time.
type ScoringOption func(*RiskScoringStage)

// WithBatchSize overrides the concurrency batch size. Values below one keep
// the default; the bound is always finite.
func WithBatchSize(n int) ScoringOption {
	return func(s *RiskScoringStage) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithBacklogLimit overrides how many unscored mentions a backlog pass loads.
func WithBacklogLimit(n int) ScoringOption {
	return func(s *RiskScoringStage) {
		if n > 0 {
			s.backlog = n
		}
	}
}

// NewRiskScoringStage wires the scoring stage. grouper may be nil.
func NewRiskScoringStage(store ports.MentionStore, classifier ports.Classifier,
	grouper ports.Grouper, logger zerolog.Logger, opts ...ScoringOption) *RiskScoringStage {
	s := &RiskScoringStage{
		store:      store,
		classifier: classifier,
		grouper:    grouper,
		batchSize:  DefaultScoringBatchSize,
		backlog:    DefaultBacklogLimit,
		logger:     logger.With().Str("component", "risk_scoring").Logger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScoreBacklog classifies the configuration's most recent unscored mentions.
// A store failure is a stage-level error: recorded once, empty result.
func (s *RiskScoringStage) ScoreBacklog(ctx context.Context, cfg domain.Configuration) domain.AgentResult {
	var result domain.AgentResult

	mentions, err := s.store.Unscored(ctx, cfg.ID, s.backlog)
	if err != nil {
		result.AddError("load unscored backlog: %v", err)
		return result
	}

	return s.score(ctx, cfg, mentions)
}

// ScoreSpecific classifies exactly the given mention ids.
func (s *RiskScoringStage) ScoreSpecific(ctx context.Context, cfg domain.Configuration, ids []string) domain.AgentResult {
	var result domain.AgentResult
	if len(ids) == 0 {
		return result
	}

	mentions, err := s.store.ByIDs(ctx, ids)
	if err != nil {
		result.AddError("load mentions by id: %v", err)
		return result
	}

	return s.score(ctx, cfg, mentions)
}

// score processes mentions in fixed-size batches: items within a batch run
// concurrently, batches run sequentially. A single item's classifier failure
// is recorded without failing its batch-mates.
func (s *RiskScoringStage) score(ctx context.Context, cfg domain.Configuration, mentions []domain.Mention) domain.AgentResult {
	result := domain.AgentResult{Fetched: len(mentions)}
	if len(mentions) == 0 {
		return result
	}

	var mu sync.Mutex
	for start := 0; start < len(mentions); start += s.batchSize {
		end := start + s.batchSize
		if end > len(mentions) {
			end = len(mentions)
		}

		var wg sync.WaitGroup
		for _, mention := range mentions[start:end] {
			wg.Add(1)
			go func(m domain.Mention) {
				defer wg.Done()
				if err := s.scoreOne(ctx, cfg, m); err != nil {
					mu.Lock()
					result.AddError("score %s: %v", m.ID, err)
					mu.Unlock()
					return
				}
				mu.Lock()
				result.Stored++
				mu.Unlock()
			}(mention)
		}
		wg.Wait()
	}

	s.logger.Debug().
		Str("config_id", cfg.ID).
		Int("scored", result.Stored).
		Int("failed", len(result.Errors)).
		Msg("scoring pass finished")

	return result
}

func (s *RiskScoringStage) scoreOne(ctx context.Context, cfg domain.Configuration, m domain.Mention) error {
	raw, err := s.classifier.Classify(ctx, m.Content, cfg.EntityName)
	if err != nil {
		return err
	}

	analysis := raw.Normalize(s.now())
	if err := s.store.SaveAnalysis(ctx, m.ID, analysis); err != nil {
		return err
	}

	// Grouping is best-effort: a failure never fails the scoring stage.
	if s.grouper != nil {
		if err := s.grouper.Assign(ctx, m.ID, cfg.ID); err != nil {
			s.logger.Warn().Err(err).Str("mention_id", m.ID).Msg("grouping assignment failed")
		}
	}

	return nil
}
