package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
	"github.com/trueinf/Repushieldv7-sub000/internal/filter"
	"github.com/trueinf/Repushieldv7-sub000/internal/metrics"
	"github.com/trueinf/Repushieldv7-sub000/internal/ports"
	"github.com/trueinf/Repushieldv7-sub000/internal/source"
)

// Orchestrator sequences one monitoring run: platform fetch fan-out, risk
// scoring of the backlog, completeness reconciliation, fact-checking. Each
// stage fully completes before the next starts; stage and item failures are
// isolated, so the run always reflects partial success instead of
// all-or-nothing failure.
type Orchestrator struct {
	registry     *source.Registry
	engine       *filter.Engine
	mentions     ports.MentionStore
	audit        ports.AuditStore
	scoring      *RiskScoringStage
	completeness *CompletenessValidator
	factCheck    *FactCheckingStage
	pageSize     int
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// OrchestratorDeps wires all collaborators into the orchestrator.
type OrchestratorDeps struct {
	Registry     *source.Registry
	Engine       *filter.Engine
	Mentions     ports.MentionStore
	Audit        ports.AuditStore
	Scoring      *RiskScoringStage
	Completeness *CompletenessValidator
	FactCheck    *FactCheckingStage
	PageSize     int
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

// NewOrchestrator constructs the run orchestrator.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = source.DefaultPageSize
	}
	return &Orchestrator{
		registry:     deps.Registry,
		engine:       deps.Engine,
		mentions:     deps.Mentions,
		audit:        deps.Audit,
		scoring:      deps.Scoring,
		completeness: deps.Completeness,
		factCheck:    deps.FactCheck,
		pageSize:     pageSize,
		metrics:      deps.Metrics,
		logger:       deps.Logger.With().Str("component", "orchestrator").Logger(),
	}
}

// Run executes one full orchestration for a configuration and returns the
// aggregate outcome. Run never returns an error: failures surface inside
// the result and the per-stage audit rows.
func (o *Orchestrator) Run(ctx context.Context, cfg domain.Configuration) domain.OrchestrationResult {
	start := time.Now()
	result := domain.OrchestrationResult{
		RunID:    uuid.NewString(),
		ConfigID: cfg.ID,
	}

	o.logger.Info().Str("run_id", result.RunID).Str("config_id", cfg.ID).Msg("orchestration started")

	// Stage 1: fan out one agent per enabled platform; wait for all to
	// settle. One platform's total failure never cancels siblings.
	agentResults := o.fetchAll(ctx, cfg, &result)
	for _, ar := range agentResults {
		result.TotalFetched += ar.Fetched
		result.TotalStored += ar.Stored
		result.Errors = append(result.Errors, ar.Errors...)
	}

	// Stage 2: score the configuration's unscored backlog.
	scoringStart := time.Now()
	scoring := o.scoring.ScoreBacklog(ctx, cfg)
	o.recordStage(ctx, &result, domain.StageRiskScoring, scoring, cfg.ID, scoringStart)
	result.Errors = append(result.Errors, scoring.Errors...)

	// Stage 3: reconcile incomplete mentions. Non-fatal by contract.
	reconcileStart := time.Now()
	o.completeness.Reconcile(ctx, cfg)
	o.record(ctx, &result, domain.StageRecord{
		RunID:      result.RunID,
		ConfigID:   cfg.ID,
		Stage:      domain.StageCompleteness,
		Status:     domain.StageCompleted,
		StartedAt:  reconcileStart,
		FinishedAt: time.Now(),
	})

	// Stage 4: fact-check newly eligible mentions.
	factCheckStart := time.Now()
	factCheck := o.factCheck.Execute(ctx, cfg)
	o.recordStage(ctx, &result, domain.StageFactCheck, factCheck, cfg.ID, factCheckStart)
	result.Errors = append(result.Errors, factCheck.Errors...)

	result.Duration = time.Since(start)
	o.logger.Info().
		Str("run_id", result.RunID).
		Int("fetched", result.TotalFetched).
		Int("stored", result.TotalStored).
		Int("errors", len(result.Errors)).
		Dur("duration", result.Duration).
		Msg("orchestration finished")

	return result
}

func (o *Orchestrator) fetchAll(ctx context.Context, cfg domain.Configuration, result *domain.OrchestrationResult) []domain.AgentResult {
	platforms := make([]domain.Platform, 0, len(cfg.Platforms))
	for _, p := range cfg.Platforms {
		if !p.Valid() {
			o.logger.Warn().Str("platform", string(p)).Msg("unknown platform in configuration, skipping")
			continue
		}
		platforms = append(platforms, p)
	}

	results := make([]domain.AgentResult, len(platforms))
	starts := make([]time.Time, len(platforms))

	var wg sync.WaitGroup
	for i, platform := range platforms {
		client, err := o.registry.Resolve(platform)
		if err != nil {
			results[i] = domain.AgentResult{Platform: platform}
			results[i].AddError("%v", err)
			starts[i] = time.Now()
			continue
		}

		agent := source.NewAgent(client, o.mentions, o.engine, cfg, o.logger,
			source.WithPageSize(o.pageSize))

		wg.Add(1)
		starts[i] = time.Now()
		go func(i int) {
			defer wg.Done()
			results[i] = agent.Execute(ctx)
		}(i)
	}
	wg.Wait()

	for i, ar := range results {
		status := domain.StageCompleted
		if ar.Failed() {
			status = domain.StageFailed
		}
		if o.metrics != nil {
			o.metrics.ObserveFetch(ar)
		}
		o.record(ctx, result, domain.StageRecord{
			RunID:      result.RunID,
			ConfigID:   cfg.ID,
			Stage:      domain.FetchStage(ar.Platform),
			Status:     status,
			Fetched:    ar.Fetched,
			Stored:     ar.Stored,
			ErrorText:  strings.Join(ar.Errors, "; "),
			StartedAt:  starts[i],
			FinishedAt: time.Now(),
		})
	}

	return results
}

func (o *Orchestrator) recordStage(ctx context.Context, result *domain.OrchestrationResult,
	stage string, outcome domain.AgentResult, configID string, started time.Time) {
	status := domain.StageCompleted
	if outcome.Failed() {
		status = domain.StageFailed
	}
	o.record(ctx, result, domain.StageRecord{
		RunID:      result.RunID,
		ConfigID:   configID,
		Stage:      stage,
		Status:     status,
		Fetched:    outcome.Fetched,
		Stored:     outcome.Stored,
		ErrorText:  strings.Join(outcome.Errors, "; "),
		StartedAt:  started,
		FinishedAt: time.Now(),
	})
}

// record persists one audit row. Audit failures are logged only: the audit
// trail must never change the outcome of the run it describes.
func (o *Orchestrator) record(ctx context.Context, result *domain.OrchestrationResult, rec domain.StageRecord) {
	result.Stages = append(result.Stages, rec)
	if o.metrics != nil {
		o.metrics.ObserveStage(rec)
	}
	if o.audit == nil {
		return
	}
	if err := o.audit.RecordStage(ctx, rec); err != nil {
		o.logger.Warn().Err(err).Str("stage", rec.Stage).Msg("audit record failed")
	}
}
