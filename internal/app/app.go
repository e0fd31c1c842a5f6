// Package app assembles the pipeline from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/trueinf/Repushieldv7-sub000/internal/config"
	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
	"github.com/trueinf/Repushieldv7-sub000/internal/filter"
	"github.com/trueinf/Repushieldv7-sub000/internal/infrastructure/grouping"
	"github.com/trueinf/Repushieldv7-sub000/internal/infrastructure/llm"
	cronscheduler "github.com/trueinf/Repushieldv7-sub000/internal/infrastructure/scheduler"
	"github.com/trueinf/Repushieldv7-sub000/internal/infrastructure/sources"
	"github.com/trueinf/Repushieldv7-sub000/internal/infrastructure/storage"
	"github.com/trueinf/Repushieldv7-sub000/internal/infrastructure/websearch"
	"github.com/trueinf/Repushieldv7-sub000/internal/metrics"
	"github.com/trueinf/Repushieldv7-sub000/internal/source"
	"github.com/trueinf/Repushieldv7-sub000/internal/usecase"
)

// Application wires configuration to repositories, clients, and the
// orchestration use cases.
type Application struct {
	cfg      config.Config
	logger   zerolog.Logger
	pool     *pgxpool.Pool
	registry *prometheus.Registry

	mentions *storage.MentionRepository
	configs  *storage.ConfigurationRepository
	audit    *storage.AuditRepository

	orchestrator *usecase.Orchestrator
	scheduler    *usecase.Scheduler
}

// New builds a runnable application instance and connects to Postgres.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Application, error) {
	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	mentionRepo := storage.NewMentionRepository(pool)
	configRepo := storage.NewConfigurationRepository(pool)
	auditRepo := storage.NewAuditRepository(pool)

	registry := source.NewRegistry()
	registry.Register(sources.NewTwitterClient(cfg.Sources.Twitter.BaseURL, cfg.Sources.Twitter.APIKey, nil))
	registry.Register(sources.NewRedditClient(cfg.Sources.Reddit.BaseURL, cfg.Sources.Reddit.APIKey, nil))
	registry.Register(sources.NewForumClient(cfg.Sources.Forum.BaseURL, cfg.Sources.Forum.APIKey, nil))
	registry.Register(sources.NewNewsClient(cfg.Sources.News.SearchURL, nil))

	classifier := llm.NewClassifier(
		cfg.Services.Classifier.BaseURL,
		cfg.Services.Classifier.APIKey,
		cfg.Services.Classifier.RatePerSecond,
		nil,
	)
	synthesizer := llm.NewSynthesizer(cfg.Services.Synthesis.BaseURL, cfg.Services.Synthesis.APIKey, nil)
	searcher := websearch.NewClient(cfg.Services.WebSearch.BaseURL, cfg.Services.WebSearch.APIKey, nil)
	grouper := grouping.NewClient(cfg.Services.Grouping.BaseURL, cfg.Services.Grouping.APIKey, nil)

	promRegistry := prometheus.NewRegistry()
	pipelineMetrics := metrics.New(promRegistry)

	scoring := usecase.NewRiskScoringStage(mentionRepo, classifier, grouper, logger,
		usecase.WithBatchSize(cfg.Pipeline.ScoringBatchSize),
		usecase.WithBacklogLimit(cfg.Pipeline.BacklogLimit),
	)
	completeness := usecase.NewCompletenessValidator(mentionRepo, scoring, cfg.Pipeline.ReconcilePageSize, logger)
	factCheck := usecase.NewFactCheckingStage(mentionRepo, searcher, synthesizer, logger,
		usecase.WithRiskThreshold(cfg.Pipeline.FactCheckThreshold),
		usecase.WithMaxParallel(cfg.Pipeline.FactCheckParallelism),
	)

	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Registry:     registry,
		Engine:       filter.New(),
		Mentions:     mentionRepo,
		Audit:        auditRepo,
		Scoring:      scoring,
		Completeness: completeness,
		FactCheck:    factCheck,
		PageSize:     cfg.Pipeline.PageSize,
		Metrics:      pipelineMetrics,
		Logger:       logger,
	})

	driver, err := cronscheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Timezone)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &Application{
		cfg:          cfg,
		logger:       logger,
		pool:         pool,
		registry:     promRegistry,
		mentions:     mentionRepo,
		configs:      configRepo,
		audit:        auditRepo,
		orchestrator: orchestrator,
		scheduler:    usecase.NewScheduler(driver, orchestrator, configRepo, logger),
	}, nil
}

// InitSchema creates the database tables if they do not exist.
func (a *Application) InitSchema(ctx context.Context) error {
	return storage.EnsureSchema(ctx, a.pool)
}

// RunOnce executes a single orchestration for the active configuration.
func (a *Application) RunOnce(ctx context.Context) (domain.OrchestrationResult, error) {
	cfg, err := a.configs.Active(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.OrchestrationResult{}, errors.New("no active monitoring configuration")
		}
		return domain.OrchestrationResult{}, fmt.Errorf("load active configuration: %w", err)
	}
	return a.orchestrator.Run(ctx, cfg), nil
}

// Serve starts the cron scheduler and the metrics listener, then blocks
// until the context is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	server := &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           a.metricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", server.Addr).Msg("metrics listener started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		_ = a.stopScheduler()
		return fmt.Errorf("metrics listener: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	return a.stopScheduler()
}

// Configurations exposes the configuration store for CLI management.
func (a *Application) Configurations() *storage.ConfigurationRepository {
	return a.configs
}

// RecentStages returns the latest audit entries for the active
// configuration, for the status command.
func (a *Application) RecentStages(ctx context.Context, limit int) ([]domain.StageRecord, error) {
	cfg, err := a.configs.Active(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errors.New("no active monitoring configuration")
		}
		return nil, fmt.Errorf("load active configuration: %w", err)
	}
	return a.audit.RecentStages(ctx, cfg.ID, limit)
}

// Close releases the database pool.
func (a *Application) Close() {
	a.pool.Close()
}

func (a *Application) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	return mux
}

func (a *Application) stopScheduler() error {
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}
