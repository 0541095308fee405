package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsdigest/internal/config"
	"newsdigest/internal/digest"
	"newsdigest/internal/infrastructure/backup"
	"newsdigest/internal/infrastructure/extract"
	"newsdigest/internal/infrastructure/feeds"
	"newsdigest/internal/infrastructure/oracle"
	"newsdigest/internal/infrastructure/scheduler"
	"newsdigest/internal/infrastructure/store"
	"newsdigest/internal/judge"
	"newsdigest/internal/logging"
	"newsdigest/internal/ports"
	"newsdigest/internal/rewrite"
	"newsdigest/internal/source"
	"newsdigest/internal/trigger"
	"newsdigest/internal/usecase"
)

// Application wires configuration to adapters, use cases, and lifecycle.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	store       *store.SQLiteStore
	Pipeline    *usecase.Pipeline
	Digest      *digest.Builder
	Queries     *usecase.Queries
	Maintenance *usecase.Maintenance
	Triggers    *trigger.Runner
	scheduler   ports.Scheduler
}

// New builds a runnable application. Without an oracle API key the judges,
// rewriter, and digest builder run in degraded mode: scraping still works,
// oracle-backed stages are skipped or fail with a clear error.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	kv, err := store.New(cfg.Database.Path, nil)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	registry := source.NewRegistry()
	for _, feed := range cfg.Sources.Feeds {
		registry.Register(feeds.NewRSSSource(feed, nil))
	}
	if cfg.Sources.NewsAPI.APIKey != "" {
		registry.Register(feeds.NewNewsAPISource(cfg.Sources.NewsAPI, cfg.Region.Keywords, nil,
			baseLogger.With("component", "source.newsapi")))
	}

	fetcher := source.NewFetcher(registry, cfg.Sources.MinArticleLength,
		baseLogger.With("component", "fetcher"))

	var textOracle ports.Oracle
	if client, err := oracle.NewGeminiClient(cfg.Oracle); err != nil {
		baseLogger.Warn("oracle unavailable, running degraded", "error", err)
	} else {
		textOracle = client
	}

	var (
		similarity ports.SimilarityJudge
		relevance  ports.RelevanceJudge
		rewriter   ports.Rewriter
	)
	if textOracle != nil {
		similarity = judge.NewSimilarity(textOracle, baseLogger.With("component", "judge.similarity"))
		relevance = judge.NewRelevance(textOracle, cfg.Region, baseLogger.With("component", "judge.relevance"))
		rewriter = rewrite.NewRewriter(textOracle, cfg.Region, nil, baseLogger.With("component", "rewriter"))
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Store:      kv,
		Fetcher:    fetcher,
		Similarity: similarity,
		Relevance:  relevance,
		Rewriter:   rewriter,
		Extractor:  extract.NewPageExtractor(cfg.Pipeline.PageFetchTimeout(), baseLogger.With("component", "extractor")),
		Backup:     backup.NewFileBackup(cfg.Backup.Dir),
		Options: usecase.PipelineOptions{
			DedupeBatchSize:  cfg.Pipeline.DedupeBatchSize,
			MaxDailyRewrites: cfg.Pipeline.MaxDailyRewrites,
			OracleCallDelay:  cfg.Pipeline.OracleCallDelay(),
			ItemDelay:        cfg.Pipeline.ItemDelay(),
			Retention:        cfg.Pipeline.Retention(),
		},
		Logger: baseLogger.With("component", "pipeline"),
	})

	builder := digest.NewBuilder(kv, textOracle, cfg.Region, cfg.Digest.CandidateLimit, nil,
		baseLogger.With("component", "digest"))

	return &Application{
		cfg:         cfg,
		logger:      baseLogger,
		store:       kv,
		Pipeline:    pipeline,
		Digest:      builder,
		Queries:     usecase.NewQueries(kv, baseLogger.With("component", "queries")),
		Maintenance: usecase.NewMaintenance(kv, backup.NewFileBackup(cfg.Backup.Dir), baseLogger.With("component", "maintenance")),
		Triggers:    trigger.NewRunner(cfg.Trigger.Token, baseLogger.With("component", "trigger")),
		scheduler:   scheduler.NewDailyScheduler(cfg.Scheduler.Hour, cfg.Scheduler.Location(), nil),
	}, nil
}

// TriggerPipelineRun starts a full pipeline run in the background after
// verifying the shared-secret token. It acknowledges immediately.
func (a *Application) TriggerPipelineRun(token string) error {
	return a.Triggers.Run("pipeline", token, func(ctx context.Context) error {
		_, err := a.Pipeline.Run(ctx)
		return err
	})
}

// TriggerClearRewrites starts a background clear of rewritten records.
func (a *Application) TriggerClearRewrites(token string, includeFiles bool) error {
	return a.Triggers.Run("clear-rewrites", token, func(ctx context.Context) error {
		_, err := a.Maintenance.ClearRewrites(ctx, includeFiles)
		return err
	})
}

// StartScheduler begins the daily pipeline runs.
func (a *Application) StartScheduler(ctx context.Context) error {
	return a.scheduler.Start(ctx, func(t time.Time) {
		a.logger.Info("scheduled run starting", "at", t)
		if _, err := a.Pipeline.Run(ctx); err != nil {
			a.logger.Error("scheduled run failed", "error", err)
		}
	})
}

// Close releases held resources.
func (a *Application) Close(ctx context.Context) error {
	if a.scheduler != nil {
		_ = a.scheduler.Stop(ctx)
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
