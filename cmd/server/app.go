package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/leadflow/internal/config"
	"github.com/phrazzld/leadflow/internal/generation"
	"github.com/phrazzld/leadflow/internal/ingest"
	"github.com/phrazzld/leadflow/internal/platform/gemini"
	"github.com/phrazzld/leadflow/internal/platform/postgres"
	"github.com/phrazzld/leadflow/internal/platform/redis"
	"github.com/phrazzld/leadflow/internal/service"
	"github.com/phrazzld/leadflow/internal/store"
	"github.com/phrazzld/leadflow/internal/task"
	goredis "github.com/redis/go-redis/v9"
)

// application holds the shared dependencies of the server so they can be
// wired once and released together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	db    *sql.DB
	redis *goredis.Client

	leadStore store.LeadStore
	taskStore task.TaskStore
	cache     *redis.LeadCache
	pending   *redis.PendingGuard

	summarizer  generation.Summarizer
	taskRunner  *task.TaskRunner
	leadService service.LeadService

	// scheduler is nil when sync is disabled
	scheduler *ingest.Scheduler
}

// newApplication wires every component from cfg. db must already be
// connected; the Redis and Gemini clients are created here.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.redis, err = redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Redis connection established")

	app.cache = redis.NewLeadCache(app.redis, cfg.Redis.CacheTTL, logger)
	app.pending = redis.NewPendingGuard(app.redis, cfg.Redis.PendingTTL, logger)

	app.leadStore = postgres.NewPostgresLeadStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	app.summarizer, err = gemini.NewSummarizer(ctx, cfg.LLM, logger.With("component", "llm_summarizer"))
	if err != nil {
		app.closeRedis()
		return nil, fmt.Errorf("failed to initialize LLM summarizer: %w", err)
	}
	logger.Info("LLM summarizer initialized", "model", cfg.LLM.ModelName)

	factory, err := task.NewLeadEnrichmentTaskFactory(app.leadStore, app.summarizer, app.cache, app.pending, logger)
	if err != nil {
		app.closeRedis()
		return nil, fmt.Errorf("failed to create enrichment task factory: %w", err)
	}

	app.taskRunner = task.NewTaskRunner(app.taskStore, taskRunnerConfig(cfg.Task), logger)
	app.taskRunner.RegisterFactory(factory)
	app.taskRunner.SetErrorHandler(factory.HandleFailure)

	app.leadService, err = service.NewLeadService(
		app.leadStore,
		app.cache,
		app.pending,
		factory,
		app.taskRunner,
		logger,
	)
	if err != nil {
		app.closeRedis()
		return nil, fmt.Errorf("failed to create lead service: %w", err)
	}

	if cfg.Sync.Enabled {
		app.scheduler, err = newSyncScheduler(cfg.Sync, app.leadStore, logger)
		if err != nil {
			app.closeRedis()
			return nil, err
		}
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// taskRunnerConfig maps the task section of the configuration onto the
// runner's settings.
func taskRunnerConfig(cfg config.TaskConfig) task.TaskRunnerConfig {
	return task.TaskRunnerConfig{
		WorkerCount: cfg.WorkerCount,
		QueueSize:   cfg.QueueSize,
		Retry: task.RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			Backoff:     cfg.RetryBackoff,
		},
		StuckTaskAge:           cfg.StuckTaskAge,
		StuckTaskCheckInterval: cfg.StuckTaskCheckInterval,
	}
}

// newSyncScheduler builds the external lead import and its cron schedule.
func newSyncScheduler(cfg config.SyncConfig, leads ingest.LeadRepository, logger *slog.Logger) (*ingest.Scheduler, error) {
	source := ingest.NewRandomUserSource(cfg, logger)

	syncer, err := ingest.NewSyncer(source, leads, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create lead syncer: %w", err)
	}

	scheduler, err := ingest.NewScheduler(syncer, cfg.Schedule, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync scheduler: %w", err)
	}

	return scheduler, nil
}

// cleanup releases resources in reverse order of creation. The task runner
// is stopped first so no worker touches Redis or Postgres afterwards.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	app.closeRedis()

	if app.db != nil {
		closeDB(app.db, app.logger)
	}

	app.logger.Info("Application shutdown completed")
}

func (app *application) closeRedis() {
	if app.redis == nil {
		return
	}
	if err := app.redis.Close(); err != nil {
		app.logger.Error("Error closing redis connection", "error", err)
	}
	app.redis = nil
}
