package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NewsFetcher/internal/config"
	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/health"
	"NewsFetcher/internal/infrastructure/httpapi"
	"NewsFetcher/internal/infrastructure/llm"
	"NewsFetcher/internal/infrastructure/parser"
	"NewsFetcher/internal/infrastructure/scheduler"
	"NewsFetcher/internal/infrastructure/storage"
	"NewsFetcher/internal/infrastructure/telegram"
	"NewsFetcher/internal/infrastructure/web"
	"NewsFetcher/internal/logging"
	"NewsFetcher/internal/ports"
	"NewsFetcher/internal/ratelimit"
	"NewsFetcher/internal/relevance"
	"NewsFetcher/internal/retry"
	"NewsFetcher/internal/scanner"
	"NewsFetcher/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

// store is what both storage backends provide.
type store interface {
	ports.SourceRegistry
	ports.EventLog
	ports.ArticleStore
	SeedSources(ctx context.Context, sources []domain.Source) (int, error)
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	version string
	db      *sql.DB
	store   store

	Orchestrator *usecase.Orchestrator
	Sweeper      *usecase.Sweeper
	Tracker      *health.Tracker
	Diagnostics  *usecase.Diagnostics
	scheduler    *usecase.Scheduler
}

// New opens the store, seeds configured sources and builds every use case.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, version string) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{cfg: cfg, logger: baseLogger, version: version}
	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	added, err := a.store.SeedSources(ctx, cfg.SeedSources())
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("seed sources: %w", err)
	}
	if added > 0 {
		baseLogger.Info("seeded sources", "added", added)
	}

	a.build()
	return a, nil
}

func (a *Application) openStore(ctx context.Context) error {
	switch a.cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := storage.OpenPostgres(ctx, a.cfg.Database.DSN)
		if err != nil {
			return err
		}
		repo := storage.NewPostgresRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return err
		}
		a.db = db
		a.store = repo
	default:
		a.store = storage.NewMemory()
	}
	return nil
}

func (a *Application) build() {
	cfg := a.cfg
	logger := a.logger

	classifier := relevance.Default()
	limiter := ratelimit.New(cfg.Fetch.MinRequestDelay)
	fetcher := web.NewFetcher(limiter, web.Options{
		Timeout:   cfg.Fetch.RequestTimeout,
		UserAgent: cfg.Fetch.UserAgent,
		MaxBytes:  cfg.Fetch.MaxBodyBytes,
	})

	registry := scanner.NewRegistry(
		parser.NewFeedExtractor(fetcher, classifier, parser.FeedOptions{
			MaxEntries: cfg.Fetch.MaxFeedEntries,
			CacheTTL:   cfg.Enrichment.CacheTTL,
		}, logging.Component(logger, "extractor.feed")),
		parser.NewPageExtractor(fetcher, classifier, parser.PageOptions{
			MaxLinks:          cfg.Fetch.MaxPageLinks,
			MinLinkTextLength: cfg.Fetch.MinLinkTextLength,
		}, logging.Component(logger, "extractor.page")),
	)
	extractor := parser.NewStrategySource(registry, logging.Component(logger, "source"))

	notifier := a.notifier()
	locks := usecase.NewSourceLocks()

	a.Tracker = health.NewTracker(health.TrackerDeps{
		Registry: a.store,
		Events:   a.store,
		Notifier: notifier,
		Settings: health.Settings{
			ErrorWindow:       cfg.Health.ErrorWindow,
			DisableThreshold:  cfg.Health.DisableThreshold,
			HealthWindow:      cfg.Health.HealthWindow,
			CriticalThreshold: cfg.Health.CriticalThreshold,
		},
		Logger: logging.Component(logger, "health"),
	})

	a.Sweeper = usecase.NewSweeper(usecase.SweeperDeps{
		Registry:     a.store,
		Events:       a.store,
		Extractor:    extractor,
		Notifier:     notifier,
		Locks:        locks,
		Cooldown:     cfg.Recovery.Cooldown,
		ProbeBackoff: cfg.Recovery.ProbeBackoff,
		Logger:       logging.Component(logger, "sweeper"),
	})

	persister := usecase.NewPersister(usecase.PersisterDeps{
		Store:     a.store,
		Events:    a.store,
		Formatter: a.formatter(),
		Logger:    logging.Component(logger, "persister"),
	})

	a.Orchestrator = usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Registry:    a.store,
		Extractor:   extractor,
		Tracker:     a.Tracker,
		Persister:   persister,
		Sweeper:     a.Sweeper,
		Locks:       locks,
		Retry:       retry.Fixed(cfg.Fetch.MaxRetries, cfg.Fetch.RetryDelay),
		Concurrency: cfg.Fetch.Concurrency,
		Logger:      logging.Component(logger, "orchestrator"),
	})

	a.Diagnostics = usecase.NewDiagnostics(a.store, extractor, parser.NewValidator(fetcher, classifier), classifier)

	cron := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location(), logging.Component(logger, "scheduler"))
	a.scheduler = usecase.NewScheduler(cron, a.Orchestrator, logging.Component(logger, "scheduler"))
}

func (a *Application) notifier() ports.Notifier {
	tg := telegram.NewNotifier(a.cfg.Notifications.Telegram.BotToken, a.cfg.Notifications.Telegram.ChatID)
	if !tg.Configured() {
		return nil
	}
	return tg
}

func (a *Application) formatter() ports.Formatter {
	if a.cfg.OpenAI.APIKey == "" {
		return nil
	}
	f, err := llm.NewFormatter(llm.Config{
		APIKey:       a.cfg.OpenAI.APIKey,
		BaseURL:      a.cfg.OpenAI.BaseURL,
		Model:        a.cfg.OpenAI.Model,
		SystemPrompt: a.cfg.OpenAI.SystemPrompt,
		Timeout:      a.cfg.OpenAI.Timeout,
	})
	if err != nil {
		a.logger.Warn("publication formatter disabled", "error", err)
		return nil
	}
	return f
}

// Run performs a single orchestrator run.
func (a *Application) Run(ctx context.Context) (usecase.RunReport, error) {
	return a.Orchestrator.Run(ctx, "cli")
}

// Handler exposes the use cases to the HTTP API.
func (a *Application) Handler() *httpapi.Handler {
	return httpapi.NewHandler(httpapi.HandlerDeps{
		Runner:      a.Orchestrator,
		Recoverer:   a.Sweeper,
		Health:      a.Tracker,
		Diagnostics: a.Diagnostics,
		Version:     a.version,
	})
}

// Serve runs the cron scheduler and the API until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	server := httpapi.NewServer(a.cfg.HTTP.Addr, a.Handler(), logging.Component(a.logger, "http"))

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return errors.Join(serveErr, server.Shutdown(shutdownCtx), a.scheduler.Stop(shutdownCtx))
}

// Close releases the database pool, if any.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
