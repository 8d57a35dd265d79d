package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/health"
	"NewsFetcher/internal/ports"
	"NewsFetcher/internal/retry"
)

// OrchestratorDeps wires all driven adapters into the fetch run.
type OrchestratorDeps struct {
	Registry  ports.SourceRegistry
	Extractor ports.Extractor
	Tracker   *health.Tracker
	Persister *Persister
	// Sweeper is optional; when set it runs before the per-source loop.
	Sweeper *Sweeper
	Locks   *SourceLocks
	Retry   retry.Policy
	// Concurrency above 1 fetches sources on a bounded pool.
	Concurrency int
	Logger      *slog.Logger
	Now         func() time.Time
}

// Orchestrator implements one ingestion run over every enabled source.
type Orchestrator struct {
	registry    ports.SourceRegistry
	extractor   ports.Extractor
	tracker     *health.Tracker
	persister   *Persister
	sweeper     *Sweeper
	locks       *SourceLocks
	retry       retry.Policy
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// SourceReport describes how one source fared in a run.
type SourceReport struct {
	SourceID   int64            `json:"source_id"`
	Name       string           `json:"name"`
	Attempts   int              `json:"attempts"`
	Entries    int              `json:"entries"`
	Candidates int              `json:"candidates"`
	Succeeded  bool             `json:"succeeded"`
	Error      string           `json:"error,omitempty"`
	ErrorKind  domain.EventKind `json:"error_kind,omitempty"`
	Disabled   bool             `json:"disabled"`
}

// RunReport is the outcome of Run.
type RunReport struct {
	RunID      string         `json:"run_id"`
	Trigger    string         `json:"trigger"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Sweep      *SweepReport   `json:"sweep,omitempty"`
	Sources    []SourceReport `json:"sources"`
	Persist    PersistReport  `json:"persist"`
}

type sourceOutcome struct {
	report     SourceReport
	candidates []domain.Candidate
}

// NewOrchestrator constructs the run coordinator.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	policy := deps.Retry
	if policy.MaxAttempts < 1 {
		policy = retry.Fixed(2, 5*time.Second)
	}

	return &Orchestrator{
		registry:    deps.Registry,
		extractor:   deps.Extractor,
		tracker:     deps.Tracker,
		persister:   deps.Persister,
		sweeper:     deps.Sweeper,
		locks:       deps.Locks,
		retry:       policy,
		concurrency: deps.Concurrency,
		logger:      logger,
		now:         now,
	}
}

// Run sweeps disabled sources, fetches every enabled source and persists the candidates as one batch.
// Only a failure to list sources is returned as an error; per-source failures land in the report.
func (o *Orchestrator) Run(ctx context.Context, trigger string) (RunReport, error) {
	report := RunReport{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: o.now(),
		Sources:   []SourceReport{},
	}
	log := o.logger.With("run_id", report.RunID, "trigger", trigger)

	if o.sweeper != nil {
		sweep, err := o.sweeper.Sweep(ctx)
		if err != nil {
			log.Warn("recovery sweep failed", "error", err)
		}
		report.Sweep = &sweep
	}

	sources, err := o.registry.ListEnabled(ctx)
	if err != nil {
		report.FinishedAt = o.now()
		return report, fmt.Errorf("list enabled sources: %w", err)
	}
	log.Info("run started", "sources", len(sources))

	outcomes := o.fetchAll(ctx, log, sources)

	var candidates []domain.Candidate
	for _, outcome := range outcomes {
		report.Sources = append(report.Sources, outcome.report)
		candidates = append(candidates, outcome.candidates...)
	}

	if o.persister != nil {
		report.Persist = o.persister.Persist(ctx, candidates)
	}
	report.FinishedAt = o.now()

	log.Info("run finished",
		"sources", len(sources),
		"candidates", len(candidates),
		"saved", report.Persist.Saved,
		"duplicates", report.Persist.Duplicates,
		"failed", report.Persist.Failed,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}

// fetchAll keeps outcomes in source order whatever the concurrency.
func (o *Orchestrator) fetchAll(ctx context.Context, log *slog.Logger, sources []domain.Source) []sourceOutcome {
	outcomes := make([]sourceOutcome, len(sources))

	if o.concurrency <= 1 {
		for i, source := range sources {
			outcomes[i] = o.fetchSource(ctx, log, source)
		}
		return outcomes
	}

	semaphore := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func(i int, source domain.Source) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			outcomes[i] = o.fetchSource(ctx, log, source)
		}(i, source)
	}
	wg.Wait()
	return outcomes
}

func (o *Orchestrator) fetchSource(ctx context.Context, log *slog.Logger, source domain.Source) sourceOutcome {
	report := SourceReport{SourceID: source.ID, Name: source.Name}
	if err := ctx.Err(); err != nil {
		report.Error = err.Error()
		return sourceOutcome{report: report}
	}

	unlock := o.locks.Lock(source.ID)
	defer unlock()

	log = log.With("source_id", source.ID, "source", source.Name)

	var (
		last    domain.Extraction
		lastErr error
		class   health.Classification
	)
	attempts, done, waitErr := o.retry.Do(ctx, func(ctx context.Context, n int) bool {
		extraction, err := o.extractor.Extract(ctx, source)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return false
			}
			class = o.tracker.Record(ctx, source, err)
			log.Warn("fetch attempt failed", "attempt", n, "kind", class.Kind, "error", err)
			return false
		}

		lastErr, last = nil, extraction
		if extraction.Entries == 0 {
			log.Warn("fetch attempt returned no entries", "attempt", n)
			return false
		}
		return true
	})
	report.Attempts = attempts
	report.Entries = last.Entries

	switch {
	case done:
		report.Succeeded = true
		report.Candidates = len(last.Candidates)
		o.recordFetch(ctx, log, source, len(last.Candidates))
		log.Info("source fetched", "attempt", attempts, "entries", last.Entries, "candidates", len(last.Candidates))
		return sourceOutcome{report: report, candidates: last.Candidates}

	case waitErr != nil:
		report.Error = waitErr.Error()
		return sourceOutcome{report: report}

	case lastErr == nil:
		// the source answered with nothing to offer
		report.Succeeded = true
		o.recordFetch(ctx, log, source, 0)
		return sourceOutcome{report: report}
	}

	report.Error = lastErr.Error()
	report.ErrorKind = class.Kind
	if ctx.Err() != nil {
		return sourceOutcome{report: report}
	}

	disabled, err := o.tracker.EnforceDisable(ctx, source)
	if err != nil {
		log.Warn("disable check failed", "error", err)
	}
	report.Disabled = disabled
	log.Warn("source exhausted retries", "attempts", attempts, "kind", class.Kind, "disabled", disabled)
	return sourceOutcome{report: report}
}

func (o *Orchestrator) recordFetch(ctx context.Context, log *slog.Logger, source domain.Source, articles int) {
	if err := o.registry.RecordFetch(ctx, source.ID, o.now(), articles); err != nil {
		log.Warn("record fetch failed", "error", err)
	}
}
