package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/ports"
)

// Settings tunes the disable decision and the health buckets.
type Settings struct {
	// ErrorWindow is the trailing window counted by ShouldDisable.
	ErrorWindow time.Duration
	// DisableThreshold is the error count at which a persistent failure disables a source.
	DisableThreshold int
	// HealthWindow is the trailing window counted by ComputeHealth.
	HealthWindow time.Duration
	// CriticalThreshold is the error count at which health turns critical.
	CriticalThreshold int
}

// DefaultSettings mirrors the production thresholds: 10 errors in 7 days, critical at 5 errors a day.
func DefaultSettings() Settings {
	return Settings{
		ErrorWindow:       7 * 24 * time.Hour,
		DisableThreshold:  10,
		HealthWindow:      24 * time.Hour,
		CriticalThreshold: 5,
	}
}

// TrackerDeps wires the tracker to its collaborators.
type TrackerDeps struct {
	Registry ports.SourceRegistry
	Events   ports.EventLog
	Notifier ports.Notifier
	Settings Settings
	Logger   *slog.Logger
	Now      func() time.Time
}

// Tracker records classified failures and decides when a source is auto-disabled.
type Tracker struct {
	registry ports.SourceRegistry
	events   ports.EventLog
	notifier ports.Notifier
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

// Decision explains a ShouldDisable verdict.
type Decision struct {
	Disable    bool
	ErrorCount int
	LastKind   domain.EventKind
	Reason     string
}

// NewTracker applies defaults for zero settings.
func NewTracker(deps TrackerDeps) *Tracker {
	settings := deps.Settings
	defaults := DefaultSettings()
	if settings.ErrorWindow <= 0 {
		settings.ErrorWindow = defaults.ErrorWindow
	}
	if settings.DisableThreshold <= 0 {
		settings.DisableThreshold = defaults.DisableThreshold
	}
	if settings.HealthWindow <= 0 {
		settings.HealthWindow = defaults.HealthWindow
	}
	if settings.CriticalThreshold <= 0 {
		settings.CriticalThreshold = defaults.CriticalThreshold
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Tracker{
		registry: deps.Registry,
		events:   deps.Events,
		notifier: deps.Notifier,
		settings: settings,
		logger:   logger,
		now:      now,
	}
}

// Record classifies err and appends it to the event log.
// Append failures are logged and otherwise ignored.
func (t *Tracker) Record(ctx context.Context, source domain.Source, err error) Classification {
	class := Classify(err)
	t.append(ctx, domain.Event{
		SourceID: source.ID,
		Kind:     class.Kind,
		Message:  fmt.Sprintf("Failed to fetch from %s: %s", source.Name, class.Message),
	})
	return class
}

// ShouldDisable is true when the trailing error count reaches the threshold
// and the latest error is persistent. Transient kinds never disable a source.
func (t *Tracker) ShouldDisable(ctx context.Context, source domain.Source) (Decision, error) {
	since := t.now().Add(-t.settings.ErrorWindow)
	count, err := t.events.CountErrors(ctx, source.ID, since)
	if err != nil {
		return Decision{}, fmt.Errorf("count errors for source %d: %w", source.ID, err)
	}

	latest, ok, err := t.events.LatestError(ctx, source.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("latest error for source %d: %w", source.ID, err)
	}

	decision := Decision{ErrorCount: count}
	if ok {
		decision.LastKind = latest.Kind
	}

	if count >= t.settings.DisableThreshold && decision.LastKind.IsPersistent() {
		decision.Disable = true
		decision.Reason = fmt.Sprintf("Auto-disabled %s after %d errors in %s; last error: %s",
			source.Name, count, t.settings.ErrorWindow, decision.LastKind)
	}

	return decision, nil
}

// EnforceDisable disables the source when ShouldDisable says so.
func (t *Tracker) EnforceDisable(ctx context.Context, source domain.Source) (bool, error) {
	decision, err := t.ShouldDisable(ctx, source)
	if err != nil {
		return false, err
	}
	if !decision.Disable {
		return false, nil
	}

	if err := t.registry.SetEnabled(ctx, source.ID, false); err != nil {
		return false, fmt.Errorf("disable source %d: %w", source.ID, err)
	}

	t.append(ctx, domain.Event{SourceID: source.ID, Kind: domain.EventDisable, Message: decision.Reason})
	t.logger.Warn("source auto-disabled",
		"source_id", source.ID,
		"source", source.Name,
		"errors", decision.ErrorCount,
		"last_kind", decision.LastKind,
	)
	t.notify(ctx, decision.Reason)

	return true, nil
}

// ComputeHealth buckets the trailing error count: 0 healthy, below critical warning, otherwise critical.
func (t *Tracker) ComputeHealth(ctx context.Context, source domain.Source) (domain.HealthSignal, error) {
	since := t.now().Add(-t.settings.HealthWindow)
	count, err := t.events.CountErrors(ctx, source.ID, since)
	if err != nil {
		return domain.HealthSignal{}, fmt.Errorf("count recent errors for source %d: %w", source.ID, err)
	}
	return signalFor(count, t.settings.CriticalThreshold), nil
}

// Report computes health for every registered source.
func (t *Tracker) Report(ctx context.Context) (domain.HealthReport, error) {
	sources, err := t.registry.ListAll(ctx)
	if err != nil {
		return domain.HealthReport{}, fmt.Errorf("list sources: %w", err)
	}

	rows := make([]domain.SourceHealth, 0, len(sources))
	for _, source := range sources {
		signal, err := t.ComputeHealth(ctx, source)
		if err != nil {
			return domain.HealthReport{}, err
		}
		rows = append(rows, domain.SourceHealth{
			SourceID:     source.ID,
			Name:         source.Name,
			URL:          source.URL,
			Enabled:      source.Enabled,
			Status:       signal.Status,
			RecentErrors: signal.RecentErrors,
			SuccessRate:  signal.SuccessRate,
		})
	}

	return domain.HealthReport{Summary: domain.Summarize(rows), Sources: rows}, nil
}

func signalFor(errors, critical int) domain.HealthSignal {
	signal := domain.HealthSignal{
		RecentErrors: errors,
		SuccessRate:  max(0, 100-errors*10),
		Status:       domain.HealthHealthy,
	}
	switch {
	case errors >= critical:
		signal.Status = domain.HealthCritical
	case errors > 0:
		signal.Status = domain.HealthWarning
	}
	return signal
}

func (t *Tracker) append(ctx context.Context, event domain.Event) {
	if t.events == nil {
		return
	}
	if event.At.IsZero() {
		event.At = t.now()
	}
	if err := t.events.Append(ctx, event); err != nil {
		t.logger.Warn("append event failed", "kind", event.Kind, "source_id", event.SourceID, "error", err)
	}
}

func (t *Tracker) notify(ctx context.Context, message string) {
	if t.notifier == nil {
		return
	}
	if err := t.notifier.Notify(ctx, message); err != nil {
		t.logger.Warn("notify failed", "error", err)
	}
}
