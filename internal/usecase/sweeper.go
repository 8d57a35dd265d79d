package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/ports"
)

const (
	defaultCooldown     = 24 * time.Hour
	defaultProbeBackoff = time.Hour
)

// SweeperDeps wires the recovery sweep.
type SweeperDeps struct {
	Registry  ports.SourceRegistry
	Events    ports.EventLog
	Extractor ports.Extractor
	Notifier  ports.Notifier
	Locks     *SourceLocks
	// Cooldown is how long a disabled source rests after its last successful fetch.
	Cooldown time.Duration
	// ProbeBackoff suppresses re-probing a source whose probe just failed; negative disables it.
	ProbeBackoff time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
}

// Sweeper probes disabled sources and re-enables the ones that answer again.
type Sweeper struct {
	registry  ports.SourceRegistry
	events    ports.EventLog
	extractor ports.Extractor
	notifier  ports.Notifier
	locks     *SourceLocks
	cooldown  time.Duration
	backoff   *cache.Cache
	logger    *slog.Logger
	now       func() time.Time
}

// SweepReport summarises one sweep.
type SweepReport struct {
	Disabled   int     `json:"disabled"`
	InCooldown int     `json:"in_cooldown"`
	BackedOff  int     `json:"backed_off"`
	Probed     int     `json:"probed"`
	Reenabled  []int64 `json:"reenabled"`
}

// NewSweeper constructs the sweeper.
func NewSweeper(deps SweeperDeps) *Sweeper {
	cooldown := deps.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}

	var backoff *cache.Cache
	switch {
	case deps.ProbeBackoff > 0:
		backoff = cache.New(deps.ProbeBackoff, 2*deps.ProbeBackoff)
	case deps.ProbeBackoff == 0:
		backoff = cache.New(defaultProbeBackoff, 2*defaultProbeBackoff)
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Sweeper{
		registry:  deps.Registry,
		events:    deps.Events,
		extractor: deps.Extractor,
		notifier:  deps.Notifier,
		locks:     deps.Locks,
		cooldown:  cooldown,
		backoff:   backoff,
		logger:    logger,
		now:       now,
	}
}

// Sweep is idempotent: sources still in cooldown are never probed.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	report := SweepReport{Reenabled: []int64{}}

	sources, err := s.registry.ListDisabled(ctx)
	if err != nil {
		return report, fmt.Errorf("list disabled sources: %w", err)
	}
	report.Disabled = len(sources)

	for _, source := range sources {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if !s.due(source) {
			report.InCooldown++
			continue
		}
		if s.backedOff(source.ID) {
			report.BackedOff++
			continue
		}

		report.Probed++
		if s.probe(ctx, source) {
			report.Reenabled = append(report.Reenabled, source.ID)
		}
	}

	if report.Probed > 0 {
		s.logger.Info("recovery sweep finished", "disabled", report.Disabled, "probed", report.Probed, "reenabled", len(report.Reenabled))
	}
	return report, nil
}

// due reports whether the cooldown since the last successful fetch has elapsed.
// A source that was never fetched is always due.
func (s *Sweeper) due(source domain.Source) bool {
	if source.LastFetched.IsZero() {
		return true
	}
	return s.now().Sub(source.LastFetched) >= s.cooldown
}

func (s *Sweeper) backedOff(id int64) bool {
	if s.backoff == nil {
		return false
	}
	_, found := s.backoff.Get(strconv.FormatInt(id, 10))
	return found
}

func (s *Sweeper) markFailed(id int64) {
	if s.backoff != nil {
		s.backoff.SetDefault(strconv.FormatInt(id, 10), struct{}{})
	}
}

func (s *Sweeper) probe(ctx context.Context, source domain.Source) bool {
	unlock := s.locks.Lock(source.ID)
	defer unlock()

	log := s.logger.With("source_id", source.ID, "source", source.Name)

	current, err := s.registry.Get(ctx, source.ID)
	if err != nil {
		log.Debug("probe skipped, source lookup failed", "error", err)
		return false
	}
	if current.Enabled {
		return false
	}

	extraction, err := s.extractor.Extract(ctx, current)
	if err != nil {
		log.Debug("probe failed", "error", err)
		s.markFailed(source.ID)
		return false
	}
	if extraction.Entries == 0 {
		log.Debug("probe returned no entries")
		s.markFailed(source.ID)
		return false
	}

	if err := s.registry.SetEnabled(ctx, source.ID, true); err != nil {
		log.Warn("re-enable failed", "error", err)
		return false
	}

	message := fmt.Sprintf("Automatically re-enabled: probe returned %d entries", extraction.Entries)
	if s.events != nil {
		err := s.events.Append(ctx, domain.Event{SourceID: source.ID, Kind: domain.EventEnable, Message: message, At: s.now()})
		if err != nil {
			log.Warn("append event failed", "kind", domain.EventEnable, "error", err)
		}
	}
	log.Info("source re-enabled", "entries", extraction.Entries)

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, fmt.Sprintf("%s: %s", source.Name, message)); err != nil {
			log.Warn("notify failed", "error", err)
		}
	}
	return true
}
