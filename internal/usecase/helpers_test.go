package usecase

import (
	"context"
	"sync"
	"time"

	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/health"
	"NewsFetcher/internal/infrastructure/storage"
	"NewsFetcher/internal/ports"
	"NewsFetcher/internal/retry"
)

type step struct {
	extraction domain.Extraction
	err        error
}

// scriptedExtractor replays steps per source; the last step repeats.
type scriptedExtractor struct {
	mu     sync.Mutex
	steps  map[int64][]step
	calls  []int64
	served map[int64]int
}

var _ ports.Extractor = (*scriptedExtractor)(nil)

func newScriptedExtractor() *scriptedExtractor {
	return &scriptedExtractor{steps: map[int64][]step{}, served: map[int64]int{}}
}

func (s *scriptedExtractor) script(sourceID int64, steps ...step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps[sourceID] = steps
}

func (s *scriptedExtractor) Extract(_ context.Context, source domain.Source) (domain.Extraction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, source.ID)
	steps := s.steps[source.ID]
	if len(steps) == 0 {
		return domain.Extraction{}, nil
	}
	i := min(s.served[source.ID], len(steps)-1)
	s.served[source.ID]++
	return steps[i].extraction, steps[i].err
}

func (s *scriptedExtractor) Preview(ctx context.Context, source domain.Source) ([]domain.Entry, error) {
	extraction, err := s.Extract(ctx, source)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.Entry, 0, len(extraction.Candidates))
	for _, c := range extraction.Candidates {
		entries = append(entries, domain.Entry{Title: c.Title, URL: c.URL, Summary: c.Summary})
	}
	return entries, nil
}

func (s *scriptedExtractor) callsFor(sourceID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range s.calls {
		if id == sourceID {
			n++
		}
	}
	return n
}

func found(candidates ...domain.Candidate) step {
	return step{extraction: domain.Extraction{Entries: len(candidates), Candidates: candidates}}
}

func failed(err error) step {
	return step{err: err}
}

type testEnv struct {
	store        *storage.Memory
	extractor    ports.Extractor
	tracker      *health.Tracker
	sweeper      *Sweeper
	orchestrator *Orchestrator
	now          time.Time
}

func newTestEnv(extractor ports.Extractor, now time.Time, sources ...domain.Source) *testEnv {
	store := storage.NewMemory()
	_, _ = store.SeedSources(context.Background(), sources)

	clock := func() time.Time { return now }
	locks := NewSourceLocks()
	tracker := health.NewTracker(health.TrackerDeps{Registry: store, Events: store, Now: clock})
	sweeper := NewSweeper(SweeperDeps{
		Registry:  store,
		Events:    store,
		Extractor: extractor,
		Locks:     locks,
		Now:       clock,
	})
	persister := NewPersister(PersisterDeps{Store: store, Events: store, Now: clock})
	orchestrator := NewOrchestrator(OrchestratorDeps{
		Registry:  store,
		Extractor: extractor,
		Tracker:   tracker,
		Persister: persister,
		Sweeper:   sweeper,
		Locks:     locks,
		Retry:     retry.Fixed(2, time.Millisecond),
		Now:       clock,
	})

	return &testEnv{
		store:        store,
		extractor:    extractor,
		tracker:      tracker,
		sweeper:      sweeper,
		orchestrator: orchestrator,
		now:          now,
	}
}

func (e *testEnv) source(id int64) domain.Source {
	source, _ := e.store.Get(context.Background(), id)
	return source
}

func (e *testEnv) eventsOf(kind domain.EventKind) []domain.Event {
	var out []domain.Event
	for _, event := range e.store.Events() {
		if event.Kind == kind {
			out = append(out, event)
		}
	}
	return out
}
