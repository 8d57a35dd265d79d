package storage

import (
	"context"
	"slices"
	"sync"
	"time"

	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/ports"
)

// Memory keeps sources, events and articles in process memory.
// It backs the "memory" database driver and the use-case tests.
type Memory struct {
	mu       sync.RWMutex
	sources  []domain.Source
	events   []domain.Event
	articles []domain.StoredArticle
	byTitle  map[string]int64
	nextID   int64
	now      func() time.Time
}

var (
	_ ports.SourceRegistry = (*Memory)(nil)
	_ ports.EventLog       = (*Memory)(nil)
	_ ports.ArticleStore   = (*Memory)(nil)
)

// NewMemory builds an empty store.
func NewMemory() *Memory {
	return &Memory{byTitle: map[string]int64{}, now: time.Now}
}

// SeedSources adds sources whose URL (or explicit ID) is not registered yet and returns how many were added.
func (m *Memory) SeedSources(_ context.Context, sources []domain.Source) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, source := range sources {
		if source.URL != "" && m.indexByURL(source.URL) >= 0 {
			continue
		}
		if source.ID != 0 && m.indexByID(source.ID) >= 0 {
			continue
		}
		if source.ID == 0 {
			m.nextID++
			source.ID = m.nextID
		} else if source.ID > m.nextID {
			m.nextID = source.ID
		}
		m.sources = append(m.sources, source)
		added++
	}
	return added, nil
}

func (m *Memory) ListEnabled(_ context.Context) ([]domain.Source, error) {
	return m.filter(func(s domain.Source) bool { return s.Enabled }), nil
}

func (m *Memory) ListDisabled(_ context.Context) ([]domain.Source, error) {
	return m.filter(func(s domain.Source) bool { return !s.Enabled }), nil
}

func (m *Memory) ListAll(_ context.Context) ([]domain.Source, error) {
	return m.filter(func(domain.Source) bool { return true }), nil
}

func (m *Memory) Get(_ context.Context, id int64) (domain.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.indexByID(id); i >= 0 {
		return m.sources[i], nil
	}
	return domain.Source{}, domain.ErrNotFound
}

func (m *Memory) RecordFetch(_ context.Context, id int64, at time.Time, articles int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexByID(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	m.sources[i].LastFetched = at
	m.sources[i].ArticleCount += articles
	return nil
}

func (m *Memory) SetEnabled(_ context.Context, id int64, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexByID(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	m.sources[i].Enabled = enabled
	return nil
}

func (m *Memory) Append(_ context.Context, event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if event.At.IsZero() {
		event.At = m.now()
	}
	event.ID = int64(len(m.events) + 1)
	m.events = append(m.events, event)
	return nil
}

func (m *Memory) CountErrors(_ context.Context, sourceID int64, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, event := range m.events {
		if event.SourceID == sourceID && event.Kind.IsFetchError() && !event.At.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *Memory) LatestError(_ context.Context, sourceID int64) (domain.Event, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		latest domain.Event
		found  bool
	)
	for _, event := range m.events {
		if event.SourceID != sourceID || !event.Kind.IsFetchError() {
			continue
		}
		if !found || !event.At.Before(latest.At) {
			latest, found = event, true
		}
	}
	return latest, found, nil
}

// Events returns a copy of the event log, oldest first.
func (m *Memory) Events() []domain.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.events)
}

// Articles returns a copy of the stored articles in insertion order.
func (m *Memory) Articles() []domain.StoredArticle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.articles)
}

func (m *Memory) ExistsByTitle(_ context.Context, title string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byTitle[title]
	return ok, nil
}

func (m *Memory) CreatePending(_ context.Context, article domain.StoredArticle) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byTitle[article.Title]; ok {
		return 0, domain.ErrDuplicate
	}
	return m.insert(article), nil
}

// CreatePendingBatch inserts every article or none; any duplicate title aborts the batch.
func (m *Memory) CreatePendingBatch(_ context.Context, articles []domain.StoredArticle) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]struct{}, len(articles))
	for _, article := range articles {
		if _, ok := m.byTitle[article.Title]; ok {
			return nil, domain.ErrDuplicate
		}
		if _, ok := seen[article.Title]; ok {
			return nil, domain.ErrDuplicate
		}
		seen[article.Title] = struct{}{}
	}

	ids := make([]int64, 0, len(articles))
	for _, article := range articles {
		ids = append(ids, m.insert(article))
	}
	return ids, nil
}

func (m *Memory) insert(article domain.StoredArticle) int64 {
	article.ID = int64(len(m.articles) + 1)
	article.Status = domain.StatusPending
	if article.CreatedAt.IsZero() {
		article.CreatedAt = m.now()
	}
	m.articles = append(m.articles, article)
	m.byTitle[article.Title] = article.ID
	return article.ID
}

func (m *Memory) filter(keep func(domain.Source) bool) []domain.Source {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Source, 0, len(m.sources))
	for _, source := range m.sources {
		if keep(source) {
			out = append(out, source)
		}
	}
	return out
}

func (m *Memory) indexByID(id int64) int {
	for i := range m.sources {
		if m.sources[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Memory) indexByURL(rawURL string) int {
	for i := range m.sources {
		if m.sources[i].URL == rawURL {
			return i
		}
	}
	return -1
}
