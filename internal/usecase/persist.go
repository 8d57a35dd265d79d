package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/ports"
)

// PersisterDeps wires the persistence step.
type PersisterDeps struct {
	Store     ports.ArticleStore
	Events    ports.EventLog
	Formatter ports.Formatter
	Logger    *slog.Logger
	Now       func() time.Time
}

// Persister deduplicates candidates by title and stores survivors as pending records.
type Persister struct {
	store     ports.ArticleStore
	events    ports.EventLog
	formatter ports.Formatter
	logger    *slog.Logger
	now       func() time.Time
}

// PersistReport counts what happened to one batch.
type PersistReport struct {
	Received   int     `json:"received"`
	Skipped    int     `json:"skipped"`
	Duplicates int     `json:"duplicates"`
	Saved      int     `json:"saved"`
	Failed     int     `json:"failed"`
	IDs        []int64 `json:"ids,omitempty"`
}

type pendingRecord struct {
	candidate domain.Candidate
	article   domain.StoredArticle
}

// NewPersister constructs the persistence step.
func NewPersister(deps PersisterDeps) *Persister {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Persister{
		store:     deps.Store,
		events:    deps.Events,
		formatter: deps.Formatter,
		logger:    logger,
		now:       now,
	}
}

// Persist stores the batch. The first candidate with a given title wins; known titles are dropped.
// A failed batch commit falls back to one insert per record so nothing is dropped silently.
func (p *Persister) Persist(ctx context.Context, candidates []domain.Candidate) PersistReport {
	report := PersistReport{Received: len(candidates)}
	if len(candidates) == 0 {
		return report
	}

	pending := p.accept(ctx, candidates, &report)
	if len(pending) == 0 {
		return report
	}

	articles := make([]domain.StoredArticle, 0, len(pending))
	for _, rec := range pending {
		articles = append(articles, rec.article)
	}

	ids, err := p.store.CreatePendingBatch(ctx, articles)
	if err == nil {
		for i, rec := range pending {
			p.saved(ctx, rec, ids[i], &report)
		}
		return report
	}

	p.logger.Warn("batch insert failed, retrying one by one", "records", len(pending), "error", err)
	for _, rec := range pending {
		id, err := p.store.CreatePending(ctx, rec.article)
		switch {
		case err == nil:
			p.saved(ctx, rec, id, &report)
		case errors.Is(err, domain.ErrDuplicate):
			report.Duplicates++
		default:
			report.Failed++
			p.logger.Error("article could not be saved", "title", rec.article.Title, "source", rec.article.SourceName, "error", err)
			p.append(ctx, domain.Event{
				SourceID: rec.candidate.SourceID,
				Kind:     domain.EventStoreError,
				Message:  "Failed to save article: " + rec.article.Title + ": " + err.Error(),
			})
		}
	}
	return report
}

func (p *Persister) accept(ctx context.Context, candidates []domain.Candidate, report *PersistReport) []pendingRecord {
	seen := make(map[string]struct{}, len(candidates))
	pending := make([]pendingRecord, 0, len(candidates))

	for _, c := range candidates {
		title := strings.TrimSpace(c.Title)
		if title == "" {
			report.Skipped++
			continue
		}
		if _, ok := seen[title]; ok {
			report.Duplicates++
			continue
		}
		seen[title] = struct{}{}

		exists, err := p.store.ExistsByTitle(ctx, title)
		if err != nil {
			// the unique title constraint still catches a duplicate at insert time
			p.logger.Warn("title lookup failed", "title", title, "error", err)
		}
		if exists {
			report.Duplicates++
			continue
		}

		pending = append(pending, pendingRecord{
			candidate: c,
			article: domain.StoredArticle{
				Title:      title,
				Body:       p.format(ctx, c, title),
				URL:        c.URL,
				ImageURL:   c.ImageURL,
				SourceName: c.SourceName,
				Status:     domain.StatusPending,
			},
		})
	}
	return pending
}

func (p *Persister) format(ctx context.Context, c domain.Candidate, title string) string {
	if p.formatter != nil {
		text, err := p.formatter.FormatForPublication(ctx, title, c.Body, c.URL, c.SourceName)
		if err == nil && strings.TrimSpace(text) != "" {
			return text
		}
		if err != nil {
			p.logger.Debug("formatter failed, using basic format", "title", title, "error", err)
		}
	}
	return BasicFormat(title, c.Body, c.URL, c.SourceName)
}

func (p *Persister) saved(ctx context.Context, rec pendingRecord, id int64, report *PersistReport) {
	report.Saved++
	report.IDs = append(report.IDs, id)
	p.append(ctx, domain.Event{
		SourceID: rec.candidate.SourceID,
		Kind:     domain.EventFetch,
		Message:  "Saved article: " + rec.article.Title,
	})
}

func (p *Persister) append(ctx context.Context, event domain.Event) {
	if p.events == nil {
		return
	}
	event.At = p.now()
	if err := p.events.Append(ctx, event); err != nil {
		p.logger.Warn("append event failed", "kind", event.Kind, "error", err)
	}
}
