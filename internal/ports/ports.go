package ports

import (
	"context"
	"time"

	"NewsFetcher/internal/domain"
)

// SourceRegistry reads sources and updates the fields the ingestion core owns.
type SourceRegistry interface {
	ListEnabled(ctx context.Context) ([]domain.Source, error)
	ListDisabled(ctx context.Context) ([]domain.Source, error)
	ListAll(ctx context.Context) ([]domain.Source, error)
	Get(ctx context.Context, id int64) (domain.Source, error)
	// RecordFetch stamps last_fetched and adds articles to the lifetime count.
	RecordFetch(ctx context.Context, id int64, at time.Time, articles int) error
	SetEnabled(ctx context.Context, id int64, enabled bool) error
}

// EventLog is the append-only audit/error log.
type EventLog interface {
	Append(ctx context.Context, event domain.Event) error
	// CountErrors counts fetch-error events for a source at or after since.
	CountErrors(ctx context.Context, sourceID int64, since time.Time) (int, error)
	// LatestError returns the most recent fetch-error event; ok is false when none exists.
	LatestError(ctx context.Context, sourceID int64) (event domain.Event, ok bool, err error)
}

// ArticleStore creates pending records and answers title lookups.
type ArticleStore interface {
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	CreatePending(ctx context.Context, article domain.StoredArticle) (int64, error)
	// CreatePendingBatch stores all articles or none of them.
	CreatePendingBatch(ctx context.Context, articles []domain.StoredArticle) ([]int64, error)
}

// Formatter turns an accepted candidate into publication text.
type Formatter interface {
	FormatForPublication(ctx context.Context, title, body, url, sourceName string) (string, error)
}

// Extractor pulls candidates from a single source.
type Extractor interface {
	Extract(ctx context.Context, source domain.Source) (domain.Extraction, error)
	// Preview lists raw entries without enrichment fetches.
	Preview(ctx context.Context, source domain.Source) ([]domain.Entry, error)
}

// FeedValidator checks a feed URL ahead of registration.
type FeedValidator interface {
	ValidateFeedURL(ctx context.Context, rawURL string) domain.FeedValidation
}

// RateLimiter spaces outbound requests.
type RateLimiter interface {
	Acquire(ctx context.Context) error
}

// Notifier streams operational messages to Telegram or other channels.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Scheduler controls when runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
