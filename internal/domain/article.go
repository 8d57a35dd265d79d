package domain

import "time"

// Candidate is a transient extraction result waiting for deduplication.
type Candidate struct {
	Title      string
	URL        string
	Summary    string
	Body       string
	ImageURL   string
	SourceID   int64
	SourceName string
	Published  time.Time
}

// Entry is a raw feed item or discovered link before relevance filtering.
type Entry struct {
	Title     string
	URL       string
	Summary   string
	Published time.Time
}

// Extraction is the outcome of a single extractor call.
// Entries counts what the source offered; Candidates holds the relevant subset.
type Extraction struct {
	Entries    int
	Candidates []Candidate
}

// ArticleStatus enumerates stored article lifecycle states.
type ArticleStatus string

const (
	StatusPending ArticleStatus = "pending"
	StatusPosted  ArticleStatus = "posted"
	StatusFailed  ArticleStatus = "failed"
)

// StoredArticle is a persisted record keyed by its title.
type StoredArticle struct {
	ID         int64
	Title      string
	Body       string
	URL        string
	ImageURL   string
	SourceName string
	Status     ArticleStatus
	CreatedAt  time.Time
}
