package domain

import "time"

// SampleEntry previews one entry in diagnostics output.
type SampleEntry struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Published time.Time `json:"published"`
	Relevant  bool      `json:"relevant"`
}

// SourceTest is the result of an ad-hoc source check.
// Error is empty when the source answered.
type SourceTest struct {
	SourceID      int64         `json:"source_id"`
	Name          string        `json:"name"`
	URL           string        `json:"url"`
	EntryCount    int           `json:"entry_count"`
	RelevantCount int           `json:"relevant_count"`
	Samples       []SampleEntry `json:"samples"`
	Error         string        `json:"error,omitempty"`
	ErrorKind     EventKind     `json:"error_kind,omitempty"`
}

// TestSummary aggregates SourceTest results over several sources.
type TestSummary struct {
	Total         int          `json:"total_sources"`
	Working       int          `json:"working_sources"`
	TotalEntries  int          `json:"total_entries"`
	TotalRelevant int          `json:"total_relevant_entries"`
	Results       []SourceTest `json:"results"`
}

// FeedValidation is the outcome of checking a feed URL before it is registered.
type FeedValidation struct {
	URL        string        `json:"url"`
	IsValid    bool          `json:"is_valid"`
	Issues     []string      `json:"issues"`
	Warnings   []string      `json:"warnings"`
	Samples    []SampleEntry `json:"samples"`
	FeedTitle  string        `json:"feed_title,omitempty"`
	FeedType   string        `json:"feed_type,omitempty"`
	EntryCount int           `json:"entry_count"`
}
