package domain

import (
	"fmt"
	"strings"
	"time"
)

// SourceKind selects the extraction strategy for a source.
type SourceKind string

const (
	KindFeed SourceKind = "feed"
	KindPage SourceKind = "page"
)

// ParseSourceKind accepts the canonical kinds plus the legacy "rss"/"website" names.
func ParseSourceKind(value string) (SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "feed", "rss", "atom":
		return KindFeed, nil
	case "page", "website", "web":
		return KindPage, nil
	default:
		return "", fmt.Errorf("unknown source kind %q", value)
	}
}

// Source is a configured origin of articles.
// A zero LastFetched means the source has never been fetched successfully.
type Source struct {
	ID           int64
	Name         string
	URL          string
	Kind         SourceKind
	Enabled      bool
	LastFetched  time.Time
	ArticleCount int
}
