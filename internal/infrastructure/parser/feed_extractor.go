package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/patrickmn/go-cache"

	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/infrastructure/web"
	"NewsFetcher/internal/relevance"
	"NewsFetcher/internal/scanner"
)

const (
	defaultMaxFeedEntries = 10
	defaultEnrichTTL      = 6 * time.Hour
)

// FeedOptions tunes the feed extractor.
type FeedOptions struct {
	MaxEntries int
	// CacheTTL keeps enriched articles per link; a negative value disables the cache.
	CacheTTL time.Duration
}

// FeedExtractor reads RSS/Atom feeds and enriches relevant items from their links.
type FeedExtractor struct {
	fetcher    *web.Fetcher
	classifier *relevance.Classifier
	enriched   *cache.Cache
	maxEntries int
	logger     *slog.Logger
}

var _ scanner.Extractor = (*FeedExtractor)(nil)

// NewFeedExtractor wires the shared fetcher and classifier.
func NewFeedExtractor(fetcher *web.Fetcher, classifier *relevance.Classifier, opts FeedOptions, logger *slog.Logger) *FeedExtractor {
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxFeedEntries
	}

	var enriched *cache.Cache
	switch {
	case opts.CacheTTL > 0:
		enriched = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	case opts.CacheTTL == 0:
		enriched = cache.New(defaultEnrichTTL, 2*defaultEnrichTTL)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &FeedExtractor{
		fetcher:    fetcher,
		classifier: classifier,
		enriched:   enriched,
		maxEntries: maxEntries,
		logger:     logger,
	}
}

// Kind identifies the strategy inside the registry.
func (f *FeedExtractor) Kind() domain.SourceKind {
	return domain.KindFeed
}

// Extract returns the relevant items among the first MaxEntries of the feed.
func (f *FeedExtractor) Extract(ctx context.Context, source domain.Source) (domain.Extraction, error) {
	feed, err := f.fetchFeed(ctx, source.URL)
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("feed %s: %w", source.Name, err)
	}

	items := feed.Items
	if len(items) > f.maxEntries {
		items = items[:f.maxEntries]
	}

	result := domain.Extraction{Entries: len(items)}
	for _, item := range items {
		entry := toEntry(item)
		if !f.classifier.IsRelevant(relevance.Text(entry.Title, entry.Summary)) {
			continue
		}
		result.Candidates = append(result.Candidates, f.candidate(ctx, source, item, entry))
	}

	f.logger.Debug("feed extracted", "source", source.Name, "entries", result.Entries, "relevant", len(result.Candidates))
	return result, nil
}

// Preview lists the first MaxEntries items without enrichment.
func (f *FeedExtractor) Preview(ctx context.Context, source domain.Source) ([]domain.Entry, error) {
	feed, err := f.fetchFeed(ctx, source.URL)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", source.Name, err)
	}

	items := feed.Items
	if len(items) > f.maxEntries {
		items = items[:f.maxEntries]
	}
	entries := make([]domain.Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, toEntry(item))
	}
	return entries, nil
}

func (f *FeedExtractor) fetchFeed(ctx context.Context, rawURL string) (*gofeed.Feed, error) {
	page, err := f.fetcher.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return parseFeed(page.Body, rawURL)
}

func parseFeed(body []byte, rawURL string) (*gofeed.Feed, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.ParseError{URL: rawURL, Cause: err}
	}
	return feed, nil
}

func (f *FeedExtractor) candidate(ctx context.Context, source domain.Source, item *gofeed.Item, entry domain.Entry) domain.Candidate {
	c := domain.Candidate{
		Title:      entry.Title,
		URL:        entry.URL,
		Summary:    truncate(entry.Summary, summaryLimit),
		Body:       truncate(entry.Summary, bodyLimit),
		ImageURL:   itemImage(item),
		SourceID:   source.ID,
		SourceName: source.Name,
		Published:  entry.Published,
	}

	if enriched, ok := f.enrich(ctx, entry.URL); ok {
		if enriched.Text != "" {
			c.Body = truncate(enriched.Text, bodyLimit)
		}
		if enriched.Image != "" {
			c.ImageURL = enriched.Image
		}
	}
	return c
}

// enrich is best effort; failures only cost content richness.
func (f *FeedExtractor) enrich(ctx context.Context, link string) (article, bool) {
	if link == "" {
		return article{}, false
	}
	if f.enriched != nil {
		if cached, ok := f.enriched.Get(link); ok {
			return cached.(article), true
		}
	}

	parsed, _, err := readArticle(ctx, f.fetcher, link)
	if err != nil {
		f.logger.Debug("enrichment failed", "link", link, "error", err)
		return article{}, false
	}

	if f.enriched != nil {
		f.enriched.SetDefault(link, parsed)
	}
	return parsed, true
}

func toEntry(item *gofeed.Item) domain.Entry {
	summary := item.Description
	if summary == "" {
		summary = item.Content
	}

	entry := domain.Entry{
		Title:   collapse(item.Title),
		URL:     itemLink(item),
		Summary: htmlText(summary),
	}
	switch {
	case item.PublishedParsed != nil:
		entry.Published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		entry.Published = *item.UpdatedParsed
	}
	return entry
}

func itemLink(item *gofeed.Item) string {
	if item.Link != "" {
		return strings.TrimSpace(item.Link)
	}
	if strings.HasPrefix(item.GUID, "http") {
		return item.GUID
	}
	return ""
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enclosure := range item.Enclosures {
		if enclosure != nil && strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}
	return ""
}
