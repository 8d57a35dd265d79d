package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/infrastructure/web"
	"NewsFetcher/internal/relevance"
	"NewsFetcher/internal/scanner"
)

const (
	defaultMaxPageLinks      = 20
	defaultMinLinkTextLength = 10
)

// PageOptions tunes link discovery.
type PageOptions struct {
	MaxLinks int
	// MinLinkTextLength is exclusive: link text must be longer than this.
	MinLinkTextLength int
}

// PageExtractor discovers article links on a listing page and extracts each one.
type PageExtractor struct {
	fetcher     *web.Fetcher
	classifier  *relevance.Classifier
	maxLinks    int
	minLinkText int
	logger      *slog.Logger
}

var _ scanner.Extractor = (*PageExtractor)(nil)

type link struct {
	URL  string
	Text string
}

// NewPageExtractor wires the shared fetcher and classifier.
func NewPageExtractor(fetcher *web.Fetcher, classifier *relevance.Classifier, opts PageOptions, logger *slog.Logger) *PageExtractor {
	maxLinks := opts.MaxLinks
	if maxLinks <= 0 {
		maxLinks = defaultMaxPageLinks
	}
	minLinkText := opts.MinLinkTextLength
	if minLinkText <= 0 {
		minLinkText = defaultMinLinkTextLength
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PageExtractor{
		fetcher:     fetcher,
		classifier:  classifier,
		maxLinks:    maxLinks,
		minLinkText: minLinkText,
		logger:      logger,
	}
}

// Kind identifies the strategy inside the registry.
func (p *PageExtractor) Kind() domain.SourceKind {
	return domain.KindPage
}

// Extract fails only when the root page cannot be fetched or parsed; broken links are skipped.
func (p *PageExtractor) Extract(ctx context.Context, source domain.Source) (domain.Extraction, error) {
	links, err := p.discover(ctx, source)
	if err != nil {
		return domain.Extraction{}, err
	}

	result := domain.Extraction{Entries: len(links)}
	for _, l := range links {
		if !p.accepts(l) {
			continue
		}
		c, err := p.extractLink(ctx, source, l)
		if err != nil {
			p.logger.Debug("link extraction failed", "source", source.Name, "link", l.URL, "error", err)
			continue
		}
		result.Candidates = append(result.Candidates, c)
	}

	p.logger.Debug("page extracted", "source", source.Name, "links", result.Entries, "relevant", len(result.Candidates))
	return result, nil
}

// Preview lists discovered links; the link text stands in for the title.
func (p *PageExtractor) Preview(ctx context.Context, source domain.Source) ([]domain.Entry, error) {
	links, err := p.discover(ctx, source)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.Entry, 0, len(links))
	for _, l := range links {
		entries = append(entries, domain.Entry{Title: l.Text, URL: l.URL})
	}
	return entries, nil
}

func (p *PageExtractor) discover(ctx context.Context, source domain.Source) ([]link, error) {
	page, err := p.fetcher.Get(ctx, source.URL)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", source.Name, err)
	}
	links, err := discoverLinks(page.Body, page.FinalURL, p.maxLinks)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", source.Name, &domain.ParseError{URL: source.URL, Cause: err})
	}
	return links, nil
}

func (p *PageExtractor) accepts(l link) bool {
	return len([]rune(l.Text)) > p.minLinkText && p.classifier.IsRelevant(l.Text)
}

func (p *PageExtractor) extractLink(ctx context.Context, source domain.Source, l link) (domain.Candidate, error) {
	parsed, body, err := readArticle(ctx, p.fetcher, l.URL)
	if err != nil {
		if body == nil {
			return domain.Candidate{}, err
		}
		parsed, err = scrapeArticle(body)
		if err != nil {
			return domain.Candidate{}, err
		}
	}

	if parsed.Text == "" {
		return domain.Candidate{}, errors.New("no article text")
	}
	if parsed.Title == "" {
		parsed.Title = l.Text
	}

	return domain.Candidate{
		Title:      parsed.Title,
		URL:        l.URL,
		Summary:    truncate(parsed.Text, summaryLimit),
		Body:       truncate(parsed.Text, bodyLimit),
		ImageURL:   parsed.Image,
		SourceID:   source.ID,
		SourceName: source.Name,
	}, nil
}

// discoverLinks returns up to limit distinct http(s) links in document order, resolved against pageURL.
func discoverLinks(body []byte, pageURL string, limit int) ([]link, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	self := stripFragment(base)
	seen := map[string]struct{}{}
	links := make([]link, 0, limit)

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}

		target := stripFragment(resolved)
		if target == self {
			return true
		}
		if _, ok := seen[target]; ok {
			return true
		}
		seen[target] = struct{}{}

		links = append(links, link{URL: target, Text: collapse(sel.Text())})
		return len(links) < limit
	})

	return links, nil
}

func stripFragment(u *url.URL) string {
	clean := *u
	clean.Fragment = ""
	clean.RawFragment = ""
	return clean.String()
}
