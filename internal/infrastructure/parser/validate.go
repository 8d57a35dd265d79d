package parser

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"

	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/infrastructure/web"
	"NewsFetcher/internal/ports"
	"NewsFetcher/internal/relevance"
)

const maxSamples = 5

// Validator checks a feed URL before it is registered as a source.
type Validator struct {
	fetcher    *web.Fetcher
	classifier *relevance.Classifier
}

var _ ports.FeedValidator = (*Validator)(nil)

// NewValidator wires the shared fetcher and classifier.
func NewValidator(fetcher *web.Fetcher, classifier *relevance.Classifier) *Validator {
	return &Validator{fetcher: fetcher, classifier: classifier}
}

// ValidateFeedURL never fails; problems are reported as issues (blocking) or warnings.
func (v *Validator) ValidateFeedURL(ctx context.Context, rawURL string) domain.FeedValidation {
	result := domain.FeedValidation{URL: rawURL, Issues: []string{}, Warnings: []string{}, Samples: []domain.SampleEntry{}}

	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		result.Issues = append(result.Issues, "Invalid URL format: must be an absolute http(s) URL")
		return result
	}

	page, err := v.fetcher.Get(ctx, parsed.String())
	if err != nil {
		result.Issues = append(result.Issues, fmt.Sprintf("Failed to fetch feed: %v", err))
		return result
	}

	if contentType := strings.ToLower(page.ContentType); !isFeedContentType(contentType) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Unexpected content type: %s", page.ContentType))
	}

	feed, err := parseFeed(page.Body, rawURL)
	if err != nil {
		result.Issues = append(result.Issues, fmt.Sprintf("Failed to parse feed: %v", err))
		return result
	}

	result.FeedTitle = collapse(feed.Title)
	result.FeedType = feed.FeedType
	result.EntryCount = len(feed.Items)

	if len(feed.Items) == 0 {
		result.Issues = append(result.Issues, "Feed contains no entries")
	}

	var incomplete, dated, relevant int
	for _, item := range feed.Items {
		entry := toEntry(item)
		if entry.Title == "" || entry.URL == "" {
			incomplete++
		}
		if !entry.Published.IsZero() {
			dated++
		}
		isRelevant := v.classifier.IsRelevant(relevance.Text(entry.Title, entry.Summary))
		if isRelevant {
			relevant++
		}
		if len(result.Samples) < maxSamples {
			result.Samples = append(result.Samples, domain.SampleEntry{
				Title:     entry.Title,
				URL:       entry.URL,
				Published: entry.Published,
				Relevant:  isRelevant,
			})
		}
	}

	if incomplete > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d entries are missing a title or link", incomplete))
	}
	if len(feed.Items) > 0 && dated == 0 {
		result.Warnings = append(result.Warnings, "Entries carry no publication dates")
	}
	if len(feed.Items) > 0 && relevant == 0 {
		result.Warnings = append(result.Warnings, "No entries look relevant to trucking or logistics")
	}
	if !v.robotsAllow(ctx, parsed) {
		result.Warnings = append(result.Warnings, "robots.txt disallows this path for our user agent")
	}

	result.IsValid = len(result.Issues) == 0
	return result
}

// robotsAllow treats a missing or unreadable robots.txt as allow-all.
func (v *Validator) robotsAllow(ctx context.Context, target *url.URL) bool {
	robotsURL := url.URL{Scheme: target.Scheme, Host: target.Host, Path: "/robots.txt"}
	page, err := v.fetcher.Get(ctx, robotsURL.String())
	if err != nil {
		return true
	}

	data, err := robotstxt.FromStatusAndBytes(page.StatusCode, page.Body)
	if err != nil {
		return true
	}

	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, v.fetcher.UserAgent())
}

func isFeedContentType(contentType string) bool {
	for _, marker := range []string{"xml", "rss", "atom", "json"} {
		if strings.Contains(contentType, marker) {
			return true
		}
	}
	return false
}
