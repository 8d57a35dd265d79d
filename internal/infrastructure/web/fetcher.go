// Package web issues rate-limited HTTP GETs for the extractors and diagnostics.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/ports"
)

const (
	// DefaultUserAgent looks like a desktop browser; several trade sites reject bot agents outright.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultTimeout   = 20 * time.Second
	defaultMaxBytes  = 5 << 20
	maxRedirects     = 5
)

// Options tunes the fetcher; zero values fall back to defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
}

// Page is a fetched 2xx response body.
type Page struct {
	Body        []byte
	FinalURL    string
	ContentType string
	StatusCode  int
}

// Fetcher performs GETs through a shared rate limiter.
type Fetcher struct {
	client    *http.Client
	limiter   ports.RateLimiter
	userAgent string
	maxBytes  int64
}

// NewFetcher creates a Fetcher. A nil limiter means no spacing.
func NewFetcher(limiter ports.RateLimiter, opts Options) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		limiter:   limiter,
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

// UserAgent returns the agent sent with every request.
func (f *Fetcher) UserAgent() string {
	return f.userAgent
}

// Get waits for the limiter, then fetches rawURL. Non-2xx responses are *domain.StatusError.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Page, error) {
	if f.limiter != nil {
		if err := f.limiter.Acquire(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/rss+xml,application/atom+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &domain.StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", rawURL, err)
	}

	return &Page{
		Body:        body,
		FinalURL:    resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}, nil
}
