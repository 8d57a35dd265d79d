package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"NewsFetcher/internal/relevance"
)

func TestValidateFeedURL(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/rss", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFeed("https://example.com",
			rssItem("Trucking rates climb", "https://example.com/a", "update"),
			rssItem("Weekend weather", "https://example.com/b", "sunny"),
		)))
	})
	mux.HandleFunc("/private/rss", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(rssFeed("https://example.com", `<item><title>Garden show</title></item>`)))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(rssFeed("https://example.com")))
	})
	mux.HandleFunc("/html", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	v := NewValidator(newTestFetcher(), relevance.Default())
	ctx := context.Background()

	t.Run("valid feed", func(t *testing.T) {
		got := v.ValidateFeedURL(ctx, srv.URL+"/rss")
		if !got.IsValid || len(got.Issues) != 0 {
			t.Fatalf("expected valid, got %+v", got)
		}
		if got.EntryCount != 2 || len(got.Samples) != 2 || got.FeedTitle != "Freight Wire" || got.FeedType != "rss" {
			t.Fatalf("unexpected result: %+v", got)
		}
		if !got.Samples[0].Relevant || got.Samples[1].Relevant {
			t.Fatalf("unexpected relevance flags: %+v", got.Samples)
		}
		if len(got.Warnings) != 0 {
			t.Fatalf("unexpected warnings: %v", got.Warnings)
		}
	})

	t.Run("warnings do not invalidate", func(t *testing.T) {
		got := v.ValidateFeedURL(ctx, srv.URL+"/private/rss")
		if !got.IsValid {
			t.Fatalf("warnings alone should keep the feed valid: %+v", got)
		}
		joined := strings.Join(got.Warnings, "\n")
		for _, want := range []string{"content type", "missing a title or link", "no publication dates", "relevant", "robots.txt"} {
			if !strings.Contains(joined, want) {
				t.Fatalf("expected warning containing %q, got %v", want, got.Warnings)
			}
		}
	})

	t.Run("empty feed", func(t *testing.T) {
		got := v.ValidateFeedURL(ctx, srv.URL+"/empty")
		if got.IsValid || len(got.Issues) != 1 {
			t.Fatalf("expected one issue, got %+v", got)
		}
	})

	t.Run("not a feed", func(t *testing.T) {
		got := v.ValidateFeedURL(ctx, srv.URL+"/html")
		if got.IsValid || !strings.Contains(got.Issues[0], "parse") {
			t.Fatalf("expected parse issue, got %+v", got)
		}
	})

	t.Run("bad url", func(t *testing.T) {
		got := v.ValidateFeedURL(ctx, "ftp://example.com/feed")
		if got.IsValid || len(got.Issues) != 1 {
			t.Fatalf("expected url issue, got %+v", got)
		}
	})

	t.Run("fetch failure", func(t *testing.T) {
		got := v.ValidateFeedURL(ctx, srv.URL+"/nowhere")
		if got.IsValid || !strings.Contains(got.Issues[0], "fetch") {
			t.Fatalf("expected fetch issue, got %+v", got)
		}
	})
}
