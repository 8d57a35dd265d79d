package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"NewsFetcher/internal/domain"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o wait exceeded" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	t.Parallel()

	feedURL := "https://example.com/rss.xml"

	tests := []struct {
		name string
		err  error
		want domain.EventKind
	}{
		{"403 status", &domain.StatusError{StatusCode: http.StatusForbidden, URL: feedURL}, domain.EventAccessDenied},
		{"404 status", &domain.StatusError{StatusCode: http.StatusNotFound, URL: feedURL}, domain.EventNotFound},
		{"410 status", &domain.StatusError{StatusCode: http.StatusGone, URL: feedURL}, domain.EventNotFound},
		{"504 status", &domain.StatusError{StatusCode: http.StatusGatewayTimeout, URL: feedURL}, domain.EventTimeout},
		{"503 status ignores url text", &domain.StatusError{StatusCode: http.StatusServiceUnavailable, URL: feedURL}, domain.EventUnknown},
		{"wrapped status", fmt.Errorf("fetch feed: %w", &domain.StatusError{StatusCode: 403, URL: feedURL}), domain.EventAccessDenied},
		{"parse error", &domain.ParseError{URL: feedURL, Cause: errors.New("bad token")}, domain.EventParse},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), domain.EventTimeout},
		{"net timeout", fmt.Errorf("get: %w", timeoutErr{}), domain.EventTimeout},
		{"dial error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, domain.EventConnection},
		{"dns error", &net.DNSError{Err: "no such host", Name: "nowhere.invalid"}, domain.EventConnection},
		{"text forbidden", errors.New("server said Forbidden"), domain.EventAccessDenied},
		{"text not found", errors.New("page not found"), domain.EventNotFound},
		{"text timeout", errors.New("Client.Timeout exceeded while awaiting headers"), domain.EventTimeout},
		{"text connection", errors.New("connection reset by peer"), domain.EventConnection},
		{"text feed type", errors.New("Failed to detect feed type"), domain.EventParse},
		{"anything else", errors.New("boom"), domain.EventUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Classify(tt.err)
			if got.Kind != tt.want {
				t.Fatalf("Classify(%v).Kind = %q, want %q", tt.err, got.Kind, tt.want)
			}
			if got.Message != tt.err.Error() {
				t.Fatalf("unexpected message %q", got.Message)
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	t.Parallel()

	if got := Classify(nil); got.Kind != domain.EventUnknown {
		t.Fatalf("expected unknown for nil, got %q", got.Kind)
	}
}
