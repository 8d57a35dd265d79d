// Package health classifies fetch failures and turns the event log into per-source health decisions.
package health

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"NewsFetcher/internal/domain"
)

// Classification is the best-effort category of a fetch failure.
type Classification struct {
	Kind    domain.EventKind
	Message string
}

// textPatterns is checked in order; the first matching group wins.
var textPatterns = []struct {
	kind     domain.EventKind
	patterns []string
}{
	{domain.EventAccessDenied, []string{"403", "forbidden", "access denied"}},
	{domain.EventNotFound, []string{"404", "410", "not found"}},
	{domain.EventTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{domain.EventConnection, []string{
		"connection", "refused", "reset by peer", "no such host",
		"network is unreachable", "eof", "dial tcp", "tls handshake",
	}},
	{domain.EventParse, []string{"parse", "xml", "malformed", "failed to detect feed type"}},
}

// Classify maps an error to an event kind. Typed errors are inspected first, then the error text.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Kind: domain.EventUnknown}
	}

	return Classification{Kind: classifyKind(err), Message: err.Error()}
}

func classifyKind(err error) domain.EventKind {
	var statusErr *domain.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusForbidden, http.StatusUnauthorized:
			return domain.EventAccessDenied
		case http.StatusNotFound, http.StatusGone:
			return domain.EventNotFound
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return domain.EventTimeout
		default:
			// the message embeds the URL, which must not drive text matching
			return domain.EventUnknown
		}
	}

	var parseErr *domain.ParseError
	if errors.As(err, &parseErr) {
		return domain.EventParse
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.EventTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.EventTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return domain.EventConnection
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return domain.EventConnection
	}

	text := strings.ToLower(err.Error())
	for _, group := range textPatterns {
		for _, pattern := range group.patterns {
			if strings.Contains(text, pattern) {
				return group.kind
			}
		}
	}

	return domain.EventUnknown
}
