package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by registries when a source id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned by article stores when the title is already taken.
	ErrDuplicate = errors.New("duplicate title")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s for %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// ParseError reports a malformed feed or page.
type ParseError struct {
	URL   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }
