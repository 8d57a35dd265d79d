package domain

import "time"

// EventKind labels an audit log entry.
type EventKind string

const (
	EventFetch      EventKind = "fetch"
	EventDisable    EventKind = "disable"
	EventEnable     EventKind = "enable"
	EventStoreError EventKind = "store_error"

	EventAccessDenied EventKind = "access_denied"
	EventNotFound     EventKind = "not_found"
	EventTimeout      EventKind = "timeout"
	EventConnection   EventKind = "connection_error"
	EventParse        EventKind = "parse_error"
	EventUnknown      EventKind = "unknown"
)

// FetchErrorKinds lists the kinds produced by the error classifier.
var FetchErrorKinds = []EventKind{
	EventAccessDenied,
	EventNotFound,
	EventTimeout,
	EventConnection,
	EventParse,
	EventUnknown,
}

// IsFetchError reports whether the kind came from the error classifier.
func (k EventKind) IsFetchError() bool {
	for _, kind := range FetchErrorKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// IsPersistent reports whether the kind is not expected to resolve on its own.
func (k EventKind) IsPersistent() bool {
	return k == EventAccessDenied || k == EventNotFound
}

// Event is an append-only audit entry. SourceID 0 marks an event not tied to a source.
type Event struct {
	ID       int64
	SourceID int64
	Kind     EventKind
	Message  string
	At       time.Time
}
