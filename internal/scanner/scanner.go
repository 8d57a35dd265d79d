package scanner

import (
	"context"
	"fmt"

	"NewsFetcher/internal/domain"
)

// Extractor captures a single extraction strategy (feed, page, etc.).
type Extractor interface {
	Kind() domain.SourceKind
	Extract(ctx context.Context, source domain.Source) (domain.Extraction, error)
	Preview(ctx context.Context, source domain.Source) ([]domain.Entry, error)
}

// Registry keeps a mapping from source kinds to their extractors.
type Registry struct {
	extractors map[domain.SourceKind]Extractor
}

// NewRegistry builds a registry with the given extractors.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{extractors: map[domain.SourceKind]Extractor{}}
	for _, extractor := range extractors {
		r.Register(extractor)
	}
	return r
}

// Register adds or replaces an extractor implementation.
func (r *Registry) Register(extractor Extractor) {
	if r.extractors == nil {
		r.extractors = map[domain.SourceKind]Extractor{}
	}
	r.extractors[extractor.Kind()] = extractor
}

// Resolve returns the extractor for kind or an error if it is absent.
func (r *Registry) Resolve(kind domain.SourceKind) (Extractor, error) {
	if extractor, ok := r.extractors[kind]; ok {
		return extractor, nil
	}
	return nil, fmt.Errorf("no extractor registered for kind %q", kind)
}
