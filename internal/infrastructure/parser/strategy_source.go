package parser

import (
	"context"
	"fmt"
	"log/slog"

	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/ports"
	"NewsFetcher/internal/scanner"
)

// StrategySource implements ports.Extractor by dispatching each source to the extractor of its kind.
type StrategySource struct {
	registry *scanner.Registry
	logger   *slog.Logger
}

var _ ports.Extractor = (*StrategySource)(nil)

// NewStrategySource wires the extractor registry.
func NewStrategySource(reg *scanner.Registry, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		logger:   log,
	}
}

// Extract resolves the strategy for source.Kind and runs it.
func (s *StrategySource) Extract(ctx context.Context, source domain.Source) (domain.Extraction, error) {
	strategy, err := s.resolve(source)
	if err != nil {
		return domain.Extraction{}, err
	}

	s.debug("extract source", "source", source.Name, "kind", source.Kind)
	result, err := strategy.Extract(ctx, source)
	if err != nil {
		return domain.Extraction{}, err
	}
	s.debug("source produced candidates", "source", source.Name, "entries", result.Entries, "candidates", len(result.Candidates))
	return result, nil
}

// Preview resolves the strategy for source.Kind and lists its raw entries.
func (s *StrategySource) Preview(ctx context.Context, source domain.Source) ([]domain.Entry, error) {
	strategy, err := s.resolve(source)
	if err != nil {
		return nil, err
	}
	return strategy.Preview(ctx, source)
}

func (s *StrategySource) resolve(source domain.Source) (scanner.Extractor, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("extractor registry is not configured")
	}
	strategy, err := s.registry.Resolve(source.Kind)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source.Name, err)
	}
	return strategy, nil
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
