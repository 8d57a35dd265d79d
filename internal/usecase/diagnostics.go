package usecase

import (
	"context"
	"fmt"

	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/health"
	"NewsFetcher/internal/ports"
	"NewsFetcher/internal/relevance"
)

const sampleLimit = 5

// Diagnostics runs ad-hoc source checks for operators.
type Diagnostics struct {
	registry   ports.SourceRegistry
	extractor  ports.Extractor
	validator  ports.FeedValidator
	classifier *relevance.Classifier
}

// NewDiagnostics wires the diagnostics use case.
func NewDiagnostics(registry ports.SourceRegistry, extractor ports.Extractor, validator ports.FeedValidator, classifier *relevance.Classifier) *Diagnostics {
	return &Diagnostics{
		registry:   registry,
		extractor:  extractor,
		validator:  validator,
		classifier: classifier,
	}
}

// TestSource previews a source without enrichment and without touching its health.
func (d *Diagnostics) TestSource(ctx context.Context, source domain.Source) domain.SourceTest {
	result := domain.SourceTest{
		SourceID: source.ID,
		Name:     source.Name,
		URL:      source.URL,
		Samples:  []domain.SampleEntry{},
	}

	entries, err := d.extractor.Preview(ctx, source)
	if err != nil {
		class := health.Classify(err)
		result.Error = err.Error()
		result.ErrorKind = class.Kind
		return result
	}

	result.EntryCount = len(entries)
	for _, entry := range entries {
		relevant := d.classifier.IsRelevant(relevance.Text(entry.Title, entry.Summary))
		if relevant {
			result.RelevantCount++
		}
		if len(result.Samples) < sampleLimit {
			result.Samples = append(result.Samples, domain.SampleEntry{
				Title:     entry.Title,
				URL:       entry.URL,
				Published: entry.Published,
				Relevant:  relevant,
			})
		}
	}
	return result
}

// TestSourceByID looks the source up first.
func (d *Diagnostics) TestSourceByID(ctx context.Context, id int64) (domain.SourceTest, error) {
	source, err := d.registry.Get(ctx, id)
	if err != nil {
		return domain.SourceTest{}, fmt.Errorf("get source %d: %w", id, err)
	}
	return d.TestSource(ctx, source), nil
}

// TestEnabled tests every enabled source in registry order.
func (d *Diagnostics) TestEnabled(ctx context.Context) (domain.TestSummary, error) {
	sources, err := d.registry.ListEnabled(ctx)
	if err != nil {
		return domain.TestSummary{}, fmt.Errorf("list enabled sources: %w", err)
	}

	summary := domain.TestSummary{Total: len(sources), Results: make([]domain.SourceTest, 0, len(sources))}
	for _, source := range sources {
		result := d.TestSource(ctx, source)
		if result.Error == "" && result.EntryCount > 0 {
			summary.Working++
		}
		summary.TotalEntries += result.EntryCount
		summary.TotalRelevant += result.RelevantCount
		summary.Results = append(summary.Results, result)
	}
	return summary, nil
}

// ValidateFeedURL checks a feed URL that is not registered yet.
func (d *Diagnostics) ValidateFeedURL(ctx context.Context, rawURL string) domain.FeedValidation {
	return d.validator.ValidateFeedURL(ctx, rawURL)
}
