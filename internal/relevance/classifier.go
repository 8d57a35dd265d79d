// Package relevance decides whether text belongs to the trucking and logistics domain.
package relevance

import "strings"

// Vocabulary holds the term lists of each signal. Terms are matched as lowercase substrings.
type Vocabulary struct {
	// Keywords alone make text relevant.
	Keywords []string
	// IndustryTerms are unambiguous trade terms; alone they make text relevant.
	IndustryTerms []string
	// TransportTerms need a region indicator or a business term next to them.
	TransportTerms []string
	RegionTerms    []string
	BusinessTerms  []string
}

// DefaultVocabulary is tuned for USA trucking news and favours recall over precision.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Keywords: []string{
			"trucking", "logistics", "freight", "transportation", "shipping",
			"supply chain", "cargo", "delivery", "fleet", "driver", "trucker",
			"commercial vehicle", "semi truck", "trailer", "dispatch",
		},
		IndustryTerms: []string{
			"fmcsa", "cdl", "hours of service", "electronic logging device",
			"owner-operator", "owner operator", "less-than-truckload", "truckload",
			"drayage", "big rig", "18-wheeler", "class 8", "reefer", "intermodal",
		},
		TransportTerms: []string{
			"transport", "deliver", "ship", "cargo", "fleet", "driver", "haul", "truck",
		},
		RegionTerms: []string{
			"usa", "u.s.", "united states", "america", "us ", "federal", "dot", "fmcsa",
		},
		BusinessTerms: []string{
			"industry", "business", "market", "company", "economy", "trade",
			"carrier", "rates", "tariff", "manufactur", "retail",
		},
	}
}

// Classifier is a pure relevance predicate. The zero value matches nothing.
type Classifier struct {
	vocab Vocabulary
}

// New lowercases the vocabulary once so IsRelevant stays allocation-light.
func New(vocab Vocabulary) *Classifier {
	return &Classifier{vocab: Vocabulary{
		Keywords:       lowerAll(vocab.Keywords),
		IndustryTerms:  lowerAll(vocab.IndustryTerms),
		TransportTerms: lowerAll(vocab.TransportTerms),
		RegionTerms:    lowerAll(vocab.RegionTerms),
		BusinessTerms:  lowerAll(vocab.BusinessTerms),
	}}
}

// Default returns a classifier over DefaultVocabulary.
func Default() *Classifier {
	return New(DefaultVocabulary())
}

// IsRelevant reports whether text, usually title plus summary, is on topic.
func (c *Classifier) IsRelevant(text string) bool {
	if c == nil {
		return false
	}

	lower := strings.ToLower(text)
	if containsAny(lower, c.vocab.Keywords) || containsAny(lower, c.vocab.IndustryTerms) {
		return true
	}

	if !containsAny(lower, c.vocab.TransportTerms) {
		return false
	}
	return containsAny(lower, c.vocab.RegionTerms) || containsAny(lower, c.vocab.BusinessTerms)
}

// Text joins a title and summary the same way every caller classifies them.
func Text(title, summary string) string {
	return title + " " + summary
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		out = append(out, strings.ToLower(term))
	}
	return out
}
