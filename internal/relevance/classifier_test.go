package relevance

import (
	"slices"
	"testing"
)

func TestIsRelevantSignals(t *testing.T) {
	t.Parallel()

	c := Default()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"domain keyword", "Trucking rates climb in spring", true},
		{"keyword is case-insensitive", "TRUCKER SHORTAGE DEEPENS", true},
		{"industry term alone", "FMCSA proposes new rule", true},
		{"transport and region", "Ports transport backlog hits United States", true},
		{"transport and business", "Company expands transport network", true},
		{"irrelevant local news", "local bakery opens", false},
		{"transport without context", "Ships sail at dawn", false},
		{"region without transport", "Federal court rules on election", false},
		{"empty text", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := c.IsRelevant(tt.text); got != tt.want {
				t.Fatalf("IsRelevant(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsRelevantIgnoresTermOrder(t *testing.T) {
	t.Parallel()

	vocab := DefaultVocabulary()
	reversed := Vocabulary{
		Keywords:       reverse(vocab.Keywords),
		IndustryTerms:  reverse(vocab.IndustryTerms),
		TransportTerms: reverse(vocab.TransportTerms),
		RegionTerms:    reverse(vocab.RegionTerms),
		BusinessTerms:  reverse(vocab.BusinessTerms),
	}

	forward, backward := New(vocab), New(reversed)
	texts := []string{
		"Freight volumes drop",
		"CDL testing changes",
		"New delivery hub in America",
		"Retail company ships more",
		"Weather update for the weekend",
		"Museum hosts art show",
	}

	for _, text := range texts {
		first := forward.IsRelevant(text)
		if second := backward.IsRelevant(text); first != second {
			t.Fatalf("order changed result for %q: %v vs %v", text, first, second)
		}
		if again := forward.IsRelevant(text); again != first {
			t.Fatalf("non-deterministic result for %q", text)
		}
	}
}

func TestZeroClassifierMatchesNothing(t *testing.T) {
	t.Parallel()

	var c *Classifier
	if c.IsRelevant("trucking") {
		t.Fatal("nil classifier should not match")
	}
	if (&Classifier{}).IsRelevant("trucking") {
		t.Fatal("empty vocabulary should not match")
	}
}

func TestText(t *testing.T) {
	t.Parallel()

	if got := Text("Title", "summary"); got != "Title summary" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func reverse(in []string) []string {
	out := slices.Clone(in)
	slices.Reverse(out)
	return out
}
