package stopword

import (
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analysis/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/document"
)

// FrequencyTable holds the document frequency of every normalised term in a
// collection.
type FrequencyTable struct {
	df    map[string]int
	total int
}

// NewFrequencyTable counts, for each normalised raw term, the number of
// documents containing it at least once.
func NewFrequencyTable(c *document.Collection) *FrequencyTable {
	ft := &FrequencyTable{df: make(map[string]int), total: c.Len()}
	for _, d := range c.Documents() {
		seen := make(map[string]struct{})
		for _, t := range d.Terms(document.Raw) {
			n := tokenizer.Normalize(t)
			if n == "" {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			ft.df[n]++
		}
	}
	return ft
}

// Fraction is the share of documents containing term, or 0 for an empty
// collection.
func (ft *FrequencyTable) Fraction(term string) float64 {
	if ft.total == 0 {
		return 0
	}
	return float64(ft.df[term]) / float64(ft.total)
}

// Band returns the predicate that marks a term as a stopword when its
// fraction is >= common or <= rare. Both bounds are inclusive.
func (ft *FrequencyTable) Band(common, rare float64) Predicate {
	return func(term string) bool {
		f := ft.Fraction(term)
		return f >= common || f <= rare
	}
}

// Stopwords lists the collection vocabulary that falls outside the
// (rare, common) band.
func (ft *FrequencyTable) Stopwords(common, rare float64) Set {
	isStop := ft.Band(common, rare)
	s := make(Set)
	for term := range ft.df {
		if isStop(term) {
			s[term] = struct{}{}
		}
	}
	return s
}

// CommonRare returns the collection terms whose document fraction is
// >= common or <= rare.
func CommonRare(c *document.Collection, common, rare float64) Set {
	return NewFrequencyTable(c).Stopwords(common, rare)
}

// FilterByFrequency filters doc's raw terms by their document fraction in c,
// stores the result as doc's filtered view and returns it. doc need not
// belong to c; terms c has never seen have fraction 0.
func FilterByFrequency(doc *document.Document, c *document.Collection, common, rare float64) []string {
	ft := NewFrequencyTable(c)
	kept := Apply(doc.Terms(document.Raw), ft.Band(common, rare))
	doc.SetFiltered(kept)
	return kept
}

// FilterCollectionByFrequency builds the frequency table once and stores the
// filtered view on every document. It returns the number of term
// occurrences removed.
func FilterCollectionByFrequency(c *document.Collection, common, rare float64) int {
	ft := NewFrequencyTable(c)
	return filterCollection(c, ft.Band(common, rare))
}
