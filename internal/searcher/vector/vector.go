// Package vector implements ranked retrieval in the vector space model.
// Documents and the query are weighted by tf-idf over the distinct query
// terms and compared by cosine similarity.
package vector

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analysis/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/document"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher"
)

// IDF is the smoothed inverse document frequency ln((n+1)/(df+1)) + 1 for a
// term found in df of n documents. It is always positive.
func IDF(n, df int) float64 {
	return math.Log(float64(n+1)/float64(df+1)) + 1
}

// Cosine is dot(a,b)/(|a||b|), or 0 when either vector has zero norm.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// QueryTerms splits query on whitespace and lower-cases it; with stemmed set
// each term is stemmed with the collection stemmer. Query terms are never
// stopword-filtered.
func QueryTerms(query string, c *document.Collection, stemmed bool) []string {
	terms := tokenizer.QueryTerms(query)
	if stemmed {
		for i, t := range terms {
			terms[i] = c.StemQuery(t)
		}
	}
	return terms
}

// Search scores every document in c against query over the (filtered,
// stemmed) view. One result per document is returned in collection order;
// an empty collection yields an empty slice.
func Search(query string, c *document.Collection, filtered, stemmed bool) []searcher.Result {
	if c.Len() == 0 {
		return []searcher.Result{}
	}
	view := document.ViewFor(filtered, stemmed)
	idx := index.Build(c, view)
	terms, qtf := distinct(QueryTerms(query, c, stemmed))

	idf := make([]float64, len(terms))
	qvec := make([]float64, len(terms))
	for i, t := range terms {
		idf[i] = IDF(idx.DocCount(), idx.DocFreq(t))
		qvec[i] = float64(qtf[i]) * idf[i]
	}

	results := make([]searcher.Result, c.Len())
	dvec := make([]float64, len(terms))
	for i, d := range c.Documents() {
		for j, t := range terms {
			dvec[j] = float64(idx.TermFreq(i, t)) * idf[j]
		}
		results[i] = searcher.Result{Score: Cosine(dvec, qvec), Doc: d}
	}
	return results
}

// distinct returns the unique terms in first-seen order and their counts.
func distinct(terms []string) ([]string, []int) {
	pos := make(map[string]int, len(terms))
	uniq := make([]string, 0, len(terms))
	counts := make([]int, 0, len(terms))
	for _, t := range terms {
		if i, ok := pos[t]; ok {
			counts[i]++
			continue
		}
		pos[t] = len(uniq)
		uniq = append(uniq, t)
		counts = append(counts, 1)
	}
	return uniq, counts
}
