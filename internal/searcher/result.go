// Package searcher holds the result type shared by the Boolean and vector
// search packages, the ranker and the search service.
package searcher

import "github.com/Adithya-Monish-Kumar-K/docsearch/internal/document"

// Result pairs a document with its score for one query. Boolean scores are
// 0 or 1; vector scores are cosine similarities in [0, 1].
type Result struct {
	Score float64
	Doc   *document.Document
}

// Matches reports whether the result counts as a retrieved document.
func (r Result) Matches() bool {
	return r.Score > 0
}
