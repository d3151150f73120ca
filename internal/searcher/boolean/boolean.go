// Package boolean implements exact-match retrieval. A single-term query
// matches documents whose selected term view contains the (lower-cased,
// optionally stemmed) term, even when that term is AND, OR or NOT.
// Multi-term queries combine per-term document bitmaps with the operators.
package boolean

import (
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/document"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/parser"
)

// Search runs query against the (filtered, stemmed) view of c.
//
// Unstemmed searches return one result per document in collection order,
// scored 1 on a match and 0 otherwise. Stemmed searches return only the
// matching documents, each scored 1.
func Search(query string, c *document.Collection, filtered, stemmed bool) []searcher.Result {
	view := document.ViewFor(filtered, stemmed)
	matches := Match(Plan(query), c, view)

	results := make([]searcher.Result, 0, c.Len())
	for i, d := range c.Documents() {
		hit := matches.Contains(uint32(i))
		if stemmed && !hit {
			continue
		}
		score := 0.0
		if hit {
			score = 1
		}
		results = append(results, searcher.Result{Score: score, Doc: d})
	}
	return results
}

// Plan parses query. A lone word is always a literal term, so "NOT" on its
// own looks up the word "not".
func Plan(query string) *parser.QueryPlan {
	fields := strings.Fields(query)
	if len(fields) == 1 {
		return &parser.QueryPlan{
			Terms:        fields,
			Type:         parser.QueryAND,
			ExcludeTerms: make([]string, 0),
			RawQuery:     query,
		}
	}
	return parser.Parse(query)
}

// Match evaluates plan over view and returns the matching collection
// positions.
func Match(plan *parser.QueryPlan, c *document.Collection, view document.View) *roaring.Bitmap {
	if plan.Empty() || c.Len() == 0 {
		return roaring.New()
	}
	idx := index.Build(c, view)
	normalize := func(term string) string {
		term = strings.ToLower(term)
		if view.IsStemmed() {
			term = c.StemQuery(term)
		}
		return term
	}

	result := docSet(idx, normalize(plan.Terms[0]))
	for _, term := range plan.Terms[1:] {
		set := docSet(idx, normalize(term))
		if plan.Type == parser.QueryOR {
			result.Or(set)
		} else {
			result.And(set)
		}
	}
	for _, term := range plan.ExcludeTerms {
		result.AndNot(docSet(idx, normalize(term)))
	}
	return result
}

func docSet(idx *index.MemoryIndex, term string) *roaring.Bitmap {
	bm := roaring.New()
	for _, p := range idx.Postings(term) {
		bm.Add(uint32(p.DocIndex))
	}
	return bm
}
