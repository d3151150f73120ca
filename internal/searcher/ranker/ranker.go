// Package ranker orders search results for presentation: matching results
// only, highest score first, ties broken by ascending document ID.
package ranker

import (
	"container/heap"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher"
)

// Rank keeps the results with a positive score and orders them. With
// limit > 0 only the top limit results are returned, selected with a
// bounded heap.
func Rank(results []searcher.Result, limit int) []searcher.Result {
	matches := make([]searcher.Result, 0, len(results))
	for _, r := range results {
		if r.Matches() {
			matches = append(matches, r)
		}
	}
	if limit <= 0 || len(matches) <= limit {
		sort.Slice(matches, func(i, j int) bool {
			return before(matches[i], matches[j])
		})
		return matches
	}
	return topK(matches, limit)
}

// Count is the number of results with a positive score.
func Count(results []searcher.Result) int {
	n := 0
	for _, r := range results {
		if r.Matches() {
			n++
		}
	}
	return n
}

func before(a, b searcher.Result) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Doc.ID < b.Doc.ID
}

func topK(results []searcher.Result, k int) []searcher.Result {
	h := &resultHeap{}
	for _, r := range results {
		heap.Push(h, r)
		if h.Len() > k {
			heap.Pop(h)
		}
	}
	out := make([]searcher.Result, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(searcher.Result)
	}
	return out
}

// resultHeap is a min-heap in ranking order: the root is the result that
// would be ranked last.
type resultHeap []searcher.Result

func (h resultHeap) Len() int           { return len(h) }
func (h resultHeap) Less(i, j int) bool { return before(h[j], h[i]) }
func (h resultHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *resultHeap) Push(x any) {
	*h = append(*h, x.(searcher.Result))
}

func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
