// Package index builds an in-memory inverted index over one term view of a
// collection. Boolean search reads its posting lists; vector search reads
// term and document frequencies.
package index

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/document"
)

// MemoryIndex is immutable once built and safe for concurrent readers.
type MemoryIndex struct {
	view      document.View
	postings  map[string]PostingList
	termFreqs []map[string]int
	docLens   []int
}

// Build indexes the view of every document in c. Document indexes in the
// postings are collection positions.
func Build(c *document.Collection, view document.View) *MemoryIndex {
	m := &MemoryIndex{
		view:      view,
		postings:  make(map[string]PostingList),
		termFreqs: make([]map[string]int, c.Len()),
		docLens:   make([]int, c.Len()),
	}
	for i, d := range c.Documents() {
		m.add(i, d.Terms(view))
	}
	return m
}

func (m *MemoryIndex) add(docIndex int, terms []string) {
	termData := make(map[string]*Posting)
	order := make([]string, 0, len(terms))
	for pos, term := range terms {
		p, exists := termData[term]
		if !exists {
			p = &Posting{DocIndex: docIndex, Positions: make([]int, 0, 2)}
			termData[term] = p
			order = append(order, term)
		}
		p.Frequency++
		p.Positions = append(p.Positions, pos)
	}

	tf := make(map[string]int, len(termData))
	for _, term := range order {
		posting := termData[term]
		tf[term] = posting.Frequency
		m.postings[term] = append(m.postings[term], *posting)
	}
	m.termFreqs[docIndex] = tf
	m.docLens[docIndex] = len(terms)
}

func (m *MemoryIndex) View() document.View {
	return m.view
}

// Postings returns the posting list for term in document order, or nil.
func (m *MemoryIndex) Postings(term string) PostingList {
	return m.postings[term]
}

// DocFreq is the number of documents containing term.
func (m *MemoryIndex) DocFreq(term string) int {
	return len(m.postings[term])
}

// TermFreq is the number of occurrences of term in document docIndex.
func (m *MemoryIndex) TermFreq(docIndex int, term string) int {
	return m.termFreqs[docIndex][term]
}

// DocLen is the number of terms document docIndex has in this view.
func (m *MemoryIndex) DocLen(docIndex int) int {
	return m.docLens[docIndex]
}

func (m *MemoryIndex) DocCount() int {
	return len(m.termFreqs)
}

func (m *MemoryIndex) VocabularySize() int {
	return len(m.postings)
}

// Snapshot lists every term with its document frequency, sorted by
// descending document frequency and then by term.
func (m *MemoryIndex) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(m.postings))
	for term, postings := range m.postings {
		entries = append(entries, TermEntry{
			Term:     term,
			DocFreq:  len(postings),
			Postings: postings,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].DocFreq != entries[j].DocFreq {
			return entries[i].DocFreq > entries[j].DocFreq
		}
		return entries[i].Term < entries[j].Term
	})
	return entries
}
