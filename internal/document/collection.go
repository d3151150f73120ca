package document

import (
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analysis/stemmer"
)

// Collection is an ordered, fixed set of documents sharing one stemmer.
// Queries against the collection's stemmed views are stemmed with the same
// stemmer.
type Collection struct {
	docs    []*Document
	stemmer stemmer.Stemmer
}

type CollectionOption func(*Collection)

// WithCollectionStemmer sets the collection stemmer. Documents built with a
// different stemmer are re-stemmed when the collection is created.
func WithCollectionStemmer(s stemmer.Stemmer) CollectionOption {
	return func(c *Collection) { c.stemmer = s }
}

// NewCollection takes ownership of docs. Documents must not be shared with
// another collection.
func NewCollection(docs []*Document, opts ...CollectionOption) *Collection {
	c := &Collection{
		docs:    append([]*Document(nil), docs...),
		stemmer: stemmer.Porter{},
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, d := range c.docs {
		if d.stemmer != c.stemmer {
			d.restem(c.stemmer)
		}
	}
	return c
}

// FromTerms builds a collection whose i-th document has ID i and the given
// raw terms.
func FromTerms(termLists [][]string, opts ...CollectionOption) *Collection {
	docs := make([]*Document, len(termLists))
	for i, terms := range termLists {
		docs[i] = New(i, "", "", terms)
	}
	return NewCollection(docs, opts...)
}

func (c *Collection) Len() int {
	return len(c.docs)
}

// At returns the i-th document.
func (c *Collection) At(i int) *Document {
	return c.docs[i]
}

// Documents returns the documents in collection order. The slice is a copy;
// the documents are shared.
func (c *Collection) Documents() []*Document {
	return append([]*Document(nil), c.docs...)
}

// ByID returns the first document with the given ID.
func (c *Collection) ByID(id int) (*Document, bool) {
	if id >= 0 && id < len(c.docs) && c.docs[id].ID == id {
		return c.docs[id], true
	}
	for _, d := range c.docs {
		if d.ID == id {
			return d, true
		}
	}
	return nil, false
}

func (c *Collection) Stemmer() stemmer.Stemmer {
	return c.stemmer
}

// StemQuery stems a lower-cased query term with the collection stemmer.
func (c *Collection) StemQuery(term string) string {
	return c.stemmer.Stem(term)
}

// Filtered reports whether every document has populated filtered views.
func (c *Collection) Filtered() bool {
	for _, d := range c.docs {
		if !d.HasFiltered() {
			return false
		}
	}
	return len(c.docs) > 0
}
