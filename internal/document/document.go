// Package document holds the retrievable unit of the engine and the ordered
// collection searches run over. A Document's raw terms are fixed at
// construction; the filtered views are filled in once a stopword filter has
// run and are replaced atomically together with their stemmed counterpart.
package document

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analysis/stemmer"
)

// ErrUnknownView is the panic value (wrapped) for a View outside the four
// defined ones.
var ErrUnknownView = errors.New("unknown term view")

// View selects which of a document's four term sequences to read.
type View uint8

const (
	Raw             View = 0
	Filtered        View = 1 << 0
	Stemmed         View = 1 << 1
	FilteredStemmed      = Filtered | Stemmed
)

// ViewFor maps the (filtered, stemmed) search flags onto a View.
func ViewFor(filtered, stemmed bool) View {
	var v View
	if filtered {
		v |= Filtered
	}
	if stemmed {
		v |= Stemmed
	}
	return v
}

func (v View) IsFiltered() bool { return v&Filtered != 0 }
func (v View) IsStemmed() bool  { return v&Stemmed != 0 }

func (v View) String() string {
	switch v {
	case Raw:
		return "raw"
	case Filtered:
		return "filtered"
	case Stemmed:
		return "stemmed"
	case FilteredStemmed:
		return "filtered_stemmed"
	default:
		return fmt.Sprintf("view(%d)", uint8(v))
	}
}

// ParseView is the inverse of View.String.
func ParseView(s string) (View, error) {
	switch s {
	case "", "raw":
		return Raw, nil
	case "filtered":
		return Filtered, nil
	case "stemmed":
		return Stemmed, nil
	case "filtered_stemmed":
		return FilteredStemmed, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// Document is one retrievable unit. ID is its position in the collection it
// was loaded into.
type Document struct {
	ID      int
	Title   string
	RawText string
	Author  string
	Origin  string

	terms   []string
	stemmed []string
	stemmer stemmer.Stemmer

	mu              sync.RWMutex
	filtered        []string
	filteredStemmed []string
	hasFiltered     bool
}

type Option func(*Document)

// WithStemmer sets the stemmer used for the stemmed views. Default Porter.
func WithStemmer(s stemmer.Stemmer) Option {
	return func(d *Document) { d.stemmer = s }
}

func WithAuthor(author string) Option {
	return func(d *Document) { d.Author = author }
}

func WithOrigin(origin string) Option {
	return func(d *Document) { d.Origin = origin }
}

// New builds a document from its raw terms. Terms are lower-cased and
// copied; the stemmed view is computed immediately.
func New(id int, title, rawText string, terms []string, opts ...Option) *Document {
	d := &Document{
		ID:      id,
		Title:   title,
		RawText: rawText,
		stemmer: stemmer.Porter{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.terms = make([]string, len(terms))
	for i, t := range terms {
		d.terms[i] = strings.ToLower(t)
	}
	d.stemmed = stemmer.StemAll(d.stemmer, d.terms)
	return d
}

// Terms returns a copy of the requested view. The filtered views are empty
// until SetFiltered has been called. Terms panics with ErrUnknownView for a
// view outside the four defined values.
func (d *Document) Terms(v View) []string {
	var src []string
	switch v {
	case Raw:
		src = d.terms
	case Stemmed:
		src = d.stemmed
	case Filtered, FilteredStemmed:
		d.mu.RLock()
		if v == Filtered {
			src = d.filtered
		} else {
			src = d.filteredStemmed
		}
		out := append([]string(nil), src...)
		d.mu.RUnlock()
		return out
	default:
		panic(fmt.Errorf("%w: %d", ErrUnknownView, uint8(v)))
	}
	return append([]string(nil), src...)
}

// Len is the number of raw terms.
func (d *Document) Len() int {
	return len(d.terms)
}

// SetFiltered replaces the filtered view with terms and recomputes the
// filtered-stemmed view. Readers see either the old pair or the new pair.
func (d *Document) SetFiltered(terms []string) {
	filtered := append([]string(nil), terms...)
	filteredStemmed := stemmer.StemAll(d.stemmer, filtered)
	d.mu.Lock()
	d.filtered = filtered
	d.filteredStemmed = filteredStemmed
	d.hasFiltered = true
	d.mu.Unlock()
}

// HasFiltered reports whether a stopword filter has populated the filtered
// views.
func (d *Document) HasFiltered() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.hasFiltered
}

// Stemmer returns the stemmer behind the stemmed views.
func (d *Document) Stemmer() stemmer.Stemmer {
	return d.stemmer
}

// restem recomputes every stemmed view with s. Only called before the
// document is shared.
func (d *Document) restem(s stemmer.Stemmer) {
	d.stemmer = s
	d.stemmed = stemmer.StemAll(s, d.terms)
	d.mu.Lock()
	if d.hasFiltered {
		d.filteredStemmed = stemmer.StemAll(s, d.filtered)
	}
	d.mu.Unlock()
}
