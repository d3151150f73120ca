// Package stopword removes uninformative terms from documents. Three
// strategies are provided: an explicit word list, a document-frequency band
// computed over the collection, and the built-in English list. All of them
// compare terms after tokenizer.Normalize and store normalised survivors in
// the document's filtered view.
package stopword

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/bbalet/stopwords"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analysis/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/document"
)

// Predicate reports whether a normalised term is a stopword.
type Predicate func(term string) bool

// Set is a set of normalised stopwords.
type Set map[string]struct{}

// NewSet normalises words into a Set. Words that normalise to "" are
// dropped.
func NewSet(words ...string) Set {
	s := make(Set, len(words))
	for _, w := range words {
		if n := tokenizer.Normalize(strings.TrimSpace(w)); n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// Contains reports whether the normalised form of term is in s.
func (s Set) Contains(term string) bool {
	_, ok := s[tokenizer.Normalize(term)]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

func (s Set) predicate() Predicate {
	return func(term string) bool {
		_, ok := s[term]
		return ok
	}
}

// Load reads one stopword per line. Blank lines are ignored.
func Load(r io.Reader) (Set, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			words = append(words, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading stopword list: %w", err)
	}
	return NewSet(words...), nil
}

// LoadFile is Load on a file path.
func LoadFile(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stopword list %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Apply normalises terms and keeps, in order, those that are non-empty and
// not stopwords.
func Apply(terms []string, isStop Predicate) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		n := tokenizer.Normalize(t)
		if n == "" || isStop(n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// FilterByList removes the terms in set from doc's raw terms, stores the
// result as doc's filtered view and returns it.
func FilterByList(doc *document.Document, set Set) []string {
	kept := Apply(doc.Terms(document.Raw), set.predicate())
	doc.SetFiltered(kept)
	return kept
}

// FilterCollectionByList stores the list-filtered view on every document and
// returns the number of term occurrences removed.
func FilterCollectionByList(c *document.Collection, set Set) int {
	return filterCollection(c, set.predicate())
}

// Builtin reports whether term is on the built-in English stopword list.
// Only purely alphabetic terms are considered; numbers are never stopwords.
func Builtin(term string) bool {
	if term == "" {
		return false
	}
	for _, r := range term {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return strings.TrimSpace(stopwords.CleanString(term, "en", false)) == ""
}

// FilterCollectionBuiltin filters every document against Builtin.
func FilterCollectionBuiltin(c *document.Collection) int {
	return filterCollection(c, Builtin)
}

func filterCollection(c *document.Collection, isStop Predicate) int {
	removed := 0
	for _, d := range c.Documents() {
		kept := Apply(d.Terms(document.Raw), isStop)
		removed += d.Len() - len(kept)
		d.SetFiltered(kept)
	}
	return removed
}
