// Package evaluation scores a retrieved set against ground-truth relevance
// judgements.
package evaluation

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher"
)

// IDSet is a set of document IDs.
type IDSet map[int]struct{}

func NewIDSet(ids ...int) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Sorted returns the IDs in ascending order.
func (s IDSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Intersect counts the IDs present in both sets.
func (s IDSet) Intersect(other IDSet) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for id := range small {
		if _, ok := large[id]; ok {
			n++
		}
	}
	return n
}

// PrecisionRecall returns |retrieved ∩ relevant| divided by |retrieved| and
// by |relevant| respectively. A ratio whose divisor is empty is 0.
func PrecisionRecall(retrieved, relevant IDSet) (precision, recall float64) {
	hits := float64(retrieved.Intersect(relevant))
	if len(retrieved) > 0 {
		precision = hits / float64(len(retrieved))
	}
	if len(relevant) > 0 {
		recall = hits / float64(len(relevant))
	}
	return precision, recall
}

// Report is the outcome of evaluating one query.
type Report struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	Retrieved []int   `json:"retrieved"`
	Relevant  []int   `json:"relevant"`
	Hits      int     `json:"hits"`
}

// Evaluate builds a Report from search results. Only results with a
// positive score count as retrieved.
func Evaluate(results []searcher.Result, relevant IDSet) Report {
	retrieved := Retrieved(results)
	p, r := PrecisionRecall(retrieved, relevant)
	return Report{
		Precision: p,
		Recall:    r,
		Retrieved: retrieved.Sorted(),
		Relevant:  relevant.Sorted(),
		Hits:      retrieved.Intersect(relevant),
	}
}

// Retrieved collects the IDs of matching results.
func Retrieved(results []searcher.Result) IDSet {
	s := make(IDSet)
	for _, r := range results {
		if r.Matches() {
			s[r.Doc.ID] = struct{}{}
		}
	}
	return s
}

// LoadGroundTruth reads one document ID per line. Lines that are not plain
// non-negative integers after trimming are skipped.
func LoadGroundTruth(r io.Reader) (IDSet, error) {
	s := make(IDSet)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.IndexFunc(line, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			continue
		}
		id, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		s[id] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading ground truth: %w", err)
	}
	return s, nil
}

// LoadGroundTruthFile is LoadGroundTruth on a file path.
func LoadGroundTruthFile(path string) (IDSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ground truth %s: %w", path, err)
	}
	defer f.Close()
	return LoadGroundTruth(f)
}
