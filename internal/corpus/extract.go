// Package corpus turns source text into a document collection: it fetches
// the text from a file or URL, selects a line range, carves documents out
// with a two-group regular expression and tokenises each body.
package corpus

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analysis/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/document"
)

// SliceLines returns lines [start, end) of text joined with "\n". Bounds are
// clamped to the available lines; end <= 0 means through the last line.
func SliceLines(text string, start, end int) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if start < 0 {
		start = 0
	}
	if end <= 0 || end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "\n")
}

// CompilePattern compiles a document pattern and checks that it has at least
// two capture groups: title and body.
func CompilePattern(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling document pattern: %w", err)
	}
	if re.NumSubexp() < 2 {
		return nil, fmt.Errorf("document pattern %q needs 2 capture groups, has %d", expr, re.NumSubexp())
	}
	return re, nil
}

// Extract creates one document per match of pattern in text. Group 1 is the
// title and group 2 the body; body newlines are flattened to spaces. IDs are
// assigned sequentially from 0 in match order.
func Extract(text string, pattern *regexp.Regexp, opts ...document.Option) []*document.Document {
	matches := pattern.FindAllStringSubmatch(text, -1)
	docs := make([]*document.Document, 0, len(matches))
	for _, m := range matches {
		title := strings.TrimSpace(m[1])
		body := flatten(m[2])
		docs = append(docs, document.New(len(docs), title, body, tokenizer.Tokenize(body), opts...))
	}
	return docs
}

func flatten(body string) string {
	lines := strings.FieldsFunc(body, func(r rune) bool { return r == '\n' || r == '\r' })
	return strings.TrimSpace(strings.Join(lines, " "))
}
