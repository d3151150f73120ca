// Package tokenizer turns text into the lower-cased word tokens that make up
// a document's raw terms, and normalises individual terms for stopword
// comparison. Input is NFC-normalised first so that composed and decomposed
// forms of the same word produce the same token.
package tokenizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Token is a single term and its ordinal position in the source text.
type Token struct {
	Term     string
	Position int
}

// isWordRune matches the characters of a word token: letters, digits,
// combining marks and underscore.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_'
}

// Tokens splits text into maximal runs of word characters, lower-cased, in
// order of appearance.
func Tokens(text string) []Token {
	text = strings.ToLower(norm.NFC.String(text))
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	})
	tokens := make([]Token, len(words))
	for i, w := range words {
		tokens[i] = Token{Term: w, Position: i}
	}
	return tokens
}

// Tokenize is Tokens without positions.
func Tokenize(text string) []string {
	text = strings.ToLower(norm.NFC.String(text))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	})
}

// QueryTerms splits a free-text query on whitespace and lower-cases each
// piece. Punctuation is kept, so "dog," and "dog" are different terms.
func QueryTerms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Normalize lower-cases term and strips ASCII punctuation. Stopword lists
// and frequency tables are keyed by normalised terms.
func Normalize(term string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(asciiPunctuation, r) {
			return -1
		}
		return r
	}, strings.ToLower(term))
}

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
