// Package stemmer reduces tokens to a canonical stem so that inflected forms
// of the same word compare equal. Porter is the reference algorithm; Snowball
// wraps the Snowball English stemmer as an alternative.
package stemmer

import "fmt"

// Stemmer maps a token to its stem. Implementations are pure functions of
// their input and safe for concurrent use.
type Stemmer interface {
	Stem(token string) string
}

// StemAll stems every term with s, preserving order.
func StemAll(s Stemmer, terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = s.Stem(t)
	}
	return out
}

// ByName returns the stemmer configured under name: "porter" or "snowball".
func ByName(name string) (Stemmer, error) {
	switch name {
	case "", "porter":
		return Porter{}, nil
	case "snowball":
		return Snowball{Language: "english"}, nil
	default:
		return nil, fmt.Errorf("unknown stemmer %q", name)
	}
}
