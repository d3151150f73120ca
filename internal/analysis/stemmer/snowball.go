package stemmer

import (
	"strings"

	"github.com/kljensen/snowball"
)

// Snowball stems with the Snowball (Porter2) algorithm for Language. Stop
// words are stemmed too so that every token gets a stem.
type Snowball struct {
	Language string
}

func (s Snowball) Stem(token string) string {
	lower := strings.ToLower(token)
	lang := s.Language
	if lang == "" {
		lang = "english"
	}
	stemmed, err := snowball.Stem(lower, lang, true)
	if err != nil {
		return lower
	}
	return stemmed
}
