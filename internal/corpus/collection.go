package corpus

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analysis/stemmer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/document"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

// LoadCollection loads the configured corpus and builds a collection whose
// documents are stemmed with the named stemmer.
func (l *Loader) LoadCollection(ctx context.Context, cfg config.CorpusConfig, stemmerName string) (*document.Collection, error) {
	s, err := stemmer.ByName(stemmerName)
	if err != nil {
		return nil, fmt.Errorf("selecting stemmer: %w", err)
	}
	docs, err := l.Load(ctx, cfg, document.WithStemmer(s))
	if err != nil {
		return nil, err
	}
	return document.NewCollection(docs, document.WithCollectionStemmer(s)), nil
}
