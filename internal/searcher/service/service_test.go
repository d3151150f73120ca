package service

import (
	"context"
	"errors"
	"net/http"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analysis/stopword"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/document"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/tracing"
)

func pets() *document.Collection {
	return document.NewCollection([]*document.Document{
		document.New(0, "Cat and dog", "cat dog", []string{"cat", "dog"}),
		document.New(1, "Dogs and fish", "dog dog fish", []string{"dog", "dog", "fish"}),
		document.New(2, "Fish", "fish fish fish", []string{"fish", "fish", "fish"}),
	})
}

func hitIDs(resp *Response) []int {
	ids := make([]int, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		ids = append(ids, h.DocID)
	}
	return ids
}

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(value.([]byte))
	return nil
}

func (m *memStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.data {
		if strings.HasPrefix(k, strings.TrimSuffix(pattern, "*")) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func TestSearchVector(t *testing.T) {
	svc := New(pets())
	resp, err := svc.Search(context.Background(), Request{Query: "dog fish", Mode: ModeVector})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got, want := hitIDs(resp), []int{1, 0, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("hits = %v, want %v", got, want)
	}
	if resp.TotalHits != 3 || resp.View != "raw" {
		t.Errorf("TotalHits = %d, View = %q", resp.TotalHits, resp.View)
	}
	for _, h := range resp.Hits {
		if h.Score <= 0 || h.Score > 1+1e-9 {
			t.Errorf("score %v out of (0, 1]", h.Score)
		}
	}

	resp, err = svc.Search(context.Background(), Request{Query: "dog fish", Mode: ModeVector, Limit: 2})
	if err != nil {
		t.Fatalf("Search limit 2: %v", err)
	}
	if got, want := hitIDs(resp), []int{1, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("limited hits = %v, want %v", got, want)
	}
	if resp.TotalHits != 3 {
		t.Errorf("TotalHits = %d, want 3 before the limit", resp.TotalHits)
	}
}

func TestSearchBoolean(t *testing.T) {
	svc := New(pets())
	resp, err := svc.Search(context.Background(), Request{Query: "dog", Mode: ModeBoolean})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got, want := hitIDs(resp), []int{0, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("hits = %v, want %v", got, want)
	}
	for _, h := range resp.Hits {
		if h.Score != 1 {
			t.Errorf("doc %d score = %v, want 1", h.DocID, h.Score)
		}
	}

	resp, err = svc.Search(context.Background(), Request{Query: "fish NOT cat", Mode: ModeBoolean, Stemmed: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got, want := hitIDs(resp), []int{1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("fish NOT cat = %v, want %v", got, want)
	}
}

func TestSearchDefaultsToVector(t *testing.T) {
	resp, err := New(pets()).Search(context.Background(), Request{Query: "  cat "})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Mode != ModeVector || resp.Query != "cat" {
		t.Errorf("Mode = %q Query = %q", resp.Mode, resp.Query)
	}
}

func TestSearchValidation(t *testing.T) {
	svc := New(pets())
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"empty query", Request{Query: "   "}, apperrors.ErrInvalidInput},
		{"unknown mode", Request{Query: "dog", Mode: "fuzzy"}, apperrors.ErrUnknownMode},
		{"negative limit", Request{Query: "dog", Limit: -1}, apperrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if apperrors.HTTPStatusCode(err) != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", apperrors.HTTPStatusCode(err))
			}
		})
	}
}

func TestSearchClampsLimit(t *testing.T) {
	svc := New(pets(), WithLimits(1, 2))
	resp, _ := svc.Search(context.Background(), Request{Query: "dog fish"})
	if len(resp.Hits) != 1 {
		t.Errorf("default limit: %d hits, want 1", len(resp.Hits))
	}
	resp, _ = svc.Search(context.Background(), Request{Query: "dog fish", Limit: 50})
	if len(resp.Hits) != 2 {
		t.Errorf("max limit: %d hits, want 2", len(resp.Hits))
	}
}

func TestSearchFilteredRequiresFilter(t *testing.T) {
	_, err := New(pets()).Search(context.Background(), Request{Query: "dog", Filtered: true})
	if apperrors.HTTPStatusCode(err) != http.StatusConflict {
		t.Errorf("err = %v (status %d), want 409", err, apperrors.HTTPStatusCode(err))
	}
}

func TestSearchEmptyCollection(t *testing.T) {
	resp, err := New(document.NewCollection(nil)).Search(context.Background(), Request{Query: "dog"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.TotalHits != 0 || len(resp.Hits) != 0 || resp.Hits == nil {
		t.Errorf("resp = %+v, want empty non-nil hits", resp)
	}
}

func TestApplyFrequencyStopwords(t *testing.T) {
	svc := New(pets())
	ctx := context.Background()

	removed, err := svc.ApplyFrequencyStopwords(ctx, 0.6, 0.0)
	if err != nil {
		t.Fatalf("ApplyFrequencyStopwords: %v", err)
	}
	if removed != 7 {
		t.Errorf("removed = %d, want 7", removed)
	}
	resp, err := svc.Search(ctx, Request{Query: "dog", Mode: ModeBoolean, Filtered: true})
	if err != nil {
		t.Fatalf("filtered Search: %v", err)
	}
	if resp.TotalHits != 0 || resp.View != "filtered" {
		t.Errorf("TotalHits = %d View = %q, want 0 filtered", resp.TotalHits, resp.View)
	}
	resp, _ = svc.Search(ctx, Request{Query: "cat", Mode: ModeBoolean, Filtered: true})
	if got := hitIDs(resp); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("cat filtered = %v, want [0]", got)
	}

	for _, cut := range [][2]float64{{1.5, 0}, {0.5, -0.1}, {0.2, 0.4}} {
		if _, err := svc.ApplyFrequencyStopwords(ctx, cut[0], cut[1]); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("cutoffs %v: err = %v, want ErrInvalidInput", cut, err)
		}
	}
}

func TestApplyListStopwords(t *testing.T) {
	svc := New(pets())
	removed := svc.ApplyListStopwords(context.Background(), stopword.NewSet("fish"))
	if removed != 4 {
		t.Errorf("removed = %d, want 4", removed)
	}
	resp, err := svc.Search(context.Background(), Request{Query: "fish", Filtered: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.TotalHits != 0 {
		t.Errorf("TotalHits = %d, want 0", resp.TotalHits)
	}
}

func TestSearchUsesCache(t *testing.T) {
	store := &memStore{data: make(map[string]string)}
	agg := analytics.NewAggregator()
	svc := New(pets(),
		WithCache(cache.New(store, time.Minute)),
		WithTracker(agg),
		WithMetrics(metrics.NewWithRegistry(prometheus.NewRegistry())),
		WithTracer(tracing.NewTracer(true, 1)),
		WithTimeout(time.Second),
	)
	ctx := context.Background()
	req := Request{Query: "dog", Mode: ModeVector}

	first, err := svc.Search(ctx, req)
	if err != nil || first.CacheHit {
		t.Fatalf("first search: hit=%v err=%v", first != nil && first.CacheHit, err)
	}
	second, err := svc.Search(ctx, req)
	if err != nil || !second.CacheHit {
		t.Fatalf("second search: hit=%v err=%v", second != nil && second.CacheHit, err)
	}
	if !reflect.DeepEqual(hitIDs(first), hitIDs(second)) {
		t.Errorf("cached hits %v differ from %v", hitIDs(second), hitIDs(first))
	}

	svc.ApplyListStopwords(ctx, stopword.NewSet("cat"))
	third, err := svc.Search(ctx, req)
	if err != nil || third.CacheHit {
		t.Errorf("search after refilter: hit=%v err=%v, want a miss", third != nil && third.CacheHit, err)
	}

	stats := agg.Stats()
	if stats.TotalSearches != 3 || stats.CacheHits != 1 {
		t.Errorf("analytics searches=%d hits=%d, want 3 and 1", stats.TotalSearches, stats.CacheHits)
	}
	if hits, _, ok := svc.CacheStats(); !ok || hits != 1 {
		t.Errorf("CacheStats hits=%d ok=%v", hits, ok)
	}
}

// stickyStore never deletes, like a Redis that rejects FLUSH.
type stickyStore struct{ memStore }

func (s *stickyStore) FlushByPattern(context.Context, string) (int64, error) {
	return 0, errors.New("flush refused")
}

func TestRefilterRetiresCachedResponsesWithoutFlush(t *testing.T) {
	store := &stickyStore{memStore{data: make(map[string]string)}}
	svc := New(pets(), WithCache(cache.New(store, time.Minute)))
	ctx := context.Background()
	svc.ApplyListStopwords(ctx, stopword.NewSet())
	req := Request{Query: "cat", Mode: ModeBoolean, Filtered: true}

	before, err := svc.Search(ctx, req)
	if err != nil || before.TotalHits != 1 {
		t.Fatalf("before refilter: %+v err=%v", before, err)
	}
	gen := svc.generation.Load()
	svc.ApplyListStopwords(ctx, stopword.NewSet("cat"))
	if svc.generation.Load() == gen {
		t.Fatal("refilter did not advance the generation")
	}
	after, err := svc.Search(ctx, req)
	if err != nil {
		t.Fatalf("after refilter: %v", err)
	}
	if after.CacheHit || after.TotalHits != 0 {
		t.Errorf("after refilter hit=%v total=%d, want a fresh miss with 0 hits", after.CacheHit, after.TotalHits)
	}
}

func TestEvaluate(t *testing.T) {
	agg := analytics.NewAggregator()
	svc := New(pets(), WithTracker(agg))
	report, err := svc.Evaluate(context.Background(), Request{Query: "dog", Mode: ModeVector}, evaluation.NewIDSet(1, 2))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.Precision != 0.5 || report.Recall != 0.5 {
		t.Errorf("precision=%v recall=%v, want 0.5 0.5", report.Precision, report.Recall)
	}
	if !reflect.DeepEqual(report.Retrieved, []int{0, 1}) || report.Hits != 1 {
		t.Errorf("report = %+v", report)
	}
	if agg.Stats().Evaluations != 1 {
		t.Errorf("evaluation event not tracked")
	}
}

func TestDocument(t *testing.T) {
	svc := New(pets())
	d, err := svc.Document(2)
	if err != nil || d.Title != "Fish" {
		t.Errorf("Document(2) = %v, %v", d, err)
	}
	if _, err := svc.Document(9); !errors.Is(err, apperrors.ErrDocumentNotFound) {
		t.Errorf("Document(9) err = %v, want ErrDocumentNotFound", err)
	}
}

func TestTermStats(t *testing.T) {
	entries, vocab := New(pets()).TermStats(document.Raw, 1)
	if vocab != 3 {
		t.Errorf("vocabulary = %d, want 3", vocab)
	}
	if len(entries) != 1 || entries[0].Term != "dog" || entries[0].DocFreq != 2 {
		t.Errorf("entries = %+v, want dog with df 2", entries)
	}
}

func TestReplace(t *testing.T) {
	svc := New(pets())
	svc.Replace(context.Background(), document.FromTerms([][]string{{"bird"}}))
	resp, err := svc.Search(context.Background(), Request{Query: "bird", Mode: ModeBoolean})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := hitIDs(resp); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("hits = %v, want [0]", got)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"boolean": ModeBoolean, "VECTOR": ModeVector, " vector ": ModeVector} {
		if got, err := ParseMode(in); err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("bm25"); !errors.Is(err, apperrors.ErrUnknownMode) {
		t.Errorf("ParseMode(bm25) err = %v", err)
	}
}

func TestApplyStrategy(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	list := dir + "/stop.txt"
	if err := os.WriteFile(list, []byte("cat\ndog\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		cfg     config.StopwordsConfig
		removed int
		wantErr bool
	}{
		{config.StopwordsConfig{Strategy: "none"}, 0, false},
		{config.StopwordsConfig{Strategy: "list", ListPath: list}, 4, false},
		{config.StopwordsConfig{Strategy: "frequency", CommonCutoff: 0.6}, 7, false},
		{config.StopwordsConfig{Strategy: "list", ListPath: dir + "/missing.txt"}, 0, true},
		{config.StopwordsConfig{Strategy: "tfidf"}, 0, true},
	}
	for _, tt := range tests {
		removed, err := New(pets()).ApplyStrategy(ctx, tt.cfg)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.cfg.Strategy, err, tt.wantErr)
		}
		if removed != tt.removed {
			t.Errorf("%s: removed = %d, want %d", tt.cfg.Strategy, removed, tt.removed)
		}
	}
}

func TestDefaultMode(t *testing.T) {
	resp, err := New(pets(), WithDefaultMode(ModeBoolean)).Search(context.Background(), Request{Query: "dog"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Mode != ModeBoolean {
		t.Errorf("Mode = %q, want boolean", resp.Mode)
	}
}
