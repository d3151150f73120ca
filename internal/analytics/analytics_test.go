package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/kafka"
)

func TestAggregatorStats(t *testing.T) {
	agg := NewAggregator()
	agg.Track(SearchEvent{Type: EventSearch, Query: "dog", Mode: "vector", TotalHits: 3, LatencyMs: 10})
	agg.Track(SearchEvent{Type: EventSearch, Query: "dog", Mode: "vector", TotalHits: 3, LatencyMs: 20, CacheHit: true})
	agg.Track(&SearchEvent{Type: EventSearch, Query: "unicorn", Mode: "boolean", TotalHits: 0, LatencyMs: 30})
	agg.Track(EvaluationEvent{Type: EventEvaluation, Precision: 1, Recall: 0.5})
	agg.Track(EvaluationEvent{Type: EventEvaluation, Precision: 0.5, Recall: 0.5})
	agg.Track("not an event")

	s := agg.Stats()
	if s.TotalSearches != 3 || s.CacheHits != 1 || s.CacheMisses != 2 {
		t.Errorf("searches=%d hits=%d misses=%d", s.TotalSearches, s.CacheHits, s.CacheMisses)
	}
	if s.SearchesByMode["vector"] != 2 || s.SearchesByMode["boolean"] != 1 {
		t.Errorf("SearchesByMode = %v", s.SearchesByMode)
	}
	if s.ZeroResultCount != 1 || len(s.ZeroResultQueries) != 1 || s.ZeroResultQueries[0].Query != "unicorn" {
		t.Errorf("zero results = %d %v", s.ZeroResultCount, s.ZeroResultQueries)
	}
	if s.AvgLatencyMs != 20 || s.P50LatencyMs != 20 || s.P99LatencyMs != 30 {
		t.Errorf("latency avg=%v p50=%d p99=%d", s.AvgLatencyMs, s.P50LatencyMs, s.P99LatencyMs)
	}
	if len(s.TopQueries) == 0 || s.TopQueries[0] != (QueryCount{Query: "dog", Count: 2}) {
		t.Errorf("TopQueries = %v", s.TopQueries)
	}
	if s.Evaluations != 2 || s.AvgPrecision != 0.75 || s.AvgRecall != 0.5 {
		t.Errorf("evaluations=%d precision=%v recall=%v", s.Evaluations, s.AvgPrecision, s.AvgRecall)
	}
}

func TestAggregatorEmpty(t *testing.T) {
	s := NewAggregator().Stats()
	if s.TotalSearches != 0 || s.AvgLatencyMs != 0 || s.AvgPrecision != 0 {
		t.Errorf("empty stats = %+v", s)
	}
}

func TestDecode(t *testing.T) {
	data, _ := json.Marshal(SearchEvent{Type: EventSearch, Query: "dog", Mode: "boolean"})
	ev, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if se, ok := ev.(SearchEvent); !ok || se.Query != "dog" {
		t.Errorf("Decode = %#v", ev)
	}

	data, _ = json.Marshal(EvaluationEvent{Type: EventEvaluation, Precision: 0.5})
	if ev, err := Decode(data); err != nil || ev.(EvaluationEvent).Precision != 0.5 {
		t.Errorf("Decode evaluation = %#v, %v", ev, err)
	}

	for _, bad := range []string{`{"type":"index_document"}`, `not json`} {
		if _, err := Decode([]byte(bad)); err == nil {
			t.Errorf("Decode(%s) should fail", bad)
		}
	}
}

func TestHandleEvent(t *testing.T) {
	agg := NewAggregator()
	h := HandleEvent(agg)
	data, _ := json.Marshal(SearchEvent{Type: EventSearch, Query: "cat", Mode: "vector", TotalHits: 1})
	if err := h(context.Background(), nil, data); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if err := h(context.Background(), nil, []byte("garbage")); err != nil {
		t.Errorf("garbage should be skipped, got %v", err)
	}
	if agg.Stats().TotalSearches != 1 {
		t.Errorf("TotalSearches = %d, want 1", agg.Stats().TotalSearches)
	}
}

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
	err     error
}

func (f *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, events)
	return f.err
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func TestCollectorBatchesAndFlushesOnClose(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 16, 2, time.Hour)
	c.Start(context.Background())
	for i := 0; i < 5; i++ {
		c.Track(SearchEvent{Type: EventSearch, Query: "q"})
	}
	c.Close()

	if got := pub.count(); got != 5 {
		t.Errorf("published %d events, want 5", got)
	}
	for _, b := range pub.batches {
		if len(b) > 2 {
			t.Errorf("batch of %d exceeds batch size 2", len(b))
		}
		if b[0].Key != eventKey {
			t.Errorf("key = %q, want %q", b[0].Key, eventKey)
		}
	}
}

func TestCollectorFlushesOnCancel(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	c := NewCollector(pub, 16, 100, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	c.Track(EvaluationEvent{Type: EventEvaluation})
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-c.done
	if got := pub.count(); got != 1 {
		t.Errorf("published %d events, want 1", got)
	}
}

func TestCollectorDropsWhenFull(t *testing.T) {
	c := NewCollector(&fakePublisher{}, 1, 10, time.Hour)
	c.Track(SearchEvent{})
	c.Track(SearchEvent{})
	if len(c.eventCh) != 1 {
		t.Errorf("buffered %d events, want 1", len(c.eventCh))
	}
}

func TestHandlerStats(t *testing.T) {
	agg := NewAggregator()
	agg.Track(SearchEvent{Type: EventSearch, Query: "dog", Mode: "vector", TotalHits: 2})
	rec := httptest.NewRecorder()
	NewHandler(agg).Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got AggregatedStats
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TotalSearches != 1 || got.SearchesByMode["vector"] != 1 {
		t.Errorf("stats = %+v", got)
	}
}

func TestHandlerStatsTop(t *testing.T) {
	agg := NewAggregator()
	for _, q := range []string{"dog", "dog", "cat", "fish"} {
		agg.Track(SearchEvent{Type: EventSearch, Query: q, Mode: "boolean", TotalHits: 1})
	}
	h := NewHandler(agg)

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics?top=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got AggregatedStats
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.TopQueries) != 1 || got.TopQueries[0].Query != "dog" || got.TopQueries[0].Count != 2 {
		t.Errorf("top queries = %+v, want [dog:2]", got.TopQueries)
	}
	if got.GeneratedAt.IsZero() {
		t.Error("generated_at missing")
	}

	for _, v := range []string{"0", "101", "many"} {
		rec := httptest.NewRecorder()
		h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics?top="+v, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("top=%s status = %d, want 400", v, rec.Code)
		}
	}
}
