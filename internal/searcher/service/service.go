// Package service runs searches, evaluations and stopword refiltering over
// the loaded collection. It is the layer shared by the HTTP handler and the
// command-line tool: it validates requests, caches responses, records
// metrics and analytics events, and bounds each search with a timeout.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analysis/stopword"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/document"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/boolean"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/vector"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/tracing"
)

var errNotFiltered = apperrors.New(apperrors.ErrInvalidInput, http.StatusConflict,
	"filtered view requested but no stopword filter has been applied")

type Mode string

const (
	ModeBoolean Mode = "boolean"
	ModeVector  Mode = "vector"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBoolean:
		return ModeBoolean, nil
	case ModeVector:
		return ModeVector, nil
	default:
		return "", apperrors.Newf(apperrors.ErrUnknownMode, http.StatusBadRequest, "mode %q (want boolean or vector)", s)
	}
}

type Request struct {
	Query    string `json:"query"`
	Mode     Mode   `json:"mode"`
	Filtered bool   `json:"filtered"`
	Stemmed  bool   `json:"stemmed"`
	Limit    int    `json:"limit"`
}

type Hit struct {
	DocID int     `json:"doc_id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

type Response struct {
	Query     string `json:"query"`
	Mode      Mode   `json:"mode"`
	View      string `json:"view"`
	TotalHits int    `json:"total_hits"`
	Hits      []Hit  `json:"hits"`
	CacheHit  bool   `json:"cache_hit"`
}

// Tracker receives analytics events. *analytics.Collector and
// *analytics.Aggregator both satisfy it.
type Tracker interface {
	Track(event any)
}

type Service struct {
	mu         sync.RWMutex
	collection *document.Collection
	generation atomic.Uint64

	cache        *cache.QueryCache
	metrics      *metrics.Metrics
	trackers     []Tracker
	tracer       *tracing.Tracer
	timeout      time.Duration
	defaultMode  Mode
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

type Option func(*Service)

func WithCache(c *cache.QueryCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracker(t Tracker) Option {
	return func(s *Service) { s.trackers = append(s.trackers, t) }
}

func WithTracer(t *tracing.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithDefaultMode(m Mode) Option {
	return func(s *Service) { s.defaultMode = m }
}

func WithLimits(defaultLimit, maxResults int) Option {
	return func(s *Service) {
		s.defaultLimit = defaultLimit
		s.maxResults = maxResults
	}
}

func New(c *document.Collection, opts ...Option) *Service {
	s := &Service{
		collection:   c,
		defaultMode:  ModeVector,
		defaultLimit: 10,
		maxResults:   100,
		logger:       slog.Default().With("component", "search-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.recordCollection(c)
	return s
}

// Collection returns the current collection.
func (s *Service) Collection() *document.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection
}

// Replace swaps in a new collection and drops cached responses.
func (s *Service) Replace(ctx context.Context, c *document.Collection) {
	s.mu.Lock()
	s.collection = c
	s.generation.Add(1)
	s.mu.Unlock()
	s.invalidate(ctx)
	s.recordCollection(c)
	s.logger.Info("collection replaced", "documents", c.Len())
}

func (s *Service) normalize(req Request) (Request, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return req, apperrors.Invalidf("query must not be empty")
	}
	if req.Mode == "" {
		req.Mode = s.defaultMode
	}
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return req, err
	}
	req.Mode = mode
	switch {
	case req.Limit < 0:
		return req, apperrors.Invalidf("limit must not be negative")
	case req.Limit == 0:
		req.Limit = s.defaultLimit
	case s.maxResults > 0 && req.Limit > s.maxResults:
		req.Limit = s.maxResults
	}
	return req, nil
}

// Search runs one query and returns the ranked matches. Results with a zero
// score are never returned; TotalHits counts every match before the limit.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	req, err := s.normalize(req)
	if err != nil {
		s.countQuery("", "error")
		return nil, err
	}

	ctx, span := s.tracer.StartSpan(ctx, "search", logger.RequestID(ctx))
	defer s.tracer.Finish(span)
	span.SetAttr("mode", string(req.Mode))
	span.SetAttr("query", req.Query)

	key := cache.Key(strconv.FormatUint(s.generation.Load(), 10), string(req.Mode), req.Query,
		strconv.FormatBool(req.Filtered), strconv.FormatBool(req.Stemmed), strconv.Itoa(req.Limit))

	compute := func() (*Response, error) {
		var resp *Response
		err := resilience.WithTimeout(ctx, s.timeout, "search", func(ctx context.Context) error {
			r, err := s.execute(ctx, req)
			resp = r
			return err
		})
		if err != nil {
			return nil, timeoutError(err)
		}
		return resp, nil
	}

	var (
		resp *Response
		hit  bool
	)
	if s.cache != nil {
		resp, hit, err = cache.GetOrCompute(ctx, s.cache, key, compute)
	} else {
		resp, err = compute()
	}
	if err != nil {
		s.countQuery(req.Mode, "error")
		logger.FromContext(ctx).Error("search failed", "query", req.Query, "mode", req.Mode, "error", err)
		return nil, err
	}
	out := *resp
	out.CacheHit = hit

	elapsed := time.Since(start)
	s.observe(req.Mode, out.TotalHits, hit, elapsed)
	s.track(analytics.SearchEvent{
		Type:      analytics.EventSearch,
		Query:     req.Query,
		Mode:      string(req.Mode),
		Filtered:  req.Filtered,
		Stemmed:   req.Stemmed,
		TotalHits: out.TotalHits,
		Returned:  len(out.Hits),
		LatencyMs: elapsed.Milliseconds(),
		CacheHit:  hit,
		Timestamp: time.Now().UTC(),
		RequestID: logger.RequestID(ctx),
	})
	logger.FromContext(ctx).Info("search completed",
		"query", req.Query,
		"mode", req.Mode,
		"view", out.View,
		"total_hits", out.TotalHits,
		"returned", len(out.Hits),
		"cache_hit", hit,
		"latency_ms", elapsed.Milliseconds(),
	)
	return &out, nil
}

// execute holds the read lock for the whole scoring pass so a concurrent
// stopword refilter cannot interleave with it.
func (s *Service) execute(ctx context.Context, req Request) (*Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collection

	if req.Filtered && !c.Filtered() && c.Len() > 0 {
		return nil, errNotFiltered
	}

	_, span := tracing.StartChildSpan(ctx, "score")
	results := s.run(req, c)
	span.SetAttr("candidates", len(results))
	span.End()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring %q: %w", req.Query, err)
	}

	ranked := ranker.Rank(results, req.Limit)
	hits := make([]Hit, 0, len(ranked))
	for _, r := range ranked {
		hits = append(hits, Hit{DocID: r.Doc.ID, Title: r.Doc.Title, Score: r.Score})
	}
	return &Response{
		Query:     req.Query,
		Mode:      req.Mode,
		View:      document.ViewFor(req.Filtered, req.Stemmed).String(),
		TotalHits: ranker.Count(results),
		Hits:      hits,
	}, nil
}

func timeoutError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", apperrors.ErrTimeout, err)
	}
	return err
}

func (s *Service) run(req Request, c *document.Collection) []searcher.Result {
	if req.Mode == ModeBoolean {
		return boolean.Search(req.Query, c, req.Filtered, req.Stemmed)
	}
	return vector.Search(req.Query, c, req.Filtered, req.Stemmed)
}

// Evaluate runs req without a limit and compares the matches to relevant.
func (s *Service) Evaluate(ctx context.Context, req Request, relevant evaluation.IDSet) (*evaluation.Report, error) {
	req.Limit = 0
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	var report evaluation.Report
	err = resilience.WithTimeout(ctx, s.timeout, "evaluate", func(ctx context.Context) error {
		s.mu.RLock()
		defer s.mu.RUnlock()
		c := s.collection
		if req.Filtered && !c.Filtered() && c.Len() > 0 {
			return errNotFiltered
		}
		report = evaluation.Evaluate(s.run(req, c), relevant)
		return ctx.Err()
	})
	if err != nil {
		return nil, timeoutError(err)
	}

	if s.metrics != nil {
		s.metrics.EvaluationPrecision.Observe(report.Precision)
		s.metrics.EvaluationRecall.Observe(report.Recall)
	}
	s.track(analytics.EvaluationEvent{
		Type:      analytics.EventEvaluation,
		Query:     req.Query,
		Mode:      string(req.Mode),
		Precision: report.Precision,
		Recall:    report.Recall,
		Retrieved: len(report.Retrieved),
		Relevant:  len(report.Relevant),
		Timestamp: time.Now().UTC(),
		RequestID: logger.RequestID(ctx),
	})
	logger.FromContext(ctx).Info("evaluation completed",
		"query", req.Query,
		"mode", req.Mode,
		"precision", report.Precision,
		"recall", report.Recall,
	)
	return &report, nil
}

// ApplyListStopwords refilters every document with set and returns the
// number of terms removed.
func (s *Service) ApplyListStopwords(ctx context.Context, set stopword.Set) int {
	s.mu.Lock()
	removed := stopword.FilterCollectionByList(s.collection, set)
	s.generation.Add(1)
	s.mu.Unlock()
	s.afterFilter(ctx, "list", removed)
	return removed
}

// ApplyFrequencyStopwords refilters every document, removing terms whose
// document fraction is >= common or <= rare.
func (s *Service) ApplyFrequencyStopwords(ctx context.Context, common, rare float64) (int, error) {
	if common < 0 || common > 1 || rare < 0 || rare > 1 {
		return 0, apperrors.Invalidf("cutoffs must be within [0, 1], got common=%v rare=%v", common, rare)
	}
	if rare > common {
		return 0, apperrors.Invalidf("rare cutoff %v exceeds common cutoff %v", rare, common)
	}
	s.mu.Lock()
	removed := stopword.FilterCollectionByFrequency(s.collection, common, rare)
	s.generation.Add(1)
	s.mu.Unlock()
	s.afterFilter(ctx, "frequency", removed)
	return removed, nil
}

// ApplyBuiltinStopwords refilters every document with the bundled English
// stopword list.
func (s *Service) ApplyBuiltinStopwords(ctx context.Context) int {
	s.mu.Lock()
	removed := stopword.FilterCollectionBuiltin(s.collection)
	s.generation.Add(1)
	s.mu.Unlock()
	s.afterFilter(ctx, "builtin", removed)
	return removed
}

// ApplyStrategy applies the configured stopword strategy: none, list,
// frequency or builtin.
func (s *Service) ApplyStrategy(ctx context.Context, cfg config.StopwordsConfig) (int, error) {
	switch cfg.Strategy {
	case "", "none":
		return 0, nil
	case "list":
		set, err := stopword.LoadFile(cfg.ListPath)
		if err != nil {
			return 0, fmt.Errorf("loading stopword list: %w", err)
		}
		return s.ApplyListStopwords(ctx, set), nil
	case "frequency":
		return s.ApplyFrequencyStopwords(ctx, cfg.CommonCutoff, cfg.RareCutoff)
	case "builtin":
		return s.ApplyBuiltinStopwords(ctx), nil
	default:
		return 0, apperrors.Invalidf("unknown stopword strategy %q", cfg.Strategy)
	}
}

func (s *Service) afterFilter(ctx context.Context, strategy string, removed int) {
	s.invalidate(ctx)
	if s.metrics != nil {
		s.metrics.StopwordsRemoved.WithLabelValues(strategy).Add(float64(removed))
	}
	s.recordCollection(s.Collection())
	logger.FromContext(ctx).Info("stopwords applied", "strategy", strategy, "terms_removed", removed)
}

// Document looks up a document by ID.
func (s *Service) Document(id int) (*document.Document, error) {
	d, ok := s.Collection().ByID(id)
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrDocumentNotFound, http.StatusNotFound, "document %d", id)
	}
	return d, nil
}

// TermStats returns the limit most frequent terms of view by document
// frequency. limit <= 0 returns every term.
func (s *Service) TermStats(view document.View, limit int) ([]index.TermEntry, int) {
	c := s.Collection()
	idx := index.Build(c, view)
	entries := idx.Snapshot()
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, idx.VocabularySize()
}

// InvalidateCache drops every cached response.
func (s *Service) InvalidateCache(ctx context.Context) error {
	s.generation.Add(1)
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}

// CacheStats reports cache hits and misses; ok is false without a cache.
func (s *Service) CacheStats() (hits, misses int64, ok bool) {
	if s.cache == nil {
		return 0, 0, false
	}
	hits, misses = s.cache.Stats()
	return hits, misses, true
}

// invalidate bumps the generation so stale keys are never read, then
// best-effort flushes the store.
func (s *Service) invalidate(ctx context.Context) {
	if err := s.InvalidateCache(ctx); err != nil {
		s.logger.Warn("cache invalidation failed", "error", err)
	}
}

func (s *Service) recordCollection(c *document.Collection) {
	if s.metrics == nil || c == nil {
		return
	}
	s.metrics.DocumentsLoaded.Set(float64(c.Len()))
	views := []document.View{document.Raw, document.Stemmed}
	if c.Filtered() {
		views = append(views, document.Filtered, document.FilteredStemmed)
	}
	for _, v := range views {
		s.metrics.VocabularySize.WithLabelValues(v.String()).Set(float64(index.Build(c, v).VocabularySize()))
	}
}

func (s *Service) countQuery(mode Mode, resultType string) {
	if s.metrics == nil {
		return
	}
	if mode == "" {
		mode = "unknown"
	}
	s.metrics.SearchQueriesTotal.WithLabelValues(string(mode), resultType).Inc()
}

func (s *Service) observe(mode Mode, totalHits int, cacheHit bool, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	resultType := "hit"
	if totalHits == 0 {
		resultType = "zero_result"
	}
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
	}
	s.metrics.SearchQueriesTotal.WithLabelValues(string(mode), resultType).Inc()
	s.metrics.SearchLatency.WithLabelValues(string(mode), cacheStatus).Observe(elapsed.Seconds())
	s.metrics.SearchResultsCount.WithLabelValues(string(mode)).Observe(float64(totalHits))
}

func (s *Service) track(event any) {
	for _, t := range s.trackers {
		t.Track(event)
	}
}
