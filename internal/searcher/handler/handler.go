package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analysis/stopword"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/document"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/service"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service) *Handler {
	return &Handler{
		svc:    svc,
		logger: slog.Default().With("component", "search-handler"),
	}
}

// Register mounts every search endpoint on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/evaluate", h.Evaluate)
	mux.HandleFunc("POST /api/v1/stopwords/frequency", h.FrequencyStopwords)
	mux.HandleFunc("POST /api/v1/stopwords/list", h.ListStopwords)
	mux.HandleFunc("POST /api/v1/stopwords/builtin", h.BuiltinStopwords)
	mux.HandleFunc("GET /api/v1/documents/{id}", h.Document)
	mux.HandleFunc("GET /api/v1/stats/terms", h.TermStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.Request{
		Query: q.Get("q"),
		Mode:  service.Mode(q.Get("mode")),
	}
	var err error
	if req.Filtered, err = boolParam(q.Get("filtered")); err != nil {
		h.writeError(w, r, apperrors.Invalidf("filtered: %v", err))
		return
	}
	if req.Stemmed, err = boolParam(q.Get("stemmed")); err != nil {
		h.writeError(w, r, apperrors.Invalidf("stemmed: %v", err))
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, r, apperrors.Invalidf("limit must be a non-negative integer"))
			return
		}
		req.Limit = n
	}

	resp, err := h.svc.Search(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type evaluateRequest struct {
	service.Request
	Relevant []int `json:"relevant"`
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var body evaluateRequest
	if !h.decode(w, r, &body) {
		return
	}
	report, err := h.svc.Evaluate(r.Context(), body.Request, evaluation.NewIDSet(body.Relevant...))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) FrequencyStopwords(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Common *float64 `json:"common"`
		Rare   *float64 `json:"rare"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	if body.Common == nil || body.Rare == nil {
		h.writeError(w, r, apperrors.Invalidf("common and rare are required"))
		return
	}
	removed, err := h.svc.ApplyFrequencyStopwords(r.Context(), *body.Common, *body.Rare)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"strategy": "frequency", "terms_removed": removed})
}

func (h *Handler) ListStopwords(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Words []string `json:"words"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	set := stopword.NewSet(body.Words...)
	removed := h.svc.ApplyListStopwords(r.Context(), set)
	h.writeJSON(w, http.StatusOK, map[string]any{"strategy": "list", "words": set.Len(), "terms_removed": removed})
}

func (h *Handler) BuiltinStopwords(w http.ResponseWriter, r *http.Request) {
	removed := h.svc.ApplyBuiltinStopwords(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]any{"strategy": "builtin", "terms_removed": removed})
}

type documentResponse struct {
	ID       int      `json:"id"`
	Title    string   `json:"title"`
	Author   string   `json:"author,omitempty"`
	Origin   string   `json:"origin,omitempty"`
	Text     string   `json:"text"`
	Terms    []string `json:"terms"`
	Stemmed  []string `json:"stemmed_terms"`
	Filtered []string `json:"filtered_terms,omitempty"`
}

func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, apperrors.Invalidf("document id %q is not an integer", r.PathValue("id")))
		return
	}
	d, err := h.svc.Document(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := documentResponse{
		ID:      d.ID,
		Title:   d.Title,
		Author:  d.Author,
		Origin:  d.Origin,
		Text:    d.RawText,
		Terms:   d.Terms(document.Raw),
		Stemmed: d.Terms(document.Stemmed),
	}
	if d.HasFiltered() {
		resp.Filtered = d.Terms(document.Filtered)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) TermStats(w http.ResponseWriter, r *http.Request) {
	view := document.Raw
	if v := r.URL.Query().Get("view"); v != "" {
		parsed, err := document.ParseView(v)
		if err != nil {
			h.writeError(w, r, apperrors.Invalidf("%v", err))
			return
		}
		view = parsed
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, r, apperrors.Invalidf("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	entries, vocab := h.svc.TermStats(view, limit)
	h.writeJSON(w, http.StatusOK, struct {
		View       string            `json:"view"`
		Vocabulary int               `json:"vocabulary_size"`
		Terms      []index.TermEntry `json:"terms"`
	}{view.String(), vocab, entries})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	hits, misses, ok := h.svc.CacheStats()
	if !ok {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.InvalidateCache(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.writeError(w, r, apperrors.Invalidf("decoding request body: %v", err))
		return false
	}
	return true
}

func boolParam(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err to a status code. Messages of 5xx errors are not
// exposed to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		message = "internal error"
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
