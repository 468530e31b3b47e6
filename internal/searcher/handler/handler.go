// Package handler exposes the search engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/builder"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/middleware"
)

type SearchExecutor interface {
	Execute(ctx context.Context, plan *parser.QueryPlan) (*executor.SearchResult, error)
}

// Index is the read side of *indexer.Engine.
type Index interface {
	Keyword(word string) (string, bool)
	Lookup(kw string) (index.OccurrenceList, bool)
	Snapshot() []index.TermEntry
	Stats() indexer.Stats
}

type Cache interface {
	GetOrCompute(ctx context.Context, kw1, kw2 string, computeFn func() (*executor.SearchResult, error)) (*executor.SearchResult, bool, error)
	Invalidate(ctx context.Context) error
	Stats() (hits, misses int64)
}

type Rebuilder interface {
	Rebuild(ctx context.Context, reason string) (*builder.Report, error)
}

// Handler serves the search API. cache, rebuilder and metrics may be nil.
type Handler struct {
	executor  SearchExecutor
	index     Index
	cache     Cache
	rebuilder Rebuilder
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(exec SearchExecutor, idx Index, cache Cache, rebuilder Rebuilder, m *metrics.Metrics) *Handler {
	return &Handler{
		executor:  exec,
		index:     idx,
		cache:     cache,
		rebuilder: rebuilder,
		metrics:   m,
		logger:    slog.Default().With("component", "search-handler"),
	}
}

// Register mounts every API route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/keywords/{keyword}", h.Keyword)
	mux.HandleFunc("GET /api/v1/index", h.Index)
	mux.HandleFunc("POST /api/v1/index/rebuild", h.Rebuild)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// Search answers ?q=kw1 OR kw2, or ?kw1=&kw2=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	plan, err := h.plan(r)
	if err != nil {
		h.countQuery(metrics.ResultError)
		h.writeError(w, err)
		return
	}

	var result *executor.SearchResult
	cacheStatus := "disabled"
	if h.cache != nil {
		var hit bool
		result, hit, err = h.cache.GetOrCompute(ctx, plan.First, plan.Second, func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, plan)
		})
		cacheStatus = "miss"
		if hit {
			cacheStatus = "hit"
		}
		h.countCache(hit)
	} else {
		result, err = h.executor.Execute(ctx, plan)
	}
	if err != nil {
		log.Error("search execution failed", "query", plan.RawQuery, "error", err)
		h.countQuery(metrics.ResultError)
		h.writeError(w, err)
		return
	}

	// Cached results are shared between callers.
	out := *result
	out.Query = plan.RawQuery

	elapsed := time.Since(start)
	log.Info("search completed",
		"keywords", out.Keywords,
		"matched", out.Matched,
		"returned", len(out.Documents),
		"cache", cacheStatus,
		"latency", elapsed,
	)
	if h.metrics != nil {
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(elapsed.Seconds())
		h.metrics.SearchResultsCount.Observe(float64(len(out.Documents)))
	}
	if out.Matched {
		h.countQuery(metrics.ResultMatched)
	} else {
		h.countQuery(metrics.ResultNoMatch)
	}
	h.writeJSON(w, http.StatusOK, &out)
}

func (h *Handler) plan(r *http.Request) (*parser.QueryPlan, error) {
	q := r.URL.Query()
	if query := strings.TrimSpace(q.Get("q")); query != "" {
		return parser.Parse(query, h.index.Keyword)
	}
	kw1, kw2 := strings.TrimSpace(q.Get("kw1")), strings.TrimSpace(q.Get("kw2"))
	if kw1 == "" && kw2 == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' or 'kw1'/'kw2' is required")
	}
	if strings.ContainsAny(kw1+kw2, " \t\n") {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "kw1 and kw2 must be single words")
	}
	plan := &parser.QueryPlan{RawQuery: strings.TrimSpace(kw1 + " OR " + kw2)}
	if kw1 != "" {
		plan.First = parser.Term(kw1, h.index.Keyword)
	}
	if kw2 != "" {
		plan.Second = parser.Term(kw2, h.index.Keyword)
	}
	if plan.First == "" {
		plan.First, plan.Second = plan.Second, ""
		plan.RawQuery = kw2
	} else if plan.Second == "" {
		plan.RawQuery = kw1
	}
	return plan, nil
}

type keywordResponse struct {
	Keyword     string               `json:"keyword"`
	Occurrences index.OccurrenceList `json:"occurrences"`
}

// Keyword returns the ranked occurrence list of one keyword.
func (h *Handler) Keyword(w http.ResponseWriter, r *http.Request) {
	kw := parser.Term(r.PathValue("keyword"), h.index.Keyword)
	occs, ok := h.index.Lookup(kw)
	if !ok {
		h.writeError(w, apperrors.Newf(apperrors.ErrNotFound, http.StatusNotFound, "keyword %q is not indexed", kw))
		return
	}
	h.writeJSON(w, http.StatusOK, keywordResponse{Keyword: kw, Occurrences: occs})
}

type indexResponse struct {
	Stats   indexer.Stats     `json:"stats"`
	Entries []index.TermEntry `json:"entries"`
}

// Index dumps every keyword with its ranked list, sorted by keyword.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, indexResponse{
		Stats:   h.index.Stats(),
		Entries: h.index.Snapshot(),
	})
}

type rebuildRequest struct {
	Reason string `json:"reason"`
}

type rebuildResponse struct {
	*builder.Report
	RequestID string `json:"request_id,omitempty"`
}

func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	if h.rebuilder == nil {
		h.writeMessage(w, http.StatusServiceUnavailable, "rebuilds are disabled")
		return
	}
	var req rebuildRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.writeError(w, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "invalid request body: %v", err))
			return
		}
	}
	reason := "api"
	if req.Reason != "" {
		reason = "api: " + req.Reason
	}
	report, err := h.rebuilder.Rebuild(r.Context(), reason)
	status := http.StatusOK
	if err != nil {
		status = apperrors.HTTPStatusCode(err)
	}
	h.writeJSON(w, status, rebuildResponse{Report: report, RequestID: middleware.GetRequestID(r.Context())})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
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
	if h.cache == nil {
		h.writeMessage(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeMessage(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) countQuery(resultType string) {
	if h.metrics != nil {
		h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	}
}

func (h *Handler) countCache(hit bool) {
	if h.metrics == nil {
		return
	}
	if hit {
		h.metrics.CacheHitsTotal.Inc()
	} else {
		h.metrics.CacheMissesTotal.Inc()
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	msg := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	h.writeMessage(w, apperrors.HTTPStatusCode(err), msg)
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
