package executor

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/parser"
)

// SearchResult is the outcome of a dual-keyword search. Matched is false
// when neither keyword is indexed; Documents is then empty.
type SearchResult struct {
	Query     string         `json:"query"`
	Keywords  []string       `json:"keywords"`
	Documents []string       `json:"documents"`
	Matched   bool           `json:"matched"`
	TermStats map[string]int `json:"term_stats"`
}

type Executor struct {
	engine *indexer.Engine
	limit  int
	logger *slog.Logger
}

func New(engine *indexer.Engine, limit int) *Executor {
	if limit <= 0 {
		limit = merger.DefaultLimit
	}
	return &Executor{
		engine: engine,
		limit:  limit,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute runs a parsed query.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan) (*SearchResult, error) {
	result := e.Top5(ctx, plan.First, plan.Second)
	result.Query = plan.RawQuery
	return result, nil
}

// Top5 merges the ranked lists of kw1 and kw2. kw1 wins frequency ties.
func (e *Executor) Top5(ctx context.Context, kw1, kw2 string) *SearchResult {
	result := &SearchResult{
		Keywords:  (&parser.QueryPlan{First: kw1, Second: kw2}).Keywords(),
		Documents: []string{},
		TermStats: make(map[string]int, 2),
	}
	e.engine.View(func(idx *index.MemoryIndex) {
		var first, second index.OccurrenceList
		ok1, ok2 := false, false
		if kw1 != "" {
			first, ok1 = idx.Lookup(kw1)
		}
		if kw2 != "" {
			second, ok2 = idx.Lookup(kw2)
		}
		if ok1 {
			result.TermStats[kw1] = len(first)
		}
		if ok2 {
			result.TermStats[kw2] = len(second)
		}
		if !ok1 && !ok2 {
			return
		}
		result.Matched = true
		result.Documents = merger.Merge(first, second, e.limit)
	})
	e.logger.Debug("query executed",
		"keywords", result.Keywords,
		"matched", result.Matched,
		"results", len(result.Documents),
	)
	return result
}
