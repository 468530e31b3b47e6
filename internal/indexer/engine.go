package indexer

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/source"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/tokenizer"
)

// Engine owns the noise-word set and the keyword index. One lock covers
// both, so a build never interleaves with a search.
type Engine struct {
	mu         sync.RWMutex
	memIndex   *index.MemoryIndex
	normalizer *tokenizer.Normalizer
	logger     *slog.Logger
	totalDocs  int64
	builds     int64
}

// BuildStats summarizes one MakeIndex call.
type BuildStats struct {
	Documents   int           `json:"documents"`
	Keywords    int           `json:"keywords"`
	Occurrences int           `json:"occurrences"`
	NoiseWords  int           `json:"noise_words"`
	Duration    time.Duration `json:"duration"`
}

// Stats describes the engine as a whole.
type Stats struct {
	Keywords    int   `json:"keywords"`
	Occurrences int   `json:"occurrences"`
	Documents   int64 `json:"documents_merged"`
	Builds      int64 `json:"builds"`
	NoiseWords  int   `json:"noise_words"`
}

func NewEngine() *Engine {
	return &Engine{
		memIndex:   index.NewMemoryIndex(),
		normalizer: tokenizer.NewNormalizer(nil),
		logger:     slog.Default().With("component", "indexer"),
	}
}

// Keyword classifies a raw word against the current noise-word set.
func (e *Engine) Keyword(word string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.normalizer.Keyword(word)
}

// LoadKeywords counts the keywords of one document.
func (e *Engine) LoadKeywords(docID string, tokens iter.Seq2[string, error]) (map[string]index.Occurrence, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return loadKeywords(e.normalizer, docID, tokens)
}

// MakeIndex replaces the noise-word set from the corpus, then loads and
// merges every listed document in order. The first unreadable input aborts
// the build; documents merged before it stay in the index. Calling it again
// keeps merging into the same index.
func (e *Engine) MakeIndex(ctx context.Context, corpus source.Corpus) (*BuildStats, error) {
	start := time.Now()
	noise, err := corpus.NoiseWords.NoiseWords(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading noise words: %w", err)
	}
	docIDs, err := corpus.Documents.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.normalizer.SetNoiseWords(noise)
	e.builds++

	stats := &BuildStats{NoiseWords: len(noise)}
	for _, docID := range docIDs {
		kws, err := loadKeywords(e.normalizer, docID, corpus.Tokens.Tokens(ctx, docID))
		if err != nil {
			e.logger.Error("document load failed, aborting build",
				"doc_id", docID,
				"merged", stats.Documents,
				"error", err,
			)
			return stats, fmt.Errorf("indexing document %s: %w", docID, err)
		}
		e.memIndex.Merge(kws)
		e.totalDocs++
		stats.Documents++
		e.logger.Debug("document merged",
			"doc_id", docID,
			"keywords", len(kws),
		)
	}
	stats.Keywords = e.memIndex.KeywordCount()
	stats.Occurrences = e.memIndex.OccurrenceCount()
	stats.Duration = time.Since(start)
	e.logger.Info("index built",
		"documents", stats.Documents,
		"keywords", stats.Keywords,
		"noise_words", stats.NoiseWords,
		"duration", stats.Duration,
	)
	return stats, nil
}

// View runs fn with read access to the index. fn must not retain or modify
// the lists it reads.
func (e *Engine) View(fn func(idx *index.MemoryIndex)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.memIndex)
}

// Lookup returns a copy of the ranked list for kw.
func (e *Engine) Lookup(kw string) (index.OccurrenceList, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	occs, ok := e.memIndex.Lookup(kw)
	if !ok {
		return nil, false
	}
	cp := make(index.OccurrenceList, len(occs))
	copy(cp, occs)
	return cp, true
}

func (e *Engine) Snapshot() []index.TermEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.memIndex.Snapshot()
}

func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		Keywords:    e.memIndex.KeywordCount(),
		Occurrences: e.memIndex.OccurrenceCount(),
		Documents:   e.totalDocs,
		Builds:      e.builds,
		NoiseWords:  e.normalizer.NoiseWordCount(),
	}
}
