package indexer

import (
	"iter"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/tokenizer"
)

func loadKeywords(n *tokenizer.Normalizer, docID string, tokens iter.Seq2[string, error]) (map[string]index.Occurrence, error) {
	counts := make(map[string]int)
	for raw, err := range tokens {
		if err != nil {
			return nil, err
		}
		if kw, ok := n.Keyword(raw); ok {
			counts[kw]++
		}
	}
	kws := make(map[string]index.Occurrence, len(counts))
	for kw, freq := range counts {
		kws[kw] = index.Occurrence{DocID: docID, Frequency: freq}
	}
	return kws, nil
}
