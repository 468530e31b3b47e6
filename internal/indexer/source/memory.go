package source

import (
	"context"
	"iter"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/errors"
)

// MemoryDocument is one in-memory document.
type MemoryDocument struct {
	ID   string
	Text string
}

// Memory serves documents and noise words held in memory. It implements all
// three source interfaces.
type Memory struct {
	Docs  []MemoryDocument
	Noise []string
}

// NewMemoryCorpus returns a Corpus whose three sources are m.
func NewMemoryCorpus(m *Memory) Corpus {
	return Corpus{Documents: m, Tokens: m, NoiseWords: m}
}

func (m *Memory) Documents(ctx context.Context) ([]string, error) {
	ids := make([]string, len(m.Docs))
	for i, d := range m.Docs {
		ids[i] = d.ID
	}
	return ids, nil
}

func (m *Memory) NoiseWords(ctx context.Context) ([]string, error) {
	out := make([]string, len(m.Noise))
	copy(out, m.Noise)
	return out, nil
}

func (m *Memory) Tokens(ctx context.Context, docID string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, d := range m.Docs {
			if d.ID != docID {
				continue
			}
			for _, w := range strings.Fields(d.Text) {
				if !yield(w, nil) {
					return
				}
			}
			return
		}
		yield("", apperrors.Unavailable(docID, nil))
	}
}
