package indexer

import (
	"context"
	"errors"
	"iter"
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/source"
	apperrors "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/errors"
)

func weatherCorpus() *source.Memory {
	return &source.Memory{
		Docs: []source.MemoryDocument{
			{ID: "AliceCh1.txt", Text: "Rain, rain, go away. The rain in Spain; rain!"},
			{ID: "WowCh1.txt", Text: "Storm and rain. The storm is coming? Storm!"},
			{ID: "Jabberwocky.txt", Text: "Twas brillig, and the slithy toves can't gyre. rain"},
		},
		Noise: []string{"the", "and", "in", "is", "go"},
	}
}

func tokens(words ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, w := range words {
			if !yield(w, nil) {
				return
			}
		}
	}
}

func TestLoadKeywords(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()
	if _, err := e.MakeIndex(ctx, source.NewMemoryCorpus(&source.Memory{Noise: []string{"the"}})); err != nil {
		t.Fatal(err)
	}

	kws, err := e.LoadKeywords("doc1", tokens("The", "rain.", "Rain", "can't", "...", "storm", "the"))
	if err != nil {
		t.Fatalf("LoadKeywords: %v", err)
	}
	want := map[string]index.Occurrence{
		"rain":  {DocID: "doc1", Frequency: 2},
		"storm": {DocID: "doc1", Frequency: 1},
	}
	if !reflect.DeepEqual(kws, want) {
		t.Errorf("LoadKeywords = %v, want %v", kws, want)
	}
}

func TestLoadKeywordsPropagatesReadError(t *testing.T) {
	e := NewEngine()
	boom := apperrors.Unavailable("doc1", errors.New("disk gone"))
	failing := func(yield func(string, error) bool) {
		if !yield("rain", nil) {
			return
		}
		yield("", boom)
	}
	if _, err := e.LoadKeywords("doc1", failing); !errors.Is(err, apperrors.ErrInputUnavailable) {
		t.Errorf("expected ErrInputUnavailable, got %v", err)
	}
}

func TestMakeIndex(t *testing.T) {
	e := NewEngine()
	stats, err := e.MakeIndex(context.Background(), source.NewMemoryCorpus(weatherCorpus()))
	if err != nil {
		t.Fatalf("MakeIndex: %v", err)
	}
	if stats.Documents != 3 || stats.NoiseWords != 5 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	rain, ok := e.Lookup("rain")
	if !ok {
		t.Fatal("expected rain to be indexed")
	}
	want := index.OccurrenceList{
		{DocID: "AliceCh1.txt", Frequency: 4},
		{DocID: "Jabberwocky.txt", Frequency: 1},
		{DocID: "WowCh1.txt", Frequency: 1},
	}
	if !reflect.DeepEqual(rain, want) {
		t.Errorf("rain = %v, want %v", rain, want)
	}
	storm, _ := e.Lookup("storm")
	if !reflect.DeepEqual(storm, index.OccurrenceList{{DocID: "WowCh1.txt", Frequency: 3}}) {
		t.Errorf("storm = %v", storm)
	}
	for _, noise := range []string{"the", "and", "in", "cant", "can't"} {
		if _, ok := e.Lookup(noise); ok {
			t.Errorf("%q must not be indexed", noise)
		}
	}
	if kw, ok := e.Keyword("Spain;"); !ok || kw != "spain" {
		t.Errorf("Keyword(Spain;) = (%q, %v)", kw, ok)
	}
}

func TestMakeIndexListsStayRanked(t *testing.T) {
	e := NewEngine()
	corpus := &source.Memory{}
	texts := []string{
		"a b c d e", "a a b", "a a a c c", "b b b b", "c", "a b b c c c",
		"d d d d d d", "a a a a", "e e", "b c d e a a a a a",
	}
	for i, text := range texts {
		corpus.Docs = append(corpus.Docs, source.MemoryDocument{ID: string(rune('A' + i)), Text: text})
	}
	if _, err := e.MakeIndex(context.Background(), source.NewMemoryCorpus(corpus)); err != nil {
		t.Fatal(err)
	}
	for _, entry := range e.Snapshot() {
		if !index.IsRanked(entry.Occurrences) {
			t.Errorf("%s: list not ranked: %v", entry.Keyword, entry.Occurrences)
		}
	}
}

func TestMakeIndexTwiceDoubleCounts(t *testing.T) {
	e := NewEngine()
	corpus := source.NewMemoryCorpus(weatherCorpus())
	ctx := context.Background()
	if _, err := e.MakeIndex(ctx, corpus); err != nil {
		t.Fatal(err)
	}
	first := e.Snapshot()
	if _, err := e.MakeIndex(ctx, corpus); err != nil {
		t.Fatal(err)
	}
	second := e.Snapshot()

	if len(first) != len(second) {
		t.Fatalf("keyword count changed: %d -> %d", len(first), len(second))
	}
	for i := range first {
		before := totals(first[i].Occurrences)
		after := totals(second[i].Occurrences)
		for doc, f := range before {
			if after[doc] != 2*f {
				t.Errorf("%s/%s: frequency %d after rebuild, want %d", first[i].Keyword, doc, after[doc], 2*f)
			}
		}
		if len(second[i].Occurrences) != 2*len(first[i].Occurrences) {
			t.Errorf("%s: expected list length to double", first[i].Keyword)
		}
		if !index.IsRanked(second[i].Occurrences) {
			t.Errorf("%s: list not ranked after rebuild: %v", first[i].Keyword, second[i].Occurrences)
		}
	}
	if s := e.Stats(); s.Builds != 2 || s.Documents != 6 {
		t.Errorf("unexpected engine stats: %+v", s)
	}
}

func TestMakeIndexAbortsKeepingMergedDocuments(t *testing.T) {
	e := NewEngine()
	corpus := source.NewMemoryCorpus(weatherCorpus())
	corpus.Documents = listOf{"AliceCh1.txt", "missing.txt", "WowCh1.txt"}

	stats, err := e.MakeIndex(context.Background(), corpus)
	if !errors.Is(err, apperrors.ErrInputUnavailable) {
		t.Fatalf("expected ErrInputUnavailable, got %v", err)
	}
	if stats == nil || stats.Documents != 1 {
		t.Errorf("expected one merged document, got %+v", stats)
	}
	if _, ok := e.Lookup("spain"); !ok {
		t.Error("documents merged before the failure must stay indexed")
	}
	if _, ok := e.Lookup("storm"); ok {
		t.Error("documents after the failure must not be indexed")
	}
}

func TestMakeIndexReplacesNoiseWords(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()
	corpus := &source.Memory{
		Docs:  []source.MemoryDocument{{ID: "d1", Text: "rain storm"}},
		Noise: []string{"rain"},
	}
	if _, err := e.MakeIndex(ctx, source.NewMemoryCorpus(corpus)); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.Lookup("rain"); ok {
		t.Fatal("rain is a noise word in the first build")
	}
	corpus.Noise = []string{"storm"}
	if _, err := e.MakeIndex(ctx, source.NewMemoryCorpus(corpus)); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.Lookup("rain"); !ok {
		t.Error("rain must be indexed once the noise set is replaced")
	}
	storm, _ := e.Lookup("storm")
	if len(storm) != 1 {
		t.Errorf("storm was indexed once before becoming noise, got %v", storm)
	}
	corpus.Noise = []string{"storm", "storm", "hail"}
	if _, err := e.MakeIndex(ctx, source.NewMemoryCorpus(corpus)); err != nil {
		t.Fatal(err)
	}
	if s := e.Stats(); s.NoiseWords != 2 {
		t.Errorf("noise words = %d, want 2 distinct", s.NoiseWords)
	}
}

func TestMakeIndexNoiseWordsUnavailable(t *testing.T) {
	e := NewEngine()
	corpus := source.NewMemoryCorpus(weatherCorpus())
	corpus.NoiseWords = failingNoise{}
	if _, err := e.MakeIndex(context.Background(), corpus); !errors.Is(err, apperrors.ErrInputUnavailable) {
		t.Errorf("expected ErrInputUnavailable, got %v", err)
	}
	if s := e.Stats(); s.Keywords != 0 {
		t.Errorf("expected empty index, got %+v", s)
	}
}

type listOf []string

func (l listOf) Documents(ctx context.Context) ([]string, error) { return l, nil }

type failingNoise struct{}

func (failingNoise) NoiseWords(ctx context.Context) ([]string, error) {
	return nil, apperrors.Unavailable("noise.txt", errors.New("permission denied"))
}

func totals(occs index.OccurrenceList) map[string]int {
	out := make(map[string]int)
	for _, o := range occs {
		out[o.DocID] += o.Frequency
	}
	return out
}
