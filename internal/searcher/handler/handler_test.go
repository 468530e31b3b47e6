package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/builder"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/source"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/metrics"
)

type mapCache struct {
	data        map[string]*executor.SearchResult
	invalidated int
}

func (c *mapCache) GetOrCompute(ctx context.Context, kw1, kw2 string, fn func() (*executor.SearchResult, error)) (*executor.SearchResult, bool, error) {
	key := kw1 + "\x00" + kw2
	if r, ok := c.data[key]; ok {
		return r, true, nil
	}
	r, err := fn()
	if err != nil {
		return nil, false, err
	}
	c.data[key] = r
	return r, false, nil
}

func (c *mapCache) Invalidate(ctx context.Context) error {
	c.invalidated++
	c.data = map[string]*executor.SearchResult{}
	return nil
}

func (c *mapCache) Stats() (int64, int64) { return 3, 1 }

type fakeRebuilder struct {
	reason string
	err    error
}

func (f *fakeRebuilder) Rebuild(ctx context.Context, reason string) (*builder.Report, error) {
	f.reason = reason
	report := &builder.Report{BuildID: "b1", Reason: reason, Status: builder.StatusSuccess}
	if f.err != nil {
		report.Status = builder.StatusFailed
		report.Error = f.err.Error()
	}
	return report, f.err
}

func newServer(t *testing.T, cache Cache, rb Rebuilder) *httptest.Server {
	t.Helper()
	engine := indexer.NewEngine()
	corpus := source.NewMemoryCorpus(&source.Memory{
		Docs: []source.MemoryDocument{
			{ID: "A", Text: "rain rain rain rain rain"},
			{ID: "B", Text: "rain rain"},
			{ID: "C", Text: "The storm storm storm storm storm"},
			{ID: "D", Text: "storm storm storm storm"},
		},
		Noise: []string{"the"},
	})
	if _, err := engine.MakeIndex(context.Background(), corpus); err != nil {
		t.Fatal(err)
	}
	h := New(executor.New(engine, 0), engine, cache, rb, metrics.New(prometheus.NewRegistry()))
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestSearch(t *testing.T) {
	srv := newServer(t, nil, nil)
	tests := []struct {
		name    string
		query   string
		status  int
		docs    []string
		matched bool
	}{
		{"kw params", "kw1=rain&kw2=storm", http.StatusOK, []string{"A", "C", "D", "B"}, true},
		{"q with OR", "q=Storm.+OR+rain", http.StatusOK, []string{"C", "A", "D", "B"}, true},
		{"single kw2", "kw2=storm", http.StatusOK, []string{"C", "D"}, true},
		{"no match", "kw1=sun&kw2=snow", http.StatusOK, []string{}, false},
		{"noise word", "q=the", http.StatusOK, []string{}, false},
		{"missing", "", http.StatusBadRequest, nil, false},
		{"too many terms", "q=a+b+c", http.StatusBadRequest, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res executor.SearchResult
			status := getJSON(t, srv.URL+"/api/v1/search?"+tt.query, &res)
			if status != tt.status {
				t.Fatalf("status = %d, want %d", status, tt.status)
			}
			if status != http.StatusOK {
				return
			}
			if res.Matched != tt.matched {
				t.Errorf("Matched = %v, want %v", res.Matched, tt.matched)
			}
			if !reflect.DeepEqual(res.Documents, tt.docs) {
				t.Errorf("Documents = %v, want %v", res.Documents, tt.docs)
			}
		})
	}
}

func TestSearchUsesCache(t *testing.T) {
	cache := &mapCache{data: map[string]*executor.SearchResult{}}
	srv := newServer(t, cache, nil)

	var first, second executor.SearchResult
	getJSON(t, srv.URL+"/api/v1/search?q=rain", &first)
	getJSON(t, srv.URL+"/api/v1/search?kw1=RAIN", &second)
	if len(cache.data) != 1 {
		t.Errorf("expected both requests to share one cache entry, got %d", len(cache.data))
	}
	if second.Query != "RAIN" {
		t.Errorf("Query = %q, want the caller's raw query", second.Query)
	}
	if !reflect.DeepEqual(first.Documents, second.Documents) {
		t.Errorf("cached documents differ: %v vs %v", first.Documents, second.Documents)
	}

	var stats map[string]any
	getJSON(t, srv.URL+"/api/v1/cache/stats", &stats)
	if stats["hit_rate"] != "75.0%" {
		t.Errorf("hit_rate = %v", stats["hit_rate"])
	}

	resp, err := http.Post(srv.URL+"/api/v1/cache/invalidate", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || cache.invalidated != 1 {
		t.Errorf("invalidate status = %d, calls = %d", resp.StatusCode, cache.invalidated)
	}
}

func TestKeyword(t *testing.T) {
	srv := newServer(t, nil, nil)

	var body keywordResponse
	if status := getJSON(t, srv.URL+"/api/v1/keywords/Rain!", &body); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body.Keyword != "rain" || len(body.Occurrences) != 2 || body.Occurrences[0].DocID != "A" {
		t.Errorf("body = %+v", body)
	}

	if status := getJSON(t, srv.URL+"/api/v1/keywords/snow", nil); status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
}

func TestIndex(t *testing.T) {
	srv := newServer(t, nil, nil)
	var body indexResponse
	getJSON(t, srv.URL+"/api/v1/index", &body)
	if body.Stats.Keywords != 2 || len(body.Entries) != 2 {
		t.Fatalf("body = %+v", body)
	}
	if body.Entries[0].Keyword != "rain" || body.Entries[1].Keyword != "storm" {
		t.Errorf("entries not sorted: %+v", body.Entries)
	}
}

func TestRebuild(t *testing.T) {
	tests := []struct {
		name   string
		rb     *fakeRebuilder
		body   string
		status int
		reason string
	}{
		{"ok", &fakeRebuilder{}, `{"reason":"docs changed"}`, http.StatusOK, "api: docs changed"},
		{"empty body", &fakeRebuilder{}, ``, http.StatusOK, "api"},
		{"bad body", &fakeRebuilder{}, `{`, http.StatusBadRequest, ""},
		{"unreadable input", &fakeRebuilder{err: apperrors.Unavailable("docs.txt", errors.New("no such file"))}, ``, http.StatusUnprocessableEntity, "api"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, nil, tt.rb)
			resp, err := http.Post(srv.URL+"/api/v1/index/rebuild", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.rb.reason != tt.reason {
				t.Errorf("reason = %q, want %q", tt.rb.reason, tt.reason)
			}
		})
	}
}

func TestDisabledFeatures(t *testing.T) {
	srv := newServer(t, nil, nil)
	resp, err := http.Post(srv.URL+"/api/v1/index/rebuild", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("rebuild status = %d, want 503", resp.StatusCode)
	}

	var stats map[string]string
	getJSON(t, srv.URL+"/api/v1/cache/stats", &stats)
	if stats["status"] != "disabled" {
		t.Errorf("cache stats = %v", stats)
	}
}
