package cli

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/source"
)

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"docs.txt":   "alice.txt wonder.txt\n",
		"noise.txt":  "the a of and\n",
		"alice.txt":  "The rain fell. Rain, rain and more rain!\n",
		"wonder.txt": "A storm of rain and a storm of wind.\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestIndexCommand(t *testing.T) {
	dir := writeCorpus(t)
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"index",
		"--docs", filepath.Join(dir, "docs.txt"),
		"--noise", filepath.Join(dir, "noise.txt"),
		"--dir", dir,
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("index: %v", err)
	}
	got := out.String()
	for _, want := range []string{"(alice.txt,4)", "(wonder.txt,2)", "2 documents, 5 keywords, 4 noise words"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestIndexCommandMissingFile(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"index", "--docs", "/nonexistent/docs.txt", "--noise", "/nonexistent/noise.txt"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestSearchLoop(t *testing.T) {
	dir := writeCorpus(t)
	docs, noise := filepath.Join(dir, "docs.txt"), filepath.Join(dir, "noise.txt")
	in := strings.NewReader(strings.Join([]string{
		docs, noise, "storm", "RAIN",
		docs, noise, "sun", "moon",
		"",
	}, "\n"))
	var out bytes.Buffer
	if err := runSearchLoop(context.Background(), in, &out, dir); err != nil {
		t.Fatalf("runSearchLoop: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "alice.txt, wonder.txt\n") {
		t.Errorf("expected higher frequency first:\n%s", got)
	}
	if !strings.Contains(got, "No documents contain either keyword.") {
		t.Errorf("expected no-match message:\n%s", got)
	}
	// The second round merges into the same index, so alice.txt is listed
	// twice for rain in the second table.
	if n := strings.Count(got, "(alice.txt,4)"); n != 3 {
		t.Errorf("(alice.txt,4) appears %d times, want 3:\n%s", n, got)
	}
}

func TestSearchLoopMissingFile(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("/nonexistent/docs.txt\n/nonexistent/noise.txt\nrain\nstorm\n")
	if err := runSearchLoop(context.Background(), in, &out, ""); err != nil {
		t.Fatalf("runSearchLoop: %v", err)
	}
	if !strings.HasSuffix(out.String(), inputNotFound+"\n") {
		t.Errorf("expected %q at end of output:\n%s", inputNotFound, out.String())
	}
}

func TestSearchLoopEmptyAnswerExits(t *testing.T) {
	var out bytes.Buffer
	if err := runSearchLoop(context.Background(), strings.NewReader("\n"), &out, ""); err != nil {
		t.Fatal(err)
	}
	if strings.Count(out.String(), "=>") != 1 {
		t.Errorf("expected a single prompt:\n%s", out.String())
	}
}

type recordingExecer struct {
	args [][]any
}

func (r *recordingExecer) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	r.args = append(r.args, args)
	return nil, nil
}

func TestImportCorpus(t *testing.T) {
	ex := &recordingExecer{}
	corpus := source.NewMemoryCorpus(&source.Memory{
		Docs:  []source.MemoryDocument{{ID: "a", Text: "one  two\nthree"}, {ID: "b", Text: "four"}},
		Noise: []string{"the", "of"},
	})
	n, err := importCorpus(context.Background(), ex, corpus)
	if err != nil {
		t.Fatalf("importCorpus: %v", err)
	}
	if n != 2 {
		t.Errorf("imported = %d, want 2", n)
	}
	if len(ex.args) != 4 {
		t.Fatalf("statements = %d, want 4", len(ex.args))
	}
	if ex.args[2][0] != "a" || ex.args[2][1] != "one two three" {
		t.Errorf("document a args = %v", ex.args[2])
	}
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := map[float64]time.Duration{0: 1, 50: 5, 90: 9, 99: 10, 100: 10}
	for p, want := range tests {
		if got := percentile(sorted, p); got != want {
			t.Errorf("percentile(%v) = %v, want %v", p, got, want)
		}
	}
	if percentile(nil, 50) != 0 {
		t.Error("expected zero for empty input")
	}
}

func TestRunLoad(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("kw1") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		hits.Add(1)
		w.Write([]byte(`{"documents":[]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	stats := runLoad(ctx, srv.URL, 2, [][2]string{{"rain", "storm"}})
	if stats.total.Load() == 0 || hits.Load() == 0 {
		t.Fatalf("no requests made: total=%d hits=%d", stats.total.Load(), hits.Load())
	}
	if stats.codes[http.StatusOK] == 0 {
		t.Errorf("codes = %v", stats.codes)
	}

	var out bytes.Buffer
	renderLoadReport(&out, stats, 100*time.Millisecond)
	if !strings.Contains(strings.ToLower(out.String()), "p50") {
		t.Errorf("report missing latency rows:\n%s", out.String())
	}
}
