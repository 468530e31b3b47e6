package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// defaultPairs cover hits in both lists, hits in one list, and misses.
var defaultPairs = [][2]string{
	{"rain", "storm"},
	{"storm", "rain"},
	{"rain", "bird"},
	{"beware", "jabberwock"},
	{"wind", "hills"},
	{"bandersnatch", "rain"},
	{"village", "lanes"},
	{"nothing", "here"},
}

type loadStats struct {
	total     atomic.Int64
	failed    atomic.Int64
	mu        sync.Mutex
	latencies []time.Duration
	codes     map[int]int64
}

func (s *loadStats) record(d time.Duration, code int, err error) {
	s.total.Add(1)
	if err != nil || code < 200 || code >= 300 {
		s.failed.Add(1)
	}
	if err != nil {
		return
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.codes[code]++
	s.mu.Unlock()
}

func newLoadtestCmd() *cobra.Command {
	var (
		baseURL     string
		concurrency int
		duration    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Drive concurrent two-keyword searches against a running service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency < 1 {
				return fmt.Errorf("concurrency must be positive, got %d", concurrency)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), duration)
			defer cancel()
			stats := runLoad(ctx, baseURL, concurrency, defaultPairs)
			if stats.total.Load() == 0 {
				return fmt.Errorf("no requests completed against %s", baseURL)
			}
			renderLoadReport(cmd.OutOrStdout(), stats, duration)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "base URL of the search service")
	cmd.Flags().IntVar(&concurrency, "concurrency", 10, "number of concurrent workers")
	cmd.Flags().DurationVar(&duration, "duration", 30*time.Second, "test duration")
	return cmd
}

func runLoad(ctx context.Context, baseURL string, concurrency int, pairs [][2]string) *loadStats {
	stats := &loadStats{codes: make(map[int]int64)}
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency * 2,
			MaxIdleConnsPerHost: concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	var wg sync.WaitGroup
	for w := range concurrency {
		wg.Go(func() {
			for i := w; ctx.Err() == nil; i++ {
				p := pairs[i%len(pairs)]
				q := url.Values{"kw1": {p[0]}, "kw2": {p[1]}}
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/search?"+q.Encode(), nil)
				if err != nil {
					stats.record(0, 0, err)
					return
				}
				start := time.Now()
				resp, err := client.Do(req)
				if err != nil {
					if ctx.Err() == nil {
						stats.record(time.Since(start), 0, err)
					}
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				stats.record(time.Since(start), resp.StatusCode, nil)
			}
		})
	}
	wg.Wait()
	return stats
}

func renderLoadReport(w io.Writer, stats *loadStats, duration time.Duration) {
	stats.mu.Lock()
	latencies := slices.Clone(stats.latencies)
	codes := make(map[int]int64, len(stats.codes))
	for k, v := range stats.codes {
		codes[k] = v
	}
	stats.mu.Unlock()
	slices.Sort(latencies)

	total := stats.total.Load()
	rows := [][]string{
		{"requests", strconv.FormatInt(total, 10)},
		{"failed", strconv.FormatInt(stats.failed.Load(), 10)},
		{"requests/sec", fmt.Sprintf("%.1f", float64(total)/duration.Seconds())},
	}
	if len(latencies) > 0 {
		rows = append(rows,
			[]string{"min", latencies[0].String()},
			[]string{"p50", percentile(latencies, 50).String()},
			[]string{"p90", percentile(latencies, 90).String()},
			[]string{"p99", percentile(latencies, 99).String()},
			[]string{"max", latencies[len(latencies)-1].String()},
		)
	}
	keys := make([]int, 0, len(codes))
	for code := range codes {
		keys = append(keys, code)
	}
	slices.Sort(keys)
	for _, code := range keys {
		rows = append(rows, []string{"status " + strconv.Itoa(code), strconv.FormatInt(codes[code], 10)})
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Value"})
	table.Bulk(rows)
	table.Render()
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
