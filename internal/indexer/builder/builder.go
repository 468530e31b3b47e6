// Package builder runs full index builds on behalf of the service: it
// drives Engine.MakeIndex, records metrics and a span tree, clears the query
// cache and announces the result on Kafka.
package builder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/source"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/tracing"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Invalidator drops cached search results.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Publisher sends build events.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// IndexBuilt is published after every build, failed ones included.
type IndexBuilt struct {
	BuildID     string    `json:"build_id"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	Documents   int       `json:"documents"`
	Keywords    int       `json:"keywords"`
	Occurrences int       `json:"occurrences"`
	NoiseWords  int       `json:"noise_words"`
	DurationMs  int64     `json:"duration_ms"`
	BuiltAt     time.Time `json:"built_at"`
}

// Report is returned to callers of Rebuild.
type Report struct {
	BuildID string              `json:"build_id"`
	Reason  string              `json:"reason"`
	Status  string              `json:"status"`
	Error   string              `json:"error,omitempty"`
	Stats   *indexer.BuildStats `json:"stats,omitempty"`
}

type Builder struct {
	engine    *indexer.Engine
	corpus    source.Corpus
	metrics   *metrics.Metrics
	cache     Invalidator
	publisher Publisher
	retry     resilience.RetryConfig
	tracing   bool
	mu        sync.Mutex
	logger    *slog.Logger
}

type Option func(*Builder)

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) { b.metrics = m }
}

func WithCache(c Invalidator) Option {
	return func(b *Builder) { b.cache = c }
}

func WithPublisher(p Publisher) Option {
	return func(b *Builder) { b.publisher = p }
}

func WithRetry(cfg resilience.RetryConfig) Option {
	return func(b *Builder) { b.retry = cfg }
}

// WithTracing logs the span tree of every build at debug level.
func WithTracing(enabled bool) Option {
	return func(b *Builder) { b.tracing = enabled }
}

func New(engine *indexer.Engine, corpus source.Corpus, opts ...Option) *Builder {
	b := &Builder{
		engine: engine,
		corpus: corpus,
		logger: slog.Default().With("component", "index-builder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Rebuild runs MakeIndex over the configured corpus. Builds are serialized.
// The returned error is the build error; cache and publish failures are
// logged only.
func (b *Builder) Rebuild(ctx context.Context, reason string) (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx, root := tracing.StartSpan(ctx, "index.rebuild", logger.RequestID(ctx))
	report := &Report{BuildID: uuid.NewString(), Reason: reason, Status: StatusSuccess}
	root.SetAttr("build_id", report.BuildID)
	log := b.logger.With("build_id", report.BuildID, "reason", reason)
	log.Info("index rebuild started")

	start := time.Now()
	buildCtx, span := tracing.StartChildSpan(ctx, "make_index")
	stats, err := b.engine.MakeIndex(buildCtx, b.corpus)
	span.End()
	report.Stats = stats
	if err != nil {
		report.Status = StatusFailed
		report.Error = err.Error()
		log.Error("index rebuild failed", "error", err)
	}
	b.observe(report, time.Since(start))

	if stats != nil && stats.Documents > 0 {
		b.invalidate(ctx, log)
	}
	b.publish(ctx, report, log)

	root.SetAttr("status", report.Status)
	root.End()
	if b.tracing {
		root.Log(log)
	}
	return report, err
}

func (b *Builder) observe(report *Report, elapsed time.Duration) {
	if b.metrics == nil {
		return
	}
	b.metrics.IndexBuildsTotal.WithLabelValues(report.Status).Inc()
	b.metrics.IndexBuildDuration.Observe(elapsed.Seconds())
	if report.Stats != nil {
		b.metrics.DocsIndexedTotal.Add(float64(report.Stats.Documents))
	}
	s := b.engine.Stats()
	b.metrics.KeywordsIndexed.Set(float64(s.Keywords))
	b.metrics.OccurrencesIndexed.Set(float64(s.Occurrences))
}

func (b *Builder) invalidate(ctx context.Context, log *slog.Logger) {
	if b.cache == nil {
		return
	}
	ctx, span := tracing.StartChildSpan(ctx, "cache.invalidate")
	defer span.End()
	if err := b.cache.Invalidate(ctx); err != nil {
		span.SetAttr("error", err.Error())
		log.Warn("cache invalidation failed, stale results may be served until TTL", "error", err)
	}
}

func (b *Builder) publish(ctx context.Context, report *Report, log *slog.Logger) {
	if b.publisher == nil {
		return
	}
	ctx, span := tracing.StartChildSpan(ctx, "kafka.publish")
	defer span.End()
	event := IndexBuilt{
		BuildID: report.BuildID,
		Reason:  report.Reason,
		Status:  report.Status,
		Error:   report.Error,
		BuiltAt: time.Now().UTC(),
	}
	if s := report.Stats; s != nil {
		event.Documents = s.Documents
		event.Keywords = s.Keywords
		event.Occurrences = s.Occurrences
		event.NoiseWords = s.NoiseWords
		event.DurationMs = s.Duration.Milliseconds()
	}
	err := resilience.Retry(ctx, "publish-index-built", b.retry, func() error {
		return b.publisher.Publish(ctx, kafka.Event{Key: report.BuildID, Value: event})
	})
	if err != nil {
		span.SetAttr("error", err.Error())
		log.Error("failed to publish index built event", "error", err)
	}
}
