package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/builder"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/indexer/source"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service",
		"port", cfg.Server.Port,
		"source", cfg.Indexer.Source,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := health.NewChecker()
	m := metrics.New(prometheus.DefaultRegisterer)

	var pg *postgres.Client
	if cfg.Postgres.Enabled {
		pg, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		if err := pg.Migrate(ctx, source.Schema); err != nil {
			slog.Error("failed to migrate postgres schema", "error", err)
			os.Exit(1)
		}
		checker.Register("postgres", health.PingCheck(pg.Ping, cfg.Indexer.Source != config.SourcePostgres))
		slog.Info("postgres connected", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	}

	var corpus source.Corpus
	switch cfg.Indexer.Source {
	case config.SourcePostgres:
		corpus = source.NewPostgresCorpus(source.NewPostgres(pg.DB))
	default:
		corpus = source.NewFileCorpus(cfg.Indexer.DocsFile, cfg.Indexer.NoiseWordsFile, cfg.Indexer.DocsDir)
	}

	engine := indexer.NewEngine()
	opts := []builder.Option{
		builder.WithMetrics(m),
		builder.WithTracing(cfg.Tracing.Enabled),
	}

	var queryCache handler.Cache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			breaker := cache.NewBreaker(resilience.CircuitBreakerConfig{
				OnStateChange: func(_ string, _, to resilience.State) {
					m.CacheCircuitState.Set(float64(to))
				},
			})
			qc := cache.New(cache.Guard(redisClient, breaker), cfg.Redis.CacheTTL)
			queryCache = qc
			opts = append(opts, builder.WithCache(qc))
			checker.Register("redis", health.PingCheck(redisClient.Ping, true))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
		defer producer.Close()
		opts = append(opts, builder.WithPublisher(producer))
	}

	b := builder.New(engine, corpus, opts...)
	if cfg.Indexer.BuildOnStart {
		if _, err := b.Rebuild(ctx, "startup"); err != nil {
			slog.Error("initial index build failed, serving partial index", "error", err)
		}
	}

	if cfg.Kafka.Enabled {
		rebuildConsumer := consumer.New(kafka.NewConsumer(
			cfg.Kafka,
			cfg.Kafka.Topics.IndexRebuild,
			consumer.HandleMessage(b),
		))
		go func() {
			if err := rebuildConsumer.Start(ctx); err != nil {
				slog.Error("rebuild consumer error", "error", err)
			}
		}()
		slog.Info("rebuild consumer started",
			"topic", cfg.Kafka.Topics.IndexRebuild,
			"group", cfg.Kafka.ConsumerGroup,
		)
	}

	checker.Register("index_engine", func(ctx context.Context) health.ComponentHealth {
		s := engine.Stats()
		if s.Builds == 0 {
			return health.ComponentHealth{Status: health.StatusDown, Message: "index not built"}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d keywords from %d documents", s.Keywords, s.Documents),
		}
	})

	exec := executor.New(engine, cfg.Search.ResultLimit)
	h := handler.New(exec, engine, queryCache, b, m)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)
	chain = middleware.Metrics(m)(chain)

	if cfg.Metrics.Enabled {
		metricsServer, err := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		if err != nil {
			slog.Error("failed to start metrics server", "error", err)
			os.Exit(1)
		}
		defer metricsServer.Shutdown(context.Background())
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
