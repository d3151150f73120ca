// Command searchd loads a document collection and serves Boolean and vector
// search over HTTP.
//
// Usage:
//
//	go run ./cmd/searchd [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics/store"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/service"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/database"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/tracing"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("search service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting search service", "port", cfg.Server.Port, "source", cfg.Corpus.Source)
	m := metrics.New()

	breaker := resilience.NewCircuitBreaker("corpus-fetch", resilience.CircuitBreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     30 * time.Second,
		OnStateChange: func(name string, to resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	loader := corpus.NewLoader(cfg.Corpus, corpus.WithBreaker(breaker))
	collection, err := loader.LoadCollection(ctx, cfg.Corpus, cfg.Analysis.Stemmer)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}

	aggregator := analytics.NewAggregator()
	opts := []service.Option{
		service.WithMetrics(m),
		service.WithTracker(aggregator),
		service.WithTracer(tracing.NewTracer(cfg.Tracing.Enabled, cfg.Tracing.SampleRate)),
		service.WithTimeout(cfg.Search.Timeout),
		service.WithDefaultMode(service.Mode(cfg.Search.DefaultMode)),
		service.WithLimits(cfg.Search.DefaultLimit, cfg.Search.MaxResults),
	}

	checker := health.NewChecker()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			opts = append(opts, service.WithCache(cache.New(redisClient, cfg.Redis.CacheTTL,
				cache.WithCounters(m.CacheHitsTotal.Inc, m.CacheMissesTotal.Inc))))
			checker.Register("redis", health.PingCheck(redisClient.Ping, health.StatusDegraded))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		defer producer.Close()
		collector := analytics.NewCollector(producer, 10000, 100, 5*time.Second)
		collector.Start(gctx)
		defer collector.Close()
		opts = append(opts, service.WithTracker(collector))
		slog.Info("analytics publishing enabled", "topic", cfg.Kafka.Topic)
	}

	var snapshots *store.Store
	if cfg.Database.Enabled {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			slog.Warn("database unavailable, analytics snapshots disabled", "error", err)
		} else {
			defer db.Close()
			snapshots = store.New(db)
			if err := snapshots.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("preparing analytics store: %w", err)
			}
			checker.Register("database", health.PingCheck(db.Ping, health.StatusDegraded))
		}
	}

	svc := service.New(collection, opts...)
	removed, err := svc.ApplyStrategy(ctx, cfg.Analysis.Stopwords)
	if err != nil {
		return fmt.Errorf("applying stopwords: %w", err)
	}
	slog.Info("collection ready",
		"documents", collection.Len(),
		"stemmer", cfg.Analysis.Stemmer,
		"stopwords", cfg.Analysis.Stopwords.Strategy,
		"terms_removed", removed,
	)

	checker.Register("collection", func(ctx context.Context) health.ComponentHealth {
		n := svc.Collection().Len()
		if n == 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "collection is empty"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d documents", n)}
	})
	checker.Register("corpus_source", func(ctx context.Context) health.ComponentHealth {
		if breaker.State() == resilience.StateOpen {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "circuit open"}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	mux := http.NewServeMux()
	handler.New(svc).Register(mux)
	mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(aggregator).Stats)
	if snapshots != nil {
		mux.HandleFunc("GET /api/v1/analytics/snapshots", snapshots.HandleList)
	}
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	chain := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.CORSOrigins...)),
		middleware.Metrics(m),
	}
	if cfg.Server.RateLimit > 0 {
		limiter := ratelimit.New(cfg.Server.RateLimit, cfg.Server.RateWindow)
		go limiter.Run(gctx, 5*time.Minute)
		chain = append(chain, middleware.RateLimit(limiter))
		slog.Info("rate limiting enabled", "limit", cfg.Server.RateLimit, "window", cfg.Server.RateWindow)
	}
	chain = append(chain, middleware.Timeout(cfg.Server.WriteTimeout))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.Chain(mux, chain...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(shutdownCtx)
		}()
	}

	if snapshots != nil {
		g.Go(func() error {
			return snapshots.RunPeriodicSave(gctx, aggregator, cfg.Database.SnapshotInterval)
		})
	}
	g.Go(func() error {
		slog.Info("search service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
