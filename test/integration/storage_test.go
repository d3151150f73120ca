// Package integration contains tests that run the search service and the
// analytics store against real Redis and PostgreSQL instances. Tests skip
// when a dependency is unreachable.
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics/store"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/document"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/service"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/database"
	pkgredis "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/redis"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func skipIfNoPostgres(t *testing.T) *database.Client {
	t.Helper()
	cfg := config.DatabaseConfig{
		Driver:          database.DriverPostgres,
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "docsearch_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "docsearch"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
	db, err := database.New(context.Background(), cfg)
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func skipIfNoRedis(t *testing.T) *pkgredis.Client {
	t.Helper()
	client, err := pkgredis.NewClient(context.Background(), config.RedisConfig{
		Addr:     envOrDefault("TEST_REDIS_ADDR", "localhost:6379"),
		DB:       envOrDefaultInt("TEST_REDIS_DB", 15),
		PoolSize: 4,
	})
	if err != nil {
		t.Skipf("skipping integration test: redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func pets() *document.Collection {
	return document.NewCollection([]*document.Document{
		document.New(0, "Cat and dog", "cat dog", []string{"cat", "dog"}),
		document.New(1, "Dogs and fish", "dog dog fish", []string{"dog", "dog", "fish"}),
		document.New(2, "Fish", "fish fish fish", []string{"fish", "fish", "fish"}),
	})
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestServiceCachesInRedis(t *testing.T) {
	client := skipIfNoRedis(t)
	ctx := context.Background()
	qc := cache.New(client, time.Minute)
	if err := qc.Invalidate(ctx); err != nil {
		t.Fatalf("clearing cache: %v", err)
	}
	svc := service.New(pets(), service.WithCache(qc))

	req := service.Request{Query: fmt.Sprintf("dog fish %d", time.Now().UnixNano()), Mode: service.ModeVector}
	first, err := svc.Search(ctx, req)
	if err != nil {
		t.Fatalf("first search: %v", err)
	}
	second, err := svc.Search(ctx, req)
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if first.CacheHit || !second.CacheHit {
		t.Errorf("cache hits = %v, %v; want false, true", first.CacheHit, second.CacheHit)
	}
	if len(first.Hits) != len(second.Hits) || first.Hits[0].DocID != second.Hits[0].DocID {
		t.Errorf("cached response differs: %+v vs %+v", first.Hits, second.Hits)
	}

	// Applying stopwords must not serve stale filtered results.
	if _, err := svc.ApplyFrequencyStopwords(ctx, 0.6, 0); err != nil {
		t.Fatal(err)
	}
	third, err := svc.Search(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheHit {
		t.Error("search after refilter was served from the cache")
	}
}

func TestSnapshotStoreOnPostgres(t *testing.T) {
	db := skipIfNoPostgres(t)
	ctx := context.Background()
	s := store.New(db)
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	agg := analytics.NewAggregator()
	agg.Track(analytics.SearchEvent{Query: "fox", Mode: "vector", TotalHits: 2, LatencyMs: 4})
	agg.Track(analytics.EvaluationEvent{Query: "fox", Mode: "vector", Precision: 0.5, Recall: 1})
	if err := s.SaveSnapshot(ctx, agg.Stats()); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	latest, err := s.LatestSnapshot(ctx)
	if err != nil || latest == nil {
		t.Fatalf("LatestSnapshot = %v, %v", latest, err)
	}
	if latest.Stats.TotalSearches != 1 || latest.Stats.Evaluations != 1 || latest.Stats.AvgPrecision != 0.5 {
		t.Errorf("stored stats = %+v", latest.Stats)
	}

	list, err := s.ListSnapshots(ctx, 5)
	if err != nil || len(list) == 0 || list[0].ID != latest.ID {
		t.Errorf("ListSnapshots = %v, %v; want newest first", list, err)
	}
}

// ---------------------------------------------------------------------------
// Env helpers
// ---------------------------------------------------------------------------

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
