package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	db, err := database.New(ctx, config.DatabaseConfig{Driver: database.DriverSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s := New(db)
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return s
}

func TestLatestSnapshotEmpty(t *testing.T) {
	s := newTestStore(t)
	snap, err := s.LatestSnapshot(context.Background())
	if err != nil || snap != nil {
		t.Errorf("LatestSnapshot = %v, %v; want nil, nil", snap, err)
	}
}

func TestSaveAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		if err := s.SaveSnapshot(ctx, analytics.AggregatedStats{TotalSearches: int64(i)}); err != nil {
			t.Fatalf("SaveSnapshot %d: %v", i, err)
		}
	}

	latest, err := s.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if latest == nil || latest.Stats.TotalSearches != 3 {
		t.Fatalf("latest = %+v, want TotalSearches 3", latest)
	}

	list, err := s.ListSnapshots(ctx, 2)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(list) != 2 || list[0].Stats.TotalSearches != 3 || list[1].Stats.TotalSearches != 2 {
		t.Errorf("ListSnapshots = %+v", list)
	}
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Errorf("second EnsureSchema: %v", err)
	}
}

func TestRunPeriodicSaveWritesFinalSnapshot(t *testing.T) {
	s := newTestStore(t)
	agg := analytics.NewAggregator()
	agg.Track(analytics.SearchEvent{Type: analytics.EventSearch, Query: "dog", Mode: "vector"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.RunPeriodicSave(ctx, agg, time.Hour); err != nil {
		t.Fatalf("RunPeriodicSave: %v", err)
	}
	latest, err := s.LatestSnapshot(context.Background())
	if err != nil || latest == nil || latest.Stats.TotalSearches != 1 {
		t.Errorf("latest = %+v, %v", latest, err)
	}
}

func TestHandleList(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveSnapshot(context.Background(), analytics.AggregatedStats{Evaluations: 4}); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	s.HandleList(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Count     int        `json:"count"`
		Snapshots []Snapshot `json:"snapshots"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || body.Snapshots[0].Stats.Evaluations != 4 {
		t.Errorf("body = %+v", body)
	}

	rec = httptest.NewRecorder()
	s.HandleList(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=zero", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}
}
