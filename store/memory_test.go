package store

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/rushteam/learnfeed/core"
)

func TestMemoryStoreGetSetDelete(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("missing key should return store not found, got %v", err)
	}

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("deleted key should return store not found, got %v", err)
	}
}

func TestMemoryStoreCloseStopsCleanup(t *testing.T) {
	before := runtime.NumGoroutine()

	s := NewMemoryStore()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// 重复 Close 不应 panic
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := runtime.NumGoroutine(); n > before {
		t.Errorf("cleanup goroutine still running after Close: %d > %d", n, before)
	}
}

func TestMemoryStoreZRangeDescending(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	for member, score := range map[string]float64{"low": 1, "high": 10, "mid": 5} {
		if err := s.ZAdd(ctx, "trend", score, member); err != nil {
			t.Fatalf("ZAdd: %v", err)
		}
	}

	got, err := s.ZRange(ctx, "trend", 0, 1)
	if err != nil {
		t.Fatalf("ZRange: %v", err)
	}
	if len(got) != 2 || got[0] != "high" || got[1] != "mid" {
		t.Errorf("ZRange top2 = %v, want [high mid]", got)
	}
}

func TestMemoryVectorServiceSearch(t *testing.T) {
	v := NewMemoryVectorService()
	defer v.Close()
	ctx := context.Background()

	if err := v.CreateCollection(ctx, &core.VectorCreateCollectionRequest{
		Name: "content_items", Dimension: 2, Metric: "cosine",
	}); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	err := v.Insert(ctx, &core.VectorInsertRequest{
		Collection: "content_items",
		IDs:        []string{"a", "b", "c"},
		Vectors:    [][]float64{{1, 0}, {0, 1}, {0.9, 0.1}},
		Metadata: []map[string]interface{}{
			{"moderation_status": "approved"},
			{"moderation_status": "approved"},
			{"moderation_status": "pending"},
		},
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	res, err := v.Search(ctx, &core.VectorSearchRequest{
		Collection: "content_items",
		Vector:     []float64{1, 0},
		TopK:       2,
		Metric:     "cosine",
		Filter:     map[string]interface{}{"moderation_status": "approved"},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Items) != 2 || res.Items[0].ID != "a" {
		t.Errorf("Search = %v, want a first", res.Items)
	}
	for _, it := range res.Items {
		if it.ID == "c" {
			t.Error("pending content should be filtered out of search")
		}
	}
}

func TestMemoryVectorServiceDimensionMismatch(t *testing.T) {
	v := NewMemoryVectorService()
	defer v.Close()
	ctx := context.Background()

	if err := v.CreateCollection(ctx, &core.VectorCreateCollectionRequest{Name: "c", Dimension: 3}); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	_, err := v.Search(ctx, &core.VectorSearchRequest{Collection: "c", Vector: []float64{1, 0}})
	if !core.IsDimensionMismatch(err) {
		t.Errorf("expected DIMENSION_MISMATCH, got %v", err)
	}
}
