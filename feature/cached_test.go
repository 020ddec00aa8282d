package feature

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/learnfeed/core"
)

type countingService struct {
	calls      int
	batchCalls int
}

func (s *countingService) Name() string { return "counting" }

func (s *countingService) GetUserFeatures(ctx context.Context, userID string) (map[string]float64, error) {
	s.calls++
	return map[string]float64{"domain_affinity:AI": 0.8}, nil
}

func (s *countingService) BatchGetUserFeatures(ctx context.Context, userIDs []string) (map[string]map[string]float64, error) {
	s.batchCalls++
	result := make(map[string]map[string]float64)
	for _, id := range userIDs {
		result[id] = map[string]float64{"domain_affinity:AI": 0.8}
	}
	return result, nil
}

func (s *countingService) GetItemFeatures(ctx context.Context, contentID string) (map[string]float64, error) {
	s.calls++
	return map[string]float64{"interactions_30d": 42}, nil
}

func (s *countingService) BatchGetItemFeatures(ctx context.Context, contentIDs []string) (map[string]map[string]float64, error) {
	s.batchCalls++
	result := make(map[string]map[string]float64)
	for _, id := range contentIDs {
		result[id] = map[string]float64{"interactions_30d": 42}
	}
	return result, nil
}

func (s *countingService) Close(ctx context.Context) error { return nil }

var _ core.FeatureService = (*countingService)(nil)

func TestCacheHitSkipsUpstream(t *testing.T) {
	upstream := &countingService{}
	cached := NewCachedService(upstream)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		features, err := cached.GetUserFeatures(ctx, "u1")
		if err != nil {
			t.Fatalf("GetUserFeatures: %v", err)
		}
		if features["domain_affinity:AI"] != 0.8 {
			t.Errorf("features = %v", features)
		}
	}
	if upstream.calls != 1 {
		t.Errorf("upstream calls = %d, want 1", upstream.calls)
	}
}

func TestCacheExpiry(t *testing.T) {
	upstream := &countingService{}
	cached := NewCachedService(upstream)
	cached.TTL = time.Millisecond
	ctx := context.Background()

	cached.GetUserFeatures(ctx, "u1")
	time.Sleep(5 * time.Millisecond)
	cached.GetUserFeatures(ctx, "u1")

	if upstream.calls != 2 {
		t.Errorf("upstream calls = %d, want 2 after expiry", upstream.calls)
	}
}

func TestBatchFetchesOnlyMisses(t *testing.T) {
	upstream := &countingService{}
	cached := NewCachedService(upstream)
	ctx := context.Background()

	cached.GetItemFeatures(ctx, "c1") // warm one entry

	result, err := cached.BatchGetItemFeatures(ctx, []string{"c1", "c2", "c3"})
	if err != nil {
		t.Fatalf("BatchGetItemFeatures: %v", err)
	}
	if len(result) != 3 {
		t.Errorf("result size = %d, want 3", len(result))
	}
	if upstream.batchCalls != 1 {
		t.Errorf("batch calls = %d, want 1", upstream.batchCalls)
	}

	// 全部命中后不再访问远端
	cached.BatchGetItemFeatures(ctx, []string{"c1", "c2", "c3"})
	if upstream.batchCalls != 1 {
		t.Errorf("batch calls = %d, want still 1", upstream.batchCalls)
	}
}

func TestInvalidate(t *testing.T) {
	upstream := &countingService{}
	cached := NewCachedService(upstream)
	ctx := context.Background()

	cached.GetUserFeatures(ctx, "u1")
	cached.Invalidate("u1", "")
	cached.GetUserFeatures(ctx, "u1")

	if upstream.calls != 2 {
		t.Errorf("upstream calls = %d, want 2 after invalidate", upstream.calls)
	}
}
