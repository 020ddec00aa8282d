package feed

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/learnfeed/core"
	"github.com/rushteam/learnfeed/explain"
	"github.com/rushteam/learnfeed/filter"
	"github.com/rushteam/learnfeed/pipeline"
	"github.com/rushteam/learnfeed/profile"
	"github.com/rushteam/learnfeed/rank"
	"github.com/rushteam/learnfeed/recall"
	"github.com/rushteam/learnfeed/rerank"
	"github.com/rushteam/learnfeed/store"
)

// newTestService 搭一个内存后端的完整链路：
// candidates 召回 → eligibility 过滤 → relevance 排序 → topn → explain(fallback)。
func newTestService(t *testing.T) (*Service, *recall.StoreBackend) {
	t.Helper()

	mem := store.NewMemoryStore()
	t.Cleanup(func() { mem.Close() })

	backend := recall.NewStoreBackend(mem, "test")
	backend.Dimension = 2

	contents := []*core.ContentItem{
		{
			ID: "ai-video", Title: "Intro to Transformers",
			ContentType: core.ContentTypeVideo, Topics: []string{"AI"},
			DifficultyLevel: core.DifficultyBeginner, DurationMinutes: 15,
			Embedding: []float64{1, 0}, ModerationStatus: core.ModerationApproved,
		},
		{
			ID: "ai-paper", Title: "Attention Is All You Need",
			ContentType: core.ContentTypePaper, Topics: []string{"AI"},
			DifficultyLevel: core.DifficultyAdvanced, DurationMinutes: 60,
			Embedding: []float64{0.9, 0.1}, ModerationStatus: core.ModerationApproved,
		},
		{
			ID: "bio-article", Title: "Cell Biology Basics",
			ContentType: core.ContentTypeArticle, Topics: []string{"biology"},
			DifficultyLevel: core.DifficultyBeginner, DurationMinutes: 10,
			Embedding: []float64{0, 1}, ModerationStatus: core.ModerationApproved,
		},
		{
			ID: "pending", Title: "Unreviewed",
			ContentType: core.ContentTypeVideo, Topics: []string{"AI"},
			Embedding: []float64{1, 0}, ModerationStatus: core.ModerationPending,
		},
	}
	ctx := context.Background()
	for _, c := range contents {
		if err := backend.PutContent(ctx, c); err != nil {
			t.Fatalf("PutContent(%s): %v", c.ID, err)
		}
	}

	svc := &Service{
		Profiles: &profile.Builder{
			Interactions: backend,
			Contents:     backend,
			Preferences:  backend,
		},
		Preferences: backend,
		Pipeline: &pipeline.Pipeline{
			Nodes: []pipeline.Node{
				&recall.Candidates{Store: backend},
				&filter.FilterNode{Filters: []filter.Filter{&filter.EligibilityFilter{}}},
				&rank.RelevanceNode{},
				&rerank.TopNNode{},
				&explain.Assembler{},
			},
		},
		Version: "v1.0",
		Cache:   NewCache(mem),
	}
	return svc, backend
}

func TestGetFeedColdStart(t *testing.T) {
	svc, backend := newTestService(t)
	ctx := context.Background()

	// 无交互、无偏好：纯冷启动也必须产出 feed，不报错
	recs, err := svc.GetFeed(ctx, "new-user", 10)
	if err != nil {
		t.Fatalf("GetFeed: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("cold start should still return approved candidates")
	}
	for _, r := range recs {
		if r.ContentID == "pending" {
			t.Error("unapproved content leaked into feed")
		}
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("score %v out of [0,1]", r.Score)
		}
		if r.Explanation == "" {
			t.Errorf("recommendation %s missing explanation", r.ContentID)
		}
		if r.AlgorithmVersion != "v1.0" {
			t.Errorf("algorithm version = %q, want v1.0", r.AlgorithmVersion)
		}
	}

	_ = backend
}

func TestGetFeedPersonalized(t *testing.T) {
	svc, backend := newTestService(t)
	ctx := context.Background()

	if err := backend.PutPreferences(ctx, &core.UserPreferences{
		UserID:                "u1",
		LearningDomains:       []string{"AI"},
		PreferredContentTypes: []core.ContentType{core.ContentTypeVideo},
	}); err != nil {
		t.Fatalf("PutPreferences: %v", err)
	}
	if err := backend.Append(ctx, &core.UserInteraction{
		UserID: "u1", ContentID: "ai-video",
		Type: core.InteractionComplete, Timestamp: time.Now(),
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	recs, err := svc.GetFeed(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("GetFeed: %v", err)
	}
	if len(recs) < 2 {
		t.Fatalf("expected multiple recommendations, got %d", len(recs))
	}

	// ai-video 相似度最高但已读（×0.3）；ai-paper 应排到 bio-article 前面
	pos := make(map[string]int)
	for i, r := range recs {
		pos[r.ContentID] = i
	}
	if pAI, ok := pos["ai-paper"]; ok {
		if pBio, ok := pos["bio-article"]; ok && pAI > pBio {
			t.Errorf("AI content should outrank off-domain content: %v", recs)
		}
	}
}

func TestGetFeedDeterministic(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.GetFeed(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("GetFeed: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := svc.GetFeed(ctx, "u1", 10)
		if err != nil {
			t.Fatalf("GetFeed: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("length changed between runs: %d vs %d", len(first), len(again))
		}
		for j := range first {
			if first[j].ContentID != again[j].ContentID || first[j].Score != again[j].Score {
				t.Fatalf("feed not deterministic: %v vs %v", first, again)
			}
		}
	}
}

func TestGetFeedEdgeCases(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	recs, err := svc.GetFeed(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("limit 0 must not error: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("limit 0 should return empty feed, got %v", recs)
	}

	if _, err := svc.GetFeed(ctx, "", 10); err == nil {
		t.Error("empty user id should be rejected")
	}

	recs, err = svc.GetFeed(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("GetFeed: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("limit 1 should cap the feed, got %d", len(recs))
	}
}

func TestGetFeedEmptyCatalog(t *testing.T) {
	mem := store.NewMemoryStore()
	t.Cleanup(func() { mem.Close() })
	backend := recall.NewStoreBackend(mem, "empty")
	backend.Dimension = 2

	svc := &Service{
		Profiles: &profile.Builder{
			Interactions: backend,
			Contents:     backend,
			Preferences:  backend,
		},
		Preferences: backend,
		Pipeline: &pipeline.Pipeline{Nodes: []pipeline.Node{
			&recall.Candidates{Store: backend},
			&rank.RelevanceNode{},
		}},
		Version: "v1.0",
	}

	recs, err := svc.GetFeed(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("empty catalog must not error: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("empty catalog should yield empty feed, got %v", recs)
	}
}

func TestGetFeedCachedLimitGuard(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.GetFeedCached(ctx, "u1", 10); err != nil {
		t.Fatalf("GetFeedCached: %v", err)
	}
	if _, ok := svc.Cache.Get(ctx, "u1"); !ok {
		t.Fatal("feed should be cached after warm-up")
	}

	// 缓存命中路径也要先过 limit 守卫，负数不能进截断
	for _, limit := range []int{0, -1} {
		recs, err := svc.GetFeedCached(ctx, "u1", limit)
		if err != nil {
			t.Fatalf("limit %d must not error: %v", limit, err)
		}
		if len(recs) != 0 {
			t.Errorf("limit %d should return empty feed, got %v", limit, recs)
		}
	}
}

type countingPreferences struct {
	core.PreferencesStore
	gets int
}

func (c *countingPreferences) Get(ctx context.Context, userID string) (*core.UserPreferences, error) {
	c.gets++
	return c.PreferencesStore.Get(ctx, userID)
}

func TestGetFeedReadsPreferencesOnce(t *testing.T) {
	svc, backend := newTestService(t)
	ctx := context.Background()

	prefs := &countingPreferences{PreferencesStore: backend}
	svc.Preferences = prefs
	svc.Profiles.Preferences = prefs

	if _, err := svc.GetFeed(ctx, "u1", 10); err != nil {
		t.Fatalf("GetFeed: %v", err)
	}
	if prefs.gets != 1 {
		t.Errorf("preferences read %d times in one request, want 1", prefs.gets)
	}
}

func TestGetFeedCachedRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.GetFeedCached(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("GetFeedCached: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("expected non-empty feed")
	}

	cached, ok := svc.Cache.Get(ctx, "u1")
	if !ok {
		t.Fatal("feed should be cached after GetFeedCached")
	}
	if len(cached) != len(first) {
		t.Errorf("cached feed length = %d, want %d", len(cached), len(first))
	}

	if err := svc.Cache.Invalidate(ctx, "u1"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := svc.Cache.Get(ctx, "u1"); ok {
		t.Error("cache should miss after invalidation")
	}
}
