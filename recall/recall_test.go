package recall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/learnfeed/core"
)

type stubSource struct {
	name  string
	items []*core.Item
	err   error
	delay time.Duration
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func TestFanoutMergeFirst(t *testing.T) {
	n := &Fanout{
		Dedup: true,
		Sources: []Source{
			&stubSource{name: "a", items: []*core.Item{core.NewItem("c1"), core.NewItem("c2")}},
			&stubSource{name: "b", items: []*core.Item{core.NewItem("c2"), core.NewItem("c3")}},
		},
	}

	items, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 deduped items, got %d", len(items))
	}

	ids := make(map[string]bool)
	for _, it := range items {
		ids[it.ID] = true
		if it.LabelValue("recall_source") == "" {
			t.Errorf("item %s missing recall_source label", it.ID)
		}
	}
	for _, want := range []string{"c1", "c2", "c3"} {
		if !ids[want] {
			t.Errorf("missing item %s", want)
		}
	}
}

func TestFanoutFailedSourceDoesNotAbort(t *testing.T) {
	n := &Fanout{
		Dedup: true,
		Sources: []Source{
			&stubSource{name: "broken", err: errors.New("backend down")},
			&stubSource{name: "ok", items: []*core.Item{core.NewItem("c1")}},
		},
	}

	items, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(items) != 1 || items[0].ID != "c1" {
		t.Fatalf("expected surviving source result, got %v", items)
	}
}

func TestFanoutNegativeMaxConcurrent(t *testing.T) {
	n := &Fanout{
		MaxConcurrent: -1, // 非法配置按无限制处理，不应 panic
		Sources: []Source{
			&stubSource{name: "a", items: []*core.Item{core.NewItem("c1")}},
			&stubSource{name: "b", items: []*core.Item{core.NewItem("c2")}},
		},
	}

	items, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected both sources to contribute, got %v", items)
	}
}

func TestFanoutTimeout(t *testing.T) {
	n := &Fanout{
		Timeout: 10 * time.Millisecond,
		Sources: []Source{
			&stubSource{name: "slow", delay: time.Second, items: []*core.Item{core.NewItem("slow")}},
			&stubSource{name: "fast", items: []*core.Item{core.NewItem("fast")}},
		},
	}

	items, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(items) != 1 || items[0].ID != "fast" {
		t.Fatalf("slow source should time out, got %v", items)
	}
}

type fakeContentStore struct {
	contents map[string]*core.ContentItem
	dim      int
	lastF    *core.CandidateFilter
}

func (s *fakeContentStore) Name() string { return "fake_contents" }

func (s *fakeContentStore) FetchApprovedCandidates(ctx context.Context, f *core.CandidateFilter) ([]*core.ContentItem, error) {
	s.lastF = f
	out := make([]*core.ContentItem, 0, len(s.contents))
	for _, c := range s.contents {
		if c.Eligible() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeContentStore) GetContent(ctx context.Context, id string) (*core.ContentItem, error) {
	c, ok := s.contents[id]
	if !ok {
		return nil, core.ErrContentNotFound
	}
	return c, nil
}

func (s *fakeContentStore) EmbeddingDimension(ctx context.Context) (int, error) { return s.dim, nil }

func TestCandidatesRecall(t *testing.T) {
	cs := &fakeContentStore{
		dim: 3,
		contents: map[string]*core.ContentItem{
			"ok":       {ID: "ok", ModerationStatus: core.ModerationApproved, Embedding: []float64{1}},
			"pending":  {ID: "pending", ModerationStatus: core.ModerationPending, Embedding: []float64{1}},
			"novector": {ID: "novector", ModerationStatus: core.ModerationApproved},
		},
	}

	r := &Candidates{Store: cs, ApplyPreferences: true}
	rctx := &core.RecommendContext{
		UserID: "u1",
		Profile: &core.UserProfile{
			UserID:        "u1",
			ActiveDomains: []string{"AI"},
		},
		Preferences: &core.UserPreferences{
			UserID:                "u1",
			PreferredContentTypes: []core.ContentType{core.ContentTypeVideo},
			MaxDurationMinutes:    30,
		},
	}

	items, err := r.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(items) != 1 || items[0].ID != "ok" {
		t.Fatalf("only eligible content should be recalled, got %v", items)
	}
	if items[0].Content == nil {
		t.Error("candidate item should carry its ContentItem")
	}
	if cs.lastF == nil || len(cs.lastF.Domains) != 1 || cs.lastF.MaxDurationMinutes != 30 {
		t.Errorf("preference facets not pushed down: %+v", cs.lastF)
	}
}

func TestTrendingGatedByInteractionCount(t *testing.T) {
	r := &Trending{
		IDs:             []string{"t1", "t2"},
		MinInteractions: 5,
	}

	warm := &core.RecommendContext{
		UserID:  "u1",
		Profile: &core.UserProfile{UserID: "u1", InteractionCount: 10},
	}
	items, err := r.Recall(context.Background(), warm)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("warm user should not get trending recall, got %v", items)
	}

	cold := &core.RecommendContext{
		UserID:  "u2",
		Profile: &core.UserProfile{UserID: "u2", InteractionCount: 2},
	}
	items, err = r.Recall(context.Background(), cold)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("cold user should get trending fallback, got %v", items)
	}
}

func TestStoreBackendMatchesFilter(t *testing.T) {
	content := &core.ContentItem{
		ID:               "c1",
		ContentType:      core.ContentTypeArticle,
		Topics:           []string{"AI", "ml"},
		DifficultyLevel:  core.DifficultyIntermediate,
		DurationMinutes:  20,
		Embedding:        []float64{1},
		ModerationStatus: core.ModerationApproved,
	}

	tests := []struct {
		name   string
		filter *core.CandidateFilter
		want   bool
	}{
		{"empty filter", &core.CandidateFilter{}, true},
		{"domain hit", &core.CandidateFilter{Domains: []string{"AI"}}, true},
		{"domain miss", &core.CandidateFilter{Domains: []string{"biology"}}, false},
		{"type hit", &core.CandidateFilter{ContentTypes: []core.ContentType{core.ContentTypeArticle}}, true},
		{"type miss", &core.CandidateFilter{ContentTypes: []core.ContentType{core.ContentTypeVideo}}, false},
		{"within difficulty band", &core.CandidateFilter{MinDifficulty: core.DifficultyBeginner, MaxDifficulty: core.DifficultyAdvanced}, true},
		{"above max difficulty", &core.CandidateFilter{MaxDifficulty: core.DifficultyBeginner}, false},
		{"within duration", &core.CandidateFilter{MaxDurationMinutes: 30}, true},
		{"too long", &core.CandidateFilter{MaxDurationMinutes: 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesFilter(content, tt.filter); got != tt.want {
				t.Errorf("matchesFilter() = %v, want %v", got, tt.want)
			}
		})
	}

	rejected := &core.ContentItem{ID: "r", ModerationStatus: core.ModerationRejected, Embedding: []float64{1}}
	if matchesFilter(rejected, &core.CandidateFilter{}) {
		t.Error("rejected content must never match")
	}
}
