package profile

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rushteam/learnfeed/core"
)

type fakeInteractionStore struct {
	interactions []*core.UserInteraction
	err          error
}

func (s *fakeInteractionStore) Name() string { return "fake_interactions" }

func (s *fakeInteractionStore) FetchRecent(ctx context.Context, userID string, max int) ([]*core.UserInteraction, error) {
	if s.err != nil {
		return nil, s.err
	}
	if max > 0 && len(s.interactions) > max {
		return s.interactions[:max], nil
	}
	return s.interactions, nil
}

func (s *fakeInteractionStore) Append(ctx context.Context, i *core.UserInteraction) error {
	s.interactions = append([]*core.UserInteraction{i}, s.interactions...)
	return nil
}

type fakeContentStore struct {
	contents map[string]*core.ContentItem
	dim      int
}

func (s *fakeContentStore) Name() string { return "fake_contents" }

func (s *fakeContentStore) FetchApprovedCandidates(ctx context.Context, f *core.CandidateFilter) ([]*core.ContentItem, error) {
	out := make([]*core.ContentItem, 0, len(s.contents))
	for _, c := range s.contents {
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeContentStore) GetContent(ctx context.Context, contentID string) (*core.ContentItem, error) {
	c, ok := s.contents[contentID]
	if !ok {
		return nil, core.ErrContentNotFound
	}
	return c, nil
}

func (s *fakeContentStore) EmbeddingDimension(ctx context.Context) (int, error) {
	return s.dim, nil
}

type fakePreferencesStore struct {
	prefs map[string]*core.UserPreferences
	err   error
}

func (s *fakePreferencesStore) Name() string { return "fake_preferences" }

func (s *fakePreferencesStore) Get(ctx context.Context, userID string) (*core.UserPreferences, error) {
	if s.err != nil {
		return nil, s.err
	}
	if p, ok := s.prefs[userID]; ok {
		return p, nil
	}
	return core.DefaultPreferences(userID), nil
}

func newTestBuilder(interactions []*core.UserInteraction, contents map[string]*core.ContentItem) *Builder {
	return &Builder{
		Interactions: &fakeInteractionStore{interactions: interactions},
		Contents:     &fakeContentStore{contents: contents, dim: 3},
		Preferences: &fakePreferencesStore{prefs: map[string]*core.UserPreferences{
			"u1": {
				UserID:                "u1",
				LearningDomains:       []string{"AI", "Go"},
				PreferredContentTypes: []core.ContentType{core.ContentTypeVideo},
			},
		}},
	}
}

func TestBuildColdStart(t *testing.T) {
	b := newTestBuilder(nil, nil)

	p, err := b.Build(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !p.ColdStart() {
		t.Error("expected cold start profile")
	}
	if len(p.Vector) != 3 {
		t.Errorf("expected zero vector of dim 3, got %v", p.Vector)
	}
	if p.InteractionCount != 0 {
		t.Errorf("expected InteractionCount 0, got %d", p.InteractionCount)
	}
	if len(p.ActiveDomains) != 2 || p.ActiveDomains[0] != "AI" {
		t.Errorf("expected preference domains carried over, got %v", p.ActiveDomains)
	}
}

func TestBuildWeightedMean(t *testing.T) {
	now := time.Now()
	contents := map[string]*core.ContentItem{
		"c1": {ID: "c1", Embedding: []float64{1, 0, 0}},
		"c2": {ID: "c2", Embedding: []float64{0, 1, 0}},
	}
	// view(1.0) on c1, complete(2.0) on c2 -> mean = (1*c1 + 2*c2)/3
	interactions := []*core.UserInteraction{
		{UserID: "u1", ContentID: "c2", Type: core.InteractionComplete, Timestamp: now},
		{UserID: "u1", ContentID: "c1", Type: core.InteractionView, Timestamp: now.Add(-time.Hour)},
	}

	b := newTestBuilder(interactions, contents)
	p, err := b.Build(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []float64{1.0 / 3.0, 2.0 / 3.0, 0}
	for i, v := range want {
		if math.Abs(p.Vector[i]-v) > 1e-9 {
			t.Errorf("Vector[%d] = %v, want %v (full: %v)", i, p.Vector[i], v, p.Vector)
		}
	}
	if p.ColdStart() {
		t.Error("profile with interactions should not be cold start")
	}
	if !p.Seen("c1") || !p.Seen("c2") {
		t.Errorf("expected both contents marked seen, got %v", p.SeenContentIDs)
	}
}

func TestBuildDislikeExcludedButSeen(t *testing.T) {
	now := time.Now()
	contents := map[string]*core.ContentItem{
		"c1": {ID: "c1", Embedding: []float64{1, 0, 0}},
		"c2": {ID: "c2", Embedding: []float64{0, 1, 0}},
	}
	interactions := []*core.UserInteraction{
		{UserID: "u1", ContentID: "c1", Type: core.InteractionLike, Timestamp: now},
		{UserID: "u1", ContentID: "c2", Type: core.InteractionDislike, Timestamp: now},
	}

	b := newTestBuilder(interactions, contents)
	p, err := b.Build(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// dislike 不进向量：方向应完全指向 c1
	if math.Abs(p.Vector[0]-1) > 1e-9 || p.Vector[1] != 0 {
		t.Errorf("dislike leaked into vector: %v", p.Vector)
	}
	// 但 dislike 仍然算已读
	if !p.Seen("c2") {
		t.Error("disliked content should still count as seen")
	}
}

func TestBuildSkipsMissingContent(t *testing.T) {
	now := time.Now()
	contents := map[string]*core.ContentItem{
		"c1": {ID: "c1", Embedding: []float64{0, 0, 1}},
	}
	interactions := []*core.UserInteraction{
		{UserID: "u1", ContentID: "c1", Type: core.InteractionView, Timestamp: now},
		{UserID: "u1", ContentID: "gone", Type: core.InteractionView, Timestamp: now},
	}

	b := newTestBuilder(interactions, contents)
	p, err := b.Build(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Build should skip missing content, got: %v", err)
	}
	if math.Abs(p.Vector[2]-1) > 1e-9 {
		t.Errorf("expected vector from remaining content, got %v", p.Vector)
	}
}

func TestBuildRatingScalesWeight(t *testing.T) {
	now := time.Now()
	contents := map[string]*core.ContentItem{
		"c1": {ID: "c1", Embedding: []float64{1, 0, 0}},
		"c2": {ID: "c2", Embedding: []float64{0, 1, 0}},
	}
	// 同为 view，c1 评 5 星（权重 1*5/3），c2 未评分（权重 1）
	interactions := []*core.UserInteraction{
		{UserID: "u1", ContentID: "c1", Type: core.InteractionView, Rating: 5, Timestamp: now},
		{UserID: "u1", ContentID: "c2", Type: core.InteractionView, Timestamp: now},
	}

	b := newTestBuilder(interactions, contents)
	p, err := b.Build(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Vector[0] <= p.Vector[1] {
		t.Errorf("highly rated content should dominate: %v", p.Vector)
	}
}

func TestBuildWindowExcludesStale(t *testing.T) {
	now := time.Now()
	contents := map[string]*core.ContentItem{
		"old": {ID: "old", Embedding: []float64{1, 0, 0}},
		"new": {ID: "new", Embedding: []float64{0, 1, 0}},
	}
	interactions := []*core.UserInteraction{
		{UserID: "u1", ContentID: "new", Type: core.InteractionView, Timestamp: now},
		{UserID: "u1", ContentID: "old", Type: core.InteractionView, Timestamp: now.Add(-200 * 24 * time.Hour)},
	}

	b := newTestBuilder(interactions, contents)
	p, err := b.Build(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Vector[0] != 0 {
		t.Errorf("stale interaction leaked into vector: %v", p.Vector)
	}
	if p.Seen("old") {
		t.Error("stale interaction should fall out of the seen window")
	}
	if p.InteractionCount != 1 {
		t.Errorf("expected InteractionCount 1 after windowing, got %d", p.InteractionCount)
	}
}

func TestBuildUpstreamErrorPropagates(t *testing.T) {
	b := newTestBuilder(nil, nil)
	b.Interactions = &fakeInteractionStore{err: core.ErrUpstreamUnavailable}

	_, err := b.Build(context.Background(), "u1")
	if err == nil {
		t.Fatal("expected error from unavailable interaction store")
	}
	if !core.IsUnavailable(err) {
		t.Errorf("expected UNAVAILABLE domain error, got %v", err)
	}
}

func TestWeightPolicyMonotonic(t *testing.T) {
	policy := DefaultWeightPolicy()
	order := []core.InteractionType{
		core.InteractionView,
		core.InteractionLike,
		core.InteractionShare,
		core.InteractionBookmark,
		core.InteractionComplete,
	}
	prev := 0.0
	for _, typ := range order {
		w := policy.Weight(&core.UserInteraction{Type: typ})
		if w <= prev {
			t.Errorf("weight for %s = %v, want > %v", typ, w, prev)
		}
		prev = w
	}

	if w := policy.Weight(&core.UserInteraction{Type: core.InteractionDislike}); w != 0 {
		t.Errorf("dislike weight = %v, want 0", w)
	}

	low := policy.Weight(&core.UserInteraction{Type: core.InteractionView, Rating: 1})
	high := policy.Weight(&core.UserInteraction{Type: core.InteractionView, Rating: 5})
	if low >= high {
		t.Errorf("rating monotonicity violated: rating 1 -> %v, rating 5 -> %v", low, high)
	}
}
