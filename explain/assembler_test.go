package explain

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rushteam/learnfeed/core"
)

type fakeAI struct {
	failFor map[string]bool
	delay   time.Duration
}

func (f *fakeAI) Name() string { return "fake_ai" }

func (f *fakeAI) EmbedText(ctx context.Context, text string) ([]float64, error) {
	return []float64{0}, nil
}

func (f *fakeAI) Explain(ctx context.Context, req *core.ExplainRequest) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if req.Content != nil && f.failFor[req.Content.ID] {
		return "", errors.New("generation failed")
	}
	if req.Content == nil {
		return "This matches what you have been learning", nil
	}
	return "Because you are into " + req.Content.ID, nil
}

func (f *fakeAI) Close() error { return nil }

func rctxWithDomains(domains ...string) *core.RecommendContext {
	return &core.RecommendContext{
		UserID:  "u1",
		Profile: &core.UserProfile{UserID: "u1", ActiveDomains: domains},
	}
}

func contentItem(id string) *core.Item {
	it := core.NewItem(id)
	it.Content = &core.ContentItem{ID: id}
	return it
}

func TestAssemblerGeneratesForAll(t *testing.T) {
	n := &Assembler{Service: &fakeAI{}}
	items := []*core.Item{contentItem("c1"), contentItem("c2")}

	out, err := n.Process(context.Background(), rctxWithDomains("AI"), items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("explanation must never drop items, got %d", len(out))
	}
	for _, it := range out {
		if Text(it) == "" {
			t.Errorf("item %s missing explanation", it.ID)
		}
		if it.LabelValue("explain_source") != "fake_ai" {
			t.Errorf("item %s explain_source = %q", it.ID, it.LabelValue("explain_source"))
		}
	}
}

func TestAssemblerSingleFailureFallsBack(t *testing.T) {
	n := &Assembler{Service: &fakeAI{failFor: map[string]bool{"bad": true}}}
	items := []*core.Item{contentItem("good"), contentItem("bad")}

	out, err := n.Process(context.Background(), rctxWithDomains("AI", "systems"), items)
	if err != nil {
		t.Fatalf("one failed explanation must not fail the request: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("failed explanation must not drop the item, got %d items", len(out))
	}

	var good, bad *core.Item
	for _, it := range out {
		switch it.ID {
		case "good":
			good = it
		case "bad":
			bad = it
		}
	}
	if !strings.Contains(Text(good), "good") {
		t.Errorf("good item should carry generated text, got %q", Text(good))
	}
	if Text(bad) != "Recommended based on your interests in AI, systems" {
		t.Errorf("bad item fallback = %q", Text(bad))
	}
	if bad.LabelValue("explain_source") != "fallback" {
		t.Errorf("bad item explain_source = %q, want fallback", bad.LabelValue("explain_source"))
	}
}

func TestAssemblerTimeoutFallsBack(t *testing.T) {
	n := &Assembler{
		Service:        &fakeAI{delay: time.Second},
		PerItemTimeout: 10 * time.Millisecond,
	}
	items := []*core.Item{contentItem("slow")}

	out, err := n.Process(context.Background(), rctxWithDomains("AI"), items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if Text(out[0]) != "Recommended based on your interests in AI" {
		t.Errorf("timed-out item should fall back, got %q", Text(out[0]))
	}
}

func TestAssemblerWithoutService(t *testing.T) {
	n := &Assembler{}
	items := []*core.Item{contentItem("c1")}

	out, err := n.Process(context.Background(), rctxWithDomains(), items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if Text(out[0]) != "Recommended based on your learning activity" {
		t.Errorf("no-service fallback = %q", Text(out[0]))
	}
}

func TestFallbackText(t *testing.T) {
	if got := FallbackText([]string{"AI"}); got != "Recommended based on your interests in AI" {
		t.Errorf("FallbackText = %q", got)
	}
	if got := FallbackText(nil); got != "Recommended based on your learning activity" {
		t.Errorf("FallbackText(nil) = %q", got)
	}
}
