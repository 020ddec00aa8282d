package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rushteam/learnfeed/core"
)

func newFakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": []float64{0.1, 0.2, 0.3}}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": " Matches your AI interests. "}},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbedText(t *testing.T) {
	srv := newFakeServer(t)
	c := NewClient(srv.URL, "test-key")

	vec, err := c.EmbedText(context.Background(), "intro to neural networks")
	if err != nil {
		t.Fatalf("EmbedText: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("vec = %v, want [0.1 0.2 0.3]", vec)
	}

	if _, err := c.EmbedText(context.Background(), ""); !core.IsInvalidInput(err) {
		t.Errorf("empty text should be INVALID_INPUT, got %v", err)
	}
}

func TestExplain(t *testing.T) {
	srv := newFakeServer(t)
	c := NewClient(srv.URL, "test-key")

	text, err := c.Explain(context.Background(), &core.ExplainRequest{
		Content: &core.ContentItem{
			ID: "c1", Title: "Intro to Neural Networks",
			ContentType: core.ContentTypeVideo, DifficultyLevel: core.DifficultyBeginner,
			Topics: []string{"AI"},
		},
		Score:         0.92,
		ActiveDomains: []string{"AI"},
	})
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if text != "Matches your AI interests." {
		t.Errorf("text = %q, want trimmed completion", text)
	}
}

func TestBadStatusIsUnavailable(t *testing.T) {
	srv := newFakeServer(t)
	c := NewClient(srv.URL, "wrong-key")

	if _, err := c.EmbedText(context.Background(), "hello"); !core.IsUnavailable(err) {
		t.Errorf("401 should map to UNAVAILABLE, got %v", err)
	}
}
