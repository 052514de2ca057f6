package research

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBuildResult(t *testing.T) {
	chunks := []chunk{
		{Content: "First finding.", Source: "docs/a.md", Score: 0.9},
		{Content: "Second finding.", Source: "docs/b.md", Score: 0.8},
		{Content: "Third finding.", Source: "docs/a.md", Score: 0.7},
	}

	result := buildResult(chunks)

	if !strings.Contains(result.Summary, "First finding.") ||
		!strings.Contains(result.Summary, "Third finding.") {
		t.Errorf("summary missing chunk content: %q", result.Summary)
	}
	if len(result.Sources) != 2 {
		t.Fatalf("sources must be deduplicated, got %v", result.Sources)
	}
	if result.Sources[0] != "docs/a.md" || result.Sources[1] != "docs/b.md" {
		t.Errorf("sources must preserve first-seen order, got %v", result.Sources)
	}
}

func TestBuildResult_Empty(t *testing.T) {
	result := buildResult(nil)
	if result.Summary == "" {
		t.Error("empty retrieval should still produce a readable summary")
	}
	if len(result.Sources) != 0 {
		t.Errorf("expected no sources, got %v", result.Sources)
	}
}

func TestBuildResult_LongContentTruncated(t *testing.T) {
	result := buildResult([]chunk{{Content: strings.Repeat("x", 600), Source: "s"}})
	if !strings.HasSuffix(strings.TrimSpace(result.Summary), "...") {
		t.Errorf("long chunk content should be truncated, got %d bytes", len(result.Summary))
	}
}

func TestEmbeddingClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[[0.1, 0.2, 0.3]]`)
	}))
	defer srv.Close()

	vec, err := NewEmbeddingClient(srv.URL).EmbedSingle(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("expected 3-dimensional vector, got %d", len(vec))
	}
}

func TestEmbeddingClient_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[[0.1],[0.2]]`)
	}))
	defer srv.Close()

	_, err := NewEmbeddingClient(srv.URL).Embed(context.Background(), []string{"only one"})
	if err == nil {
		t.Error("mismatched vector count must error")
	}
}

func TestEmbeddingClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewEmbeddingClient(srv.URL).EmbedSingle(context.Background(), "x")
	if err == nil {
		t.Error("non-200 from embedding service must error")
	}
}
