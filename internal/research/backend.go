// Package research implements the web-search backend behind the search_web
// capability: semantic retrieval over a Qdrant collection with embeddings
// generated by an external embedding service.
package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

// Result is what the search_web capability reports back to the model.
type Result struct {
	Summary string
	Sources []string
}

// chunk is one retrieved document fragment.
type chunk struct {
	Content string
	Source  string
	Score   float64
}

// Config holds backend configuration.
type Config struct {
	QdrantHost        string
	QdrantPort        int
	Collection        string
	EmbeddingEndpoint string
	TopK              int
	MinScore          float32
}

// Backend retrieves documents from Qdrant using external embeddings.
type Backend struct {
	client     *qdrant.Client
	embedder   *EmbeddingClient
	collection string
	topK       int
	minScore   float32
	logger     *zap.Logger
}

// NewBackend connects to Qdrant and prepares the embedding client.
func NewBackend(cfg Config, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.QdrantHost,
		Port: cfg.QdrantPort,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w",
			cfg.QdrantHost, cfg.QdrantPort, err)
	}

	return &Backend{
		client:     client,
		embedder:   NewEmbeddingClient(cfg.EmbeddingEndpoint),
		collection: cfg.Collection,
		topK:       cfg.TopK,
		minScore:   cfg.MinScore,
		logger:     logger,
	}, nil
}

// Search embeds the query, performs semantic retrieval, and condenses the
// hits into a summary plus source list.
func (b *Backend) Search(ctx context.Context, query string) (Result, error) {
	if strings.TrimSpace(query) == "" {
		return Result{}, fmt.Errorf("empty query")
	}

	embedding, err := b.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("failed to embed query: %w", err)
	}

	limit := uint64(b.topK)
	minScore := b.minScore
	points, err := b.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: b.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
		ScoreThreshold: &minScore,
	})
	if err != nil {
		return Result{}, fmt.Errorf("qdrant search failed: %w", err)
	}

	chunks := make([]chunk, 0, len(points))
	for _, point := range points {
		c := chunk{Score: float64(point.GetScore())}
		if payload := point.GetPayload(); payload != nil {
			if content, ok := payloadString(payload, "content"); ok {
				c.Content = content
			}
			if source, ok := payloadString(payload, "source"); ok {
				c.Source = source
			}
		}
		chunks = append(chunks, c)
	}

	b.logger.Info("search completed",
		zap.Int("results", len(chunks)),
		zap.String("query_preview", truncate(query, 50)))

	return buildResult(chunks), nil
}

// buildResult condenses retrieved chunks into a summary and a deduplicated,
// order-preserving source list.
func buildResult(chunks []chunk) Result {
	if len(chunks) == 0 {
		return Result{Summary: "No relevant information found."}
	}

	var summary strings.Builder
	seen := make(map[string]bool)
	sources := make([]string, 0, len(chunks))

	for _, c := range chunks {
		if c.Content != "" {
			if summary.Len() > 0 {
				summary.WriteString("\n\n")
			}
			summary.WriteString(truncate(c.Content, 500))
		}
		if c.Source != "" && !seen[c.Source] {
			seen[c.Source] = true
			sources = append(sources, c.Source)
		}
	}

	return Result{
		Summary: summary.String(),
		Sources: sources,
	}
}

// payloadString extracts a string value from a Qdrant payload.
func payloadString(payload map[string]*qdrant.Value, key string) (string, bool) {
	if val, ok := payload[key]; ok {
		if s := val.GetStringValue(); s != "" {
			return s, true
		}
	}
	return "", false
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
