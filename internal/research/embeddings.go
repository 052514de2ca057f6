package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// EmbeddingClient calls an external embedding service that accepts a batch
// of texts and returns one vector per text.
type EmbeddingClient struct {
	endpoint string
	client   *http.Client
}

// NewEmbeddingClient creates a client for the given endpoint.
func NewEmbeddingClient(endpoint string) *EmbeddingClient {
	return &EmbeddingClient{
		endpoint: endpoint,
		client:   &http.Client{},
	}
}

type embeddingRequest struct {
	Inputs []string `json:"inputs"`
}

// Embed returns one embedding per input text.
func (ec *EmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Inputs: texts})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ec.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ec.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned status %d", resp.StatusCode)
	}

	var embeddings [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&embeddings); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors",
			len(texts), len(embeddings))
	}
	return embeddings, nil
}

// EmbedSingle embeds one text.
func (ec *EmbeddingClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := ec.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}
