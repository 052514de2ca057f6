package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ModelDetails describes a model as reported by /api/tags.
type ModelDetails struct {
	Family            string   `json:"family"`
	Families          []string `json:"families"`
	ParameterSize     string   `json:"parameter_size"`
	QuantizationLevel string   `json:"quantization_level"`
}

// ModelInfo is one entry of the model listing.
type ModelInfo struct {
	Name    string       `json:"name"`
	Size    int64        `json:"size"`
	Digest  string       `json:"digest"`
	Details ModelDetails `json:"details"`
}

// ShowResponse is the subset of /api/show used for capability probing.
type ShowResponse struct {
	Template string       `json:"template"`
	Details  ModelDetails `json:"details"`
}

// CapabilityProbe classifies whether a model accepts a tools array. The
// current implementation is a best-effort heuristic; hiding it behind this
// interface lets a declared-capability lookup replace it without touching
// the agent loop.
type CapabilityProbe interface {
	SupportsTools(ctx context.Context, model string) bool
}

// ListModels returns the models available on the server.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newRequestError(resp)
	}

	var result struct {
		Models []ModelInfo `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result.Models, nil
}

// Show returns detailed information about one model.
func (c *Client) Show(ctx context.Context, model string) (*ShowResponse, error) {
	resp, err := c.post(ctx, "/api/show", map[string]string{"model": model})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var show ShowResponse
	if err := json.NewDecoder(resp.Body).Decode(&show); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &show, nil
}

// toolFamilies lists model families known to handle a tools array.
var toolFamilies = map[string]bool{
	"llama":     true,
	"llama3":    true,
	"qwen2":     true,
	"qwen3":     true,
	"mistral":   true,
	"mixtral":   true,
	"command-r": true,
	"hermes":    true,
	"granite":   true,
}

// SupportsTools reports whether the model is believed to handle tool calls.
// The classification matches the prompt template against tool markers and
// falls back to a family allowlist. It degrades to false on any failure.
func (c *Client) SupportsTools(ctx context.Context, model string) bool {
	show, err := c.Show(ctx, model)
	if err != nil {
		c.logger.Debug("tool support probe failed, assuming none",
			zap.String("model", model),
			zap.Error(err))
		return false
	}
	return classifyToolSupport(show)
}

// classifyToolSupport applies the heuristic to a show response.
func classifyToolSupport(show *ShowResponse) bool {
	tmpl := show.Template
	if strings.Contains(tmpl, ".Tools") || strings.Contains(tmpl, ".ToolCalls") {
		return true
	}

	families := show.Details.Families
	if len(families) == 0 && show.Details.Family != "" {
		families = []string{show.Details.Family}
	}
	for _, f := range families {
		if toolFamilies[strings.ToLower(f)] {
			return true
		}
	}
	return false
}
