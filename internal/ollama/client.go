// Package ollama provides a streaming client for the Ollama chat API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stratos/parley/internal/types"
	"go.uber.org/zap"
)

// probeTimeout bounds the connection probe; it classifies reachability only.
const probeTimeout = 1500 * time.Millisecond

// Client handles communication with the Ollama API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds client configuration.
type Config struct {
	BaseURL string        // e.g., "http://localhost:11434" or remote endpoint
	Timeout time.Duration // request timeout for non-streaming calls
	Logger  *zap.Logger
}

// DefaultConfig returns sensible defaults for local development.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:11434",
		Timeout: 60 * time.Second,
	}
}

// NewClient creates a new Ollama client. Streaming requests are bounded by
// their context rather than a client-wide timeout.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{},
		logger:     cfg.Logger,
	}
}

// Options controls sampling parameters for one chat request.
type Options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
	NumCtx      int     `json:"num_ctx,omitempty"`
	NumThread   int     `json:"num_thread,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

// ChatRequest is the request body for the /api/chat endpoint. The system
// instruction comes first in Messages, followed by the working conversation.
type ChatRequest struct {
	Model     string             `json:"model"`
	Messages  []types.Message    `json:"messages"`
	Stream    bool               `json:"stream"`
	Options   *Options           `json:"options,omitempty"`
	KeepAlive string             `json:"keep_alive,omitempty"`
	Tools     []types.ToolSchema `json:"tools,omitempty"`
}

// chatRecord is one NDJSON record of a streaming chat response.
type chatRecord struct {
	Message *struct {
		Content   string           `json:"content"`
		ToolCalls []types.ToolCall `json:"tool_calls"`
	} `json:"message"`
	Status string `json:"status"`
	Error  string `json:"error"`
	Done   bool   `json:"done"`
}

// StreamHandler receives incremental callbacks while a chat response
// streams. Either callback may be nil.
type StreamHandler struct {
	// OnStatus receives server status lines verbatim.
	OnStatus func(status string)
	// OnDelta receives each content fragment as it arrives, never the
	// accumulated string.
	OnDelta func(delta string)
}

// ChatResult is the outcome of one completed chat pass.
type ChatResult struct {
	Content   string
	ToolCalls []types.ToolCall
}

// ChatStream sends a chat request and decodes the NDJSON response stream,
// invoking the handler per record. It returns the accumulated content and
// the tool calls in the order the model issued them. A single malformed line
// is skipped and never aborts the stream.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, h StreamHandler) (*ChatResult, error) {
	req.Stream = true

	resp, err := c.post(ctx, "/api/chat", req)
	if err != nil {
		return nil, err
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, ErrStreamUnavailable
	}

	lines := newLineReader(resp.Body)
	defer lines.Close()

	var result ChatResult
	var content bytes.Buffer

	for {
		line, err := lines.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, context.Canceled
			}
			return nil, fmt.Errorf("read stream: %w", err)
		}

		var rec chatRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			c.logger.Debug("skipping malformed record",
				zap.ByteString("line", line),
				zap.Error(err))
			continue
		}

		if rec.Status != "" && h.OnStatus != nil {
			h.OnStatus(rec.Status)
		}
		if rec.Message != nil {
			if rec.Message.Content != "" {
				content.WriteString(rec.Message.Content)
				if h.OnDelta != nil {
					h.OnDelta(rec.Message.Content)
				}
			}
			result.ToolCalls = append(result.ToolCalls, rec.Message.ToolCalls...)
		}
		if rec.Done {
			// Anything still queued behind the terminal record is dropped.
			break
		}
	}

	result.Content = content.String()
	return &result, nil
}

// Chat sends a non-streaming chat request and returns the assistant content.
// Used for short auxiliary exchanges such as title generation.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	req.Stream = false

	resp, err := c.post(ctx, "/api/chat", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return body.Message.Content, nil
}

// Probe checks whether the server is reachable. It classifies connectivity
// only; failures here never enter the agent loop.
func (c *Client) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ollama not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// post issues a JSON POST and classifies the response status. On non-success
// it drains the body looking for a server error message. The caller owns the
// body on success.
func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, context.Canceled
		}
		return nil, fmt.Errorf("execute request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, newRequestError(resp)
	}
	return resp, nil
}

// newRequestError builds a RequestError from a non-success response,
// preferring the server's own error text.
func newRequestError(resp *http.Response) *RequestError {
	reqErr := &RequestError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
	if err != nil {
		return reqErr
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		reqErr.Message = body.Error
	}
	return reqErr
}
