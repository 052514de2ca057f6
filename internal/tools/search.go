package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stratos/parley/internal/research"
	"github.com/stratos/parley/internal/types"
)

// Researcher is the contract of the search backend. Only the contract
// matters here; the backend's internals are its own concern.
type Researcher interface {
	Search(ctx context.Context, query string) (research.Result, error)
}

// SearchWeb delegates a query to the research backend and returns a summary
// plus a source list.
type SearchWeb struct {
	backend Researcher
}

// NewSearchWeb creates the search_web capability.
func NewSearchWeb(backend Researcher) *SearchWeb {
	return &SearchWeb{backend: backend}
}

func (s *SearchWeb) Name() string { return "search_web" }

func (s *SearchWeb) Description() string {
	return "Search the knowledge base for information about a topic. Returns a summary and a list of sources."
}

func (s *SearchWeb) Schema() types.ToolSchema {
	return types.ToolSchema{
		Type: "function",
		Function: types.FunctionSpec{
			Name:        s.Name(),
			Description: s.Description(),
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

func (s *SearchWeb) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "", errors.New("missing query argument")
	}
	if s.backend == nil {
		return "", errors.New("search backend not configured")
	}

	result, err := s.backend.Search(ctx, query)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}

	var b strings.Builder
	b.WriteString(result.Summary)
	if len(result.Sources) > 0 {
		b.WriteString("\n\nSources:\n")
		for _, src := range result.Sources {
			fmt.Fprintf(&b, "- %s\n", src)
		}
	}
	return b.String(), nil
}
