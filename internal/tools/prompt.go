package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/stratos/parley/internal/types"
)

// optimizeInstruction frames the rewrite request sent to the model.
const optimizeInstruction = "Rewrite the following prompt to be clearer and more specific. " +
	"Keep the author's intent. Respond with the improved prompt only, no commentary."

// Chatter is the non-streaming chat contract used by capabilities that need
// a model round trip of their own.
type Chatter interface {
	Complete(ctx context.Context, messages []types.Message) (string, error)
}

// OptimizePrompt rewrites a prompt through a short non-streaming model call.
type OptimizePrompt struct {
	chatter Chatter
}

// NewOptimizePrompt creates the optimize_prompt capability.
func NewOptimizePrompt(chatter Chatter) *OptimizePrompt {
	return &OptimizePrompt{chatter: chatter}
}

func (o *OptimizePrompt) Name() string { return "optimize_prompt" }

func (o *OptimizePrompt) Description() string {
	return "Improve a prompt's clarity and specificity. Returns the rewritten text."
}

func (o *OptimizePrompt) Schema() types.ToolSchema {
	return types.ToolSchema{
		Type: "function",
		Function: types.FunctionSpec{
			Name:        o.Name(),
			Description: o.Description(),
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text": map[string]any{
						"type":        "string",
						"description": "The prompt text to improve",
					},
				},
				"required": []string{"text"},
			},
		},
	}
}

func (o *OptimizePrompt) Invoke(ctx context.Context, args map[string]any) (string, error) {
	text, _ := args["text"].(string)
	if strings.TrimSpace(text) == "" {
		return "", errors.New("missing text argument")
	}
	if o.chatter == nil {
		return "", errors.New("chat client not configured")
	}

	improved, err := o.chatter.Complete(ctx, []types.Message{
		types.NewMessage(types.RoleSystem, optimizeInstruction),
		types.NewMessage(types.RoleUser, text),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(improved), nil
}
