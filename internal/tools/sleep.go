package tools

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/stratos/parley/internal/types"
)

// maxSleepSeconds caps how long the agent may pause itself.
const maxSleepSeconds = 300

// SleepAgent suspends the agent for an argument-specified duration, then
// returns a confirmation string.
type SleepAgent struct{}

// NewSleepAgent creates the sleep_agent capability.
func NewSleepAgent() *SleepAgent {
	return &SleepAgent{}
}

func (s *SleepAgent) Name() string { return "sleep_agent" }

func (s *SleepAgent) Description() string {
	return "Pause for the given number of seconds before continuing. Useful when waiting for an external condition."
}

func (s *SleepAgent) Schema() types.ToolSchema {
	return types.ToolSchema{
		Type: "function",
		Function: types.FunctionSpec{
			Name:        s.Name(),
			Description: s.Description(),
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"seconds": map[string]any{
						"type":        "number",
						"description": "How long to pause, in seconds",
					},
				},
				"required": []string{"seconds"},
			},
		},
	}
}

func (s *SleepAgent) Invoke(ctx context.Context, args map[string]any) (string, error) {
	seconds, err := secondsArg(args["seconds"])
	if err != nil {
		return "", err
	}
	if seconds > maxSleepSeconds {
		return "", fmt.Errorf("refusing to sleep longer than %d seconds", maxSleepSeconds)
	}

	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}
	return fmt.Sprintf("Paused for %g seconds.", seconds), nil
}

// secondsArg accepts the duration as a JSON number or a numeric string;
// models produce both.
func secondsArg(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, fmt.Errorf("seconds must be non-negative, got %g", n)
		}
		return n, nil
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid seconds argument %q", n)
		}
		if parsed < 0 {
			return 0, fmt.Errorf("seconds must be non-negative, got %g", parsed)
		}
		return parsed, nil
	case nil:
		return 0, fmt.Errorf("missing seconds argument")
	default:
		return 0, fmt.Errorf("invalid seconds argument of type %T", v)
	}
}
