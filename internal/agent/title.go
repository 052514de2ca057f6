package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stratos/parley/internal/ollama"
	"github.com/stratos/parley/internal/types"
	"go.uber.org/zap"
)

const titleTimeout = 15 * time.Second

const titleInstruction = "Generate a short title (at most six words) for the conversation below. " +
	"Respond with the title only, no quotes or punctuation around it."

// fireTitle issues a best-effort title generation in its own goroutine with
// its own context. The loop never awaits it; failures are logged and
// dropped.
func (rn *Runner) fireTitle(history []types.Message) {
	if rn.cfg.OnTitle == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), titleTimeout)
		defer cancel()

		title, err := GenerateTitle(ctx, rn.streamer, rn.cfg.Model, history)
		if err != nil {
			rn.logger.Debug("title generation failed", zap.Error(err))
			return
		}
		rn.cfg.OnTitle(title)
	}()
}

// GenerateTitle asks the model for a short conversation title based on the
// first user/assistant messages.
func GenerateTitle(ctx context.Context, chatter Streamer, model string, history []types.Message) (string, error) {
	var b strings.Builder
	b.WriteString(titleInstruction)
	b.WriteString("\n\n")

	included := 0
	for _, msg := range history {
		if msg.Role != types.RoleUser && msg.Role != types.RoleAssistant {
			continue
		}
		if msg.Content == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, clip(msg.Content, 400))
		included++
		if included == 4 {
			break
		}
	}
	if included == 0 {
		return "", errors.New("no messages to title")
	}

	content, err := chatter.Chat(ctx, ollama.ChatRequest{
		Model:    model,
		Messages: []types.Message{types.NewMessage(types.RoleUser, b.String())},
		Options: &ollama.Options{
			Temperature: 0.3,
			NumPredict:  24,
		},
	})
	if err != nil {
		return "", err
	}

	title := strings.Trim(strings.TrimSpace(content), `"'`)
	if title == "" {
		return "", errors.New("model returned an empty title")
	}
	return title, nil
}

// Completer adapts a Streamer to the non-streaming contract capabilities
// use for their own model round trips.
type Completer struct {
	chatter Streamer
	model   string
}

// NewCompleter creates a Completer bound to one model.
func NewCompleter(chatter Streamer, model string) *Completer {
	return &Completer{chatter: chatter, model: model}
}

// Complete sends one non-streaming chat exchange.
func (c *Completer) Complete(ctx context.Context, messages []types.Message) (string, error) {
	return c.chatter.Chat(ctx, ollama.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Options: &ollama.Options{
			Temperature: 0.3,
			NumPredict:  512,
		},
	})
}

// clip truncates a string to maxLen characters.
func clip(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
