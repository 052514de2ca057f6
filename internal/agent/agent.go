// Package agent implements the core agent loop for parley: it alternates
// streaming model passes with tool execution until a final answer, the pass
// cap, or cancellation is reached.
package agent

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/stratos/parley/internal/ollama"
	"github.com/stratos/parley/internal/tools"
	"github.com/stratos/parley/internal/types"
	"go.uber.org/zap"
)

// DefaultPassCap bounds the number of model passes per run.
const DefaultPassCap = 5

// shortHistoryMax is the conversation length up to which a completed run
// triggers title generation.
const shortHistoryMax = 3

// Streamer is the chat contract the loop depends on. *ollama.Client
// satisfies it.
type Streamer interface {
	ChatStream(ctx context.Context, req ollama.ChatRequest, h ollama.StreamHandler) (*ollama.ChatResult, error)
	Chat(ctx context.Context, req ollama.ChatRequest) (string, error)
}

// Config holds runner configuration.
type Config struct {
	Model        string
	SystemPrompt string
	PassCap      int
	Options      *ollama.Options
	KeepAlive    string
	// ToolsEnabled attaches the tool schemas to each request. Callers decide
	// it once per model via the capability probe.
	ToolsEnabled bool
	// OnTitle receives a generated conversation title. Title generation is
	// fire-and-forget; the loop never awaits it.
	OnTitle func(title string)
	Logger  *zap.Logger
}

// Runner starts agent runs over a shared streamer and tool dispatcher.
type Runner struct {
	streamer   Streamer
	dispatcher *tools.Dispatcher
	schemas    []types.ToolSchema
	cfg        Config
	logger     *zap.Logger
}

// NewRunner creates a runner. A zero PassCap falls back to DefaultPassCap.
func NewRunner(streamer Streamer, dispatcher *tools.Dispatcher, schemas []types.ToolSchema, cfg Config) *Runner {
	if cfg.PassCap <= 0 {
		cfg.PassCap = DefaultPassCap
	}
	if cfg.Options == nil {
		cfg.Options = DefaultSampling()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Runner{
		streamer:   streamer,
		dispatcher: dispatcher,
		schemas:    schemas,
		cfg:        cfg,
		logger:     cfg.Logger,
	}
}

// DefaultSampling returns the fixed sampling options used for chat passes:
// short context window, low temperature, bounded prediction length.
func DefaultSampling() *ollama.Options {
	return &ollama.Options{
		NumCtx:      4096,
		Temperature: 0.2,
		NumPredict:  1024,
		TopK:        40,
		TopP:        0.9,
	}
}

// Run is one active agent run. Events are delivered in order and the
// channel closes after the terminal event.
type Run struct {
	cancel    context.CancelFunc
	cancelled atomic.Bool
	events    chan types.AgentEvent
}

// Events returns the run's event stream. The caller must drain it.
func (r *Run) Events() <-chan types.AgentEvent {
	return r.events
}

// Cancel requests cooperative cancellation: it aborts the in-flight socket
// read and flips the latch the loop polls at its suspension points.
func (r *Run) Cancel() {
	r.cancelled.Store(true)
	r.cancel()
}

// observedCancel reports whether cancellation has been requested, either via
// the latch or the run context.
func (r *Run) observedCancel(ctx context.Context) bool {
	return r.cancelled.Load() || ctx.Err() != nil
}

func (r *Run) emit(ev types.AgentEvent) {
	r.events <- ev
}

// Start begins a run over the given conversation snapshot. The run owns the
// snapshot exclusively until its terminal event.
func (rn *Runner) Start(ctx context.Context, conversation []types.Message) *Run {
	ctx, cancel := context.WithCancel(ctx)
	run := &Run{
		cancel: cancel,
		events: make(chan types.AgentEvent, 64),
	}
	go rn.loop(ctx, run, conversation)
	return run
}

func (rn *Runner) loop(ctx context.Context, run *Run, conversation []types.Message) {
	defer close(run.events)
	defer run.cancel()

	working := make([]types.Message, 0, len(conversation)+1)
	if rn.cfg.SystemPrompt != "" {
		working = append(working, types.NewMessage(types.RoleSystem, rn.cfg.SystemPrompt))
	}
	working = append(working, conversation...)

	final, state, err := rn.runPasses(ctx, run, working)

	if state == types.StateDone && len(conversation) <= shortHistoryMax {
		rn.fireTitle(final)
	}
	if err != nil {
		rn.logger.Warn("run failed", zap.Error(err))
	}

	run.emit(types.AgentEvent{Kind: types.EventRunFinished, State: state, Err: err})
}

// runPasses drives the pass loop and returns the final working conversation
// plus the terminal state. Exactly one decoder call is issued per pass.
func (rn *Runner) runPasses(ctx context.Context, run *Run, working []types.Message) ([]types.Message, types.RunState, error) {
	for pass := 1; pass <= rn.cfg.PassCap; pass++ {
		// Poll point: before starting a pass.
		if run.observedCancel(ctx) {
			return working, types.StateCancelled, nil
		}

		run.emit(types.AgentEvent{Kind: types.EventPassStarted, Pass: pass})

		result, err := rn.streamer.ChatStream(ctx, rn.buildRequest(working), ollama.StreamHandler{
			OnStatus: func(s string) {
				run.emit(types.AgentEvent{Kind: types.EventStatus, Pass: pass, Status: s})
			},
			OnDelta: func(d string) {
				run.emit(types.AgentEvent{Kind: types.EventDelta, Pass: pass, Delta: d})
			},
		})
		if err != nil {
			if ollama.IsCancelled(err) || run.cancelled.Load() {
				return working, types.StateCancelled, nil
			}
			// The placeholder becomes a visible error message; no retry.
			failed := types.NewMessage(types.RoleAssistant, "Error: "+friendlyError(err))
			run.emit(types.AgentEvent{Kind: types.EventAssistantDone, Pass: pass, Message: &failed})
			return working, types.StateFailed, err
		}

		assistant := types.NewMessage(types.RoleAssistant, result.Content)
		assistant.ToolCalls = result.ToolCalls
		working = append(working, assistant)
		run.emit(types.AgentEvent{Kind: types.EventAssistantDone, Pass: pass, Message: &assistant})

		if len(result.ToolCalls) == 0 {
			return working, types.StateDone, nil
		}
		if pass == rn.cfg.PassCap {
			// Cap reached with tool calls still pending; the partial answer
			// stays in the conversation.
			return working, types.StateLoopExhausted, nil
		}

		// Tools run sequentially, in the order the model issued them.
		for i := range result.ToolCalls {
			call := result.ToolCalls[i]

			// Poll point: before each tool execution.
			if run.observedCancel(ctx) {
				return working, types.StateCancelled, nil
			}
			run.emit(types.AgentEvent{Kind: types.EventToolStarted, Pass: pass, ToolCall: &call})

			msg := rn.dispatcher.Dispatch(ctx, call)

			// Poll point: before appending a result. An in-flight result
			// observed after cancellation is discarded.
			if run.observedCancel(ctx) {
				return working, types.StateCancelled, nil
			}
			working = append(working, msg)
			run.emit(types.AgentEvent{Kind: types.EventToolResult, Pass: pass, Message: &msg})
		}
	}
	return working, types.StateLoopExhausted, nil
}

func (rn *Runner) buildRequest(working []types.Message) ollama.ChatRequest {
	req := ollama.ChatRequest{
		Model:     rn.cfg.Model,
		Messages:  working,
		Stream:    true,
		Options:   rn.cfg.Options,
		KeepAlive: rn.cfg.KeepAlive,
	}
	if rn.cfg.ToolsEnabled {
		req.Tools = rn.schemas
	}
	return req
}

// friendlyError renders a decoder error for the transcript.
func friendlyError(err error) string {
	var reqErr *ollama.RequestError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.Error()
	case errors.Is(err, ollama.ErrStreamUnavailable):
		return "response stream unavailable"
	default:
		return err.Error()
	}
}
