package ui

import (
	"strings"
	"testing"

	"github.com/stratos/parley/internal/session"
	"github.com/stratos/parley/internal/types"
)

func testModel() Model {
	return NewModel(Deps{
		Store:        session.NewStore(),
		ModelName:    "qwen2.5:7b",
		ToolNames:    []string{"search_web", "sleep_agent"},
		ToolsEnabled: true,
	})
}

func TestApplyEvent_StreamingDeltas(t *testing.T) {
	m := testModel()

	m.applyEvent(types.AgentEvent{Kind: types.EventPassStarted, Pass: 1})
	m.applyEvent(types.AgentEvent{Kind: types.EventDelta, Delta: "Hel"})
	m.applyEvent(types.AgentEvent{Kind: types.EventDelta, Delta: "lo"})

	if m.streaming.String() != "Hello" {
		t.Errorf("streaming buffer = %q", m.streaming.String())
	}

	done := types.NewMessage(types.RoleAssistant, "Hello")
	m.applyEvent(types.AgentEvent{Kind: types.EventAssistantDone, Message: &done})

	if m.streaming.Len() != 0 {
		t.Error("streaming buffer must reset after the assistant message completes")
	}
	if len(m.messages) != 1 || m.messages[0].content != "Hello" {
		t.Errorf("messages = %+v", m.messages)
	}
	if len(m.produced) != 1 {
		t.Errorf("produced = %d messages, want 1", len(m.produced))
	}
}

func TestApplyEvent_ToolLifecycle(t *testing.T) {
	m := testModel()

	call := types.ToolCall{ID: "c1", Function: types.ToolFunction{Name: "search_web"}}
	m.applyEvent(types.AgentEvent{Kind: types.EventToolStarted, ToolCall: &call})
	if m.currentTool != "search_web" {
		t.Errorf("currentTool = %q", m.currentTool)
	}

	result := types.NewToolResult(call, "tool error: unknown tool")
	m.applyEvent(types.AgentEvent{Kind: types.EventToolResult, Message: &result})

	if m.currentTool != "" {
		t.Error("currentTool should clear after the result")
	}
	if len(m.messages) != 1 || m.messages[0].tool == nil {
		t.Fatalf("expected one tool message, got %+v", m.messages)
	}
	if !m.messages[0].tool.failed {
		t.Error("tool error output should render as failed")
	}
}

func TestFinishRun_MergesProducedIntoStore(t *testing.T) {
	m := testModel()

	if _, err := m.deps.Store.Acquire(types.NewMessage(types.RoleUser, "hi")); err != nil {
		t.Fatal(err)
	}
	reply := types.NewMessage(types.RoleAssistant, "hello")
	m.produced = []types.Message{reply}

	m.finishRun(types.AgentEvent{Kind: types.EventRunFinished, State: types.StateDone})

	if m.deps.Store.Active() {
		t.Error("store should release after the run finishes")
	}
	if m.deps.Store.Len() != 2 {
		t.Errorf("store has %d messages, want user + assistant", m.deps.Store.Len())
	}
}

func TestFinishRun_CancelledAddsNotice(t *testing.T) {
	m := testModel()

	if _, err := m.deps.Store.Acquire(types.NewMessage(types.RoleUser, "hi")); err != nil {
		t.Fatal(err)
	}
	m.finishRun(types.AgentEvent{Kind: types.EventRunFinished, State: types.StateCancelled})

	if len(m.messages) != 1 || m.messages[0].content != "Cancelled." {
		t.Errorf("messages = %+v", m.messages)
	}
	if m.deps.Store.Len() != 1 {
		t.Errorf("cancelled run must merge nothing, store has %d messages", m.deps.Store.Len())
	}
}

func TestHandleCommand(t *testing.T) {
	m := testModel()

	if _, handled := m.handleCommand("what is go?"); handled {
		t.Error("plain input must not be treated as a command")
	}

	if _, handled := m.handleCommand("tools"); !handled {
		t.Fatal("tools should be a command")
	}
	if len(m.messages) != 1 || !strings.Contains(m.messages[0].content, "search_web") {
		t.Errorf("tools output = %+v", m.messages)
	}

	if _, handled := m.handleCommand("help"); !handled {
		t.Error("help should be a command")
	}
}

func TestBanner(t *testing.T) {
	banner := Banner()
	if !strings.Contains(banner, "\n") {
		t.Error("banner should span multiple lines")
	}
	if len(strings.Split(banner, "\n")) < 3 {
		t.Error("banner should have at least 3 lines")
	}
}
