// Package types defines the shared data structures for parley.
package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Roles used on the chat wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a single message in a conversation. Fields not part of
// the wire format (ID, Timestamp) are excluded from serialization.
type Message struct {
	ID         string     `json:"-"`
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Timestamp  time.Time  `json:"-"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a model-issued request to invoke a named capability.
type ToolCall struct {
	ID       string       `json:"id,omitempty"`
	Function ToolFunction `json:"function"`
}

// ToolFunction carries the capability name and the raw argument text.
// Arguments are whatever the model produced and are not guaranteed to be
// valid JSON.
type ToolFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolSchema describes one entry of the request's tools array.
type ToolSchema struct {
	Type     string       `json:"type" yaml:"type"`
	Function FunctionSpec `json:"function" yaml:"function"`
}

// FunctionSpec is the function half of a ToolSchema.
type FunctionSpec struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Parameters  map[string]any `json:"parameters" yaml:"parameters"`
}

// NewMessage creates a message with a fresh ID and timestamp.
func NewMessage(role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewToolResult creates a tool-role message linked to the call that produced
// it. Tool messages always carry the call ID and the capability name.
func NewToolResult(call ToolCall, content string) Message {
	msg := NewMessage(RoleTool, content)
	msg.ToolCallID = call.ID
	msg.Name = call.Function.Name
	return msg
}

// RunState represents the state of an agent run.
type RunState int

const (
	StateIdle RunState = iota
	StateDispatching
	StateAwaitingStream
	StateExecutingTools
	StateDone
	StateCancelled
	StateFailed
	StateLoopExhausted
)

// String returns a human-readable state name.
func (s RunState) String() string {
	names := [...]string{
		"Idle",
		"Dispatching",
		"Awaiting stream",
		"Executing tools",
		"Done",
		"Cancelled",
		"Failed",
		"Loop exhausted",
	}
	if int(s) < len(names) {
		return names[s]
	}
	return "Unknown"
}

// Terminal reports whether the state ends a run.
func (s RunState) Terminal() bool {
	switch s {
	case StateDone, StateCancelled, StateFailed, StateLoopExhausted:
		return true
	}
	return false
}

// EventKind classifies agent events.
type EventKind int

const (
	// EventPassStarted announces a new pass; the UI creates the assistant
	// placeholder for it.
	EventPassStarted EventKind = iota
	// EventStatus forwards a server status line verbatim.
	EventStatus
	// EventDelta carries one incremental content fragment, never the
	// cumulative string.
	EventDelta
	// EventToolStarted announces that a tool call is about to execute.
	EventToolStarted
	// EventToolResult carries one completed tool message.
	EventToolResult
	// EventAssistantDone carries the pass's finalized assistant message.
	EventAssistantDone
	// EventRunFinished is the last event of a run and carries the terminal
	// state.
	EventRunFinished
)

// AgentEvent is emitted by the agent loop to update the UI.
type AgentEvent struct {
	Kind     EventKind
	Pass     int
	Status   string
	Delta    string
	ToolCall *ToolCall
	Message  *Message
	State    RunState
	Err      error
}
