package tools

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stratos/parley/internal/research"
	"github.com/stratos/parley/internal/types"
)

// fakeCapability is a configurable capability for dispatcher tests.
type fakeCapability struct {
	name   string
	invoke func(ctx context.Context, args map[string]any) (string, error)
}

func (f *fakeCapability) Name() string        { return f.name }
func (f *fakeCapability) Description() string { return "fake" }
func (f *fakeCapability) Schema() types.ToolSchema {
	return types.ToolSchema{Type: "function", Function: types.FunctionSpec{Name: f.name}}
}
func (f *fakeCapability) Invoke(ctx context.Context, args map[string]any) (string, error) {
	return f.invoke(ctx, args)
}

func call(name, args string) types.ToolCall {
	return types.ToolCall{
		ID: "call-1",
		Function: types.ToolFunction{
			Name:      name,
			Arguments: json.RawMessage(args),
		},
	}
}

func TestDispatch_Success(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&fakeCapability{
		name: "echo",
		invoke: func(_ context.Context, args map[string]any) (string, error) {
			return "got " + args["query"].(string), nil
		},
	})
	d := NewDispatcher(reg, nil)

	msg := d.Dispatch(context.Background(), call("echo", `{"query":"hi"}`))
	if msg.Role != types.RoleTool {
		t.Errorf("role = %q, want tool", msg.Role)
	}
	if msg.ToolCallID != "call-1" || msg.Name != "echo" {
		t.Errorf("tool message must carry call ID and name, got id=%q name=%q", msg.ToolCallID, msg.Name)
	}
	if msg.Content != "got hi" {
		t.Errorf("content = %q, want %q", msg.Content, "got hi")
	}
}

func TestDispatch_MalformedArgsStillInvokes(t *testing.T) {
	invoked := false
	reg := NewRegistry()
	reg.MustRegister(&fakeCapability{
		name: "echo",
		invoke: func(_ context.Context, args map[string]any) (string, error) {
			invoked = true
			if len(args) != 0 {
				t.Errorf("garbage arguments should normalize to empty object, got %v", args)
			}
			return "ok", nil
		},
	})
	d := NewDispatcher(reg, nil)

	d.Dispatch(context.Background(), call("echo", `total garbage !!!`))
	if !invoked {
		t.Error("tool must still be invoked when arguments are unparsable")
	}
}

func TestDispatch_ErrorBecomesToolResult(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&fakeCapability{
		name: "flaky",
		invoke: func(context.Context, map[string]any) (string, error) {
			return "", errors.New("backend offline")
		},
	})
	d := NewDispatcher(reg, nil)

	msg := d.Dispatch(context.Background(), call("flaky", `{}`))
	if !strings.HasPrefix(msg.Content, "tool error:") {
		t.Errorf("capability error must become tool-level error text, got %q", msg.Content)
	}
	if !strings.Contains(msg.Content, "backend offline") {
		t.Errorf("error text should be preserved, got %q", msg.Content)
	}
}

func TestDispatch_PanicContained(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&fakeCapability{
		name: "explosive",
		invoke: func(context.Context, map[string]any) (string, error) {
			panic("kaboom")
		},
	})
	d := NewDispatcher(reg, nil)

	msg := d.Dispatch(context.Background(), call("explosive", `{}`))
	if !strings.Contains(msg.Content, "kaboom") {
		t.Errorf("panic must be converted to tool error text, got %q", msg.Content)
	}
}

func TestDispatch_UnknownTool(t *testing.T) {
	d := NewDispatcher(NewRegistry(), nil)

	msg := d.Dispatch(context.Background(), call("nonexistent", `{}`))
	if !strings.Contains(msg.Content, "unknown tool") {
		t.Errorf("expected unknown-tool error text, got %q", msg.Content)
	}
	if msg.Role != types.RoleTool {
		t.Errorf("unknown tool still yields an ordinary tool message, got role %q", msg.Role)
	}
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	reg := NewRegistry()
	c := &fakeCapability{name: "dup", invoke: func(context.Context, map[string]any) (string, error) { return "", nil }}
	if err := reg.Register(c); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := reg.Register(c); err == nil {
		t.Error("duplicate registration must fail")
	}
}

func TestSleepAgent(t *testing.T) {
	s := NewSleepAgent()

	start := time.Now()
	out, err := s.Invoke(context.Background(), map[string]any{"seconds": 0.05})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("sleep returned before the requested duration")
	}
	if !strings.Contains(out, "Paused") {
		t.Errorf("expected confirmation string, got %q", out)
	}

	if _, err := s.Invoke(context.Background(), map[string]any{"seconds": "0"}); err != nil {
		t.Errorf("numeric string seconds should be accepted: %v", err)
	}
	if _, err := s.Invoke(context.Background(), map[string]any{}); err == nil {
		t.Error("missing seconds argument must error")
	}
	if _, err := s.Invoke(context.Background(), map[string]any{"seconds": float64(10000)}); err == nil {
		t.Error("excessive sleep must be refused")
	}
}

func TestSleepAgent_Cancellation(t *testing.T) {
	s := NewSleepAgent()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := s.Invoke(ctx, map[string]any{"seconds": float64(30)})
	if err == nil {
		t.Fatal("cancelled sleep must return an error")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancelled sleep did not stop promptly")
	}
}

// fakeResearcher returns canned results.
type fakeResearcher struct {
	result research.Result
	err    error
}

func (f *fakeResearcher) Search(context.Context, string) (research.Result, error) {
	return f.result, f.err
}

func TestSearchWeb(t *testing.T) {
	s := NewSearchWeb(&fakeResearcher{
		result: research.Result{
			Summary: "Ollama is a local model runner.",
			Sources: []string{"docs/intro.md", "blog/ollama.md"},
		},
	})

	out, err := s.Invoke(context.Background(), map[string]any{"query": "ollama"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Ollama is a local model runner.") {
		t.Errorf("summary missing from output: %q", out)
	}
	if !strings.Contains(out, "docs/intro.md") {
		t.Errorf("sources missing from output: %q", out)
	}

	if _, err := s.Invoke(context.Background(), map[string]any{}); err == nil {
		t.Error("missing query must error")
	}
}

func TestSearchWeb_BackendFailure(t *testing.T) {
	s := NewSearchWeb(&fakeResearcher{err: errors.New("qdrant unreachable")})

	_, err := s.Invoke(context.Background(), map[string]any{"query": "x"})
	if err == nil || !strings.Contains(err.Error(), "qdrant unreachable") {
		t.Errorf("backend failure should surface as capability error, got %v", err)
	}
}

// fakeChatter returns a canned completion.
type fakeChatter struct {
	reply string
	err   error
	got   []types.Message
}

func (f *fakeChatter) Complete(_ context.Context, messages []types.Message) (string, error) {
	f.got = messages
	return f.reply, f.err
}

func TestOptimizePrompt(t *testing.T) {
	chatter := &fakeChatter{reply: "  A much better prompt.  "}
	o := NewOptimizePrompt(chatter)

	out, err := o.Invoke(context.Background(), map[string]any{"text": "make good"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "A much better prompt." {
		t.Errorf("output = %q, want trimmed reply", out)
	}
	if len(chatter.got) != 2 || chatter.got[0].Role != types.RoleSystem {
		t.Errorf("expected system instruction plus user text, got %d messages", len(chatter.got))
	}

	if _, err := o.Invoke(context.Background(), map[string]any{}); err == nil {
		t.Error("missing text must error")
	}
}

func TestLoadSchemaOverrides(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(NewSleepAgent())

	path := filepath.Join(t.TempDir(), "tools.yaml")
	content := `tools:
  - function:
      name: sleep_agent
      description: Custom description from the registry file.
      parameters:
        type: object
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := reg.LoadSchemaOverrides(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	schemas := reg.Schemas()
	if len(schemas) != 1 {
		t.Fatalf("expected 1 schema, got %d", len(schemas))
	}
	if schemas[0].Function.Description != "Custom description from the registry file." {
		t.Errorf("override not applied: %q", schemas[0].Function.Description)
	}
	if schemas[0].Type != "function" {
		t.Errorf("type should default to function, got %q", schemas[0].Type)
	}
}

func TestLoadSchemaOverrides_UnknownTool(t *testing.T) {
	reg := NewRegistry()

	path := filepath.Join(t.TempDir(), "tools.yaml")
	if err := os.WriteFile(path, []byte("tools:\n  - function:\n      name: nope\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := reg.LoadSchemaOverrides(path); err == nil {
		t.Error("unknown tool in registry file must be rejected")
	}
}
