// Package tools provides the capability framework for parley: a registry of
// named capabilities and a dispatcher that turns model-issued tool calls
// into tool-role messages.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/stratos/parley/internal/types"
	"go.uber.org/zap"
)

// Capability defines the interface that all tools must implement.
type Capability interface {
	// Name returns the unique identifier for this capability.
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// Schema returns the wire schema advertised in the tools array.
	Schema() types.ToolSchema

	// Invoke runs the capability with normalized arguments.
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// Registry manages capability registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	caps      map[string]Capability
	overrides map[string]types.ToolSchema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		caps:      make(map[string]Capability),
		overrides: make(map[string]types.ToolSchema),
	}
}

// Register adds a capability to the registry.
func (r *Registry) Register(c Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.caps[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.caps[name] = c
	return nil
}

// MustRegister adds a capability, panicking on error.
func (r *Registry) MustRegister(c Capability) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Get retrieves a capability by name.
func (r *Registry) Get(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, exists := r.caps[name]
	return c, exists
}

// List returns all registered capability names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.caps))
	for name := range r.caps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered capabilities in name order.
func (r *Registry) All() []Capability {
	caps := make([]Capability, 0)
	for _, name := range r.List() {
		if c, ok := r.Get(name); ok {
			caps = append(caps, c)
		}
	}
	return caps
}

// Schemas returns the wire schemas for every registered capability, with any
// loaded overrides applied.
func (r *Registry) Schemas() []types.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.caps))
	for name := range r.caps {
		names = append(names, name)
	}
	sort.Strings(names)

	schemas := make([]types.ToolSchema, 0, len(names))
	for _, name := range names {
		if s, ok := r.overrides[name]; ok {
			schemas = append(schemas, s)
			continue
		}
		schemas = append(schemas, r.caps[name].Schema())
	}
	return schemas
}

// Dispatcher executes tool calls against a registry. Capability failures
// never propagate past this boundary; they come back as tool-level error
// text inside an ordinary tool message.
type Dispatcher struct {
	registry *Registry
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Dispatch executes one tool call and returns its tool-role result message.
// Arguments are normalized best-effort; the capability is always invoked.
func (d *Dispatcher) Dispatch(ctx context.Context, call types.ToolCall) types.Message {
	name := call.Function.Name
	args := NormalizeArgs(call.Function.Arguments)

	c, exists := d.registry.Get(name)
	if !exists {
		d.logger.Warn("unknown tool requested", zap.String("tool", name))
		return types.NewToolResult(call, fmt.Sprintf("tool error: unknown tool %q", name))
	}

	d.logger.Info("executing tool",
		zap.String("tool", name),
		zap.Any("args", args))

	output, err := d.invoke(ctx, c, args)
	if err != nil {
		d.logger.Warn("tool execution failed",
			zap.String("tool", name),
			zap.Error(err))
		return types.NewToolResult(call, "tool error: "+err.Error())
	}
	return types.NewToolResult(call, output)
}

// invoke runs a capability with panic containment.
func (d *Dispatcher) invoke(ctx context.Context, c Capability, args map[string]any) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in tool %s: %v", c.Name(), r)
		}
	}()
	return c.Invoke(ctx, args)
}
