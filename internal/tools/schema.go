package tools

import (
	"fmt"
	"os"

	"github.com/stratos/parley/internal/types"
	"gopkg.in/yaml.v3"
)

// LoadSchemaOverrides reads a YAML tool registry file and applies its
// entries as schema overrides for already-registered capabilities. Entries
// naming unknown capabilities are rejected so typos surface at startup.
//
// File format:
//
//	tools:
//	  - type: function
//	    function:
//	      name: search_web
//	      description: ...
//	      parameters: {...}
func (r *Registry) LoadSchemaOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file struct {
		Tools []types.ToolSchema `yaml:"tools"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse tool registry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, schema := range file.Tools {
		name := schema.Function.Name
		if _, exists := r.caps[name]; !exists {
			return fmt.Errorf("tool registry names unknown tool %q", name)
		}
		if schema.Type == "" {
			schema.Type = "function"
		}
		r.overrides[name] = schema
	}
	return nil
}
