package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"netquery/internal/perception"
)

// Handler executes one tool invocation. Returned errors are reported to
// the model as tool failures, never propagated to the caller.
type Handler func(ctx context.Context, input map[string]interface{}) (string, error)

// Tool pairs a model-facing definition with its handler.
type Tool struct {
	Definition perception.ToolDefinition
	Handler    Handler
}

// Registry holds the tools available to the orchestrator.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering a duplicate name is an error.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Definition.Name
	if name == "" {
		return fmt.Errorf("tool has no name")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = tool
	return nil
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns the tool schemas in stable name order.
func (r *Registry) Definitions() []perception.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]perception.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
