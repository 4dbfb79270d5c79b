// Package tools provides a thread-safe registry of capabilities the advisor
// agent may invoke during its run. Tools are registered by name and looked
// up when the model's reply includes tool calls; the registry is the
// explicit injection point — no global function lookup.
package tools

import (
	"context"
	"encoding/json"
	"sync"
)

// Tool is the interface all advisor-callable tools implement.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema describing the tool's arguments.
	Parameters() map[string]interface{}
	// Execute runs the tool. The returned JSON is handed back to the model
	// verbatim, so tools report their own soft failures inside the payload
	// rather than erroring the whole advisor run.
	Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error)
}

// Registry manages registered tools. Thread-safe for concurrent access.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, exists := r.tools[name]
	return tool, exists
}

// List returns all registered tools.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		result = append(result, t)
	}
	return result
}
