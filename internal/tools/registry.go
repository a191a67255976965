package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ramizpolic/agenthost/pkg/llm"
)

// Func is the executable behind a tool definition. Parameters arrive
// already validated against the definition. Implementations return an
// ExecutionResult; returning an error (or panicking) is converted into a
// failed result by the executor.
type Func func(ctx context.Context, params map[string]any) (*ExecutionResult, error)

// DuplicateToolError is returned when a registration would shadow an
// existing tool.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %s already registered", e.Name)
}

// NotFoundError is returned when a tool name is not in the registry.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %s not found", e.Name)
}

type entry struct {
	definition Definition
	fn         Func
}

// Registry keeps the mapping between tool names and implementations. It is
// an explicitly constructed instance passed into the orchestrator, never a
// package global. Registration happens during startup; lookups are safe for
// concurrent use from multiple sessions afterwards.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]entry)}
}

// Register inserts a tool when its definition is valid and its name is not
// in use. Duplicate names are rejected, never silently overwritten.
func (r *Registry) Register(def Definition, fn Func) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("tool %s has no implementation", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return &DuplicateToolError{Name: def.Name}
	}
	r.tools[def.Name] = entry{definition: def, fn: fn}
	return nil
}

// Get fetches a tool definition by name.
func (r *Registry) Get(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.tools[name]
	if !exists {
		return Definition{}, &NotFoundError{Name: name}
	}
	return e.definition, nil
}

// List produces the registered definitions sorted by name.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.tools))
	for _, e := range r.tools {
		defs = append(defs, e.definition)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Schemas renders every registered tool as the neutral schema offered to
// provider adapters, sorted by name.
func (r *Registry) Schemas() []llm.Tool {
	defs := r.List()
	schemas := make([]llm.Tool, len(defs))
	for i, def := range defs {
		schemas[i] = def.Schema()
	}
	return schemas
}

func (r *Registry) lookup(name string) (entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[name]
	return e, ok
}
