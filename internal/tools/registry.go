package tools

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTool indicates a Register call with a name that is
	// already taken. This is a programmer error and is never swallowed.
	ErrDuplicateTool = errors.New("tool name already registered")

	// ErrUnknownTool indicates an Execute call for an unregistered name.
	ErrUnknownTool = errors.New("unknown tool")
)

// Registry maps tool names to tool instances and dispatches invocation
// requests from the generation layer. It holds tools behind the Tool
// interface only and never interprets their output.
//
// Registration happens at startup; afterwards the registry is read-only and
// safe for concurrent use (individual tools guard their own mutable state).
type Registry struct {
	tools map[string]Tool
	order []string // registration order, for stable declarations
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. A name collision returns ErrDuplicateTool.
func (r *Registry) Register(t Tool) error {
	name := t.Definition().Name
	if name == "" {
		return fmt.Errorf("tool has an empty name")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTool, name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// Execute dispatches an invocation to the named tool and returns its
// formatted text verbatim. An unregistered name returns ErrUnknownTool.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	t, found := r.tools[name]
	if !found {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return t.Execute(ctx, args)
}

// Definitions returns every registered tool's declaration, in registration
// order, for the generation layer to present to the LLM.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// LastSources aggregates the retained sources of every tracking tool, in
// registration order.
func (r *Registry) LastSources() []Source {
	var sources []Source
	for _, name := range r.order {
		if tracker, ok := r.tools[name].(SourceTracker); ok {
			sources = append(sources, tracker.LastSources()...)
		}
	}
	return sources
}

// ResetSources clears the retained sources of every tracking tool.
func (r *Registry) ResetSources() {
	for _, t := range r.tools {
		if tracker, ok := t.(SourceTracker); ok {
			tracker.ResetSources()
		}
	}
}
