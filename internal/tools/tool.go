// Package tools provides the tool abstraction exposed to the generation
// layer: a vendor-neutral declaration schema, an execution interface, a
// registry that dispatches invocations by name, and the course retrieval
// tools themselves.
package tools

import "context"

// Schema describes a tool's parameters in a vendor-neutral, JSON-Schema-like
// shape. The generation client translates it into whatever its provider
// expects.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a single tool parameter.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Definition is the metadata a tool presents to the LLM: its name, a
// natural-language usage description, and its parameter schema.
type Definition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Schema      Schema `json:"input_schema"`
}

// Tool is the capability interface every tool implements. Execute receives
// the raw arguments from the model (JSON-decoded, so numbers arrive as
// float64) and returns formatted text for the model to consume.
//
// Argument mistakes the model can correct (missing or mistyped parameters)
// should come back as result text, not as an error; a returned error is
// treated as fatal for the query in progress.
type Tool interface {
	Definition() Definition
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Source identifies where a search result came from, for attribution in the
// final answer. Lesson is nil when the chunk precedes any lesson marker.
type Source struct {
	Label  string `json:"label"`
	Course string `json:"course"`
	Lesson *int   `json:"lesson,omitempty"`
	Link   string `json:"link,omitempty"`
}

// SourceTracker is the optional capability of tools that retain the sources
// of their most recent result set, so callers can expose "sources used"
// without re-querying.
type SourceTracker interface {
	LastSources() []Source
	ResetSources()
}

// stringArg extracts an optional string argument.
func stringArg(args map[string]any, key string) string {
	if v, found := args[key]; found {
		if s, isString := v.(string); isString {
			return s
		}
	}
	return ""
}

// intArg extracts an optional integer argument. JSON decoding yields
// float64, but direct invocations may pass int.
func intArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}
