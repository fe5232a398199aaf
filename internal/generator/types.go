// Package generator drives the bounded multi-round conversation with the
// generation API. It defines a vendor-neutral request/response contract,
// ships a Gemini-backed client, and runs the tool-use loop that decides,
// per query, whether and how often to search.
package generator

import (
	"errors"

	"github.com/koopa0/coursechat/internal/tools"
)

// ErrGeneration indicates the generation API failed. The query in progress
// fails with it; there is no silent retry and no partial answer built from
// incomplete tool results.
var ErrGeneration = errors.New("generation failed")

// Message roles in the wire contract.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult carries one tool's formatted output back to the model.
type ToolResult struct {
	ID      string
	Name    string
	Content string
}

// Message is one conversation turn. A user turn carries Text or
// ToolResults; an assistant turn carries Text and/or ToolCalls.
type Message struct {
	Role        string
	Text        string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// Request is the fixed shape sent to the generation API.
type Request struct {
	System      string
	Messages    []Message
	Tools       []tools.Definition // nil disables tool use for this round
	Temperature float32
	MaxTokens   int32
}

// Response is the fixed shape coming back: either terminal text or one or
// more tool-call requests (possibly alongside interim text).
type Response struct {
	Text      string
	ToolCalls []ToolCall
}
