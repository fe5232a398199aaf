package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/koopa0/coursechat/internal/log"
	"github.com/koopa0/coursechat/internal/session"
	"github.com/koopa0/coursechat/internal/tools"
)

// Client is the generation API contract. Any conforming implementation may
// sit behind it: the Gemini client in production, scripted stubs in tests.
type Client interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// systemPrompt is the static instruction set for the course assistant.
// Built once; conversation history is appended per query.
const systemPrompt = `You are an AI assistant specialized in course materials and educational content, with search tools for course information.

Tool usage:
- Use search_course_content for questions about specific course content or detailed educational materials.
- Use get_course_outline for questions about a course's structure, lesson list or lesson titles.
- Synthesize tool results into accurate, fact-based responses.
- If a search yields no results, state this clearly without offering alternatives.

Response protocol:
- General knowledge questions: answer from existing knowledge without searching.
- Course-specific questions: search first, then answer.
- Provide direct answers only, with no reasoning process, search explanations, or mention of the search results themselves.

All responses must be brief, educational, clear, and example-supported when examples aid understanding.`

// FallbackAnswer is returned when the model produces an empty terminal
// response.
const FallbackAnswer = "I couldn't generate a response. Please try rephrasing your question."

// Config holds Generator construction parameters.
type Config struct {
	Client    Client
	Logger    log.Logger
	MaxRounds int           // tool-use round bound; <=0 uses 2
	MaxTokens int32         // output token cap; <=0 uses 800
	Limiter   *rate.Limiter // optional proactive rate limiting (nil = disabled)
}

// Generator runs the tool-use loop: it sends requests to the generation
// API, dispatches requested tool calls through a registry, and returns the
// terminal answer. Generation parameters are fixed for determinism-sensitive
// evaluation: zero temperature and a capped output-token budget.
//
// Generator never mutates session state; the caller records the exchange
// after a successful result.
type Generator struct {
	client    Client
	logger    log.Logger
	limiter   *rate.Limiter
	maxRounds int
	maxTokens int32
}

// New creates a Generator.
func New(cfg Config) (*Generator, error) {
	if cfg.Client == nil {
		return nil, errors.New("client is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 2
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 800
	}
	return &Generator{
		client:    cfg.Client,
		logger:    cfg.Logger,
		limiter:   cfg.Limiter,
		maxRounds: cfg.MaxRounds,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Generate answers one query. history supplies the bounded prior exchanges
// of the session; registry supplies the declared tools and executes the
// model's tool calls between rounds.
//
// The loop is bounded by the configured round count: rounds below the bound
// offer tools, and once the bound is reached a final round goes out with
// tools disabled so the model must answer from what it has. Tool execution
// errors and generation API errors abort the query: a failed query returns
// an explicit error, never a fabricated or partial answer.
func (g *Generator) Generate(ctx context.Context, query string, history []session.Exchange, registry *tools.Registry) (string, error) {
	system := systemPrompt
	if len(history) > 0 {
		system += "\n\nPrevious conversation:\n" + formatHistory(history)
	}

	defs := registry.Definitions()
	messages := []Message{{Role: RoleUser, Text: query}}

	for round := 0; ; round++ {
		req := &Request{
			System:      system,
			Messages:    messages,
			Temperature: 0,
			MaxTokens:   g.maxTokens,
		}
		if round < g.maxRounds {
			req.Tools = defs
		}

		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("%w: rate limiter: %v", ErrGeneration, err)
			}
		}

		resp, err := g.client.Generate(ctx, req)
		if err != nil {
			return "", fmt.Errorf("%w: round %d: %v", ErrGeneration, round, err)
		}

		if len(resp.ToolCalls) == 0 || round >= g.maxRounds {
			text := strings.TrimSpace(resp.Text)
			if text == "" {
				g.logger.Warn("model returned empty terminal response", "round", round)
				text = FallbackAnswer
			}
			return text, nil
		}

		results, err := g.dispatch(ctx, registry, resp.ToolCalls)
		if err != nil {
			return "", err
		}

		messages = append(messages,
			Message{Role: RoleAssistant, Text: resp.Text, ToolCalls: resp.ToolCalls},
			Message{Role: RoleUser, ToolResults: results},
		)
		g.logger.Debug("tool round completed", "round", round, "tool_calls", len(resp.ToolCalls))
	}
}

// dispatch executes every tool call of a round through the registry and
// collects the results. Any execution error (unknown tool or a tool's own
// fatal failure) aborts the query.
func (g *Generator) dispatch(ctx context.Context, registry *tools.Registry, calls []ToolCall) ([]ToolResult, error) {
	results := make([]ToolResult, 0, len(calls))
	for _, call := range calls {
		out, err := registry.Execute(ctx, call.Name, call.Args)
		if err != nil {
			return nil, fmt.Errorf("executing tool %q: %w", call.Name, err)
		}
		results = append(results, ToolResult{ID: call.ID, Name: call.Name, Content: out})
	}
	return results, nil
}

// formatHistory renders prior exchanges for the system prompt.
func formatHistory(history []session.Exchange) string {
	var b strings.Builder
	for _, e := range history {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", e.Query, e.Answer)
	}
	return b.String()
}
