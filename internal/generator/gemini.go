package generator

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/koopa0/coursechat/internal/tools"
)

// GeminiClient adapts the Gemini generation API to the Client contract.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient wraps an existing Gemini client for the given model.
func NewGeminiClient(client *genai.Client, model string) (*GeminiClient, error) {
	if client == nil {
		return nil, fmt.Errorf("genai client is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Generate implements Client.
func (c *GeminiClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	contents, err := toContents(req.Messages)
	if err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: req.MaxTokens,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: toDeclarations(req.Tools)}}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	out := &Response{Text: resp.Text()}
	for _, fc := range resp.FunctionCalls() {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:   fc.ID,
			Name: fc.Name,
			Args: fc.Args,
		})
	}
	return out, nil
}

// toContents converts wire messages into Gemini contents. Tool results
// travel as function-response parts in a user turn; assistant tool calls as
// function-call parts in a model turn.
func toContents(messages []Message) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleUser:
			if len(m.ToolResults) > 0 {
				parts := make([]*genai.Part, 0, len(m.ToolResults))
				for _, r := range m.ToolResults {
					parts = append(parts, genai.NewPartFromFunctionResponse(r.Name, map[string]any{
						"result": r.Content,
					}))
				}
				contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
				continue
			}
			contents = append(contents, genai.NewContentFromText(m.Text, genai.RoleUser))

		case RoleAssistant:
			parts := []*genai.Part{}
			if m.Text != "" {
				parts = append(parts, genai.NewPartFromText(m.Text))
			}
			for _, call := range m.ToolCalls {
				parts = append(parts, genai.NewPartFromFunctionCall(call.Name, call.Args))
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))

		default:
			return nil, fmt.Errorf("unsupported message role %q", m.Role)
		}
	}
	return contents, nil
}

// toDeclarations converts tool definitions into Gemini function declarations.
func toDeclarations(defs []tools.Definition) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, d := range defs {
		props := make(map[string]*genai.Schema, len(d.Schema.Properties))
		for name, p := range d.Schema.Properties {
			props[name] = &genai.Schema{
				Type:        toSchemaType(p.Type),
				Description: p.Description,
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   d.Schema.Required,
			},
		})
	}
	return decls
}

func toSchemaType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeObject
	}
}
