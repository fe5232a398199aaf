package vectorstore

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
	"google.golang.org/genai"
)

// NewGeminiEmbedding creates a chromem EmbeddingFunc backed by the Gemini
// embedding API. The returned function bridges the genai SDK with chromem's
// requirements; chromem normalizes vectors itself, so no manual
// normalization is needed here.
func NewGeminiEmbedding(client *genai.Client, model string) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := client.Models.EmbedContent(ctx, model, genai.Text(text), nil)
		if err != nil {
			return nil, fmt.Errorf("embed request: %w", err)
		}
		if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
			return nil, fmt.Errorf("no embedding returned")
		}
		return resp.Embeddings[0].Values, nil
	}
}
