package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/neuraplay/recall/internal/config"
)

// Gemini embeds text with Google's embedding model over Vertex AI.
type Gemini struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewGemini creates a Gemini embedding provider.
func NewGemini(ctx context.Context, cfg config.EmbeddingConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.GeminiProject,
		Location: cfg.GeminiLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Gemini{
		client:     client,
		model:      cfg.GeminiModel,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed calls the remote model. Any transport, auth or model error is
// wrapped in ErrUnavailable so callers can route to the fallback.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return make([]float32, g.dimensions), nil
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr(int32(g.dimensions)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrUnavailable)
	}

	vec := resp.Embeddings[0].Values
	if len(vec) != g.dimensions {
		return nil, fmt.Errorf("%w: model returned %d dims, want %d", ErrUnavailable, len(vec), g.dimensions)
	}
	return vec, nil
}

func (g *Gemini) Dimensions() int {
	return g.dimensions
}
