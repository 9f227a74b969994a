package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"arxivreco/internal/core"
)

const (
	// DefaultGeminiModel is the default Gemini embedding model.
	DefaultGeminiModel = "gemini-embedding-001"
	// DefaultGeminiDimensions is the Matryoshka output size requested from Gemini.
	DefaultGeminiDimensions = int32(768)
)

// GeminiProvider generates embeddings with the Gemini API.
type GeminiProvider struct {
	model      string
	dimensions int32
	gClient    *genai.Client
}

// NewGeminiProvider creates a Gemini embedding provider.
// A non-positive dimensions value keeps DefaultGeminiDimensions.
func NewGeminiProvider(ctx context.Context, apiKey, model string, dimensions int32) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, &core.ConfigurationError{Field: "embedding.api_key", Err: core.ErrMissingAPIKey}
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if dimensions <= 0 {
		dimensions = DefaultGeminiDimensions
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		model:      model,
		dimensions: dimensions,
		gClient:    gClient,
	}, nil
}

// Embed sends all texts in a single EmbedContent call.
func (p *GeminiProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{
			Parts: []*genai.Part{{Text: text}},
			Role:  "user",
		}
	}

	dims := p.dimensions
	resp, err := p.gClient.Models.EmbedContent(ctx, p.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", core.ErrMalformedEmbedding, got, len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, fmt.Errorf("%w: missing embedding at position %d", core.ErrMalformedEmbedding, i)
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}

// ModelName returns the name of the embedding model.
func (p *GeminiProvider) ModelName() string {
	return p.model
}
