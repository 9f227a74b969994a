package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"arxivreco/internal/core"
)

// Provider names accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Options selects and configures an embedding provider.
type Options struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	Dimensions int32
}

// New builds the provider named in opts.
func New(ctx context.Context, opts Options) (Embedder, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case ProviderOpenAI, "":
		var o []OpenAIOption
		if opts.Model != "" {
			o = append(o, WithModel(opts.Model))
		}
		if opts.BaseURL != "" {
			o = append(o, WithBaseURL(strings.TrimRight(opts.BaseURL, "/")))
		}
		if opts.Timeout > 0 {
			o = append(o, WithTimeout(opts.Timeout))
		}
		p, err := NewOpenAIProvider(opts.APIKey, o...)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderGemini:
		g, err := NewGeminiProvider(ctx, opts.APIKey, opts.Model, opts.Dimensions)
		if err != nil {
			return nil, err
		}
		return WithCallTimeout(g, opts.Timeout), nil
	default:
		return nil, &core.ConfigurationError{
			Field: "embedding.provider",
			Err:   fmt.Errorf("unsupported embedding provider %q (supported: openai, gemini)", opts.Provider),
		}
	}
}
