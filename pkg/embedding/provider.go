package embedding

import (
	"context"
	"fmt"
)

// Provider generates embeddings for text. Implementations pin a fixed output
// dimension; callers treat a width mismatch as a hard error rather than
// truncating or padding.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Config selects and configures a provider.
type Config struct {
	Provider   string // "ollama" or "gemini"
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "ollama", "":
		return NewOllamaProvider(cfg.BaseURL, cfg.Model, cfg.Dimensions), nil
	case "gemini":
		return NewGeminiProvider(cfg.APIKey, cfg.Model, cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("embedding: unknown provider %q", cfg.Provider)
	}
}
