package llm

import (
	"context"
	"fmt"

	"github.com/veldt-labs/caresage/internal/config"
	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/pkg/log"
)

// NewProvider creates the appropriate Generator based on configuration.
func NewProvider(ctx context.Context, provider string, cfg *config.LLMConfig) (core.Generator, error) {
	log.FromCtx(ctx).Info().
		Str("provider", provider).
		Str("model", cfg.Model).
		Msg("starting llm provider")

	switch provider {
	case "openai":
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.Model), nil
	case "openrouter":
		return NewOpenRouter(cfg.OpenRouterAPIKey, cfg.Model), nil
	case "ollama":
		return NewOllama(cfg.OllamaBaseURL, cfg.OllamaAPIKey, cfg.Model), nil
	case "custom":
		return NewCustomOpenAI(cfg.CustomBaseURL, cfg.CustomAPIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}

// NewEmbedder creates the embedding client for the configured provider.
// Ollama and custom endpoints serve /v1/embeddings as well.
func NewEmbedder(ctx context.Context, provider string, cfg *config.LLMConfig) (core.Embedder, error) {
	switch provider {
	case "openai":
		return NewEmbeddings("https://api.openai.com", cfg.OpenAIAPIKey, cfg.EmbeddingModel), nil
	case "ollama":
		return NewEmbeddings(cfg.OllamaBaseURL, cfg.OllamaAPIKey, cfg.EmbeddingModel), nil
	case "custom":
		return NewEmbeddings(cfg.CustomBaseURL, cfg.CustomAPIKey, cfg.EmbeddingModel), nil
	case "openrouter":
		// OpenRouter does not expose an embeddings endpoint; fall back
		// to OpenAI when a key is present.
		if cfg.OpenAIAPIKey != "" {
			return NewEmbeddings("https://api.openai.com", cfg.OpenAIAPIKey, cfg.EmbeddingModel), nil
		}
		return nil, fmt.Errorf("openrouter provider needs OPENAI_API_KEY for embeddings")
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", provider)
	}
}
