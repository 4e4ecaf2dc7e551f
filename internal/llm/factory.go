package llm

import (
	"fmt"
	"os"

	"github.com/mabouzeid04/workflow-daddy/internal/config"
)

// NewFromConfig creates an LLM provider from the configuration, wrapped
// with the configured rate limit.
func NewFromConfig(cfg config.LLMConfig) (Provider, error) {
	var provider Provider

	switch cfg.Provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		provider = NewOpenAIProvider(apiKey, cfg.Model)

	case config.ProviderOllama:
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		provider = NewOllamaProvider(host, cfg.Model)

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Provider)
	}

	if cfg.RequestsPerMinute > 0 {
		provider = NewRateLimitedProvider(provider, cfg.RequestsPerMinute)
	}
	return provider, nil
}
