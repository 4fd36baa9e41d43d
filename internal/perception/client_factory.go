package perception

import (
	"fmt"
	"os"
)

// NewClient creates an LLM client for the configured provider.
func NewClient(cfg Config) (LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", cfg.Provider)
	}

	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAIClientWithConfig(cfg), nil
	case ProviderAnthropic:
		return NewAnthropicClientWithConfig(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// DetectProvider resolves the provider and API key from environment
// variables. Priority: OPENAI_API_KEY, then ANTHROPIC_API_KEY.
func DetectProvider() (Config, error) {
	providers := []struct {
		envVar   string
		provider Provider
	}{
		{"OPENAI_API_KEY", ProviderOpenAI},
		{"ANTHROPIC_API_KEY", ProviderAnthropic},
	}

	for _, p := range providers {
		if key := os.Getenv(p.envVar); key != "" {
			return Config{Provider: p.provider, APIKey: key}, nil
		}
	}
	return Config{}, fmt.Errorf("no LLM API key found: set OPENAI_API_KEY or ANTHROPIC_API_KEY")
}
