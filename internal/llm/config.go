package llm

import (
	"fmt"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use. When empty, Discover
	// picks one from the API keys that are present.
	Provider string `koanf:"provider"`

	Gemini     GeminiConfig     `koanf:"gemini"`
	OpenAI     OpenAIConfig     `koanf:"openai"`
	Anthropic  AnthropicConfig  `koanf:"anthropic"`
	OpenRouter OpenRouterConfig `koanf:"openrouter"`

	// Timeout bounds a single LLM request. Default: 30s.
	Timeout time.Duration `koanf:"timeout"`
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"` // Default: "gemini-flash"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`    // Default: "gpt-4o-mini"
	BaseURL string `koanf:"base_url"` // Optional. Override for compatible APIs.
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"` // Default: "claude-haiku"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`    // Default: "google/gemini-2.0-flash-exp"
	BaseURL string `koanf:"base_url"` // Default: "https://openrouter.ai/api/v1"
}

// DefaultConfig returns a Config with sensible defaults. Provider is left
// empty so that Discover can choose one.
func DefaultConfig() Config {
	return Config{
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.0-flash-exp",
		},
		Timeout: 30 * time.Second,
	}
}

// Discover selects a provider from the API keys already present in the
// config, in priority order Gemini → OpenAI → Anthropic → OpenRouter.
// It leaves an explicitly chosen provider untouched and reports whether a
// provider is set afterwards.
func (c *Config) Discover() bool {
	if c.Provider != "" {
		return true
	}
	switch {
	case c.Gemini.APIKey != "":
		c.Provider = ProviderGemini
	case c.OpenAI.APIKey != "":
		c.Provider = ProviderOpenAI
	case c.Anthropic.APIKey != "":
		c.Provider = ProviderAnthropic
	case c.OpenRouter.APIKey != "":
		c.Provider = ProviderOpenRouter
	default:
		return false
	}
	return true
}

// RequiredKeyEnv names the environment variable that carries the API key for
// the selected provider, or "" when none is needed.
func (c Config) RequiredKeyEnv() string {
	switch c.Provider {
	case ProviderGemini, "":
		return "GEMINI_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	}
	return ""
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case ProviderOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case ProviderMock:
		// No API key needed.
	case "":
		return fmt.Errorf("no LLM provider configured: set GEMINI_API_KEY (or another provider key)")
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
