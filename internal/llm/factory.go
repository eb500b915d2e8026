package llm

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tawjihi/mathbot/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with timeout and logging middleware.
// eventRepo may be nil, in which case requests are not recorded.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log logrus.FieldLogger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		mock := NewMockProvider()
		mock.Fallback = DemoReply
		base = mock
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → timeout → logging → base
	p := base
	if eventRepo != nil {
		p = WithLogging(p, cfg.Provider, eventRepo, log)
	}
	return WithTimeout(p, cfg.Timeout), nil
}
