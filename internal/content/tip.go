package content

import (
	"context"
	"errors"

	"github.com/tawjihi/mathbot/internal/llm"
)

// TipGenerator writes the one-line study tip for a chapter.
type TipGenerator struct {
	provider llm.Provider
	config   Config
}

// NewTipGenerator creates a TipGenerator.
func NewTipGenerator(provider llm.Provider, cfg Config) *TipGenerator {
	return &TipGenerator{provider: provider, config: cfg}
}

// Generate returns a single-line tip about topic. Failures are reported as
// a *GenerationError; callers decide whether to fall back to DefaultTip.
func (g *TipGenerator) Generate(ctx context.Context, topic string) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeTip)

	resp, err := g.provider.Generate(ctx, llm.Request{
		Messages:    llm.UserPrompt(buildTipPrompt(topic)),
		MaxTokens:   g.config.TipMaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return "", &GenerationError{Purpose: llm.PurposeTip, Err: err}
	}

	tip := firstLine(resp.Text())
	if tip == "" {
		return "", &GenerationError{Purpose: llm.PurposeTip, Err: errors.New("empty tip")}
	}
	return tip, nil
}
