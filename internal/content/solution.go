package content

import (
	"context"
	"errors"

	"github.com/tawjihi/mathbot/internal/llm"
)

// SolutionGenerator writes the step-by-step Arabic solution for a question.
type SolutionGenerator struct {
	provider llm.Provider
	config   Config
}

// NewSolutionGenerator creates a SolutionGenerator.
func NewSolutionGenerator(provider llm.Provider, cfg Config) *SolutionGenerator {
	return &SolutionGenerator{provider: provider, config: cfg}
}

// Generate returns the solution text for question. topic is the question
// type. Any failure, including an empty reply, is a *GenerationError.
func (g *SolutionGenerator) Generate(ctx context.Context, question, topic string) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeSolution)

	resp, err := g.provider.Generate(ctx, llm.Request{
		Messages:    llm.UserPrompt(buildSolutionPrompt(question, topic)),
		MaxTokens:   g.config.SolutionMaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return "", &GenerationError{Purpose: llm.PurposeSolution, Err: err}
	}

	text := resp.Text()
	if text == "" {
		return "", &GenerationError{Purpose: llm.PurposeSolution, Err: errors.New("empty solution")}
	}
	return text, nil
}
