package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tawjihi/mathbot/internal/llm"
)

// VariantGenerator derives a new question from an already used one, keeping
// the concept and difficulty but changing the numbers.
type VariantGenerator struct {
	provider llm.Provider
	config   Config
}

// NewVariantGenerator creates a VariantGenerator.
func NewVariantGenerator(provider llm.Provider, cfg Config) *VariantGenerator {
	return &VariantGenerator{provider: provider, config: cfg}
}

type variantOutput struct {
	Question string `json:"question"`
}

// GenerateVariant returns the text of a new question based on original.
func (g *VariantGenerator) GenerateVariant(ctx context.Context, original string) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeVariant)

	language := g.config.VariantLanguage
	if strings.TrimSpace(language) == "" {
		language = DefaultConfig().VariantLanguage
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		Messages:    llm.UserPrompt(buildVariantPrompt(original, language)),
		Schema:      VariantSchema,
		MaxTokens:   g.config.VariantMaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return "", &GenerationError{Purpose: llm.PurposeVariant, Err: err}
	}

	// Providers validate against the schema already; the mock does not.
	if err := llm.ValidateResponse(VariantSchema, resp.Content); err != nil {
		return "", &GenerationError{Purpose: llm.PurposeVariant, Err: err}
	}

	var out variantOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", &GenerationError{Purpose: llm.PurposeVariant, Err: fmt.Errorf("parse variant: %w", err)}
	}

	text := strings.TrimSpace(out.Question)
	if text == "" {
		return "", &GenerationError{Purpose: llm.PurposeVariant, Err: errors.New("blank variant")}
	}
	return text, nil
}
