package content

import "github.com/tawjihi/mathbot/internal/llm"

// VariantSchema is the structured output expected from variant generation.
var VariantSchema = &llm.Schema{
	Name:        "question-variant",
	Description: "A new math question derived from an existing one",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "The new question text only, without solution or explanation",
			},
		},
		"required":             []any{"question"},
		"additionalProperties": false,
	},
}
