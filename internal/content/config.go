package content

// Config controls the prompts and token budgets of the generators.
type Config struct {
	// VariantLanguage is the language variants are written in, named in
	// Arabic because it is embedded in the Arabic prompt.
	VariantLanguage string `koanf:"variant_language"`

	SolutionMaxTokens int     `koanf:"solution_max_tokens"`
	TipMaxTokens      int     `koanf:"tip_max_tokens"`
	VariantMaxTokens  int     `koanf:"variant_max_tokens"`
	Temperature       float64 `koanf:"temperature"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		VariantLanguage:   "الإنجليزية",
		SolutionMaxTokens: 1024,
		TipMaxTokens:      128,
		VariantMaxTokens:  512,
		Temperature:       0.7,
	}
}
