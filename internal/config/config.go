// Package config assembles the run configuration from an optional YAML
// file, the environment and command-line flags, in that order of
// precedence (later wins).
package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/tawjihi/mathbot/internal/content"
	"github.com/tawjihi/mathbot/internal/llm"
	"github.com/tawjihi/mathbot/internal/logging"
	"github.com/tawjihi/mathbot/internal/telegram"
)

// Config is everything a run needs. It is built once and passed down.
type Config struct {
	Telegram telegram.Config `koanf:"telegram"`
	LLM      llm.Config      `koanf:"llm"`
	Store    StoreConfig     `koanf:"store"`
	Log      logging.Config  `koanf:"log"`
	Content  content.Config  `koanf:"content"`
}

// StoreConfig locates the question file and the event ledger.
type StoreConfig struct {
	Path string `koanf:"path" env:"MATHBOT_STORE" validate:"required"`

	// EventsDB is the SQLite ledger path; empty disables the ledger.
	EventsDB string `koanf:"events_db"`
}

// Default returns the configuration used when no source sets a value.
func Default() Config {
	return Config{
		Telegram: telegram.DefaultConfig(),
		LLM:      llm.DefaultConfig(),
		Store: StoreConfig{
			Path:     "data/questions.json",
			EventsDB: "data/events.db",
		},
		Log:     logging.DefaultConfig(),
		Content: content.DefaultConfig(),
	}
}

// envKeys maps environment variables onto config keys.
var envKeys = map[string]string{
	"TELEGRAM_BOT_TOKEN":        "telegram.token",
	"TELEGRAM_CHAT_ID":          "telegram.chat_id",
	"MATHBOT_TELEGRAM_BASE_URL": "telegram.base_url",
	"MATHBOT_TELEGRAM_TIMEOUT":  "telegram.timeout",

	"MATHBOT_LLM_PROVIDER":     "llm.provider",
	"MATHBOT_LLM_TIMEOUT":      "llm.timeout",
	"GEMINI_API_KEY":           "llm.gemini.api_key",
	"MATHBOT_GEMINI_MODEL":     "llm.gemini.model",
	"OPENAI_API_KEY":           "llm.openai.api_key",
	"MATHBOT_OPENAI_MODEL":     "llm.openai.model",
	"MATHBOT_OPENAI_BASE_URL":  "llm.openai.base_url",
	"ANTHROPIC_API_KEY":        "llm.anthropic.api_key",
	"MATHBOT_ANTHROPIC_MODEL":  "llm.anthropic.model",
	"OPENROUTER_API_KEY":       "llm.openrouter.api_key",
	"MATHBOT_OPENROUTER_MODEL": "llm.openrouter.model",

	"MATHBOT_STORE":     "store.path",
	"MATHBOT_EVENTS_DB": "store.events_db",

	"MATHBOT_LOG_FILE":  "log.file",
	"MATHBOT_LOG_LEVEL": "log.level",

	"MATHBOT_VARIANT_LANGUAGE": "content.variant_language",
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"chat-id":   "telegram.chat_id",
	"provider":  "llm.provider",
	"store":     "store.path",
	"events-db": "store.events_db",
	"log-file":  "log.file",
	"log-level": "log.level",
}

// Load reads the YAML file at path (skipped when empty), then the
// environment, then the flags in fs that were set explicitly. It does not
// validate; call Validate before doing any work.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, &ConfigurationError{Err: fmt.Errorf("load %s: %w", path, err)}
		}
	}

	// Empty variables count as unset.
	if err := k.Load(env.ProviderWithValue("", ".", func(name, value string) (string, any) {
		if value == "" {
			return "", nil
		}
		return envKeys[name], value
	}), nil); err != nil {
		return Config{}, &ConfigurationError{Err: fmt.Errorf("load environment: %w", err)}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, &ConfigurationError{Err: fmt.Errorf("load flags: %w", err)}
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, &ConfigurationError{Err: fmt.Errorf("decode config: %w", err)}
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by the environment variable that sets them.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		if name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ","); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// Validate checks every required setting and selects the LLM provider from
// the keys present when none was chosen. All missing settings are reported
// together.
func (c *Config) Validate() error {
	var (
		missing []string
		invalid []string
	)

	if err := validate.Struct(c); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return &ConfigurationError{Err: err}
		}
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				missing = append(missing, fe.Field())
				continue
			}
			invalid = append(invalid, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
	}

	if !c.LLM.Discover() {
		missing = append(missing, c.LLM.RequiredKeyEnv())
	} else if err := c.LLM.Validate(); err != nil {
		if key := c.LLM.RequiredKeyEnv(); key != "" {
			missing = append(missing, key)
		} else {
			invalid = append(invalid, err.Error())
		}
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}
	ce := &ConfigurationError{Missing: missing}
	if len(invalid) > 0 {
		ce.Err = fmt.Errorf("invalid settings: %s", strings.Join(invalid, "; "))
	}
	return ce
}
