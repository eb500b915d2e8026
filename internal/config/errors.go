package config

import (
	"fmt"
	"strings"
)

// ConfigurationError reports missing or invalid settings. Missing lists the
// environment variables that must be set.
type ConfigurationError struct {
	Missing []string
	Err     error
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required settings: "+strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(parts) == 0 {
		return "configuration error"
	}
	return fmt.Sprintf("configuration: %s", strings.Join(parts, "; "))
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
