// Package config loads YAML configuration files with environment variable
// expansion.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configuration types that check themselves
// after loading.
type Validator interface {
	Validate() error
}

// Load reads filename into target. ${VAR} and $VAR references are expanded
// from the environment first; ${VAR:-fallback} uses fallback when VAR is
// unset or empty.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	if err := yaml.Unmarshal([]byte(Expand(string(data))), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}

// LoadWithDefaults loads filename, or defaultFile when filename does not
// exist. With neither present target keeps its current values and is
// validated as is.
func LoadWithDefaults[T any](filename, defaultFile string, target *T) error {
	for _, name := range []string{filename, defaultFile} {
		if name == "" {
			continue
		}
		if _, err := os.Stat(name); errors.Is(err, os.ErrNotExist) {
			continue
		}
		return Load(name, target)
	}
	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}

// Expand substitutes environment variables in s.
func Expand(s string) string {
	return os.Expand(s, func(name string) string {
		key, fallback, hasFallback := strings.Cut(name, ":-")
		if v := os.Getenv(key); v != "" || !hasFallback {
			return v
		}
		return fallback
	})
}
