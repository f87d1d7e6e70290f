// Package config loads the agent's policy file: speech sanitization rules,
// slot schemas, silence thresholds and backend endpoints. Everything has a
// usable default so an empty file is a valid configuration.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/odiadev/ruthie-core/core/sanitize"
	"github.com/odiadev/ruthie-core/core/slots"
)

// Config is the full policy file.
type Config struct {
	Listen string `yaml:"listen"`

	Greeting string `yaml:"greeting"`

	Sanitize SanitizeConfig `yaml:"sanitize"`
	Silence  SilenceConfig  `yaml:"silence"`
	Session  SessionConfig  `yaml:"session"`

	Generator  GeneratorConfig  `yaml:"generator"`
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	CallLog    CallLogConfig    `yaml:"call_log"`

	// Schemas override the built-in action flows when present.
	Schemas []slots.Schema `yaml:"schemas"`
}

type SanitizeConfig struct {
	Denylist        []string `yaml:"denylist"`
	GenericFallback string   `yaml:"generic_fallback"`
	MissingVariable string   `yaml:"missing_variable"`
}

type SilenceConfig struct {
	CheckIn  time.Duration `yaml:"check_in"`
	Reassure time.Duration `yaml:"reassure"`
	Transfer time.Duration `yaml:"transfer"`
}

type SessionConfig struct {
	QueueCapacity int `yaml:"queue_capacity"`
	MaxTurns      int `yaml:"max_turns"`
}

type GeneratorConfig struct {
	APIKeyEnv    string        `yaml:"api_key_env"`
	Model        string        `yaml:"model"`
	SystemPrompt string        `yaml:"system_prompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

type DispatcherConfig struct {
	WebhookURL  string        `yaml:"webhook_url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type RecognizerConfig struct {
	APIKeyEnv  string `yaml:"api_key_env"`
	Model      string `yaml:"model"`
	Language   string `yaml:"language"`
	Encoding   string `yaml:"encoding"`
	SampleRate int    `yaml:"sample_rate"`
}

type CallLogConfig struct {
	// DatabaseURL is a Postgres connection string. Empty disables logging.
	DatabaseURL string `yaml:"database_url"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen: ":8080",
		Silence: SilenceConfig{
			CheckIn:  6 * time.Second,
			Reassure: 12 * time.Second,
			Transfer: 18 * time.Second,
		},
		Generator: GeneratorConfig{
			APIKeyEnv: "GROQ_API_KEY",
		},
		Recognizer: RecognizerConfig{
			APIKeyEnv: "DEEPGRAM_API_KEY",
		},
	}
}

// Load reads and validates a policy file, filling unset values from
// Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse validates raw policy YAML. An empty document is the default
// configuration.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the session could not run with.
func (c Config) Validate() error {
	if !(c.Silence.CheckIn < c.Silence.Reassure && c.Silence.Reassure < c.Silence.Transfer) {
		return fmt.Errorf("silence thresholds must be ascending, got %v, %v, %v",
			c.Silence.CheckIn, c.Silence.Reassure, c.Silence.Transfer)
	}
	if c.Session.QueueCapacity < 0 {
		return fmt.Errorf("queue capacity must not be negative")
	}

	seen := map[string]bool{}
	for _, schema := range c.Schemas {
		if schema.Action == "" {
			return fmt.Errorf("schema without an action name")
		}
		if seen[schema.Action] {
			return fmt.Errorf("duplicate schema for action %q", schema.Action)
		}
		seen[schema.Action] = true
		if len(schema.Fields) == 0 {
			return fmt.Errorf("schema %q has no fields", schema.Action)
		}
		for _, field := range schema.Fields {
			if field.Name == "" || field.Prompt == "" {
				return fmt.Errorf("schema %q has a field without name or prompt", schema.Action)
			}
			if field.MaxRetries < 0 {
				return fmt.Errorf("schema %q field %q has a negative retry bound", schema.Action, field.Name)
			}
		}
	}

	if _, err := sanitize.New(c.SanitizePolicy()); err != nil {
		return fmt.Errorf("invalid sanitize policy: %w", err)
	}
	return nil
}

// SanitizePolicy converts the sanitize section into the sanitizer's policy.
func (c Config) SanitizePolicy() sanitize.Policy {
	return sanitize.Policy{
		Denylist: c.Sanitize.Denylist,
		Fallbacks: sanitize.Fallbacks{
			Generic:         c.Sanitize.GenericFallback,
			MissingVariable: c.Sanitize.MissingVariable,
		},
	}
}

// SilenceThresholds returns the escalation tiers in firing order.
func (c Config) SilenceThresholds() []time.Duration {
	return []time.Duration{c.Silence.CheckIn, c.Silence.Reassure, c.Silence.Transfer}
}

// SchemaMap returns the configured flows keyed by action, falling back to
// the built-in flows when the file declares none.
func (c Config) SchemaMap() map[string]slots.Schema {
	if len(c.Schemas) == 0 {
		return slots.DefaultSchemas()
	}
	schemas := make(map[string]slots.Schema, len(c.Schemas))
	for _, schema := range c.Schemas {
		schemas[schema.Action] = schema
	}
	return schemas
}
