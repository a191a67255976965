// Package config loads agenthost configuration from files, flags and the
// environment, and performs variable substitution for script templates.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every tunable the CLI and SDK expose. Fields map 1:1 to
// flag names, so a YAML config file and script frontmatter share the
// same keys.
type Config struct {
	Model         string  `yaml:"model" mapstructure:"model"`
	SystemPrompt  string  `yaml:"system-prompt" mapstructure:"system-prompt"`
	Prompt        string  `yaml:"prompt" mapstructure:"prompt"`
	MaxSteps      int     `yaml:"max-steps" mapstructure:"max-steps"`
	MessageWindow int     `yaml:"message-window" mapstructure:"message-window"`
	MaxTokens     int     `yaml:"max-tokens" mapstructure:"max-tokens"`
	Temperature   float64 `yaml:"temperature" mapstructure:"temperature"`
	SessionDir    string  `yaml:"session-dir" mapstructure:"session-dir"`
	Debug         bool    `yaml:"debug" mapstructure:"debug"`

	ProviderAPIKey string `yaml:"provider-api-key" mapstructure:"provider-api-key"`
	ProviderURL    string `yaml:"provider-url" mapstructure:"provider-url"`
	TLSSkipVerify  bool   `yaml:"tls-skip-verify" mapstructure:"tls-skip-verify"`
}

// Load reads configuration from the given file, or from the default
// location ($HOME/.agenthost.yml) when path is empty. A missing default
// file is not an error; an explicit path that does not exist is.
// ${env://VAR} references in the file are substituted before parsing.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return defaults(), nil
		}
		path = filepath.Join(home, ".agenthost.yml")
		if _, err := os.Stat(path); err != nil {
			return defaults(), nil
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if HasEnvVars(string(content)) {
		substituted, err := (&EnvSubstituter{}).SubstituteEnvVars(string(content))
		if err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		content = []byte(substituted)
	}

	v := viper.New()
	v.SetConfigType(configType(path))
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg := defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		MaxSteps:      10,
		MessageWindow: 40,
		SessionDir:    DefaultSessionDir(),
	}
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}

// DefaultSessionDir returns the directory used for persisted sessions
// when no --session-dir flag or config key is set.
func DefaultSessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agenthost/sessions"
	}
	return filepath.Join(home, ".agenthost", "sessions")
}

// LoadSystemPrompt resolves a system prompt value that may be either
// inline text or a path to a file containing the prompt. Paths are
// detected by an existing readable file, so prompts that merely look
// like paths still work.
func LoadSystemPrompt(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if info, err := os.Stat(value); err == nil && !info.IsDir() {
		data, err := os.ReadFile(value)
		if err != nil {
			return "", fmt.Errorf("failed to read system prompt file %s: %w", value, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return value, nil
}

// Merge overlays non-zero fields from other onto c. Used to let script
// frontmatter fill in values a config file left unset.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Model != "" {
		c.Model = other.Model
	}
	if other.SystemPrompt != "" {
		c.SystemPrompt = other.SystemPrompt
	}
	if other.Prompt != "" {
		c.Prompt = other.Prompt
	}
	if other.MaxSteps != 0 {
		c.MaxSteps = other.MaxSteps
	}
	if other.MessageWindow != 0 {
		c.MessageWindow = other.MessageWindow
	}
	if other.MaxTokens != 0 {
		c.MaxTokens = other.MaxTokens
	}
	if other.Temperature != 0 {
		c.Temperature = other.Temperature
	}
	if other.SessionDir != "" {
		c.SessionDir = other.SessionDir
	}
	if other.Debug {
		c.Debug = other.Debug
	}
	if other.ProviderAPIKey != "" {
		c.ProviderAPIKey = other.ProviderAPIKey
	}
	if other.ProviderURL != "" {
		c.ProviderURL = other.ProviderURL
	}
	if other.TLSSkipVerify {
		c.TLSSkipVerify = other.TLSSkipVerify
	}
}
