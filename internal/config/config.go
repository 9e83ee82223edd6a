// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for rye.
//
// Configuration file location:
//   - <user config dir>/rye/config.toml (or --config PATH)
//   - Built-in defaults when the file does not exist
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rye configuration.
type Config struct {
	// Provider selection and request settings
	Provider ProviderConfig `toml:"provider"`

	// Per-provider credentials and models
	Anthropic AnthropicConfig `toml:"anthropic"`
	OpenAI    OpenAIConfig    `toml:"openai"`
	Ollama    OllamaConfig    `toml:"ollama"`

	// Conversation storage
	Storage StorageConfig `toml:"storage"`

	// Terminal output
	UI UIConfig `toml:"ui"`

	// Diagnostics
	Log LogConfig `toml:"log"`
}

// ProviderConfig selects the provider and shapes its requests.
type ProviderConfig struct {
	// Name is one of: anthropic, openai, ollama, echo
	Name string `toml:"name"`

	// Model overrides the selected provider's model when set.
	Model string `toml:"model,omitempty"`

	// SystemPrompt is sent with every response request.
	SystemPrompt string `toml:"system_prompt"`

	// MaxTokens bounds a response.
	MaxTokens int `toml:"max_tokens"`

	// TitleMaxTokens bounds a generated title.
	TitleMaxTokens int `toml:"title_max_tokens"`
}

// AnthropicConfig configures the Anthropic Messages API.
type AnthropicConfig struct {
	APIKey string `toml:"api_key,omitempty"`
	Model  string `toml:"model"`
}

// OpenAIConfig configures an OpenAI-compatible chat completions API.
type OpenAIConfig struct {
	APIKey  string `toml:"api_key,omitempty"`
	BaseURL string `toml:"base_url,omitempty"`
	Model   string `toml:"model"`
}

// OllamaConfig configures a local Ollama server.
type OllamaConfig struct {
	URL   string `toml:"url"`
	Model string `toml:"model"`
}

// StorageConfig controls where conversations are kept.
type StorageConfig struct {
	// Dir overrides the default ~/.rye directory. It is honored when it or
	// its parent exists.
	Dir string `toml:"dir,omitempty"`

	// RemoveEmpty deletes conversations that never received a turn when the
	// chat ends.
	RemoveEmpty bool `toml:"remove_empty"`
}

// UIConfig controls terminal rendering.
type UIConfig struct {
	// Markdown renders responses with glamour when stdout is a terminal.
	Markdown bool `toml:"markdown"`

	// Theme is a glamour style name or "auto".
	Theme string `toml:"theme"`

	// WordWrap is the wrap column; 0 follows the terminal width.
	WordWrap int `toml:"word_wrap"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	// Level is one of: trace, debug, info, warn, error, disabled
	Level string `toml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format"`

	// File is the log file; empty means <config dir>/rye.log.
	File string `toml:"file,omitempty"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultProvider       = "anthropic"
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultOllamaURL      = "http://127.0.0.1:11434"
	DefaultOllamaModel    = "llama3.2"
	DefaultMaxTokens      = 4096
	DefaultTitleMaxTokens = 100

	DefaultSystemPrompt = "You are a helpful assistant. Always respond in markdown format. " +
		"When referring to information you've previously provided in this conversation, " +
		"reference the relevant sections instead of repeating the information. " +
		"Be concise and avoid unnecessary repetition."
)

// Providers lists the valid provider names.
var Providers = []string{"anthropic", "openai", "ollama", "echo"}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:           DefaultProvider,
			SystemPrompt:   DefaultSystemPrompt,
			MaxTokens:      DefaultMaxTokens,
			TitleMaxTokens: DefaultTitleMaxTokens,
		},
		Anthropic: AnthropicConfig{Model: DefaultAnthropicModel},
		OpenAI:    OpenAIConfig{Model: DefaultOpenAIModel},
		Ollama:    OllamaConfig{URL: DefaultOllamaURL, Model: DefaultOllamaModel},
		Storage:   StorageConfig{RemoveEmpty: true},
		UI:        UIConfig{Markdown: true, Theme: "auto"},
		Log:       LogConfig{Level: "warn", Format: "text"},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the rye configuration directory path.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "could not determine config directory")
	}
	return filepath.Join(base, "rye"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions tightens a config file to 0600.
// SECURITY: Config files may hold API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return errors.Wrapf(err, "fix insecure permissions (was %o)", mode)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the configuration at path, or at ConfigPath when path is empty.
// A missing file yields the defaults. Environment overrides are applied last,
// then defaults are filled in and the result is validated.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	} else if explicit || !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "config file %s", path)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg as TOML to path, or to ConfigPath when path is empty.
// SECURITY: Creates config files with 0600 permissions.
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrap(err, "create config file")
	}
	defer file.Close()

	// Ensure permissions are correct even if the file already existed
	if err := os.Chmod(path, 0600); err != nil {
		return errors.Wrap(err, "set config file permissions")
	}

	fmt.Fprintln(file, "# rye configuration file")
	fmt.Fprintln(file, "# Environment variables (RYE_*, ANTHROPIC_*, OPENAI_*) override these values.")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return errors.Wrap(err, "encode config")
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if !IsProvider(c.Provider.Name) {
		errs = append(errs, ValidationError{
			Field:   "provider.name",
			Message: fmt.Sprintf("invalid provider '%s', must be one of: %s", c.Provider.Name, strings.Join(Providers, ", ")),
		})
	}
	if c.Provider.MaxTokens < 1 || c.Provider.MaxTokens > 200000 {
		errs = append(errs, ValidationError{
			Field:   "provider.max_tokens",
			Message: fmt.Sprintf("must be between 1 and 200000, got %d", c.Provider.MaxTokens),
		})
	}
	if c.Provider.TitleMaxTokens < 1 || c.Provider.TitleMaxTokens > c.Provider.MaxTokens {
		errs = append(errs, ValidationError{
			Field:   "provider.title_max_tokens",
			Message: fmt.Sprintf("must be between 1 and max_tokens, got %d", c.Provider.TitleMaxTokens),
		})
	}

	for field, raw := range map[string]string{"ollama.url": c.Ollama.URL, "openai.base_url": c.OpenAI.BaseURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("invalid URL '%s'", raw)})
		}
	}

	if c.UI.WordWrap < 0 {
		errs = append(errs, ValidationError{Field: "ui.word_wrap", Message: "must not be negative"})
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true, "disabled": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{Field: "log.level", Message: fmt.Sprintf("invalid level '%s'", c.Log.Level)})
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, ValidationError{Field: "log.format", Message: fmt.Sprintf("invalid format '%s', must be text or json", c.Log.Format)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// IsProvider reports whether name is a known provider.
func IsProvider(name string) bool {
	for _, p := range Providers {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

// SetDefaults fills zero values left by a partial config file.
func (c *Config) SetDefaults() {
	d := Default()

	c.Provider.Name = strings.ToLower(strings.TrimSpace(c.Provider.Name))
	if c.Provider.Name == "" {
		c.Provider.Name = d.Provider.Name
	}
	if c.Provider.MaxTokens == 0 {
		c.Provider.MaxTokens = d.Provider.MaxTokens
	}
	if c.Provider.TitleMaxTokens == 0 {
		c.Provider.TitleMaxTokens = d.Provider.TitleMaxTokens
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = d.Anthropic.Model
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = d.OpenAI.Model
	}
	if c.Ollama.URL == "" {
		c.Ollama.URL = d.Ollama.URL
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = d.Ollama.Model
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// Environment variable names.
const (
	EnvConversations  = "RYE_CONVERSATIONS"
	EnvProvider       = "RYE_PROVIDER"
	EnvModel          = "RYE_MODEL"
	EnvOllamaURL      = "RYE_OLLAMA_URL"
	EnvLogLevel       = "RYE_LOG_LEVEL"
	EnvNoMarkdown     = "RYE_NO_MARKDOWN"
	EnvAnthropicKey   = "ANTHROPIC_API_KEY"
	EnvAnthropicModel = "ANTHROPIC_MODEL"
	EnvOpenAIKey      = "OPENAI_API_KEY"
	EnvOpenAIBaseURL  = "OPENAI_BASE_URL"
)

// ApplyEnvOverrides applies environment variable overrides:
//   - RYE_CONVERSATIONS: overrides storage.dir
//   - RYE_PROVIDER: overrides provider.name
//   - RYE_MODEL: overrides provider.model
//   - RYE_OLLAMA_URL: overrides ollama.url
//   - RYE_LOG_LEVEL: overrides log.level
//   - RYE_NO_MARKDOWN: disables ui.markdown when truthy
//   - ANTHROPIC_API_KEY / ANTHROPIC_MODEL: override the anthropic section
//   - OPENAI_API_KEY / OPENAI_BASE_URL: override the openai section
func (c *Config) ApplyEnvOverrides() {
	set := func(name string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}

	set(EnvConversations, &c.Storage.Dir)
	set(EnvProvider, &c.Provider.Name)
	set(EnvModel, &c.Provider.Model)
	set(EnvOllamaURL, &c.Ollama.URL)
	set(EnvLogLevel, &c.Log.Level)
	set(EnvAnthropicKey, &c.Anthropic.APIKey)
	set(EnvAnthropicModel, &c.Anthropic.Model)
	set(EnvOpenAIKey, &c.OpenAI.APIKey)
	set(EnvOpenAIBaseURL, &c.OpenAI.BaseURL)

	if v := os.Getenv(EnvNoMarkdown); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.UI.Markdown = false
		}
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// ModelFor returns the model the named provider should use.
func (c *Config) ModelFor(provider string) string {
	if c.Provider.Model != "" {
		return c.Provider.Model
	}
	switch strings.ToLower(provider) {
	case "anthropic":
		return c.Anthropic.Model
	case "openai":
		return c.OpenAI.Model
	case "ollama":
		return c.Ollama.Model
	default:
		return ""
	}
}

// Masked returns a copy with API keys partially hidden, for display.
func (c *Config) Masked() *Config {
	clone := *c
	clone.Anthropic.APIKey = MaskKey(c.Anthropic.APIKey)
	clone.OpenAI.APIKey = MaskKey(c.OpenAI.APIKey)
	return &clone
}

// MaskKey keeps the first four characters of a secret.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + strings.Repeat("*", 8)
}

// String returns the configuration as TOML with keys masked.
func (c *Config) String() string {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c.Masked()); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return sb.String()
}
