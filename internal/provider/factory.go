// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/SamuelBurac/rye/internal/config"
)

// New builds the provider named by cfg.Provider.Name.
func New(cfg *config.Config) (Provider, error) {
	name := strings.ToLower(cfg.Provider.Name)
	model := cfg.ModelFor(name)
	p := cfg.Provider

	switch name {
	case "anthropic", "":
		return NewAnthropic(AnthropicOptions{
			APIKey:         cfg.Anthropic.APIKey,
			Model:          model,
			SystemPrompt:   p.SystemPrompt,
			MaxTokens:      p.MaxTokens,
			TitleMaxTokens: p.TitleMaxTokens,
		})
	case "openai":
		return NewOpenAI(OpenAIOptions{
			APIKey:         cfg.OpenAI.APIKey,
			BaseURL:        cfg.OpenAI.BaseURL,
			Model:          model,
			SystemPrompt:   p.SystemPrompt,
			MaxTokens:      p.MaxTokens,
			TitleMaxTokens: p.TitleMaxTokens,
		})
	case "ollama":
		return NewOllama(OllamaOptions{
			URL:            cfg.Ollama.URL,
			Model:          model,
			SystemPrompt:   p.SystemPrompt,
			MaxTokens:      p.MaxTokens,
			TitleMaxTokens: p.TitleMaxTokens,
		}), nil
	case "echo":
		return NewEcho(), nil
	default:
		return nil, errors.Errorf("unknown provider %q (want one of: %s)", cfg.Provider.Name, strings.Join(config.Providers, ", "))
	}
}
