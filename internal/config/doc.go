// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for rye.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ProviderConfig: Provider selection, system prompt and token limits
//   - StorageConfig: Conversation directory override and cleanup policy
//   - ValidationError: A single invalid setting
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (RYE_*, ANTHROPIC_*, OPENAI_*)
//   - <user config dir>/rye/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Provider.Name, cfg.ModelFor(cfg.Provider.Name))
package config
