// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider adapts language model backends to a single streaming
// interface.
//
// # Key Types
//
//   - Provider: Streams responses and proposes conversation titles
//   - Anthropic: Anthropic Messages API (default)
//   - OpenAI: OpenAI-compatible chat completions
//   - Ollama: Local Ollama server
//   - Echo: Offline provider that repeats the last user message
//
// # Usage
//
//	p, err := provider.New(cfg)
//	fragments, err := p.StreamResponse(ctx, conv.Turns)
//	result, err := render.Stream(ctx, fragments, sink)
package provider
