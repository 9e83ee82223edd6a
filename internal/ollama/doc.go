// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for the Ollama chat API.
//
// # Key Types
//
//   - Client: Chat (single response) and ChatStream (NDJSON streaming)
//   - StreamReader: Line-by-line decoder for streamed responses
//   - ClientError: Typed errors with sentinels ErrNotRunning, ErrModelNotFound
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: url})
//	err := client.ChatStream(ctx, "llama3.2", msgs, nil, func(s string) error {
//	    fmt.Print(s)
//	    return nil
//	})
package ollama
