// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Message is one chat message in the Ollama wire format.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  *Options  `json:"options,omitempty"`
}

// Options holds the generation parameters rye sets.
type Options struct {
	NumPredict int `json:"num_predict,omitempty"` // max tokens, -1 for unlimited
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ChatResponse is a non-streaming /api/chat response, and also the shape of
// each NDJSON line of a streaming one.
type ChatResponse struct {
	Model      string  `json:"model"`
	Message    Message `json:"message"`
	Done       bool    `json:"done"`
	DoneReason string  `json:"done_reason,omitempty"`
	EvalCount  int     `json:"eval_count,omitempty"`
}

// OllamaError is the error body Ollama returns on failure.
type OllamaError struct {
	Error string `json:"error"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}
