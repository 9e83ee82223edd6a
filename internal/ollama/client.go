// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the Ollama client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by type.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	return ok && t.Message == e.Message && t.Type == e.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeModelNotFound
	ErrTypeInvalidResponse
	ErrTypeConnection
)

// Sentinel errors for easy checking.
var (
	ErrNotRunning    = &ClientError{Type: ErrTypeNotRunning, Message: "Ollama is not running"}
	ErrModelNotFound = &ClientError{Type: ErrTypeModelNotFound, Message: "model not found"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	// DefaultBaseURL uses the IPv4 loopback to avoid IPv6 resolution issues
	// on Windows.
	DefaultBaseURL = "http://127.0.0.1:11434"
	DefaultModel   = "llama3.2"
)

// ClientConfig holds configuration options for the Ollama client.
type ClientConfig struct {
	// BaseURL is the Ollama API base URL.
	BaseURL string

	// Timeout for non-streaming requests (default: 60s). Streaming requests
	// are bounded by their context only.
	Timeout time.Duration

	// DefaultModel is used when a request names no model.
	DefaultModel string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:      DefaultBaseURL,
		Timeout:      60 * time.Second,
		DefaultModel: DefaultModel,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the Ollama chat API. It is safe for concurrent use.
type Client struct {
	config       *ClientConfig
	httpClient   *http.Client
	streamClient *http.Client
}

// NewClient creates a new Ollama client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new Ollama client, filling zero fields of
// config with defaults.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.DefaultModel == "" {
		config.DefaultModel = DefaultModel
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		// Streaming uses a client without timeout; the context bounds it.
		streamClient: &http.Client{},
	}
}

// Config returns the client configuration.
func (c *Client) Config() *ClientConfig {
	return c.config
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// Chat sends a chat request and returns the complete response.
func (c *Client) Chat(ctx context.Context, model string, messages []Message, opts *Options) (*ChatResponse, error) {
	resp, err := c.post(ctx, c.httpClient, c.request(model, messages, opts, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return &result, nil
}

// ChatStream sends a streaming chat request and calls fn with each piece of
// content in arrival order. It returns when the stream is complete, fn
// returns an error, or ctx is cancelled.
func (c *Client) ChatStream(ctx context.Context, model string, messages []Message, opts *Options, fn func(content string) error) error {
	resp, err := c.post(ctx, c.streamClient, c.request(model, messages, opts, true))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	reader := NewStreamReader(resp.Body)
	err = reader.Process(ctx, fn)
	log.Debug().
		Str("model", reader.Model()).
		Int("chunks", reader.Chunks()).
		Int("bytes", len(reader.Accumulated())).
		Err(err).
		Msg("ollama stream finished")
	return err
}

func (c *Client) request(model string, messages []Message, opts *Options, stream bool) ChatRequest {
	if model == "" {
		model = c.config.DefaultModel
	}
	return ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   stream,
		Options:  opts,
	}
}

// post sends a chat request and returns the response when the status is 200.
func (c *Client) post(ctx context.Context, hc *http.Client, body ChatRequest) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &ClientError{Type: ErrTypeNotRunning, Message: ErrNotRunning.Message, Cause: err}
	}

	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrModelNotFound
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var ollamaErr OllamaError
	if err := json.Unmarshal(raw, &ollamaErr); err == nil && ollamaErr.Error != "" {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: ollamaErr.Error}
	}
	msg := "chat request failed: " + resp.Status
	if text := strings.TrimSpace(string(raw)); text != "" {
		msg += ": " + text
	}
	return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: msg}
}
