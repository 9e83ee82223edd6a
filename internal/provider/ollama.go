// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"

	"github.com/pkg/errors"

	"github.com/SamuelBurac/rye/internal/model"
	"github.com/SamuelBurac/rye/internal/ollama"
)

// Ollama streams responses from a local Ollama server.
type Ollama struct {
	client         *ollama.Client
	model          string
	systemPrompt   string
	maxTokens      int
	titleMaxTokens int
}

// OllamaOptions configures NewOllama.
type OllamaOptions struct {
	URL            string
	Model          string
	SystemPrompt   string
	MaxTokens      int
	TitleMaxTokens int
}

// NewOllama creates an Ollama provider.
func NewOllama(opts OllamaOptions) *Ollama {
	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      opts.URL,
		DefaultModel: opts.Model,
	})
	return &Ollama{
		client:         client,
		model:          client.Config().DefaultModel,
		systemPrompt:   opts.SystemPrompt,
		maxTokens:      opts.MaxTokens,
		titleMaxTokens: opts.TitleMaxTokens,
	}
}

func (o *Ollama) Name() string  { return "ollama" }
func (o *Ollama) Model() string { return o.model }

// StreamResponse sends the conversation to /api/chat with streaming on.
func (o *Ollama) StreamResponse(ctx context.Context, turns []model.Turn) (<-chan model.Fragment, error) {
	msgs := o.messages(turns)
	opts := &ollama.Options{NumPredict: o.maxTokens}

	return startStream(ctx, o.Name(), func(emit emitFunc) error {
		return o.client.ChatStream(ctx, o.model, msgs, opts, func(content string) error {
			return emit(content)
		})
	}), nil
}

// SummarizeTitle asks the model for a title in a single non-streaming call.
func (o *Ollama) SummarizeTitle(ctx context.Context, text string) (string, error) {
	resp, err := o.client.Chat(ctx, o.model,
		[]ollama.Message{ollama.NewUserMessage(TitlePrompt(text))},
		&ollama.Options{NumPredict: o.titleMaxTokens})
	if err != nil {
		return "", errors.Wrap(err, "ollama title request")
	}
	return CleanTitle(resp.Message.Content), nil
}

func (o *Ollama) messages(turns []model.Turn) []ollama.Message {
	msgs := make([]ollama.Message, 0, len(turns)+1)
	if o.systemPrompt != "" {
		msgs = append(msgs, ollama.NewSystemMessage(o.systemPrompt))
	}
	for _, t := range turns {
		switch t.Role {
		case model.RoleUser:
			msgs = append(msgs, ollama.NewUserMessage(t.Content))
		case model.RoleAssistant:
			msgs = append(msgs, ollama.NewAssistantMessage(t.Content))
		}
	}
	return msgs
}
