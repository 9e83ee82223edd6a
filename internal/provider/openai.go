// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/SamuelBurac/rye/internal/model"
)

// OpenAI streams responses from an OpenAI-compatible chat completions API.
type OpenAI struct {
	client         *openai.Client
	model          string
	systemPrompt   string
	maxTokens      int
	titleMaxTokens int
}

// OpenAIOptions configures NewOpenAI.
type OpenAIOptions struct {
	APIKey         string
	BaseURL        string
	Model          string
	SystemPrompt   string
	MaxTokens      int
	TitleMaxTokens int
}

// NewOpenAI creates an OpenAI provider. BaseURL points it at any compatible
// server.
func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if strings.TrimSpace(opts.APIKey) == "" && opts.BaseURL == "" {
		return nil, errors.Wrap(ErrMissingAPIKey, "openai: set OPENAI_API_KEY or openai.api_key")
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}

	return &OpenAI{
		client:         openai.NewClientWithConfig(cfg),
		model:          opts.Model,
		systemPrompt:   opts.SystemPrompt,
		maxTokens:      opts.MaxTokens,
		titleMaxTokens: opts.TitleMaxTokens,
	}, nil
}

func (o *OpenAI) Name() string  { return "openai" }
func (o *OpenAI) Model() string { return o.model }

// StreamResponse forwards content deltas until the stream reports EOF.
func (o *OpenAI) StreamResponse(ctx context.Context, turns []model.Turn) (<-chan model.Fragment, error) {
	req := openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		Messages:  o.messages(turns),
		Stream:    true,
	}

	return startStream(ctx, o.Name(), func(emit emitFunc) error {
		stream, err := o.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			return errors.Wrap(err, "openai stream")
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return errors.Wrap(err, "openai stream")
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if err := emit(resp.Choices[0].Delta.Content); err != nil {
				return err
			}
		}
	}), nil
}

// SummarizeTitle asks for a title in a single non-streaming call.
func (o *OpenAI) SummarizeTitle(ctx context.Context, text string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: o.titleMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: TitlePrompt(text)},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "openai title request")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai title request: empty response")
	}
	return CleanTitle(resp.Choices[0].Message.Content), nil
}

func (o *OpenAI) messages(turns []model.Turn) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	if o.systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: o.systemPrompt})
	}
	for _, t := range turns {
		switch t.Role {
		case model.RoleUser:
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: t.Content})
		case model.RoleAssistant:
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: t.Content})
		}
	}
	return msgs
}
