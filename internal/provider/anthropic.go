// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"

	"github.com/SamuelBurac/rye/internal/model"
)

// ErrMissingAPIKey is returned when a hosted provider has no credentials.
var ErrMissingAPIKey = errors.New("missing API key")

// Anthropic streams responses from the Anthropic Messages API.
type Anthropic struct {
	client         anthropic.Client
	model          string
	systemPrompt   string
	maxTokens      int64
	titleMaxTokens int64
}

// AnthropicOptions configures NewAnthropic.
type AnthropicOptions struct {
	APIKey         string
	Model          string
	SystemPrompt   string
	MaxTokens      int
	TitleMaxTokens int

	// RequestOptions are appended to the client options (base URL, HTTP
	// client).
	RequestOptions []option.RequestOption
}

// NewAnthropic creates an Anthropic provider.
func NewAnthropic(opts AnthropicOptions) (*Anthropic, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.Wrap(ErrMissingAPIKey, "anthropic: set ANTHROPIC_API_KEY or anthropic.api_key")
	}

	reqOpts := append([]option.RequestOption{option.WithAPIKey(opts.APIKey)}, opts.RequestOptions...)
	return &Anthropic{
		client:         anthropic.NewClient(reqOpts...),
		model:          opts.Model,
		systemPrompt:   opts.SystemPrompt,
		maxTokens:      int64(opts.MaxTokens),
		titleMaxTokens: int64(opts.TitleMaxTokens),
	}, nil
}

func (a *Anthropic) Name() string  { return "anthropic" }
func (a *Anthropic) Model() string { return a.model }

// StreamResponse forwards the text deltas of a streaming Messages request.
func (a *Anthropic) StreamResponse(ctx context.Context, turns []model.Turn) (<-chan model.Fragment, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages:  anthropicMessages(turns),
	}
	if a.systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: a.systemPrompt}}
	}

	return startStream(ctx, a.Name(), func(emit emitFunc) error {
		stream := a.client.Messages.NewStreaming(ctx, params)
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			switch ev := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok {
					if err := emit(delta.Text); err != nil {
						return err
					}
				}
			}
		}
		return errors.Wrap(stream.Err(), "anthropic stream")
	}), nil
}

// SummarizeTitle asks for a title in a single non-streaming call.
func (a *Anthropic) SummarizeTitle(ctx context.Context, text string) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.titleMaxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(TitlePrompt(text)))},
	})
	if err != nil {
		return "", errors.Wrap(err, "anthropic title request")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	return CleanTitle(sb.String()), nil
}

func anthropicMessages(turns []model.Turn) []anthropic.MessageParam {
	msgs := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case model.RoleUser:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		case model.RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Content)))
		}
	}
	return msgs
}
