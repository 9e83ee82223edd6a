// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/SamuelBurac/rye/internal/model"
	"github.com/SamuelBurac/rye/internal/util"
)

// =============================================================================
// PROVIDER INTERFACE
// =============================================================================

// Provider produces assistant responses for a conversation.
type Provider interface {
	// Name identifies the provider ("anthropic", "openai", ...).
	Name() string

	// Model is the model requests are sent to.
	Model() string

	// StreamResponse starts a response to turns. Each fragment carries text
	// or a terminal error; the channel is closed when the response ends or
	// ctx is cancelled.
	StreamResponse(ctx context.Context, turns []model.Turn) (<-chan model.Fragment, error)

	// SummarizeTitle proposes a short title for a conversation opening with
	// text.
	SummarizeTitle(ctx context.Context, text string) (string, error)
}

// MaxTitleRunes bounds a generated title.
const MaxTitleRunes = 50

// titlePrompt asks for a title given the first user message.
const titlePrompt = "Generate a concise, descriptive title (max 50 characters) for a conversation " +
	"that starts with this user message: \"%s\"\n\nRespond with ONLY the title, no additional text or formatting."

// TitlePrompt returns the title request for a first message.
func TitlePrompt(text string) string {
	return fmt.Sprintf(titlePrompt, text)
}

// CleanTitle reduces a model's title reply to a single line without
// surrounding quotes or markdown, at most MaxTitleRunes long.
func CleanTitle(raw string) string {
	title := util.FirstLine(raw)
	title = strings.TrimLeft(title, "# ")
	if t, ok := cutPrefixFold(title, "title:"); ok {
		title = t
	}
	title = strings.Trim(strings.TrimSpace(title), "\"'`*")
	title = strings.TrimSpace(title)

	runes := []rune(title)
	if len(runes) > MaxTitleRunes {
		title = strings.TrimSpace(string(runes[:MaxTitleRunes]))
	}
	return title
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

// =============================================================================
// STREAM PLUMBING
// =============================================================================

// emitFunc forwards one piece of text to the consumer. It fails once the
// consumer's context is done.
type emitFunc func(text string) error

// startStream runs produce on its own goroutine and exposes its output as a
// fragment channel. An error from produce becomes the final fragment unless
// ctx was cancelled, in which case the consumer already knows.
func startStream(ctx context.Context, name string, produce func(emit emitFunc) error) <-chan model.Fragment {
	ch := make(chan model.Fragment)

	send := func(f model.Fragment) error {
		select {
		case ch <- f:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	go func() {
		defer close(ch)

		err := produce(func(text string) error {
			if text == "" {
				return nil
			}
			return send(model.TextFragment(text))
		})
		if err != nil && ctx.Err() == nil {
			log.Debug().Err(err).Str("provider", name).Msg("response stream failed")
			_ = send(model.ErrorFragment(err))
		}
	}()

	return ch
}

// lastUserMessage returns the content of the final user turn.
func lastUserMessage(turns []model.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == model.RoleUser {
			return turns[i].Content
		}
	}
	return ""
}
