// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"strings"
	"time"

	"github.com/SamuelBurac/rye/internal/model"
)

// Echo replies with the last user message. It needs no network and is used
// offline and in tests.
type Echo struct {
	// Delay is paused between emitted words.
	Delay time.Duration
}

// NewEcho creates an echo provider.
func NewEcho() *Echo {
	return &Echo{}
}

func (e *Echo) Name() string  { return "echo" }
func (e *Echo) Model() string { return "echo" }

// StreamResponse emits the last user message word by word, preserving its
// exact whitespace.
func (e *Echo) StreamResponse(ctx context.Context, turns []model.Turn) (<-chan model.Fragment, error) {
	reply := lastUserMessage(turns)

	return startStream(ctx, e.Name(), func(emit emitFunc) error {
		for _, word := range splitKeepSpace(reply) {
			if e.Delay > 0 {
				select {
				case <-time.After(e.Delay):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if err := emit(word); err != nil {
				return err
			}
		}
		return nil
	}), nil
}

// SummarizeTitle uses the first six words of text.
func (e *Echo) SummarizeTitle(ctx context.Context, text string) (string, error) {
	words := strings.Fields(text)
	if len(words) > 6 {
		words = words[:6]
	}
	return CleanTitle(strings.Join(words, " ")), nil
}

// splitKeepSpace splits s after each run of whitespace so the pieces
// concatenate back to s.
func splitKeepSpace(s string) []string {
	var parts []string
	start := 0
	inSpace := false
	for i, r := range s {
		space := r == ' ' || r == '\n' || r == '\t'
		if inSpace && !space {
			parts = append(parts, s[start:i])
			start = i
		}
		inSpace = space
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}
