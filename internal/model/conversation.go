// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is a chat session backed by a single markdown document.
//
// ID is the document's filename stem. It starts as a generated identifier and
// changes to the sanitized title once a title is assigned, so callers should
// always treat it as the current identifier.
type Conversation struct {
	ID    string
	Title string // empty until assigned
	Turns []Turn
	Path  string
}

// HasTitle reports whether a user-visible title has been assigned.
func (c *Conversation) HasTitle() bool {
	return c.Title != ""
}

// IsEmpty reports whether the conversation has no turns.
func (c *Conversation) IsEmpty() bool {
	return len(c.Turns) == 0
}

// TurnCount returns the number of turns.
func (c *Conversation) TurnCount() int {
	return len(c.Turns)
}

// LastTurn returns the most recent turn, if any.
func (c *Conversation) LastTurn() (Turn, bool) {
	if len(c.Turns) == 0 {
		return Turn{}, false
	}
	return c.Turns[len(c.Turns)-1], true
}

// LastByRole returns the most recent turn spoken by role.
func (c *Conversation) LastByRole(role Role) (Turn, bool) {
	for i := len(c.Turns) - 1; i >= 0; i-- {
		if c.Turns[i].Role == role {
			return c.Turns[i], true
		}
	}
	return Turn{}, false
}

// FirstUserMessage returns the content of the first user turn.
func (c *Conversation) FirstUserMessage() string {
	for _, t := range c.Turns {
		if t.Role == RoleUser {
			return t.Content
		}
	}
	return ""
}

// DisplayTitle returns the title, or the ID when no title is set.
func (c *Conversation) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return c.ID
}

// =============================================================================
// SUMMARY TYPE
// =============================================================================

// Summary is a listing entry for a stored conversation. It never carries
// turn content.
type Summary struct {
	ID           string
	Title        string
	Path         string
	LastModified time.Time
}

// DisplayTitle returns the title, or the ID when no title is set.
func (s Summary) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return s.ID
}

// IDFromPath returns the conversation ID for a document path: its filename
// without the extension.
func IDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
