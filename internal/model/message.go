// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
package model

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the speaker of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns the name used for the role's heading in a
// conversation document.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is one message in a conversation. Turns are never modified once
// appended; their order is the conversation timeline.
type Turn struct {
	Role    Role
	Content string
}

// NewUserTurn creates a turn spoken by the user.
func NewUserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// NewAssistantTurn creates a turn spoken by the assistant.
func NewAssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// =============================================================================
// FRAGMENT TYPE
// =============================================================================

// Fragment is one chunk of a streamed response. A fragment carries either
// text or a terminal error; no fragments follow an error.
type Fragment struct {
	Text string
	Err  error
}

// TextFragment wraps a chunk of text.
func TextFragment(text string) Fragment {
	return Fragment{Text: text}
}

// ErrorFragment wraps a stream failure.
func ErrorFragment(err error) Fragment {
	return Fragment{Err: err}
}
