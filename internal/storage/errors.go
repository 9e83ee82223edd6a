// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"strings"

	"github.com/SamuelBurac/rye/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when no stored conversation matches.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ErrTitleCollision is returned by AssignTitle when another conversation
// already owns the target file.
var ErrTitleCollision = &ConversationError{Message: "a conversation with this title already exists"}

// ErrInvalidTitle is returned by AssignTitle when the sanitized title is
// empty or would be read back as the untitled placeholder.
var ErrInvalidTitle = &ConversationError{Message: "invalid conversation title"}

// ErrNoStorageDir is returned by ResolveDir when neither an override nor a
// home directory is available.
var ErrNoStorageDir = &ConversationError{Message: "no conversation directory available"}

// ConversationError represents a conversation-related error.
// It implements the error interface and can be compared using errors.Is.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// AmbiguousError is returned by Load when a fragment matches more than one
// stored conversation. Candidates are ordered newest first.
type AmbiguousError struct {
	Ref        string
	Candidates []model.Summary
}

func (e *AmbiguousError) Error() string {
	ids := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		ids = append(ids, c.ID)
	}
	return fmt.Sprintf("%q matches %d conversations: %s", e.Ref, len(e.Candidates), strings.Join(ids, ", "))
}
