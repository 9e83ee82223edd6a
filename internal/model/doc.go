// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
//
// This package defines the core domain types shared by the codec, the
// conversation store, the streaming renderer and the providers.
//
// # Key Types
//
//   - Role: Turn speaker (user, assistant)
//   - Turn: Immutable (role, content) pair
//   - Conversation: Ordered turns plus optional title and document path
//   - Summary: Listing projection of a stored conversation
//   - Fragment: One chunk of a streamed response, or its terminal error
//
// # Usage
//
//	conv := &model.Conversation{ID: "abc"}
//	conv.Turns = append(conv.Turns, model.NewUserTurn("Hello!"))
//	if t, ok := conv.LastByRole(model.RoleUser); ok {
//	    fmt.Println(t.Role.DisplayName(), t.Content)
//	}
package model
