// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists conversations as markdown documents, one file per
// conversation, in a single flat directory.
//
// Turns are appended to the end of the document as they happen, so a crash
// never loses an acknowledged turn. Assigning a title writes the whole
// document to "<title>.md" and removes the old "<id>.md" afterwards; until the
// new file is complete the old one stays intact.
//
// # Key Types
//
//   - ConversationStore: Create, load, append, retitle and list conversations
//   - AmbiguousError: Returned by Load when a fragment matches several files
//   - ConversationError: Comparable sentinel errors (use errors.Is)
//
// # Usage
//
//	dir, err := storage.ResolveDir(os.Getenv("RYE_CONVERSATIONS"), os.UserHomeDir)
//	store := storage.NewConversationStore(dir)
//
//	conv, err := store.Create()
//	err = store.AppendTurn(conv, model.RoleUser, "Hello")
//	err = store.AssignTitle(conv, "Greetings")
//
//	conv, err = store.Load("abc") // exact ID, then filename substring
//	summaries, err := store.List() // newest first
//
// # Storage Location
//
// Conversations are stored in ~/.rye/ unless an override directory is given.
package storage
