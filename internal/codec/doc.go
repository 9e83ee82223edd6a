// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package codec converts conversations to and from their markdown document
// form.
//
// A document starts with a level-1 heading holding either the title or the
// placeholder "Conversation <id>", followed by one section per turn:
//
//	# Trip planning
//
//	## You
//
//	Where should I go in May?
//
//	## Assistant
//
//	Somewhere warm.
//
// Serialize and FormatTurn produce byte-identical output whether a document
// is written in one go or grown one turn at a time, which is what lets the
// store append turns without rewriting the file.
//
// # Usage
//
//	doc := codec.Serialize(conv)
//	turns, title := codec.Parse(doc)
//	name := codec.SanitizeTitle("Q3: plans/ideas") // "Q3_ plans_ideas"
package codec
