// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the rye command line.
//
// # Commands
//
//   - rye: Interactive chat in a new or continued conversation
//   - rye list: Stored conversations, newest first
//   - rye show ID: Print a stored conversation
//   - rye config show|path|init: Inspect or create the config file
//   - rye version: Build information
//
// # Chat Flow
//
// Each message is appended to the conversation document before the request
// is sent. The response is rendered block by block as it streams and is
// appended once complete, or as far as it got when interrupted. After the
// first exchange of an untitled conversation the provider is asked for a
// title and the document is renamed after it.
package cli
