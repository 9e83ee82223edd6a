// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across rye.
//
//   - AtomicWriteFile: temp file, fsync, rename
//   - TruncateRunes / TruncateWidth / PadRight: display-safe string shaping
package util
