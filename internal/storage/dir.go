// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultDirName is the conversation directory created under the user's
// home directory.
const DefaultDirName = ".rye"

// ResolveDir picks the conversation directory. A non-empty override is used
// when it, or its parent directory, already exists; otherwise the directory
// is DefaultDirName under homeDir. A leading "~/" in the override is expanded.
//
// The result is meant to be computed once at startup and handed to
// NewConversationStore.
func ResolveDir(override string, homeDir func() (string, error)) (string, error) {
	home, homeErr := homeDir()

	if override = strings.TrimSpace(override); override != "" {
		if strings.HasPrefix(override, "~/") && homeErr == nil {
			override = filepath.Join(home, override[2:])
		}
		override = filepath.Clean(override)
		if exists(override) || exists(filepath.Dir(override)) {
			return override, nil
		}
		log.Warn().Str("dir", override).Msg("conversation directory override ignored: neither it nor its parent exists")
	}

	if homeErr != nil || home == "" {
		return "", ErrNoStorageDir
	}
	return filepath.Join(home, DefaultDirName), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
