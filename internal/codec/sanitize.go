// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package codec

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxTitleBytes bounds a sanitized title so that "<title>.md" stays within
// common filename limits.
const MaxTitleBytes = 200

// reservedChars cannot appear in filenames on at least one common platform.
const reservedChars = `/\:*?"<>|`

// NormalizeTitle reduces a title to what the document header can hold: its
// first non-blank line, NFC-normalized, with control characters turned into
// spaces and leading '#' markers and surrounding whitespace removed. The
// result reads back unchanged through TitleFromHeading.
func NormalizeTitle(title string) string {
	for _, line := range strings.Split(norm.NFC.String(title), "\n") {
		if strings.TrimSpace(line) != "" {
			title = line
			break
		}
	}
	title = strings.Map(func(r rune) rune {
		if r == utf8.RuneError || unicode.IsControl(r) {
			return ' '
		}
		return r
	}, title)

	title = strings.TrimSpace(title)
	for strings.HasPrefix(title, "#") {
		title = strings.TrimSpace(title[1:])
	}
	return title
}

// SanitizeTitle turns a title into a safe filename stem. Reserved characters
// and control characters become '_', the result is NFC-normalized, cut to
// MaxTitleBytes on a rune boundary and trimmed of surrounding whitespace.
// SanitizeTitle(SanitizeTitle(s)) == SanitizeTitle(s).
func SanitizeTitle(title string) string {
	title = norm.NFC.String(title)

	var sb strings.Builder
	sb.Grow(len(title))
	for _, r := range title {
		if r == utf8.RuneError || unicode.IsControl(r) || strings.ContainsRune(reservedChars, r) {
			sb.WriteRune('_')
			continue
		}
		sb.WriteRune(r)
	}

	out := strings.TrimSpace(sb.String())
	if len(out) > MaxTitleBytes {
		cut := MaxTitleBytes
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = strings.TrimSpace(out[:cut])
	}
	return out
}
