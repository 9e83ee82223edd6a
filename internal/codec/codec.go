// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package codec

import (
	"strings"
	"unicode"

	"github.com/SamuelBurac/rye/internal/model"
)

// =============================================================================
// DOCUMENT FORMAT
// =============================================================================

const (
	// titlePrefix starts the document's first line.
	titlePrefix = "# "

	// placeholderPrefix starts the heading of a conversation with no title.
	placeholderPrefix = "Conversation "

	userHeading      = "## You"
	assistantHeading = "## Assistant"
)

// Header returns the document header for a conversation: the title heading
// when a title is set, otherwise the placeholder heading built from id.
func Header(id, title string) string {
	if title != "" {
		return titlePrefix + title + "\n\n"
	}
	return titlePrefix + placeholderPrefix + id + "\n\n"
}

// FormatTurn returns the document section for a single turn.
func FormatTurn(turn model.Turn) string {
	var sb strings.Builder
	sb.Grow(len(turn.Content) + 20)
	sb.WriteString("\n## ")
	sb.WriteString(turn.Role.DisplayName())
	sb.WriteString("\n\n")
	sb.WriteString(turn.Content)
	sb.WriteString("\n\n")
	return sb.String()
}

// Serialize renders the whole conversation document.
func Serialize(conv *model.Conversation) string {
	var sb strings.Builder
	sb.WriteString(Header(conv.ID, conv.Title))
	for _, turn := range conv.Turns {
		sb.WriteString(FormatTurn(turn))
	}
	return sb.String()
}

// IsPlaceholderTitle reports whether a heading text is the placeholder
// written for untitled conversations: "Conversation " followed by a single
// identifier token.
func IsPlaceholderTitle(text string) bool {
	rest, ok := strings.CutPrefix(text, placeholderPrefix)
	if !ok {
		return false
	}
	rest = strings.TrimSpace(rest)
	return rest != "" && !strings.ContainsFunc(rest, unicode.IsSpace)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse reconstructs turns and the title from a document. It never fails:
// lines outside a turn are ignored and turns whose content is blank are
// dropped. title is empty when the document has no title heading or only the
// placeholder.
func Parse(text string) (turns []model.Turn, title string) {
	lines := splitLines(text)
	i := 0

	if len(lines) > 0 && strings.HasPrefix(lines[0], titlePrefix) {
		title = TitleFromHeading(lines[0])
		i = 1
	}

	for i < len(lines) {
		role, ok := roleHeading(lines[i])
		if !ok {
			i++
			continue
		}

		j := i + 1
		for j < len(lines) {
			if _, next := roleHeading(lines[j]); next {
				break
			}
			j++
		}

		if content := joinTrimmed(lines[i+1 : j]); content != "" {
			turns = append(turns, model.Turn{Role: role, Content: content})
		}
		i = j
	}

	return turns, title
}

// TitleFromHeading extracts the title from a document's first line. It
// returns "" when the line is not a title heading or holds the placeholder.
func TitleFromHeading(line string) string {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, titlePrefix) {
		return ""
	}
	for strings.HasPrefix(line, titlePrefix) {
		line = line[len(titlePrefix):]
	}
	title := strings.TrimSpace(line)
	if IsPlaceholderTitle(title) {
		return ""
	}
	return title
}

// TrimBlankLines normalizes content the way Parse does: line endings are
// unified and blank lines are stripped from both ends. Content stored in this
// form survives a save and reload unchanged.
func TrimBlankLines(text string) string {
	return joinTrimmed(splitLines(text))
}

// roleHeading matches the turn headings by prefix; anything after the role
// name on the heading line is ignored.
func roleHeading(line string) (model.Role, bool) {
	switch {
	case strings.HasPrefix(line, userHeading):
		return model.RoleUser, true
	case strings.HasPrefix(line, assistantHeading):
		return model.RoleAssistant, true
	}
	return "", false
}

// splitLines splits on "\n", drops a trailing "\r" from each line and does
// not produce an empty final line for text ending in a newline.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func joinTrimmed(lines []string) string {
	start, end := 0, len(lines)
	for start < end && isBlank(lines[start]) {
		start++
	}
	for end > start && isBlank(lines[end-1]) {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
