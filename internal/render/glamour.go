// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
)

// DefaultWordWrap is used when no terminal width is known.
const DefaultWordWrap = 80

// GlamourOptions configures a GlamourSink.
type GlamourOptions struct {
	// Style is a glamour standard style name ("dark", "light", "notty",
	// "dracula", ...) or "auto"/"" to detect from the terminal background.
	Style string

	// WordWrap is the wrap column; 0 means DefaultWordWrap.
	WordWrap int

	// Profile is the terminal color profile; 0 (TrueColor) when unset.
	Profile termenv.Profile
}

// GlamourSink renders each block as markdown with glamour. Blocks that fail
// to render are written raw so no text is lost.
type GlamourSink struct {
	w        io.Writer
	renderer *glamour.TermRenderer
}

// NewGlamourSink creates a markdown sink writing to w.
func NewGlamourSink(w io.Writer, opts GlamourOptions) (*GlamourSink, error) {
	wrap := opts.WordWrap
	if wrap <= 0 {
		wrap = DefaultWordWrap
	}

	gopts := []glamour.TermRendererOption{
		glamour.WithWordWrap(wrap),
		glamour.WithColorProfile(opts.Profile),
		glamour.WithEmoji(),
	}
	switch strings.ToLower(opts.Style) {
	case "", "auto":
		gopts = append(gopts, glamour.WithAutoStyle())
	default:
		gopts = append(gopts, glamour.WithStandardStyle(opts.Style))
	}

	renderer, err := glamour.NewTermRenderer(gopts...)
	if err != nil {
		return nil, errors.Wrap(err, "create markdown renderer")
	}
	return &GlamourSink{w: w, renderer: renderer}, nil
}

// RenderBlock renders b and writes it followed by a newline. Separators
// become a single empty line.
func (s *GlamourSink) RenderBlock(b Block) error {
	if b.Kind == Separator {
		_, err := io.WriteString(s.w, "\n")
		return err
	}

	out, err := s.renderer.Render(b.Text)
	if err != nil {
		io.WriteString(s.w, b.Text)
		return errors.Wrapf(err, "render %s block", b.Kind)
	}

	_, err = fmt.Fprintln(s.w, strings.Trim(out, "\n"))
	return err
}
