// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"io"
	"strings"
)

// =============================================================================
// SINKS
// =============================================================================

// Sink displays released blocks. Display is best-effort: an error is logged
// by the renderer and the stream continues.
type Sink interface {
	RenderBlock(b Block) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(b Block) error

// RenderBlock calls f(b).
func (f SinkFunc) RenderBlock(b Block) error {
	return f(b)
}

// PlainSink writes block text unchanged, for pipes and dumb terminals.
type PlainSink struct {
	w io.Writer
}

// NewPlainSink creates a sink writing raw text to w.
func NewPlainSink(w io.Writer) *PlainSink {
	return &PlainSink{w: w}
}

// RenderBlock writes the block's raw text.
func (s *PlainSink) RenderBlock(b Block) error {
	_, err := io.WriteString(s.w, b.Text)
	return err
}

// Recorder keeps every block it receives.
type Recorder struct {
	Blocks []Block
}

// RenderBlock records b.
func (r *Recorder) RenderBlock(b Block) error {
	r.Blocks = append(r.Blocks, b)
	return nil
}

// Content returns the blocks' texts, excluding separators.
func (r *Recorder) Content() []string {
	var out []string
	for _, b := range r.Blocks {
		if b.Kind != Separator {
			out = append(out, b.Text)
		}
	}
	return out
}

// Joined returns the concatenated text of every block.
func (r *Recorder) Joined() string {
	var sb strings.Builder
	for _, b := range r.Blocks {
		sb.WriteString(b.Text)
	}
	return sb.String()
}
