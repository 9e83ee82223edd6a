// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// =============================================================================
// BLOCKS
// =============================================================================

// Kind classifies a block.
type Kind int

const (
	Paragraph Kind = iota
	Heading
	Code
	Separator
)

func (k Kind) String() string {
	switch k {
	case Paragraph:
		return "paragraph"
	case Heading:
		return "heading"
	case Code:
		return "code"
	case Separator:
		return "separator"
	default:
		return "unknown"
	}
}

// Block is one displayable unit. Text is exactly the raw input that formed
// the block, newlines included, so the concatenated Text of every block
// equals the input stream.
type Block struct {
	Kind Kind
	Text string
}

// fenceMarker opens and closes a fenced code block.
const fenceMarker = "```"

// =============================================================================
// BLOCK RENDERER
// =============================================================================

// BlockRenderer splits a character stream into blocks and hands each one to
// a Sink the moment it is complete. A BlockRenderer serves one response and
// is not safe for concurrent use.
type BlockRenderer struct {
	sink Sink

	line    strings.Builder // current, not yet terminated line
	pending strings.Builder // lines of the block being built
	inFence bool

	full strings.Builder // everything written, for persistence

	blocks   int
	failures int
	closed   bool
}

// NewBlockRenderer creates a renderer that releases blocks to sink.
func NewBlockRenderer(sink Sink) *BlockRenderer {
	return &BlockRenderer{sink: sink}
}

// Write feeds the next fragment of the stream. Fragments may split lines and
// characters anywhere; only complete lines are classified.
func (r *BlockRenderer) Write(text string) {
	if r.closed || text == "" {
		return
	}
	r.full.WriteString(text)

	for text != "" {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			r.line.WriteString(text)
			return
		}
		r.line.WriteString(text[:i+1])
		text = text[i+1:]
		r.completeLine()
	}
}

// Close ends the stream: a partial last line joins the pending block and the
// pending block is released. An unterminated code fence is released as code.
// Close is idempotent.
func (r *BlockRenderer) Close() {
	if r.closed {
		return
	}
	r.closed = true

	partial := r.line.String()
	r.line.Reset()

	kind := Paragraph
	switch {
	case r.inFence:
		kind = Code
	case r.pending.Len() == 0 && strings.HasPrefix(strings.TrimSpace(partial), "#"):
		kind = Heading
	}

	r.pending.WriteString(partial)
	r.flushPending(kind)
}

// Text returns everything written so far.
func (r *BlockRenderer) Text() string {
	return r.full.String()
}

// Blocks returns how many blocks were released, separators included.
func (r *BlockRenderer) Blocks() int {
	return r.blocks
}

// Failures returns how many blocks the sink failed to display.
func (r *BlockRenderer) Failures() int {
	return r.failures
}

// InFence reports whether the renderer is inside an open code fence.
func (r *BlockRenderer) InFence() bool {
	return r.inFence
}

func (r *BlockRenderer) completeLine() {
	line := r.line.String()
	r.line.Reset()
	trimmed := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(trimmed, fenceMarker):
		if r.inFence {
			r.pending.WriteString(line)
			r.flushPending(Code)
			r.inFence = false
			return
		}
		r.flushPending(Paragraph)
		r.inFence = true
		r.pending.WriteString(line)

	case r.inFence:
		r.pending.WriteString(line)

	case trimmed == "":
		r.flushPending(Paragraph)
		r.emit(Block{Kind: Separator, Text: line})

	case strings.HasPrefix(trimmed, "#"):
		r.flushPending(Paragraph)
		r.emit(Block{Kind: Heading, Text: line})

	default:
		// Prose and list items accumulate until a blank line.
		r.pending.WriteString(line)
	}
}

func (r *BlockRenderer) flushPending(kind Kind) {
	if r.pending.Len() == 0 {
		return
	}
	text := r.pending.String()
	r.pending.Reset()
	r.emit(Block{Kind: kind, Text: text})
}

func (r *BlockRenderer) emit(b Block) {
	r.blocks++
	if r.sink == nil {
		return
	}
	if err := r.sink.RenderBlock(b); err != nil {
		r.failures++
		log.Warn().Err(err).Str("kind", b.Kind.String()).Int("bytes", len(b.Text)).Msg("failed to display block")
	}
}
