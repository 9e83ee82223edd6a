// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderAll(chunks ...string) *Recorder {
	rec := &Recorder{}
	r := NewBlockRenderer(rec)
	for _, c := range chunks {
		r.Write(c)
	}
	r.Close()
	return rec
}

// splitEvery cuts s into pieces of n bytes.
func splitEvery(s string, n int) []string {
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func TestBlockRenderer_HeadingParagraphCode(t *testing.T) {
	rec := renderAll("# Heading\n\nSome text\n\n```\ncode\n```\n")

	assert.Equal(t, []string{
		"# Heading\n",
		"Some text\n",
		"```\ncode\n```\n",
	}, rec.Content())

	kinds := []Kind{}
	for _, b := range rec.Blocks {
		kinds = append(kinds, b.Kind)
	}
	assert.Equal(t, []Kind{Heading, Separator, Paragraph, Separator, Code}, kinds)
}

func TestBlockRenderer_ListItemsAccumulate(t *testing.T) {
	rec := renderAll("Steps:\n- one\n- two\n  continued\n\nDone\n")

	assert.Equal(t, []string{
		"Steps:\n- one\n- two\n  continued\n",
		"Done\n",
	}, rec.Content())
}

func TestBlockRenderer_HeadingFlushesPending(t *testing.T) {
	rec := renderAll("intro line\n## Section\nbody\n")

	require.Len(t, rec.Blocks, 3)
	assert.Equal(t, Block{Paragraph, "intro line\n"}, rec.Blocks[0])
	assert.Equal(t, Block{Heading, "## Section\n"}, rec.Blocks[1])
	assert.Equal(t, Block{Paragraph, "body\n"}, rec.Blocks[2])
}

func TestBlockRenderer_FenceKeepsBlankLinesAndHashes(t *testing.T) {
	src := "```sh\n# comment\n\necho hi\n```\n"
	rec := renderAll(src)

	require.Len(t, rec.Blocks, 1)
	assert.Equal(t, Block{Code, src}, rec.Blocks[0])
}

func TestBlockRenderer_FenceOpeningFlushesParagraph(t *testing.T) {
	rec := renderAll("Run this:\n  ```\nls\n  ```\n")

	require.Len(t, rec.Blocks, 2)
	assert.Equal(t, Block{Paragraph, "Run this:\n"}, rec.Blocks[0])
	assert.Equal(t, Block{Code, "  ```\nls\n  ```\n"}, rec.Blocks[1])
}

func TestBlockRenderer_UnterminatedFenceFlushedAtEnd(t *testing.T) {
	rec := renderAll("text\n\n```go\nfunc main() {\n")

	last := rec.Blocks[len(rec.Blocks)-1]
	assert.Equal(t, Block{Code, "```go\nfunc main() {\n"}, last)
}

func TestBlockRenderer_PartialLastLine(t *testing.T) {
	rec := renderAll("para one\n\ntrailing words")
	assert.Equal(t, []string{"para one\n", "trailing words"}, rec.Content())

	rec = renderAll("# Title without newline")
	require.Len(t, rec.Blocks, 1)
	assert.Equal(t, Block{Heading, "# Title without newline"}, rec.Blocks[0])

	rec = renderAll("first\nsecond partial")
	require.Len(t, rec.Blocks, 1)
	assert.Equal(t, Block{Paragraph, "first\nsecond partial"}, rec.Blocks[0])
}

func TestBlockRenderer_EmptyStream(t *testing.T) {
	rec := renderAll()
	assert.Empty(t, rec.Blocks)

	rec = renderAll("", "")
	assert.Empty(t, rec.Blocks)
}

func TestBlockRenderer_WhitespaceOnlyLineIsSeparator(t *testing.T) {
	rec := renderAll("a\n   \nb\n")
	require.Len(t, rec.Blocks, 3)
	assert.Equal(t, Block{Separator, "   \n"}, rec.Blocks[1])
}

var noDropInputs = []string{
	"# Heading\n\nSome text\n\n```\ncode\n```\n",
	"Hello **world**.\n\n- a\n- b\n\n### Sub\n\n```py\nprint('x')\n\n\n```\nafter\n",
	"no newline at all",
	"\n\n\n",
	"```\nnever closed\n\nstill code",
	"crlf line\r\n\r\nnext\r\n",
	"日本語の段落です。\n\n# 見出し\n絵文字 🎉 もあります\n",
}

func TestBlockRenderer_NoCharactersDropped(t *testing.T) {
	for _, src := range noDropInputs {
		for _, n := range []int{1, 2, 3, 7, 64, len(src) + 1} {
			rec := renderAll(splitEvery(src, n)...)
			assert.Equal(t, src, rec.Joined(), "chunk size %d", n)
		}
	}
}

func TestBlockRenderer_ChunkingDoesNotChangeBlocks(t *testing.T) {
	for _, src := range noDropInputs {
		want := renderAll(src).Blocks
		for _, n := range []int{1, 2, 5, 13} {
			got := renderAll(splitEvery(src, n)...).Blocks
			assert.Equal(t, want, got, "chunk size %d for %q", n, src)
		}
	}
}

func TestBlockRenderer_TextKeepsEverything(t *testing.T) {
	r := NewBlockRenderer(nil)
	r.Write("abc\n")
	r.Write("```\nx")
	assert.True(t, r.InFence())
	r.Close()
	assert.Equal(t, "abc\n```\nx", r.Text())

	// Writes after Close are ignored.
	r.Write("more")
	assert.Equal(t, "abc\n```\nx", r.Text())
}

func TestBlockRenderer_SinkErrorsDoNotAbort(t *testing.T) {
	var seen []Block
	sink := SinkFunc(func(b Block) error {
		seen = append(seen, b)
		if b.Kind == Heading {
			return errors.New("display broke")
		}
		return nil
	})

	r := NewBlockRenderer(sink)
	r.Write("# H\nbody\n\n# H2\n")
	r.Close()

	assert.Equal(t, 2, r.Failures())
	assert.Equal(t, 4, r.Blocks())
	assert.Len(t, seen, 4)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "paragraph", Paragraph.String())
	assert.Equal(t, "heading", Heading.String())
	assert.Equal(t, "code", Code.String())
	assert.Equal(t, "separator", Separator.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestPlainSink(t *testing.T) {
	var sb strings.Builder
	r := NewBlockRenderer(NewPlainSink(&sb))
	src := "# T\n\npara\n```\nx\n```\ntail"
	r.Write(src)
	r.Close()
	assert.Equal(t, src, sb.String())
}
