// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader decodes a newline-delimited JSON chat stream.
type StreamReader struct {
	reader *bufio.Reader
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	accumulator strings.Builder
	chunks      int
	model       string
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{reader: bufio.NewReader(r)}
}

// Process reads the stream and calls fn with the content of each line until
// a line reports done, the body ends, or ctx is cancelled. Malformed lines
// are skipped.
func (s *StreamReader) Process(ctx context.Context, fn func(content string) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk, err := s.readChunk()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if chunk == nil {
			continue
		}

		if chunk.Message.Content != "" {
			if err := fn(chunk.Message.Content); err != nil {
				return err
			}
		}
		if chunk.Done {
			return nil
		}
	}
}

// readChunk reads and parses a single line. It returns (nil, nil) for blank
// or malformed lines.
func (s *StreamReader) readChunk() (*ChatResponse, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return nil, err
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	var resp ChatResponse
	if jerr := json.Unmarshal(line, &resp); jerr != nil {
		log.Debug().Err(jerr).Int("bytes", len(line)).Msg("skipping malformed stream line")
		return nil, nil
	}

	if resp.Model != "" {
		s.model = resp.Model
	}
	if resp.Message.Content != "" {
		s.accumulator.WriteString(resp.Message.Content)
		s.chunks++
	}
	return &resp, nil
}

// Accumulated returns all content received so far.
func (s *StreamReader) Accumulated() string {
	return s.accumulator.String()
}

// Chunks returns the number of non-empty content lines received.
func (s *StreamReader) Chunks() int {
	return s.chunks
}

// Model returns the model name reported by the stream.
func (s *StreamReader) Model() string {
	return s.model
}
