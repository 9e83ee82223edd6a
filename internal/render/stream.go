// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/SamuelBurac/rye/internal/model"
)

// =============================================================================
// STREAM CONSUMPTION
// =============================================================================

// Result summarizes a rendered stream.
type Result struct {
	// Text is the complete response as received, independent of display.
	Text string

	// Blocks counts released blocks, separators included.
	Blocks int

	// RenderFailures counts blocks the sink could not display.
	RenderFailures int
}

// StreamError reports a stream that ended early. Partial holds the text
// received before the failure.
type StreamError struct {
	Partial string
	Err     error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("response stream interrupted after %d bytes: %v", len(e.Partial), e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// Stream consumes fragments until the channel closes, a fragment carries an
// error, or ctx is done, releasing blocks to sink as they complete. Whatever
// is buffered is always flushed before returning, and the returned Result
// holds the full text received even when err is a *StreamError.
func Stream(ctx context.Context, fragments <-chan model.Fragment, sink Sink) (Result, error) {
	r := NewBlockRenderer(sink)

	finish := func(err error) (Result, error) {
		r.Close()
		res := Result{Text: r.Text(), Blocks: r.Blocks(), RenderFailures: r.Failures()}
		if err != nil {
			log.Warn().Err(err).Int("partial_bytes", len(res.Text)).Msg("response stream interrupted")
			return res, &StreamError{Partial: res.Text, Err: err}
		}
		return res, nil
	}

	for {
		select {
		case <-ctx.Done():
			return finish(ctx.Err())

		case f, ok := <-fragments:
			if !ok {
				return finish(nil)
			}
			if f.Err != nil {
				return finish(f.Err)
			}
			r.Write(f.Text)
		}
	}
}
