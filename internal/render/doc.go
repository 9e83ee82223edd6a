// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns a streamed markdown response into display blocks as
// soon as each block is structurally complete.
//
// The renderer reads the stream once, a line at a time, and never looks back:
// a paragraph is released at the blank line that ends it, a heading as soon as
// its line is complete, and a fenced code block when its closing fence
// arrives. Whatever is still buffered when the stream ends is released as one
// final block.
//
// # Key Types
//
//   - BlockRenderer: The incremental line classifier and block buffer
//   - Block / Kind: A releasable unit (paragraph, heading, code, separator)
//   - Sink: Destination for blocks (GlamourSink, PlainSink, Recorder)
//   - StreamError: Returned by Stream with the partial text when a stream fails
//
// # Usage
//
//	sink, _ := render.NewGlamourSink(os.Stdout, render.GlamourOptions{Style: "auto"})
//	res, err := render.Stream(ctx, fragments, sink)
//	// res.Text is the full response, even when err reports an interruption
package render
