// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/SamuelBurac/rye/internal/codec"
	"github.com/SamuelBurac/rye/internal/model"
	"github.com/SamuelBurac/rye/internal/provider"
	"github.com/SamuelBurac/rye/internal/render"
	"github.com/SamuelBurac/rye/internal/storage"
)

// titleTimeout bounds the title request that follows the first exchange.
const titleTimeout = 30 * time.Second

// maxTitleAttempts bounds the numbered variants tried when a title is taken.
const maxTitleAttempts = 5

// errEmptyInput is returned by Exchange for whitespace-only input.
var errEmptyInput = errors.New("empty message")

// =============================================================================
// SESSION
// =============================================================================

// Session ties one open conversation to a provider and a display sink.
type Session struct {
	Store    *storage.ConversationStore
	Provider provider.Provider
	Conv     *model.Conversation
	Sink     render.Sink

	// Err receives warnings.
	Err io.Writer

	// AutoTitle requests a title once the conversation holds a response.
	AutoTitle bool

	titleRequested bool
}

// Exchange records input as a user turn, streams the response to the sink
// and records it as an assistant turn. A response cut short by an error or
// cancellation is still recorded; the returned error is then a
// *render.StreamError. An untitled conversation is titled after its first
// recorded response, including a partial one, unless ctx was cancelled.
func (s *Session) Exchange(ctx context.Context, input string) (render.Result, error) {
	content := codec.TrimBlankLines(input)
	if content == "" {
		return render.Result{}, errEmptyInput
	}

	if err := s.Store.AppendTurn(s.Conv, model.RoleUser, content); err != nil {
		return render.Result{}, errors.Wrap(err, "save message")
	}

	fragments, err := s.Provider.StreamResponse(ctx, s.Conv.Turns)
	if err != nil {
		return render.Result{}, errors.Wrapf(err, "%s request", s.Provider.Name())
	}

	res, streamErr := render.Stream(ctx, fragments, s.Sink)
	if res.RenderFailures > 0 {
		s.warnf("%d block(s) could not be displayed", res.RenderFailures)
	}

	if reply := codec.TrimBlankLines(res.Text); reply != "" {
		if err := s.Store.AppendTurn(s.Conv, model.RoleAssistant, reply); err != nil {
			return res, errors.Wrap(err, "save response")
		}
	}

	if s.AutoTitle && ctx.Err() == nil {
		s.maybeTitle(ctx)
	}
	return res, streamErr
}

// maybeTitle names an untitled conversation that holds a response. It asks
// the provider at most once per session; failures leave the conversation
// untitled and are reported as warnings.
func (s *Session) maybeTitle(ctx context.Context) {
	if s.titleRequested || s.Conv.HasTitle() {
		return
	}
	if _, ok := s.Conv.LastByRole(model.RoleAssistant); !ok {
		return
	}
	s.titleRequested = true

	ctx, cancel := context.WithTimeout(ctx, titleTimeout)
	defer cancel()

	title, err := s.Provider.SummarizeTitle(ctx, s.Conv.FirstUserMessage())
	if err != nil {
		s.warnf("could not generate a title: %v", err)
		return
	}
	if err := s.AssignTitle(title); err != nil {
		s.warnf("could not set title %q: %v", title, err)
		return
	}
	log.Debug().Str("title", s.Conv.Title).Str("path", s.Conv.Path).Msg("conversation titled")
}

// AssignTitle renames the conversation. When another conversation already
// has the title, numbered variants ("title (2)", ...) are tried.
func (s *Session) AssignTitle(title string) error {
	err := s.Store.AssignTitle(s.Conv, title)
	for n := 2; errors.Is(err, storage.ErrTitleCollision) && n < 2+maxTitleAttempts; n++ {
		err = s.Store.AssignTitle(s.Conv, fmt.Sprintf("%s (%d)", title, n))
	}
	return err
}

// LastResponse returns the most recent assistant turn.
func (s *Session) LastResponse() (string, bool) {
	t, ok := s.Conv.LastByRole(model.RoleAssistant)
	return t.Content, ok
}

// Finish removes a conversation that never received a turn when removeEmpty
// is set. It reports whether the document was removed.
func (s *Session) Finish(removeEmpty bool) bool {
	if !removeEmpty {
		return false
	}
	removed, err := s.Store.RemoveIfEmpty(s.Conv)
	if err != nil {
		log.Warn().Err(err).Str("path", s.Conv.Path).Msg("could not remove empty conversation")
	}
	return removed
}

func (s *Session) warnf(format string, args ...any) {
	log.Warn().Msgf(format, args...)
	if s.Err != nil {
		fmt.Fprintln(s.Err, WarningStyle.Render("[Warning] "+fmt.Sprintf(format, args...)))
	}
}
