// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/SamuelBurac/rye/internal/model"
	"github.com/SamuelBurac/rye/internal/storage"
	"github.com/SamuelBurac/rye/internal/util"
)

// maxCandidateRunes bounds a name in the candidate list.
const maxCandidateRunes = 60

// promptFunc reads one line of input after showing prompt.
type promptFunc func(prompt string) (string, error)

// errSelectionCancelled is returned when the user declines to pick a
// candidate.
var errSelectionCancelled = errors.New("no conversation selected")

// openConversation returns the conversation to chat in. An empty ref starts a
// new one. A ref that matches nothing starts a new one after saying so. A ref
// that matches several conversations is resolved with prompt, or is an error
// when prompt is nil.
func openConversation(store *storage.ConversationStore, ref string, prompt promptFunc, w io.Writer) (*model.Conversation, error) {
	if strings.TrimSpace(ref) == "" {
		return store.Create()
	}

	conv, err := store.Load(ref)
	if err == nil {
		return conv, nil
	}

	if errors.Is(err, storage.ErrConversationNotFound) {
		fmt.Fprintln(w, WarningStyle.Render(fmt.Sprintf("No conversation matching %q; starting a new one.", ref)))
		return store.Create()
	}

	var ambiguous *storage.AmbiguousError
	if errors.As(err, &ambiguous) {
		if prompt == nil {
			return nil, err
		}
		picked, err := pickCandidate(ambiguous, prompt, w)
		if err != nil {
			return nil, err
		}
		return store.LoadPath(picked.Path)
	}

	return nil, err
}

// pickCandidate lists the candidates and asks for a number until a valid one
// is entered. An empty answer cancels.
func pickCandidate(amb *storage.AmbiguousError, prompt promptFunc, w io.Writer) (model.Summary, error) {
	fmt.Fprintf(w, "%q matches %d conversations:\n", amb.Ref, len(amb.Candidates))
	writeCandidates(w, amb.Candidates, time.Now())

	for {
		answer, err := prompt(fmt.Sprintf("Select [1-%d]: ", len(amb.Candidates)))
		if err != nil {
			return model.Summary{}, errSelectionCancelled
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return model.Summary{}, errSelectionCancelled
		}

		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(amb.Candidates) {
			fmt.Fprintf(w, "Please enter a number between 1 and %d.\n", len(amb.Candidates))
			continue
		}
		return amb.Candidates[n-1], nil
	}
}

func writeCandidates(w io.Writer, candidates []model.Summary, now time.Time) {
	for i, c := range candidates {
		fmt.Fprintf(w, "  %2d) %s %s\n", i+1, util.TruncateRunes(c.DisplayTitle(), maxCandidateRunes),
			DimStyle.Render("("+humanize.RelTime(c.LastModified, now, "ago", "from now")+")"))
	}
}
