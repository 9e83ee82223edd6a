// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/SamuelBurac/rye/internal/model"
	"github.com/SamuelBurac/rye/internal/render"
	"github.com/SamuelBurac/rye/internal/storage"
)

func newShowCommand(g *globalOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print a stored conversation",
		Long:  "Print a stored conversation. ID may be the full name or any unique fragment of it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(g, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			conv, err := a.store.Load(args[0])
			if err != nil {
				var amb *storage.AmbiguousError
				if errors.As(err, &amb) {
					fmt.Fprintf(cmd.ErrOrStderr(), "%q matches several conversations:\n", amb.Ref)
					writeSummaries(cmd.ErrOrStderr(), amb.Candidates, time.Now())
				}
				return err
			}

			out := cmd.OutOrStdout()
			if raw {
				data, err := os.ReadFile(conv.Path)
				if err != nil {
					return errors.Wrapf(err, "read %s", conv.Path)
				}
				_, err = out.Write(data)
				return err
			}
			return showConversation(out, conv, newSink(a.cfg, out, IsStdoutTTY()))
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the stored markdown document unchanged")
	return cmd
}

// showConversation prints the title and every turn, each turn's content
// going through the same block renderer as a live response.
func showConversation(w io.Writer, conv *model.Conversation, sink render.Sink) error {
	fmt.Fprintln(w, WelcomeStyle.Render(conv.DisplayTitle()))
	fmt.Fprintln(w)

	for _, t := range conv.Turns {
		style := UserHeadingStyle
		if t.Role == model.RoleAssistant {
			style = AssistantHeadingStyle
		}
		fmt.Fprintln(w, style.Render(t.Role.DisplayName()))

		r := render.NewBlockRenderer(sink)
		r.Write(t.Content)
		r.Write("\n")
		r.Close()
		fmt.Fprintln(w)
	}

	if conv.IsEmpty() {
		fmt.Fprintln(w, DimStyle.Render("(no messages)"))
	}
	return nil
}
