// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/SamuelBurac/rye/internal/model"
	"github.com/SamuelBurac/rye/internal/util"
)

const (
	// listNameWidth is the widest name `rye list` prints before truncating.
	listNameWidth = 56
)

func newListCommand(g *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored conversations, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(g, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			summaries, err := a.store.List()
			if err != nil {
				return err
			}
			if limit > 0 && len(summaries) > limit {
				summaries = summaries[:limit]
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintf(out, "No conversations in %s\n", a.store.BaseDir)
				return nil
			}
			writeSummaries(out, summaries, time.Now())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most N conversations")
	return cmd
}

// writeSummaries prints one aligned row per conversation.
func writeSummaries(w io.Writer, summaries []model.Summary, now time.Time) {
	width := 4
	for _, s := range summaries {
		if n := util.StringWidth(s.DisplayTitle()); n > width {
			width = n
		}
	}
	if width > listNameWidth {
		width = listNameWidth
	}

	fmt.Fprintf(w, "%s  %s\n", InfoStyle.Render(util.PadRight("NAME", width)), InfoStyle.Render("MODIFIED"))
	for _, s := range summaries {
		name := util.PadRight(util.TruncateWidth(s.DisplayTitle(), width), width)
		fmt.Fprintf(w, "%s  %s\n", name, DimStyle.Render(humanize.RelTime(s.LastModified, now, "ago", "from now")))
	}
}
