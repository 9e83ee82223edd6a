// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newDeleteCommand(g *globalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a stored conversation",
		Long:    "Delete a stored conversation. ID may be the full name or any unique fragment of it.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(g, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			conv, err := a.store.Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes {
				ok, err := confirm(cmd.InOrStdin(), out,
					fmt.Sprintf("Delete %q (%d turns)? [y/N]: ", conv.DisplayTitle(), conv.TurnCount()))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			if err := a.store.Delete(conv.ID); err != nil {
				return err
			}
			fmt.Fprintln(out, SuccessStyle.Render("Deleted "+conv.Path))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// confirm asks a yes/no question on in. Anything but y or yes is no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprint(out, question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, errors.Wrap(err, "read answer")
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
