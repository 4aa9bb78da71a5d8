package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLearnersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "learners",
		Short: "List the learners usable in ensemble definitions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, n := range names(learners) {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}

			return nil
		},
	}
}
