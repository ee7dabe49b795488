package main

import (
	"github.com/spf13/cobra"
)

func newResumeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "resume <id>",
		Aliases: []string{"confirm"},
		Short:   "Continue an article from its saved phase to completion",
		Long: "Resumes from the last saved phase using only what was saved. An article\n" +
			"waiting for input is taken as confirmed. A completed article is left as is.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			engine, err := a.engine(false)
			if err != nil {
				return err
			}
			st, err := engine.Confirm(a.context(cmd.Context()), id)
			if st != nil {
				printOutcome(cmd.OutOrStdout(), st)
			}
			return fail(err, id)
		},
	}
}
