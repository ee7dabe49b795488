package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/noteflow/article"
	nferrors "github.com/randalmurphal/noteflow/errors"
)

func newEssenceCmd(c *cli) *cobra.Command {
	var flags struct {
		category string
		content  string
		tags     []string
	}

	cmd := &cobra.Command{
		Use:   "essence <id>",
		Short: "Add an experience, opinion or insight to an article waiting for input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			category, err := article.ParseCategory(flags.category)
			if err != nil {
				return fail(nferrors.Validation("category", "%v", err), id)
			}
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.bookkeeping().SubmitEssences(a.context(cmd.Context()), id, article.Essence{
				Category: category,
				Content:  flags.content,
				Tags:     flags.tags,
			})
			if err != nil {
				return fail(err, id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s essence to %s (%d total)\n", category, id, len(st.Essences))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.category, "category", "", "failure, opinion, tech or hook (required)")
	f.StringVar(&flags.content, "content", "", "The essence text (required)")
	f.StringSliceVar(&flags.tags, "tag", nil, "Tag (repeatable)")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}
