package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/propose"
)

func newProposeCmd(c *cli) *cobra.Command {
	var flags struct {
		persona string
		count   int
	}

	cmd := &cobra.Command{
		Use:   "propose <keyword>",
		Short: "Suggest article themes around a keyword",
		Long: "Searches articles ranking for the keyword and the knowledge base, then asks\n" +
			"the generator for themes. Start one with 'noteflow run <seo keywords>'.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.proposer()
			if err != nil {
				return err
			}
			res, err := svc.Propose(a.context(cmd.Context()), propose.Input{
				Keyword: strings.Join(args, " "),
				Persona: flags.persona,
				Count:   flags.count,
			})
			if err != nil {
				return nferrors.ForCLI(err)
			}
			printProposals(cmd.OutOrStdout(), res)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.persona, "persona", "", "Target reader persona")
	f.IntVarP(&flags.count, "count", "n", propose.DefaultCount,
		fmt.Sprintf("Number of themes (%d-%d)", propose.MinCount, propose.MaxCount))
	return cmd
}

func printProposals(w io.Writer, res *propose.Result) {
	if len(res.Themes) == 0 {
		fmt.Fprintf(w, "No themes proposed for %q.\n", res.Keyword)
		return
	}
	fmt.Fprintf(w, "Themes for %q:\n", res.Keyword)
	for i, th := range res.Themes {
		fmt.Fprintf(w, "\n%d. %s [%s %.2f]\n", i+1, th.Title, th.SourceType, th.Relevance)
		if len(th.SEOKeywords) > 0 {
			fmt.Fprintf(w, "   keywords: %s\n", strings.Join(th.SEOKeywords, ", "))
		}
		if th.Persona != "" {
			fmt.Fprintf(w, "   reader: %s\n", th.Persona)
		}
		if th.Summary != "" {
			fmt.Fprintf(w, "   %s\n", th.Summary)
		}
		for _, in := range th.CompetitorInsights {
			fmt.Fprintf(w, "   - %s\n", in)
		}
	}
	if len(res.Trends) > 0 {
		fmt.Fprintf(w, "\nRanking now: %s\n", strings.Join(res.Trends, " / "))
	}
}
