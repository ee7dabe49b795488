package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/noteflow/article"
	nferrors "github.com/randalmurphal/noteflow/errors"
)

func newRunCmd(c *cli) *cobra.Command {
	var flags struct {
		id          string
		persona     string
		title       string
		autoConfirm bool
	}

	cmd := &cobra.Command{
		Use:   "run <keywords>",
		Short: "Research keywords and advance an article",
		Long: "Creates the article (or continues it when --id names an existing one) and runs\n" +
			"research. Without --auto-confirm the run stops once research is done so the\n" +
			"author can add essences with 'noteflow essence', then 'noteflow resume'.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keywords := strings.TrimSpace(strings.Join(args, " "))
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := a.context(cmd.Context())

			id := flags.id
			if id == "" {
				id = article.NewID()
			}
			if flags.persona != "" || flags.title != "" {
				if err := seedArticle(cmd, a, id, keywords, flags.persona, flags.title); err != nil {
					return fail(err, id)
				}
			}

			engine, err := a.engine(flags.autoConfirm)
			if err != nil {
				return err
			}
			st, err := engine.Run(ctx, id, keywords)
			if st != nil {
				printOutcome(cmd.OutOrStdout(), st)
			}
			return fail(err, id)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.id, "id", "", "Article id (default: new id)")
	f.StringVar(&flags.persona, "persona", "", "Target reader persona")
	f.StringVar(&flags.title, "title", "", "Working title")
	f.BoolVar(&flags.autoConfirm, "auto-confirm", false, "Run through to completion without waiting for essences")
	return cmd
}

// seedArticle stores a new article with its persona and title so Run picks
// them up. Existing articles are left alone.
func seedArticle(cmd *cobra.Command, a *app, id, keywords, persona, title string) error {
	_, err := a.store.Load(cmd.Context(), id)
	if err == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "article %s exists, --persona and --title ignored\n", id)
		return nil
	}
	if !nferrors.IsNotFound(err) {
		return err
	}
	st := article.New(keywords).WithID(id).WithPersona(persona).WithTitle(title)
	return a.store.Save(cmd.Context(), st)
}

// printOutcome reports where an article rests after a run.
func printOutcome(w io.Writer, st *article.State) {
	fmt.Fprintln(w, st.Summary())
	switch st.Phase {
	case article.PhaseWaitingForInput:
		fmt.Fprintf(w, "\nResearch done. Add your experience, then continue:\n")
		fmt.Fprintf(w, "  noteflow essence %s --category=failure --content=\"...\"\n", st.ID)
		fmt.Fprintf(w, "  noteflow resume %s\n", st.ID)
	case article.PhaseCompleted:
		if st.ForcedCompletion() {
			fmt.Fprintf(w, "\nCompleted below the pass threshold. Latest feedback:\n\n%s\n", st.ReviewFeedback)
		}
		if st.Draft != nil {
			fmt.Fprintf(w, "\nTitle: %s\n", st.Draft.Title())
			printLinks(w, st.Draft.InternalLinks)
		}
	}
}

func printLinks(w io.Writer, links []article.InternalLink) {
	if len(links) == 0 {
		return
	}
	fmt.Fprintln(w, "\nRelated articles to link:")
	for _, l := range links {
		target := l.URL
		if target == "" {
			target = l.ArticleID
		}
		fmt.Fprintf(w, "  - %s (%s, %.2f)\n", l.Title, target, l.Score)
	}
}
