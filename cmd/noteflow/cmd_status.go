package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/noteflow/article"
	"github.com/randalmurphal/noteflow/scoring"
	"github.com/randalmurphal/noteflow/store"
)

var (
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	headerStyle    = lipgloss.NewStyle().Bold(true)
	phaseStyleDone = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	phaseStyleWait = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	phaseStyleBusy = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
)

func phaseStyle(p article.Phase) lipgloss.Style {
	switch p {
	case article.PhaseCompleted:
		return phaseStyleDone
	case article.PhaseWaitingForInput:
		return phaseStyleWait
	default:
		return phaseStyleBusy
	}
}

func newStatusCmd(c *cli) *cobra.Command {
	var flags struct {
		phase string
		limit int
	}

	cmd := &cobra.Command{
		Use:   "status [id]",
		Short: "Show one article, or list articles",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				st, err := a.bookkeeping().Status(cmd.Context(), args[0])
				if err != nil {
					return fail(err, args[0])
				}
				renderArticle(out, st)
				return nil
			}

			filter := store.Filter{Limit: flags.limit}
			if flags.phase != "" {
				p, err := article.ParsePhase(flags.phase)
				if err != nil {
					return fail(err, "")
				}
				filter.Phase = p
			}
			list, err := a.store.List(cmd.Context(), filter)
			if err != nil {
				return fail(err, "")
			}
			renderList(out, list)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.phase, "phase", "", "Only list articles in this phase")
	f.IntVar(&flags.limit, "limit", 20, "Maximum articles to list")
	return cmd
}

func renderList(w io.Writer, list []*article.State) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No articles. Start one with 'noteflow run <keywords>'.")
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-18s %-16s %-6s %s", "ID", "PHASE", "SCORE", "KEYWORDS")))
	for _, st := range list {
		score := "-"
		if st.ReviewMeaningful() {
			score = fmt.Sprintf("%d", st.ReviewScore)
		}
		phase := phaseStyle(st.Phase).Render(fmt.Sprintf("%-16s", st.Phase))
		fmt.Fprintf(w, "%-18s %s %-6s %s\n", st.ID, phase, score, st.SEOKeywords)
	}
}

func renderArticle(w io.Writer, st *article.State) {
	row := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-10s", label+":")), value)
	}

	row("Article", st.ID)
	row("Phase", phaseStyle(st.Phase).Render(string(st.Phase)))
	row("Keywords", st.SEOKeywords)
	if st.Persona != "" {
		row("Persona", st.Persona)
	}
	row("Essences", fmt.Sprintf("%d", len(st.Essences)))
	row("Retries", fmt.Sprintf("%d/%d", st.RetryCount, article.MaxRetries))
	row("Updated", st.UpdatedAt.Local().Format("2006-01-02 15:04"))

	if st.Research != nil {
		row("Research", fmt.Sprintf("%d competitors, %d references, outline: %s",
			len(st.Research.Competitors), len(st.Research.InternalReferences),
			strings.Join(st.Research.SuggestedOutline, " / ")))
	}

	if st.Draft != nil {
		row("Title", st.Draft.Title())
		q := scoring.QuickCheck(st.Draft.ContentMD)
		check := okStyle.Render("ok")
		if !q.QuickPass {
			check = warnStyle.Render(strings.Join(q.Issues, "; "))
		}
		row("Draft", fmt.Sprintf("pass %d, %d chars, %d headings, %d min read", st.Draft.Pass, q.Length, q.Headings, st.Draft.ReadMinutes))
		row("Check", check)
	}

	if st.ReviewMeaningful() {
		score := fmt.Sprintf("%d/100 (%s)", st.ReviewScore, st.Breakdown)
		if st.Passed() {
			score = okStyle.Render(score)
		} else {
			score = warnStyle.Render(score)
		}
		row("Score", score)
	}
	if st.IsUploaded {
		row("Published", st.PublishedURL)
	}
	if st.ReviewFeedback != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", headerStyle.Render("Feedback"), st.ReviewFeedback)
	}
}
