package transcript

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCase = cases.Title(language.English)

// ExportMarkdown writes a transcript as a markdown document.
func ExportMarkdown(w io.Writer, t *Transcript) error {
	fmt.Fprintf(w, "# Transcript: %s\n\n", t.RunID)

	fmt.Fprintf(w, "## Metadata\n\n")
	fmt.Fprintf(w, "| Field | Value |\n")
	fmt.Fprintf(w, "|-------|-------|\n")
	fmt.Fprintf(w, "| Article | %s |\n", t.Metadata.ArticleID)
	if t.Metadata.Phase != "" {
		fmt.Fprintf(w, "| Phase | %s |\n", t.Metadata.Phase)
	}
	fmt.Fprintf(w, "| Status | %s |\n", t.Metadata.Status)
	fmt.Fprintf(w, "| Started | %s |\n", t.Metadata.StartedAt.Format(time.RFC3339))
	if !t.Metadata.EndedAt.IsZero() {
		fmt.Fprintf(w, "| Duration | %s |\n", t.Duration().Round(time.Second))
	}
	fmt.Fprintf(w, "| Tokens In | %d |\n", t.Metadata.TotalTokensIn)
	fmt.Fprintf(w, "| Tokens Out | %d |\n", t.Metadata.TotalTokensOut)
	if t.Metadata.Error != "" {
		fmt.Fprintf(w, "| Error | %s |\n", t.Metadata.Error)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "## Conversation\n\n")

	for _, turn := range t.Turns {
		heading := titleCase.String(turn.Role)
		if turn.Task != "" {
			heading += " / " + turn.Task
		}
		fmt.Fprintf(w, "### %s (Turn %d)\n\n", heading, turn.ID)

		if turn.TokensIn > 0 {
			fmt.Fprintf(w, "*%d tokens in*\n\n", turn.TokensIn)
		}
		if turn.TokensOut > 0 {
			fmt.Fprintf(w, "*%d tokens out*\n\n", turn.TokensOut)
		}

		fmt.Fprintf(w, "%s\n\n", turn.Content)
	}

	return nil
}

// FormatMetaList writes one line per run.
func FormatMetaList(w io.Writer, metas []Meta) error {
	if len(metas) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}

	fmt.Fprintf(w, "%-36s %-14s %-10s %-17s %12s %6s\n",
		"RUN ID", "PHASE", "STATUS", "STARTED", "TOKENS", "TURNS")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, m := range metas {
		fmt.Fprintf(w, "%-36s %-14s %-10s %-17s %12s %6d\n",
			truncate(m.RunID, 36),
			m.Phase,
			m.Status,
			m.StartedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d/%d", m.TotalTokensIn, m.TotalTokensOut),
			m.TurnCount)
	}

	fmt.Fprintf(w, "\nTotal: %d runs\n", len(metas))
	return nil
}

// FormatStats writes aggregated statistics.
func FormatStats(w io.Writer, stats *Statistics) error {
	fmt.Fprintln(w, "Run Statistics:")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "Total Runs:      %d\n", stats.TotalRuns)
	fmt.Fprintf(w, "  Completed:     %d\n", stats.CompletedRuns)
	fmt.Fprintf(w, "  Failed:        %d\n", stats.FailedRuns)
	fmt.Fprintf(w, "  Canceled:      %d\n", stats.CanceledRuns)
	fmt.Fprintf(w, "  Active:        %d\n", stats.ActiveRuns)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total Tokens:    %d in / %d out\n", stats.TotalTokensIn, stats.TotalTokensOut)
	fmt.Fprintf(w, "Avg Tokens/Run:  %d in / %d out\n", stats.AvgTokensIn, stats.AvgTokensOut)
	return nil
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 3 {
		return string(r[:limit])
	}
	return string(r[:limit-3]) + "..."
}
