package main

import (
	"github.com/spf13/cobra"

	"github.com/randalmurphal/noteflow/transcript"
)

func newTranscriptsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transcripts",
		Aliases: []string{"tr"},
		Short:   "Inspect recorded generator exchanges",
	}

	var filter struct {
		article string
		status  string
		limit   int
	}
	listFilter := func() transcript.ListFilter {
		return transcript.ListFilter{
			ArticleID: filter.article,
			Status:    transcript.RunStatus(filter.status),
			Limit:     filter.limit,
		}
	}
	open := func() (*transcript.FileStore, error) {
		return transcript.NewFileStore(transcript.StoreConfig{BaseDir: c.settings.TranscriptDir})
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs, err := open()
			if err != nil {
				return err
			}
			metas, err := fs.List(listFilter())
			if err != nil {
				return err
			}
			return transcript.FormatMetaList(cmd.OutOrStdout(), metas)
		},
	}

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a run as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := open()
			if err != nil {
				return err
			}
			t, err := fs.Load(args[0])
			if err != nil {
				return err
			}
			return transcript.ExportMarkdown(cmd.OutOrStdout(), t)
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Summarize runs and token usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs, err := open()
			if err != nil {
				return err
			}
			s, err := transcript.Stats(fs, listFilter())
			if err != nil {
				return err
			}
			return transcript.FormatStats(cmd.OutOrStdout(), s)
		},
	}

	for _, sub := range []*cobra.Command{list, stats} {
		f := sub.Flags()
		f.StringVar(&filter.article, "article", "", "Only runs of this article")
		f.StringVar(&filter.status, "status", "", "running, completed, failed or canceled")
		f.IntVar(&filter.limit, "limit", 0, "Maximum runs")
	}

	cmd.AddCommand(list, show, stats)
	return cmd
}
