package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/noteflow/artifact"
	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/transcript"
)

func newPruneCmd(c *cli) *cobra.Command {
	var flags struct {
		dryRun       bool
		archives     bool
		listArchives bool
		restore      string
	}

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Archive and delete artifacts of old completed articles",
		Long: "Applies the artifact retention policy. Completed articles are archived after\n" +
			"a week and deleted after artifact_retention. Articles in progress are never\n" +
			"touched. The article database is not changed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			policy := artifact.DefaultRetentionConfig()
			policy.Retention = c.settings.ArtifactRetention
			if policy.ArchiveAfter > policy.Retention {
				policy.ArchiveAfter = policy.Retention
			}
			lm := artifact.NewLifecycleManager(c.settings.ArtifactDir, policy)
			out := cmd.OutOrStdout()

			switch {
			case flags.restore != "":
				if err := lm.RestoreArchive(flags.restore); err != nil {
					return fail(nferrors.Validation("restore", "%v", err), flags.restore)
				}
				fmt.Fprintf(out, "Restored artifacts of %s\n", flags.restore)
				return nil
			case flags.listArchives:
				ids, err := lm.ListArchives()
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					fmt.Fprintln(out, "No archived articles.")
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			res, err := lm.Cleanup(flags.dryRun)
			if err != nil {
				return err
			}
			verb := ""
			if flags.dryRun {
				verb = "would be "
			}
			fmt.Fprintf(out, "Archived %s%d, deleted %s%d, kept %d, freed %d bytes\n",
				verb, len(res.Archived), verb, len(res.Deleted), len(res.Kept), res.SpaceSaved)
			for _, e := range res.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", e)
			}

			if !flags.dryRun && len(res.Deleted) > 0 {
				runs, err := transcript.NewFileStore(transcript.StoreConfig{BaseDir: c.settings.TranscriptDir})
				if err != nil {
					return err
				}
				removed := 0
				for _, id := range res.Deleted {
					n, err := runs.DeleteArticle(id)
					removed += n
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "  transcripts of %s: %v\n", id, err)
					}
				}
				fmt.Fprintf(out, "Transcripts deleted: %d\n", removed)
			}

			if flags.archives {
				ar, err := lm.CleanupArchives(flags.dryRun)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Old archives %sdeleted: %d\n", verb, len(ar.Deleted))
			}

			usage, err := lm.DiskUsage()
			if err == nil {
				fmt.Fprintf(out, "Artifacts: %d articles (%d bytes), %d archives (%d bytes)\n",
					usage.ArticleCount, usage.ActiveSize, usage.ArchiveCount, usage.ArchiveSize)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&flags.dryRun, "dry-run", false, "Report without changing anything")
	f.BoolVar(&flags.archives, "archives", false, "Also delete expired archives")
	f.BoolVar(&flags.listArchives, "list-archives", false, "List archived article ids and exit")
	f.StringVar(&flags.restore, "restore", "", "Restore an archived article's artifacts and exit")
	cmd.MarkFlagsMutuallyExclusive("list-archives", "restore")
	return cmd
}
