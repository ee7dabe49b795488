package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/noteflow/article"
	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/notify"
	"github.com/randalmurphal/noteflow/publish"
)

func newPublishCmd(c *cli) *cobra.Command {
	var flags struct {
		dryRun bool
		title  string
	}

	cmd := &cobra.Command{
		Use:   "publish <id>",
		Short: "Publish a completed article",
		Long: "Publishes the final draft through the platform editor. The article is marked\n" +
			"uploaded only when publishing succeeds. --dry-run renders an HTML preview\n" +
			"into the article's artifacts instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			a, err := c.open()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := a.context(cmd.Context())

			pub, err := a.publisherFor(flags.dryRun)
			if err != nil {
				return fail(err, id)
			}
			st, res, err := publishArticle(ctx, a, pub, id, flags.title)
			out := cmd.OutOrStdout()
			if res != nil {
				switch {
				case res.DryRun:
					fmt.Fprintf(out, "Dry run: preview saved as %s\n", res.PreviewRef)
				case res.Success:
					fmt.Fprintf(out, "Published %s: %s\n", id, res.URL)
				default:
					fmt.Fprintf(out, "Publish failed: %s\n", res.ErrorMessage)
				}
				if res.ScreenshotRef != "" {
					fmt.Fprintf(out, "Screenshot: %s\n", res.ScreenshotRef)
				}
			}
			if err == nil && st != nil && st.IsUploaded {
				fmt.Fprintln(out, st.Summary())
			}
			return fail(err, id)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&flags.dryRun, "dry-run", false, "Render a preview instead of publishing")
	f.StringVar(&flags.title, "title", "", "Title to publish (default: first title candidate)")
	return cmd
}

// publishArticle publishes a completed article and records the upload
// when it succeeds.
func publishArticle(ctx context.Context, a *app, pub publish.Publisher, id, title string) (*article.State, *publish.Result, error) {
	st, err := a.bookkeeping().Status(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if st.Phase != article.PhaseCompleted {
		return st, nil, nferrors.Validation("phase", "article %s is %s, only completed articles can be published", id, st.Phase)
	}
	if st.Draft == nil {
		return st, nil, nferrors.Validation("draft", "article %s has no draft", id)
	}
	if title == "" {
		title = st.Draft.Title()
	}

	res, err := pub.Publish(ctx, publish.Request{
		ArticleID: id,
		Title:     title,
		ContentMD: st.Draft.ContentMD,
	})
	if err != nil || res == nil || !res.Success {
		if err == nil {
			err = fmt.Errorf("publish reported failure without an error")
		}
		a.notify(ctx, notify.Event{
			Type:      notify.EventPublishFailed,
			ArticleID: id,
			Message:   err.Error(),
			Severity:  notify.SeverityError,
		})
		return st, res, err
	}
	if res.DryRun {
		return st, res, nil
	}

	next := st.Clone()
	if err := next.MarkUploaded(res.URL); err != nil {
		return st, res, err
	}
	if err := a.store.Save(ctx, next); err != nil {
		return st, res, nferrors.NewStageError(nferrors.KindPersistence, string(st.Phase), id, "mark uploaded", err)
	}
	a.notify(ctx, notify.Event{
		Type:      notify.EventPublished,
		ArticleID: id,
		Message:   fmt.Sprintf("published %q", title),
		Severity:  notify.SeverityInfo,
		Metadata:  map[string]any{"url": res.URL, "screenshot": res.ScreenshotRef},
	})
	return next, res, nil
}
