package publish

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/randalmurphal/noteflow/artifact"
	"github.com/randalmurphal/noteflow/markdown"
)

// PreviewName is the artifact DryRun writes.
const PreviewName = "publish-preview.html"

// DryRun renders the article to HTML and stores it as an artifact instead
// of publishing it.
type DryRun struct {
	artifacts *artifact.Manager
	logger    *slog.Logger
}

// NewDryRun creates a dry-run publisher. artifacts may be nil.
func NewDryRun(artifacts *artifact.Manager, logger *slog.Logger) *DryRun {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRun{artifacts: artifacts, logger: logger.With("component", "publish", "mode", "dry-run")}
}

// Publish implements Publisher.
func (d *DryRun) Publish(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return failure(err, "")
	}
	body, err := markdown.ToHTML(req.ContentMD)
	if err != nil {
		return failure(fmt.Errorf("render markdown: %w", err), "")
	}

	res := &Result{Success: true, DryRun: true}
	if d.artifacts != nil {
		page := fmt.Sprintf("<!doctype html>\n<html><head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n<h1>%s</h1>\n%s</body></html>\n",
			html.EscapeString(req.Title), html.EscapeString(req.Title), body)
		if err := d.artifacts.Save(req.ArticleID, PreviewName, []byte(page)); err != nil {
			return failure(fmt.Errorf("save preview: %w", err), "")
		}
		res.PreviewRef = PreviewName
	}

	d.logger.Info("dry run", "article_id", req.ArticleID, "title", req.Title, "html_bytes", len(body))
	return res, nil
}
