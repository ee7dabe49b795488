package publish

import (
	"context"
	"strings"

	nferrors "github.com/randalmurphal/noteflow/errors"
)

// Request is one article to publish.
type Request struct {
	ArticleID string
	Title     string
	ContentMD string
}

// Validate checks the request has something to publish.
func (r Request) Validate() error {
	if strings.TrimSpace(r.ArticleID) == "" {
		return nferrors.Validation("article_id", "required")
	}
	if strings.TrimSpace(r.Title) == "" {
		return nferrors.Validation("title", "required")
	}
	if strings.TrimSpace(r.ContentMD) == "" {
		return nferrors.Validation("content_md", "required")
	}
	return nil
}

// Result is the outcome of a publish attempt.
type Result struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	// ScreenshotRef is an artifact name under the article.
	ScreenshotRef string `json:"screenshotRef,omitempty"`
	URL           string `json:"url,omitempty"`
	// PreviewRef is the rendered HTML artifact of a dry run.
	PreviewRef string `json:"previewRef,omitempty"`
	// DryRun results never mark an article uploaded.
	DryRun bool `json:"dryRun,omitempty"`
}

// Publisher pushes a finished article to the publishing platform.
//
// A failed attempt returns a Result with Success false and the error that
// caused it; ScreenshotRef may still be set.
type Publisher interface {
	Publish(ctx context.Context, req Request) (*Result, error)
}

// failure builds the failed result for err.
func failure(err error, screenshot string) (*Result, error) {
	return &Result{
		Success:       false,
		ErrorMessage:  err.Error(),
		ScreenshotRef: screenshot,
	}, err
}
