package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/randalmurphal/noteflow/artifact"
	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/markdown"
)

// DefaultTimeout bounds one publish attempt.
const DefaultTimeout = 2 * time.Minute

// Selectors locate the editor's controls. All are CSS selectors.
type Selectors struct {
	Title   string
	Body    string
	Publish string
	// Done appears once the platform accepted the article. Empty skips
	// the wait.
	Done string
}

// DefaultSelectors match a plain contenteditable editor.
func DefaultSelectors() Selectors {
	return Selectors{
		Title:   `textarea[placeholder], input[name="title"]`,
		Body:    `[contenteditable="true"]`,
		Publish: `button[type="submit"], [data-action="publish"]`,
	}
}

// runner executes chromedp actions against a browser context.
type runner func(ctx context.Context, actions ...chromedp.Action) error

// Browser publishes through a Chrome instance driven by chromedp.
type Browser struct {
	editorURL   string
	headless    bool
	userDataDir string
	timeout     time.Duration
	selectors   Selectors
	artifacts   *artifact.Manager
	logger      *slog.Logger
	now         func() time.Time
	run         runner
}

// BrowserOption configures a Browser.
type BrowserOption func(*Browser)

// WithHeadless toggles headless mode. Default true.
func WithHeadless(on bool) BrowserOption {
	return func(b *Browser) { b.headless = on }
}

// WithUserDataDir reuses a Chrome profile, which keeps the editor login.
func WithUserDataDir(dir string) BrowserOption {
	return func(b *Browser) { b.userDataDir = dir }
}

// WithTimeout bounds one attempt.
func WithTimeout(d time.Duration) BrowserOption {
	return func(b *Browser) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithSelectors overrides the editor selectors.
func WithSelectors(s Selectors) BrowserOption {
	return func(b *Browser) { b.selectors = s }
}

// WithArtifacts stores screenshots as article artifacts.
func WithArtifacts(m *artifact.Manager) BrowserOption {
	return func(b *Browser) { b.artifacts = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) BrowserOption {
	return func(b *Browser) { b.logger = l }
}

// NewBrowser creates a publisher for the editor at editorURL.
func NewBrowser(editorURL string, opts ...BrowserOption) (*Browser, error) {
	if editorURL == "" {
		return nil, nferrors.Validation("publish_editor_url", "required")
	}
	b := &Browser{
		editorURL: editorURL,
		headless:  true,
		timeout:   DefaultTimeout,
		selectors: DefaultSelectors(),
		now:       time.Now,
		run:       chromedp.Run,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.logger = b.logger.With("component", "publish")
	return b, nil
}

// Publish implements Publisher. It opens the editor, fills in the title and
// the rendered body, submits, and captures a screenshot either way.
func (b *Browser) Publish(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return failure(err, "")
	}
	body, err := markdown.ToHTML(req.ContentMD)
	if err != nil {
		return failure(fmt.Errorf("render markdown: %w", err), "")
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, b.allocatorOptions()...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	log := b.logger.With("article_id", req.ArticleID)
	log.Info("publishing", "editor", b.editorURL, "headless", b.headless)

	var (
		filled  bool
		current string
		shot    []byte
	)
	actions := []chromedp.Action{
		chromedp.Navigate(b.editorURL),
		chromedp.WaitVisible(b.selectors.Title, chromedp.ByQuery),
		chromedp.SendKeys(b.selectors.Title, req.Title, chromedp.ByQuery),
		chromedp.WaitVisible(b.selectors.Body, chromedp.ByQuery),
		chromedp.Evaluate(fillScript(b.selectors.Body, body), &filled),
		chromedp.ActionFunc(func(context.Context) error {
			if !filled {
				return fmt.Errorf("body editor %q not found", b.selectors.Body)
			}
			return nil
		}),
		chromedp.Click(b.selectors.Publish, chromedp.ByQuery),
	}
	if b.selectors.Done != "" {
		actions = append(actions, chromedp.WaitVisible(b.selectors.Done, chromedp.ByQuery))
	}
	actions = append(actions,
		chromedp.Location(&current),
		chromedp.FullScreenshot(&shot, 90),
	)

	if err := b.run(browserCtx, actions...); err != nil {
		ref := b.failureScreenshot(browserCtx, req.ArticleID)
		log.Error("publish failed", "error", err, "screenshot", ref)
		return failure(nferrors.Lookup("publish", err), ref)
	}

	ref := b.saveScreenshot(req.ArticleID, shot)
	log.Info("published", "url", current, "screenshot", ref)
	return &Result{Success: true, URL: current, ScreenshotRef: ref}, nil
}

func (b *Browser) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if b.userDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(b.userDataDir))
	}
	return opts
}

// failureScreenshot captures the page after a failed attempt. Best effort.
func (b *Browser) failureScreenshot(browserCtx context.Context, articleID string) string {
	if b.artifacts == nil || browserCtx.Err() != nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(browserCtx, 10*time.Second)
	defer cancel()
	var shot []byte
	if err := b.run(ctx, chromedp.FullScreenshot(&shot, 90)); err != nil {
		return ""
	}
	return b.saveScreenshot(articleID, shot)
}

func (b *Browser) saveScreenshot(articleID string, shot []byte) string {
	if b.artifacts == nil || len(shot) == 0 {
		return ""
	}
	name := artifact.ScreenshotName(b.now())
	if err := b.artifacts.Save(articleID, name, shot); err != nil {
		b.logger.Warn("failed to save screenshot", "article_id", articleID, "error", err)
		return ""
	}
	return name
}

// fillScript sets the editor body and fires an input event so the page
// notices the change.
func fillScript(selector, body string) string {
	sel, _ := json.Marshal(selector)
	content, _ := json.Marshal(body)
	return fmt.Sprintf(`(function() {
	const el = document.querySelector(%s);
	if (!el) { return false; }
	el.innerHTML = %s;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	return true;
})()`, sel, content)
}
