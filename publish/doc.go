// Package publish pushes completed articles to the publishing platform.
//
// Browser drives the platform's web editor with chromedp: it opens the
// editor, types the title, injects the body rendered to HTML by goldmark,
// submits and screenshots the result into the article's artifacts.
// DryRun only renders a local HTML preview.
//
// Publishers never touch the article store. The caller marks an article
// uploaded, and only when the Result reports success.
package publish
