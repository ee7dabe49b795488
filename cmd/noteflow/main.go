// noteflow drafts, reviews and publishes articles from SEO keywords.
//
// Usage:
//
//	noteflow run "<keywords>" [--id=<id>] [--persona=<text>] [--auto-confirm]
//	noteflow essence <id> --category=<failure|opinion|tech|hook> --content=<text>
//	noteflow resume <id>
//	noteflow status [<id>]
//	noteflow publish <id> [--dry-run]
//	noteflow prune [--dry-run]
//	noteflow config <get|set|list>
//	noteflow transcripts <list|show|stats>
//	noteflow knowledge add --collection=<name> <file>...
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
