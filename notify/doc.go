// Package notify delivers workflow events: phase transitions, runs starting
// and finishing, input requests and publish outcomes.
//
// Implementations:
//   - SlackNotifier: Slack incoming webhooks
//   - WebhookNotifier: generic JSON webhooks, optionally JWT-signed
//   - LogNotifier: slog at severity-mapped levels
//   - MultiNotifier: fan-out to several notifiers
//   - NopNotifier: discards everything
//
// Example usage:
//
//	notifier := notify.NewMultiNotifier(
//	    notify.NewLogNotifier(logger),
//	    notify.NewWebhookNotifier(url, notify.WithSigningSecret(secret)),
//	)
//	err := notifier.Notify(ctx, notify.Event{
//	    Type:      notify.EventPhaseChanged,
//	    ArticleID: "art-V1StGXR8_Z5j",
//	    From:      "review",
//	    To:        "completed",
//	})
package notify
