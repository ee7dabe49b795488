package notify

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	nfhttp "github.com/randalmurphal/noteflow/http"
)

// SlackNotifier sends notifications to a Slack incoming webhook.
type SlackNotifier struct {
	WebhookURL string
	Channel    string
	Username   string

	client *nfhttp.Client
}

// SlackOption configures SlackNotifier.
type SlackOption func(*SlackNotifier)

// WithSlackChannel sets the channel to post to.
func WithSlackChannel(channel string) SlackOption {
	return func(n *SlackNotifier) { n.Channel = channel }
}

// WithSlackUsername sets the bot username.
func WithSlackUsername(username string) SlackOption {
	return func(n *SlackNotifier) { n.Username = username }
}

// WithSlackHTTPClient overrides the underlying *http.Client.
func WithSlackHTTPClient(c *http.Client) SlackOption {
	return func(n *SlackNotifier) {
		n.client = nfhttp.NewClient(nfhttp.ClientConfig{Client: c, BaseURL: n.WebhookURL, ServiceName: "slack"})
	}
}

// NewSlackNotifier creates a Slack webhook notifier.
func NewSlackNotifier(webhookURL string, opts ...SlackOption) *SlackNotifier {
	n := &SlackNotifier{
		WebhookURL: webhookURL,
		Username:   "noteflow",
	}
	n.client = nfhttp.NewClient(nfhttp.ClientConfig{
		BaseURL:     webhookURL,
		ServiceName: "slack",
		Timeout:     10 * time.Second,
	})
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, event Event) error {
	title := fmt.Sprintf("%s %s", emojiForEvent(event.Type), event.Type)
	if event.From != "" && event.To != "" {
		title = fmt.Sprintf("%s %s → %s", emojiForEvent(event.Type), event.From, event.To)
	}

	payload := slackPayload{
		Username: n.Username,
		Channel:  n.Channel,
		Attachments: []slackAttachment{
			{
				Color:     colorForSeverity(event.Severity),
				Title:     title,
				Text:      event.Message,
				Footer:    "Article: " + event.ArticleID,
				Timestamp: event.Timestamp.Unix(),
				Fields:    fieldsFromMetadata(event.Metadata),
			},
		},
	}

	if err := n.client.Post(ctx, "", payload, nil); err != nil {
		return fmt.Errorf("send slack message: %w", err)
	}
	return nil
}

func emojiForEvent(t EventType) string {
	switch t {
	case EventRunStarted:
		return ":rocket:"
	case EventRunCompleted:
		return ":white_check_mark:"
	case EventRunFailed, EventPublishFailed:
		return ":x:"
	case EventInputNeeded:
		return ":pencil:"
	case EventReviewForced:
		return ":warning:"
	case EventPublished:
		return ":link:"
	default:
		return ":arrow_right:"
	}
}

func colorForSeverity(severity string) string {
	switch severity {
	case SeverityError:
		return "danger"
	case SeverityWarning:
		return "warning"
	default:
		return "good"
	}
}

func fieldsFromMetadata(metadata map[string]any) []slackField {
	if len(metadata) == 0 {
		return nil
	}

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]slackField, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, slackField{
			Title: k,
			Value: fmt.Sprintf("%v", metadata[k]),
			Short: true,
		})
	}
	return fields
}

// Slack webhook payload types
type slackPayload struct {
	Username    string            `json:"username,omitempty"`
	Channel     string            `json:"channel,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color     string       `json:"color,omitempty"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Footer    string       `json:"footer,omitempty"`
	Timestamp int64        `json:"ts,omitempty"`
	Fields    []slackField `json:"fields,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}
