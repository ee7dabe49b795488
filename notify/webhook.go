package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/randalmurphal/noteflow/auth"
	nfhttp "github.com/randalmurphal/noteflow/http"
)

// SignatureHeader carries the payload signature on webhook deliveries.
const SignatureHeader = "X-Noteflow-Signature"

// WebhookNotifier posts events as JSON to an HTTP endpoint.
type WebhookNotifier struct {
	URL     string
	Headers map[string]string

	client *nfhttp.Client
	signer *auth.SignerConfig
}

// WebhookOption configures WebhookNotifier.
type WebhookOption func(*WebhookNotifier)

// WithSigningSecret signs every delivery with auth.SignPayload.
func WithSigningSecret(secret string) WebhookOption {
	return func(n *WebhookNotifier) {
		if secret != "" {
			n.signer = &auth.SignerConfig{Secret: []byte(secret)}
		}
	}
}

// WithWebhookHeaders adds static headers to every delivery.
func WithWebhookHeaders(headers map[string]string) WebhookOption {
	return func(n *WebhookNotifier) { n.Headers = headers }
}

// WithWebhookHTTPClient overrides the underlying *http.Client.
func WithWebhookHTTPClient(c *http.Client) WebhookOption {
	return func(n *WebhookNotifier) {
		n.client = nfhttp.NewClient(nfhttp.ClientConfig{Client: c, BaseURL: n.URL, ServiceName: "webhook"})
	}
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(url string, opts ...WebhookOption) *WebhookNotifier {
	n := &WebhookNotifier{URL: url}
	n.client = nfhttp.NewClient(nfhttp.ClientConfig{
		BaseURL:     url,
		ServiceName: "webhook",
		Timeout:     10 * time.Second,
	})
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	header := http.Header{}
	for k, v := range n.Headers {
		header.Set(k, v)
	}
	if n.signer != nil {
		sig, err := auth.SignPayload(*n.signer, event.ArticleID, body)
		if err != nil {
			return fmt.Errorf("sign webhook: %w", err)
		}
		header.Set(SignatureHeader, sig)
	}

	if err := n.client.PostRaw(ctx, "", body, header); err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	return nil
}
