package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 60 * time.Second

// DefaultRetryWait is the initial wait between attempts when retries are
// enabled.
const DefaultRetryWait = 1 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Client is the JSON transport shared by the collaborator adapters.
type Client struct {
	client      *http.Client
	baseURL     string
	serviceName string
	attempts    int
	retryWait   time.Duration
	logger      *slog.Logger

	// beforeRequest is called before each request (for auth headers, etc.)
	beforeRequest func(req *http.Request)
}

// ClientConfig holds configuration for Client.
type ClientConfig struct {
	Client      *http.Client
	BaseURL     string
	ServiceName string

	// Attempts is the total number of tries per call. Zero means one try:
	// the workflow surfaces collaborator failures instead of retrying them.
	Attempts  int
	RetryWait time.Duration
	Timeout   time.Duration
	Logger    *slog.Logger

	BeforeRequest func(req *http.Request)
}

// NewClient creates a new Client with the given configuration.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		client:        cfg.Client,
		baseURL:       cfg.BaseURL,
		serviceName:   cfg.ServiceName,
		attempts:      cfg.Attempts,
		retryWait:     cfg.RetryWait,
		logger:        cfg.Logger,
		beforeRequest: cfg.BeforeRequest,
	}

	if c.client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.client = &http.Client{Timeout: timeout}
	}
	if c.attempts <= 0 {
		c.attempts = 1
	}
	if c.retryWait <= 0 {
		c.retryWait = DefaultRetryWait
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("service", c.serviceName)

	return c
}

// ServiceName returns the name used in errors.
func (c *Client) ServiceName() string {
	return c.serviceName
}

// Do executes a JSON request. Transient failures are retried only when the
// client was configured with more than one attempt.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s request body: %w", c.serviceName, err)
		}
		payload = data
	}

	return c.send(ctx, method, path, payload, nil)
}

// DoRaw sends an already-encoded JSON payload with extra headers. Callers
// that sign the exact bytes on the wire use it instead of Do.
func (c *Client) DoRaw(ctx context.Context, method, path string, payload []byte, header http.Header) (*http.Response, error) {
	return c.send(ctx, method, path, payload, header)
}

// PostRaw posts an encoded payload and checks the response status.
func (c *Client) PostRaw(ctx context.Context, path string, payload []byte, header http.Header) error {
	resp, err := c.DoRaw(ctx, http.MethodPost, path, payload, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, path, nil)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, header http.Header) (*http.Response, error) {
	url := c.baseURL + path

	var lastErr error
	for attempt := range c.attempts {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if c.beforeRequest != nil {
			c.beforeRequest(req)
		}

		start := time.Now()
		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%s request failed: %w", c.serviceName, err)
			if attempt < c.attempts-1 && ctx.Err() == nil {
				if werr := c.wait(ctx, c.retryWait*time.Duration(1<<attempt)); werr != nil {
					return nil, werr
				}
				continue
			}
			return nil, lastErr
		}
		c.logger.Debug("http request",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"duration", time.Since(start))

		if retryableStatus(resp.StatusCode) && attempt < c.attempts-1 {
			wait := c.getRetryWait(resp, attempt)
			resp.Body.Close()
			if werr := c.wait(ctx, wait); werr != nil {
				return nil, werr
			}
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// Get performs a GET request and decodes the response into result.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, path, result)
}

// Post performs a POST request and decodes the response into result.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	resp, err := c.Do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, path, result)
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// handleResponse checks status and decodes the response body.
func (c *Client) handleResponse(resp *http.Response, path string, result any) error {
	if resp.StatusCode >= 400 {
		return c.parseError(resp, path)
	}

	if result == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode %s response: %w", c.serviceName, err)
	}

	return nil
}

// parseError reads an error answer into an APIError.
func (c *Client) parseError(resp *http.Response, path string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &APIError{
		Service:    c.serviceName,
		Status:     resp.StatusCode,
		Endpoint:   path,
		RetryAfter: retryAfter(resp),
	}

	// Chroma reports {"error": ..., "message": ...}, Tavily {"detail": {"error": ...}}.
	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  struct {
			Error string `json:"error"`
		} `json:"detail"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		switch {
		case errResp.Message != "":
			apiErr.Message = errResp.Message
		case errResp.Error != "":
			apiErr.Message = errResp.Error
		case errResp.Detail.Error != "":
			apiErr.Message = errResp.Detail.Error
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}

// getRetryWait calculates the wait time for a retry.
func (c *Client) getRetryWait(resp *http.Response, attempt int) time.Duration {
	if d := retryAfter(resp); d > 0 {
		return d
	}
	return c.retryWait * time.Duration(1<<attempt)
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
