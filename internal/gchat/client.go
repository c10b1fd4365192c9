package gchat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// Client posts card messages to Google Chat incoming webhooks. Delivery is
// fire-and-forget from the bridge's perspective: callers log returned errors
// and never retry or surface them upstream.
type Client struct {
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient constructs a Client with a bounded request timeout.
func NewClient(timeout time.Duration, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = log.New(os.Stdout, "gchat ", log.LstdFlags)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Post sends a single JSON POST to the destination webhook. Non-2xx responses
// are reported as errors; the response body is drained and discarded.
func (c *Client) Post(ctx context.Context, webhookURL string, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook POST: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain to allow connection reuse; cap at 4 KiB.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook POST: unexpected status %d", resp.StatusCode)
	}

	c.logger.Printf("message forwarded to Google Chat, status %d", resp.StatusCode)
	return nil
}
