// Package httpx provides the shared upstream HTTP plumbing: a JSON GET
// client with a fixed per-call timeout, tolerant numeric/timestamp parsing,
// and a reusable retry policy.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// ErrRateLimited signals an upstream 429. Call sites decide whether it is
// worth a retry; everything else is treated as plain unavailability.
var ErrRateLimited = errors.New("upstream rate limited")

// DefaultTimeout bounds each individual upstream call. There is no
// whole-request deadline above it.
const DefaultTimeout = 15 * time.Second

// Client is a thin JSON GET client shared by every upstream source.
type Client struct {
	http      *http.Client
	userAgent string
	log       zerolog.Logger
}

// NewClient creates a Client with the given per-call timeout and User-Agent.
func NewClient(timeout time.Duration, userAgent string, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
		log:       log,
	}
}

// GetJSON performs a GET against rawURL with the given query parameters and
// decodes the body into out. A 429 maps to ErrRateLimited; any other non-2xx
// status, transport error or undecodable body is returned as a plain error.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, out interface{}) error {
	u := rawURL
	if len(params) > 0 {
		u = fmt.Sprintf("%s?%s", rawURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("GET %s: %w", rawURL, ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
