// Package httpjson holds the JSON-over-HTTP plumbing shared by the model
// provider adapters.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/clausesense/internal/retry"
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 2048

// StatusError is a non-2xx response from a provider.
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: API returned status %d: %s", e.Provider, e.Status, e.Body)
}

// Retryable reports whether err is worth retrying: rate limiting, server
// errors and transport failures. Context errors never are.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status == http.StatusTooManyRequests || se.Status >= 500
	}
	var de *DecodeError
	return !errors.As(err, &de)
}

// DecodeError marks a malformed response body.
type DecodeError struct{ Err error }

func (e *DecodeError) Error() string { return "decode response: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// Client sends JSON requests for one provider.
type Client struct {
	Provider string
	HTTP     *http.Client
	Headers  map[string]string
	Retry    retry.Config
}

// New creates a client with the given timeout and the default retry policy.
func New(provider string, timeout time.Duration, headers map[string]string) *Client {
	cfg := retry.DefaultConfig()
	cfg.Retryable = Retryable
	cfg.Op = provider
	return &Client{
		Provider: provider,
		HTTP:     &http.Client{Timeout: timeout},
		Headers:  headers,
		Retry:    cfg,
	}
}

// Post marshals in, posts it to url and decodes the response into out.
// Transient failures are retried.
func (c *Client) Post(ctx context.Context, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return retry.Do(ctx, c.Retry, func() error {
		return c.do(ctx, http.MethodPost, url, body, out)
	})
}

// Get issues a GET without retries; it backs health checks.
func (c *Client) Get(ctx context.Context, url string, out any) error {
	return c.do(ctx, http.MethodGet, url, nil, out)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", c.Provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Provider: c.Provider, Status: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}
