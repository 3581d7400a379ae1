// Package openaiclient builds the go-openai client shared by the OpenAI
// embedding and LLM adapters, with request pacing and retries.
package openaiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/clausesense/internal/adapters/driven/httpjson"
	"github.com/custodia-labs/clausesense/internal/retry"
)

// Defaults.
const (
	DefaultBaseURL           = "https://api.openai.com/v1"
	DefaultRequestsPerMinute = 500
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("openai: API key is required")

// Config holds connection settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration

	// RequestsPerMinute paces outgoing requests. Zero uses the default,
	// negative disables pacing.
	RequestsPerMinute int
}

// Client wraps the go-openai client with a limiter and retry policy.
type Client struct {
	API     *openai.Client
	limiter *rate.Limiter
	retry   retry.Config
}

// New creates a client. The API key is required.
func New(cfg Config, op string) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		perSecond := float64(cfg.RequestsPerMinute) / 60
		limiter = rate.NewLimiter(rate.Limit(perSecond), max(1, cfg.RequestsPerMinute/60))
	}

	rc := retry.DefaultConfig()
	rc.InitialDelay = 500 * time.Millisecond
	rc.Retryable = Retryable
	rc.Op = op

	return &Client{
		API:     openai.NewClientWithConfig(oc),
		limiter: limiter,
		retry:   rc,
	}, nil
}

// SetRetry replaces the retry policy, keeping the retryable predicate.
func (c *Client) SetRetry(cfg retry.Config) {
	cfg.Retryable = Retryable
	cfg.Op = c.retry.Op
	c.retry = cfg
}

// Do waits for the limiter and runs fn with retries.
func (c *Client) Do(ctx context.Context, fn func() error) error {
	return retry.Do(ctx, c.retry, func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}
		}
		return fn()
	})
}

// Retryable reports whether an API error is transient.
func Retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return httpjson.Retryable(err)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
