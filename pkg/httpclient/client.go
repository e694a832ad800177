package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Client is an HTTP client with rate limiting. GetJSON retries with
// exponential backoff; PostJSON is attempted exactly once.
type Client struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter

	headers         http.Header
	breaker         *Breaker
	maxRetries      uint64
	initialInterval time.Duration
	maxRetryTimeout time.Duration
}

// Options holds options for creating a new Client
type Options struct {
	Timeout         time.Duration
	RequestsPerSec  float64
	Burst           int
	MaxRetries      int
	InitialInterval time.Duration
	MaxRetryTimeout time.Duration
	Headers         map[string]string
	// BreakerThreshold consecutive upstream failures open the circuit for
	// BreakerCooldown. Zero disables the breaker.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// New creates a client, filling unset options with defaults
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.Burst == 0 {
		opts.Burst = 1
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}

	headers := make(http.Header)
	for k, v := range opts.Headers {
		headers.Set(k, v)
	}

	var breaker *Breaker
	if opts.BreakerThreshold > 0 {
		breaker = NewBreaker(opts.BreakerThreshold, opts.BreakerCooldown)
	}

	return &Client{
		HTTPClient:      &http.Client{Timeout: opts.Timeout},
		Limiter:         rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.Burst),
		headers:         headers,
		breaker:         breaker,
		maxRetries:      uint64(opts.MaxRetries),
		initialInterval: opts.InitialInterval,
		maxRetryTimeout: opts.MaxRetryTimeout,
	}
}

// GetJSON performs a GET and decodes the JSON body into out. Network errors,
// 429 and 5xx responses are retried; other statuses fail immediately.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error {
	if len(query) > 0 {
		rawURL = rawURL + "?" + query.Encode()
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		err = c.do(ctx, req, out)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.MaxElapsedTime = c.maxRetryTimeout

	return c.guard(ctx, func() error {
		return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx))
	})
}

// Breaker returns the circuit breaker, nil when disabled
func (c *Client) Breaker() *Breaker {
	return c.breaker
}

// guard runs fn through the breaker. Only upstream failures (network, 429,
// 5xx) count against it; a call cut short by ctx records nothing.
func (c *Client) guard(ctx context.Context, fn func() error) error {
	if c.breaker == nil {
		return fn()
	}
	if !c.breaker.Allow() {
		return ErrCircuitOpen
	}
	err := fn()
	if err != nil && ctx.Err() != nil {
		c.breaker.Abandon()
		return err
	}
	c.breaker.Record(err != nil && retryable(err))
	return err
}

// PostJSON sends body as JSON and decodes the response into out.
// It never retries: the request may not be idempotent.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.guard(ctx, func() error { return c.do(ctx, req, out) })
}

func (c *Client) do(ctx context.Context, req *http.Request, out any) error {
	if err := c.Limiter.Wait(ctx); err != nil {
		return err
	}

	for k, v := range c.headers {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL.Host, err)
	}
	return nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// StatusError represents an error due to a non-200 HTTP status code
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("non-200 status code: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("non-200 status code: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}
