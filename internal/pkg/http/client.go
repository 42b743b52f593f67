package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/piresc/vidcredit/internal/pkg/circuitbreaker"
	"github.com/piresc/vidcredit/internal/pkg/logger"
	nrpkg "github.com/piresc/vidcredit/internal/pkg/newrelic"
)

// DefaultTimeout applies when Config.Timeout is zero
const DefaultTimeout = 10 * time.Second

// maxErrorBody bounds how much of a failed response is kept in HTTPError
const maxErrorBody = 4 << 10

// Config holds client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string // sent on every request
	Breaker *circuitbreaker.CircuitBreaker
}

// Client is a JSON HTTP client for one upstream service
type Client struct {
	baseURL    string
	headers    map[string]string
	httpClient *nethttp.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     *logger.ZapLogger
}

// HTTPError is returned for non-2xx responses
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, e.Body)
}

// IsServerError reports whether err is a 5xx HTTPError
func IsServerError(err error) bool {
	httpErr, ok := err.(*HTTPError)
	return ok && httpErr.StatusCode >= 500
}

// NewClient creates a new HTTP client
func NewClient(config Config, l *logger.ZapLogger) *Client {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		headers:    config.Headers,
		httpClient: &nethttp.Client{Timeout: config.Timeout},
		breaker:    config.Breaker,
		logger:     l,
	}
}

// GetJSON performs a GET request and decodes the JSON response into result
func (c *Client) GetJSON(ctx context.Context, path string, result interface{}) error {
	return c.Do(ctx, nethttp.MethodGet, path, nil, result)
}

// PostJSON performs a POST request with a JSON body and decodes the response into result
func (c *Client) PostJSON(ctx context.Context, path string, body, result interface{}) error {
	return c.Do(ctx, nethttp.MethodPost, path, body, result)
}

// Do sends one request through the circuit breaker, when configured
func (c *Client) Do(ctx context.Context, method, path string, body, result interface{}) error {
	if c.breaker == nil {
		return c.do(ctx, method, path, body, result)
	}
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.do(ctx, method, path, body, result)
	})
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := nrpkg.InstrumentHTTPRequest(req, func() (*nethttp.Response, error) {
		return c.httpClient.Do(req)
	})
	if err != nil {
		c.logger.Error("HTTP request failed",
			logger.String("method", method),
			logger.String("url", url),
			logger.Err(err))
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("HTTP request completed",
		logger.String("method", method),
		logger.String("url", url),
		logger.Int("status_code", resp.StatusCode),
		logger.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
