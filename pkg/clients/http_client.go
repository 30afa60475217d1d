package clients

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/errors"
)

// HTTPClientConfig configures the retrying HTTP client.
type HTTPClientConfig struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	MaxBodyBytes  int64 // 0 means unlimited
}

// HTTPClient is a thin retrying wrapper around net/http used for attachment
// downloads and feedback posts. Retries apply to connection errors and
// 5xx/429 responses.
type HTTPClient struct {
	client *http.Client
	config HTTPClientConfig
	logger *zap.Logger
}

// NewHTTPClient creates a retrying HTTP client.
func NewHTTPClient(config HTTPClientConfig, logger *zap.Logger) *HTTPClient {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RetryAttempts < 0 {
		config.RetryAttempts = 0
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}
	return &HTTPClient{
		client: &http.Client{Timeout: config.Timeout},
		config: config,
		logger: logger.With(zap.String("component", "http_client")),
	}
}

// Get fetches url with the given headers and returns the response body.
func (c *HTTPClient) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, headers, nil)
}

// Post sends body to url with the given headers and returns the response
// body.
func (c *HTTPClient) Post(ctx context.Context, url string, headers map[string]string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, url, headers, body)
}

func (c *HTTPClient) do(ctx context.Context, method, url string, headers map[string]string, body []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "request cancelled during retry wait")
			case <-time.After(delay):
			}
			c.logger.Debug("retrying request",
				zap.String("url", url),
				zap.Int("attempt", attempt))
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "failed to build request")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = errors.Wrap(err, errors.ErrorTypeConnection, "request failed")
			continue
		}

		data, err := c.readBody(resp)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return data, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = errors.Newf(errors.ErrorTypeRateLimit, "rate limited by %s", url).
				WithDetail("status", resp.StatusCode)
		case resp.StatusCode >= 500:
			lastErr = errors.Newf(errors.ErrorTypeConnection, "server error from %s", url).
				WithDetail("status", resp.StatusCode)
		default:
			// Client errors are not retryable
			return nil, errors.Newf(errors.ErrorTypeData, "request to %s failed", url).
				WithDetail("status", resp.StatusCode).
				WithDetail("body", string(data))
		}
	}

	return nil, lastErr
}

func (c *HTTPClient) readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if c.config.MaxBodyBytes > 0 {
		reader = io.LimitReader(resp.Body, c.config.MaxBodyBytes)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to read response body")
	}
	return data, nil
}
