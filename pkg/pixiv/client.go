package pixiv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	errs "pixivarc/pkg/errors"
	"pixivarc/pkg/logger"
	"pixivarc/pkg/ratelimit"
	"pixivarc/pkg/retry"
)

// BaseURL is the default API host
const BaseURL = "https://www.pixiv.net"

// ClientOptions configures a Client
type ClientOptions struct {
	// Session is the PHPSESSID cookie value
	Session string
	// UserAgent overrides the synthesized browser user agent
	UserAgent string
	// RequestsPerMinute is the request budget shared by fetches and downloads
	RequestsPerMinute int
	// Timeout bounds a single HTTP request
	Timeout time.Duration
	// MaxRetries bounds retry attempts for transient failures
	MaxRetries int
}

// Client is a rate-limited, retrying HTTP client for the platform's
// private JSON API
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    ratelimit.Limiter
	smoother   *rate.Limiter
	maxRetries int
	logger     logger.Logger
}

// NewClient creates a new API client
func NewClient(opts ClientOptions, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = SynthesizeUserAgent(time.Now())
	}

	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	headers := BrowserHeaders(userAgent)
	if opts.Session != "" {
		headers["Cookie"] = fmt.Sprintf("PHPSESSID=%s", opts.Session)
	}

	// The per-minute bucket enforces the configured budget; the per-second
	// limiter smooths bursts so the budget is not spent in the first instant
	// of every minute.
	perSecond := (rpm + 59) / 60

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers:    headers,
		baseURL:    BaseURL,
		limiter:    ratelimit.PerMinute(rpm),
		smoother:   rate.NewLimiter(rate.Limit(perSecond), perSecond),
		maxRetries: opts.MaxRetries,
		logger:     log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetBaseURL overrides the API host, used by tests
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// url joins a path with the configured host
func (c *Client) url(path string) string {
	return c.baseURL + path
}

// wait blocks until the rate limiters admit one request
func (c *Client) wait(ctx context.Context) error {
	if err := c.smoother.Wait(ctx); err != nil {
		return &errs.Error{Type: errs.ErrorTypeNetwork, Message: fmt.Sprintf("rate wait cancelled: %v", err)}
	}
	if !c.limiter.Allow() {
		c.logger.Debug("request budget exhausted, waiting for refill")
		c.limiter.Wait()
	}
	return nil
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(ctx context.Context, url string) (*http.Response, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errs.Error{Type: errs.ErrorTypeUnknown, Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{Type: errs.ErrorTypeNetwork, Message: fmt.Sprintf("network error: %v", err)}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// checkResponseStatus checks the HTTP response status and returns typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &errs.Error{Type: errs.ErrorTypeAuth, Message: "authentication required", Code: resp.StatusCode}
	case resp.StatusCode == http.StatusNotFound:
		return &errs.Error{Type: errs.ErrorTypeNotFound, Message: "resource not found", Code: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &errs.Error{Type: errs.ErrorTypeRateLimit, Message: "rate limit exceeded", Code: resp.StatusCode}
	case resp.StatusCode >= 500:
		return &errs.Error{Type: errs.ErrorTypeServerError, Message: "server error", Code: resp.StatusCode}
	default:
		return &errs.Error{Type: errs.ErrorTypeUnknown, Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode), Code: resp.StatusCode}
	}
}

// retryConfig builds the retry policy for one logical request
func (c *Client) retryConfig(ctx context.Context) *retry.Config {
	cfg := retry.DefaultConfig()
	cfg.Context = ctx
	cfg.Logger = c.logger
	if c.maxRetries > 0 {
		cfg.MaxAttempts = c.maxRetries
	}
	return cfg
}

// getJSON performs a GET request and decodes the JSON response, retrying
// transient failures
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	return retry.Do(func() error {
		resp, err := c.doRequest(ctx, url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := c.checkResponseStatus(resp); err != nil {
			return err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return &errs.Error{Type: errs.ErrorTypeNetwork, Message: fmt.Sprintf("failed to read response body: %v", err), Code: resp.StatusCode}
		}

		if err := json.Unmarshal(body, target); err != nil {
			bodyPreview := string(body)
			if len(bodyPreview) > 200 {
				bodyPreview = bodyPreview[:200] + "..."
			}
			c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
				"url":          url,
				"status":       resp.StatusCode,
				"error":        err.Error(),
				"body_preview": bodyPreview,
			})
			return &errs.Error{Type: errs.ErrorTypeParsing, Message: fmt.Sprintf("failed to parse JSON: %v", err), Code: resp.StatusCode}
		}

		return nil
	}, c.retryConfig(ctx))
}

// Fetch performs a GET against an envelope-wrapped endpoint and returns the
// decoded body. An envelope with error=true or a null body is a failure
// carrying the platform's message.
func Fetch[T any](ctx context.Context, c *Client, path string) (T, error) {
	var envelope Response[T]
	var zero T

	if err := c.getJSON(ctx, c.url(path), &envelope); err != nil {
		return zero, err
	}

	return envelope.Downcast()
}

// Download fetches raw bytes from a URL into a temporary file and returns
// its path. The caller owns the file.
func (c *Client) Download(ctx context.Context, url string) (string, error) {
	return retry.DoWithResult(func() (string, error) {
		resp, err := c.doRequest(ctx, url)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if err := c.checkResponseStatus(resp); err != nil {
			return "", err
		}

		tmp, err := os.CreateTemp("", "pixivarc-*")
		if err != nil {
			return "", fmt.Errorf("failed to create temp file: %w", err)
		}

		_, err = io.Copy(tmp, resp.Body)
		closeErr := tmp.Close()
		if err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(tmp.Name())
			return "", &errs.Error{Type: errs.ErrorTypeNetwork, Message: fmt.Sprintf("failed to download file: %v", err)}
		}

		return tmp.Name(), nil
	}, c.retryConfig(ctx))
}
