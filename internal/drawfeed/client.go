// Package drawfeed fetches the raw draw CSV, either from a local file or over HTTP.
package drawfeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rewired-gh/dltcheck/internal/logger"
	"github.com/rewired-gh/dltcheck/internal/textenc"
)

// ErrNoSource is returned when neither a path nor a URL is configured.
var ErrNoSource = errors.New("no draw source configured")

// maxBodyBytes bounds a downloaded CSV.
const maxBodyBytes = 32 << 20

// ClientConfig holds the retry settings for remote sources.
type ClientConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	RetryDelayBase time.Duration
	Encodings      []string
}

// Client loads draw CSV content.
type Client struct {
	path           string
	url            string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
	encodings      []string
}

// NewClient creates a client. url takes precedence over path when both are set.
func NewClient(path, url string, cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	return &Client{
		path:           path,
		url:            url,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
		encodings:      cfg.Encodings,
	}
}

// Source describes where content comes from, for log and error messages.
func (c *Client) Source() string {
	if c.url != "" {
		return c.url
	}
	return c.path
}

// Fetch returns the decoded CSV content.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	switch {
	case c.url != "":
		return c.fetchRemote(ctx)
	case c.path != "":
		logger.Debug("Reading draw data from %s", c.path)
		return textenc.ReadFile(c.path, c.encodings)
	default:
		return "", ErrNoSource
	}
}

func (c *Client) fetchRemote(ctx context.Context) (string, error) {
	logger.Debug("Downloading draw data from %s", c.url)
	resp, err := c.doRequest(ctx, c.url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch draw data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, c.url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read draw data: %w", err)
	}
	text, enc, err := textenc.Decode(data, c.encodings)
	if err != nil {
		return "", fmt.Errorf("failed to decode draw data: %w", err)
	}
	logger.Debug("Downloaded %d bytes of draw data (%s)", len(data), enc)
	return text, nil
}

// doRequest performs HTTP request with retry logic
func (c *Client) doRequest(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/csv, text/plain, */*")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
		} else {
			return resp, nil
		}

		if i < c.maxRetries-1 {
			logger.Warn("Draw download attempt %d/%d failed: %v", i+1, c.maxRetries, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(i+1)):
			}
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
