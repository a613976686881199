package mediastack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/cenkalti/backoff/v4"
	"github.com/mpavlovic/newsstack/internal/apperr"
)

// Client performs outbound calls to the mediastack news endpoint. One
// logical Fetch is up to Retry.Attempts HTTP attempts; transport failures
// and non-2xx statuses are retried with backoff, an error payload inside a
// 2xx envelope is terminal.
type Client struct {
	httpClient *http.Client
	cfg        Config
}

func NewClient(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
	}
}

func (c *Client) Config() Config {
	return c.cfg
}

// Fetch performs a single logical fetch of one page.
func (c *Client) Fetch(ctx context.Context, p Params) (*Batch, error) {
	merged := p.Merge(c.cfg.DefaultParams)
	query := merged.Values()
	query.Set("access_key", c.cfg.APIKey)

	var batch *Batch
	attempt := 0

	operation := func() error {
		attempt++
		b, err := c.doFetch(ctx, query)
		if err != nil {
			if !apperr.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			slog.Warn("mediastack fetch attempt failed",
				"attempt", attempt,
				"maxAttempts", c.cfg.Retry.Attempts,
				"error", err,
			)
			return err
		}
		batch = b
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		return nil, fmt.Errorf("mediastack fetch failed after %d attempt(s): %w", attempt, err)
	}

	slog.Debug("mediastack fetch succeeded",
		"count", batch.Pagination.Count,
		"total", batch.Pagination.Total,
		"offset", batch.Pagination.Offset,
	)
	return batch, nil
}

// TestConnection probes the API with a limit-1 request and no retries.
func (c *Client) TestConnection(ctx context.Context) error {
	query := url.Values{}
	query.Set("access_key", c.cfg.APIKey)
	query.Set("limit", "1")

	_, err := c.doFetch(ctx, query)
	return err
}

func (c *Client) newBackOff() backoff.BackOff {
	var b backoff.BackOff
	if c.cfg.Retry.Exponential {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = c.cfg.Retry.Delay
		b = eb
	} else {
		b = backoff.NewConstantBackOff(c.cfg.Retry.Delay)
	}

	attempts := c.cfg.Retry.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithMaxRetries(b, uint64(attempts-1))
}

func (c *Client) doFetch(ctx context.Context, query url.Values) (*Batch, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.NewTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, apperr.NewHTTP(resp.StatusCode)
	}

	var decoded newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, apperr.NewTransport(fmt.Errorf("failed to decode response: %w", err))
	}

	if decoded.Error != nil {
		return nil, apperr.NewAPI(decoded.Error.Code, decoded.Error.Message)
	}

	return &Batch{
		Articles:   decoded.Data,
		Pagination: decoded.Pagination,
	}, nil
}
