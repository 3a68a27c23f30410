// Package indexer fetches the pool list from a third-party indexing
// service. The service is untrusted and rate-limited; results are filtered
// downstream before use.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"swapScope/internal/model"
)

// ErrFetchFailed is returned once every configured endpoint has been
// exhausted.
var ErrFetchFailed = errors.New("pool fetch failed")

const poolsQuery = `{
  pairs(first: %d, orderBy: reserveUSD, orderDirection: desc) {
    id
    reserve0
    reserve1
    reserveUSD
    token0 { id symbol name decimals }
    token1 { id symbol name decimals }
  }
}`

// Client queries one or more indexer endpoints for the pool list. All
// endpoints are raced concurrently and the first success wins, which keeps
// tail latency down when an endpoint is degraded.
type Client struct {
	endpoints     []string
	httpClient    *http.Client
	perTryTimeout time.Duration
	maxRetries    int
	retryBackoff  time.Duration
	pageSize      int
	logger        *zap.Logger
}

// ClientConfig holds Client construction parameters.
type ClientConfig struct {
	Endpoints     []string
	PerTryTimeout time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration
	PageSize      int
}

func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("at least one indexer endpoint is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	perTryTimeout := cfg.PerTryTimeout
	if perTryTimeout <= 0 {
		perTryTimeout = 10 * time.Second
	}
	retryBackoff := cfg.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = 500 * time.Millisecond
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 500
	}

	return &Client{
		endpoints:     cfg.Endpoints,
		httpClient:    &http.Client{},
		perTryTimeout: perTryTimeout,
		maxRetries:    cfg.MaxRetries,
		retryBackoff:  retryBackoff,
		pageSize:      pageSize,
		logger:        logger,
	}, nil
}

type fetchResult struct {
	endpoint string
	pools    []model.Pool
	err      error
}

// FetchPools races all endpoints and returns the first successful pool
// list. It fails with ErrFetchFailed only after every endpoint has failed.
func (c *Client) FetchPools(ctx context.Context) ([]model.Pool, error) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan fetchResult, len(c.endpoints))
	for _, endpoint := range c.endpoints {
		endpoint := endpoint
		go func() {
			pools, err := c.fetchEndpoint(raceCtx, endpoint)
			results <- fetchResult{endpoint: endpoint, pools: pools, err: err}
		}()
	}

	var failures []error
	for range c.endpoints {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case result := <-results:
			if result.err == nil {
				c.logger.Debug("pool list fetched",
					zap.String("endpoint", result.endpoint),
					zap.Int("pools", len(result.pools)),
				)
				return result.pools, nil
			}
			// Losers cancelled via raceCtx report context.Canceled; keep the
			// real failures for the final error.
			if !errors.Is(result.err, context.Canceled) {
				c.logger.Warn("indexer endpoint failed",
					zap.String("endpoint", result.endpoint),
					zap.Error(result.err),
				)
			}
			failures = append(failures, fmt.Errorf("%s: %w", result.endpoint, result.err))
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrFetchFailed, errors.Join(failures...))
}

// fetchEndpoint queries a single endpoint with bounded retries and a
// per-attempt timeout.
func (c *Client) fetchEndpoint(ctx context.Context, endpoint string) ([]model.Pool, error) {
	var pools []model.Pool
	err := withRetry(ctx, c.maxRetries, c.retryBackoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.perTryTimeout)
		defer cancel()

		fetched, err := c.query(attemptCtx, endpoint)
		if err != nil {
			return err
		}
		pools = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pools, nil
}

func (c *Client) query(ctx context.Context, endpoint string) ([]model.Pool, error) {
	body, err := json.Marshal(map[string]string{
		"query": fmt.Sprintf(poolsQuery, c.pageSize),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var decoded pairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return nil, fmt.Errorf("query error: %s", decoded.Errors[0].Message)
	}

	pools := make([]model.Pool, 0, len(decoded.Data.Pairs))
	for _, pair := range decoded.Data.Pairs {
		pools = append(pools, pair.toModel())
	}
	return pools, nil
}

func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
