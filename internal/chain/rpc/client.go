package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/chain/ratelimit"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/circuitbreaker"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/metrics"
	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/pipeline/retry"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultRetryAttempts = 3
	defaultRetryDelay    = 100 * time.Millisecond
	defaultRetryDelayMax = 2 * time.Second
)

// Client is a JSON-RPC 2.0 client for the chain node serving the block
// body and transaction validity queries.
type Client struct {
	httpClient    *http.Client
	rpcURL        string
	requestID     atomic.Int64
	limiter       *ratelimit.Limiter
	breaker       *circuitbreaker.Breaker
	retryAttempts int
	retryDelay    time.Duration
	retryDelayMax time.Duration
	logger        *slog.Logger
}

// Option configures optional Client behaviour.
type Option func(*Client)

// WithRateLimiter throttles outgoing calls.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithBreaker guards calls with a circuit breaker.
func WithBreaker(b *circuitbreaker.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// WithTimeout overrides the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetryConfig tunes retry behaviour for transient failures.
func WithRetryConfig(attempts int, delay, delayMax time.Duration) Option {
	return func(c *Client) {
		c.retryAttempts = attempts
		c.retryDelay = delay
		c.retryDelayMax = delayMax
	}
}

func NewClient(rpcURL string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: defaultTimeout},
		rpcURL:        rpcURL,
		retryAttempts: defaultRetryAttempts,
		retryDelay:    defaultRetryDelay,
		retryDelayMax: defaultRetryDelayMax,
		logger:        logger.With("component", "rpc_client"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// call executes a JSON-RPC method, retrying transient failures with
// capped exponential backoff.
func (c *Client) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	start := time.Now()
	defer func() {
		metrics.RPCCallLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	delay := c.retryDelay
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		result, err := c.callOnce(ctx, method, params)
		if err == nil {
			metrics.RPCCallsTotal.WithLabelValues(method, "ok").Inc()
			return result, nil
		}
		lastErr = err

		decision := retry.Classify(err)
		metrics.RPCCallsTotal.WithLabelValues(method, string(decision.Class)).Inc()
		if !decision.IsTransient() || attempt == c.retryAttempts {
			return nil, fmt.Errorf("%s: %w", method, err)
		}

		metrics.RPCRetriesTotal.WithLabelValues(method).Inc()
		c.logger.Warn("rpc call failed, retrying",
			"method", method,
			"attempt", attempt,
			"reason", decision.Reason,
			"error", err,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		delay *= 2
		if delay > c.retryDelayMax {
			delay = c.retryDelayMax
		}
	}
	return nil, fmt.Errorf("%s: %w", method, lastErr)
}

func (c *Client) callOnce(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return nil, retry.Transient(err)
		}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	result, err := c.doHTTP(ctx, method, params)
	if c.breaker != nil {
		if err != nil {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return result, err
}

func (c *Client) doHTTP(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	req := Request{
		JSONRPC: "2.0",
		ID:      int(c.requestID.Add(1)),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp Response
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	return rpcResp.Result, nil
}
