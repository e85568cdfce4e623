// Package reliability wraps internal/transport per logical source client
// with rate limiting, retry-with-backoff, a circuit breaker, and metrics
// (C2). Adapters never call internal/transport directly; they hold a
// *Client constructed here.
package reliability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/obs"
	"github.com/edgeline/edge-engine/internal/transport"
)

// Policy configures one Client's rate limit, retry, and breaker behavior.
type Policy struct {
	Name               string
	RateLimitInterval  time.Duration
	MaxRetries         int
	RetryBaseDelay     time.Duration
	RetryMaxDelay      time.Duration
	BreakerFailureMax  uint32
	BreakerResetTimeout time.Duration
}

// DefaultPolicy matches spec.md's C2 defaults: Δ=500ms, 3 retries capped at
// 10s backoff, breaker opens after 5 consecutive failures, 300s reset.
func DefaultPolicy(name string) Policy {
	return Policy{
		Name:                name,
		RateLimitInterval:   500 * time.Millisecond,
		MaxRetries:          3,
		RetryBaseDelay:      1 * time.Second,
		RetryMaxDelay:       10 * time.Second,
		BreakerFailureMax:   5,
		BreakerResetTimeout: 300 * time.Second,
	}
}

// Client wraps a transport.Pool with per-source reliability controls.
type Client struct {
	pool    *transport.Pool
	policy  Policy
	limiter *rate.Limiter
	dist    *redis_rate.Limiter // optional, multi-process rate limiting
	breaker *gobreaker.CircuitBreaker
	metrics *Metrics
	log     interface {
		Warnf(string, ...any)
		Errorf(string, ...any)
	}
}

// NewClient builds a Client for one logical source. redisClient may be nil,
// in which case rate limiting is purely in-process via golang.org/x/time/rate.
func NewClient(pool *transport.Pool, policy Policy, redisClient *redis.Client) *Client {
	c := &Client{
		pool:    pool,
		policy:  policy,
		limiter: rate.NewLimiter(rate.Every(policy.RateLimitInterval), 1),
		metrics: newMetrics(policy.Name),
		log:     obs.For("reliability." + policy.Name),
	}

	if redisClient != nil {
		c.dist = redis_rate.NewLimiter(redisClient)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        policy.Name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     policy.BreakerResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= policy.BreakerFailureMax
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.metrics.setBreakerState(to)
			obs.For("reliability." + name).Infof("breaker %s -> %s", from, to)
		},
	})

	return c
}

// awaitRateLimit blocks until the in-process limiter admits a request, and,
// if a distributed limiter is configured, until that also admits it.
func (c *Client) awaitRateLimit(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if c.dist == nil {
		return nil
	}
	for {
		res, err := c.dist.Allow(ctx, c.policy.Name, redis_rate.PerSecond(int(time.Second/c.policy.RateLimitInterval)+1))
		if err != nil {
			// Redis unavailable: degrade to the in-process gate alone.
			return nil
		}
		if res.Allowed > 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(res.RetryAfter):
		}
	}
}

func isRetryable(status int, err error) bool {
	if err != nil {
		return true
	}
	return status >= 500
}

// Get performs a rate-limited, retried, breaker-guarded GET.
func (c *Client) Get(ctx context.Context, url string, headers http.Header) (*transport.Response, error) {
	return c.call(ctx, func(ctx context.Context) (*transport.Response, error) {
		return c.pool.Get(ctx, url, headers)
	})
}

// PostJSON performs a rate-limited, retried, breaker-guarded POST.
func (c *Client) PostJSON(ctx context.Context, url string, body any, headers http.Header) (*transport.Response, error) {
	return c.call(ctx, func(ctx context.Context) (*transport.Response, error) {
		return c.pool.PostJSON(ctx, url, body, headers)
	})
}

func (c *Client) call(ctx context.Context, do func(context.Context) (*transport.Response, error)) (*transport.Response, error) {
	c.metrics.incRequests()

	result, err := c.breaker.Execute(func() (any, error) {
		return c.attemptWithRetry(ctx, do)
	})

	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			c.metrics.incFailures()
			return nil, core.NewBreakerOpenError(c.policy.Name)
		}
		c.metrics.incFailures()
		return nil, err
	}

	resp := result.(*transport.Response)

	if resp.Status >= 400 && resp.Status < 500 {
		c.metrics.incFailures()
		return resp, core.NewClientError(c.policy.Name, resp.Status, string(resp.Bytes))
	}

	c.metrics.incSuccesses()
	return resp, nil
}

func (c *Client) attemptWithRetry(ctx context.Context, do func(context.Context) (*transport.Response, error)) (*transport.Response, error) {
	delay := c.policy.RetryBaseDelay
	var lastErr error

	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		if err := c.awaitRateLimit(ctx); err != nil {
			return nil, err
		}

		resp, err := do(ctx)
		if err == nil && resp.Status >= 400 && resp.Status < 500 && resp.Status != http.StatusTooManyRequests {
			// Non-retryable client error: surface immediately.
			return resp, nil
		}

		if err == nil && !isRetryable(resp.Status, nil) {
			return resp, nil
		}

		if err == nil {
			// 5xx or 429: retryable, surfaced as transient on exhaustion.
			lastErr = core.NewTransientNetworkError(c.policy.Name, fmt.Errorf("status %d", resp.Status))
		} else {
			lastErr = core.NewTransientNetworkError(c.policy.Name, err)
		}

		if attempt == c.policy.MaxRetries {
			break
		}

		c.metrics.incRetries()
		c.log.Warnf("retrying after attempt %d: %v", attempt+1, lastErr)
		retryAfter := delay
		if resp != nil && resp.Status == http.StatusTooManyRequests {
			if ra := resp.Headers.Get("Retry-After"); ra != "" {
				if secs, perr := time.ParseDuration(ra + "s"); perr == nil {
					retryAfter = secs
				}
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryAfter):
		}

		delay *= 2
		if delay > c.policy.RetryMaxDelay {
			delay = c.policy.RetryMaxDelay
		}
	}

	return nil, lastErr
}
