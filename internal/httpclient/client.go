// Package httpclient is the transport layer internal/aur builds its RPC and download
// calls on: a DNS-cached, circuit-broken, retrying HTTP client. Each worker in
// internal/pool owns one instance.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"

	"github.com/cower-go/cower/internal/errs"
)

const (
	defaultTimeout   = 2 * time.Minute
	resolverInterval = 5 * time.Minute

	breakerInitialInterval = 30 * time.Second
	breakerMaxInterval     = 5 * time.Minute
	breakerMultiplier      = 2.0
	breakerTripThreshold   = 5
)

// Client wraps an *http.Client with a DNS-caching dialer and a per-host circuit
// breaker.
type Client struct {
	hc        *http.Client
	userAgent string

	maxRetries int
	baseDelay  time.Duration

	mu       sync.Mutex
	breakers map[string]*circuit.Breaker
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout (default 2 minutes, long enough for a
// tarball download).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithMaxRetries overrides the retry budget for transient failures (default 3).
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// New builds a Client with a DNS-cached dialer, refreshing the cache on a background
// ticker.
func New(opts ...Option) *Client {
	resolver := &resolver{}
	go resolver.refreshLoop(resolverInterval)

	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.lookup(ctx, host)
			if err != nil {
				return nil, err
			}
			var lastErr error
			for _, ip := range ips {
				conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
				lastErr = err
			}
			return nil, fmt.Errorf("failed to dial any resolved address for %s: %w", host, lastErr)
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	c := &Client{
		hc:         &http.Client{Timeout: defaultTimeout, Transport: transport},
		userAgent:  "cower-go/1.0",
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
		breakers:   make(map[string]*circuit.Breaker),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) breakerFor(host string) *circuit.Breaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.breakers[host]; ok {
		return b
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = breakerInitialInterval
	bo.MaxInterval = breakerMaxInterval
	bo.Multiplier = breakerMultiplier
	bo.Reset()

	b := circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    bo,
		ShouldTrip: circuit.ThresholdTripFunc(breakerTripThreshold),
	})
	c.breakers[host] = b
	return b
}

// Get issues a GET request against rawURL, retrying transient failures with
// exponential backoff and jitter behind a per-host circuit breaker, and returns the
// open response body on success. target identifies the caller's unit of work (an AUR
// package name) purely for error attribution.
func (c *Client) Get(ctx context.Context, target, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &errs.Transport{Target: target, Err: err}
	}
	breaker := c.breakerFor(u.Host)

	if !breaker.Ready() {
		return nil, &errs.Transport{Target: target, Err: fmt.Errorf("circuit breaker open for %s", u.Host)}
	}

	var (
		body    io.ReadCloser
		lastErr error
	)
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			delay += time.Duration(float64(delay) * rand.Float64() * 0.1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		cbErr := breaker.Call(func() error {
			b, err := c.doGet(ctx, target, rawURL)
			if err != nil {
				return err
			}
			body = b
			return nil
		}, 0)

		if cbErr == nil {
			return body, nil
		}
		lastErr = cbErr

		if httpErr, ok := cbErr.(*errs.RemoteHTTP); ok && httpErr.Code != http.StatusTooManyRequests && httpErr.Code < 500 {
			return nil, httpErr
		}
	}
	return nil, &errs.Transport{Target: target, Err: lastErr}
}

func (c *Client) doGet(ctx context.Context, target, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		_ = resp.Body.Close()
		return nil, &errs.RemoteHTTP{Target: target, Code: resp.StatusCode}
	}
	return resp.Body, nil
}
