package upstream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"facepay/pkg/platform/circuit"
)

//go:generate mockgen -source=http.go -destination=mocks/mock_http.go -package=mocks

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer records the latency and outcome of a single upstream call.
type Observer interface {
	ObserveCall(service, operation, outcome string, elapsed time.Duration)
}

// MaxResponseBytes bounds how much of an upstream body is read.
const MaxResponseBytes = 4 << 20

// snippetLen bounds how much of an error body is kept on the error.
const snippetLen = 200

// Caller executes HTTP requests against one upstream service, classifying
// failures and feeding an optional circuit breaker and observer.
type Caller struct {
	service  string
	client   HTTPDoer
	breaker  *circuit.Breaker
	observer Observer
	logger   *slog.Logger
}

// CallerOption configures a Caller.
type CallerOption func(*Caller)

func WithBreaker(b *circuit.Breaker) CallerOption {
	return func(c *Caller) { c.breaker = b }
}

func WithObserver(o Observer) CallerOption {
	return func(c *Caller) { c.observer = o }
}

func WithLogger(l *slog.Logger) CallerOption {
	return func(c *Caller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCaller builds a Caller. A nil client falls back to an http.Client with
// the given timeout.
func NewCaller(service string, client HTTPDoer, timeout time.Duration, opts ...CallerOption) *Caller {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	c := &Caller{service: service, client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns the upstream name used in errors and metrics.
func (c *Caller) Service() string {
	return c.service
}

// Response is a fully read 2xx upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do sends req and returns the read body for 2xx responses. Any other
// outcome is an *Error. Only outages and timeouts count against the breaker:
// a 4xx still proves the upstream is answering.
func (c *Caller) Do(ctx context.Context, operation string, req *http.Request) (*Response, error) {
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			c.observe(operation, string(CircuitOpen), 0)
			return nil, New(CircuitOpen, c.service, "circuit open", err)
		}
	}

	start := time.Now()
	resp, err := c.send(ctx, req)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = string(CategoryOf(err))
	}
	c.observe(operation, outcome, elapsed)
	c.record(err)

	if err != nil {
		c.logger.WarnContext(ctx, "upstream call failed",
			"service", c.service,
			"operation", operation,
			"category", CategoryOf(err),
			"duration_ms", elapsed.Milliseconds(),
		)
		return nil, err
	}
	return resp, nil
}

func (c *Caller) send(ctx context.Context, req *http.Request) (*Response, error) {
	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, FromTransport(ctx, c.service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, New(BadData, c.service, "failed to read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, FromStatus(c.service, resp.StatusCode, snippet(body))
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (c *Caller) record(err error) {
	if c.breaker == nil {
		return
	}
	switch CategoryOf(err) {
	case Outage, Timeout:
		if c.breaker.RecordFailure().Opened {
			c.logger.Warn("circuit opened", "breaker", c.breaker.Name())
		}
	default:
		if c.breaker.RecordSuccess().Closed {
			c.logger.Info("circuit closed", "breaker", c.breaker.Name())
		}
	}
}

func (c *Caller) observe(operation, outcome string, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveCall(c.service, operation, outcome, elapsed)
	}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > snippetLen {
		s = s[:snippetLen] + "..."
	}
	if s == "" {
		return "empty response"
	}
	return fmt.Sprintf("response: %s", s)
}
