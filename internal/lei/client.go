// Package lei resolves Legal Entity Identifiers against the GLEIF lookup API.
//
// Every call performs exactly one HTTP request. Nothing is retried or cached;
// retry policy belongs to the caller.
package lei

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultBaseURL is the public GLEIF lookup endpoint.
	DefaultBaseURL = "https://leilookup.gleif.org/api/v2/leirecords"
	DefaultTimeout = 5 * time.Second

	maxResponseBytes = 1 << 20
)

// Client is the LEI resolver. It is safe for concurrent use.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *Metrics
	tracer     trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// New returns a Client for baseURL. A non-positive timeout falls back to
// DefaultTimeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{},
		tracer:     otel.Tracer("bondbook/lei"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve looks up lei and classifies the response. Failures are reported
// through the Result outcome, never as an error.
func (c *Client) Resolve(ctx context.Context, lei string) Result {
	ctx, span := c.tracer.Start(ctx, "lei.resolve",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("lei", lei)),
	)
	defer span.End()

	start := time.Now()
	res := c.do(ctx, lei)
	c.metrics.observe(res.Outcome, time.Since(start))

	span.SetAttributes(attribute.String("lei.outcome", string(res.Outcome)))
	if res.Outcome == OutcomeUnavailable {
		span.SetStatus(codes.Error, res.Message)
		if c.logger != nil {
			c.logger.WarnContext(ctx, "lei lookup unavailable",
				"lei", lei,
				"reason", res.Message,
			)
		}
	}
	return res
}

func (c *Client) do(ctx context.Context, lei string) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint, err := c.endpoint(lei)
	if err != nil {
		return unavailable(err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return unavailable(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return unavailable("lookup timed out")
		}
		return unavailable(fmt.Sprintf("lookup failed: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return unavailable(fmt.Sprintf("read response: %v", err))
	}
	return parseResponse(resp.StatusCode, body)
}

func (c *Client) endpoint(lei string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid lookup url: %w", err)
	}
	q := u.Query()
	q.Set("lei", lei)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
