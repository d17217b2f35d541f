// Package rest implements a resilient HTTP request client: a fluent builder
// for GET/DELETE requests and content-bearing variants against a fixed base
// URI, with configurable query parameters, headers and an injectable retry
// policy applied uniformly to every network operation.
package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/time/rate"

	"github.com/avalab/restcore/pkg/config"
	"github.com/avalab/restcore/pkg/logger"
	"github.com/avalab/restcore/pkg/retry"
	"github.com/avalab/restcore/pkg/validation"
)

const tracerName = "github.com/avalab/restcore/pkg/rest"

// Client issues requests built through Resource. It is safe for concurrent
// use once configured.
type Client struct {
	hc      *http.Client
	log     logger.Logger
	policy  retry.Policy
	breaker *gobreaker.CircuitBreaker[*http.Response]
	limiter *rate.Limiter
	metrics *Collector
	sink    ProgressSink
	tracing bool

	backoffBase time.Duration
	backoffMax  time.Duration
}

// NewClient creates a client with the given options.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		hc:          &http.Client{Timeout: 30 * time.Second},
		log:         logger.Nop(),
		policy:      retry.Default(),
		backoffBase: 100 * time.Millisecond,
		backoffMax:  2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// clientSettings are the config-driven knobs, validated before use.
type clientSettings struct {
	Timeout        time.Duration `validate:"min=0"`
	RetryAttempts  int           `validate:"min=1,max=100"`
	RetryBaseDelay time.Duration `validate:"min=0"`
	RetryMaxDelay  time.Duration `validate:"min=0"`
	RetryNotFound  bool
	RateLimitRPS   float64 `validate:"min=0"`
	RateLimitBurst int     `validate:"min=0"`
	TracingEnabled bool
	BreakerName    string
}

// FromConfig builds a client from configuration keys under "client.":
// timeout, retry.attempts, retry.base_delay, retry.max_delay,
// retry.not_found_transient, rate.rps, rate.burst, tracing, breaker.
func FromConfig(log logger.Logger, cfg *config.Config) (*Client, error) {
	s := clientSettings{
		Timeout:        cfg.GetDurationD("client.timeout", 30*time.Second),
		RetryAttempts:  cfg.GetIntD("client.retry.attempts", 3),
		RetryBaseDelay: cfg.GetDurationD("client.retry.base_delay", 100*time.Millisecond),
		RetryMaxDelay:  cfg.GetDurationD("client.retry.max_delay", 2*time.Second),
		RetryNotFound:  cfg.GetBoolD("client.retry.not_found_transient", false),
		RateLimitRPS:   cfg.GetFloat64("client.rate.rps"),
		RateLimitBurst: cfg.GetIntD("client.rate.burst", 1),
		TracingEnabled: cfg.GetBoolD("client.tracing", false),
		BreakerName:    cfg.GetString("client.breaker"),
	}
	if err := validation.Struct(s); err != nil {
		return nil, fmt.Errorf("client configuration: %w", err)
	}

	opts := []ClientOption{
		WithLogger(log),
		WithTimeout(s.Timeout),
		WithBackoff(s.RetryBaseDelay, s.RetryMaxDelay),
		WithRetryPolicy(retry.Exponential{
			Attempts:      s.RetryAttempts,
			BaseDelay:     s.RetryBaseDelay,
			MaxDelay:      s.RetryMaxDelay,
			Jitter:        true,
			RetryNotFound: s.RetryNotFound,
		}),
	}
	if s.RateLimitRPS > 0 {
		opts = append(opts, WithRateLimit(s.RateLimitRPS, s.RateLimitBurst))
	}
	if s.TracingEnabled {
		opts = append(opts, WithTracing())
	}
	if s.BreakerName != "" {
		opts = append(opts, WithBreaker(s.BreakerName))
	}

	return NewClient(opts...), nil
}

// Resource binds a builder to an absolute URI with the client's default
// retry policy attached. URI validation is deferred to the first terminal
// operation so the fluent chain stays error-free.
func (c *Client) Resource(uri string) *Request {
	return &Request{
		client:  c,
		uri:     uri,
		params:  make(map[string]string),
		headers: make(map[string]string),
		policy:  c.policy,
	}
}

// execute runs the per-operation state machine: attempt, classify, consult
// the policy, back off, and finally either return the payload or extract the
// structured failure.
func (c *Client) execute(ctx context.Context, r *Request, method string, body []byte, bodyErr error, opts []CallOption) (Result, error) {
	var co callOpts
	for _, opt := range opts {
		opt(&co)
	}

	// Configuration errors fail before any network attempt.
	if bodyErr != nil {
		return Result{}, bodyErr
	}
	reqURL, err := r.buildURL()
	if err != nil {
		return Result{}, err
	}

	policy := r.policy
	if policy == nil {
		policy = retry.Default()
	}
	sink := co.sink
	if sink == nil {
		sink = r.sink
	}
	if sink == nil {
		sink = c.sink
	}

	op := &operation{
		id:     uuid.NewString()[:8],
		method: method,
		url:    reqURL,
		sink:   sink,
		log:    c.log,
	}

	ctx, span := c.startSpan(ctx, method, reqURL)
	defer span.end()

	op.trace("%s %s (%d body bytes)", method, reqURL, len(body))

	start := time.Now()
	var last retry.Failure
	var lastBody []byte

	for attempt := 1; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return Result{}, err
			}
		}

		status, respBody, err := c.attempt(ctx, method, reqURL, r.headerSnapshot(), body)
		c.metrics.observeAttempt(method, status, err)

		if err == nil && status >= 200 && status < 300 {
			op.trace("%d %s (%d bytes) after %d attempt(s)", status, http.StatusText(status), len(respBody), attempt)
			span.ok(status)
			c.metrics.observeOutcome(method, outcomeSuccess, time.Since(start))
			return okResult(status, respBody), nil
		}

		last = retry.Failure{Status: status, Err: err}
		lastBody = respBody

		if breakerTripped(err) {
			op.trace("circuit breaker open, giving up")
			break
		}
		if attempt >= policy.MaxAttempts() || !policy.IsTransient(last) {
			break
		}

		op.trace("attempt %d/%d failed (%s), backing off", attempt, policy.MaxAttempts(), failureText(last))
		c.metrics.observeRetry(method)
		if werr := retry.Wait(ctx, policy, attempt); werr != nil {
			return Result{}, werr
		}
	}

	// Transport-fatal: no response was ever received, so there is no status
	// or body to extract. Re-raise instead of routing to the handler.
	if last.Transport() {
		span.fail(0, last.Err)
		c.metrics.observeOutcome(method, outcomeTransport, time.Since(start))
		return Result{}, fmt.Errorf("%s %s: %w", method, reqURL, last.Err)
	}

	op.trace("failed with status %d (%d error body bytes)", last.Status, len(lastBody))
	span.fail(last.Status, nil)
	c.metrics.observeOutcome(method, outcomeHTTPError, time.Since(start))

	if co.onError != nil {
		substituted := co.onError(reqURL, last.Status, lastBody)
		return recoveredResult(reqURL, last.Status, substituted), nil
	}
	return failedResult(reqURL, last.Status, lastBody), nil
}

// attempt performs one network round trip. The response body is always
// fully consumed and closed here, never handed out.
func (c *Client) attempt(ctx context.Context, method, reqURL string, headers map[string]string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader(body))
	if err != nil {
		return 0, nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if c.tracing {
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	}

	var resp *http.Response
	if c.breaker != nil {
		resp, err = c.breaker.Execute(func() (*http.Response, error) {
			return c.hc.Do(req)
		})
	} else {
		resp, err = c.hc.Do(req)
	}
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func breakerTripped(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// operation carries per-call trace context: an id, the target and the sinks.
type operation struct {
	id     string
	method string
	url    string
	sink   ProgressSink
	log    logger.Logger
}

func (o *operation) trace(format string, args ...any) {
	msg := fmt.Sprintf("[%s] ", o.id) + fmt.Sprintf(format, args...)
	if o.sink != nil {
		o.sink.Trace(msg)
	}
	o.log.Debugf("%s", msg)
}

func failureText(f retry.Failure) string {
	if f.Transport() {
		return f.Err.Error()
	}
	return fmt.Sprintf("status %d", f.Status)
}

func (c *Client) startSpan(ctx context.Context, method, reqURL string) (context.Context, opSpan) {
	if !c.tracing {
		return ctx, opSpan{}
	}
	ctx, s := otel.Tracer(tracerName).Start(ctx, "rest."+method)
	s.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", reqURL),
	)
	return ctx, opSpan{s: s}
}
