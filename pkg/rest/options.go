package rest

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/avalab/restcore/pkg/logger"
	"github.com/avalab/restcore/pkg/retry"
)

// ClientOption configures the rest client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithTimeout sets the transport-level timeout on the underlying client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.hc.Timeout = d
	}
}

// WithLogger sets a logger for the client. Trace events are mirrored to it
// at debug level.
func WithLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// WithRetryPolicy replaces the default retry policy attached to new requests.
func WithRetryPolicy(p retry.Policy) ClientOption {
	return func(c *Client) {
		c.policy = p
	}
}

// WithBackoff sets the base and cap delays used when Request.Retry builds
// its exponential policy.
func WithBackoff(base, max time.Duration) ClientOption {
	return func(c *Client) {
		c.backoffBase = base
		c.backoffMax = max
	}
}

// WithBreaker wires a circuit breaker around every network attempt. Once the
// breaker opens, attempts fail fast without touching the network and the
// retry loop stops immediately.
func WithBreaker(name string) ClientOption {
	return func(c *Client) {
		c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name: name,
		})
	}
}

// WithRateLimit applies a client-side request rate limit across all
// operations issued through this client.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMetrics attaches a prometheus collector recording attempts, retries,
// failures and durations.
func WithMetrics(m *Collector) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTracing enables OpenTelemetry spans per operation and W3C trace
// context propagation on outgoing requests.
func WithTracing() ClientOption {
	return func(c *Client) {
		c.tracing = true
	}
}

// WithProgress sets a default progress sink for all operations. Per-request
// and per-call sinks take precedence.
func WithProgress(sink ProgressSink) ClientOption {
	return func(c *Client) {
		c.sink = sink
	}
}

// CallOption configures a single terminal operation.
type CallOption func(*callOpts)

type callOpts struct {
	sink    ProgressSink
	onError ErrorHandler
}

// WithProgressSink routes this operation's trace events to the given sink.
func WithProgressSink(sink ProgressSink) CallOption {
	return func(o *callOpts) {
		o.sink = sink
	}
}

// OnFailure registers an ErrorHandler for this operation. It is invoked at
// most once, after the retry budget is exhausted on an HTTP-level failure,
// and its return value becomes the operation's payload.
func OnFailure(h ErrorHandler) CallOption {
	return func(o *callOpts) {
		o.onError = h
	}
}
