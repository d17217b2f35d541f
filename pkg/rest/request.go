package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/avalab/restcore/pkg/retry"
)

// Request is a fluent builder for a single endpoint: an absolute URI plus
// query parameters, headers and a retry policy. All setters return the
// builder for chaining.
//
// Configuration is configure-then-use: set up the request fully before
// issuing concurrent terminal operations on it. Mutating parameters, headers
// or the policy while operations are in flight is undefined behavior. The
// terminal operations themselves share no mutable state and may run
// concurrently.
type Request struct {
	client *Client
	uri    string

	paramKeys []string
	params    map[string]string
	headers   map[string]string

	policy retry.Policy
	sink   ProgressSink
}

// Parameter upserts a query parameter. Re-setting an existing key replaces
// its value; the key keeps its original position in the assembled query
// string (insertion order, last-write-wins).
func (r *Request) Parameter(key, value string) *Request {
	if _, ok := r.params[key]; !ok {
		r.paramKeys = append(r.paramKeys, key)
	}
	r.params[key] = value
	return r
}

// Header upserts a request header.
func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

// ContentType is a convenience for Header("Content-Type", value).
func (r *Request) ContentType(value string) *Request {
	return r.Header("Content-Type", value)
}

// Retry replaces the retry policy with an exponential one allowing attempts
// total tries. notFoundTransient opts HTTP 404 into the transient set, a
// deliberate relaxation for backends with eventual-consistency windows.
func (r *Request) Retry(attempts int, notFoundTransient bool) *Request {
	r.policy = retry.Exponential{
		Attempts:      attempts,
		BaseDelay:     r.client.backoffBase,
		MaxDelay:      r.client.backoffMax,
		Jitter:        true,
		RetryNotFound: notFoundTransient,
	}
	return r
}

// Policy replaces the retry policy with any implementation of the contract.
func (r *Request) Policy(p retry.Policy) *Request {
	r.policy = p
	return r
}

// Progress sets a progress sink for all operations issued from this request.
func (r *Request) Progress(sink ProgressSink) *Request {
	r.sink = sink
	return r
}

// Content snapshots the byte payload and returns a content-bearing request.
// The slice is copied, so callers may reuse their buffer afterwards. Header,
// parameter and retry configuration applied to the parent after this call is
// still honored at send time.
func (r *Request) Content(body []byte) *ContentRequest {
	if body == nil {
		return &ContentRequest{req: r, err: ErrNilContent}
	}
	snapshot := make([]byte, len(body))
	copy(snapshot, body)
	return &ContentRequest{req: r, body: snapshot}
}

// Text snapshots a text payload.
func (r *Request) Text(body string) *ContentRequest {
	return &ContentRequest{req: r, body: []byte(body)}
}

// ContentFrom fully buffers the source reader into memory, synchronously.
// The reader is not referenced after this call. A read failure is reported
// by the terminal operation, before any network attempt.
func (r *Request) ContentFrom(src io.Reader) *ContentRequest {
	if src == nil {
		return &ContentRequest{req: r, err: ErrNilContent}
	}
	body, err := io.ReadAll(src)
	if err != nil {
		return &ContentRequest{req: r, err: fmt.Errorf("buffering content: %w", err)}
	}
	return &ContentRequest{req: r, body: body}
}

// Get issues a GET and reads the response body fully into memory.
func (r *Request) Get(ctx context.Context, opts ...CallOption) (Result, error) {
	return r.client.execute(ctx, r, http.MethodGet, nil, nil, opts)
}

// GetStream issues a GET for binary payloads. The body is fully materialized
// in memory before return; Result.Stream yields a seekable reader over it.
func (r *Request) GetStream(ctx context.Context, opts ...CallOption) (Result, error) {
	return r.client.execute(ctx, r, http.MethodGet, nil, nil, opts)
}

// Delete issues a DELETE. All failures, connect-level and HTTP-level alike,
// flow through the same retry wrapper.
func (r *Request) Delete(ctx context.Context, opts ...CallOption) (Result, error) {
	return r.client.execute(ctx, r, http.MethodDelete, nil, nil, opts)
}

// buildURL validates the base URI and assembles the query string fresh for
// each terminal operation. Parameters are appended in insertion order after
// any query already present on the base URI.
//
// The legacy client this replaces appended pairs in reverse relative order,
// an accident of a right-fold during aggregation. Stable insertion order is
// deliberate here; see TestParameterOrderIsStable for the documented
// discrepancy.
func (r *Request) buildURL() (string, error) {
	u, err := url.Parse(r.uri)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURI, r.uri, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not absolute", ErrInvalidURI, r.uri)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURI, u.Scheme)
	}

	if len(r.paramKeys) > 0 {
		var q strings.Builder
		if u.RawQuery != "" {
			q.WriteString(u.RawQuery)
		}
		for _, key := range r.paramKeys {
			if q.Len() > 0 {
				q.WriteByte('&')
			}
			q.WriteString(url.QueryEscape(key))
			q.WriteByte('=')
			q.WriteString(url.QueryEscape(r.params[key]))
		}
		u.RawQuery = q.String()
	}

	return u.String(), nil
}

// headerSnapshot copies the configured headers for a single attempt.
func (r *Request) headerSnapshot() map[string]string {
	h := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		h[k] = v
	}
	return h
}

// bodyReader builds a fresh reader per attempt so retries resend the full
// payload.
func bodyReader(body []byte) io.Reader {
	if body == nil {
		return nil
	}
	return bytes.NewReader(body)
}
