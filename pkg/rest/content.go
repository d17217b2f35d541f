package rest

import (
	"context"
	"net/http"
)

// ContentRequest wraps a Request plus a payload snapshot and exposes the
// content-bearing terminal operations. Fluent setters delegate back to the
// parent request, so configuration stays additive and order-independent.
type ContentRequest struct {
	req  *Request
	body []byte
	err  error
}

// Parameter upserts a query parameter on the parent request.
func (cr *ContentRequest) Parameter(key, value string) *ContentRequest {
	cr.req.Parameter(key, value)
	return cr
}

// Header upserts a header on the parent request.
func (cr *ContentRequest) Header(key, value string) *ContentRequest {
	cr.req.Header(key, value)
	return cr
}

// ContentType is a convenience for Header("Content-Type", value).
func (cr *ContentRequest) ContentType(value string) *ContentRequest {
	return cr.Header("Content-Type", value)
}

// Retry replaces the retry policy on the parent request.
func (cr *ContentRequest) Retry(attempts int, notFoundTransient bool) *ContentRequest {
	cr.req.Retry(attempts, notFoundTransient)
	return cr
}

// Put sends the payload as the body of a PUT request. Content-Length is
// derived from the snapshot's byte count.
func (cr *ContentRequest) Put(ctx context.Context, opts ...CallOption) (Result, error) {
	return cr.req.client.execute(ctx, cr.req, http.MethodPut, cr.body, cr.err, opts)
}

// Post sends the payload as the body of a POST request.
func (cr *ContentRequest) Post(ctx context.Context, opts ...CallOption) (Result, error) {
	return cr.req.client.execute(ctx, cr.req, http.MethodPost, cr.body, cr.err, opts)
}
