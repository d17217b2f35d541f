package rest

import "bytes"

// Result is the outcome of a terminal operation: either Ok with the response
// payload, or Failed with the status code and raw error body. Transport-level
// failures never produce a Result; they surface as ordinary Go errors.
type Result struct {
	uri       string
	status    int
	body      []byte
	failed    bool
	recovered bool
}

func okResult(status int, body []byte) Result {
	return Result{status: status, body: body}
}

func failedResult(uri string, status int, body []byte) Result {
	return Result{uri: uri, status: status, body: body, failed: true}
}

// recoveredResult is a Failed result whose payload was substituted by an
// ErrorHandler. It reports Ok but keeps the original status for inspection.
func recoveredResult(uri string, status int, body []byte) Result {
	return Result{uri: uri, status: status, body: body, recovered: true}
}

// Ok reports whether the operation succeeded (or was recovered by a handler).
func (r Result) Ok() bool { return !r.failed }

// Recovered reports whether the payload came from an ErrorHandler.
func (r Result) Recovered() bool { return r.recovered }

// Status returns the HTTP status code of the final response.
func (r Result) Status() int { return r.status }

// Bytes returns the payload: the response body on success, the raw error
// body on failure, or the handler's substitution when recovered.
func (r Result) Bytes() []byte { return r.body }

// Text returns the payload decoded as text.
func (r Result) Text() string { return string(r.body) }

// Stream returns the payload as a seekable in-memory reader. The body is
// fully materialized before the terminal operation returns, so the caller
// never holds a live network handle.
func (r Result) Stream() *bytes.Reader { return bytes.NewReader(r.body) }

// OrElse maps a Failed result to the fallback value, preserving the
// success payload otherwise.
func (r Result) OrElse(fallback string) string {
	if r.failed {
		return fallback
	}
	return r.Text()
}

// BytesOr is OrElse for binary payloads.
func (r Result) BytesOr(fallback []byte) []byte {
	if r.failed {
		return fallback
	}
	return r.body
}

// Err returns nil for Ok results and a *StatusError for Failed ones.
func (r Result) Err() error {
	if !r.failed {
		return nil
	}
	return &StatusError{URI: r.uri, Status: r.status, Body: r.body}
}

// ProgressSink consumes human-readable trace strings describing request and
// response events. It is purely observational and must not block; events may
// be dropped or delivered best-effort.
type ProgressSink interface {
	Trace(message string)
}

// SinkFunc adapts a plain function to the ProgressSink interface.
type SinkFunc func(message string)

func (f SinkFunc) Trace(message string) { f(message) }

// ErrorHandler is invoked at most once per failed terminal operation with
// the request URI, the final status code and the raw error body. Its return
// value becomes the operation's payload, letting callers substitute a
// fallback for genuine failures.
type ErrorHandler func(uri string, status int, body []byte) []byte
