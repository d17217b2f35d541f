package rest

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// opSpan is a nil-safe wrapper around the per-operation span, so the request
// path reads the same whether tracing is enabled or not.
type opSpan struct {
	s trace.Span
}

func (o opSpan) ok(status int) {
	if o.s == nil {
		return
	}
	o.s.SetAttributes(attribute.Int("http.status_code", status))
	o.s.SetStatus(codes.Ok, "")
}

func (o opSpan) fail(status int, err error) {
	if o.s == nil {
		return
	}
	if status > 0 {
		o.s.SetAttributes(attribute.Int("http.status_code", status))
		o.s.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		return
	}
	if err != nil {
		o.s.RecordError(err)
		o.s.SetStatus(codes.Error, err.Error())
	}
}

func (o opSpan) end() {
	if o.s != nil {
		o.s.End()
	}
}
