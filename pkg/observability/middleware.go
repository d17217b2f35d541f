package observability

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// GinMiddleware creates a Gin middleware for automatic server-side tracing.
// Combined with the client's WithTracing option, spans stitch across the
// request boundary through W3C trace context headers.
func GinMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}
