package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appctx "challanbook/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"

	// HeaderTerminal names the weighing station that sent the request.
	HeaderTerminal = "X-Terminal-ID"
)

// Trace middleware adds request tracing context.
// Extracts or generates trace IDs and records the calling terminal.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		traceID := c.GetHeader(HeaderTraceID)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		ctx := appctx.WithTrace(c.Request.Context(), &appctx.TraceContext{
			TraceID:   traceID,
			RequestID: requestID,
		})
		if terminal := c.GetHeader(HeaderTerminal); terminal != "" {
			ctx = appctx.WithTerminal(ctx, terminal)
		}
		c.Request = c.Request.WithContext(ctx)

		// Store in gin context for easy access
		c.Set("trace_id", traceID)
		c.Set("request_id", requestID)

		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, traceID)

		c.Next()
	}
}
