package middleware

import (
	"time"

	"signalmesh/pkg/logger"
	"signalmesh/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	// RequestIDKey is the gin context key for the request ID
	RequestIDKey = "request_id"
	// RequestIDHeader is the header carrying the request ID
	RequestIDHeader = "X-Request-ID"
)

// RequestIDMiddleware tags every request with a unique ID. An inbound
// X-Request-ID is honored so callers can correlate across services.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = utils.GenerateRequestID()
		}

		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)

		c.Next()
	}
}

// RequestLoggingMiddleware logs every completed request. The gin context is
// passed as the logging context so request_id and identity ride along.
func RequestLoggingMiddleware(cl *logger.ContextLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		cl.LogRequest(c, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Milliseconds())
	}
}
