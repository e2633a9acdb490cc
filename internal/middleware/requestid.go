package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sweepgoat/backend/pkg/response"
)

// HeaderRequestID carries the request correlation ID in both directions.
const HeaderRequestID = "X-Request-ID"

// ContextRequestID is the gin context key holding the request ID.
const ContextRequestID = "request_id"

const maxRequestIDLen = 64

// RequestID reuses a caller supplied X-Request-ID or generates one, echoes it back and
// stores a request-scoped logger for handlers and later middleware.
func RequestID(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.New().String()
		}
		c.Request.Header.Set(HeaderRequestID, requestID)
		c.Header(HeaderRequestID, requestID)
		c.Set(ContextRequestID, requestID)
		c.Set(response.ContextLogger, logger.With(zap.String("request_id", requestID)))
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or a no-op logger outside a request.
func LoggerFrom(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(response.ContextLogger); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}
