package mw

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const (
	ctxKeyRequestID    = "request_id"
	maxRequestIDLength = 128
)

// RequestID assigns every request an ID. A client-supplied X-Request-ID is
// kept when it is reasonably short; otherwise a UUID is generated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the ID assigned by RequestID, or "" outside it.
func GetRequestID(c *gin.Context) string {
	return c.GetString(ctxKeyRequestID)
}
