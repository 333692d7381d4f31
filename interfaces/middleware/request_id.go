package middleware

import (
	"omnicast/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestID reuses an incoming X-Request-ID or mints one, echoes it and puts
// it on the request context for logging.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		ctx.Header(RequestIDHeader, id)
		ctx.Request = ctx.Request.WithContext(logger.WithRequestID(ctx.Request.Context(), id))
		ctx.Next()
	}
}
