package middleware

import (
	"time"

	"omnicast/infrastructure/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records count and latency per matched route template.
func Metrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		metrics.RecordHTTPRequest(ctx.Request.Method, ctx.FullPath(), ctx.Writer.Status(), time.Since(start))
	}
}
