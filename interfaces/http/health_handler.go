package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type IHealthHandler interface {
	Healthz(c *gin.Context)
}

type HealthHandler struct {
	storageDriver string
}

func NewHealthHandler(storageDriver string) IHealthHandler {
	return &HealthHandler{storageDriver: storageDriver}
}

// Healthz returns OK for health checks
func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "storage": h.storageDriver})
}
