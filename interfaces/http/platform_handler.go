package http

import (
	"net/http"

	"omnicast/domain/model"
	"omnicast/usecase"

	"github.com/gin-gonic/gin"
)

type IPlatformHandler interface {
	List(c *gin.Context)
	Update(c *gin.Context)
	Connect(c *gin.Context)
	Disconnect(c *gin.Context)
}

type PlatformHandler struct {
	platformUsecase usecase.IPlatformUsecase
}

func NewPlatformHandler(platformUsecase usecase.IPlatformUsecase) IPlatformHandler {
	return &PlatformHandler{platformUsecase: platformUsecase}
}

func (h *PlatformHandler) List(c *gin.Context) {
	platforms, err := h.platformUsecase.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, "Failed to fetch platforms", err)
		return
	}
	c.JSON(http.StatusOK, platforms)
}

// Update merges the supplied fields; absent keys are left as they are and an
// explicit null clears a nullable field. The :platform segment is the numeric
// id here and the platform name on connect and disconnect.
func (h *PlatformHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "platform")
	if !ok {
		return
	}
	var patch model.PlatformPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid platform data", err)
		return
	}
	platform, err := h.platformUsecase.Update(c.Request.Context(), currentUserID(c), id, patch)
	if err != nil {
		respondError(c, "Failed to update platform", err)
		return
	}
	c.JSON(http.StatusOK, platform)
}

func (h *PlatformHandler) Connect(c *gin.Context) {
	platform, created, err := h.platformUsecase.Connect(c.Request.Context(), currentUserID(c), c.Param("platform"))
	if err != nil {
		respondError(c, "Failed to connect platform", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, platform)
}

func (h *PlatformHandler) Disconnect(c *gin.Context) {
	platform, err := h.platformUsecase.Disconnect(c.Request.Context(), currentUserID(c), c.Param("platform"))
	if err != nil {
		respondError(c, "Failed to disconnect platform", err)
		return
	}
	c.JSON(http.StatusOK, platform)
}
