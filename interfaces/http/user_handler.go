package http

import (
	"net/http"

	"omnicast/usecase"

	"github.com/gin-gonic/gin"
)

type IUserHandler interface {
	GetCurrentUser(c *gin.Context)
}

type UserHandler struct {
	userUsecase usecase.IUserUsecase
}

func NewUserHandler(userUsecase usecase.IUserUsecase) IUserHandler {
	return &UserHandler{userUsecase: userUsecase}
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.userUsecase.GetCurrentUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, "Failed to fetch user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}
