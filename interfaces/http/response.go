package http

import (
	"errors"
	"net/http"
	"strconv"

	"omnicast/domain/apperror"
	"omnicast/domain/dto"
	"omnicast/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// respondError writes {message, error} with the status of err's kind.
func respondError(c *gin.Context, message string, err error) {
	status := apperror.HTTPStatus(err)
	entry := logger.FromContext(c.Request.Context()).
		WithField("path", c.FullPath()).
		WithField("status", status).
		WithField("error", err.Error())
	if status >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Debug(message)
	}
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Message: message, Error: err.Error()})
}

func badRequest(c *gin.Context, message string, err error) {
	respondError(c, message, apperror.Validation("%v", err))
}

// paramID parses a positive integer path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err == nil && id <= 0 {
		err = errors.New("must be a positive integer")
	}
	if err != nil {
		badRequest(c, "Invalid "+name, err)
		return 0, false
	}
	return id, true
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
