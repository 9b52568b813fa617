package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mornview/reviewd/internal/middleware"
	"github.com/mornview/reviewd/internal/model"
	appErr "github.com/mornview/reviewd/internal/pkg/errors"
	"github.com/mornview/reviewd/internal/pkg/response"
	"github.com/mornview/reviewd/internal/policy"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func getIdentity(c *gin.Context) policy.Identity {
	roleValue, _ := c.Get(middleware.ContextUserRoleKey)
	role, _ := roleValue.(string)
	return policy.Identity{
		UserID: getUserID(c),
		Role:   model.ParseRole(role),
	}
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Info("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err))
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}

func validationFailed(c *gin.Context, err error) {
	response.Error(c, http.StatusUnprocessableEntity, "validation_failed", err.Error())
}
