package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/Giorgio223/ton-pvp-app/models"
	"github.com/Giorgio223/ton-pvp-app/pkg/middleware"
	"github.com/Giorgio223/ton-pvp-app/pkg/service"
)

type Error struct {
	Message string `json:"message"`
}

func newErrorResponse(c *gin.Context, statusCode int, message string) {
	entry := middleware.Logger(c).WithField("status", statusCode)
	if statusCode >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Warn(message)
	}
	c.AbortWithStatusJSON(statusCode, Error{Message: message})
}

func wrapOkJSON(c *gin.Context, response map[string]interface{}) {
	c.JSON(http.StatusOK, response)
}

// respondError maps service errors onto status codes. A failed payout still returns the
// withdrawal, which is already failed with its hold released.
func respondError(c *gin.Context, err error, w models.Withdrawal) {
	var (
		validation *service.ValidationError
		payout     *service.PayoutError
		storage    *service.StorageError
	)
	switch {
	case errors.As(err, &validation):
		newErrorResponse(c, http.StatusBadRequest, validation.Error())
	case errors.Is(err, service.ErrNotFound):
		newErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInsufficientFunds):
		newErrorResponse(c, http.StatusConflict, "insufficient funds")
	case errors.Is(err, service.ErrBadStatus):
		newErrorResponse(c, http.StatusConflict, err.Error())
	case errors.As(err, &payout):
		middleware.Logger(c).WithError(err).Error("payout failed")
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
			"message":    payout.Error(),
			"withdrawal": w,
		})
	case errors.As(err, &storage):
		newErrorResponse(c, http.StatusServiceUnavailable, "storage unavailable")
	default:
		newErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
