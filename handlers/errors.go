package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"slotbook/models"
	"slotbook/utils"
)

func statusFor(err error) int {
	switch models.ErrorCode(err) {
	case models.CodeValidation:
		return http.StatusBadRequest
	case models.CodeConflict, models.CodeInvalidTransition:
		return http.StatusConflict
	case models.CodeNotFound:
		return http.StatusNotFound
	case models.CodeForbidden:
		return http.StatusForbidden
	case models.CodeGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body with the status its code maps to.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		getLogger(c).Error("Unexpected error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		utils.JSONError(c, status, "Internal Server Error", "")
		return
	}
	details := ""
	if status == http.StatusBadGateway {
		details = err.Error()
	}
	utils.JSONError(c, status, models.ErrorMessage(err), details)
}
