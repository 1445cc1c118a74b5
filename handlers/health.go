package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"slotbook/utils"
)

// Health reports the last dependency snapshot taken by the health monitor.
func Health(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.CheckedAt.IsZero() && !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": http.StatusText(code),
		"store":  status.Store,
		"redis":  status.Redis,
		"since":  status.CheckedAt,
	})
}
