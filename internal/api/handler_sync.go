package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LodgifySync handles GET /api/cron/lodgify-sync: one reconciliation pass.
func (h *Handler) LodgifySync(c *gin.Context) {
	report, err := h.sync.RunOnce(c.Request.Context())
	if err != nil {
		h.log.Error("lodgify sync failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
			"status":  h.sync.FailureStatus(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":                  true,
		"status":                   report.Status,
		"message":                  report.Message,
		"updated_properties_count": report.Count,
		"updated_properties":       report.Changes,
	})
}
