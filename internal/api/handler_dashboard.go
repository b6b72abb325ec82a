package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDashboard handles GET /api/dashboard.
func (h *Handler) GetDashboard(c *gin.Context) {
	data, err := h.dashboard.GetDashboardData(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}
