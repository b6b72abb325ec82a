package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"property-maintenance-backend/internal/mw"
	"property-maintenance-backend/internal/repository"
)

// GetProperties handles GET /api/properties.
func (h *Handler) GetProperties(c *gin.Context) {
	properties, err := h.properties.GetProperties(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, properties)
}

// AddProperty handles POST /api/properties. The owner defaults to the caller.
func (h *Handler) AddProperty(c *gin.Context) {
	var in repository.PropertyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	if in.OwnerID == "" {
		if s := mw.SessionFrom(c); s != nil {
			in.OwnerID = s.UserID
		}
	}

	p, err := h.properties.AddProperty(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "property": p})
}

// GetProperty handles GET /api/properties/:id. ?include=tasks inlines the task list.
func (h *Handler) GetProperty(c *gin.Context) {
	withTasks := c.Query("include") == "tasks"
	p, err := h.properties.GetPropertyByID(c.Request.Context(), c.Param("id"), withTasks)
	if err != nil {
		h.fail(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "property not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}
