package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"property-maintenance-backend/internal/mw"
	"property-maintenance-backend/internal/repository"
)

type addCommentRequest struct {
	Text string `json:"text" binding:"required,max=4000"`
}

// GetComments handles GET /api/tasks/:task_id/comments.
func (h *Handler) GetComments(c *gin.Context) {
	comments, err := h.comments.GetCommentsForTask(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// AddComment handles POST /api/tasks/:task_id/comments as the signed-in user.
func (h *Handler) AddComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	in := repository.CommentInput{TaskID: c.Param("task_id"), Text: req.Text}
	if s := mw.SessionFrom(c); s != nil {
		in.UserID = s.UserID
		in.UserDisplayName = s.DisplayName
	}

	comment, err := h.comments.AddComment(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "newComment": comment})
}
