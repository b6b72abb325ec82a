package api

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"property-maintenance-backend/internal/repository"
)

// GetTasksForProperty handles GET /api/properties/:id/tasks.
func (h *Handler) GetTasksForProperty(c *gin.Context) {
	tasks, err := h.tasks.GetTasksForProperty(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// UpsertTask handles POST /api/tasks: a "data" form field with the task JSON
// and any number of "photos" files.
func (h *Handler) UpsertTask(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	var files []*multipart.FileHeader
	form, err := c.MultipartForm()
	switch {
	case err == nil:
		files = form.File["photos"]
	case errors.Is(err, http.ErrNotMultipart):
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "upload too large"})
			return
		}
		badRequest(c, "invalid multipart form")
		return
	}

	attachments := make([]repository.Attachment, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			badRequest(c, "unreadable photo "+fh.Filename)
			return
		}
		defer f.Close()
		attachments = append(attachments, repository.Attachment{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	task, err := h.tasks.UpsertTask(c.Request.Context(), repository.UpsertTaskRequest{
		Data:   c.PostForm("data"),
		Photos: attachments,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "task": task})
}

// DeleteTask handles DELETE /api/properties/:id/tasks/:task_id.
func (h *Handler) DeleteTask(c *gin.Context) {
	if err := h.tasks.DeleteTask(c.Request.Context(), c.Param("task_id"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
