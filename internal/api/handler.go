package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"property-maintenance-backend/internal/auth"
	"property-maintenance-backend/internal/guestsync"
	"property-maintenance-backend/internal/repository"
	"property-maintenance-backend/internal/store"
)

// Deps are the collaborators the handlers call into.
type Deps struct {
	Auth       auth.Authenticator
	Properties *repository.Properties
	Tasks      *repository.Tasks
	Comments   *repository.Comments
	Dashboard  *repository.Dashboard
	Sync       *guestsync.Job
	Store      store.Store
	WebPush    *webpush.Options
	Log        *zap.Logger

	// MaxUploadBytes bounds the multipart body of a task upsert.
	MaxUploadBytes int64
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	auth           auth.Authenticator
	properties     *repository.Properties
	tasks          *repository.Tasks
	comments       *repository.Comments
	dashboard      *repository.Dashboard
	sync           *guestsync.Job
	store          store.Store
	webpush        *webpush.Options
	maxUploadBytes int64
	log            *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	maxUpload := d.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	return &Handler{
		auth:           d.Auth,
		properties:     d.Properties,
		tasks:          d.Tasks,
		comments:       d.Comments,
		dashboard:      d.Dashboard,
		sync:           d.Sync,
		store:          d.Store,
		webpush:        d.WebPush,
		maxUploadBytes: maxUpload,
		log:            log,
	}
}

// fail maps err to a status code and writes the error envelope.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	default:
		h.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}
