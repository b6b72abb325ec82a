package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"property-maintenance-backend/internal/metrics"
	"property-maintenance-backend/internal/mw"
)

// RouterOptions configures the middleware and static routes around the handlers.
type RouterOptions struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CronSecret      string
	Metrics         *metrics.Metrics
	Limiter         *mw.KeyedRateLimiter

	// UploadsDir, when set, is served under UploadsPrefix for the disk object store.
	UploadsDir    string
	UploadsPrefix string
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(mw.Logger(h.log), gin.Recovery())
	if opts.Metrics != nil {
		r.Use(mw.Metrics(opts.Metrics))
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if opts.UploadsDir != "" && opts.UploadsPrefix != "" {
		r.Static(opts.UploadsPrefix, opts.UploadsDir)
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = mw.NewKeyedRateLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst)
	}

	api := r.Group("/api")
	api.Use(mw.RateLimit(limiter, mw.ClientIP))
	{
		api.POST("/auth/login", h.Login)
		api.POST("/auth/logout", h.Logout)
		api.GET("/auth/session", h.GetSession)

		api.GET("/cron/lodgify-sync", mw.RequireSecret(opts.CronSecret), h.LodgifySync)

		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)

		authed := api.Group("")
		authed.Use(mw.RequireSession(h.auth))
		{
			authed.GET("/properties", h.GetProperties)
			authed.POST("/properties", h.AddProperty)
			authed.GET("/properties/:id", h.GetProperty)
			authed.GET("/properties/:id/tasks", h.GetTasksForProperty)
			authed.DELETE("/properties/:id/tasks/:task_id", h.DeleteTask)

			authed.POST("/tasks", h.UpsertTask)
			authed.GET("/tasks/:task_id/comments", h.GetComments)
			authed.POST("/tasks/:task_id/comments", h.AddComment)

			authed.GET("/dashboard", h.GetDashboard)

			authed.GET("/subscriptions", h.GetSubscription)
			authed.PUT("/subscriptions", h.PutSubscription)
			authed.DELETE("/subscriptions", h.DeleteSubscription)
		}
	}

	return r
}
