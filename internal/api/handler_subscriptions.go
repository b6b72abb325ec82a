package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"property-maintenance-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint             string   `json:"endpoint" binding:"required,url"`
	P256DH               string   `json:"p256dh" binding:"required"`
	Auth                 string   `json:"auth" binding:"required"`
	SubscribedProperties []string `json:"subscribed_properties"`
}

// PutSubscription creates or replaces a browser subscription and the set of
// properties it follows.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	subscription := &model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}
	if err := h.store.SaveSubscription(c.Request.Context(), subscription, req.SubscribedProperties); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription removes a subscription and its property links.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	if err := h.store.DeleteSubscription(c.Request.Context(), req.Endpoint); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// rawQueryParam reads key from the raw query. Push endpoints are URLs that
// browsers do not always escape, so a value that fails to unescape is used as is.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if v, ok := strings.CutPrefix(kv, key+"="); ok {
			if unescaped, err := url.QueryUnescape(v); err == nil {
				return unescaped, true
			}
			return v, true
		}
	}
	return "", false
}

// GetSubscription returns the properties a subscription follows.
func (h *Handler) GetSubscription(c *gin.Context) {
	endpoint, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || endpoint == "" {
		badRequest(c, "endpoint is required")
		return
	}

	subscription, err := h.store.GetSubscription(c.Request.Context(), endpoint)
	if err != nil {
		h.fail(c, err)
		return
	}
	if subscription == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "subscription not found"})
		return
	}

	propertyIDs := make([]string, len(subscription.Properties))
	for i, p := range subscription.Properties {
		propertyIDs[i] = p.ID
	}
	c.JSON(http.StatusOK, gin.H{"subscribed_properties": propertyIDs})
}

// GetVAPIDPublicKey returns the VAPID public key browsers subscribe with.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "vapid keys are not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
