package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"property-maintenance-backend/internal/auth"
	"property-maintenance-backend/internal/mw"
)

// Login exchanges credentials for a session token, also set as a cookie.
func (h *Handler) Login(c *gin.Context) {
	var creds auth.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		badRequest(c, "invalid request")
		return
	}

	session, err := h.auth.Authenticate(c.Request.Context(), creds)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(mw.SessionCookie, session.Token, maxAge, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

// Logout revokes the caller's session token.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), mw.BearerToken(c)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.SetCookie(mw.SessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetSession returns the caller's current session.
func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.auth.CurrentSession(c.Request.Context(), mw.BearerToken(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}
