package mw

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"property-maintenance-backend/internal/auth"
)

const (
	sessionKey = "session"

	// SessionCookie is the cookie a browser may carry the session token in.
	SessionCookie = "session"
)

// BearerToken returns the token from the Authorization header, falling back to
// the session cookie.
func BearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// RequireSession aborts with 401 unless the request carries a valid session.
func RequireSession(a auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := a.CurrentSession(c.Request.Context(), BearerToken(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
			return
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

// SessionFrom returns the session stored by RequireSession, or nil.
func SessionFrom(c *gin.Context) *auth.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*auth.Session)
	return s
}

// RequireSecret guards a route with a static bearer secret. An empty secret
// leaves the route open.
func RequireSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		token, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
			return
		}
		c.Next()
	}
}
