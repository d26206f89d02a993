package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"cluster_kita/internal/domain"   // Domain models
	"cluster_kita/internal/identity" // Session token verification

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// Context keys set by the middleware chain
const (
	SessionKey = "session"
	UserIDKey  = "userID"
	UserKey    = "user"
)

// SessionTokenVerifier turns a raw token into a session
type SessionTokenVerifier interface {
	Verify(token string) (*identity.Session, error)
}

// sessionToken reads the session cookie first and the Authorization header second
func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(identity.SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// SessionMiddleware validates the identity session and redirects anonymous visitors to sign in
func SessionMiddleware(v SessionTokenVerifier, signInURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := v.Verify(sessionToken(c)) // Fails with ErrUnauthenticated on missing or bad tokens
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"path":  c.Request.URL.Path,
				"error": err,
			}).Debug("Session rejected")
			c.Redirect(http.StatusSeeOther, signInURL)
			c.Abort()
			return
		}
		c.Set(SessionKey, session)       // Store the verified session
		c.Set(UserIDKey, session.UserID) // Store the subject id
		c.Next()
	}
}

// CurrentSession returns the verified session, if any
func CurrentSession(c *gin.Context) *identity.Session {
	if v, ok := c.Get(SessionKey); ok {
		if s, ok := v.(*identity.Session); ok {
			return s
		}
	}
	return nil
}

// CurrentUser returns the profile loaded for this request, if any
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(UserKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
