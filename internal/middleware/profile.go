package middleware

import (
	"context"
	"errors"
	"net/http"

	"cluster_kita/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// OnboardingPath is where signed in users without a profile are sent
const OnboardingPath = "/onboarding"

// ProfileLoader loads the profile of a session subject
type ProfileLoader interface {
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
}

// ProfileMiddleware re-reads the caller's profile on every request so role
// changes apply immediately.
func ProfileMiddleware(profiles ProfileLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(UserIDKey)
		if userID == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		user, err := profiles.GetProfile(c.Request.Context(), userID)
		if errors.Is(err, domain.ErrNotFound) {
			c.Redirect(http.StatusSeeOther, OnboardingPath)
			c.Abort()
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Failed to load profile")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(UserKey, user)
		c.Next()
	}
}
