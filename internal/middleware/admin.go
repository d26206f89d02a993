package middleware

import (
	"net/http" // HTTP status codes

	"cluster_kita/internal/domain" // Role capabilities

	"github.com/gin-gonic/gin" // Gin web framework
)

// ErrorTemplate renders 403 and other error pages
const ErrorTemplate = "error.html"

// RequireCapability checks the freshly loaded profile against a capability
func RequireCapability(capability domain.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c) // Set by ProfileMiddleware
		if user == nil {
			// No profile on this request
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		// Check the role against the capability table
		if !user.Can(capability) {
			c.HTML(http.StatusForbidden, ErrorTemplate, gin.H{
				"Title":   "Akses Ditolak",
				"Status":  http.StatusForbidden,
				"Message": "Akses ditolak. Halaman ini khusus admin.",
				"User":    user,
			})
			c.Abort()
			return
		}
		c.Next() // Capability granted
	}
}
