package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes

	"cluster_kita/internal/domain"     // Domain errors
	"cluster_kita/internal/identity"   // Session cookie name
	"cluster_kita/internal/middleware" // Session and profile accessors
	"cluster_kita/internal/service"    // Business operations

	"github.com/gin-gonic/gin" // Gin web framework
)

// ContactForm is posted by the onboarding and profile pages
type ContactForm struct {
	Phone string `form:"phone_number" binding:"required"` // WhatsApp number
	Block string `form:"block_number"`                    // House block, optional
}

// OnboardingPageHandler asks a signed in user without profile for contact details
func OnboardingPageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := middleware.CurrentSession(c) // Set by SessionMiddleware
		// Users that already finished onboarding go straight to the dashboard
		if _, err := svc.GetProfile(c.Request.Context(), session.UserID); err == nil {
			c.Redirect(http.StatusSeeOther, "/dashboard")
			return
		} else if !errors.Is(err, domain.ErrNotFound) {
			fail(c, err)
			return
		}
		page(c, "onboarding.html", gin.H{"Title": "Lengkapi Profil", "Session": session})
	}
}

// CompleteOnboardingHandler creates the caller's profile
func CompleteOnboardingHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := middleware.CurrentSession(c)
		var form ContactForm // Bind the posted form
		if err := c.ShouldBind(&form); err != nil {
			redirect(c, "/onboarding", "error", "Nomor WhatsApp wajib diisi")
			return
		}
		_, err := svc.CompleteOnboarding(c.Request.Context(), session.Profile(), service.ContactInput{
			Phone: form.Phone,
			Block: form.Block,
		})
		if err != nil {
			back(c, "/onboarding", err)
			return
		}
		done(c, "/dashboard", "Profil berhasil disimpan")
	}
}

// ProfilePageHandler shows the caller's profile
func ProfilePageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page(c, "profile.html", gin.H{"Title": "Profil"})
	}
}

// UpdateProfileHandler changes the caller's phone and block
func UpdateProfileHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form ContactForm
		if err := c.ShouldBind(&form); err != nil {
			redirect(c, "/profile", "error", "Nomor WhatsApp wajib diisi")
			return
		}
		err := svc.UpdateContact(c.Request.Context(), middleware.CurrentUser(c), service.ContactInput{
			Phone: form.Phone,
			Block: form.Block,
		})
		if err != nil {
			back(c, "/profile", err)
			return
		}
		done(c, "/profile", "Profil diperbarui")
	}
}

// SignOutHandler drops the session cookie
func SignOutHandler(signInURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(identity.SessionCookie, "", -1, "/", "", c.Request.TLS != nil, true) // Expire the cookie
		c.Redirect(http.StatusSeeOther, signInURL)
	}
}
