package api

import (
	"context"
	"net/http"

	"cluster_kita/internal/domain"
	"cluster_kita/internal/identity"
	"cluster_kita/internal/metrics"
	"cluster_kita/internal/middleware"
	"cluster_kita/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators the router wires into handlers
type Deps struct {
	Service   *service.Service
	Sessions  middleware.SessionTokenVerifier
	Webhooks  *identity.WebhookVerifier
	SignInURL string
}

// NewRouter builds the gin engine with every route
func NewRouter(d Deps) (*gin.Engine, error) {
	tmpl, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	svc := d.Service

	r := gin.Default()
	r.SetHTMLTemplate(tmpl)
	r.Use(metrics.Middleware())
	r.NoRoute(func(c *gin.Context) { fail(c, domain.ErrNotFound) })

	// Infrastructure
	r.GET("/healthz", HealthHandler(svc))
	r.GET("/metrics", metrics.Handler())

	// Webhooks authenticate by signature
	r.POST("/webhooks/midtrans", MidtransWebhookHandler(svc))
	if d.Webhooks != nil {
		r.POST("/webhooks/identity", IdentityWebhookHandler(svc, d.Webhooks))
	} else {
		logrus.Warn("IDENTITY_WEBHOOK_SECRET not set, identity webhook disabled")
	}

	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/dashboard") })

	session := middleware.SessionMiddleware(d.Sessions, d.SignInURL)
	r.POST("/sign-out", SignOutHandler(d.SignInURL))

	// Signed in, profile may not exist yet
	onboarding := r.Group(middleware.OnboardingPath, session)
	onboarding.GET("", OnboardingPageHandler(svc))
	onboarding.POST("", CompleteOnboardingHandler(svc))

	// Signed in with a profile
	app := r.Group("/", session, middleware.ProfileMiddleware(svc))
	app.GET("/dashboard", DashboardPageHandler(svc))
	app.GET("/profile", ProfilePageHandler())
	app.POST("/profile", UpdateProfileHandler(svc))

	app.GET("/finance/bills", BillsPageHandler(svc))
	app.POST("/finance/pay", PayBillsHandler(svc))

	app.GET("/security/sos", SOSPageHandler(svc))
	app.POST("/security/sos", RaiseSOSHandler(svc))

	app.GET("/community/announcements", AnnouncementsPageHandler(svc))
	app.GET("/community/announcements/:id", AnnouncementPageHandler(svc))
	app.GET("/community/forum", ForumPageHandler(svc))
	app.POST("/community/forum", CreateForumPostHandler(svc))
	app.GET("/community/forum/:id", ForumThreadPageHandler(svc))
	app.POST("/community/forum/:id/replies", CreateForumReplyHandler(svc))
	app.GET("/community/polls", PollsPageHandler(svc))
	app.POST("/community/polls/:id/vote", VoteHandler(svc))
	app.GET("/community/suggestions", SuggestionsPageHandler())
	app.POST("/community/suggestions", CreateSuggestionHandler(svc))

	app.GET("/facilities/booking", BookingPageHandler(svc))
	app.POST("/facilities/booking", CreateBookingHandler(svc))
	app.POST("/facilities/booking/:id/cancel", CancelBookingHandler(svc))
	app.GET("/facilities/reports", ReportsPageHandler(svc))
	app.POST("/facilities/reports", CreateReportHandler(svc))

	app.GET("/letters", LettersPageHandler(svc))
	app.POST("/letters", CreateLetterHandler(svc))

	// Admin portal
	admin := app.Group("/admin", middleware.RequireCapability(domain.CapAdminPortal))
	admin.GET("", AdminDashboardHandler(svc))
	admin.GET("/bills", AdminBillsPageHandler(svc))
	admin.POST("/bills", CreateBillHandler(svc))
	admin.POST("/bills/overdue", MarkOverdueHandler(svc))
	admin.GET("/bills/export", ExportBillsHandler(svc))
	admin.POST("/bills/:id/status", UpdateBillStatusHandler(svc))
	admin.GET("/transactions", AdminTransactionsPageHandler(svc))
	admin.GET("/users", AdminUsersPageHandler(svc))
	admin.POST("/users/:id/role", UpdateUserRoleHandler(svc))
	admin.POST("/users/:id/block", AssignBlockHandler(svc))
	admin.GET("/announcements", AdminAnnouncementsPageHandler(svc))
	admin.POST("/announcements", CreateAnnouncementHandler(svc))
	admin.POST("/announcements/:id", UpdateAnnouncementHandler(svc))
	admin.POST("/announcements/:id/delete", DeleteAnnouncementHandler(svc))
	admin.GET("/polls", AdminPollsPageHandler(svc))
	admin.POST("/polls", CreatePollHandler(svc))
	admin.GET("/reports", AdminReportsPageHandler(svc))
	admin.POST("/reports/:id/status", UpdateReportStatusHandler(svc))
	admin.GET("/facilities", AdminFacilitiesPageHandler(svc))
	admin.POST("/facilities", CreateFacilityHandler(svc))
	admin.POST("/facilities/:id/active", SetFacilityActiveHandler(svc))
	admin.GET("/bookings", AdminBookingsPageHandler(svc))
	admin.POST("/bookings/:id/decision", DecideBookingHandler(svc))
	admin.GET("/sos", AdminSOSPageHandler(svc))
	admin.GET("/suggestions", AdminSuggestionsPageHandler(svc))
	admin.POST("/suggestions/:id/read", MarkSuggestionReadHandler(svc))
	admin.GET("/letters", AdminLettersPageHandler(svc))
	admin.POST("/letters/:id", UpdateLetterHandler(svc))
	admin.GET("/forum", AdminForumPageHandler(svc))
	admin.POST("/forum", CreateForumCategoryHandler(svc))

	return r, nil
}

// Pinger reports dependency health
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler pings the database and redis
func HealthHandler(p Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := p.Ping(c.Request.Context()); err != nil {
			logrus.WithError(err).Warn("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
