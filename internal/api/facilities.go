package api

import (
	"time"

	"cluster_kita/internal/domain"
	"cluster_kita/internal/middleware"
	"cluster_kita/internal/service"

	"github.com/gin-gonic/gin"
)

// BookingPageHandler lists bookable facilities and the caller's bookings
func BookingPageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		facilities, err := svc.ListActiveFacilities(ctx)
		if err != nil {
			fail(c, err)
			return
		}
		bookings, err := svc.ListBookingsForUser(ctx, middleware.CurrentUser(c))
		if err != nil {
			fail(c, err)
			return
		}
		page(c, "booking.html", gin.H{"Title": "Booking Fasilitas", "Facilities": facilities, "Bookings": bookings})
	}
}

// BookingForm reserves a facility slot
type BookingForm struct {
	FacilityID string `form:"facility_id" binding:"required"`
	Start      string `form:"start_time" binding:"required"` // datetime-local in WIB
	End        string `form:"end_time" binding:"required"`
	Notes      string `form:"notes"`
}

// CreateBookingHandler reserves a facility slot
func CreateBookingHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form BookingForm
		if err := c.ShouldBind(&form); err != nil {
			redirect(c, "/facilities/booking", "error", "Fasilitas dan waktu wajib diisi")
			return
		}
		start, err1 := parseLocal(datetimeInputLayout, form.Start)
		end, err2 := parseLocal(datetimeInputLayout, form.End)
		if err1 != nil || err2 != nil {
			redirect(c, "/facilities/booking", "error", "Format waktu tidak valid")
			return
		}
		booking, err := svc.CreateBooking(c.Request.Context(), middleware.CurrentUser(c), service.BookingInput{
			FacilityID: form.FacilityID,
			Start:      start,
			End:        end,
			Notes:      form.Notes,
		})
		if err != nil {
			back(c, "/facilities/booking", err)
			return
		}
		notice := "Booking dikonfirmasi"
		if booking.Status == domain.BookingPending {
			notice = "Booking menunggu persetujuan admin"
		}
		done(c, "/facilities/booking", notice)
	}
}

// CancelBookingHandler releases one of the caller's bookings
func CancelBookingHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.CancelBooking(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
			back(c, "/facilities/booking", err)
			return
		}
		done(c, "/facilities/booking", "Booking dibatalkan")
	}
}

// ReportsPageHandler lists the caller's reports
func ReportsPageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		reports, err := svc.ListReportsForUser(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			fail(c, err)
			return
		}
		page(c, "reports.html", gin.H{
			"Title":      "Laporan Fasilitas",
			"Reports":    reports,
			"Categories": domain.ReportCategories,
		})
	}
}

// ReportForm files an issue
type ReportForm struct {
	Category       string `form:"category"`
	Description    string `form:"description"`
	LocationDetail string `form:"location_detail"`
	ImageURL       string `form:"image_url"`
}

// CreateReportHandler files an issue report
func CreateReportHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form ReportForm
		_ = c.ShouldBind(&form)
		if _, err := svc.CreateReport(c.Request.Context(), middleware.CurrentUser(c), service.ReportInput(form)); err != nil {
			back(c, "/facilities/reports", err)
			return
		}
		done(c, "/facilities/reports", "Laporan terkirim")
	}
}

// SOSPageHandler shows the emergency buttons and the caller's history
func SOSPageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		logs, err := svc.ListSOSForUser(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			fail(c, err)
			return
		}
		page(c, "sos.html", gin.H{"Title": "SOS Darurat", "Logs": logs, "Types": domain.SOSTypes})
	}
}

// RaiseSOSHandler logs an emergency and alerts the admins
func RaiseSOSHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, err := svc.RaiseSOS(c.Request.Context(), middleware.CurrentUser(c), domain.SOSType(c.PostForm("type")))
		if err != nil {
			back(c, "/security/sos", err)
			return
		}
		done(c, "/security/sos", entry.Type.Label()+" dilaporkan. Pengurus telah diberi tahu.")
	}
}

// LettersPageHandler lists the caller's letter requests
func LettersPageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		letters, err := svc.ListLettersForUser(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			fail(c, err)
			return
		}
		page(c, "letters.html", gin.H{"Title": "Surat Pengantar", "Letters": letters})
	}
}

// CreateLetterHandler requests a letter
func CreateLetterHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		in := service.LetterInput{LetterType: c.PostForm("letter_type"), Purpose: c.PostForm("purpose")}
		if _, err := svc.CreateLetter(c.Request.Context(), middleware.CurrentUser(c), in); err != nil {
			back(c, "/letters", err)
			return
		}
		done(c, "/letters", "Permintaan surat terkirim")
	}
}

// DashboardPageHandler shows the resident dashboard
func DashboardPageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.ResidentDashboard(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			fail(c, err)
			return
		}
		page(c, "dashboard.html", gin.H{"Title": "Dashboard", "Stats": stats, "Today": time.Now().In(wib)})
	}
}
