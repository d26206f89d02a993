package api

import (
	"context"  // Service calls
	"fmt"      // Notice formatting
	"net/http" // HTTP status codes
	"strconv"  // Form number parsing
	"time"     // Timestamps

	"cluster_kita/internal/domain"     // Domain models
	"cluster_kita/internal/middleware" // Current user accessor
	"cluster_kita/internal/service"    // Business operations

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money parsing
	"github.com/sirupsen/logrus"    // Logging library
)

// listPage renders an admin page holding a single list
func listPage[T any](name, title string, list func(context.Context, *domain.User) ([]T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := list(c.Request.Context(), middleware.CurrentUser(c)) // Services re-check the capability
		if err != nil {
			fail(c, err)
			return
		}
		page(c, name, gin.H{"Title": title, "Items": items})
	}
}

// action runs a form post and redirects back to path
func action(path, notice string, fn func(c *gin.Context, actor *domain.User) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(c, middleware.CurrentUser(c)); err != nil {
			back(c, path, err)
			return
		}
		done(c, path, notice)
	}
}

// AdminDashboardHandler shows portal-wide counters
func AdminDashboardHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.AdminDashboard(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			fail(c, err)
			return
		}
		page(c, "admin_dashboard.html", gin.H{"Title": "Admin", "Stats": stats})
	}
}

// AdminBillsPageHandler lists every bill with the residents to bill
func AdminBillsPageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		actor := middleware.CurrentUser(c)
		bills, err := svc.ListAllBills(ctx, actor)
		if err != nil {
			fail(c, err)
			return
		}
		users, err := svc.ListUsers(ctx, actor)
		if err != nil {
			fail(c, err)
			return
		}
		page(c, "admin_bills.html", gin.H{"Title": "Kelola Tagihan", "Items": bills, "Users": users, "Now": time.Now().In(wib)})
	}
}

// BillForm is the admin bill form
type BillForm struct {
	UserID  string `form:"user_id" binding:"required"` // Billed resident
	Month   int    `form:"month" binding:"required"`   // 1-12
	Year    int    `form:"year" binding:"required"`    // Billing year
	Amount  string `form:"amount" binding:"required"`  // Decimal rupiah amount
	DueDate string `form:"due_date"`                   // Optional yyyy-mm-dd
}

// CreateBillHandler issues a bill
func CreateBillHandler(svc *service.Service) gin.HandlerFunc {
	return action("/admin/bills", "Tagihan dibuat", func(c *gin.Context, actor *domain.User) error {
		var form BillForm
		if err := c.ShouldBind(&form); err != nil {
			return domain.Invalid("", "Warga, bulan, tahun dan jumlah wajib diisi")
		}
		amount, err := decimal.NewFromString(form.Amount)
		if err != nil {
			return domain.Invalid("amount", "jumlah tidak valid")
		}
		in := service.CreateBillInput{UserID: form.UserID, Month: form.Month, Year: form.Year, Amount: amount}
		if form.DueDate != "" {
			due, err := parseDate(form.DueDate)
			if err != nil {
				return domain.Invalid("due_date", "tanggal tidak valid")
			}
			in.DueDate = &due
		}
		_, err = svc.CreateBill(c.Request.Context(), actor, in)
		return err
	})
}

// UpdateBillStatusHandler sets a bill status by hand
func UpdateBillStatusHandler(svc *service.Service) gin.HandlerFunc {
	return action("/admin/bills", "Status tagihan diperbarui", func(c *gin.Context, actor *domain.User) error {
		_, err := svc.UpdateBillStatus(c.Request.Context(), actor, c.Param("id"), domain.BillStatus(c.PostForm("status")))
		return err
	})
}

// MarkOverdueHandler flags pending bills past their due date
func MarkOverdueHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := svc.MarkOverdue(c.Request.Context(), middleware.CurrentUser(c), time.Now())
		if err != nil {
			back(c, "/admin/bills", err)
			return
		}
		done(c, "/admin/bills", fmt.Sprintf("%d tagihan ditandai terlambat", n))
	}
}

// ExportBillsHandler downloads the ledger workbook
func ExportBillsHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := svc.ExportBills(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			fail(c, err)
			return
		}
		filename := fmt.Sprintf("ipl-%s.xlsx", time.Now().In(wib).Format("20060102"))
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	}
}

// AdminUsersPageHandler lists every resident
func AdminUsersPageHandler(svc *service.Service) gin.HandlerFunc {
	return listPage("admin_users.html", "Kelola Warga", svc.ListUsers)
}

// UpdateUserRoleHandler changes a role
func UpdateUserRoleHandler(svc *service.Service) gin.HandlerFunc {
	return action("/admin/users", "Peran diperbarui", func(c *gin.Context, actor *domain.User) error {
		return svc.UpdateUserRole(c.Request.Context(), actor, c.Param("id"), domain.Role(c.PostForm("role")))
	})
}

// AssignBlockHandler sets a block number
func AssignBlockHandler(svc *service.Service) gin.HandlerFunc {
	return action("/admin/users", "Blok diperbarui", func(c *gin.Context, actor *domain.User) error {
		return svc.AssignBlock(c.Request.Context(), actor, c.Param("id"), c.PostForm("block_number"))
	})
}

// AdminAnnouncementsPageHandler lists announcements with edit forms
func AdminAnnouncementsPageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.ListAnnouncements(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		page(c, "admin_announcements.html", gin.H{"Title": "Kelola Pengumuman", "Items": items})
	}
}

func announcementInput(c *gin.Context) service.AnnouncementInput {
	return service.AnnouncementInput{Title: c.PostForm("title"), Content: c.PostForm("content")}
}

// CreateAnnouncementHandler publishes an announcement
func CreateAnnouncementHandler(svc *service.Service) gin.HandlerFunc {
	return action("/admin/announcements", "Pengumuman diterbitkan", func(c *gin.Context, actor *domain.User) error {
		_, err := svc.CreateAnnouncement(c.Request.Context(), actor, announcementInput(c))
		return err
	})
}

// UpdateAnnouncementHandler edits an announcement
func UpdateAnnouncementHandler(svc *service.Service) gin.HandlerFunc {
	return action("/admin/announcements", "Pengumuman diperbarui", func(c *gin.Context, actor *domain.User) error {
		return svc.UpdateAnnouncement(c.Request.Context(), actor, c.Param("id"), announcementInput(c))
	})
}

// DeleteAnnouncementHandler removes an announcement
func DeleteAnnouncementHandler(svc *service.Service) gin.HandlerFunc {
	return action("/admin/announcements", "Pengumuman dihapus", func(c *gin.Context, actor *domain.User) error {
		return svc.DeleteAnnouncement(c.Request.Context(), actor, c.Param("id"))
	})
}

// AdminPollsPageHandler lists polls with results
func AdminPollsPageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := svc.ListPolls(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			fail(c, err)
			return
		}
		page(c, "admin_polls.html", gin.H{"Title": "Kelola Polling", "Items": views})
	}
}

// CreatePollHandler creates a poll from a question and option lines
func CreatePollHandler(svc *service.Service) gin.HandlerFunc {
	return action("/admin/polls", "Polling dibuat", func(c *gin.Context, actor *domain.User) error {
		in := service.PollInput{Question: c.PostForm("question"), Options: c.PostFormArray("options")}
		if v := c.PostForm("expires_at"); v != "" {
			expires, err := parseLocal(datetimeInputLayout, v)
			if err != nil {
				return domain.Invalid("expires_at", "tanggal tidak valid")
			}
			in.ExpiresAt = &expires
		}
		_, err := svc.CreatePoll(c.Request.Context(), actor, in)
		return err
	})
}

// AdminReportsPageHandler lists every report
func AdminReportsPageHandler(svc *service.Service) gin.HandlerFunc {
	return listPage("admin_reports.html", "Kelola Laporan", svc.ListAllReports)
}

// UpdateReportStatusHandler moves a report through its workflow
func UpdateReportStatusHandler(svc *service.Service) gin.HandlerFunc {
	return action("/admin/reports", "Status laporan diperbarui", func(c *gin.Context, actor *domain.User) error {
		return svc.UpdateReportTicketStatus(c.Request.Context(), actor, c.Param("id"), domain.ReportStatus(c.PostForm("status")))
	})
}

// AdminFacilitiesPageHandler lists every facility
func AdminFacilitiesPageHandler(svc *service.Service) gin.HandlerFunc {
	return listPage("admin_facilities.html", "Kelola Fasilitas", svc.ListAllFacilities)
}

// CreateFacilityHandler adds a facility
func CreateFacilityHandler(svc *service.Service) gin.HandlerFunc {
	return action("/admin/facilities", "Fasilitas ditambahkan", func(c *gin.Context, actor *domain.User) error {
		_, err := svc.CreateFacility(c.Request.Context(), actor, service.FacilityInput{
			Name:             c.PostForm("name"),
			Description:      c.PostForm("description"),
			ImageURL:         c.PostForm("image_url"),
			RequiresApproval: c.PostForm("requires_approval") != "", // Checkbox
		})
		return err
	})
}

// SetFacilityActiveHandler opens or closes a facility
func SetFacilityActiveHandler(svc *service.Service) gin.HandlerFunc {
	return action("/admin/facilities", "Fasilitas diperbarui", func(c *gin.Context, actor *domain.User) error {
		active, err := strconv.ParseBool(c.PostForm("active"))
		if err != nil {
			return domain.Invalid("active", "nilai tidak valid")
		}
		return svc.SetFacilityActive(c.Request.Context(), actor, c.Param("id"), active)
	})
}

// AdminBookingsPageHandler lists every booking
func AdminBookingsPageHandler(svc *service.Service) gin.HandlerFunc {
	return listPage("admin_bookings.html", "Kelola Booking", svc.ListAllBookings)
}

// DecideBookingHandler approves or rejects a pending booking
func DecideBookingHandler(svc *service.Service) gin.HandlerFunc {
	return action("/admin/bookings", "Booking diperbarui", func(c *gin.Context, actor *domain.User) error {
		return svc.DecideBooking(c.Request.Context(), actor, c.Param("id"), c.PostForm("decision") == "approve")
	})
}

// AdminTransactionsPageHandler lists every payment attempt
func AdminTransactionsPageHandler(svc *service.Service) gin.HandlerFunc {
	return listPage("admin_transactions.html", "Transaksi", svc.ListAllTransactions)
}

// AdminSOSPageHandler lists every emergency alert
func AdminSOSPageHandler(svc *service.Service) gin.HandlerFunc {
	return listPage("admin_sos.html", "Log SOS", svc.ListAllSOS)
}

// AdminSuggestionsPageHandler lists every suggestion
func AdminSuggestionsPageHandler(svc *service.Service) gin.HandlerFunc {
	return listPage("admin_suggestions.html", "Kotak Saran", svc.ListSuggestions)
}

// MarkSuggestionReadHandler flags a suggestion as read
func MarkSuggestionReadHandler(svc *service.Service) gin.HandlerFunc {
	return action("/admin/suggestions", "", func(c *gin.Context, actor *domain.User) error {
		return svc.MarkSuggestionRead(c.Request.Context(), actor, c.Param("id"))
	})
}

// AdminLettersPageHandler lists every letter request
func AdminLettersPageHandler(svc *service.Service) gin.HandlerFunc {
	return listPage("admin_letters.html", "Permintaan Surat", svc.ListAllLetters)
}

// UpdateLetterHandler sets a letter status and notes
func UpdateLetterHandler(svc *service.Service) gin.HandlerFunc {
	return action("/admin/letters", "Surat diperbarui", func(c *gin.Context, actor *domain.User) error {
		status := domain.LetterStatus(c.PostForm("status"))
		err := svc.UpdateLetter(c.Request.Context(), actor, c.Param("id"), status, c.PostForm("admin_notes"))
		if err == nil {
			logrus.WithFields(logrus.Fields{"letter_id": c.Param("id"), "status": status}).Info("Letter updated")
		}
		return err
	})
}

// AdminForumPageHandler lists forum categories
func AdminForumPageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := svc.ListForumCategories(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		page(c, "admin_forum.html", gin.H{"Title": "Kategori Forum", "Items": categories})
	}
}

// CreateForumCategoryHandler adds a forum category
func CreateForumCategoryHandler(svc *service.Service) gin.HandlerFunc {
	return action("/admin/forum", "Kategori ditambahkan", func(c *gin.Context, actor *domain.User) error {
		_, err := svc.CreateForumCategory(c.Request.Context(), actor, service.ForumCategoryInput{
			Name:        c.PostForm("name"),
			Description: c.PostForm("description"),
		})
		return err
	})
}
