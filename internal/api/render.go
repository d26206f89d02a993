package api

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"cluster_kita/internal/domain"
	"cluster_kita/internal/middleware"
	"cluster_kita/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

// wib is the community's local time zone
var wib = domain.LocalZone

// Form layouts of date and datetime-local inputs
const (
	dateInputLayout     = "2006-01-02"
	datetimeInputLayout = "2006-01-02T15:04"
)

var templateFuncs = template.FuncMap{
	"rupiah": func(d decimal.Decimal) string { return utils.FormatRupiah(d) },
	"date": func(t time.Time) string {
		return t.In(wib).Format("02 Jan 2006")
	},
	"datetime": func(t time.Time) string {
		return t.In(wib).Format("02 Jan 2006 15:04")
	},
	"dateptr": func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.In(wib).Format("02 Jan 2006")
	},
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"can": func(u *domain.User, c string) bool { return u.Can(domain.Capability(c)) },
}

// LoadTemplates parses the embedded page templates
func LoadTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}

// page renders a template with the current user and flash messages
func page(c *gin.Context, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["User"] = middleware.CurrentUser(c)
	data["Error"] = c.Query("error")
	data["Notice"] = c.Query("notice")
	c.HTML(http.StatusOK, name, data)
}

// redirect answers a form post with a See Other and an optional flash message
func redirect(c *gin.Context, path, key, message string) {
	if message != "" {
		path += "?" + url.Values{key: {message}}.Encode()
	}
	c.Redirect(http.StatusSeeOther, path)
}

// done redirects back after a successful form post
func done(c *gin.Context, path, notice string) {
	redirect(c, path, "notice", notice)
}

// back sends user errors back to the form and everything else to the error page
func back(c *gin.Context, path string, err error) {
	if msg, ok := userMessage(err); ok {
		redirect(c, path, "error", msg)
		return
	}
	fail(c, err)
}

// userMessage returns the text shown next to a form for errors the user can fix
func userMessage(err error) (string, bool) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Message, true
	case errors.Is(err, domain.ErrDuplicate):
		return "Data sudah terdaftar", true
	case errors.Is(err, domain.ErrAlreadyVoted):
		return "Anda sudah memberikan suara pada polling ini", true
	case errors.Is(err, domain.ErrPaymentInProgress):
		return "Pembayaran lain sedang diproses, coba lagi sebentar", true
	}
	return "", false
}

// statusOf maps a domain error onto an HTTP status
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrAlreadyVoted), errors.Is(err, domain.ErrPaymentInProgress):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail renders the error page
func fail(c *gin.Context, err error) {
	status := statusOf(err)
	message := http.StatusText(status)
	switch status {
	case http.StatusForbidden:
		message = "Akses ditolak."
	case http.StatusNotFound:
		message = "Data tidak ditemukan."
	case http.StatusInternalServerError:
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"error":  err,
		}).Error("Request failed")
		message = "Terjadi kesalahan. Silakan coba lagi."
	default:
		if msg, ok := userMessage(err); ok {
			message = msg
		}
	}
	c.HTML(status, middleware.ErrorTemplate, gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
		"User":    middleware.CurrentUser(c),
	})
	c.Abort()
}

// parseLocal reads a form time in the community's zone
func parseLocal(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, wib)
}

// parseDate reads a yyyy-mm-dd input as a calendar date
func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateInputLayout, value, time.UTC)
}
