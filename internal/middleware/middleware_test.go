package middleware

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cluster_kita/internal/domain"
	"cluster_kita/internal/identity"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type profiles map[string]*domain.User

func (p profiles) GetProfile(_ context.Context, id string) (*domain.User, error) {
	if u, ok := p[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func newEngine(t *testing.T, users profiles) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	v, err := identity.NewVerifier(secret, "")
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New(ErrorTemplate).Parse(`{{.Message}}`)))
	auth := r.Group("/", SessionMiddleware(v, "https://accounts.example/sign-in"), ProfileMiddleware(users))
	auth.GET("/dashboard", func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Name)
	})
	auth.GET("/admin", RequireCapability(domain.CapAdminPortal), func(c *gin.Context) {
		c.String(http.StatusOK, "admin")
	})
	return r
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := identity.SignSession(secret, identity.Session{UserID: userID, Name: "Test"}, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestAnonymousRedirectsToSignIn(t *testing.T) {
	r := newEngine(t, profiles{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "https://accounts.example/sign-in", w.Header().Get("Location"))
}

func TestBadTokenRedirectsToSignIn(t *testing.T) {
	r := newEngine(t, profiles{})
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestMissingProfileRedirectsToOnboarding(t *testing.T) {
	r := newEngine(t, profiles{})
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: identity.SessionCookie, Value: token(t, "user_1")})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, OnboardingPath, w.Header().Get("Location"))
}

func TestSessionCookieLoadsProfile(t *testing.T) {
	r := newEngine(t, profiles{"user_1": {ID: "user_1", Name: "Sari", Role: domain.RoleResident}})
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: identity.SessionCookie, Value: token(t, "user_1")})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sari", w.Body.String())
}

func TestRequireCapability(t *testing.T) {
	users := profiles{
		"user_1":  {ID: "user_1", Role: domain.RoleResident},
		"admin_1": {ID: "admin_1", Role: domain.RoleAdmin},
	}
	r := newEngine(t, users)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "user_1"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Akses ditolak")

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "admin_1"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// role changes apply on the next request
	users["admin_1"].Role = domain.RoleResident
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
