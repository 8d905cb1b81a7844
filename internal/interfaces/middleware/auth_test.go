package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	appErrors "github.com/sdmtech/sdmcrm/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type stubAuthenticator struct {
	principals map[string]*models.Principal
	err        error
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*models.Principal, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.principals[token]
	if !ok {
		return nil, appErrors.NewUnauthorizedError("Invalid or expired token")
	}
	return p, nil
}

func newRouter(authn Authenticator, guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{RequireAuth(authn)}, guards...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetPrincipal(c).UserID})
	})
	r.GET("/protected", handlers...)
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	authn := stubAuthenticator{principals: map[string]*models.Principal{
		"good": {UserID: "u1", Role: models.RoleEmployee},
	}}
	r := newRouter(authn)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, do(r, tc.header).Code)
		})
	}
}

func TestRequireAuth_QueryToken(t *testing.T) {
	authn := stubAuthenticator{principals: map[string]*models.Principal{"good": {UserID: "u1"}}}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/protected", RequireAuth(authn), ok)
	r.GET("/events", RequireAuthSSE(authn), ok)

	tests := []struct {
		path string
		want int
	}{
		{"/protected?access_token=good", http.StatusUnauthorized},
		{"/events?access_token=good", http.StatusOK},
		{"/events?access_token=nope", http.StatusUnauthorized},
		{"/events", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRequireAuth_BackendFailure(t *testing.T) {
	r := newRouter(stubAuthenticator{err: fmt.Errorf("database error: connection refused")})
	w := do(r, "Bearer good")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireRole(t *testing.T) {
	authn := stubAuthenticator{principals: map[string]*models.Principal{
		"admin":    {UserID: "a", Role: models.RoleAdmin},
		"employee": {UserID: "e", Role: models.RoleEmployee},
		"norole":   {UserID: "n", Role: models.RoleNone},
	}}

	tests := []struct {
		name  string
		guard gin.HandlerFunc
		token string
		want  int
	}{
		{"admin route admits admin", RequireAdmin(), "admin", http.StatusOK},
		{"admin route rejects employee", RequireAdmin(), "employee", http.StatusForbidden},
		{"admin route rejects no role", RequireAdmin(), "norole", http.StatusForbidden},
		{"staff route admits admin", RequireStaff(), "admin", http.StatusOK},
		{"staff route admits employee", RequireStaff(), "employee", http.StatusOK},
		{"staff route rejects no role", RequireStaff(), "norole", http.StatusForbidden},
		{"empty role list rejects everyone", RequireRole(), "admin", http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(authn, tc.guard)
			assert.Equal(t, tc.want, do(r, "Bearer "+tc.token).Code)
		})
	}
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
}

func TestCors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Cors([]string{"https://sdm.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://sdm.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://sdm.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
