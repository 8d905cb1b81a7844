package rest_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sdmtech/sdmcrm/internal/application/services"
	"github.com/sdmtech/sdmcrm/internal/domain/events"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/internal/interfaces/rest"
	appErrors "github.com/sdmtech/sdmcrm/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockAuthService is a mock implementation of rest.AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignUp(ctx context.Context, in services.SignUpInput) (*models.LoginResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, p *models.Principal) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockAuthService) Session(ctx context.Context, p *models.Principal) (*models.SessionView, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SessionView), args.Error(1)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, p *models.Principal, in services.ChangePasswordInput) error {
	return m.Called(ctx, p, in).Error(0)
}

type fakeStream struct {
	ch chan events.AuthEvent
}

func (f *fakeStream) Listen(string) (<-chan events.AuthEvent, func()) {
	return f.ch, func() {}
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_SignUp(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockAuthService)
	handler := rest.NewAuthHandler(mockService, &fakeStream{})
	r := gin.New()
	r.POST("/signup", handler.SignUp)

	in := services.SignUpInput{Email: "ana@sdm.tech", Password: "secret1", FullName: "Ana"}
	mockService.On("SignUp", mock.Anything, in).Return(&models.LoginResult{
		Token: "tok",
		User:  models.Principal{UserID: "u1", Email: in.Email},
		Role:  models.RoleAdmin,
	}, nil)
	mockService.On("SignUp", mock.Anything, mock.Anything).Return(nil, appErrors.NewConflictError("User", "email", "dup@sdm.tech"))

	w := postJSON(r, "/signup", `{"email":"ana@sdm.tech","password":"secret1","full_name":"Ana"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "admin", decode(t, w)["role"])

	w = postJSON(r, "/signup", `{"email":"dup@sdm.tech","password":"secret1","full_name":"Dup"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockAuthService)
	handler := rest.NewAuthHandler(mockService, &fakeStream{})
	r := gin.New()
	r.POST("/login", handler.Login)

	mockService.On("Login", mock.Anything, "ana@sdm.tech", "wrong").
		Return(nil, appErrors.NewUnauthorizedError("Invalid email or password"))

	w := postJSON(r, "/login", `{"email":"ana@sdm.tech","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, decode(t, w)["message"], "Invalid email or password")

	w = postJSON(r, "/login", `{"email":"ana@sdm.tech"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Session(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockAuthService)
	handler := rest.NewAuthHandler(mockService, &fakeStream{})
	r := gin.New()
	r.GET("/session", withPrincipal(employee), handler.Session)

	mockService.On("Session", mock.Anything, employee).Return(&models.SessionView{
		User:    *employee,
		Role:    models.RoleEmployee,
		Profile: &models.Profile{UserID: employee.UserID, FullName: "Ana"},
	}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/session", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "employee", body["role"])
	assert.NotNil(t, body["profile"])
}

func TestAuthHandler_Events(t *testing.T) {
	gin.SetMode(gin.TestMode)

	stream := &fakeStream{ch: make(chan events.AuthEvent, 1)}
	stream.ch <- events.AuthEvent{Type: events.AuthRoleChanged, UserID: employee.UserID, Role: "admin", OccurredAt: time.Now()}
	close(stream.ch)

	handler := rest.NewAuthHandler(new(MockAuthService), stream)
	r := gin.New()
	r.GET("/events", withPrincipal(employee), handler.Events)

	w := createTestResponseRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	out := w.Body.String()
	assert.True(t, strings.Contains(out, "event:ready"))
	assert.True(t, strings.Contains(out, "event:auth.role_changed"))
}

func TestAuthHandler_EventsEndWithSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := &models.Principal{UserID: "emp-1", Role: models.RoleEmployee, SessionID: "s1"}

	tests := []struct {
		name  string
		evt   events.AuthEvent
		ended bool
	}{
		{"own logout", events.AuthEvent{Type: events.AuthSignedOut, SessionID: "s1"}, true},
		{"every session revoked", events.AuthEvent{Type: events.AuthSignedOut}, true},
		{"password changed elsewhere", events.AuthEvent{Type: events.AuthPasswordChanged, SessionID: "s2"}, true},
		{"other session logged out", events.AuthEvent{Type: events.AuthSignedOut, SessionID: "s2"}, false},
		{"password changed here", events.AuthEvent{Type: events.AuthPasswordChanged, SessionID: "s1"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.evt.UserID = p.UserID
			stream := &fakeStream{ch: make(chan events.AuthEvent, 2)}
			stream.ch <- tc.evt
			stream.ch <- events.AuthEvent{Type: events.AuthRoleChanged, UserID: p.UserID, Role: "admin"}
			close(stream.ch)

			r := gin.New()
			r.GET("/events", withPrincipal(p), rest.NewAuthHandler(new(MockAuthService), stream).Events)
			w := createTestResponseRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))

			out := w.Body.String()
			assert.Contains(t, out, "event:"+string(tc.evt.Type))
			assert.Equal(t, !tc.ended, strings.Contains(out, "event:auth.role_changed"))
		})
	}
}

// testResponseRecorder mirrors gin's unexported test helper: an
// httptest.ResponseRecorder that also implements http.CloseNotifier, which
// gin's Context.Stream requires.
type testResponseRecorder struct {
	*httptest.ResponseRecorder
	closeChannel chan bool
}

func (r *testResponseRecorder) CloseNotify() <-chan bool {
	return r.closeChannel
}

func createTestResponseRecorder() *testResponseRecorder {
	return &testResponseRecorder{httptest.NewRecorder(), make(chan bool, 1)}
}
