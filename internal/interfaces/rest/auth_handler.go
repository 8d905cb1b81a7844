package rest

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sdmtech/sdmcrm/internal/application/services"
	"github.com/sdmtech/sdmcrm/internal/domain/events"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/pkg/constants"
)

const sseKeepAlive = 25 * time.Second

// AuthService defines the auth operations used by AuthHandler.
type AuthService interface {
	SignUp(ctx context.Context, in services.SignUpInput) (*models.LoginResult, error)
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	Logout(ctx context.Context, p *models.Principal) error
	Session(ctx context.Context, p *models.Principal) (*models.SessionView, error)
	ChangePassword(ctx context.Context, p *models.Principal, in services.ChangePasswordInput) error
}

// AuthEvents streams auth-state changes of one user.
type AuthEvents interface {
	Listen(userID string) (<-chan events.AuthEvent, func())
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	svc    AuthService
	stream AuthEvents
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(svc AuthService, stream AuthEvents) *AuthHandler {
	return &AuthHandler{svc: svc, stream: stream}
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignUp handles POST /api/auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req services.SignUpInput
	if !BindJSON(c, &req) {
		return
	}
	res, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !BindJSON(c, &req) {
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	HandleDeleteEnvelope(c, "Logged out successfully", func() error {
		return h.svc.Logout(c.Request.Context(), GetPrincipal(c))
	})
}

// Session handles GET /api/auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	view, err := h.svc.Session(c.Request.Context(), GetPrincipal(c))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordInput
	if !BindJSON(c, &req) {
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), GetPrincipal(c), req); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Password changed successfully"})
}

// Events handles GET /api/auth/events, a server-sent-events stream of the
// caller's auth-state changes. The stream ends once its session does.
func (h *AuthHandler) Events(c *gin.Context) {
	p := GetPrincipal(c)
	ch, cancel := h.stream.Listen(p.UserID)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("ready", gin.H{"user_id": p.UserID, "role": p.Role})
	c.Writer.Flush()

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case evt, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(evt.Type), evt)
			return !endsSession(evt, p.SessionID)
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"ts": time.Now().UTC()})
			return true
		}
	})
}

// endsSession reports whether evt terminates the session sessionID.
func endsSession(evt events.AuthEvent, sessionID string) bool {
	switch evt.Type {
	case events.AuthSignedOut:
		return evt.SessionID == "" || evt.SessionID == sessionID
	case events.AuthPasswordChanged:
		// The session that changed the password is the only one kept.
		return evt.SessionID != sessionID
	}
	return false
}
