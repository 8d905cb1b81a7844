package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sdmtech/sdmcrm/internal/domain/events"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/internal/domain/ports"
	"github.com/sdmtech/sdmcrm/pkg/auth"
	"github.com/sdmtech/sdmcrm/pkg/errors"
	"github.com/sdmtech/sdmcrm/pkg/utils"
	"go.uber.org/zap"
)

const invalidCredentials = "Invalid email or password"

// AuthService handles sign-up, sign-in, session validation and passwords.
type AuthService struct {
	tx       Transactor
	users    UserStore
	sessions SessionStore
	profiles ProfileStore
	roles    RoleStore
	resolver *RoleResolver
	tokens   *auth.TokenIssuer
	events   ports.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
	touches  sync.WaitGroup
}

// AuthDeps groups the collaborators of AuthService.
type AuthDeps struct {
	Tx       Transactor
	Users    UserStore
	Sessions SessionStore
	Profiles ProfileStore
	Roles    RoleStore
	Tokens   *auth.TokenIssuer
	Events   ports.EventPublisher
	Logger   *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(d AuthDeps) *AuthService {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &AuthService{
		tx:       d.Tx,
		users:    d.Users,
		sessions: d.Sessions,
		profiles: d.Profiles,
		roles:    d.Roles,
		resolver: NewRoleResolver(d.Roles, d.Logger),
		tokens:   d.Tokens,
		events:   d.Events,
		logger:   d.Logger,
		now:      time.Now,
	}
}

// SignUpInput is the body of POST /api/auth/signup.
type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// SignUp creates an account and its profile and signs the user in. The
// first account created while no admin exists becomes admin; later
// accounts have no role until an admin assigns one.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*models.LoginResult, error) {
	user, profile, err := s.prepareAccount(in)
	if err != nil {
		return nil, err
	}
	email, now := user.Email, user.CreatedAt

	role := models.RoleNone
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return errors.NewConflictError("User", "email", email)
		}
		if err := s.users.Insert(ctx, user); err != nil {
			return err
		}
		if err := s.profiles.Insert(ctx, profile); err != nil {
			return err
		}

		admins, err := s.roles.CountByRole(ctx, models.RoleAdmin)
		if err != nil {
			return err
		}
		if admins == 0 {
			role = models.RoleAdmin
			return s.roles.ReplaceRole(ctx, user.ID, role, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("👤 account created", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return s.openSession(ctx, user, profile, role)
}

// prepareAccount validates sign-up input and builds the user and profile rows.
func (s *AuthService) prepareAccount(in SignUpInput) (*models.User, *models.Profile, error) {
	email := auth.NormalizeEmail(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	if !auth.IsValidEmail(email) {
		return nil, nil, errors.NewValidationError("email", "Please enter a valid email address")
	}
	if fullName == "" {
		return nil, nil, errors.NewValidationError("full_name", "Full name is required")
	}
	if err := auth.ValidatePasswordStrength(in.Password); err != nil {
		return nil, nil, errors.NewValidationError("password", err.Error())
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{ID: utils.GenerateID(), Email: email, PasswordHash: hash, CreatedAt: now}
	profile := &models.Profile{
		ID:        utils.GenerateID(),
		UserID:    user.ID,
		FullName:  fullName,
		Email:     email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return user, profile, nil
}

// Login authenticates a user and creates a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	email = auth.NormalizeEmail(email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil || !auth.VerifyPassword(password, user.PasswordHash) {
		s.logger.Warn("⚠️ login failed", zap.String("email", email))
		return nil, errors.NewUnauthorizedError(invalidCredentials)
	}

	profile, err := s.profiles.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if profile != nil && !profile.IsActive {
		return nil, errors.NewUnauthorizedError("Account is deactivated")
	}

	role := s.resolver.Resolve(ctx, user.ID)
	return s.openSession(ctx, user, profile, role)
}

func (s *AuthService) openSession(ctx context.Context, user *models.User, profile *models.Profile, role models.Role) (*models.LoginResult, error) {
	name := user.Email
	if profile != nil && profile.FullName != "" {
		name = profile.FullName
	}

	token, claims, err := s.tokens.GenerateToken(auth.UserSession{ID: user.ID, Name: name, Email: user.Email})
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := s.now().UTC()
	session := &models.Session{
		ID:           claims.ID,
		UserID:       user.ID,
		ExpiresAt:    claims.ExpiresAt.Time.UTC(),
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := s.sessions.InsertSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	if err := s.users.TouchSignIn(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record sign-in time", zap.String("user_id", user.ID), zap.Error(err))
	}

	principal := models.Principal{UserID: user.ID, Email: user.Email, Name: name, Role: role, SessionID: session.ID}
	s.publish(ctx, events.AuthSignedIn, principal)

	s.logger.Info("🔑 user signed in", zap.String("user_id", user.ID), zap.String("session_id", session.ID))
	return &models.LoginResult{Token: token, ExpiresAt: session.ExpiresAt, User: principal, Role: role}, nil
}

// Authenticate validates a bearer token against its session row and the
// owner's profile, and resolves the caller's current role.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, errors.NewUnauthorizedError("Invalid or expired token")
	}

	session, err := s.sessions.GetSession(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if session == nil || session.UserID != claims.User.ID {
		return nil, errors.NewUnauthorizedError("Session not found")
	}
	if session.IsRevoked {
		return nil, errors.NewUnauthorizedError("Session has been revoked")
	}
	if !session.Active(s.now()) {
		return nil, errors.NewUnauthorizedError("Session has expired")
	}

	profile, err := s.profiles.FindByUserID(ctx, claims.User.ID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if profile != nil && !profile.IsActive {
		return nil, errors.NewUnauthorizedError("Account is deactivated")
	}

	s.TouchSession(session.ID)

	return &models.Principal{
		UserID:    claims.User.ID,
		Email:     claims.User.Email,
		Name:      claims.User.Name,
		Role:      s.resolver.Resolve(ctx, claims.User.ID),
		SessionID: session.ID,
	}, nil
}

// TouchSession updates the last activity timestamp without blocking the request.
func (s *AuthService) TouchSession(sessionID string) {
	s.touches.Add(1)
	go func() {
		defer s.touches.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Activity timestamps are best effort.
		_ = s.sessions.UpdateLastActivity(ctx, sessionID, s.now())
	}()
}

// Wait blocks until pending session touches have finished.
func (s *AuthService) Wait() {
	s.touches.Wait()
}

// Logout revokes the caller's session.
func (s *AuthService) Logout(ctx context.Context, p *models.Principal) error {
	if err := s.sessions.RevokeSession(ctx, p.SessionID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	s.publish(ctx, events.AuthSignedOut, *p)
	s.logger.Info("👋 user logged out", zap.String("user_id", p.UserID), zap.String("session_id", p.SessionID))
	return nil
}

// ChangePasswordInput is the body of POST /api/auth/change-password.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword verifies the current password, stores the new one and
// revokes the caller's other sessions.
func (s *AuthService) ChangePassword(ctx context.Context, p *models.Principal, in ChangePasswordInput) error {
	if err := auth.ValidatePasswordStrength(in.NewPassword); err != nil {
		return errors.NewValidationError("new_password", err.Error())
	}

	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("failed to retrieve user: %w", err)
	}
	if user == nil {
		return errors.NewNotFoundError("User", p.UserID)
	}
	if !auth.VerifyPassword(in.CurrentPassword, user.PasswordHash) {
		return errors.NewUnauthorizedError("Current password is incorrect")
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.UpdatePassword(ctx, p.UserID, hash); err != nil {
			return err
		}
		_, err := s.sessions.RevokeOtherSessions(ctx, p.UserID, p.SessionID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.publish(ctx, events.AuthPasswordChanged, *p)
	s.logger.Info("🔐 password changed", zap.String("user_id", p.UserID))
	return nil
}

// Session returns the caller's user, role and profile.
func (s *AuthService) Session(ctx context.Context, p *models.Principal) (*models.SessionView, error) {
	profile, err := s.profiles.FindByUserID(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &models.SessionView{User: *p, Role: p.Role, Profile: profile}, nil
}

func (s *AuthService) publish(ctx context.Context, t events.EventType, p models.Principal) {
	evt := events.AuthEvent{
		Type:       t,
		UserID:     p.UserID,
		SessionID:  p.SessionID,
		Role:       string(p.Role),
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, t, evt); err != nil {
		s.logger.Warn("auth event handler failed", zap.String("event", t.String()), zap.Error(err))
	}
}
