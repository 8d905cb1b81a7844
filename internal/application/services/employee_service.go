package services

import (
	"context"
	"time"

	"github.com/sdmtech/sdmcrm/internal/domain/events"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/internal/domain/ports"
	"github.com/sdmtech/sdmcrm/pkg/errors"
	"go.uber.org/zap"
)

// EmployeeService lets admins manage profiles and roles.
type EmployeeService struct {
	tx       Transactor
	profiles ProfileStore
	roles    RoleStore
	sessions SessionStore
	events   ports.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewEmployeeService creates an EmployeeService.
func NewEmployeeService(tx Transactor, profiles ProfileStore, roles RoleStore, sessions SessionStore, bus ports.EventPublisher, logger *zap.Logger) *EmployeeService {
	return &EmployeeService{tx: tx, profiles: profiles, roles: roles, sessions: sessions, events: bus, logger: logger, now: time.Now}
}

// List returns every profile with its role, newest first.
func (s *EmployeeService) List(ctx context.Context) ([]models.Employee, error) {
	out, err := s.profiles.ListWithRoles(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Employee{}
	}
	return out, nil
}

// UpdateProfile edits another user's profile.
func (s *EmployeeService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.Profile, error) {
	upd, err := in.toUpdate()
	if err != nil {
		return nil, err
	}
	ok, err := s.profiles.Update(ctx, userID, upd, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFoundError("Profile", userID)
	}
	return s.profiles.FindByUserID(ctx, userID)
}

// ToggleActive flips is_active. Admins cannot deactivate themselves.
// Deactivating a profile revokes every session of that user.
func (s *EmployeeService) ToggleActive(ctx context.Context, actor *models.Principal, userID string) (*models.Profile, error) {
	if actor.UserID == userID {
		return nil, errors.NewValidationError("user_id", "you cannot deactivate your own account")
	}
	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.NewNotFoundError("Profile", userID)
	}

	active := !p.IsActive
	now := s.now().UTC()
	var revoked int64
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.profiles.SetActive(ctx, userID, active, now); err != nil {
			return err
		}
		if active {
			return nil
		}
		revoked, err = s.sessions.RevokeAllSessions(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.IsActive = active

	if !active {
		s.logger.Info("🚫 profile deactivated", zap.String("user_id", userID),
			zap.Int64("sessions_revoked", revoked), zap.String("by", actor.UserID))
		// An empty session ID ends every session of the user.
		evt := events.AuthEvent{Type: events.AuthSignedOut, UserID: userID, OccurredAt: now}
		if err := s.events.Publish(ctx, events.AuthSignedOut, evt); err != nil {
			s.logger.Warn("sign-out handler failed", zap.Error(err))
		}
	}
	return p, nil
}

// AssignRole replaces the role of userID. The delete and insert run in one
// transaction so the user never holds two roles.
func (s *EmployeeService) AssignRole(ctx context.Context, actor *models.Principal, userID string, role models.Role) error {
	if !role.IsValid() {
		return errors.NewValidationError("role", "role must be admin or employee")
	}
	if actor.UserID == userID && role != models.RoleAdmin {
		return errors.NewValidationError("role", "you cannot remove your own admin role")
	}

	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return errors.NewNotFoundError("Profile", userID)
	}

	now := s.now().UTC()
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.roles.ReplaceRole(ctx, userID, role, now)
	})
	if err != nil {
		return err
	}

	s.logger.Info("role assigned", zap.String("user_id", userID), zap.String("role", string(role)), zap.String("by", actor.UserID))
	evt := events.AuthEvent{Type: events.AuthRoleChanged, UserID: userID, Role: string(role), OccurredAt: now}
	if err := s.events.Publish(ctx, events.AuthRoleChanged, evt); err != nil {
		s.logger.Warn("role change handler failed", zap.Error(err))
	}
	return nil
}
