package services

import (
	"context"

	"github.com/sdmtech/sdmcrm/internal/domain/events"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"go.uber.org/zap"
)

// CreateAdmin creates an admin account, or grants admin to the existing
// account with the same email. It returns the user id and whether a new
// account was created.
func (s *AuthService) CreateAdmin(ctx context.Context, in SignUpInput) (string, bool, error) {
	user, profile, err := s.prepareAccount(in)
	if err != nil {
		return "", false, err
	}

	created := false
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.users.FindByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			user = existing
		} else {
			if err := s.users.Insert(ctx, user); err != nil {
				return err
			}
			if err := s.profiles.Insert(ctx, profile); err != nil {
				return err
			}
			created = true
		}
		return s.roles.ReplaceRole(ctx, user.ID, models.RoleAdmin, s.now().UTC())
	})
	if err != nil {
		return "", false, err
	}

	s.logger.Info("👑 admin granted", zap.String("user_id", user.ID), zap.Bool("created", created))
	s.publish(ctx, events.AuthRoleChanged, models.Principal{UserID: user.ID, Email: user.Email, Role: models.RoleAdmin})
	return user.ID, created, nil
}
