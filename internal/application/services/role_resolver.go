package services

import (
	"context"

	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"go.uber.org/zap"
)

// RoleResolver looks up the role of a user on every request. Lookup
// failures resolve to RoleNone so gated routes deny access.
type RoleResolver struct {
	roles  RoleStore
	logger *zap.Logger
}

// NewRoleResolver creates a RoleResolver.
func NewRoleResolver(roles RoleStore, logger *zap.Logger) *RoleResolver {
	return &RoleResolver{roles: roles, logger: logger}
}

// Resolve returns the role of userID, or RoleNone.
func (r *RoleResolver) Resolve(ctx context.Context, userID string) models.Role {
	role, err := r.roles.GetRole(ctx, userID)
	if err != nil {
		r.logger.Error("role lookup failed", zap.String("user_id", userID), zap.Error(err))
		return models.RoleNone
	}
	if !role.IsValid() {
		if role != models.RoleNone {
			r.logger.Warn("ignoring unknown role", zap.String("user_id", userID), zap.String("role", string(role)))
		}
		return models.RoleNone
	}
	return role
}
