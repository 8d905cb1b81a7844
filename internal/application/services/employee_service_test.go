package services

import (
	"context"
	"testing"

	"github.com/sdmtech/sdmcrm/internal/domain/events"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	appErrors "github.com/sdmtech/sdmcrm/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEmployeeService_AssignRole(t *testing.T) {
	admin := &models.Principal{UserID: "adm-1", Role: models.RoleAdmin}

	t.Run("replaces the role and announces it", func(t *testing.T) {
		profiles, roles, bus := new(MockProfileStore), new(MockRoleStore), &recordingBus{}
		svc := NewEmployeeService(&passthroughTx{}, profiles, roles, new(MockSessionStore), bus, zap.NewNop())
		profiles.On("FindByUserID", mock.Anything, "emp-1").Return(&models.Profile{UserID: "emp-1", IsActive: true}, nil)
		roles.On("ReplaceRole", mock.Anything, "emp-1", models.RoleEmployee, mock.Anything).Return(nil)

		require.NoError(t, svc.AssignRole(context.Background(), admin, "emp-1", models.RoleEmployee))

		assert.Equal(t, []events.EventType{events.AuthRoleChanged}, bus.types())
		evt := bus.payloads[0].(events.AuthEvent)
		assert.Equal(t, "emp-1", evt.UserID)
		assert.Equal(t, "employee", evt.Role)
	})

	tests := []struct {
		name   string
		userID string
		role   models.Role
		check  func(error) bool
	}{
		{"unknown role", "emp-1", models.Role("owner"), appErrors.IsValidation},
		{"admin demoting self", "adm-1", models.RoleEmployee, appErrors.IsValidation},
		{"missing profile", "ghost", models.RoleEmployee, appErrors.IsNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			profiles, roles := new(MockProfileStore), new(MockRoleStore)
			svc := NewEmployeeService(&passthroughTx{}, profiles, roles, new(MockSessionStore), &recordingBus{}, zap.NewNop())
			profiles.On("FindByUserID", mock.Anything, "ghost").Return(nil, nil)

			err := svc.AssignRole(context.Background(), admin, tc.userID, tc.role)

			assert.True(t, tc.check(err), "unexpected error: %v", err)
			roles.AssertNotCalled(t, "ReplaceRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestEmployeeService_ToggleActive(t *testing.T) {
	admin := &models.Principal{UserID: "adm-1", Role: models.RoleAdmin}

	t.Run("admin cannot deactivate self", func(t *testing.T) {
		profiles := new(MockProfileStore)
		svc := NewEmployeeService(&passthroughTx{}, profiles, new(MockRoleStore), new(MockSessionStore), &recordingBus{}, zap.NewNop())

		_, err := svc.ToggleActive(context.Background(), admin, "adm-1")

		assert.True(t, appErrors.IsValidation(err))
		profiles.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deactivating revokes every session", func(t *testing.T) {
		profiles, sessions, bus := new(MockProfileStore), new(MockSessionStore), &recordingBus{}
		tx := &passthroughTx{}
		svc := NewEmployeeService(tx, profiles, new(MockRoleStore), sessions, bus, zap.NewNop())
		profiles.On("FindByUserID", mock.Anything, "emp-1").Return(&models.Profile{UserID: "emp-1", IsActive: true}, nil)
		profiles.On("SetActive", mock.Anything, "emp-1", false, mock.Anything).Return(true, nil)
		sessions.On("RevokeAllSessions", mock.Anything, "emp-1").Return(int64(2), nil)

		p, err := svc.ToggleActive(context.Background(), admin, "emp-1")

		require.NoError(t, err)
		assert.False(t, p.IsActive)
		assert.Equal(t, 1, tx.calls)
		assert.Equal(t, []events.EventType{events.AuthSignedOut}, bus.types())
		evt := bus.payloads[0].(events.AuthEvent)
		assert.Equal(t, "emp-1", evt.UserID)
		assert.Empty(t, evt.SessionID)
		profiles.AssertExpectations(t)
		sessions.AssertExpectations(t)
	})

	t.Run("reactivating leaves sessions alone", func(t *testing.T) {
		profiles, sessions, bus := new(MockProfileStore), new(MockSessionStore), &recordingBus{}
		svc := NewEmployeeService(&passthroughTx{}, profiles, new(MockRoleStore), sessions, bus, zap.NewNop())
		profiles.On("FindByUserID", mock.Anything, "emp-1").Return(&models.Profile{UserID: "emp-1", IsActive: false}, nil)
		profiles.On("SetActive", mock.Anything, "emp-1", true, mock.Anything).Return(true, nil)

		p, err := svc.ToggleActive(context.Background(), admin, "emp-1")

		require.NoError(t, err)
		assert.True(t, p.IsActive)
		assert.Empty(t, bus.types())
		sessions.AssertNotCalled(t, "RevokeAllSessions", mock.Anything, mock.Anything)
	})
}
