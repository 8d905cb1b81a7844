package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sdmtech/sdmcrm/internal/domain/events"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/pkg/auth"
	appErrors "github.com/sdmtech/sdmcrm/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type authFixture struct {
	svc      *AuthService
	tokens   *auth.TokenIssuer
	users    *MockUserStore
	sessions *MockSessionStore
	profiles *MockProfileStore
	roles    *MockRoleStore
	bus      *recordingBus
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		tokens:   auth.NewTokenIssuer("test-secret", time.Hour),
		users:    new(MockUserStore),
		sessions: new(MockSessionStore),
		profiles: new(MockProfileStore),
		roles:    new(MockRoleStore),
		bus:      &recordingBus{},
	}
	f.svc = NewAuthService(AuthDeps{
		Tx:       &passthroughTx{},
		Users:    f.users,
		Sessions: f.sessions,
		Profiles: f.profiles,
		Roles:    f.roles,
		Tokens:   f.tokens,
		Events:   f.bus,
	})
	return f
}

func (f *authFixture) expectNewAccount(email string, admins int) {
	f.users.On("ExistsByEmail", mock.Anything, email).Return(false, nil)
	f.users.On("Insert", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	f.profiles.On("Insert", mock.Anything, mock.AnythingOfType("*models.Profile")).Return(nil)
	f.roles.On("CountByRole", mock.Anything, models.RoleAdmin).Return(admins, nil)
	f.sessions.On("InsertSession", mock.Anything, mock.AnythingOfType("*models.Session")).Return(nil)
	f.users.On("TouchSignIn", mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func TestAuthService_FirstSignUpBecomesAdmin(t *testing.T) {
	f := newAuthFixture()
	f.expectNewAccount("first@sdm.test", 0)
	f.roles.On("ReplaceRole", mock.Anything, mock.Anything, models.RoleAdmin, mock.Anything).Return(nil)

	res, err := f.svc.SignUp(context.Background(), SignUpInput{Email: " First@SDM.test ", Password: "secret1", FullName: "Ada"})

	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.Role)
	assert.Equal(t, "first@sdm.test", res.User.Email)
	assert.Equal(t, "Ada", res.User.Name)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, []events.EventType{events.AuthSignedIn}, f.bus.types())
	f.roles.AssertExpectations(t)
}

func TestAuthService_LaterSignUpsHaveNoRole(t *testing.T) {
	f := newAuthFixture()
	f.expectNewAccount("second@sdm.test", 1)

	res, err := f.svc.SignUp(context.Background(), SignUpInput{Email: "second@sdm.test", Password: "secret1", FullName: "Grace"})

	require.NoError(t, err)
	assert.Equal(t, models.RoleNone, res.Role)
	f.roles.AssertNotCalled(t, "ReplaceRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_SignUpRejects(t *testing.T) {
	tests := []struct {
		name  string
		in    SignUpInput
		check func(error) bool
	}{
		{"malformed email", SignUpInput{Email: "nope", Password: "secret1", FullName: "A"}, appErrors.IsValidation},
		{"short password", SignUpInput{Email: "a@sdm.test", Password: "123", FullName: "A"}, appErrors.IsValidation},
		{"missing name", SignUpInput{Email: "a@sdm.test", Password: "secret1", FullName: "  "}, appErrors.IsValidation},
		{"duplicate email", SignUpInput{Email: "taken@sdm.test", Password: "secret1", FullName: "A"}, appErrors.IsConflict},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newAuthFixture()
			f.users.On("ExistsByEmail", mock.Anything, "taken@sdm.test").Return(true, nil)

			_, err := f.svc.SignUp(context.Background(), tc.in)

			require.Error(t, err)
			assert.True(t, tc.check(err), "unexpected error kind: %v", err)
			f.users.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
			f.sessions.AssertNotCalled(t, "InsertSession", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	user := &models.User{ID: "u1", Email: "emp@sdm.test", PasswordHash: hash}

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("FindByEmail", mock.Anything, "emp@sdm.test").Return(user, nil)

		_, err := f.svc.Login(context.Background(), "emp@sdm.test", "wrong-one")

		require.Error(t, err)
		assert.True(t, appErrors.IsUnauthorized(err))
		assert.Contains(t, err.Error(), invalidCredentials)
	})

	t.Run("unknown email gives the same answer", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("FindByEmail", mock.Anything, "ghost@sdm.test").Return(nil, nil)

		_, err := f.svc.Login(context.Background(), "ghost@sdm.test", "secret1")

		require.Error(t, err)
		assert.Contains(t, err.Error(), invalidCredentials)
	})

	t.Run("deactivated profile", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("FindByEmail", mock.Anything, "emp@sdm.test").Return(user, nil)
		f.profiles.On("FindByUserID", mock.Anything, "u1").Return(&models.Profile{UserID: "u1", IsActive: false}, nil)

		_, err := f.svc.Login(context.Background(), "emp@sdm.test", "secret1")

		assert.True(t, appErrors.IsUnauthorized(err))
		f.sessions.AssertNotCalled(t, "InsertSession", mock.Anything, mock.Anything)
	})

	t.Run("success resolves role", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("FindByEmail", mock.Anything, "emp@sdm.test").Return(user, nil)
		f.profiles.On("FindByUserID", mock.Anything, "u1").Return(&models.Profile{UserID: "u1", FullName: "Emp", IsActive: true}, nil)
		f.roles.On("GetRole", mock.Anything, "u1").Return(models.RoleEmployee, nil)
		f.sessions.On("InsertSession", mock.Anything, mock.AnythingOfType("*models.Session")).Return(nil)
		f.users.On("TouchSignIn", mock.Anything, "u1", mock.Anything).Return(nil)

		res, err := f.svc.Login(context.Background(), "EMP@sdm.test", "secret1")

		require.NoError(t, err)
		assert.Equal(t, models.RoleEmployee, res.Role)
		assert.Equal(t, "Emp", res.User.Name)
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	tests := []struct {
		name     string
		session  func(id string) *models.Session
		role     models.Role
		roleErr  error
		inactive bool
		wantErr  bool
		wantRole models.Role
	}{
		{
			name:     "active session",
			session:  func(id string) *models.Session { return &models.Session{ID: id, UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)} },
			role:     models.RoleAdmin,
			wantRole: models.RoleAdmin,
		},
		{
			name:    "revoked session",
			session: func(id string) *models.Session { return &models.Session{ID: id, UserID: "u1", IsRevoked: true, ExpiresAt: time.Now().Add(time.Hour)} },
			wantErr: true,
		},
		{
			name:    "expired session",
			session: func(id string) *models.Session { return &models.Session{ID: id, UserID: "u1", ExpiresAt: time.Now().Add(-time.Minute)} },
			wantErr: true,
		},
		{
			name:     "deactivated profile",
			session:  func(id string) *models.Session { return &models.Session{ID: id, UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)} },
			role:     models.RoleEmployee,
			inactive: true,
			wantErr:  true,
		},
		{
			name:    "missing session",
			session: func(string) *models.Session { return nil },
			wantErr: true,
		},
		{
			name:     "role lookup failure resolves to no role",
			session:  func(id string) *models.Session { return &models.Session{ID: id, UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)} },
			role:     models.RoleNone,
			roleErr:  errors.New("connection reset"),
			wantRole: models.RoleNone,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newAuthFixture()
			token, claims, err := f.tokens.GenerateToken(auth.UserSession{ID: "u1", Name: "Ada", Email: "a@sdm.test"})
			require.NoError(t, err)

			if s := tc.session(claims.ID); s != nil {
				f.sessions.On("GetSession", mock.Anything, claims.ID).Return(s, nil)
			} else {
				f.sessions.On("GetSession", mock.Anything, claims.ID).Return(nil, nil)
			}
			f.sessions.On("UpdateLastActivity", mock.Anything, claims.ID, mock.Anything).Return(nil)
			f.roles.On("GetRole", mock.Anything, "u1").Return(tc.role, tc.roleErr)
			f.profiles.On("FindByUserID", mock.Anything, "u1").Return(&models.Profile{UserID: "u1", IsActive: !tc.inactive}, nil)

			p, err := f.svc.Authenticate(context.Background(), token)
			f.svc.Wait()

			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, appErrors.IsUnauthorized(err))
				f.roles.AssertNotCalled(t, "GetRole", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantRole, p.Role)
			assert.Equal(t, claims.ID, p.SessionID)
			assert.Equal(t, tc.wantRole.IsStaff(), p.HasRole(models.RoleAdmin, models.RoleEmployee))
		})
	}
}

func TestAuthService_AuthenticateRejectsForeignToken(t *testing.T) {
	f := newAuthFixture()
	token, _, err := auth.NewTokenIssuer("other-secret", time.Hour).GenerateToken(auth.UserSession{ID: "u1"})
	require.NoError(t, err)

	_, err = f.svc.Authenticate(context.Background(), token)

	assert.True(t, appErrors.IsUnauthorized(err))
	f.sessions.AssertNotCalled(t, "GetSession", mock.Anything, mock.Anything)
}

func TestAuthService_ChangePasswordRevokesOtherSessions(t *testing.T) {
	f := newAuthFixture()
	hash, err := auth.HashPassword("old-secret")
	require.NoError(t, err)
	p := &models.Principal{UserID: "u1", SessionID: "keep"}

	f.users.On("FindByID", mock.Anything, "u1").Return(&models.User{ID: "u1", PasswordHash: hash}, nil)
	f.users.On("UpdatePassword", mock.Anything, "u1", mock.AnythingOfType("string")).Return(nil)
	f.sessions.On("RevokeOtherSessions", mock.Anything, "u1", "keep").Return(int64(2), nil)

	err = f.svc.ChangePassword(context.Background(), p, ChangePasswordInput{CurrentPassword: "old-secret", NewPassword: "new-secret"})

	require.NoError(t, err)
	assert.Equal(t, []events.EventType{events.AuthPasswordChanged}, f.bus.types())
	f.sessions.AssertExpectations(t)
}

func TestAuthService_ChangePasswordChecksCurrent(t *testing.T) {
	f := newAuthFixture()
	hash, err := auth.HashPassword("old-secret")
	require.NoError(t, err)
	f.users.On("FindByID", mock.Anything, "u1").Return(&models.User{ID: "u1", PasswordHash: hash}, nil)

	err = f.svc.ChangePassword(context.Background(), &models.Principal{UserID: "u1"}, ChangePasswordInput{CurrentPassword: "guess", NewPassword: "new-secret"})

	assert.True(t, appErrors.IsUnauthorized(err))
	f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoleResolver(t *testing.T) {
	tests := []struct {
		name string
		role models.Role
		err  error
		want models.Role
	}{
		{"admin", models.RoleAdmin, nil, models.RoleAdmin},
		{"employee", models.RoleEmployee, nil, models.RoleEmployee},
		{"no row", models.RoleNone, nil, models.RoleNone},
		{"unknown value", models.Role("superuser"), nil, models.RoleNone},
		{"lookup error", models.RoleNone, errors.New("timeout"), models.RoleNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			roles := new(MockRoleStore)
			roles.On("GetRole", mock.Anything, "u1").Return(tc.role, tc.err)

			got := NewRoleResolver(roles, zap.NewNop()).Resolve(context.Background(), "u1")

			assert.Equal(t, tc.want, got)
		})
	}
}
