package services

import (
	"context"
	"sync"
	"time"

	"github.com/sdmtech/sdmcrm/internal/domain"
	"github.com/sdmtech/sdmcrm/internal/domain/events"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/internal/domain/ports"
	"github.com/sdmtech/sdmcrm/internal/infrastructure/persistence"
	"github.com/stretchr/testify/mock"
)

// passthroughTx runs fn directly; the mocks stand in for the database.
type passthroughTx struct{ calls int }

func (t *passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

// recordingBus captures published events synchronously.
type recordingBus struct {
	mu        sync.Mutex
	published []events.EventType
	payloads  []interface{}
}

func (b *recordingBus) Subscribe(events.EventType, ports.EventHandler) func() { return func() {} }

func (b *recordingBus) Publish(_ context.Context, t events.EventType, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, t)
	b.payloads = append(b.payloads, payload)
	return nil
}

func (b *recordingBus) PublishAsync(ctx context.Context, t events.EventType, payload interface{}) {
	_ = b.Publish(ctx, t, payload)
}

func (b *recordingBus) types() []events.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.EventType(nil), b.published...)
}

type MockUserStore struct{ mock.Mock }

func (m *MockUserStore) Insert(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, id, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *MockUserStore) TouchSignIn(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

type MockSessionStore struct{ mock.Mock }

func (m *MockSessionStore) InsertSession(ctx context.Context, s *models.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSessionStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionStore) RevokeSession(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSessionStore) RevokeOtherSessions(ctx context.Context, userID, keepID string) (int64, error) {
	args := m.Called(ctx, userID, keepID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionStore) RevokeAllSessions(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionStore) UpdateLastActivity(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockSessionStore) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockProfileStore struct{ mock.Mock }

func (m *MockProfileStore) Insert(ctx context.Context, p *models.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProfileStore) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileStore) ListWithRoles(ctx context.Context) ([]models.Employee, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Employee), args.Error(1)
}

func (m *MockProfileStore) Update(ctx context.Context, userID string, upd persistence.ProfileUpdate, at time.Time) (bool, error) {
	args := m.Called(ctx, userID, upd, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileStore) SetActive(ctx context.Context, userID string, active bool, at time.Time) (bool, error) {
	args := m.Called(ctx, userID, active, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockRoleStore struct{ mock.Mock }

func (m *MockRoleStore) GetRole(ctx context.Context, userID string) (models.Role, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.Role), args.Error(1)
}

func (m *MockRoleStore) ReplaceRole(ctx context.Context, userID string, role models.Role, at time.Time) error {
	return m.Called(ctx, userID, role, at).Error(0)
}

func (m *MockRoleStore) CountByRole(ctx context.Context, role models.Role) (int, error) {
	args := m.Called(ctx, role)
	return args.Int(0), args.Error(1)
}

func (m *MockRoleStore) ListUserIDsByRole(ctx context.Context, role models.Role) ([]string, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockTaskStore struct{ mock.Mock }

func (m *MockTaskStore) Insert(ctx context.Context, t *models.Task) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTaskStore) FindByID(ctx context.Context, id string) (*models.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskStore) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockTaskStore) ListOverdue(ctx context.Context, now time.Time) ([]models.Task, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockTaskStore) UpdateFields(ctx context.Context, id string, upd models.TaskUpdate, at time.Time) (bool, error) {
	args := m.Called(ctx, id, upd, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskStore) TransitionStatus(ctx context.Context, id string, from, to domain.TaskStatus, at time.Time) (bool, error) {
	args := m.Called(ctx, id, from, to, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskStore) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskStore) StatusCounts(ctx context.Context, assignedTo string) (models.TaskCounts, error) {
	args := m.Called(ctx, assignedTo)
	return args.Get(0).(models.TaskCounts), args.Error(1)
}

func (m *MockTaskStore) AssigneeStatusCounts(ctx context.Context) ([]persistence.AssigneeStatusCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]persistence.AssigneeStatusCount), args.Error(1)
}

type MockSubmissionStore struct{ mock.Mock }

func (m *MockSubmissionStore) Insert(ctx context.Context, s *models.TaskSubmission) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSubmissionStore) FindByID(ctx context.Context, id string) (*models.TaskSubmission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskSubmission), args.Error(1)
}

func (m *MockSubmissionStore) List(ctx context.Context, submittedBy string) ([]models.TaskSubmission, error) {
	args := m.Called(ctx, submittedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TaskSubmission), args.Error(1)
}

func (m *MockSubmissionStore) Review(ctx context.Context, id, status string, comments *string, reviewerID string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, status, comments, reviewerID, at)
	return args.Bool(0), args.Error(1)
}

type MockNotificationStore struct{ mock.Mock }

func (m *MockNotificationStore) Insert(ctx context.Context, n *models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationStore) ListForRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, recipientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationStore) MarkRead(ctx context.Context, id, recipientID string) (bool, error) {
	args := m.Called(ctx, id, recipientID)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationStore) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}
