package services

import (
	"context"
	"testing"

	"github.com/sdmtech/sdmcrm/internal/domain/events"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/pkg/constants"
	appErrors "github.com/sdmtech/sdmcrm/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newNotificationFixture() (*NotificationService, *MockNotificationStore, *MockRoleStore, *EventBus) {
	store := new(MockNotificationStore)
	roles := new(MockRoleStore)
	bus := NewEventBus(nil)
	svc := NewNotificationService(store, roles, zap.NewNop())
	svc.Register(bus)
	return svc, store, roles, bus
}

func TestNotificationService_AssignmentNotifiesAssignee(t *testing.T) {
	_, store, _, bus := newNotificationFixture()
	store.On("Insert", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return n.RecipientID == "emp-1" && n.NotificationType == constants.NotificationTaskAssigned && n.Body == "Landing page"
	})).Return(nil).Once()

	err := bus.Publish(context.Background(), events.TaskAssigned, events.TaskEvent{TaskID: "t1", Title: "Landing page", ActorID: "adm-1", AssigneeID: "emp-1"})

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestNotificationService_SelfAssignmentIsSilent(t *testing.T) {
	_, store, _, bus := newNotificationFixture()

	err := bus.Publish(context.Background(), events.TaskAssigned, &events.TaskEvent{TaskID: "t1", ActorID: "adm-1", AssigneeID: "adm-1"})

	require.NoError(t, err)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestNotificationService_SubmissionNotifiesEveryAdmin(t *testing.T) {
	_, store, roles, bus := newNotificationFixture()
	roles.On("ListUserIDsByRole", mock.Anything, models.RoleAdmin).Return([]string{"adm-1", "adm-2"}, nil)
	store.On("Insert", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return n.NotificationType == constants.NotificationTaskSubmitted
	})).Return(nil).Twice()

	err := bus.Publish(context.Background(), events.TaskSubmitted, events.TaskEvent{TaskID: "t1", Title: "Landing page", ActorID: "emp-1"})

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestNotificationService_ReviewCarriesDecisionAndComments(t *testing.T) {
	_, store, _, bus := newNotificationFixture()
	var got *models.Notification
	store.On("Insert", mock.Anything, mock.AnythingOfType("*models.Notification")).
		Run(func(args mock.Arguments) { got = args.Get(1).(*models.Notification) }).
		Return(nil)

	err := bus.Publish(context.Background(), events.SubmissionReviewed, events.TaskEvent{
		TaskID: "t1", Title: "Landing page", AssigneeID: "emp-1", To: "rejected", Comments: "Add tests",
	})

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Submission rejected", got.Title)
	assert.Equal(t, "Landing page: Add tests", got.Body)
	assert.Equal(t, "emp-1", got.RecipientID)
}

func TestNotificationService_MarkReadOfSomeoneElsesNotification(t *testing.T) {
	svc, store, _, _ := newNotificationFixture()
	store.On("MarkRead", mock.Anything, "n1", "emp-2").Return(false, nil)

	err := svc.MarkRead(context.Background(), "emp-2", "n1")

	assert.True(t, appErrors.IsNotFound(err))
}

func TestNotificationService_Unregister(t *testing.T) {
	svc, _, _, bus := newNotificationFixture()
	require.Equal(t, 1, bus.HandlerCount(events.TaskOverdue))

	svc.Unregister()

	assert.Equal(t, 0, bus.HandlerCount(events.TaskOverdue))
	assert.Equal(t, 0, bus.HandlerCount(events.TaskAssigned))
}
