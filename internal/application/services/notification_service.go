package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sdmtech/sdmcrm/internal/domain"
	"github.com/sdmtech/sdmcrm/internal/domain/events"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/internal/domain/ports"
	"github.com/sdmtech/sdmcrm/pkg/constants"
	"github.com/sdmtech/sdmcrm/pkg/errors"
	"github.com/sdmtech/sdmcrm/pkg/utils"
	"go.uber.org/zap"
)

// NotificationService turns task events into in-app notifications and
// serves them to their recipients.
type NotificationService struct {
	notifications NotificationStore
	roles         RoleStore
	logger        *zap.Logger
	now           func() time.Time
	unsubscribe   []func()
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(notifications NotificationStore, roles RoleStore, logger *zap.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, roles: roles, logger: logger, now: time.Now}
}

// Register subscribes the service to the task events it fans out.
func (s *NotificationService) Register(bus ports.EventPublisher) {
	s.unsubscribe = append(s.unsubscribe,
		bus.Subscribe(events.TaskAssigned, s.onAssigned),
		bus.Subscribe(events.TaskSubmitted, s.onSubmitted),
		bus.Subscribe(events.SubmissionReviewed, s.onReviewed),
		bus.Subscribe(events.TaskOverdue, s.onOverdue),
	)
}

// Unregister removes the subscriptions made by Register.
func (s *NotificationService) Unregister() {
	for _, fn := range s.unsubscribe {
		fn()
	}
	s.unsubscribe = nil
}

// List returns the newest notifications of recipientID.
func (s *NotificationService) List(ctx context.Context, recipientID string) ([]models.Notification, error) {
	out, err := s.notifications.ListForRecipient(ctx, recipientID, constants.NotificationListLimit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Notification{}
	}
	return out, nil
}

// MarkRead marks one of recipientID's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, id string) error {
	ok, err := s.notifications.MarkRead(ctx, id, recipientID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("Notification", id)
	}
	return nil
}

// MarkAllRead marks every notification of recipientID as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return s.notifications.MarkAllRead(ctx, recipientID)
}

func (s *NotificationService) notify(ctx context.Context, recipientID, kind, title, body, link string) error {
	if recipientID == "" {
		return nil
	}
	n := &models.Notification{
		ID:               utils.GenerateID(),
		RecipientID:      recipientID,
		Title:            title,
		Body:             body,
		Link:             link,
		NotificationType: kind,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.notifications.Insert(ctx, n); err != nil {
		return fmt.Errorf("failed to notify %s: %w", recipientID, err)
	}
	return nil
}

func taskEvent(payload interface{}) (events.TaskEvent, bool) {
	switch e := payload.(type) {
	case events.TaskEvent:
		return e, true
	case *events.TaskEvent:
		if e != nil {
			return *e, true
		}
	}
	return events.TaskEvent{}, false
}

func (s *NotificationService) onAssigned(ctx context.Context, payload interface{}) error {
	e, ok := taskEvent(payload)
	if !ok || e.AssigneeID == e.ActorID {
		return nil
	}
	return s.notify(ctx, e.AssigneeID, constants.NotificationTaskAssigned,
		"New task assigned", e.Title, "/crm/my-tasks")
}

// onSubmitted notifies every admin.
func (s *NotificationService) onSubmitted(ctx context.Context, payload interface{}) error {
	e, ok := taskEvent(payload)
	if !ok {
		return nil
	}
	admins, err := s.roles.ListUserIDsByRole(ctx, models.RoleAdmin)
	if err != nil {
		return err
	}
	for _, id := range admins {
		if err := s.notify(ctx, id, constants.NotificationTaskSubmitted,
			"Task submitted for review", e.Title, "/crm/submissions"); err != nil {
			return err
		}
	}
	return nil
}

func (s *NotificationService) onReviewed(ctx context.Context, payload interface{}) error {
	e, ok := taskEvent(payload)
	if !ok {
		return nil
	}
	title := "Submission approved"
	if e.To == string(domain.TaskStatusRejected) {
		title = "Submission rejected"
	}
	body := e.Title
	if e.Comments != "" {
		body = fmt.Sprintf("%s: %s", e.Title, e.Comments)
	}
	return s.notify(ctx, e.AssigneeID, constants.NotificationTaskReviewed, title, body, "/crm/my-submissions")
}

func (s *NotificationService) onOverdue(ctx context.Context, payload interface{}) error {
	e, ok := taskEvent(payload)
	if !ok {
		return nil
	}
	return s.notify(ctx, e.AssigneeID, constants.NotificationTaskOverdue,
		"Task overdue", e.Title, "/crm/my-tasks")
}
