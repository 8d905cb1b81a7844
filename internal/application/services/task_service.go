package services

import (
	"context"
	"fmt"
	"strings"
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

// TaskService manages tasks and drives their lifecycle through the
// TaskStateMachine.
type TaskService struct {
	tx          Transactor
	tasks       TaskStore
	submissions SubmissionStore
	profiles    ProfileStore
	sm          *domain.TaskStateMachine
	events      ports.EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewTaskService creates a TaskService.
func NewTaskService(tx Transactor, tasks TaskStore, submissions SubmissionStore, profiles ProfileStore, bus ports.EventPublisher, logger *zap.Logger) *TaskService {
	return &TaskService{
		tx:          tx,
		tasks:       tasks,
		submissions: submissions,
		profiles:    profiles,
		sm:          domain.NewTaskStateMachine(),
		events:      bus,
		logger:      logger,
		now:         time.Now,
	}
}

// TaskInput is the body of task create and update requests.
type TaskInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	AssignedTo  *string    `json:"assigned_to"`
	Priority    *string    `json:"priority"`
	Deadline    *time.Time `json:"deadline"`
	// Set to clear the corresponding column on update.
	ClearAssignee bool `json:"clear_assignee"`
	ClearDeadline bool `json:"clear_deadline"`
}

// List returns tasks newest first.
func (s *TaskService) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, errors.NewValidationError("status", fmt.Sprintf("unknown status %q", filter.Status))
	}
	return s.tasks.List(ctx, filter)
}

// Get returns one task.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.NewNotFoundError("Task", id)
	}
	return t, nil
}

// Create adds a pending task assigned by actor.
func (s *TaskService) Create(ctx context.Context, actor *models.Principal, in TaskInput) (*models.Task, error) {
	title := strings.TrimSpace(utils.Deref(in.Title))
	if title == "" {
		return nil, errors.NewValidationError("title", "Title is required")
	}
	priority := constants.TaskPriorityMedium
	if in.Priority != nil {
		priority = *in.Priority
	}
	if !constants.IsValidPriority(priority) {
		return nil, errors.NewValidationError("priority", "priority must be low, medium or high")
	}
	assignee := utils.StringPtr(strings.TrimSpace(utils.Deref(in.AssignedTo)))
	if assignee != nil {
		if err := s.checkAssignee(ctx, *assignee); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	t := &models.Task{
		ID:          utils.GenerateID(),
		Title:       title,
		Description: utils.StringPtr(strings.TrimSpace(utils.Deref(in.Description))),
		AssignedTo:  assignee,
		AssignedBy:  &actor.UserID,
		Priority:    priority,
		Status:      domain.TaskStatusPending,
		Deadline:    in.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Insert(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("task created", zap.String("task_id", t.ID), zap.String("by", actor.UserID))
	if assignee != nil {
		s.events.PublishAsync(ctx, events.TaskAssigned, events.TaskEvent{
			TaskID: t.ID, Title: t.Title, ActorID: actor.UserID, AssigneeID: *assignee,
		})
	}
	return s.Get(ctx, t.ID)
}

// Update edits the admin fields of a task. The status is never changed here.
func (s *TaskService) Update(ctx context.Context, actor *models.Principal, id string, in TaskInput) (*models.Task, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	upd := models.TaskUpdate{
		Description:   in.Description,
		ClearAssignee: in.ClearAssignee,
		Deadline:      in.Deadline,
		ClearDeadline: in.ClearDeadline,
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, errors.NewValidationError("title", "Title is required")
		}
		upd.Title = &title
	}
	if in.Priority != nil {
		if !constants.IsValidPriority(*in.Priority) {
			return nil, errors.NewValidationError("priority", "priority must be low, medium or high")
		}
		upd.Priority = in.Priority
	}
	if !in.ClearAssignee && in.AssignedTo != nil && *in.AssignedTo != "" {
		if err := s.checkAssignee(ctx, *in.AssignedTo); err != nil {
			return nil, err
		}
		upd.AssignedTo = in.AssignedTo
	}
	if upd.IsEmpty() {
		return current, nil
	}

	if _, err := s.tasks.UpdateFields(ctx, id, upd, s.now()); err != nil {
		return nil, err
	}

	if upd.AssignedTo != nil && utils.Deref(current.AssignedTo) != *upd.AssignedTo {
		title := current.Title
		if upd.Title != nil {
			title = *upd.Title
		}
		s.events.PublishAsync(ctx, events.TaskAssigned, events.TaskEvent{
			TaskID: id, Title: title, ActorID: actor.UserID, AssigneeID: *upd.AssignedTo,
		})
	}
	return s.Get(ctx, id)
}

// Delete removes a task with its submissions.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	ok, err := s.tasks.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("Task", id)
	}
	return nil
}

func (s *TaskService) checkAssignee(ctx context.Context, userID string) error {
	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if p == nil || !p.IsActive {
		return errors.NewValidationError("assigned_to", "assignee must be an active employee")
	}
	return nil
}

// MyTasks returns the tasks assigned to the caller.
func (s *TaskService) MyTasks(ctx context.Context, p *models.Principal, status domain.TaskStatus) ([]models.Task, error) {
	return s.List(ctx, models.TaskFilter{AssignedTo: p.UserID, Status: status})
}

// Start moves an assigned task from pending to in_progress.
func (s *TaskService) Start(ctx context.Context, p *models.Principal, id string) (*models.Task, error) {
	return s.assigneeTransition(ctx, p, id, domain.TaskActionStart, nil)
}

// Rework reopens a rejected task.
func (s *TaskService) Rework(ctx context.Context, p *models.Principal, id string) (*models.Task, error) {
	return s.assigneeTransition(ctx, p, id, domain.TaskActionRework, nil)
}

// SubmissionInput is the body of POST /my-tasks/:id/submit.
type SubmissionInput struct {
	ExternalLink *string `json:"external_link"`
	FileURL      *string `json:"file_url"`
	Comments     *string `json:"comments"`
}

// Submit hands an in-progress task in for review, recording a submission in
// the same transaction as the status change.
func (s *TaskService) Submit(ctx context.Context, p *models.Principal, id string, in SubmissionInput) (*models.Task, error) {
	sub := &models.TaskSubmission{
		ID:           utils.GenerateID(),
		TaskID:       id,
		SubmittedBy:  p.UserID,
		ExternalLink: utils.StringPtr(strings.TrimSpace(utils.Deref(in.ExternalLink))),
		FileURL:      utils.StringPtr(strings.TrimSpace(utils.Deref(in.FileURL))),
		Comments:     utils.StringPtr(strings.TrimSpace(utils.Deref(in.Comments))),
		ReviewStatus: constants.ReviewStatusPending,
	}
	return s.assigneeTransition(ctx, p, id, domain.TaskActionSubmit, func(ctx context.Context, at time.Time) error {
		sub.SubmittedAt = at
		return s.submissions.Insert(ctx, sub)
	})
}

func (s *TaskService) assigneeTransition(ctx context.Context, p *models.Principal, id string, action domain.TaskAction, within func(ctx context.Context, at time.Time) error) (*models.Task, error) {
	var task *models.Task
	var to domain.TaskStatus
	now := s.now().UTC()

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		t, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if utils.Deref(t.AssignedTo) != p.UserID {
			return errors.NewPermissionError(string(action), "task")
		}
		if to, err = s.applyTransition(ctx, t, action, now); err != nil {
			return err
		}
		if within != nil {
			if err := within(ctx, now); err != nil {
				return err
			}
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	from := task.Status
	task.Status = to
	task.UpdatedAt = now
	s.logger.Info("task transition", zap.String("task_id", id), zap.String("from", string(from)), zap.String("to", string(to)))

	evt := events.TaskEvent{TaskID: id, Title: task.Title, ActorID: p.UserID, AssigneeID: p.UserID, From: string(from), To: string(to)}
	s.events.PublishAsync(ctx, events.TaskStatusChanged, evt)
	if action == domain.TaskActionSubmit {
		s.events.PublishAsync(ctx, events.TaskSubmitted, evt)
	}
	return task, nil
}

// applyTransition validates action against the stored status and writes the
// new status only if the row has not moved since it was read.
func (s *TaskService) applyTransition(ctx context.Context, t *models.Task, action domain.TaskAction, at time.Time) (domain.TaskStatus, error) {
	to, err := s.sm.Transition(t.Status, action)
	if err != nil {
		return t.Status, err
	}
	ok, err := s.tasks.TransitionStatus(ctx, t.ID, t.Status, to, at)
	if err != nil {
		return t.Status, err
	}
	if !ok {
		return t.Status, errors.NewStateError("task", string(t.Status), string(action))
	}
	return to, nil
}
