package services

import (
	"context"
	"strings"

	"github.com/sdmtech/sdmcrm/internal/domain"
	"github.com/sdmtech/sdmcrm/internal/domain/events"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/pkg/constants"
	"github.com/sdmtech/sdmcrm/pkg/errors"
	"github.com/sdmtech/sdmcrm/pkg/utils"
	"go.uber.org/zap"
)

// ReviewInput is the body of POST /submissions/:id/review.
type ReviewInput struct {
	Status         string  `json:"status"`
	ReviewComments *string `json:"review_comments"`
}

// ListSubmissions returns submissions newest first; all of them when
// submittedBy is empty.
func (s *TaskService) ListSubmissions(ctx context.Context, submittedBy string) ([]models.TaskSubmission, error) {
	return s.submissions.List(ctx, submittedBy)
}

// Review approves or rejects a pending submission and moves its task from
// submitted to the matching state in one transaction.
func (s *TaskService) Review(ctx context.Context, reviewer *models.Principal, submissionID string, in ReviewInput) (*models.TaskSubmission, error) {
	action, ok := domain.ReviewAction(in.Status)
	if !ok {
		return nil, errors.NewValidationError("status", "status must be approved or rejected")
	}
	comments := utils.StringPtr(strings.TrimSpace(utils.Deref(in.ReviewComments)))
	now := s.now().UTC()

	var task *models.Task
	var from domain.TaskStatus
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		sub, err := s.submissions.FindByID(ctx, submissionID)
		if err != nil {
			return err
		}
		if sub == nil {
			return errors.NewNotFoundError("Submission", submissionID)
		}
		if sub.ReviewStatus != constants.ReviewStatusPending {
			return errors.NewStateError("submission", sub.ReviewStatus, "review")
		}

		t, err := s.Get(ctx, sub.TaskID)
		if err != nil {
			return err
		}
		from = t.Status
		to, err := s.applyTransition(ctx, t, action, now)
		if err != nil {
			return err
		}
		t.Status = to

		reviewed, err := s.submissions.Review(ctx, submissionID, in.Status, comments, reviewer.UserID, now)
		if err != nil {
			return err
		}
		if !reviewed {
			return errors.NewStateError("submission", constants.ReviewStatusPending, "review")
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("submission reviewed",
		zap.String("submission_id", submissionID),
		zap.String("task_id", task.ID),
		zap.String("decision", in.Status),
		zap.String("by", reviewer.UserID))

	evt := events.TaskEvent{
		TaskID:     task.ID,
		Title:      task.Title,
		ActorID:    reviewer.UserID,
		AssigneeID: utils.Deref(task.AssignedTo),
		From:       string(from),
		To:         string(task.Status),
		Comments:   utils.Deref(comments),
	}
	s.events.PublishAsync(ctx, events.TaskStatusChanged, evt)
	s.events.PublishAsync(ctx, events.SubmissionReviewed, evt)

	return s.submissions.FindByID(ctx, submissionID)
}
