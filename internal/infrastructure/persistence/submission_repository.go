package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/internal/infrastructure/database"
	"github.com/sdmtech/sdmcrm/pkg/constants"
)

// SubmissionRepository handles database operations for task submissions
type SubmissionRepository struct {
	db *database.Connection
}

// NewSubmissionRepository creates a new SubmissionRepository
func NewSubmissionRepository(db *database.Connection) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

var submissionSelect = fmt.Sprintf(`
	SELECT s.id, s.task_id, s.submitted_by, s.external_link, s.file_url, s.comments, s.review_status,
		s.review_comments, s.reviewed_by, s.reviewed_at, s.submitted_at, t.title, p.full_name
	FROM %s s
	LEFT JOIN %s t ON t.id = s.task_id
	LEFT JOIN %s p ON p.user_id = s.submitted_by`,
	constants.TableTaskSubmission, constants.TableTask, constants.TableProfile)

func scanSubmission(row scanner) (*models.TaskSubmission, error) {
	var s models.TaskSubmission
	var link, fileURL, comments, reviewComments, reviewedBy, taskTitle, submitter sql.NullString
	var reviewedAt sql.NullTime
	err := row.Scan(&s.ID, &s.TaskID, &s.SubmittedBy, &link, &fileURL, &comments, &s.ReviewStatus,
		&reviewComments, &reviewedBy, &reviewedAt, &s.SubmittedAt, &taskTitle, &submitter)
	if err != nil {
		return nil, err
	}
	s.ExternalLink = nullString(link)
	s.FileURL = nullString(fileURL)
	s.Comments = nullString(comments)
	s.ReviewComments = nullString(reviewComments)
	s.ReviewedBy = nullString(reviewedBy)
	s.ReviewedAt = nullTime(reviewedAt)
	s.TaskTitle = nullString(taskTitle)
	s.SubmitterName = nullString(submitter)
	return &s, nil
}

// Insert creates a submission row
func (r *SubmissionRepository) Insert(ctx context.Context, s *models.TaskSubmission) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, task_id, submitted_by, external_link, file_url, comments, review_status, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableTaskSubmission)

	_, err := r.db.Conn(ctx).ExecContext(ctx, query,
		s.ID, s.TaskID, s.SubmittedBy, toNull(s.ExternalLink), toNull(s.FileURL), toNull(s.Comments),
		s.ReviewStatus, s.SubmittedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

// FindByID returns the submission with id, or nil if none exists.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.TaskSubmission, error) {
	s, err := scanSubmission(r.db.Conn(ctx).QueryRowContext(ctx, submissionSelect+" WHERE s.id = ? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// List returns submissions newest first, restricted to submittedBy when set.
func (r *SubmissionRepository) List(ctx context.Context, submittedBy string) ([]models.TaskSubmission, error) {
	query := submissionSelect
	var args []interface{}
	if submittedBy != "" {
		query += " WHERE s.submitted_by = ?"
		args = append(args, submittedBy)
	}
	query += " ORDER BY s.submitted_at DESC"

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	out := []models.TaskSubmission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Review records a decision on a pending submission. It reports false when
// the submission was already reviewed.
func (r *SubmissionRepository) Review(ctx context.Context, id, status string, comments *string, reviewerID string, at time.Time) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET review_status = ?, review_comments = ?, reviewed_by = ?, reviewed_at = ?
		WHERE id = ? AND review_status = ?`,
		constants.TableTaskSubmission)

	res, err := r.db.Conn(ctx).ExecContext(ctx, query, status, toNull(comments), reviewerID, at.UTC(), id, constants.ReviewStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to review submission: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
