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

// ApplicationRepository handles database operations for job applications
type ApplicationRepository struct {
	db *database.Connection
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(db *database.Connection) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

var applicationSelect = fmt.Sprintf(`
	SELECT a.id, a.job_id, a.user_id, a.full_name, a.email, a.phone, a.resume_url, a.cover_letter,
		a.status, a.reviewed_by, a.reviewed_at, a.applied_at, j.title
	FROM %s a
	LEFT JOIN %s j ON j.id = a.job_id`,
	constants.TableJobApplication, constants.TableJob)

func scanApplication(row scanner) (*models.JobApplication, error) {
	var a models.JobApplication
	var phone, resume, cover, reviewedBy, jobTitle sql.NullString
	var reviewedAt sql.NullTime
	err := row.Scan(&a.ID, &a.JobID, &a.UserID, &a.FullName, &a.Email, &phone, &resume, &cover,
		&a.Status, &reviewedBy, &reviewedAt, &a.AppliedAt, &jobTitle)
	if err != nil {
		return nil, err
	}
	a.Phone = nullString(phone)
	a.ResumeURL = nullString(resume)
	a.CoverLetter = nullString(cover)
	a.ReviewedBy = nullString(reviewedBy)
	a.ReviewedAt = nullTime(reviewedAt)
	a.JobTitle = nullString(jobTitle)
	return &a, nil
}

// Insert creates an application row
func (r *ApplicationRepository) Insert(ctx context.Context, a *models.JobApplication) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, job_id, user_id, full_name, email, phone, resume_url, cover_letter, status, applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableJobApplication)
	_, err := r.db.Conn(ctx).ExecContext(ctx, query, a.ID, a.JobID, a.UserID, a.FullName, a.Email,
		toNull(a.Phone), toNull(a.ResumeURL), toNull(a.CoverLetter), a.Status, a.AppliedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}
	return nil
}

// FindByID returns the application with id, or nil if none exists.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.JobApplication, error) {
	a, err := scanApplication(r.db.Conn(ctx).QueryRowContext(ctx, applicationSelect+" WHERE a.id = ? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// List returns applications newest first, restricted to userID when set.
func (r *ApplicationRepository) List(ctx context.Context, userID string) ([]models.JobApplication, error) {
	query := applicationSelect
	var args []interface{}
	if userID != "" {
		query += " WHERE a.user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY a.applied_at DESC"

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	out := []models.JobApplication{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// ResumePathsByJob returns the stored resume paths of every application to jobID.
func (r *ApplicationRepository) ResumePathsByJob(ctx context.Context, jobID string) ([]string, error) {
	query := fmt.Sprintf("SELECT resume_url FROM %s WHERE job_id = ? AND resume_url IS NOT NULL", constants.TableJobApplication)
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateStatus sets the review status and stamps the reviewer.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id, status, reviewerID string, at time.Time) (bool, error) {
	query := fmt.Sprintf("UPDATE %s SET status = ?, reviewed_by = ?, reviewed_at = ? WHERE id = ?", constants.TableJobApplication)
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, status, reviewerID, at.UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to update application: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes an application.
func (r *ApplicationRepository) Delete(ctx context.Context, id string) (bool, error) {
	return deleteByID(ctx, r.db, constants.TableJobApplication, id)
}
