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

// JobRepository handles database operations for job postings
type JobRepository struct {
	db *database.Connection
}

// NewJobRepository creates a new JobRepository
func NewJobRepository(db *database.Connection) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = "id, title, department, location, type, description, requirements, is_active, created_at, updated_at"

func scanJob(row scanner) (*models.Job, error) {
	var j models.Job
	var description, requirements sql.NullString
	err := row.Scan(&j.ID, &j.Title, &j.Department, &j.Location, &j.Type, &description, &requirements,
		&j.IsActive, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.Description = nullString(description)
	j.Requirements = decodeStrings(requirements)
	return &j, nil
}

// Insert creates a job row
func (r *JobRepository) Insert(ctx context.Context, j *models.Job) error {
	reqs, err := encodeStrings(j.Requirements)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", constants.TableJob, jobColumns)
	_, err = r.db.Conn(ctx).ExecContext(ctx, query, j.ID, j.Title, j.Department, j.Location, j.Type,
		toNull(j.Description), reqs, j.IsActive, j.CreatedAt.UTC(), j.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// FindByID returns the job with id, or nil if none exists.
func (r *JobRepository) FindByID(ctx context.Context, id string) (*models.Job, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", jobColumns, constants.TableJob)
	j, err := scanJob(r.db.Conn(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return j, err
}

// List returns jobs newest first; only active ones when activeOnly is set.
func (r *JobRepository) List(ctx context.Context, activeOnly bool) ([]models.Job, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", jobColumns, constants.TableJob)
	var args []interface{}
	if activeOnly {
		query += " WHERE is_active = ?"
		args = append(args, true)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	out := []models.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

// Update overwrites the editable columns of a job.
func (r *JobRepository) Update(ctx context.Context, j *models.Job) (bool, error) {
	reqs, err := encodeStrings(j.Requirements)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(`
		UPDATE %s SET title = ?, department = ?, location = ?, type = ?, description = ?, requirements = ?,
			is_active = ?, updated_at = ?
		WHERE id = ?`,
		constants.TableJob)
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, j.Title, j.Department, j.Location, j.Type,
		toNull(j.Description), reqs, j.IsActive, j.UpdatedAt.UTC(), j.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update job: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetActive toggles the listing flag.
func (r *JobRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) (bool, error) {
	return setActive(ctx, r.db, constants.TableJob, id, active, at)
}

// Delete removes a job and its applications.
func (r *JobRepository) Delete(ctx context.Context, id string) (bool, error) {
	return deleteByID(ctx, r.db, constants.TableJob, id)
}

func setActive(ctx context.Context, db *database.Connection, table, id string, active bool, at time.Time) (bool, error) {
	query := fmt.Sprintf("UPDATE %s SET is_active = ?, updated_at = ? WHERE id = ?", table)
	res, err := db.Conn(ctx).ExecContext(ctx, query, active, at.UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func deleteByID(ctx context.Context, db *database.Connection, table, id string) (bool, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", table)
	res, err := db.Conn(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
