package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sdmtech/sdmcrm/internal/domain"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/internal/infrastructure/database"
	"github.com/sdmtech/sdmcrm/pkg/constants"
)

// TaskRepository handles database operations for tasks
type TaskRepository struct {
	db *database.Connection
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *database.Connection) *TaskRepository {
	return &TaskRepository{db: db}
}

// AssigneeStatusCount is one (assignee, status) group.
type AssigneeStatusCount struct {
	UserID string
	Status domain.TaskStatus
	Count  int
}

var taskSelect = fmt.Sprintf(`
	SELECT t.id, t.title, t.description, t.assigned_to, t.assigned_by, t.priority, t.status,
		t.deadline, t.created_at, t.updated_at, p.full_name
	FROM %s t
	LEFT JOIN %s p ON p.user_id = t.assigned_to`,
	constants.TableTask, constants.TableProfile)

func scanTask(row scanner) (*models.Task, error) {
	var t models.Task
	var description, assignedTo, assignedBy, assignee sql.NullString
	var deadline sql.NullTime
	var status string
	err := row.Scan(&t.ID, &t.Title, &description, &assignedTo, &assignedBy, &t.Priority, &status,
		&deadline, &t.CreatedAt, &t.UpdatedAt, &assignee)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TaskStatus(status)
	t.Description = nullString(description)
	t.AssignedTo = nullString(assignedTo)
	t.AssignedBy = nullString(assignedBy)
	t.Deadline = nullTime(deadline)
	t.AssigneeName = nullString(assignee)
	return &t, nil
}

// Insert creates a task row
func (r *TaskRepository) Insert(ctx context.Context, t *models.Task) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, title, description, assigned_to, assigned_by, priority, status, deadline, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableTask)

	_, err := r.db.Conn(ctx).ExecContext(ctx, query,
		t.ID, t.Title, toNull(t.Description), toNull(t.AssignedTo), toNull(t.AssignedBy),
		t.Priority, string(t.Status), toNullTime(t.Deadline), t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// FindByID returns the task with id, or nil if none exists.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	t, err := scanTask(r.db.Conn(ctx).QueryRowContext(ctx, taskSelect+" WHERE t.id = ? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// List returns tasks matching filter, newest first.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	var where []string
	var args []interface{}
	if filter.AssignedTo != "" {
		where = append(where, "t.assigned_to = ?")
		args = append(args, filter.AssignedTo)
	}
	if filter.Status != "" {
		where = append(where, "t.status = ?")
		args = append(args, string(filter.Status))
	}

	query := taskSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return r.queryTasks(ctx, query, args...)
}

// ListOverdue returns assigned, unapproved tasks whose deadline is before now.
func (r *TaskRepository) ListOverdue(ctx context.Context, now time.Time) ([]models.Task, error) {
	query := taskSelect + " WHERE t.deadline < ? AND t.status <> ? AND t.assigned_to IS NOT NULL ORDER BY t.deadline ASC"
	return r.queryTasks(ctx, query, now.UTC(), string(domain.TaskStatusApproved))
}

func (r *TaskRepository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]models.Task, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// UpdateFields applies an admin edit. Status is never written here.
func (r *TaskRepository) UpdateFields(ctx context.Context, id string, upd models.TaskUpdate, at time.Time) (bool, error) {
	var sets []string
	var args []interface{}
	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	switch {
	case upd.ClearAssignee:
		sets = append(sets, "assigned_to = NULL")
	case upd.AssignedTo != nil:
		sets = append(sets, "assigned_to = ?")
		args = append(args, *upd.AssignedTo)
	}
	if upd.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *upd.Priority)
	}
	switch {
	case upd.ClearDeadline:
		sets = append(sets, "deadline = NULL")
	case upd.Deadline != nil:
		sets = append(sets, "deadline = ?")
		args = append(args, upd.Deadline.UTC())
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, at.UTC(), id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", constants.TableTask, strings.Join(sets, ", "))
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update task: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// TransitionStatus moves a task from one status to another. It reports false
// when the task is no longer in from, so concurrent transitions cannot both apply.
func (r *TaskRepository) TransitionStatus(ctx context.Context, id string, from, to domain.TaskStatus, at time.Time) (bool, error) {
	query := fmt.Sprintf("UPDATE %s SET status = ?, updated_at = ? WHERE id = ? AND status = ?", constants.TableTask)
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, string(to), at.UTC(), id, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to update task status: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes a task and, by cascade, its submissions.
func (r *TaskRepository) Delete(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", constants.TableTask)
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// StatusCounts aggregates tasks by status, restricted to assignedTo when set.
func (r *TaskRepository) StatusCounts(ctx context.Context, assignedTo string) (models.TaskCounts, error) {
	query := fmt.Sprintf("SELECT status, COUNT(*) FROM %s", constants.TableTask)
	var args []interface{}
	if assignedTo != "" {
		query += " WHERE assigned_to = ?"
		args = append(args, assignedTo)
	}
	query += " GROUP BY status"

	var counts models.TaskCounts
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return counts, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return counts, err
		}
		counts.Add(domain.TaskStatus(status), n)
	}
	return counts, rows.Err()
}

// AssigneeStatusCounts groups assigned tasks by assignee and status.
func (r *TaskRepository) AssigneeStatusCounts(ctx context.Context) ([]AssigneeStatusCount, error) {
	query := fmt.Sprintf(`
		SELECT assigned_to, status, COUNT(*)
		FROM %s
		WHERE assigned_to IS NOT NULL
		GROUP BY assigned_to, status`,
		constants.TableTask)

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks per assignee: %w", err)
	}
	defer rows.Close()

	var out []AssigneeStatusCount
	for rows.Next() {
		var c AssigneeStatusCount
		var status string
		if err := rows.Scan(&c.UserID, &status, &c.Count); err != nil {
			return nil, err
		}
		c.Status = domain.TaskStatus(status)
		out = append(out, c)
	}
	return out, rows.Err()
}
