package models

import (
	"math"
	"time"

	"github.com/sdmtech/sdmcrm/internal/domain"
)

// Task is a unit of work assigned to an employee.
type Task struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Description  *string           `json:"description,omitempty"`
	AssignedTo   *string           `json:"assigned_to,omitempty"`
	AssignedBy   *string           `json:"assigned_by,omitempty"`
	Priority     string            `json:"priority"`
	Status       domain.TaskStatus `json:"status"`
	Deadline     *time.Time        `json:"deadline,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	AssigneeName *string           `json:"assignee_name,omitempty"` // joined from profiles
}

// IsOverdue reports whether the deadline has passed without approval.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Deadline != nil && t.Deadline.Before(now) && t.Status != domain.TaskStatusApproved
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	AssignedTo string
	Status     domain.TaskStatus
	Limit      int
}

// TaskUpdate carries the admin-editable fields. Nil leaves a field unchanged;
// ClearAssignee and ClearDeadline null the column.
type TaskUpdate struct {
	Title         *string
	Description   *string
	AssignedTo    *string
	ClearAssignee bool
	Priority      *string
	Deadline      *time.Time
	ClearDeadline bool
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.AssignedTo == nil && !u.ClearAssignee &&
		u.Priority == nil && u.Deadline == nil && !u.ClearDeadline
}

// TaskSubmission is a hand-in of work for review.
type TaskSubmission struct {
	ID             string     `json:"id"`
	TaskID         string     `json:"task_id"`
	SubmittedBy    string     `json:"submitted_by"`
	ExternalLink   *string    `json:"external_link,omitempty"`
	FileURL        *string    `json:"file_url,omitempty"`
	Comments       *string    `json:"comments,omitempty"`
	ReviewStatus   string     `json:"review_status"`
	ReviewComments *string    `json:"review_comments,omitempty"`
	ReviewedBy     *string    `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	TaskTitle      *string    `json:"task_title,omitempty"`     // joined from tasks
	SubmitterName  *string    `json:"submitter_name,omitempty"` // joined from profiles
}

// TaskCounts aggregates tasks by status.
type TaskCounts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Submitted  int `json:"submitted"`
	Approved   int `json:"approved"`
	Rejected   int `json:"rejected"`
}

// Add counts n tasks in status s.
func (c *TaskCounts) Add(s domain.TaskStatus, n int) {
	c.Total += n
	switch s {
	case domain.TaskStatusPending:
		c.Pending += n
	case domain.TaskStatusInProgress:
		c.InProgress += n
	case domain.TaskStatusSubmitted:
		c.Submitted += n
	case domain.TaskStatusApproved:
		c.Approved += n
	case domain.TaskStatusRejected:
		c.Rejected += n
	}
}

// Dashboard is the CRM landing payload.
type Dashboard struct {
	TotalEmployees int        `json:"total_employees,omitempty"`
	Counts         TaskCounts `json:"counts"`
	RecentTasks    []Task     `json:"recent_tasks"`
}

// EmployeePerformance is one row of the admin analytics table.
type EmployeePerformance struct {
	UserID         string `json:"user_id"`
	FullName       string `json:"full_name"`
	Total          int    `json:"total"`
	Completed      int    `json:"completed"`
	Pending        int    `json:"pending"`
	CompletionRate int    `json:"completion_rate"`
}

// Analytics is the admin analytics payload.
type Analytics struct {
	Counts         TaskCounts            `json:"counts"`
	CompletionRate int                   `json:"completion_rate"`
	Employees      []EmployeePerformance `json:"employees"`
}

// Performance is an employee's own statistics.
type Performance struct {
	Counts         TaskCounts `json:"counts"`
	CompletionRate int        `json:"completion_rate"`
	ApprovalRate   int        `json:"approval_rate"` // approved / (approved + rejected)
}

// Percent returns round(100 * part / whole), or 0 when whole is 0.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(whole)))
}
