package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sdmtech/sdmcrm/internal/application/services"
	"github.com/sdmtech/sdmcrm/internal/domain"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
)

// TaskService defines the task and submission operations.
type TaskService interface {
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Get(ctx context.Context, id string) (*models.Task, error)
	Create(ctx context.Context, actor *models.Principal, in services.TaskInput) (*models.Task, error)
	Update(ctx context.Context, actor *models.Principal, id string, in services.TaskInput) (*models.Task, error)
	Delete(ctx context.Context, id string) error
	MyTasks(ctx context.Context, p *models.Principal, status domain.TaskStatus) ([]models.Task, error)
	Start(ctx context.Context, p *models.Principal, id string) (*models.Task, error)
	Submit(ctx context.Context, p *models.Principal, id string, in services.SubmissionInput) (*models.Task, error)
	Rework(ctx context.Context, p *models.Principal, id string) (*models.Task, error)
	ListSubmissions(ctx context.Context, submittedBy string) ([]models.TaskSubmission, error)
	Review(ctx context.Context, reviewer *models.Principal, submissionID string, in services.ReviewInput) (*models.TaskSubmission, error)
}

// TaskHandler handles task, my-task and submission endpoints
type TaskHandler struct {
	svc TaskService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(svc TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// ============================================================================
// Admin Endpoints
// ============================================================================

// List handles GET /api/crm/tasks?status=&assigned_to=
func (h *TaskHandler) List(c *gin.Context) {
	filter := models.TaskFilter{
		AssignedTo: c.Query("assigned_to"),
		Status:     domain.TaskStatus(c.Query("status")),
	}
	HandleGetEnvelope(c, "tasks", func() (interface{}, error) {
		return nonNil(h.svc.List(c.Request.Context(), filter))
	})
}

// Get handles GET /api/crm/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "task", func() (interface{}, error) {
		return h.svc.Get(c.Request.Context(), c.Param("id"))
	})
}

// Create handles POST /api/crm/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req services.TaskInput
	if !BindJSON(c, &req) {
		return
	}
	HandleMutation(c, http.StatusCreated, "task", "Task created successfully", func() (interface{}, error) {
		return h.svc.Create(c.Request.Context(), GetPrincipal(c), req)
	})
}

// Update handles PATCH /api/crm/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	var req services.TaskInput
	if !BindJSON(c, &req) {
		return
	}
	HandleMutation(c, http.StatusOK, "task", "Task updated successfully", func() (interface{}, error) {
		return h.svc.Update(c.Request.Context(), GetPrincipal(c), c.Param("id"), req)
	})
}

// Delete handles DELETE /api/crm/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	HandleDeleteEnvelope(c, "Task deleted successfully", func() error {
		return h.svc.Delete(c.Request.Context(), c.Param("id"))
	})
}

// Submissions handles GET /api/crm/submissions
func (h *TaskHandler) Submissions(c *gin.Context) {
	HandleGetEnvelope(c, "submissions", func() (interface{}, error) {
		return nonNil(h.svc.ListSubmissions(c.Request.Context(), ""))
	})
}

// Review handles POST /api/crm/submissions/:id/review
func (h *TaskHandler) Review(c *gin.Context) {
	var req services.ReviewInput
	if !BindJSON(c, &req) {
		return
	}
	HandleMutation(c, http.StatusOK, "submission", "Submission reviewed", func() (interface{}, error) {
		return h.svc.Review(c.Request.Context(), GetPrincipal(c), c.Param("id"), req)
	})
}

// ============================================================================
// Staff Endpoints
// ============================================================================

// MyTasks handles GET /api/crm/my-tasks?status=
func (h *TaskHandler) MyTasks(c *gin.Context) {
	HandleGetEnvelope(c, "tasks", func() (interface{}, error) {
		return nonNil(h.svc.MyTasks(c.Request.Context(), GetPrincipal(c), domain.TaskStatus(c.Query("status"))))
	})
}

// Start handles POST /api/crm/my-tasks/:id/start
func (h *TaskHandler) Start(c *gin.Context) {
	HandleMutation(c, http.StatusOK, "task", "Task started", func() (interface{}, error) {
		return h.svc.Start(c.Request.Context(), GetPrincipal(c), c.Param("id"))
	})
}

// Submit handles POST /api/crm/my-tasks/:id/submit
func (h *TaskHandler) Submit(c *gin.Context) {
	var req services.SubmissionInput
	if c.Request.ContentLength != 0 && !BindJSON(c, &req) {
		return
	}
	HandleMutation(c, http.StatusOK, "task", "Task submitted for review", func() (interface{}, error) {
		return h.svc.Submit(c.Request.Context(), GetPrincipal(c), c.Param("id"), req)
	})
}

// Rework handles POST /api/crm/my-tasks/:id/rework
func (h *TaskHandler) Rework(c *gin.Context) {
	HandleMutation(c, http.StatusOK, "task", "Task reopened", func() (interface{}, error) {
		return h.svc.Rework(c.Request.Context(), GetPrincipal(c), c.Param("id"))
	})
}

// MySubmissions handles GET /api/crm/my-submissions
func (h *TaskHandler) MySubmissions(c *gin.Context) {
	HandleGetEnvelope(c, "submissions", func() (interface{}, error) {
		return nonNil(h.svc.ListSubmissions(c.Request.Context(), GetPrincipal(c).UserID))
	})
}

// nonNil keeps empty listings rendering as [] rather than null.
func nonNil[T any](items []T, err error) ([]T, error) {
	if err == nil && items == nil {
		items = []T{}
	}
	return items, err
}
