package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sdmtech/sdmcrm/internal/application/services"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
)

// JobService defines the job and application operations.
type JobService interface {
	ListActive(ctx context.Context) ([]models.Job, error)
	ListAll(ctx context.Context) ([]models.Job, error)
	Get(ctx context.Context, id string, includeInactive bool) (*models.Job, error)
	Create(ctx context.Context, in services.JobInput) (*models.Job, error)
	Update(ctx context.Context, id string, in services.JobInput) (*models.Job, error)
	ToggleActive(ctx context.Context, id string) (*models.Job, error)
	Delete(ctx context.Context, id string) error
	Apply(ctx context.Context, userID, jobID string, in services.ApplyInput) (*models.JobApplication, error)
	Applications(ctx context.Context, userID string) ([]models.JobApplication, error)
	UpdateApplicationStatus(ctx context.Context, reviewer *models.Principal, id, status string) (*models.JobApplication, error)
	DeleteApplication(ctx context.Context, id string) error
	ResumeURL(ctx context.Context, id string) (string, time.Time, error)
}

// JobHandler handles careers and recruiting endpoints
type JobHandler struct {
	svc JobService
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(svc JobService) *JobHandler {
	return &JobHandler{svc: svc}
}

// StatusRequest is the body of PATCH /api/admin/applications/:id/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ============================================================================
// Public Endpoints
// ============================================================================

// ListActive handles GET /api/jobs
func (h *JobHandler) ListActive(c *gin.Context) {
	HandleGetEnvelope(c, "jobs", func() (interface{}, error) {
		return h.svc.ListActive(c.Request.Context())
	})
}

// Get handles GET /api/jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "job", func() (interface{}, error) {
		return h.svc.Get(c.Request.Context(), c.Param("id"), false)
	})
}

// Apply handles POST /api/jobs/:id/apply (multipart form)
func (h *JobHandler) Apply(c *gin.Context) {
	resume, f, err := formUpload(c, "resume")
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if f != nil {
		defer f.Close()
	}

	in := services.ApplyInput{
		FullName:    c.PostForm("full_name"),
		Email:       c.PostForm("email"),
		Phone:       c.PostForm("phone"),
		CoverLetter: c.PostForm("cover_letter"),
		Resume:      resume,
	}
	HandleMutation(c, http.StatusCreated, "application", "Application submitted successfully", func() (interface{}, error) {
		return h.svc.Apply(c.Request.Context(), GetPrincipal(c).UserID, c.Param("id"), in)
	})
}

// MyApplications handles GET /api/profile/applications
func (h *JobHandler) MyApplications(c *gin.Context) {
	HandleGetEnvelope(c, "applications", func() (interface{}, error) {
		return h.svc.Applications(c.Request.Context(), GetPrincipal(c).UserID)
	})
}

// ============================================================================
// Admin Endpoints
// ============================================================================

// ListAll handles GET /api/admin/jobs
func (h *JobHandler) ListAll(c *gin.Context) {
	HandleGetEnvelope(c, "jobs", func() (interface{}, error) {
		return h.svc.ListAll(c.Request.Context())
	})
}

// Create handles POST /api/admin/jobs
func (h *JobHandler) Create(c *gin.Context) {
	var req services.JobInput
	if !BindJSON(c, &req) {
		return
	}
	HandleMutation(c, http.StatusCreated, "job", "Job created successfully", func() (interface{}, error) {
		return h.svc.Create(c.Request.Context(), req)
	})
}

// Update handles PUT /api/admin/jobs/:id
func (h *JobHandler) Update(c *gin.Context) {
	var req services.JobInput
	if !BindJSON(c, &req) {
		return
	}
	HandleMutation(c, http.StatusOK, "job", "Job updated successfully", func() (interface{}, error) {
		return h.svc.Update(c.Request.Context(), c.Param("id"), req)
	})
}

// ToggleActive handles POST /api/admin/jobs/:id/toggle-active
func (h *JobHandler) ToggleActive(c *gin.Context) {
	HandleMutation(c, http.StatusOK, "job", "Job status updated", func() (interface{}, error) {
		return h.svc.ToggleActive(c.Request.Context(), c.Param("id"))
	})
}

// Delete handles DELETE /api/admin/jobs/:id
func (h *JobHandler) Delete(c *gin.Context) {
	HandleDeleteEnvelope(c, "Job deleted successfully", func() error {
		return h.svc.Delete(c.Request.Context(), c.Param("id"))
	})
}

// Applications handles GET /api/admin/applications
func (h *JobHandler) Applications(c *gin.Context) {
	HandleGetEnvelope(c, "applications", func() (interface{}, error) {
		return h.svc.Applications(c.Request.Context(), "")
	})
}

// UpdateApplicationStatus handles PATCH /api/admin/applications/:id/status
func (h *JobHandler) UpdateApplicationStatus(c *gin.Context) {
	var req StatusRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutation(c, http.StatusOK, "application", "Application status updated", func() (interface{}, error) {
		return h.svc.UpdateApplicationStatus(c.Request.Context(), GetPrincipal(c), c.Param("id"), req.Status)
	})
}

// DeleteApplication handles DELETE /api/admin/applications/:id
func (h *JobHandler) DeleteApplication(c *gin.Context) {
	HandleDeleteEnvelope(c, "Application deleted successfully", func() error {
		return h.svc.DeleteApplication(c.Request.Context(), c.Param("id"))
	})
}

// Resume handles GET /api/admin/applications/:id/resume
func (h *JobHandler) Resume(c *gin.Context) {
	url, expires, err := h.svc.ResumeURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expires_at": expires})
}
