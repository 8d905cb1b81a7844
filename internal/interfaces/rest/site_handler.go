package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sdmtech/sdmcrm/internal/application/services"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
)

// ContentService defines the marketing-site operations.
type ContentService interface {
	Services(ctx context.Context, activeOnly bool) ([]models.ServiceOffering, error)
	CreateService(ctx context.Context, in services.ServiceInput) (*models.ServiceOffering, error)
	UpdateService(ctx context.Context, id string, in services.ServiceInput) (*models.ServiceOffering, error)
	ToggleService(ctx context.Context, id string) (*models.ServiceOffering, error)
	DeleteService(ctx context.Context, id string) error

	Testimonials(ctx context.Context, activeOnly bool) ([]models.Testimonial, error)
	CreateTestimonial(ctx context.Context, in services.TestimonialInput) (*models.Testimonial, error)
	UpdateTestimonial(ctx context.Context, id string, in services.TestimonialInput) (*models.Testimonial, error)
	ToggleTestimonial(ctx context.Context, id string) (*models.Testimonial, error)
	DeleteTestimonial(ctx context.Context, id string) error

	Sections(ctx context.Context) (map[string]models.WebsiteContent, error)
	UpdateSections(ctx context.Context, in map[string]services.SectionInput) (map[string]models.WebsiteContent, error)

	SubmitContact(ctx context.Context, in services.ContactInput) (*models.ContactSubmission, error)
	Contacts(ctx context.Context) ([]models.ContactSubmission, error)
	ToggleContactRead(ctx context.Context, id string) (*models.ContactSubmission, error)
	DeleteContact(ctx context.Context, id string) error
}

// SiteHandler handles the public site and content management endpoints
type SiteHandler struct {
	svc ContentService
}

// NewSiteHandler creates a new SiteHandler
func NewSiteHandler(svc ContentService) *SiteHandler {
	return &SiteHandler{svc: svc}
}

// ============================================================================
// Public Endpoints
// ============================================================================

// Services handles GET /api/site/services
func (h *SiteHandler) Services(c *gin.Context) {
	HandleGetEnvelope(c, "services", func() (interface{}, error) {
		return h.svc.Services(c.Request.Context(), true)
	})
}

// Testimonials handles GET /api/site/testimonials
func (h *SiteHandler) Testimonials(c *gin.Context) {
	HandleGetEnvelope(c, "testimonials", func() (interface{}, error) {
		return h.svc.Testimonials(c.Request.Context(), true)
	})
}

// Content handles GET /api/site/content and GET /api/admin/content
func (h *SiteHandler) Content(c *gin.Context) {
	HandleGetEnvelope(c, "content", func() (interface{}, error) {
		return h.svc.Sections(c.Request.Context())
	})
}

// Contact handles POST /api/site/contact
func (h *SiteHandler) Contact(c *gin.Context) {
	var req services.ContactInput
	if !BindJSON(c, &req) {
		return
	}
	HandleMutation(c, http.StatusCreated, "", "Thank you for your message! We'll get back to you soon.", func() (interface{}, error) {
		return h.svc.SubmitContact(c.Request.Context(), req)
	})
}

// ============================================================================
// Admin Endpoints
// ============================================================================

// AllServices handles GET /api/admin/services
func (h *SiteHandler) AllServices(c *gin.Context) {
	HandleGetEnvelope(c, "services", func() (interface{}, error) {
		return h.svc.Services(c.Request.Context(), false)
	})
}

// CreateService handles POST /api/admin/services
func (h *SiteHandler) CreateService(c *gin.Context) {
	var req services.ServiceInput
	if !BindJSON(c, &req) {
		return
	}
	HandleMutation(c, http.StatusCreated, "service", "Service created successfully", func() (interface{}, error) {
		return h.svc.CreateService(c.Request.Context(), req)
	})
}

// UpdateService handles PUT /api/admin/services/:id
func (h *SiteHandler) UpdateService(c *gin.Context) {
	var req services.ServiceInput
	if !BindJSON(c, &req) {
		return
	}
	HandleMutation(c, http.StatusOK, "service", "Service updated successfully", func() (interface{}, error) {
		return h.svc.UpdateService(c.Request.Context(), c.Param("id"), req)
	})
}

// ToggleService handles POST /api/admin/services/:id/toggle-active
func (h *SiteHandler) ToggleService(c *gin.Context) {
	HandleMutation(c, http.StatusOK, "service", "Service status updated", func() (interface{}, error) {
		return h.svc.ToggleService(c.Request.Context(), c.Param("id"))
	})
}

// DeleteService handles DELETE /api/admin/services/:id
func (h *SiteHandler) DeleteService(c *gin.Context) {
	HandleDeleteEnvelope(c, "Service deleted successfully", func() error {
		return h.svc.DeleteService(c.Request.Context(), c.Param("id"))
	})
}

// AllTestimonials handles GET /api/admin/testimonials
func (h *SiteHandler) AllTestimonials(c *gin.Context) {
	HandleGetEnvelope(c, "testimonials", func() (interface{}, error) {
		return h.svc.Testimonials(c.Request.Context(), false)
	})
}

// CreateTestimonial handles POST /api/admin/testimonials
func (h *SiteHandler) CreateTestimonial(c *gin.Context) {
	var req services.TestimonialInput
	if !BindJSON(c, &req) {
		return
	}
	HandleMutation(c, http.StatusCreated, "testimonial", "Testimonial created successfully", func() (interface{}, error) {
		return h.svc.CreateTestimonial(c.Request.Context(), req)
	})
}

// UpdateTestimonial handles PUT /api/admin/testimonials/:id
func (h *SiteHandler) UpdateTestimonial(c *gin.Context) {
	var req services.TestimonialInput
	if !BindJSON(c, &req) {
		return
	}
	HandleMutation(c, http.StatusOK, "testimonial", "Testimonial updated successfully", func() (interface{}, error) {
		return h.svc.UpdateTestimonial(c.Request.Context(), c.Param("id"), req)
	})
}

// ToggleTestimonial handles POST /api/admin/testimonials/:id/toggle-active
func (h *SiteHandler) ToggleTestimonial(c *gin.Context) {
	HandleMutation(c, http.StatusOK, "testimonial", "Testimonial status updated", func() (interface{}, error) {
		return h.svc.ToggleTestimonial(c.Request.Context(), c.Param("id"))
	})
}

// DeleteTestimonial handles DELETE /api/admin/testimonials/:id
func (h *SiteHandler) DeleteTestimonial(c *gin.Context) {
	HandleDeleteEnvelope(c, "Testimonial deleted successfully", func() error {
		return h.svc.DeleteTestimonial(c.Request.Context(), c.Param("id"))
	})
}

// UpdateContent handles PUT /api/admin/content with a body keyed by section.
func (h *SiteHandler) UpdateContent(c *gin.Context) {
	var req map[string]services.SectionInput
	if !BindJSON(c, &req) {
		return
	}
	HandleMutation(c, http.StatusOK, "content", "Content updated successfully", func() (interface{}, error) {
		return h.svc.UpdateSections(c.Request.Context(), req)
	})
}

// Contacts handles GET /api/admin/contacts
func (h *SiteHandler) Contacts(c *gin.Context) {
	HandleGetEnvelope(c, "contacts", func() (interface{}, error) {
		return h.svc.Contacts(c.Request.Context())
	})
}

// ToggleContactRead handles POST /api/admin/contacts/:id/toggle-read
func (h *SiteHandler) ToggleContactRead(c *gin.Context) {
	HandleMutation(c, http.StatusOK, "contact", "Contact updated", func() (interface{}, error) {
		return h.svc.ToggleContactRead(c.Request.Context(), c.Param("id"))
	})
}

// DeleteContact handles DELETE /api/admin/contacts/:id
func (h *SiteHandler) DeleteContact(c *gin.Context) {
	HandleDeleteEnvelope(c, "Contact deleted successfully", func() error {
		return h.svc.DeleteContact(c.Request.Context(), c.Param("id"))
	})
}
