package rest

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
)

// AnalyticsService defines the dashboard and reporting operations.
type AnalyticsService interface {
	Dashboard(ctx context.Context, p *models.Principal) (*models.Dashboard, error)
	Analytics(ctx context.Context) (*models.Analytics, error)
	Performance(ctx context.Context, p *models.Principal) (*models.Performance, error)
}

// AnalyticsHandler handles the CRM reporting endpoints
type AnalyticsHandler struct {
	svc AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(svc AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// Dashboard handles GET /api/crm/dashboard
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	HandleGetEnvelope(c, "dashboard", func() (interface{}, error) {
		return h.svc.Dashboard(c.Request.Context(), GetPrincipal(c))
	})
}

// Analytics handles GET /api/crm/analytics
func (h *AnalyticsHandler) Analytics(c *gin.Context) {
	HandleGetEnvelope(c, "analytics", func() (interface{}, error) {
		return h.svc.Analytics(c.Request.Context())
	})
}

// Performance handles GET /api/crm/performance
func (h *AnalyticsHandler) Performance(c *gin.Context) {
	HandleGetEnvelope(c, "performance", func() (interface{}, error) {
		return h.svc.Performance(c.Request.Context(), GetPrincipal(c))
	})
}
