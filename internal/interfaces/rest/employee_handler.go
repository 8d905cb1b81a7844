package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sdmtech/sdmcrm/internal/application/services"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
)

// EmployeeService defines the admin employee-management operations.
type EmployeeService interface {
	List(ctx context.Context) ([]models.Employee, error)
	UpdateProfile(ctx context.Context, userID string, in services.ProfileInput) (*models.Profile, error)
	ToggleActive(ctx context.Context, actor *models.Principal, userID string) (*models.Profile, error)
	AssignRole(ctx context.Context, actor *models.Principal, userID string, role models.Role) error
}

// EmployeeHandler handles /api/crm/employees
type EmployeeHandler struct {
	svc EmployeeService
}

// NewEmployeeHandler creates a new EmployeeHandler
func NewEmployeeHandler(svc EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{svc: svc}
}

// RoleRequest is the body of PUT /api/crm/employees/:userId/role.
type RoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// List handles GET /api/crm/employees
func (h *EmployeeHandler) List(c *gin.Context) {
	HandleGetEnvelope(c, "employees", func() (interface{}, error) {
		return h.svc.List(c.Request.Context())
	})
}

// Update handles PATCH /api/crm/employees/:userId
func (h *EmployeeHandler) Update(c *gin.Context) {
	var req services.ProfileInput
	if !BindJSON(c, &req) {
		return
	}
	HandleMutation(c, http.StatusOK, "profile", "Employee updated successfully", func() (interface{}, error) {
		return h.svc.UpdateProfile(c.Request.Context(), c.Param("userId"), req)
	})
}

// ToggleActive handles POST /api/crm/employees/:userId/toggle-active
func (h *EmployeeHandler) ToggleActive(c *gin.Context) {
	HandleMutation(c, http.StatusOK, "profile", "Employee status updated", func() (interface{}, error) {
		return h.svc.ToggleActive(c.Request.Context(), GetPrincipal(c), c.Param("userId"))
	})
}

// AssignRole handles PUT /api/crm/employees/:userId/role
func (h *EmployeeHandler) AssignRole(c *gin.Context) {
	var req RoleRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleMutation(c, http.StatusOK, "role", "Role updated successfully", func() (interface{}, error) {
		return req.Role, h.svc.AssignRole(c.Request.Context(), GetPrincipal(c), c.Param("userId"), req.Role)
	})
}
