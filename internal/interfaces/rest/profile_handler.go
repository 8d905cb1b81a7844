package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sdmtech/sdmcrm/internal/application/services"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/pkg/errors"
)

// ProfileService defines the own-profile operations.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, userID string, in services.ProfileInput) (*models.Profile, error)
	UploadAvatar(ctx context.Context, userID string, u *services.Upload) (*models.Profile, error)
}

// ProfileHandler handles /api/profile
type ProfileHandler struct {
	svc ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(svc ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// Get handles GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "profile", func() (interface{}, error) {
		return h.svc.Get(c.Request.Context(), GetPrincipal(c).UserID)
	})
}

// Update handles PATCH /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	var req services.ProfileInput
	if !BindJSON(c, &req) {
		return
	}
	HandleMutation(c, http.StatusOK, "profile", "Profile updated successfully", func() (interface{}, error) {
		return h.svc.Update(c.Request.Context(), GetPrincipal(c).UserID, req)
	})
}

// UploadAvatar handles POST /api/profile/avatar
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	upload, f, err := formUpload(c, "avatar")
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if upload == nil {
		RespondAppError(c, errors.NewValidationError("avatar", "No file uploaded"))
		return
	}
	defer f.Close()

	HandleMutation(c, http.StatusOK, "profile", "Avatar updated successfully", func() (interface{}, error) {
		return h.svc.UploadAvatar(c.Request.Context(), GetPrincipal(c).UserID, upload)
	})
}
