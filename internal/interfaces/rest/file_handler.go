package rest

import (
	"context"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sdmtech/sdmcrm/internal/application/services"
	"github.com/sdmtech/sdmcrm/pkg/constants"
	"github.com/sdmtech/sdmcrm/pkg/errors"
)

// FileService defines object storage operations.
type FileService interface {
	Store(ctx context.Context, bucket, objectPath, ownerID string, u *services.Upload) (string, error)
	PublicURL(bucket, objectPath string) (string, error)
	OpenPublic(ctx context.Context, bucket, objectPath string) (*services.Object, error)
	OpenSigned(ctx context.Context, token string) (*services.Object, error)
}

// FileHandler serves stored objects and accepts company data uploads
type FileHandler struct {
	svc FileService
}

// NewFileHandler creates a new FileHandler
func NewFileHandler(svc FileService) *FileHandler {
	return &FileHandler{svc: svc}
}

// ServePublic handles GET /files/:bucket/*path
func (h *FileHandler) ServePublic(c *gin.Context) {
	obj, err := h.svc.OpenPublic(c.Request.Context(), c.Param("bucket"), strings.TrimPrefix(c.Param("path"), "/"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	serveObject(c, obj, "public, max-age=300")
}

// ServeSigned handles GET /files/signed/:token
func (h *FileHandler) ServeSigned(c *gin.Context) {
	obj, err := h.svc.OpenSigned(c.Request.Context(), c.Param("token"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	serveObject(c, obj, "private, no-store")
}

func serveObject(c *gin.Context, obj *services.Object, cacheControl string) {
	defer obj.File.Close()

	info, err := obj.File.Stat()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if obj.ContentType != "" {
		c.Header("Content-Type", obj.ContentType)
	} else {
		c.Header("Content-Type", "application/octet-stream")
	}
	c.Header("Cache-Control", cacheControl)
	c.Header("X-Content-Type-Options", "nosniff")
	if !constants.IsInlineImage(obj.ContentType) {
		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": obj.Name}))
	}
	http.ServeContent(c.Writer, c.Request, obj.Name, info.ModTime(), obj.File)
}

// UploadCompanyData handles POST /api/admin/files (multipart: file, path)
func (h *FileHandler) UploadCompanyData(c *gin.Context) {
	upload, f, err := formUpload(c, "file")
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if upload == nil {
		RespondAppError(c, errors.NewValidationError("file", "No file uploaded"))
		return
	}
	defer f.Close()

	objectPath := c.PostForm("path")
	if objectPath == "" {
		objectPath = upload.Filename
	}

	stored, err := h.svc.Store(c.Request.Context(), constants.BucketCompanyData, objectPath, GetPrincipal(c).UserID, upload)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	url, err := h.svc.PublicURL(constants.BucketCompanyData, stored)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "File uploaded successfully",
		"path":                 stored,
		"url":                  url,
	})
}
