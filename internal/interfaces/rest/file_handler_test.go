package rest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sdmtech/sdmcrm/internal/application/services"
	"github.com/sdmtech/sdmcrm/internal/interfaces/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFiles serves one object from disk with the recorded content type.
type stubFiles struct {
	rest.FileService
	path        string
	contentType string
}

func (s *stubFiles) OpenPublic(_ context.Context, _, objectPath string) (*services.Object, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	return &services.Object{File: f, ContentType: s.contentType, Name: filepath.Base(objectPath)}, nil
}

func TestFileHandler_ServePublicHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	obj := filepath.Join(t.TempDir(), "obj")
	require.NoError(t, os.WriteFile(obj, []byte("<svg><script>alert(1)</script></svg>"), 0o644))

	tests := []struct {
		name           string
		contentType    string
		wantType       string
		wantAttachment bool
	}{
		{"raster image inline", "image/png", "image/png", false},
		{"svg downloaded", "image/svg+xml", "image/svg+xml", true},
		{"html downloaded", "text/html", "text/html", true},
		{"unknown type downloaded", "", "application/octet-stream", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/files/:bucket/*path", rest.NewFileHandler(&stubFiles{path: obj, contentType: tc.contentType}).ServePublic)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/avatars/u1/avatar.svg", nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.wantType, w.Header().Get("Content-Type"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
			if tc.wantAttachment {
				assert.Equal(t, `attachment; filename=avatar.svg`, w.Header().Get("Content-Disposition"))
			} else {
				assert.Empty(t, w.Header().Get("Content-Disposition"))
			}
		})
	}
}
