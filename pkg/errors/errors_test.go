package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"not found", NewNotFoundError("Task", "t1"), http.StatusNotFound, "NOT_FOUND"},
		{"validation", NewValidationError("email", "bad"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"permission", NewPermissionError("review", "submission"), http.StatusForbidden, "PERMISSION_DENIED"},
		{"unauthorized", NewUnauthorizedError("no token"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"conflict", NewConflictError("User", "email", "a@b.co"), http.StatusConflict, "CONFLICT"},
		{"state", NewStateError("task", "approved", "start"), http.StatusConflict, "INVALID_STATE_TRANSITION"},
		{"internal", NewInternalError("boom", nil), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"plain", fmt.Errorf("db down"), http.StatusInternalServerError, "UNKNOWN_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetHTTPStatus(tc.err))
			assert.Equal(t, tc.code, GetErrorCode(tc.err))
		})
	}
}

func TestWrappedErrorsKeepTheirKind(t *testing.T) {
	err := fmt.Errorf("loading task: %w", NewNotFoundError("Task", "t1"))

	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(err))
}

func TestStateErrorMessage(t *testing.T) {
	err := NewStateError("task", "approved", "rework")
	assert.Equal(t, "invalid task transition: cannot rework from approved", err.Error())
	assert.True(t, IsStateError(err))
}
