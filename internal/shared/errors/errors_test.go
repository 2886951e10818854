package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSentinel = stderrors.New("subscription already cancelled")

func TestAppError_UnwrapKeepsSentinel(t *testing.T) {
	err := NewConflictError("subscription is already cancelled").WithCause(errSentinel)

	wrapped := fmt.Errorf("cancel: %w", err)

	assert.True(t, stderrors.Is(wrapped, errSentinel))
	assert.True(t, IsConflictError(wrapped))
	assert.Equal(t, http.StatusConflict, GetAppError(wrapped).Code)
}

func TestConstructors_StatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code int
		typ  ErrorType
	}{
		{"validation", NewValidationError("bad"), http.StatusBadRequest, ErrorTypeValidation},
		{"not found", NewNotFoundError("missing"), http.StatusNotFound, ErrorTypeNotFound},
		{"unauthorized", NewUnauthorizedError("nope"), http.StatusUnauthorized, ErrorTypeUnauthorized},
		{"external", NewExternalServiceError("provider down"), http.StatusBadGateway, ErrorTypeExternalService},
		{"internal", NewInternalError("boom", "detail"), http.StatusInternalServerError, ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.typ, tt.err.Type)
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(stderrors.New("UNIQUE constraint failed: subscriptions.tenant_id")))
	assert.True(t, IsDuplicateError(stderrors.New("Error 1062: Duplicate entry 'org_1' for key")))
	assert.False(t, IsDuplicateError(stderrors.New("connection refused")))
	assert.False(t, IsDuplicateError(nil))
}
