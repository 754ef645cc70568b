package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodes(t *testing.T) {
	cases := map[*AppError]int{
		NewValidationError("title is required"): http.StatusBadRequest,
		NewInvalidCredentialsError():            http.StatusUnauthorized,
		NewInsufficientPermissionsError("edit"): http.StatusForbidden,
		NewNotFoundError("recipe"):              http.StatusNotFound,
		NewEmailAlreadyExistsError("a@b.c"):     http.StatusConflict,
		NewTooManyRequestsError():               http.StatusTooManyRequests,
		NewInternalError(""):                    http.StatusInternalServerError,
	}
	for err, status := range cases {
		assert.Equal(t, status, err.StatusCode(), err.Error())
	}
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("Teapot").Status())
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "Parent comment not found", NewNotFoundError("parent comment").Message)
	assert.Equal(t, "Resource not found", NewNotFoundError("").Message)
}

func TestWrapKeepsAppErrors(t *testing.T) {
	conflict := NewConflictError("Slug taken")
	wrapped := fmt.Errorf("create recipe: %w", conflict)

	assert.Same(t, conflict, Wrap(wrapped, "ignored"))
	assert.True(t, Is(wrapped, CodeConflict))
	assert.False(t, Is(wrapped, CodeNotFound))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestWrapHidesPlainErrors(t *testing.T) {
	cause := stderrors.New("disk full")
	appErr := Wrap(cause, "Could not save")

	assert.Equal(t, CodeInternal, appErr.Code)
	assert.ErrorIs(t, appErr, cause)
	assert.NotEmpty(t, appErr.StackTrace)
	assert.NotContains(t, appErr.StackTrace, "pkg/errors/errors.go")
}

func TestOnlyInternalErrorsCaptureStacks(t *testing.T) {
	assert.Empty(t, NewValidationError("x").StackTrace)
	assert.NotEmpty(t, NewDatabaseError("list recipes", stderrors.New("boom")).StackTrace)
}

func TestErrorString(t *testing.T) {
	err := NewValidationError("title is required", "servings must be positive").
		WithCause(stderrors.New("bad input"))
	assert.Equal(t,
		"ValidationError: Validation failed (title is required; servings must be positive): bad input",
		err.Error())
}

func TestValidationErrors(t *testing.T) {
	appErr := NewValidationErrors([]ValidationError{
		{Field: "title", Tag: "required", Message: "title is required"},
		{Field: "email", Tag: "email", Message: "email must be a valid email address"},
	})

	assert.Equal(t, []string{"title is required", "email must be a valid email address"}, appErr.Details)
	require.Contains(t, appErr.Metadata, "validation_errors")
	assert.Equal(t, "validation failed", ValidationErrors(nil).Error())
}

func TestToErrorResponseHidesInternalDetails(t *testing.T) {
	internal := NewAppError(CodeInternal, "Database operation failed", "relation missing")
	resp := ToErrorResponse(internal, "req-1")
	assert.Nil(t, resp.Details)
	assert.Equal(t, "req-1", resp.RequestID)

	resp = ToErrorResponse(NewValidationError("title is required"), "")
	assert.Equal(t, []string{"title is required"}, resp.Details)
}
