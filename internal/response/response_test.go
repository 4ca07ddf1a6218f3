package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/apperror"
	"todo/internal/response"
)

func TestLastPage(t *testing.T) {
	assert.Equal(t, 1, response.LastPage(0, 15))
	assert.Equal(t, 1, response.LastPage(15, 15))
	assert.Equal(t, 2, response.LastPage(16, 15))
	assert.Equal(t, 2, response.LastPage(30, 15))
	assert.Equal(t, 1, response.LastPage(10, 0))
}

func TestSuccess_OmitsEmptyFields(t *testing.T) {
	body, err := json.Marshal(response.Success(nil, "Logged out successfully"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"message":"Logged out successfully"}`, string(body))
}

func TestPaginated_EmptyPageKeepsDataArray(t *testing.T) {
	env := response.Paginated([]string(nil), 0, 15, 1, "Tasks retrieved successfully")

	body, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": true,
		"message": "Tasks retrieved successfully",
		"data": [],
		"pagination": {"total": 0, "per_page": 15, "current_page": 1, "last_page": 1}
	}`, string(body))
}

func TestFromError_Classified(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"unauthenticated", apperror.Unauthenticated(""), http.StatusUnauthorized, "Unauthenticated"},
		{"forbidden", apperror.Forbidden(""), http.StatusForbidden, "Forbidden"},
		{"not found", apperror.NotFound("task"), http.StatusNotFound, "task not found"},
		{"wrapped not found", fmt.Errorf("load: %w", apperror.NotFound("tag")), http.StatusNotFound, "tag not found"},
		{"rate limited", apperror.TooManyRequests(), http.StatusTooManyRequests, "Too many requests"},
		{"conflict", apperror.Conflict("in use"), http.StatusConflict, "in use"},
		{"bad request", apperror.BadRequest("Invalid verification link"), http.StatusBadRequest, "Invalid verification link"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := response.FromError(tc.err, false)
			assert.Equal(t, tc.status, status)
			assert.False(t, env.Success)
			assert.Equal(t, tc.message, env.Message)
			assert.Nil(t, env.Errors)
		})
	}
}

func TestFromError_ValidationCarriesFields(t *testing.T) {
	status, env := response.FromError(apperror.InvalidField("name", "The name has already been taken."), false)

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Validation errors", env.Message)
	assert.Equal(t, map[string][]string{"name": {"The name has already been taken."}}, env.Errors)
}

func TestFromError_UnclassifiedIsRedacted(t *testing.T) {
	status, env := response.FromError(errors.New("pq: connection refused"), false)

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Server Error", env.Message)
	assert.Nil(t, env.Errors)
}

func TestFromError_DebugExposesDetails(t *testing.T) {
	err := &apperror.PanicError{Value: "boom", File: "handler.go", Line: 42, Stack: "goroutine 1"}

	status, env := response.FromError(err, true)

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "panic: boom", env.Message)
	details, ok := env.Errors.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "*apperror.PanicError", details["exception"])
	assert.Equal(t, "handler.go", details["file"])
	assert.Equal(t, 42, details["line"])
}
