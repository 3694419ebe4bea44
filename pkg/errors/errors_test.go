package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_HTTPStatusAndMessage(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")

	testCases := []struct {
		err     *AppError
		status  int
		message string
	}{
		{NewNotFoundError("unknown field"), http.StatusNotFound, "unknown field"},
		{NewValidationError("window must be positive"), http.StatusBadRequest, "window must be positive"},
		{NewInternalError("failed to query warehouse", cause), http.StatusInternalServerError, "internal server error"},
		{NewExternalError("failed to read umami events", cause), http.StatusBadGateway, RetryMessage},
		{NewUnavailableError("workspace not built", cause), http.StatusServiceUnavailable, RetryMessage},
	}

	for _, tc := range testCases {
		t.Run(string(tc.err.Type), func(t *testing.T) {
			assert.Equal(t, tc.status, tc.err.HTTPStatus())
			assert.Equal(t, tc.message, tc.err.UserMessage())
		})
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("building workspace: %w", NewExternalError("typesense export failed", nil))

	appErr := AsAppError(wrapped)
	assert.Equal(t, ErrorTypeExternal, appErr.Type)
	assert.True(t, IsType(wrapped, ErrorTypeExternal))
	assert.False(t, IsType(wrapped, ErrorTypeInternal))

	plain := AsAppError(fmt.Errorf("boom"))
	assert.Equal(t, ErrorTypeInternal, plain.Type)
	assert.EqualError(t, plain.Unwrap(), "boom")
}
