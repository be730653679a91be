package gcal

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

func apiError(code int, reason string) *googleapi.Error {
	err := &googleapi.Error{Code: code, Message: "test"}
	if reason != "" {
		err.Errors = []googleapi.ErrorItem{{Reason: reason}}
	}
	return err
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, isRateLimited(apiError(429, "")))
	assert.True(t, isRateLimited(apiError(403, "rateLimitExceeded")))
	assert.True(t, isRateLimited(apiError(403, "userRateLimitExceeded")))
	assert.True(t, isRateLimited(apiError(403, "quotaExceeded")))
	assert.True(t, isRateLimited(apiError(403, "dailyLimitExceeded")))
	assert.True(t, isRateLimited(errors.New("Calendar usage limits exceeded.")))

	assert.False(t, isRateLimited(apiError(403, "forbidden")))
	assert.False(t, isRateLimited(apiError(500, "")))
	assert.False(t, isRateLimited(errors.New("connection reset")))
}

func TestIsRateLimited_Wrapped(t *testing.T) {
	err := fmt.Errorf("create event: %w", apiError(429, ""))
	assert.True(t, isRateLimited(err))
}

func TestIsAuthFailure(t *testing.T) {
	assert.True(t, isAuthFailure(apiError(401, "")))
	assert.True(t, isAuthFailure(&oauth2.RetrieveError{}))
	assert.True(t, isAuthFailure(errors.New(`oauth2: "invalid_grant" "Token has been expired or revoked."`)))

	assert.False(t, isAuthFailure(apiError(403, "forbidden")))
	assert.False(t, isAuthFailure(errors.New("connection reset")))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(apiError(500, "")))
	assert.True(t, isTransient(apiError(503, "")))
	assert.True(t, isTransient(errors.New("connection reset by peer")))

	assert.False(t, isTransient(apiError(400, "")))
	assert.False(t, isTransient(apiError(404, "")))
	assert.False(t, isTransient(context.Canceled))
	assert.False(t, isTransient(context.DeadlineExceeded))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(apiError(404, "")))
	assert.True(t, isNotFound(apiError(410, "")))
	assert.False(t, isNotFound(apiError(400, "")))
	assert.False(t, isNotFound(errors.New("gone")))
}

func TestErrorUnwrapping(t *testing.T) {
	cause := errors.New("boom")

	var target *AuthError
	assert.ErrorAs(t, fmt.Errorf("wrapped: %w", &AuthError{Err: cause}), &target)
	assert.ErrorIs(t, &AuthError{Err: cause}, cause)
	assert.ErrorIs(t, &QuotaError{Attempts: 5, Err: cause}, cause)
	assert.ErrorIs(t, &NetworkError{Err: cause}, cause)
}
