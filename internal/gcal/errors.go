package gcal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// AuthError means the remote rejected our credentials. Never retried; the
// user has to re-authenticate (delete the token file and run again).
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (delete the token file and re-run to re-authenticate): %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// QuotaError means the rate-limit retries were exhausted. The caller should
// rerun later with a longer pause.
type QuotaError struct {
	Attempts int
	Err      error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded after %d attempts (rerun later with a longer --pause): %v", e.Attempts, e.Err)
}

func (e *QuotaError) Unwrap() error { return e.Err }

// NetworkError is a transient transport or server failure that survived the
// retry budget. Callers downgrade it to a per-row failure where possible.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// isRateLimited reports whether err is a rate-limit or quota response.
func isRateLimited(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 {
			return true
		}
		if apiErr.Code == 403 {
			for _, item := range apiErr.Errors {
				switch item.Reason {
				case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded", "dailyLimitExceeded":
					return true
				}
			}
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") || strings.Contains(msg, "limits exceeded")
}

// isAuthFailure reports whether err is a credential problem.
func isAuthFailure(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 401 {
		return true
	}
	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) {
		return true
	}
	return strings.Contains(err.Error(), "invalid_grant")
}

// isTransient reports whether err looks like a transport or server-side
// failure worth retrying: any 5xx, or anything that is not a structured API
// error (timeouts, connection resets).
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 500
	}
	return true
}

// isNotFound reports whether err is a 404/410 from the API, which dedupe and
// delete flows treat as already-done.
func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 404 || apiErr.Code == 410
	}
	return false
}
