package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FromStatus maps an HTTP status and the provider's message to a sentinel.
// Statuses with no sentinel are returned as a plain error.
func FromStatus(status int, msg string) error {
	switch status {
	case http.StatusTooManyRequests:
		// Quota exhaustion needs user action, a rate limit only needs time.
		if strings.Contains(msg, "quota") || strings.Contains(msg, "billing") {
			return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
		}
		return fmt.Errorf("%s: %w", msg, ErrRateLimit)
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", msg, ErrAuthFailed)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("%s: %w", msg, ErrTimeout)
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%s: %w", msg, ErrBadRequest)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return fmt.Errorf("%s: %w", msg, ErrServer)
	}
	return fmt.Errorf("HTTP %d: %s", status, msg)
}

// IsRetryable reports whether err is transient: rate limits, timeouts and
// server errors. Cancellation is never retried.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrServer) ||
		errors.Is(err, context.DeadlineExceeded)
}
