// Package apierr classifies failures of the remote transcription API into
// a small set of sentinels and retries the transient ones.
//
// Adapters convert provider errors with FromStatus; callers test them with
// errors.Is and hand IsRetryable to a Policy.
package apierr

import "errors"

var (
	// ErrRateLimit is a 429 that only needs time to clear.
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded is a 429 caused by billing; retrying will not help.
	ErrQuotaExceeded = errors.New("quota exceeded")

	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed means the API key was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest covers 4xx responses without a dedicated sentinel,
	// including uploads over the size limit.
	ErrBadRequest = errors.New("bad request")

	// ErrServer is a transient 5xx.
	ErrServer = errors.New("server error")
)
