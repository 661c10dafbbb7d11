package core

import "errors"

var (
	// ErrRateLimited marks a classifier call rejected for quota or
	// rate-limit reasons. It is the only error class the retry policy
	// will retry.
	ErrRateLimited = errors.New("rate limited by model provider")

	// ErrClassifierUnavailable marks a classifier whose underlying model
	// client never initialized. Callers degrade to the safe default.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrMalformedResponse marks a model response that could not be parsed
	// into an action. Callers degrade to the safe default.
	ErrMalformedResponse = errors.New("malformed model response")
)
