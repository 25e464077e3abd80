package repository

import "errors"

// Failure taxonomy of the aggregation pipeline. Upstream-stage failures are
// fatal to the enclosing search; per-symbol failures degrade the page only.
var (
	// ErrRateLimitExceeded: upstream admission denied after all retries.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrUpstreamUnavailable: non-429 upstream failure after all retries.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrInvalidQuery: malformed filter/sort parameters, rejected before any
	// upstream work begins.
	ErrInvalidQuery = errors.New("invalid query")
)
