package watcher

import "errors"

// Sentinel error kinds. Every concrete error wraps one of these with
// fmt.Errorf so callers can classify with errors.Is while the message
// still carries context.
var (
	// ErrFetchFailure: an NRCS download or story fetch failed. The
	// rundown is skipped for this poll; previous caches are preserved.
	ErrFetchFailure = errors.New("nrcs fetch failure")

	// ErrCacheMiss: an expected story is missing from cache after fetch.
	// The affected segment is dropped from this poll's emission.
	ErrCacheMiss = errors.New("story missing from cache")

	// ErrRankAssignmentFailure: the ranker returned no rank for a
	// required segment.
	ErrRankAssignmentFailure = errors.New("rank assignment failure")

	// ErrVersionMismatch: the rundown's gatewayVersion differs from the
	// configured one. Silently skipped, not logged as an error.
	ErrVersionMismatch = errors.New("gateway version mismatch")
)
