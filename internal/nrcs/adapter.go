// Package nrcs declares the interface the watcher uses to talk to the
// newsroom computer system. The concrete file-transfer client lives
// outside this repository; this package specifies only the contract the
// watcher depends on, plus the value types that cross it.
package nrcs

import (
	"context"
	"time"

	"inews-rundown-gateway/internal/model"
)

// ReducedSegmentListing is one entry in a queue listing: enough to detect
// whether a story needs refetching, without its body.
type ReducedSegmentListing struct {
	SegmentID model.SegmentID
	Name      string
	Modified  time.Time
	Locator   string
}

// ReducedRundown is the result of downloading a queue: its ordered
// segment listing plus the gateway version the NRCS tags it with.
type ReducedRundown struct {
	QueueID        string
	GatewayVersion string
	Segments       []ReducedSegmentListing
}

// Adapter is the NRCS client contract. Implementations are expected to
// reuse a bounded connection pool internally; the watcher does not retry
// at this layer.
type Adapter interface {
	// DownloadRundown fetches the current listing for one queue.
	DownloadRundown(ctx context.Context, queueID string) (ReducedRundown, error)

	// FetchStoriesByID fetches the full bodies of the named segments.
	// Implementations may fetch concurrently; the returned map may omit
	// ids that could not be fetched (a CacheMiss for the caller).
	FetchStoriesByID(ctx context.Context, queueID string, segmentIDs []model.SegmentID) (map[model.SegmentID]model.UnrankedSegment, error)

	// QueueLength reports the adapter's current in-flight request
	// backlog, observed after each poll for a log-only warning.
	QueueLength() int
}
