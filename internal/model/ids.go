// Package model holds the value types shared across the rundown watcher:
// identifiers, the per-poll entities built from NRCS data, and the cached
// ranking state consulted across polls.
package model

import "fmt"

// PlaylistID identifies a monitored NRCS queue before it has been
// partitioned into rundowns.
type PlaylistID string

// RundownID identifies one contiguous run of segments within a playlist.
// It is always derived from a PlaylistID by DeriveRundownID.
type RundownID string

// SegmentID identifies one editorial item (story), stable across locator
// changes.
type SegmentID string

// DeriveRundownID builds the Nth rundown id for a playlist, ordinal
// starting at 1.
func DeriveRundownID(playlistID PlaylistID, ordinal int) RundownID {
	return RundownID(fmt.Sprintf("%s_%d", playlistID, ordinal))
}
