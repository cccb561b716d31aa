package model

import (
	"math/big"
	"time"
)

// ResolvedRundown is one entry of a ResolvedPlaylist: an ordered run of
// segment ids, not yet joined with their story bodies or ranks.
type ResolvedRundown struct {
	RundownID  RundownID
	SegmentIDs []SegmentID
	BackTime   *time.Time
}

// ResolvedPlaylist is the Playlist Resolver's output: a playlist
// partitioned into one or more rundowns, recomputed every poll.
type ResolvedPlaylist struct {
	PlaylistID PlaylistID
	Rundowns   []ResolvedRundown
}

// INewsRundown is the per-poll derived value passed to the Differ: a
// named, versioned, ordered list of segments.
type INewsRundown struct {
	RundownID      RundownID
	Name           string
	GatewayVersion string
	Segments       []RundownSegment
	BackTime       *time.Time
}

// SegmentIDs returns the ordered segment ids of the rundown.
func (r INewsRundown) SegmentIDs() []SegmentID {
	ids := make([]SegmentID, len(r.Segments))
	for i, s := range r.Segments {
		ids[i] = s.SegmentID
	}
	return ids
}

// SegmentRanking is the per-rundown mapping of segment to rank, kept
// across polls so the Rank Assigner can detect unmoved segments.
type SegmentRanking map[SegmentID]*big.Rat
