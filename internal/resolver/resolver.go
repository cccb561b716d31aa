// Package resolver partitions an ordered list of stories into one or
// more rundowns based on in-content boundary markers.
package resolver

import (
	"inews-rundown-gateway/internal/model"
)

// BoundaryFunc decides whether a segment starts a new rundown. Marker
// detection is deliberately a hook; DefaultBoundaryFunc backs it with the
// one introspected field the opaque story payload exposes.
type BoundaryFunc func(model.UnrankedSegment) bool

// DefaultBoundaryFunc starts a new rundown on a story whose Continuity
// flag is set - the gateway's equivalent of an NRCS "CONTINUITY" marker.
func DefaultBoundaryFunc(segment model.UnrankedSegment) bool {
	return segment.INewsStory.Meta.Continuity
}

// Resolve partitions segments into a ResolvedPlaylist using boundary to
// detect rundown starts. The first segment never needs to match boundary:
// it always opens the first rundown.
func Resolve(playlistID model.PlaylistID, segments []model.UnrankedSegment, boundary BoundaryFunc) model.ResolvedPlaylist {
	if boundary == nil {
		boundary = DefaultBoundaryFunc
	}

	playlist := model.ResolvedPlaylist{PlaylistID: playlistID}

	ordinal := 0
	var current *model.ResolvedRundown

	startRundown := func() *model.ResolvedRundown {
		ordinal++
		playlist.Rundowns = append(playlist.Rundowns, model.ResolvedRundown{
			RundownID: model.DeriveRundownID(playlistID, ordinal),
		})
		return &playlist.Rundowns[len(playlist.Rundowns)-1]
	}

	for i, segment := range segments {
		if current == nil || (i > 0 && boundary(segment)) {
			current = startRundown()
			if bt := segment.INewsStory.Meta.BackTime; bt != nil {
				current.BackTime = bt
			}
		}
		current.SegmentIDs = append(current.SegmentIDs, segment.SegmentID)
	}

	if len(playlist.Rundowns) == 0 {
		// An empty queue is not an error: it yields a single empty
		// rundown.
		startRundown()
	}

	return playlist
}
