// Package diff compares a poll's new rundowns against the prior snapshot
// to produce an ordered change list: build id-keyed lookup maps for both
// sides, then walk old-minus-new, new-minus-old, and the intersection in
// that order.
package diff

import (
	"time"

	"inews-rundown-gateway/internal/model"
)

// ChangeKind enumerates the rundown- and segment-level change types.
type ChangeKind string

const (
	RundownCreated ChangeKind = "rundown_created"
	RundownUpdated ChangeKind = "rundown_updated"
	RundownDeleted ChangeKind = "rundown_deleted"

	SegmentCreated ChangeKind = "segment_created"
	SegmentChanged ChangeKind = "segment_changed"
	SegmentMoved   ChangeKind = "segment_moved"
	SegmentDeleted ChangeKind = "segment_deleted"
)

// Change is one entry of the ordered change list. Only the fields
// relevant to Kind are populated.
type Change struct {
	Kind ChangeKind

	RundownID model.RundownID
	Rundown   model.INewsRundown // for RundownCreated/RundownUpdated

	SegmentID model.SegmentID
	Segment   model.RundownSegment // for SegmentCreated/SegmentChanged/SegmentMoved
}

// Diff compares newRundowns against oldRundowns and returns the change
// list in emission order:
//  1. RundownDeleted, then SegmentDeleted
//  2. RundownCreated, then RundownUpdated
//  3. SegmentChanged, SegmentCreated, SegmentMoved for segments not
//     already covered by a containing rundown create/update in step 2
func Diff(newRundowns, oldRundowns []model.INewsRundown) []Change {
	oldByID := indexByID(oldRundowns)
	newByID := indexByID(newRundowns)

	var changes []Change

	// Step 1: deletions, rundown then its segments.
	for _, old := range oldRundowns {
		if _, ok := newByID[old.RundownID]; ok {
			continue
		}
		changes = append(changes, Change{Kind: RundownDeleted, RundownID: old.RundownID})
		for _, seg := range old.Segments {
			changes = append(changes, Change{Kind: SegmentDeleted, RundownID: old.RundownID, SegmentID: seg.SegmentID})
		}
	}

	// Segments deleted from a rundown that still exists (moved elsewhere,
	// or simply dropped). A segment absent from the new rundown it
	// belonged to is a delete there even if it reappears in a different
	// new rundown.
	for _, old := range oldRundowns {
		newRundown, ok := newByID[old.RundownID]
		if !ok {
			continue // already emitted above
		}
		newSegByID := segmentIndex(newRundown.Segments)
		for _, seg := range old.Segments {
			if _, stillHere := newSegByID[seg.SegmentID]; !stillHere {
				changes = append(changes, Change{Kind: SegmentDeleted, RundownID: old.RundownID, SegmentID: seg.SegmentID})
			}
		}
	}

	// Step 2: rundown create/update, each carrying its full segment list.
	coveredByRundownChange := make(map[model.RundownID]bool)
	for _, n := range newRundowns {
		old, existed := oldByID[n.RundownID]
		if !existed {
			changes = append(changes, Change{Kind: RundownCreated, RundownID: n.RundownID, Rundown: n})
			coveredByRundownChange[n.RundownID] = true
			continue
		}
		if rundownChanged(old, n) {
			changes = append(changes, Change{Kind: RundownUpdated, RundownID: n.RundownID, Rundown: n})
			coveredByRundownChange[n.RundownID] = true
		}
	}

	// Step 3: segment-level changes not already covered by a containing
	// rundown create/update.
	for _, n := range newRundowns {
		if coveredByRundownChange[n.RundownID] {
			continue
		}
		old, existed := oldByID[n.RundownID]
		oldSegByID := map[model.SegmentID]model.RundownSegment{}
		if existed {
			oldSegByID = segmentIndex(old.Segments)
		}

		// Positions are compared among peers only - the segments present
		// in both the old and the new rundown - so an insert or delete
		// elsewhere in the rundown does not count as a move.
		newSegByID := segmentIndex(n.Segments)
		oldPeerPos := make(map[model.SegmentID]int)
		for _, s := range old.Segments {
			if _, ok := newSegByID[s.SegmentID]; ok {
				oldPeerPos[s.SegmentID] = len(oldPeerPos)
			}
		}
		peerPos := 0

		for _, seg := range n.Segments {
			oldSeg, hadOld := oldSegByID[seg.SegmentID]
			switch {
			case !existedAnywhere(oldRundowns, seg.SegmentID):
				changes = append(changes, Change{Kind: SegmentCreated, RundownID: n.RundownID, SegmentID: seg.SegmentID, Segment: seg})
			case !hadOld:
				// Moved in from a different rundown: still a create in
				// this rundown's context (the source rundown already got
				// its SegmentDeleted in step 1).
				changes = append(changes, Change{Kind: SegmentCreated, RundownID: n.RundownID, SegmentID: seg.SegmentID, Segment: seg})
			case oldSeg.Locator != seg.Locator:
				changes = append(changes, Change{Kind: SegmentChanged, RundownID: n.RundownID, SegmentID: seg.SegmentID, Segment: seg})
			default:
				if oldPeerPos[seg.SegmentID] != peerPos {
					changes = append(changes, Change{Kind: SegmentMoved, RundownID: n.RundownID, SegmentID: seg.SegmentID, Segment: seg})
				}
			}
			if hadOld {
				peerPos++
			}
		}
	}

	return changes
}

func indexByID(rundowns []model.INewsRundown) map[model.RundownID]model.INewsRundown {
	m := make(map[model.RundownID]model.INewsRundown, len(rundowns))
	for _, r := range rundowns {
		m[r.RundownID] = r
	}
	return m
}

func segmentIndex(segments []model.RundownSegment) map[model.SegmentID]model.RundownSegment {
	m := make(map[model.SegmentID]model.RundownSegment, len(segments))
	for _, s := range segments {
		m[s.SegmentID] = s
	}
	return m
}

func positionOf(segments []model.RundownSegment, id model.SegmentID) int {
	for i, s := range segments {
		if s.SegmentID == id {
			return i
		}
	}
	return -1
}

// existedAnywhere reports whether a segment id appeared in any old
// rundown, used to tell a genuine create from a cross-rundown move.
func existedAnywhere(oldRundowns []model.INewsRundown, id model.SegmentID) bool {
	for _, r := range oldRundowns {
		for _, s := range r.Segments {
			if s.SegmentID == id {
				return true
			}
		}
	}
	return false
}

// rundownChanged reports whether a rundown present in both snapshots
// differs in a way *not* already captured by segment-level changes.
// Segment set and ordering changes are always fully representable as
// SegmentCreated/SegmentMoved/SegmentDeleted, so they never land here -
// only a change with no segment-level counterpart does, like a backTime
// shift alone.
func rundownChanged(old, updated model.INewsRundown) bool {
	if old.Name != updated.Name {
		return true
	}
	if !backTimeEqual(old.BackTime, updated.BackTime) {
		return true
	}
	return false
}

func backTimeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
