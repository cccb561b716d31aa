package model

import (
	"math/big"
	"time"
)

// INewsStory is the opaque story payload produced by the (out-of-scope)
// story-body parser. The watcher never interprets its contents beyond the
// single introspected field below; everything else is carried through
// untouched so a real parser's byte blob or tree works unmodified.
type INewsStory struct {
	Meta INewsStoryMeta

	// Payload is the opaque parsed body. The watcher never reads it.
	Payload any
}

// INewsStoryMeta is the one introspected corner of an opaque story: the
// flags the Resolver and emission path need to know about without
// understanding the rest of the story.
type INewsStoryMeta struct {
	// Float marks a story that floats free of normal rundown ordering.
	Float bool
	// Continuity marks a story as a rundown-boundary marker: the default
	// BoundaryFunc (see package resolver) starts a new rundown on it.
	Continuity bool
	// BackTime, if set, is an absolute clock target propagated to the
	// rundown this story starts.
	BackTime *time.Time
}

// UnrankedSegment is a story as fetched from the NRCS, before rank
// assignment. It lives in the watcher's iNewsDataCache, keyed by
// SegmentID, and is replaced whenever its Locator advances.
type UnrankedSegment struct {
	SegmentID  SegmentID
	RundownID  RundownID // current assignment, may be stale mid-poll
	Name       string
	Modified   time.Time
	Locator    string // opaque version token, advanced by the NRCS on edit
	INewsStory INewsStory
}

// ReducedSegment is the ordering-relevant snapshot of a segment: one per
// segment in the current playlist, kept in the watcher's segments cache
// and compared against fresh stories to find locator changes.
type ReducedSegment struct {
	SegmentID SegmentID
	Name      string
	Modified  time.Time
	Rank      *big.Rat
	Locator   string
}

// RundownSegment is a segment as it appears inside an INewsRundown: the
// subset of UnrankedSegment the Differ and the outer process need.
type RundownSegment struct {
	SegmentID SegmentID
	Name      string
	Modified  time.Time
	Locator   string
	Rank      *big.Rat
	Float     bool
	Payload   any
}
