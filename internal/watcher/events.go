package watcher

import (
	"fmt"

	"inews-rundown-gateway/internal/model"
)

// EventKind enumerates the watcher's observable event stream.
type EventKind string

const (
	EventInfo    EventKind = "info"
	EventWarning EventKind = "warning"
	EventError   EventKind = "error"

	EventRundownCreate EventKind = "rundown_create"
	EventRundownUpdate EventKind = "rundown_update"
	EventRundownDelete EventKind = "rundown_delete"

	EventSegmentCreate EventKind = "segment_create"
	EventSegmentUpdate EventKind = "segment_update"
	EventSegmentDelete EventKind = "segment_delete"

	EventSegmentRanksUpdate EventKind = "segment_ranks_update"
)

// Event is one entry of the watcher's observable stream. Only the fields
// relevant to Kind are populated.
type Event struct {
	Kind    EventKind
	Message string

	RundownID model.RundownID
	Rundown   model.INewsRundown

	SegmentID model.SegmentID
	Segment   model.RundownSegment

	Ranks model.SegmentRanking
}

func infoEvent(format string, v ...interface{}) Event {
	return Event{Kind: EventInfo, Message: fmt.Sprintf(format, v...)}
}

func warningEvent(format string, v ...interface{}) Event {
	return Event{Kind: EventWarning, Message: fmt.Sprintf(format, v...)}
}

func errorEvent(format string, v ...interface{}) Event {
	return Event{Kind: EventError, Message: fmt.Sprintf(format, v...)}
}
