// Package fake provides a deterministic, in-memory nrcs.Adapter used by
// the watcher's tests: no transport, the fake answers directly from an
// in-memory queue map.
package fake

import (
	"context"
	"fmt"
	"sync"

	"inews-rundown-gateway/internal/model"
	"inews-rundown-gateway/internal/nrcs"
)

// Adapter is a hand-wound nrcs.Adapter: the test sets up queues and
// stories directly, then drives the watcher against it.
type Adapter struct {
	mu sync.Mutex

	rundowns map[string]nrcs.ReducedRundown
	stories  map[model.SegmentID]model.UnrankedSegment

	// FailDownload, if set, makes DownloadRundown fail for the named queue.
	FailDownload map[string]error
	// FailFetch, if set, makes FetchStoriesByID fail entirely.
	FailFetch error
	// MissingStories are segment ids FetchStoriesByID silently omits,
	// simulating a CacheMiss.
	MissingStories map[model.SegmentID]bool

	queueLength int
}

// New creates an empty fake adapter.
func New() *Adapter {
	return &Adapter{
		rundowns:       make(map[string]nrcs.ReducedRundown),
		stories:        make(map[model.SegmentID]model.UnrankedSegment),
		FailDownload:   make(map[string]error),
		MissingStories: make(map[model.SegmentID]bool),
	}
}

// SetRundown installs the listing DownloadRundown returns for queueID.
func (a *Adapter) SetRundown(queueID string, rundown nrcs.ReducedRundown) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rundowns[queueID] = rundown
}

// SetStory installs a story body fetchable by FetchStoriesByID.
func (a *Adapter) SetStory(segment model.UnrankedSegment) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stories[segment.SegmentID] = segment
}

// SetQueueLength sets the value reported by QueueLength.
func (a *Adapter) SetQueueLength(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queueLength = n
}

func (a *Adapter) DownloadRundown(_ context.Context, queueID string) (nrcs.ReducedRundown, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err, ok := a.FailDownload[queueID]; ok {
		return nrcs.ReducedRundown{}, err
	}
	rundown, ok := a.rundowns[queueID]
	if !ok {
		return nrcs.ReducedRundown{}, fmt.Errorf("fake adapter: no rundown installed for queue %q", queueID)
	}
	return rundown, nil
}

func (a *Adapter) FetchStoriesByID(_ context.Context, _ string, segmentIDs []model.SegmentID) (map[model.SegmentID]model.UnrankedSegment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.FailFetch != nil {
		return nil, a.FailFetch
	}

	out := make(map[model.SegmentID]model.UnrankedSegment, len(segmentIDs))
	for _, id := range segmentIDs {
		if a.MissingStories[id] {
			continue
		}
		story, ok := a.stories[id]
		if !ok {
			continue
		}
		out[id] = story
	}
	return out, nil
}

func (a *Adapter) QueueLength() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.queueLength
}
