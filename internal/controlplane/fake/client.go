// Package fake provides a deterministic controlplane.Client test double.
package fake

import (
	"context"
	"sync"

	"inews-rundown-gateway/internal/controlplane"
	"inews-rundown-gateway/internal/model"
)

// Client is a hand-wound controlplane.Client recording every status
// report and serving a fixed segment cache.
type Client struct {
	mu sync.Mutex

	segmentCache map[model.RundownID]map[model.SegmentID]model.RundownSegment
	Statuses     []StatusReport

	// FailGetCache, if set, makes GetSegmentsCacheByID fail for the named rundown.
	FailGetCache map[model.RundownID]error
}

// StatusReport records one call to SetStatus.
type StatusReport struct {
	Code     controlplane.StatusCode
	Messages []string
}

// New creates an empty fake control-plane client.
func New() *Client {
	return &Client{
		segmentCache: make(map[model.RundownID]map[model.SegmentID]model.RundownSegment),
		FailGetCache: make(map[model.RundownID]error),
	}
}

// SeedCache installs the control plane's cached view of a rundown's
// segments, as if it had been ingested on a prior run.
func (c *Client) SeedCache(rundownID model.RundownID, segments map[model.SegmentID]model.RundownSegment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.segmentCache[rundownID] = segments
}

func (c *Client) SetStatus(_ context.Context, code controlplane.StatusCode, messages []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statuses = append(c.Statuses, StatusReport{Code: code, Messages: messages})
	return nil
}

func (c *Client) GetSegmentsCacheByID(_ context.Context, rundownID model.RundownID, segmentIDs []model.SegmentID) (map[model.SegmentID]model.RundownSegment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err, ok := c.FailGetCache[rundownID]; ok {
		return nil, err
	}

	cached := c.segmentCache[rundownID]
	out := make(map[model.SegmentID]model.RundownSegment, len(segmentIDs))
	for _, id := range segmentIDs {
		if seg, ok := cached[id]; ok {
			out[id] = seg
		}
	}
	return out, nil
}

// LastStatus returns the most recently reported status, or the zero value
// if none has been reported.
func (c *Client) LastStatus() StatusReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Statuses) == 0 {
		return StatusReport{}
	}
	return c.Statuses[len(c.Statuses)-1]
}
