// Package controlplane declares the watcher's outbound contract with the
// playout control plane: status reporting and the previously-ingested
// segment cache consulted to avoid redundant creates on a cold start.
package controlplane

import (
	"context"

	"inews-rundown-gateway/internal/model"
)

// StatusCode is a control-plane device status.
type StatusCode string

const (
	StatusGood         StatusCode = "GOOD"
	StatusWarningMinor StatusCode = "WARNING_MINOR"
	StatusWarningMajor StatusCode = "WARNING_MAJOR"
)

// Client is the gateway's outbound control-plane contract.
type Client interface {
	// SetStatus reports device health after each poll, successful or not.
	SetStatus(ctx context.Context, code StatusCode, messages []string) error

	// GetSegmentsCacheByID fetches the control plane's previously-ingested
	// view of the named segments, used to avoid redundant creates.
	GetSegmentsCacheByID(ctx context.Context, rundownID model.RundownID, segmentIDs []model.SegmentID) (map[model.SegmentID]model.RundownSegment, error)
}
