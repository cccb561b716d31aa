// Package watcher implements the rundown watcher: the orchestrator that
// owns every cache, drives a single-flight poll timer, calls the NRCS
// adapter, resolver, rank assigner and differ in order, and emits a
// normalised event stream to the control plane.
package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"inews-rundown-gateway/internal/config"
	"inews-rundown-gateway/internal/controlplane"
	"inews-rundown-gateway/internal/logger"
	"inews-rundown-gateway/internal/model"
	"inews-rundown-gateway/internal/nrcs"
	"inews-rundown-gateway/internal/resolver"
)

// Watcher polls one set of NRCS queues, converges them against a prior
// snapshot and publishes the resulting changes. Every exported method is
// safe to call concurrently; the processing lock (mu) serialises poll
// cycles and any externally invoked mutation.
type Watcher struct {
	cfg          config.Config
	adapter      nrcs.Adapter
	controlPlane controlplane.Client
	log          logger.Logger
	boundary     resolver.BoundaryFunc

	mu sync.Mutex

	iNewsDataCache map[model.SegmentID]model.UnrankedSegment
	segments       map[model.SegmentID]model.ReducedSegment
	rundowns       map[model.RundownID][]model.SegmentID
	playlists      map[model.PlaylistID][]model.RundownID

	cachedAssignedRundowns    map[model.PlaylistID][]model.INewsRundown
	cachedPlaylistAssignments map[model.PlaylistID]model.ResolvedPlaylist

	previousRanks               map[model.RundownID]model.SegmentRanking
	lastForcedRankRecalculation map[model.RundownID]time.Time
	skipCacheForRundown         map[model.RundownID]bool

	events chan Event

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once

	lockSkips int
}

// NewWatcher constructs a Watcher over one resolved configuration. boundary
// may be nil, in which case resolver.DefaultBoundaryFunc is used.
func NewWatcher(cfg config.Config, adapter nrcs.Adapter, controlPlane controlplane.Client, log logger.Logger, boundary resolver.BoundaryFunc) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		cfg:          cfg,
		adapter:      adapter,
		controlPlane: controlPlane,
		log:          log,
		boundary:     boundary,

		iNewsDataCache: make(map[model.SegmentID]model.UnrankedSegment),
		segments:       make(map[model.SegmentID]model.ReducedSegment),
		rundowns:       make(map[model.RundownID][]model.SegmentID),
		playlists:      make(map[model.PlaylistID][]model.RundownID),

		cachedAssignedRundowns:    make(map[model.PlaylistID][]model.INewsRundown),
		cachedPlaylistAssignments: make(map[model.PlaylistID]model.ResolvedPlaylist),

		previousRanks:               make(map[model.RundownID]model.SegmentRanking),
		lastForcedRankRecalculation: make(map[model.RundownID]time.Time),
		skipCacheForRundown:         make(map[model.RundownID]bool),

		events: make(chan Event, 1024),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins polling in a background goroutine. Its first cycle runs
// immediately; every subsequent cycle starts pollInterval after the
// previous one finished (a single-flight timer, not a fixed-rate tick).
func (w *Watcher) Start() {
	go w.run()
}

// Stop cancels the timer. It does not interrupt an in-flight cycle; callers
// wanting to observe full quiescence must wait for that cycle's Unlock,
// e.g. by calling ResyncRundown or another lock-acquiring method and
// letting it block until the cycle completes. Safe to call repeatedly.
func (w *Watcher) Stop() {
	w.stopOnce.Do(w.cancel)
}

// Dispose is an alias for Stop.
func (w *Watcher) Dispose() {
	w.Stop()
}

// Events returns the watcher's observable event stream.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

func (w *Watcher) run() {
	w.pollAll(w.ctx)
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-time.After(w.cfg.PollInterval):
			w.pollAll(w.ctx)
		}
	}
}

// ResyncRundown invalidates every cache entry this watcher holds for
// rundownID and arms a forced full refetch for its next poll: the local
// iNewsDataCache/segments entries are dropped immediately, so the next
// poll's staleness check naturally treats every one of its segments as
// uncached, and skipCacheForRundown is armed so that poll's
// control-plane cache query covers the rundown's full segment list
// rather than only the locally-stale subset.
func (w *Watcher) ResyncRundown(rundownID model.RundownID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, segID := range w.rundowns[rundownID] {
		delete(w.iNewsDataCache, segID)
		delete(w.segments, segID)
	}
	delete(w.rundowns, rundownID)

	if pid, ok := w.playlistOwning(rundownID); ok {
		w.cachedAssignedRundowns[pid] = removeRundown(w.cachedAssignedRundowns[pid], rundownID)
	}

	delete(w.previousRanks, rundownID)
	delete(w.lastForcedRankRecalculation, rundownID)
	w.skipCacheForRundown[rundownID] = true

	w.log.Infof("resync requested for rundown %s: caches invalidated", rundownID)
}

func (w *Watcher) playlistOwning(rundownID model.RundownID) (model.PlaylistID, bool) {
	for pid, rids := range w.playlists {
		for _, rid := range rids {
			if rid == rundownID {
				return pid, true
			}
		}
	}
	return "", false
}

func removeRundown(rundowns []model.INewsRundown, id model.RundownID) []model.INewsRundown {
	out := rundowns[:0:0]
	for _, r := range rundowns {
		if r.RundownID != id {
			out = append(out, r)
		}
	}
	return out
}

// pollAll runs one single-flight cycle over every configured queue, in
// configured order, under the processing lock.
func (w *Watcher) pollAll(ctx context.Context) {
	if !w.mu.TryLock() {
		w.lockSkips++
		w.log.Warnf("poll cycle skipped: processing lock contended (skip count %d)", w.lockSkips)
		w.emitEvent(warningEvent("poll skipped: lock contention, skip count %d", w.lockSkips))
		if err := w.controlPlane.SetStatus(ctx, controlplane.StatusWarningMinor, []string{fmt.Sprintf("lock contention, skip count %d", w.lockSkips)}); err != nil {
			w.log.Warnf("failed to report contention status: %v", err)
		}
		return
	}
	defer w.mu.Unlock()
	w.lockSkips = 0

	start := w.now()
	totalChanges := 0
	var failures []string

	for _, queue := range w.cfg.Queues {
		n, err := w.pollQueue(ctx, queue)
		if err != nil {
			failures = append(failures, err.Error())
			w.log.Errorf("poll queue %s failed: %v", queue.QueueID, err)
			w.emitEvent(errorEvent("poll queue %s failed: %v", queue.QueueID, err))
			continue
		}
		totalChanges += n
	}

	code := controlplane.StatusGood
	if len(failures) > 0 {
		code = controlplane.StatusWarningMajor
	}
	if err := w.controlPlane.SetStatus(ctx, code, failures); err != nil {
		w.log.Warnf("failed to report status: %v", err)
	}

	w.log.Infof("poll cycle complete: queues=%d changes=%d duration=%s", len(w.cfg.Queues), totalChanges, w.now().Sub(start))
}

func (w *Watcher) now() time.Time { return time.Now() }

func (w *Watcher) emitEvent(e Event) {
	select {
	case w.events <- e:
	case <-w.ctx.Done():
	}
}
