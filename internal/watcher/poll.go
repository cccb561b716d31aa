package watcher

import (
	"context"
	"fmt"
	"math/big"

	"inews-rundown-gateway/internal/config"
	"inews-rundown-gateway/internal/diff"
	"inews-rundown-gateway/internal/model"
	"inews-rundown-gateway/internal/nrcs"
	"inews-rundown-gateway/internal/rank"
	"inews-rundown-gateway/internal/resolver"
)

// pollQueue runs one queue's download-resolve-rank-diff-emit-commit sequence,
// under the caller's processing lock. It returns the number of events
// emitted.
func (w *Watcher) pollQueue(ctx context.Context, queue config.Queue) (int, error) {
	playlistID := model.PlaylistID(queue.QueueID)

	reduced, err := w.adapter.DownloadRundown(ctx, queue.QueueID)
	if err != nil {
		return 0, fmt.Errorf("%w: queue %s: %v", ErrFetchFailure, queue.QueueID, err)
	}
	if reduced.GatewayVersion != w.cfg.GatewayVersion {
		// Version mismatch: silently skipped, status stays GOOD.
		w.log.Debugf("queue %s: %v (%s != %s)", queue.QueueID, ErrVersionMismatch, reduced.GatewayVersion, w.cfg.GatewayVersion)
		return 0, nil
	}

	staleIDs := w.staleListedSegments(reduced.Segments)
	if len(staleIDs) > 0 {
		fetched, err := w.adapter.FetchStoriesByID(ctx, queue.QueueID, staleIDs)
		if err != nil {
			return 0, fmt.Errorf("%w: queue %s: %v", ErrFetchFailure, queue.QueueID, err)
		}
		for id, story := range fetched {
			w.iNewsDataCache[id] = story
		}
	}

	ordered := w.orderedStories(queue.QueueID, reduced.Segments)
	resolved := resolver.Resolve(playlistID, ordered, w.boundary)

	newRundowns, cpCaches, err := w.buildRundowns(ctx, queue, resolved)
	if err != nil {
		return 0, err
	}

	oldRundowns := w.cachedAssignedRundowns[playlistID]
	if len(oldRundowns) == 0 {
		// Nothing persists across restarts. On a cold start the
		// control-plane cache is consulted so segments it already knows
		// about don't surface as spurious creates.
		oldRundowns = synthesizeColdStartBaseline(newRundowns, cpCaches)
	}
	w.seedPreviousRanks(oldRundowns)

	rankResults := w.assignRanks(newRundowns)
	w.stampRanks(newRundowns, rankResults)

	changes := diff.Diff(newRundowns, oldRundowns)
	n := w.emitChanges(changes, rankResults)

	w.commit(playlistID, resolved, newRundowns, rankResults)

	if ql := w.adapter.QueueLength(); ql > 0 {
		// Log-only observation, never acted on.
		w.log.Warnf("queue %s: adapter backlog, queueLength=%d", queue.QueueID, ql)
	}

	return n, nil
}

// staleListedSegments finds the segments needing a body fetch in the
// flat NRCS listing, before anything is resolved into rundowns: those
// not cached, or whose locator advanced.
func (w *Watcher) staleListedSegments(listings []nrcs.ReducedSegmentListing) []model.SegmentID {
	var stale []model.SegmentID
	for _, l := range listings {
		cached, ok := w.iNewsDataCache[l.SegmentID]
		if !ok || cached.Locator != l.Locator {
			stale = append(stale, l.SegmentID)
		}
	}
	return stale
}

// orderedStories joins the listing order against iNewsDataCache. A
// segment still missing after the fetch is a cache miss: it is reported
// and dropped from this poll's emission while the others proceed.
func (w *Watcher) orderedStories(queueID string, listings []nrcs.ReducedSegmentListing) []model.UnrankedSegment {
	out := make([]model.UnrankedSegment, 0, len(listings))
	for _, l := range listings {
		story, ok := w.iNewsDataCache[l.SegmentID]
		if !ok {
			w.log.Errorf("%v: queue %s segment %s missing from cache after fetch", ErrCacheMiss, queueID, l.SegmentID)
			w.emitEvent(errorEvent("segment %s missing from cache after fetch, dropped from this poll", l.SegmentID))
			continue
		}
		out = append(out, story)
	}
	return out
}

// buildRundowns joins each resolved rundown's segment ids against
// iNewsDataCache and consults the control-plane cache for the rundown's
// stale segments (or its full segment list, if ResyncRundown armed
// skipCacheForRundown for it).
func (w *Watcher) buildRundowns(ctx context.Context, queue config.Queue, resolved model.ResolvedPlaylist) ([]model.INewsRundown, map[model.RundownID]map[model.SegmentID]model.RundownSegment, error) {
	out := make([]model.INewsRundown, 0, len(resolved.Rundowns))
	cpCaches := make(map[model.RundownID]map[model.SegmentID]model.RundownSegment, len(resolved.Rundowns))

	for _, rr := range resolved.Rundowns {
		queryIDs := w.staleRundownSegments(rr)
		if w.skipCacheForRundown[rr.RundownID] {
			queryIDs = rr.SegmentIDs
			delete(w.skipCacheForRundown, rr.RundownID)
		}

		var cpCache map[model.SegmentID]model.RundownSegment
		if len(queryIDs) > 0 {
			var err error
			cpCache, err = w.controlPlane.GetSegmentsCacheByID(ctx, rr.RundownID, queryIDs)
			if err != nil {
				w.log.Warnf("control-plane cache fetch failed for rundown %s: %v", rr.RundownID, err)
			}
		}
		cpCaches[rr.RundownID] = cpCache

		out = append(out, w.assembleRundown(queue, rr, cpCache))
	}

	return out, cpCaches, nil
}

// staleRundownSegments is the per-rundown analogue of staleListedSegments,
// used once segment ids are already grouped into their resolved rundown.
func (w *Watcher) staleRundownSegments(rr model.ResolvedRundown) []model.SegmentID {
	var out []model.SegmentID
	for _, id := range rr.SegmentIDs {
		cur, ok := w.iNewsDataCache[id]
		if !ok {
			continue
		}
		prev, known := w.segments[id]
		if !known || prev.Locator != cur.Locator {
			out = append(out, id)
		}
	}
	return out
}

func (w *Watcher) assembleRundown(queue config.Queue, rr model.ResolvedRundown, cpCache map[model.SegmentID]model.RundownSegment) model.INewsRundown {
	rundown := model.INewsRundown{
		RundownID:      rr.RundownID,
		Name:           rundownName(queue, rr),
		GatewayVersion: w.cfg.GatewayVersion,
		BackTime:       rr.BackTime,
	}

	for _, id := range rr.SegmentIDs {
		story, ok := w.iNewsDataCache[id]
		if !ok {
			continue // already reported as a CacheMiss in orderedStories
		}
		seg := model.RundownSegment{
			SegmentID: id,
			Name:      story.Name,
			Modified:  story.Modified,
			Locator:   story.Locator,
			Float:     story.INewsStory.Meta.Float,
			Payload:   story.INewsStory.Payload,
		}
		if cp, ok := cpCache[id]; ok {
			seg.Rank = cp.Rank
		}
		rundown.Segments = append(rundown.Segments, seg)
	}

	return rundown
}

func rundownName(queue config.Queue, rr model.ResolvedRundown) string {
	if queue.Alias != "" {
		return fmt.Sprintf("%s/%s", queue.Alias, rr.RundownID)
	}
	return string(rr.RundownID)
}

// synthesizeColdStartBaseline builds an "old" snapshot from the
// control-plane's previously-ingested cache for rundowns this process has
// no memory of yet, so the Differ doesn't treat already-ingested segments
// as new creates on every process restart.
func synthesizeColdStartBaseline(newRundowns []model.INewsRundown, cpCaches map[model.RundownID]map[model.SegmentID]model.RundownSegment) []model.INewsRundown {
	var out []model.INewsRundown
	for _, r := range newRundowns {
		cache := cpCaches[r.RundownID]
		if len(cache) == 0 {
			continue
		}
		old := model.INewsRundown{
			RundownID:      r.RundownID,
			Name:           r.Name,
			GatewayVersion: r.GatewayVersion,
			BackTime:       r.BackTime,
		}
		for _, seg := range r.Segments {
			if cp, ok := cache[seg.SegmentID]; ok && cp.Locator == seg.Locator {
				old.Segments = append(old.Segments, cp)
			}
		}
		if len(old.Segments) > 0 {
			out = append(out, old)
		}
	}
	return out
}

// seedPreviousRanks installs the control-plane-derived baseline's ranks as
// this process's previousRanks for any rundown it has not ranked itself
// yet, so a cold-started gateway continues the existing play order instead
// of resetting every rundown to 1..n.
func (w *Watcher) seedPreviousRanks(oldRundowns []model.INewsRundown) {
	for _, old := range oldRundowns {
		if _, known := w.previousRanks[old.RundownID]; known {
			continue
		}
		ranking := model.SegmentRanking{}
		for _, seg := range old.Segments {
			if seg.Rank != nil {
				ranking[seg.SegmentID] = seg.Rank
			}
		}
		if len(ranking) > 0 {
			w.previousRanks[old.RundownID] = ranking
		}
	}
}

func (w *Watcher) assignRanks(newRundowns []model.INewsRundown) []rank.Result {
	now := w.now()
	cfg := rank.Config{FractionFloor: w.cfg.RankFractionFloor, RebaseCooldown: w.cfg.RankRebaseCooldown}

	results := make([]rank.Result, 0, len(newRundowns))
	for _, r := range newRundowns {
		res := rank.Assign(r.RundownID, r.SegmentIDs(), w.previousRanks[r.RundownID], w.lastForcedRankRecalculation[r.RundownID], now, cfg)
		results = append(results, res)
	}
	return results
}

// effectiveRanks merges a rundown's carried-over previous ranks with this
// poll's changed ranks, giving the full rank for every segment - needed
// because rank.Result.AssignedRanks deliberately omits unmoved segments.
func (w *Watcher) effectiveRanks(rundownID model.RundownID, res rank.Result) model.SegmentRanking {
	out := make(model.SegmentRanking, len(w.previousRanks[rundownID])+len(res.AssignedRanks))
	for id, r := range w.previousRanks[rundownID] {
		out[id] = r
	}
	for id, r := range res.AssignedRanks {
		out[id] = r
	}
	return out
}

// stampRanks fills in each emitted segment's final rank before the Differ
// (and thus event emission) sees it, so create/update payloads always
// carry a valid rank rather than a nil one left over from assembleRundown.
// A segment the ranker left without a rank falls back to its old rank if
// one is known, else rank 0 - the
// order may come out visibly wrong, which is why it is reported.
func (w *Watcher) stampRanks(rundowns []model.INewsRundown, results []rank.Result) {
	byID := make(map[model.RundownID]rank.Result, len(results))
	for _, r := range results {
		byID[r.RundownID] = r
	}
	for i := range rundowns {
		res, ok := byID[rundowns[i].RundownID]
		if !ok {
			continue
		}
		eff := w.effectiveRanks(rundowns[i].RundownID, res)
		for j := range rundowns[i].Segments {
			seg := &rundowns[i].Segments[j]
			if rnk, ok := eff[seg.SegmentID]; ok {
				seg.Rank = rnk
				continue
			}
			w.log.Errorf("%v: rundown %s segment %s", ErrRankAssignmentFailure, rundowns[i].RundownID, seg.SegmentID)
			w.emitEvent(errorEvent("no rank assigned for segment %s in rundown %s, order may be wrong", seg.SegmentID, rundowns[i].RundownID))
			if seg.Rank == nil {
				seg.Rank = new(big.Rat)
			}
		}
	}
}
