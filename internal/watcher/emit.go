package watcher

import (
	"inews-rundown-gateway/internal/diff"
	"inews-rundown-gateway/internal/model"
	"inews-rundown-gateway/internal/rank"
)

// emitChanges publishes the differ's change list in the order it was
// produced, then coalesces every rank change not already carried by one
// of those events into one segment_ranks_update per rundown. It returns
// the number of change events emitted; the info event announcing a rank
// rebase is not counted.
func (w *Watcher) emitChanges(changes []diff.Change, rankResults []rank.Result) int {
	n := 0
	covered := coveredSegments(changes)

	for _, c := range changes {
		switch c.Kind {
		case diff.RundownCreated:
			w.emitEvent(Event{Kind: EventRundownCreate, RundownID: c.RundownID, Rundown: c.Rundown})
			n++
		case diff.RundownUpdated:
			w.emitEvent(Event{Kind: EventRundownUpdate, RundownID: c.RundownID, Rundown: c.Rundown})
			n++
		case diff.RundownDeleted:
			w.emitEvent(Event{Kind: EventRundownDelete, RundownID: c.RundownID})
			n++
		case diff.SegmentCreated:
			w.emitEvent(Event{Kind: EventSegmentCreate, RundownID: c.RundownID, SegmentID: c.SegmentID, Segment: c.Segment})
			n++
		case diff.SegmentChanged:
			w.emitEvent(Event{Kind: EventSegmentUpdate, RundownID: c.RundownID, SegmentID: c.SegmentID, Segment: c.Segment})
			n++
		case diff.SegmentDeleted:
			w.emitEvent(Event{Kind: EventSegmentDelete, RundownID: c.RundownID, SegmentID: c.SegmentID})
			n++
		case diff.SegmentMoved:
			// Coalesced below, not emitted individually.
		}
	}

	for _, res := range rankResults {
		remaining := make(model.SegmentRanking)
		for id, r := range res.AssignedRanks {
			if covered[res.RundownID][id] {
				continue
			}
			remaining[id] = r
		}
		if len(remaining) == 0 {
			continue
		}
		w.emitEvent(Event{Kind: EventSegmentRanksUpdate, RundownID: res.RundownID, Ranks: remaining})
		n++
		if res.RecalculatedAsIntegers {
			w.log.Infof("rundown %s: ranks rebased to sequential integers", res.RundownID)
			w.emitEvent(infoEvent("rundown %s: ranks rebased to sequential integers", res.RundownID))
		}
	}

	return n
}

// coveredSegments collects, per rundown, every segment id whose rank is
// already visible in some other event emitted this poll (a containing
// rundown create/update, or its own segment create/update) - those must
// not also appear in the coalesced segment_ranks_update.
func coveredSegments(changes []diff.Change) map[model.RundownID]map[model.SegmentID]bool {
	covered := make(map[model.RundownID]map[model.SegmentID]bool)
	add := func(rid model.RundownID, sid model.SegmentID) {
		if covered[rid] == nil {
			covered[rid] = make(map[model.SegmentID]bool)
		}
		covered[rid][sid] = true
	}
	for _, c := range changes {
		switch c.Kind {
		case diff.RundownCreated, diff.RundownUpdated:
			for _, seg := range c.Rundown.Segments {
				add(c.RundownID, seg.SegmentID)
			}
		case diff.SegmentCreated, diff.SegmentChanged:
			add(c.RundownID, c.SegmentID)
		}
	}
	return covered
}

// commit atomically (under the caller's processing lock) replaces every
// cache entry touched by this poll, including eviction of rundowns that no
// longer exist in this playlist.
func (w *Watcher) commit(playlistID model.PlaylistID, resolved model.ResolvedPlaylist, newRundowns []model.INewsRundown, rankResults []rank.Result) {
	oldRundownIDs := w.playlists[playlistID]

	w.cachedPlaylistAssignments[playlistID] = resolved
	w.cachedAssignedRundowns[playlistID] = newRundowns

	rundownIDs := make([]model.RundownID, 0, len(newRundowns))
	for _, r := range newRundowns {
		rundownIDs = append(rundownIDs, r.RundownID)
		w.rundowns[r.RundownID] = r.SegmentIDs()
		for _, seg := range r.Segments {
			w.segments[seg.SegmentID] = model.ReducedSegment{
				SegmentID: seg.SegmentID,
				Name:      seg.Name,
				Modified:  seg.Modified,
				Rank:      seg.Rank,
				Locator:   seg.Locator,
			}
		}
	}
	w.playlists[playlistID] = rundownIDs

	for _, res := range rankResults {
		w.previousRanks[res.RundownID] = w.effectiveRanks(res.RundownID, res)
		if res.RecalculatedAsIntegers {
			w.lastForcedRankRecalculation[res.RundownID] = w.now()
		}
	}

	stillPresent := make(map[model.RundownID]bool, len(rundownIDs))
	for _, id := range rundownIDs {
		stillPresent[id] = true
	}
	for _, oldID := range oldRundownIDs {
		if stillPresent[oldID] {
			continue
		}
		for _, sid := range w.rundowns[oldID] {
			delete(w.segments, sid)
			delete(w.iNewsDataCache, sid)
		}
		delete(w.rundowns, oldID)
		delete(w.previousRanks, oldID)
		delete(w.lastForcedRankRecalculation, oldID)
	}
}
