// Package rank turns a resolved segment order into stable,
// insertion-friendly numeric ranks.
package rank

import (
	"math/big"
	"time"

	"inews-rundown-gateway/internal/model"
)

// Config carries the rank assignment tuning knobs.
type Config struct {
	// FractionFloor is the precision threshold below which a full integer
	// rebase is preferred over ever-finer interpolation.
	FractionFloor float64
	// RebaseCooldown is the minimum interval between forced rebases for
	// one rundown.
	RebaseCooldown time.Duration
}

// Result is the Rank Assigner's per-rundown output.
type Result struct {
	RundownID model.RundownID
	// AssignedRanks holds only the segments whose rank changed or is new;
	// an unmoved segment is not present here, except after a forced rebase
	// (RecalculatedAsIntegers), which reports every segment.
	AssignedRanks          model.SegmentRanking
	RecalculatedAsIntegers bool
}

// Assign computes ranks for orderedSegmentIDs (the rundown's new order),
// given the ranks it carried into this poll (previous) and the last time
// a forced rebase happened for this rundown.
func Assign(rundownID model.RundownID, orderedSegmentIDs []model.SegmentID, previous model.SegmentRanking, lastForcedRebase time.Time, now time.Time, cfg Config) Result {
	n := len(orderedSegmentIDs)
	ranks := make([]*big.Rat, n)
	stable := make([]bool, n)
	needsRebase := false

	// Pass 1: keep the previous rank of any segment whose position
	// relative to its nearest previously-ranked neighbours is unchanged.
	// "stable" is tracked structurally rather than inferred later from
	// numeric equality, so a segment pass 2 happens to reinterpolate back
	// to its old value is still reported as changed.
	for i, id := range orderedSegmentIDs {
		r, ok := previous[id]
		if !ok {
			continue
		}
		consistent := true
		if j := nearestRanked(orderedSegmentIDs, previous, i, -1); j >= 0 {
			if previous[orderedSegmentIDs[j]].Cmp(r) >= 0 {
				consistent = false
			}
		}
		if j := nearestRanked(orderedSegmentIDs, previous, i, +1); j >= 0 {
			if previous[orderedSegmentIDs[j]].Cmp(r) <= 0 {
				consistent = false
			}
		}
		if consistent {
			ranks[i] = r
			stable[i] = true
		}
	}

	// Pass 2: fill every remaining run of unassigned positions by
	// interpolating between its bounding ranks (or extrapolating at an
	// open end).
	for i := 0; i < n; {
		if ranks[i] != nil {
			i++
			continue
		}
		j := i
		for j < n && ranks[j] == nil {
			j++
		}

		var lower, upper *big.Rat
		if i > 0 {
			lower = ranks[i-1]
		}
		if j < n {
			upper = ranks[j]
		}

		filled, tight := interpolate(lower, upper, j-i, cfg.FractionFloor)
		if tight {
			needsRebase = true
		}
		copy(ranks[i:j], filled)
		i = j
	}

	if needsRebase && now.Sub(lastForcedRebase) >= cfg.RebaseCooldown {
		return rebase(rundownID, orderedSegmentIDs)
	}

	return Result{
		RundownID:              rundownID,
		AssignedRanks:          changedOnly(orderedSegmentIDs, ranks, stable),
		RecalculatedAsIntegers: false,
	}
}

// nearestRanked scans from index i (exclusive) in direction dir (-1 or
// +1) for the nearest segment that has a previous rank, returning its
// index or -1 if none exists on that side.
func nearestRanked(ids []model.SegmentID, previous model.SegmentRanking, i, dir int) int {
	for j := i + dir; j >= 0 && j < len(ids); j += dir {
		if _, ok := previous[ids[j]]; ok {
			return j
		}
	}
	return -1
}

// interpolate produces count strictly-increasing ranks between lower and
// upper (either bound may be nil, meaning "unbounded"). tight reports
// whether the resulting spacing fell below floor, a signal to prefer a
// full rebase.
func interpolate(lower, upper *big.Rat, count int, floor float64) ([]*big.Rat, bool) {
	out := make([]*big.Rat, count)

	switch {
	case lower == nil && upper == nil:
		// No anchor at all: lay out plain sequential integers. This is
		// the path a brand-new rundown takes on its first poll.
		for i := range out {
			out[i] = big.NewRat(int64(i+1), 1)
		}
		return out, false

	case lower == nil:
		// Insert before the first anchored segment: count down from upper.
		for i := range out {
			offset := big.NewRat(int64(count-i), 1)
			out[i] = new(big.Rat).Sub(upper, offset)
		}

	case upper == nil:
		// Insert after the last anchored segment: count up from lower.
		for i := range out {
			offset := big.NewRat(int64(i+1), 1)
			out[i] = new(big.Rat).Add(lower, offset)
		}

	default:
		// Evenly divide the open interval (lower, upper).
		span := new(big.Rat).Sub(upper, lower)
		step := new(big.Rat).Quo(span, big.NewRat(int64(count+1), 1))
		for i := range out {
			mult := new(big.Rat).Mul(step, big.NewRat(int64(i+1), 1))
			out[i] = new(big.Rat).Add(lower, mult)
		}
	}

	return out, spacingBelowFloor(lower, upper, out, floor)
}

func spacingBelowFloor(lower, upper *big.Rat, mid []*big.Rat, floor float64) bool {
	points := make([]*big.Rat, 0, len(mid)+2)
	if lower != nil {
		points = append(points, lower)
	}
	points = append(points, mid...)
	if upper != nil {
		points = append(points, upper)
	}
	for i := 1; i < len(points); i++ {
		gap := new(big.Rat).Sub(points[i], points[i-1])
		f, _ := gap.Float64()
		if f < floor {
			return true
		}
	}
	return false
}

// rebase assigns sequential integer ranks 1..n, used when interpolation
// would require spacing tighter than FractionFloor and the cooldown has
// elapsed. Every segment is reported: a forced rebase renumbers the whole
// rundown, so none of it counts as "unmoved".
func rebase(rundownID model.RundownID, orderedSegmentIDs []model.SegmentID) Result {
	ranks := make([]*big.Rat, len(orderedSegmentIDs))
	stable := make([]bool, len(orderedSegmentIDs))
	for i := range ranks {
		ranks[i] = big.NewRat(int64(i+1), 1)
	}
	return Result{
		RundownID:              rundownID,
		AssignedRanks:          changedOnly(orderedSegmentIDs, ranks, stable),
		RecalculatedAsIntegers: true,
	}
}

// changedOnly reports every segment pass 1 did not mark structurally
// stable, using positional stability rather than numeric equality so a
// segment that happens to reinterpolate back to its old value is still
// reported as changed.
func changedOnly(ids []model.SegmentID, ranks []*big.Rat, stable []bool) model.SegmentRanking {
	out := make(model.SegmentRanking)
	for i, id := range ids {
		if stable[i] {
			continue
		}
		out[id] = ranks[i]
	}
	return out
}
