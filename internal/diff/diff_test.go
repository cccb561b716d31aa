package diff_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inews-rundown-gateway/internal/diff"
	"inews-rundown-gateway/internal/model"
)

func seg(id model.SegmentID, locator string) model.RundownSegment {
	return model.RundownSegment{SegmentID: id, Locator: locator}
}

func rundown(id model.RundownID, name string, segs ...model.RundownSegment) model.INewsRundown {
	return model.INewsRundown{RundownID: id, Name: name, Segments: segs}
}

func kinds(changes []diff.Change) []diff.ChangeKind {
	out := make([]diff.ChangeKind, len(changes))
	for i, c := range changes {
		out[i] = c.Kind
	}
	return out
}

func TestDiff_NewRundown_EmitsRundownCreatedOnly(t *testing.T) {
	newRundowns := []model.INewsRundown{rundown("Q_1", "Show", seg("A", "v1"), seg("B", "v1"))}

	changes := diff.Diff(newRundowns, nil)

	require.Len(t, changes, 1)
	assert.Equal(t, diff.RundownCreated, changes[0].Kind)
	assert.Equal(t, model.RundownID("Q_1"), changes[0].RundownID)
}

func TestDiff_InsertOnly_NoRundownUpdated(t *testing.T) {
	// Inserting a segment into an existing rundown must not also emit a
	// RundownUpdated - the rundown's Name/BackTime
	// haven't changed, only its segment set, which is fully represented
	// by the segment-level event.
	old := []model.INewsRundown{rundown("Q_1", "Show", seg("A", "v1"), seg("B", "v1"), seg("C", "v1"))}
	updated := []model.INewsRundown{rundown("Q_1", "Show", seg("A", "v1"), seg("D", "v1"), seg("B", "v1"), seg("C", "v1"))}

	changes := diff.Diff(updated, old)

	require.Len(t, changes, 1)
	assert.Equal(t, diff.SegmentCreated, changes[0].Kind)
	assert.Equal(t, model.SegmentID("D"), changes[0].SegmentID)
}

func TestDiff_SegmentLocatorChange_EmitsSegmentChanged(t *testing.T) {
	old := []model.INewsRundown{rundown("Q_1", "Show", seg("A", "v1"))}
	updated := []model.INewsRundown{rundown("Q_1", "Show", seg("A", "v2"))}

	changes := diff.Diff(updated, old)

	require.Len(t, changes, 1)
	assert.Equal(t, diff.SegmentChanged, changes[0].Kind)
	assert.Equal(t, model.SegmentID("A"), changes[0].SegmentID)
}

func TestDiff_SegmentReordered_EmitsSegmentMoved(t *testing.T) {
	old := []model.INewsRundown{rundown("Q_1", "Show", seg("A", "v1"), seg("B", "v1"))}
	updated := []model.INewsRundown{rundown("Q_1", "Show", seg("B", "v1"), seg("A", "v1"))}

	changes := diff.Diff(updated, old)

	require.Len(t, changes, 2)
	for _, c := range changes {
		assert.Equal(t, diff.SegmentMoved, c.Kind)
	}
}

func TestDiff_RundownRemoved_EmitsRundownDeletedThenSegmentDeleted(t *testing.T) {
	old := []model.INewsRundown{rundown("Q_1", "Show", seg("A", "v1"), seg("B", "v1"))}

	changes := diff.Diff(nil, old)

	require.Len(t, changes, 3)
	assert.Equal(t, diff.RundownDeleted, changes[0].Kind)
	assert.Equal(t, diff.SegmentDeleted, changes[1].Kind)
	assert.Equal(t, diff.SegmentDeleted, changes[2].Kind)
}

func TestDiff_BackTimeShiftAlone_EmitsRundownUpdated(t *testing.T) {
	bt1 := time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC)
	bt2 := bt1.Add(time.Minute)
	old := []model.INewsRundown{{RundownID: "Q_1", Name: "Show", BackTime: &bt1, Segments: []model.RundownSegment{seg("A", "v1")}}}
	updated := []model.INewsRundown{{RundownID: "Q_1", Name: "Show", BackTime: &bt2, Segments: []model.RundownSegment{seg("A", "v1")}}}

	changes := diff.Diff(updated, old)

	require.Len(t, changes, 1)
	assert.Equal(t, diff.RundownUpdated, changes[0].Kind)
}

func TestDiff_CrossRundownMove_DeletesFromSourceCreatesInDestination(t *testing.T) {
	// A boundary marker moves a tail of segments into a newly started
	// rundown. The moved segment must be SegmentDeleted
	// from its old rundown and SegmentCreated in the new one - never a
	// duplicate SegmentCreated, and never SegmentMoved across rundowns.
	old := []model.INewsRundown{rundown("Q_1", "Show", seg("A", "v1"), seg("B", "v1"), seg("C", "v1"))}
	updated := []model.INewsRundown{
		rundown("Q_1", "Show", seg("A", "v1")),
		rundown("Q_2", "Show", seg("B", "v1"), seg("C", "v1")),
	}

	changes := diff.Diff(updated, old)

	require.Len(t, changes, 3)
	assert.Equal(t, diff.SegmentDeleted, changes[0].Kind)
	assert.Equal(t, model.SegmentID("B"), changes[0].SegmentID)
	assert.Equal(t, model.RundownID("Q_1"), changes[0].RundownID)
	assert.Equal(t, diff.SegmentDeleted, changes[1].Kind)
	assert.Equal(t, model.SegmentID("C"), changes[1].SegmentID)

	assert.Equal(t, diff.RundownCreated, changes[2].Kind)
	assert.Equal(t, model.RundownID("Q_2"), changes[2].RundownID)
	createdIDs := changes[2].Rundown.SegmentIDs()
	assert.Equal(t, []model.SegmentID{"B", "C"}, createdIDs)

	for _, c := range changes {
		assert.NotEqual(t, diff.SegmentMoved, c.Kind)
		assert.NotEqual(t, diff.SegmentCreated, c.Kind, "a cross-rundown move must not duplicate as a bare SegmentCreated outside the RundownCreated payload")
	}
}

func TestDiff_NothingChanged_EmitsNoChanges(t *testing.T) {
	rd := rundown("Q_1", "Show", seg("A", "v1"), seg("B", "v1"))

	changes := diff.Diff([]model.INewsRundown{rd}, []model.INewsRundown{rd})

	assert.Empty(t, changes)
}

func TestDiff_EmissionOrder_DeletionsBeforeCreations(t *testing.T) {
	old := []model.INewsRundown{rundown("Q_1", "Show", seg("A", "v1"))}
	updated := []model.INewsRundown{rundown("Q_2", "New Show", seg("B", "v1"))}

	changes := diff.Diff(updated, old)

	ks := kinds(changes)
	require.Len(t, ks, 3)
	assert.Equal(t, diff.RundownDeleted, ks[0])
	assert.Equal(t, diff.SegmentDeleted, ks[1])
	assert.Equal(t, diff.RundownCreated, ks[2])
}
