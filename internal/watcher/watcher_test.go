package watcher_test

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inews-rundown-gateway/internal/config"
	"inews-rundown-gateway/internal/controlplane"
	cpfake "inews-rundown-gateway/internal/controlplane/fake"
	"inews-rundown-gateway/internal/logger"
	"inews-rundown-gateway/internal/model"
	"inews-rundown-gateway/internal/nrcs"
	nrcsfake "inews-rundown-gateway/internal/nrcs/fake"
	"inews-rundown-gateway/internal/watcher"
)

type silentLogger struct{}

func (silentLogger) Debugf(string, ...interface{})       {}
func (silentLogger) Infof(string, ...interface{})        {}
func (silentLogger) Warnf(string, ...interface{})        {}
func (silentLogger) Errorf(string, ...interface{})       {}
func (l silentLogger) With(string, string) logger.Logger { return l }

const testQueueID = "Q"
const testGatewayVersion = "v1"

func testConfig(pollInterval time.Duration) config.Config {
	return config.Config{
		Queues:             []config.Queue{{QueueID: testQueueID}},
		PollInterval:       pollInterval,
		GatewayVersion:     testGatewayVersion,
		RankFractionFloor:  1e-6,
		RankRebaseCooldown: 30 * time.Second,
	}
}

func listing(id model.SegmentID, locator string) nrcs.ReducedSegmentListing {
	return nrcs.ReducedSegmentListing{SegmentID: id, Name: string(id), Locator: locator}
}

func installStory(a *nrcsfake.Adapter, id model.SegmentID, locator string) {
	a.SetStory(model.UnrankedSegment{SegmentID: id, Name: string(id), Locator: locator})
}

func setRundown(a *nrcsfake.Adapter, listings ...nrcs.ReducedSegmentListing) {
	a.SetRundown(testQueueID, nrcs.ReducedRundown{
		QueueID:        testQueueID,
		GatewayVersion: testGatewayVersion,
		Segments:       listings,
	})
}

func expectEvent(t *testing.T, ch <-chan watcher.Event, timeout time.Duration) watcher.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(timeout):
		t.Fatal("timed out waiting for event")
		return watcher.Event{}
	}
}

func expectNoEvent(t *testing.T, ch <-chan watcher.Event, window time.Duration) {
	t.Helper()
	select {
	case e := <-ch:
		t.Fatalf("unexpected event: %+v", e)
	case <-time.After(window):
	}
}

func TestWatcher_FirstPoll_EmitsRundownCreatedWithSequentialRanks(t *testing.T) {
	adapter := nrcsfake.New()
	setRundown(adapter, listing("A", "v1"), listing("B", "v1"))
	installStory(adapter, "A", "v1")
	installStory(adapter, "B", "v1")

	cp := cpfake.New()
	w := watcher.NewWatcher(testConfig(20*time.Millisecond), adapter, cp, silentLogger{}, nil)
	w.Start()
	defer w.Stop()

	e := expectEvent(t, w.Events(), time.Second)
	require.Equal(t, watcher.EventRundownCreate, e.Kind)
	assert.Equal(t, model.RundownID("Q_1"), e.RundownID)
	require.Len(t, e.Rundown.Segments, 2)
	assert.Equal(t, big.NewRat(1, 1), e.Rundown.Segments[0].Rank)
	assert.Equal(t, big.NewRat(2, 1), e.Rundown.Segments[1].Rank)

	// SetStatus lands after event emission within the same cycle.
	require.Eventually(t, func() bool {
		return cp.LastStatus().Code == controlplane.StatusGood
	}, time.Second, 5*time.Millisecond)
}

func TestWatcher_StablePoll_EmitsNoFurtherEvents(t *testing.T) {
	adapter := nrcsfake.New()
	setRundown(adapter, listing("A", "v1"), listing("B", "v1"))
	installStory(adapter, "A", "v1")
	installStory(adapter, "B", "v1")

	cp := cpfake.New()
	w := watcher.NewWatcher(testConfig(15*time.Millisecond), adapter, cp, silentLogger{}, nil)
	w.Start()
	defer w.Stop()

	expectEvent(t, w.Events(), time.Second) // initial RundownCreate

	expectNoEvent(t, w.Events(), 150*time.Millisecond)
}

func TestWatcher_SegmentInserted_EmitsOnlySegmentCreate(t *testing.T) {
	adapter := nrcsfake.New()
	setRundown(adapter, listing("A", "v1"), listing("B", "v1"))
	installStory(adapter, "A", "v1")
	installStory(adapter, "B", "v1")

	cp := cpfake.New()
	w := watcher.NewWatcher(testConfig(15*time.Millisecond), adapter, cp, silentLogger{}, nil)
	w.Start()
	defer w.Stop()

	expectEvent(t, w.Events(), time.Second) // initial RundownCreate

	installStory(adapter, "D", "v1")
	setRundown(adapter, listing("A", "v1"), listing("D", "v1"), listing("B", "v1"))

	e := expectEvent(t, w.Events(), time.Second)
	require.Equal(t, watcher.EventSegmentCreate, e.Kind)
	assert.Equal(t, model.SegmentID("D"), e.SegmentID)
	assert.NotNil(t, e.Segment.Rank)

	expectNoEvent(t, w.Events(), 100*time.Millisecond)
}

func TestWatcher_SegmentsSwapped_CoalescesIntoOneRanksUpdate(t *testing.T) {
	adapter := nrcsfake.New()
	setRundown(adapter, listing("A", "v1"), listing("B", "v1"), listing("C", "v1"))
	installStory(adapter, "A", "v1")
	installStory(adapter, "B", "v1")
	installStory(adapter, "C", "v1")

	cp := cpfake.New()
	w := watcher.NewWatcher(testConfig(15*time.Millisecond), adapter, cp, silentLogger{}, nil)
	w.Start()
	defer w.Stop()

	expectEvent(t, w.Events(), time.Second) // initial RundownCreate

	setRundown(adapter, listing("B", "v1"), listing("A", "v1"), listing("C", "v1"))

	e := expectEvent(t, w.Events(), time.Second)
	require.Equal(t, watcher.EventSegmentRanksUpdate, e.Kind)
	require.Len(t, e.Ranks, 2)
	assert.Contains(t, e.Ranks, model.SegmentID("A"))
	assert.Contains(t, e.Ranks, model.SegmentID("B"))
	assert.NotContains(t, e.Ranks, model.SegmentID("C"), "unmoved segment must not appear in the coalesced ranks update")
	assert.True(t, e.Ranks["B"].Cmp(e.Ranks["A"]) < 0, "B now precedes A")

	expectNoEvent(t, w.Events(), 100*time.Millisecond)
}

func TestWatcher_DownloadFailure_EmitsErrorAndReportsMajorStatus(t *testing.T) {
	adapter := nrcsfake.New()
	adapter.FailDownload[testQueueID] = errors.New("nrcs unreachable")

	cp := cpfake.New()
	w := watcher.NewWatcher(testConfig(20*time.Millisecond), adapter, cp, silentLogger{}, nil)
	w.Start()
	defer w.Stop()

	e := expectEvent(t, w.Events(), time.Second)
	assert.Equal(t, watcher.EventError, e.Kind)

	require.Eventually(t, func() bool {
		return cp.LastStatus().Code == controlplane.StatusWarningMajor
	}, time.Second, 5*time.Millisecond)
}

func TestWatcher_CacheMiss_DropsSegmentButKeepsOthers(t *testing.T) {
	adapter := nrcsfake.New()
	setRundown(adapter, listing("A", "v1"), listing("M", "v1"))
	installStory(adapter, "A", "v1")
	// "M" is never installed: FetchStoriesByID will silently omit it.

	cp := cpfake.New()
	w := watcher.NewWatcher(testConfig(20*time.Millisecond), adapter, cp, silentLogger{}, nil)
	w.Start()
	defer w.Stop()

	first := expectEvent(t, w.Events(), time.Second)
	var created watcher.Event
	if first.Kind == watcher.EventError {
		created = expectEvent(t, w.Events(), time.Second)
	} else {
		created = first
	}

	require.Equal(t, watcher.EventRundownCreate, created.Kind)
	require.Len(t, created.Rundown.Segments, 1)
	assert.Equal(t, model.SegmentID("A"), created.Rundown.Segments[0].SegmentID)
}

func TestWatcher_VersionMismatch_SkipsQueueSilently(t *testing.T) {
	adapter := nrcsfake.New()
	adapter.SetRundown(testQueueID, nrcs.ReducedRundown{
		QueueID:        testQueueID,
		GatewayVersion: "other-version",
		Segments:       []nrcs.ReducedSegmentListing{listing("A", "v1")},
	})
	installStory(adapter, "A", "v1")

	cp := cpfake.New()
	w := watcher.NewWatcher(testConfig(20*time.Millisecond), adapter, cp, silentLogger{}, nil)
	w.Start()
	defer w.Stop()

	expectNoEvent(t, w.Events(), 150*time.Millisecond)
	assert.Equal(t, controlplane.StatusGood, cp.LastStatus().Code)
}

func TestWatcher_ResyncRundown_DoesNotPanicAndConsumesFlag(t *testing.T) {
	adapter := nrcsfake.New()
	setRundown(adapter, listing("A", "v1"), listing("B", "v1"))
	installStory(adapter, "A", "v1")
	installStory(adapter, "B", "v1")

	cp := cpfake.New()

	w := watcher.NewWatcher(testConfig(20*time.Millisecond), adapter, cp, silentLogger{}, nil)
	w.Start()
	defer w.Stop()

	expectEvent(t, w.Events(), time.Second) // initial RundownCreate

	assert.NotPanics(t, func() { w.ResyncRundown("Q_1") })

	// With no control-plane history to reconstruct a baseline from, the
	// rundown this process forgot is, correctly, announced as created
	// again - the observable sign that the invalidated caches didn't
	// leave the watcher stuck comparing against stale state.
	e := expectEvent(t, w.Events(), time.Second)
	assert.Equal(t, watcher.EventRundownCreate, e.Kind)
	assert.Equal(t, model.RundownID("Q_1"), e.RundownID)
}
