package view

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/matchlive/go/internal/models"
	"github.com/mcdev12/matchlive/go/internal/snapshot"
	"github.com/mcdev12/matchlive/go/internal/stream"
)

var kickoff = time.Date(2026, 6, 14, 18, 0, 0, 0, time.UTC)

type matchFixture struct {
	clock     *clockwork.FakeClock
	loader    *fakeLoader
	connector *fakeConnector
	view      *MatchView
}

func newMatchFixture(t *testing.T, snap models.MatchSnapshot) *matchFixture {
	t.Helper()
	f := &matchFixture{
		clock:     clockwork.NewFakeClockAt(kickoff),
		loader:    newFakeLoader(),
		connector: &fakeConnector{},
	}
	f.loader.matches[snap.ID] = fetchResult{snap: &snap}
	f.view = NewMatchView(DefaultConfig(), f.loader, f.connector, f.clock, snap.ID)
	t.Cleanup(f.view.Close)
	return f
}

func (f *matchFixture) waitState(t *testing.T, cond func(DisplayState) bool) DisplayState {
	t.Helper()
	require.Eventually(t, func() bool { return cond(f.view.State()) }, waitFor, tick)
	return f.view.State()
}

// waitMatch waits for a loaded match satisfying cond.
func (f *matchFixture) waitMatch(t *testing.T, cond func(DisplayState) bool) DisplayState {
	t.Helper()
	return f.waitState(t, func(ds DisplayState) bool { return ds.Match != nil && cond(ds) })
}

func ready(ds DisplayState) bool { return ds.Phase == PhaseReady }

func homeScore(n int) func(DisplayState) bool {
	return func(ds DisplayState) bool { return ds.Match.Score.Home == n }
}

func TestMatchView_LoadsAndSubscribes(t *testing.T) {
	anchor := kickoff.Add(-10 * time.Minute)
	f := newMatchFixture(t, matchSnapshot("m1", models.MatchStatusFirstHalf, &anchor))
	f.view.Start()

	ds := f.waitState(t, ready)
	assert.Equal(t, "m1", ds.Match.MatchID)
	assert.Equal(t, "11'", ds.Clock)

	src := f.connector.waitSource(t, 0)
	assert.Equal(t, stream.MatchTopic("m1"), src.topic)
	f.waitState(t, func(ds DisplayState) bool { return ds.Live })
}

func TestMatchView_GoalHighlightsThenResets(t *testing.T) {
	f := newMatchFixture(t, matchSnapshot("m1", models.MatchStatusNotStarted, nil))
	f.view.Start()
	src := f.connector.waitSource(t, 0)

	src.send(t, matchPayload("e1", goal("away")))
	ds := f.waitMatch(t, func(ds DisplayState) bool { return ds.Match.Score.Away == 1 })
	assert.True(t, ds.Match.Highlight.Away)
	assert.Equal(t, "GOAL", ds.Match.EventContext.Away)
	assert.False(t, ds.Match.Highlight.Home)
	require.Len(t, ds.Match.Timeline, 1)

	f.clock.Advance(3 * time.Second)
	ds = f.waitMatch(t, func(ds DisplayState) bool { return !ds.Match.Highlight.Away })
	assert.Empty(t, ds.Match.EventContext.Away)
	assert.Equal(t, 1, ds.Match.Score.Away)
}

func TestMatchView_SecondGoalRestartsHighlight(t *testing.T) {
	f := newMatchFixture(t, matchSnapshot("m1", models.MatchStatusNotStarted, nil))
	f.view.Start()
	src := f.connector.waitSource(t, 0)

	src.send(t, matchPayload("e1", goal("home")))
	f.waitMatch(t, homeScore(1))

	f.clock.Advance(2 * time.Second)
	src.send(t, matchPayload("e2", goal("home")))
	f.waitMatch(t, homeScore(2))

	// The first timer would have fired here.
	f.clock.Advance(time.Second)
	assert.Never(t, func() bool { return !f.view.State().Match.Highlight.Home }, 50*time.Millisecond, tick)

	f.clock.Advance(2 * time.Second)
	f.waitMatch(t, func(ds DisplayState) bool { return !ds.Match.Highlight.Home })
}

func TestMatchView_FinishedDetaches(t *testing.T) {
	anchor := kickoff.Add(-50 * time.Minute)
	f := newMatchFixture(t, matchSnapshot("m1", models.MatchStatusSecondHalf, &anchor))
	f.view.Start()
	src := f.connector.waitSource(t, 0)

	src.send(t, matchPayload("e1", status(models.MatchStatusFinished)))
	ds := f.waitMatch(t, func(ds DisplayState) bool { return ds.Match.Status == models.MatchStatusFinished })

	assert.False(t, ds.Live)
	assert.Empty(t, ds.Clock)
	assert.True(t, ds.Match.Highlight.Home)
	assert.True(t, ds.Match.Highlight.Away)
	require.NotNil(t, ds.Match.StatusLastModified)
	assert.Equal(t, kickoff, *ds.Match.StatusLastModified)
	assert.Eventually(t, src.isClosed, waitFor, tick)
	assert.Equal(t, 1, f.connector.count())
}

func TestMatchView_TerminalSnapshotNeverSubscribes(t *testing.T) {
	f := newMatchFixture(t, matchSnapshot("m1", models.MatchStatusFinished, nil))
	f.view.Start()

	ds := f.waitState(t, ready)
	assert.False(t, ds.Live)
	assert.Never(t, func() bool { return f.connector.count() > 0 }, 50*time.Millisecond, tick)
}

func TestMatchView_MissingHomeTeamNeverSubscribes(t *testing.T) {
	snap := matchSnapshot("m1", models.MatchStatusFirstHalf, nil)
	snap.HomeTeam = models.TeamRef{}
	f := newMatchFixture(t, snap)
	f.view.Start()

	ds := f.waitState(t, ready)
	assert.Equal(t, "LIVE", ds.Clock)
	assert.Never(t, func() bool { return f.connector.count() > 0 }, 50*time.Millisecond, tick)
}

func TestMatchView_NotFound(t *testing.T) {
	f := newMatchFixture(t, matchSnapshot("m1", models.MatchStatusNotStarted, nil))
	f.loader.matches["m1"] = fetchResult{err: fmt.Errorf("%w: status 404", snapshot.ErrNotFound)}
	f.view.Start()

	ds := f.waitState(t, func(ds DisplayState) bool { return ds.Phase == PhaseNotFound })
	assert.Nil(t, ds.Match)
	assert.NotEmpty(t, ds.Error)
	assert.Equal(t, 0, f.connector.count())
}

func TestMatchView_TransientFailureStaysLoading(t *testing.T) {
	f := newMatchFixture(t, matchSnapshot("m1", models.MatchStatusNotStarted, nil))
	f.loader.matches["m1"] = fetchResult{err: fmt.Errorf("%w: connection refused", snapshot.ErrTransient)}
	f.view.Start()

	ds := f.waitState(t, func(ds DisplayState) bool { return ds.Error != "" })
	assert.Equal(t, PhaseLoading, ds.Phase)
}

func TestMatchView_ClockTicks(t *testing.T) {
	anchor := kickoff.Add(-44 * time.Minute)
	f := newMatchFixture(t, matchSnapshot("m1", models.MatchStatusFirstHalf, &anchor))
	f.view.Start()

	ds := f.waitState(t, ready)
	assert.Equal(t, "45'", ds.Clock)

	f.clock.Advance(time.Minute)
	f.waitState(t, func(ds DisplayState) bool { return ds.Clock == "45+1'" })
}

func TestMatchView_CloseDiscardsLateFetch(t *testing.T) {
	f := newMatchFixture(t, matchSnapshot("m1", models.MatchStatusFirstHalf, nil))
	f.loader.gate = make(chan struct{})
	f.view.Start()

	require.Eventually(t, func() bool {
		f.loader.mu.Lock()
		defer f.loader.mu.Unlock()
		return len(f.loader.calls) == 1
	}, waitFor, tick)

	f.view.Close()
	close(f.loader.gate)

	assert.Never(t, func() bool { return f.view.State().Phase != PhaseLoading }, 50*time.Millisecond, tick)
	assert.Equal(t, 0, f.connector.count())
}

func TestMatchView_CloseStopsUpdates(t *testing.T) {
	f := newMatchFixture(t, matchSnapshot("m1", models.MatchStatusNotStarted, nil))

	var changes int
	f.view.OnChange(func(DisplayState) { changes++ })
	f.view.Start()
	src := f.connector.waitSource(t, 0)

	src.send(t, matchPayload("e1", goal("home")))
	f.waitMatch(t, homeScore(1))

	f.view.Close()
	assert.True(t, src.isClosed())

	before := changes
	f.clock.Advance(time.Hour)
	assert.Never(t, func() bool { return !f.view.State().Match.Highlight.Home }, 50*time.Millisecond, tick)
	assert.Equal(t, before, changes)

	f.view.Close()
}
