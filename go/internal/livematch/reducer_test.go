package livematch

import (
	"fmt"
	"testing"
	"time"

	"github.com/mcdev12/matchlive/go/internal/events"
	"github.com/mcdev12/matchlive/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.October, 5, 16, 0, 0, 0, time.UTC)

func testSnapshot() models.MatchSnapshot {
	anchor := testNow.Add(-20 * time.Minute)
	return models.MatchSnapshot{
		ID:                 "m1",
		Status:             models.MatchStatusFirstHalf,
		StartTime:          anchor,
		StatusLastModified: &anchor,
		Score:              models.SideCounts{Home: 1, Away: 0},
		HomeTeam:           models.TeamRef{ID: "home", Name: "Home"},
		AwayTeam:           models.TeamRef{ID: "away", Name: "Away"},
	}
}

func newTestReducer() *Reducer {
	return NewReducer(testSnapshot(), func() time.Time { return testNow })
}

func envelope(id string, e events.MatchEvent) events.Envelope {
	return events.Envelope{ID: id, MatchID: "m1", Event: e}
}

func goal(team string) events.GoalEvent {
	return events.GoalEvent{Base: events.Base{Minute: "30", TeamID: events.ID(team)}}
}

func card(team string, c events.CardType) events.CardEvent {
	return events.CardEvent{Base: events.Base{Minute: "40", TeamID: events.ID(team)}, Card: c}
}

func penalty(team string, outcome events.PenaltyOutcome, shootout bool) events.PenaltyEvent {
	return events.PenaltyEvent{Base: events.Base{TeamID: events.ID(team)}, Outcome: outcome, Shootout: shootout}
}

func TestReducer_HomeGoalTouchesOnlyHome(t *testing.T) {
	r := newTestReducer()

	effect, ok := r.Apply(envelope("e1", goal("home")))
	require.True(t, ok)
	assert.Equal(t, []models.Side{models.SideHome}, effect.Highlight)

	s := r.State()
	assert.Equal(t, 2, s.Score.Home)
	assert.Equal(t, 0, s.Score.Away)
	assert.True(t, s.Highlight.Home)
	assert.Equal(t, ContextGoal, s.EventContext.Home)
	assert.False(t, s.Highlight.Away)
	assert.Empty(t, s.EventContext.Away)
	assert.Equal(t, models.SideCounts{}, s.RedCards)
}

func TestReducer_SideResolvedFromTeamID(t *testing.T) {
	r := newTestReducer()

	_, ok := r.Apply(envelope("e1", goal("away")))
	require.True(t, ok)
	_, ok = r.Apply(envelope("e2", card("away", events.CardRed)))
	require.True(t, ok)

	s := r.State()
	assert.Equal(t, models.SideCounts{Home: 1, Away: 1}, s.Score)
	assert.Equal(t, models.SideCounts{Home: 0, Away: 1}, s.RedCards)
	assert.Equal(t, ContextRedCard, s.EventContext.Away)
}

func TestReducer_OnStatus(t *testing.T) {
	r := newTestReducer()

	effect := r.OnStatus(models.MatchStatusHalfTime, models.ResultNone)
	assert.ElementsMatch(t, []models.Side{models.SideHome, models.SideAway}, effect.Highlight)
	assert.False(t, effect.Terminal)

	s := r.State()
	assert.Equal(t, models.MatchStatusHalfTime, s.Status)
	require.NotNil(t, s.StatusLastModified)
	assert.Equal(t, testNow, *s.StatusLastModified)
	assert.Equal(t, SideFlags{Home: true, Away: true}, s.Highlight)

	effect = r.OnStatus(models.MatchStatusFinished, models.ResultHomeWin)
	assert.True(t, effect.Terminal)
	assert.Equal(t, models.ResultHomeWin, r.State().Result)
	assert.False(t, r.Active())
}

func TestReducer_Penalties(t *testing.T) {
	r := newTestReducer()

	_, ok := r.Apply(envelope("p1", penalty("home", events.PenaltyScored, false)))
	require.True(t, ok)
	_, ok = r.Apply(envelope("p2", penalty("away", events.PenaltyMissed, false)))
	require.True(t, ok)
	_, ok = r.Apply(envelope("p3", penalty("away", events.PenaltyScored, true)))
	require.True(t, ok)

	s := r.State()
	assert.Equal(t, models.SideCounts{Home: 2, Away: 0}, s.Score)
	assert.False(t, s.Highlight.Away)
	assert.Len(t, s.Timeline, 3)
}

func TestReducer_YellowCardDoesNotCount(t *testing.T) {
	r := newTestReducer()

	effect, ok := r.Apply(envelope("c1", card("home", events.CardYellow)))
	require.True(t, ok)
	assert.Empty(t, effect.Highlight)
	assert.Equal(t, models.SideCounts{}, r.State().RedCards)

	_, ok = r.Apply(envelope("c2", card("home", events.CardSecondYellow)))
	require.True(t, ok)
	assert.Equal(t, 1, r.State().RedCards.Home)
}

func TestReducer_IgnoresOtherMatchesAndUnknownTeams(t *testing.T) {
	r := newTestReducer()
	before := r.State()

	_, ok := r.Apply(events.Envelope{ID: "x", MatchID: "m2", Event: goal("home")})
	assert.False(t, ok)

	_, ok = r.Apply(envelope("y", goal("visitors")))
	assert.False(t, ok)

	_, ok = r.ApplyGlobal(events.GlobalMatchEvent{MatchID: "m2", Type: events.TypeGoal, Side: models.SideHome})
	assert.False(t, ok)

	assert.Equal(t, before, r.State())
}

func TestReducer_TerminalMatchIsInert(t *testing.T) {
	r := newTestReducer()
	_, ok := r.Apply(envelope("s1", events.StatusEvent{Status: models.MatchStatusFinished, Result: models.ResultHomeWin}))
	require.True(t, ok)
	after := r.State()

	_, ok = r.Apply(envelope("g1", goal("away")))
	assert.False(t, ok)
	_, ok = r.ApplyGlobal(events.GlobalMatchEvent{MatchID: "m1", Type: events.TypeGoal, Side: models.SideAway})
	assert.False(t, ok)

	assert.Equal(t, after, r.State())
}

func TestReducer_ApplyGlobal(t *testing.T) {
	r := newTestReducer()

	_, ok := r.ApplyGlobal(events.GlobalMatchEvent{MatchID: "m1", Type: events.TypeGoal, Side: models.SideAway})
	require.True(t, ok)
	_, ok = r.ApplyGlobal(events.GlobalMatchEvent{MatchID: "m1", Type: events.TypeCard, Side: models.SideHome})
	require.True(t, ok)
	effect, ok := r.ApplyGlobal(events.GlobalMatchEvent{
		MatchID: "m1", Type: events.TypeStatus, TargetStatus: models.MatchStatusFinished, Result: models.ResultDraw,
	})
	require.True(t, ok)
	assert.True(t, effect.Terminal)

	s := r.State()
	assert.Equal(t, models.SideCounts{Home: 1, Away: 1}, s.Score)
	assert.Equal(t, models.SideCounts{Home: 1, Away: 0}, s.RedCards)
	assert.Equal(t, models.ResultDraw, s.Result)
	assert.Empty(t, s.Timeline)
}

func TestReducer_ResetHighlightIsCoarse(t *testing.T) {
	r := newTestReducer()
	r.OnGoal(models.SideHome)
	r.OnRedCard(models.SideHome)

	r.ResetHighlight(models.SideHome)
	s := r.State()
	assert.False(t, s.Highlight.Home)
	assert.Empty(t, s.EventContext.Home)
	assert.Equal(t, 2, s.Score.Home)
	assert.Equal(t, 1, s.RedCards.Home)
}

// Totals after a known event sequence equal the count of qualifying events per resolved side.
func TestReducer_TotalsMatchQualifyingEvents(t *testing.T) {
	sequence := []events.MatchEvent{
		goal("home"),
		card("away", events.CardYellow),
		goal("away"),
		events.SubstitutionEvent{Base: events.Base{TeamID: "home"}},
		penalty("home", events.PenaltyScored, false),
		card("away", events.CardRed),
		events.CommentaryEvent{Text: "Great save"},
		penalty("away", events.PenaltySaved, false),
		card("home", events.CardSecondYellow),
		goal("home"),
		penalty("away", events.PenaltyScored, true),
	}

	r := newTestReducer()
	initial := r.State()
	want := struct{ score, cards models.SideCounts }{initial.Score, initial.RedCards}

	for i, e := range sequence {
		_, ok := r.Apply(envelope(fmt.Sprintf("e%d", i), e))
		require.True(t, ok)

		switch ev := e.(type) {
		case events.GoalEvent:
			want.score.Inc(models.ResolveSide(string(ev.TeamID), "home"))
		case events.PenaltyEvent:
			if ev.CountsAsGoal() {
				want.score.Inc(models.ResolveSide(string(ev.TeamID), "home"))
			}
		case events.CardEvent:
			if ev.Card.IsRed() {
				want.cards.Inc(models.ResolveSide(string(ev.TeamID), "home"))
			}
		}
	}

	s := r.State()
	assert.Equal(t, want.score, s.Score)
	assert.Equal(t, want.cards, s.RedCards)
	assert.Equal(t, models.SideCounts{Home: 4, Away: 1}, s.Score)
	assert.Equal(t, models.SideCounts{Home: 1, Away: 1}, s.RedCards)
	assert.Len(t, s.Timeline, len(sequence))
}

// Event ids are not used for deduplication. If the backend ever redelivers an event, it is
// counted twice; this test pins that behaviour until redelivery is confirmed.
func TestReducer_RedeliveryIsNotDeduplicated(t *testing.T) {
	r := newTestReducer()
	e := envelope("same-id", goal("away"))

	r.Apply(e)
	r.Apply(e)

	assert.Equal(t, 2, r.State().Score.Away)
}

func sampleEvent(typ events.Type) events.MatchEvent {
	base := events.Base{Minute: "10", TeamID: "home"}
	switch typ {
	case events.TypeStatus:
		return events.StatusEvent{Base: base, Status: models.MatchStatusHalfTime}
	case events.TypeGoal:
		return events.GoalEvent{Base: base}
	case events.TypeCard:
		return events.CardEvent{Base: base, Card: events.CardRed}
	case events.TypeSubstitution:
		return events.SubstitutionEvent{Base: base}
	case events.TypeCommentary:
		return events.CommentaryEvent{Base: base, Text: "kick off"}
	case events.TypePenalty:
		return events.PenaltyEvent{Base: base, Outcome: events.PenaltyScored}
	}
	return nil
}

// Every event variant has a reducer case; a new variant without one fails here.
func TestReducer_HandlesEveryEventType(t *testing.T) {
	for _, typ := range events.AllTypes() {
		t.Run(string(typ), func(t *testing.T) {
			e := sampleEvent(typ)
			require.NotNil(t, e, "no sample for %s", typ)
			assert.Equal(t, typ, e.Type())

			r := newTestReducer()
			_, ok := r.Apply(envelope("e", e))
			assert.True(t, ok)
		})
	}
}

func TestReducer_StateIsACopy(t *testing.T) {
	r := newTestReducer()
	r.Apply(envelope("e1", goal("home")))

	s := r.State()
	s.Timeline[0].ID = "mutated"
	s.Score.Home = 99

	assert.Equal(t, "e1", r.State().Timeline[0].ID)
	assert.Equal(t, 2, r.State().Score.Home)
}
