package livematch

import (
	"time"

	"github.com/mcdev12/matchlive/go/internal/events"
	"github.com/mcdev12/matchlive/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Reducer folds a match snapshot and the stream of events for that match into the current
// displayable state. Events are applied in arrival order; they are never deduplicated or
// reordered by id. A Reducer is not safe for concurrent use.
type Reducer struct {
	matchID    string
	homeTeamID string
	awayTeamID string
	now        func() time.Time
	state      State
}

// NewReducer builds a reducer from the initial snapshot.
func NewReducer(snap models.MatchSnapshot, now func() time.Time) *Reducer {
	if now == nil {
		now = time.Now
	}
	return &Reducer{
		matchID:    snap.ID,
		homeTeamID: snap.HomeTeam.ID,
		awayTeamID: snap.AwayTeam.ID,
		now:        now,
		state: State{
			MatchID:            snap.ID,
			Status:             snap.Status,
			StatusLastModified: snap.StatusLastModified,
			Score:              snap.Score,
			RedCards:           snap.RedCards,
			Result:             snap.Result,
			HomeTeam:           snap.HomeTeam,
			AwayTeam:           snap.AwayTeam,
		},
	}
}

// MatchID returns the match this reducer is bound to.
func (r *Reducer) MatchID() string { return r.matchID }

// HomeTeamID returns the team id that resolves to the home side.
func (r *Reducer) HomeTeamID() string { return r.homeTeamID }

// State returns a copy of the current state.
func (r *Reducer) State() State {
	s := r.state
	if r.state.Timeline != nil {
		s.Timeline = append([]events.Envelope(nil), r.state.Timeline...)
	}
	return s
}

// Active reports whether the reducer should drive a subscription: the correlation ids are
// known and the status is not terminal.
func (r *Reducer) Active() bool {
	return r.matchID != "" && r.homeTeamID != "" && !r.state.Status.IsTerminal()
}

// OnStatus moves the match to target and highlights both sides.
func (r *Reducer) OnStatus(target models.MatchStatus, result models.Result) Effect {
	if !r.state.Status.CanTransition(target) {
		log.Debug().
			Str("match_id", r.matchID).
			Str("from", string(r.state.Status)).
			Str("to", string(target)).
			Msg("out of order status transition applied in arrival order")
	}

	now := r.now()
	r.state.Status = target
	r.state.StatusLastModified = &now
	r.state.Result = result
	r.state.Highlight = SideFlags{Home: true, Away: true}

	return Effect{Highlight: []models.Side{models.SideHome, models.SideAway}, Terminal: target.IsTerminal()}
}

// OnGoal adds a goal to side.
func (r *Reducer) OnGoal(side models.Side) Effect {
	r.state.Score.Inc(side)
	return r.highlight(side, ContextGoal)
}

// OnRedCard adds a red card to side.
func (r *Reducer) OnRedCard(side models.Side) Effect {
	r.state.RedCards.Inc(side)
	return r.highlight(side, ContextRedCard)
}

// OnPenalty counts a goal only when the kick counts toward the full-time score.
func (r *Reducer) OnPenalty(side models.Side, countsAsGoal bool) Effect {
	if !countsAsGoal {
		return Effect{}
	}
	return r.OnGoal(side)
}

func (r *Reducer) highlight(side models.Side, context string) Effect {
	r.state.Highlight.set(side, true)
	r.state.EventContext.set(side, context)
	return Effect{Highlight: []models.Side{side}}
}

// ResetHighlight clears the highlight and context of side regardless of what set them.
func (r *Reducer) ResetHighlight(side models.Side) {
	r.state.Highlight.set(side, false)
	r.state.EventContext.set(side, "")
}

// Apply folds a per-match event. It returns false when the event was ignored: another match,
// an unknown team, or a match that is no longer active.
func (r *Reducer) Apply(env events.Envelope) (Effect, bool) {
	if env.MatchID != r.matchID {
		log.Debug().Str("match_id", r.matchID).Str("event_match_id", env.MatchID).Msg("event for another match ignored")
		return Effect{}, false
	}
	if !r.Active() {
		return Effect{}, false
	}

	var effect Effect
	switch e := env.Event.(type) {
	case events.StatusEvent:
		effect = r.OnStatus(e.Status, e.Result)

	case events.GoalEvent:
		side, ok := r.resolveSide(e.TeamID)
		if !ok {
			return Effect{}, false
		}
		effect = r.OnGoal(side)

	case events.CardEvent:
		side, ok := r.resolveSide(e.TeamID)
		if !ok {
			return Effect{}, false
		}
		if e.Card.IsRed() {
			effect = r.OnRedCard(side)
		}

	case events.PenaltyEvent:
		side, ok := r.resolveSide(e.TeamID)
		if !ok {
			return Effect{}, false
		}
		effect = r.OnPenalty(side, e.CountsAsGoal())

	case events.SubstitutionEvent:
		if _, ok := r.resolveSide(e.TeamID); !ok {
			return Effect{}, false
		}

	case events.CommentaryEvent:

	default:
		log.Warn().Str("match_id", r.matchID).Msgf("unhandled match event %T", env.Event)
		return Effect{}, false
	}

	r.state.Timeline = append(r.state.Timeline, env)
	return effect, true
}

// ApplyGlobal folds a reduced event from the shared channel. Events for other matches are
// ignored. The global payload carries no team id, so its side field is used as sent.
func (r *Reducer) ApplyGlobal(ev events.GlobalMatchEvent) (Effect, bool) {
	if string(ev.MatchID) != r.matchID || !r.Active() {
		return Effect{}, false
	}

	switch ev.Type {
	case events.TypeStatus:
		return r.OnStatus(ev.TargetStatus, ev.Result), true
	case events.TypeGoal:
		return r.OnGoal(ev.Side), true
	case events.TypeCard:
		return r.OnRedCard(ev.Side), true
	default:
		return Effect{}, false
	}
}

// resolveSide compares teamID with the home team. An id that matches neither team is
// unroutable when the away team is known.
func (r *Reducer) resolveSide(teamID events.ID) (models.Side, bool) {
	id := string(teamID)
	if r.awayTeamID != "" && id != r.homeTeamID && id != r.awayTeamID {
		log.Debug().
			Str("match_id", r.matchID).
			Str("team_id", id).
			Msg("event for unknown team dropped")
		return "", false
	}
	return models.ResolveSide(id, r.homeTeamID), true
}
