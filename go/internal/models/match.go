package models

import "time"

// MatchStatus defines the lifecycle status of a match.
type MatchStatus string

const (
	MatchStatusNotStarted MatchStatus = "NOT_STARTED"
	MatchStatusFirstHalf  MatchStatus = "FIRST_HALF"
	MatchStatusHalfTime   MatchStatus = "HALF_TIME"
	MatchStatusSecondHalf MatchStatus = "SECOND_HALF"
	MatchStatusExtraTime  MatchStatus = "EXTRA_TIME"
	MatchStatusPenalties  MatchStatus = "PENALTIES"
	MatchStatusFinished   MatchStatus = "FINISHED"
	MatchStatusPostponed  MatchStatus = "POSTPONED"
	MatchStatusAbandoned  MatchStatus = "ABANDONED"
)

// lifecycle order of the regular statuses; exceptions are handled in CanTransition.
var statusOrder = map[MatchStatus]int{
	MatchStatusNotStarted: 0,
	MatchStatusFirstHalf:  1,
	MatchStatusHalfTime:   2,
	MatchStatusSecondHalf: 3,
	MatchStatusExtraTime:  4,
	MatchStatusPenalties:  5,
	MatchStatusFinished:   6,
}

// Valid reports whether s is a known status.
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPostponed, MatchStatusAbandoned:
		return true
	}
	_, ok := statusOrder[s]
	return ok
}

// IsTerminal reports whether no further events are expected after s.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusFinished || s == MatchStatusPostponed || s == MatchStatusAbandoned
}

// IsRunning reports whether a running clock is legal in s.
func (s MatchStatus) IsRunning() bool {
	return s == MatchStatusFirstHalf || s == MatchStatusSecondHalf || s == MatchStatusExtraTime
}

// CanTransition reports whether to follows s in the ordered lifecycle.
// POSTPONED and ABANDONED are only reachable from NOT_STARTED.
func (s MatchStatus) CanTransition(to MatchStatus) bool {
	if s.IsTerminal() || !to.Valid() {
		return false
	}
	if to == MatchStatusPostponed || to == MatchStatusAbandoned {
		return s == MatchStatusNotStarted
	}
	return statusOrder[to] > statusOrder[s]
}

// Result defines the outcome of a finished match.
type Result string

const (
	ResultNone    Result = ""
	ResultHomeWin Result = "HOME_WIN"
	ResultAwayWin Result = "AWAY_WIN"
	ResultDraw    Result = "DRAW"
)

// Side is either the home or the away team of a match.
type Side string

const (
	SideHome Side = "HOME"
	SideAway Side = "AWAY"
)

// Sides lists both sides in display order.
var Sides = []Side{SideHome, SideAway}

// Valid reports whether s is HOME or AWAY.
func (s Side) Valid() bool {
	return s == SideHome || s == SideAway
}

// ResolveSide derives the side of a team by comparing it to the match's home team.
func ResolveSide(teamID, homeTeamID string) Side {
	if teamID == homeTeamID {
		return SideHome
	}
	return SideAway
}

// SideCounts holds a per-side counter such as goals or red cards.
type SideCounts struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Get returns the counter for side.
func (c SideCounts) Get(side Side) int {
	if side == SideHome {
		return c.Home
	}
	return c.Away
}

// Inc increments the counter for side.
func (c *SideCounts) Inc(side Side) {
	if side == SideHome {
		c.Home++
		return
	}
	c.Away++
}

// MatchSnapshot is a polled, point-in-time representation of a match.
type MatchSnapshot struct {
	ID                 string      `json:"id"`
	CompetitionID      string      `json:"competition_id,omitempty"`
	Status             MatchStatus `json:"status"`
	Result             Result      `json:"result,omitempty"`
	StartTime          time.Time   `json:"start_time"`
	StatusLastModified *time.Time  `json:"status_last_modified,omitempty"`
	Score              SideCounts  `json:"score"`
	RedCards           SideCounts  `json:"red_cards"`
	HomeTeam           TeamRef     `json:"home_team"`
	AwayTeam           TeamRef     `json:"away_team"`
}
