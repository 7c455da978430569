package livematch

import (
	"time"

	"github.com/mcdev12/matchlive/go/internal/events"
	"github.com/mcdev12/matchlive/go/internal/models"
)

// Event contexts shown next to a highlighted side.
const (
	ContextGoal    = "GOAL"
	ContextRedCard = "RED CARD"
)

// SideFlags holds a boolean per side.
type SideFlags struct {
	Home bool `json:"home"`
	Away bool `json:"away"`
}

func (f *SideFlags) set(side models.Side, v bool) {
	if side == models.SideHome {
		f.Home = v
		return
	}
	f.Away = v
}

// Get returns the flag for side.
func (f SideFlags) Get(side models.Side) bool {
	if side == models.SideHome {
		return f.Home
	}
	return f.Away
}

// SideLabels holds a label per side.
type SideLabels struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

func (l *SideLabels) set(side models.Side, v string) {
	if side == models.SideHome {
		l.Home = v
		return
	}
	l.Away = v
}

// Get returns the label for side.
func (l SideLabels) Get(side models.Side) string {
	if side == models.SideHome {
		return l.Home
	}
	return l.Away
}

// State is the displayable state of one match.
type State struct {
	MatchID            string             `json:"match_id"`
	Status             models.MatchStatus `json:"status"`
	StatusLastModified *time.Time         `json:"status_last_modified,omitempty"`
	Score              models.SideCounts  `json:"score"`
	RedCards           models.SideCounts  `json:"red_cards"`
	Result             models.Result      `json:"result,omitempty"`
	Highlight          SideFlags          `json:"highlight"`
	EventContext       SideLabels         `json:"event_context"`
	HomeTeam           models.TeamRef     `json:"home_team"`
	AwayTeam           models.TeamRef     `json:"away_team"`
	Timeline           []events.Envelope  `json:"timeline,omitempty"`
}

// Effect lists the follow-up work of a transition: sides whose highlight reset must be
// scheduled, and whether the match reached a terminal status.
type Effect struct {
	Highlight []models.Side
	Terminal  bool
}
