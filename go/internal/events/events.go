package events

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mcdev12/matchlive/go/internal/models"
)

// Type represents the type of a match event
type Type string

const (
	TypeStatus       Type = "STATUS"
	TypeGoal         Type = "GOAL"
	TypeCard         Type = "CARD"
	TypeSubstitution Type = "SUBSTITUTION"
	TypeCommentary   Type = "COMMENTARY"
	TypePenalty      Type = "PENALTY"
)

// AllTypes lists every match event variant.
func AllTypes() []Type {
	return []Type{TypeStatus, TypeGoal, TypeCard, TypeSubstitution, TypeCommentary, TypePenalty}
}

// CardType is the colour of a booking.
type CardType string

const (
	CardYellow       CardType = "YELLOW"
	CardSecondYellow CardType = "SECOND_YELLOW"
	CardRed          CardType = "RED"
)

// IsRed reports whether the card sends the player off.
func (c CardType) IsRed() bool {
	return c == CardRed || c == CardSecondYellow
}

func (c CardType) valid() bool {
	return c == CardYellow || c == CardSecondYellow || c == CardRed
}

// PenaltyOutcome is the result of a penalty kick.
type PenaltyOutcome string

const (
	PenaltyScored PenaltyOutcome = "SCORED"
	PenaltyMissed PenaltyOutcome = "MISSED"
	PenaltySaved  PenaltyOutcome = "SAVED"
)

func (o PenaltyOutcome) valid() bool {
	return o == PenaltyScored || o == PenaltyMissed || o == PenaltySaved
}

// ID is an identifier that may arrive as a JSON string or number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	s, err := decodeFlexible(data)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(s)
	return nil
}

// Minute is the minute label of an event, e.g. "23" or "90+3".
type Minute string

func (m *Minute) UnmarshalJSON(data []byte) error {
	s, err := decodeFlexible(data)
	if err != nil {
		return fmt.Errorf("minute: %w", err)
	}
	*m = Minute(s)
	return nil
}

func decodeFlexible(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		err := json.Unmarshal(data, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// Base holds the fields every match event carries.
type Base struct {
	Minute Minute `json:"minute"`
	TeamID ID     `json:"teamId"`
}

// Header returns the common fields of the event.
func (b Base) Header() Base { return b }

// MatchEvent is the sum of all per-match event payloads. The unexported marker method seals
// the set of variants to this package.
type MatchEvent interface {
	Type() Type
	Header() Base
	isMatchEvent()
}

type StatusEvent struct {
	Base
	Status models.MatchStatus `json:"status"`
	Result models.Result      `json:"result,omitempty"`
}

type GoalEvent struct {
	Base
	PlayerID         ID     `json:"playerId,omitempty"`
	PlayerName       string `json:"playerName,omitempty"`
	AssistPlayerID   ID     `json:"assistPlayerId,omitempty"`
	AssistPlayerName string `json:"assistPlayerName,omitempty"`
	OwnGoal          bool   `json:"ownGoal,omitempty"`
}

type CardEvent struct {
	Base
	PlayerID   ID       `json:"playerId,omitempty"`
	PlayerName string   `json:"playerName,omitempty"`
	Card       CardType `json:"cardType"`
}

type SubstitutionEvent struct {
	Base
	PlayerInID    ID     `json:"playerInId,omitempty"`
	PlayerInName  string `json:"playerInName,omitempty"`
	PlayerOutID   ID     `json:"playerOutId,omitempty"`
	PlayerOutName string `json:"playerOutName,omitempty"`
}

type CommentaryEvent struct {
	Base
	Text string `json:"text"`
}

type PenaltyEvent struct {
	Base
	PlayerID   ID             `json:"playerId,omitempty"`
	PlayerName string         `json:"playerName,omitempty"`
	Outcome    PenaltyOutcome `json:"outcome"`
	Shootout   bool           `json:"shootout,omitempty"`
}

// CountsAsGoal reports whether the kick changes the full-time score. Missed kicks and
// shootout kicks never do.
func (e PenaltyEvent) CountsAsGoal() bool {
	return e.Outcome == PenaltyScored && !e.Shootout
}

func (StatusEvent) Type() Type       { return TypeStatus }
func (GoalEvent) Type() Type         { return TypeGoal }
func (CardEvent) Type() Type         { return TypeCard }
func (SubstitutionEvent) Type() Type { return TypeSubstitution }
func (CommentaryEvent) Type() Type   { return TypeCommentary }
func (PenaltyEvent) Type() Type      { return TypePenalty }

func (StatusEvent) isMatchEvent()       {}
func (GoalEvent) isMatchEvent()         {}
func (CardEvent) isMatchEvent()         {}
func (SubstitutionEvent) isMatchEvent() {}
func (CommentaryEvent) isMatchEvent()   {}
func (PenaltyEvent) isMatchEvent()      {}

// Envelope carries one per-match event. ID is only used for render identity; it is never used
// to deduplicate or order events. MatchID is the correlation id of the channel it arrived on.
type Envelope struct {
	ID      string
	MatchID string
	Event   MatchEvent
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID      string     `json:"id"`
		MatchID string     `json:"match_id"`
		Type    Type       `json:"type"`
		Event   MatchEvent `json:"event"`
	}{
		ID:      e.ID,
		MatchID: e.MatchID,
		Type:    e.Event.Type(),
		Event:   e.Event,
	})
}

// GlobalMatchEvent is the reduced event broadcast on the shared multi-match channel.
type GlobalMatchEvent struct {
	MatchID      ID                 `json:"matchId"`
	Type         Type               `json:"type"`
	Side         models.Side        `json:"side"`
	TargetStatus models.MatchStatus `json:"targetStatus,omitempty"`
	Result       models.Result      `json:"result,omitempty"`
}
