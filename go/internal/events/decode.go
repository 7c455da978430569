package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformed is returned for payloads that cannot be decoded or miss required fields.
	ErrMalformed = errors.New("malformed event")
	// ErrUnknownEventType is returned for an event type this client does not know.
	ErrUnknownEventType = errors.New("unknown event type")
)

// DecodeMatchEnvelope parses a per-match channel payload of the form {id, event: {type, ...}}.
func DecodeMatchEnvelope(matchID string, data []byte) (Envelope, error) {
	var raw struct {
		ID    ID              `json:"id"`
		Event json.RawMessage `json:"event"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(raw.Event) == 0 {
		return Envelope{}, fmt.Errorf("%w: missing event", ErrMalformed)
	}

	event, err := decodeMatchEvent(raw.Event)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{ID: string(raw.ID), MatchID: matchID, Event: event}, nil
}

func decodeMatchEvent(data json.RawMessage) (MatchEvent, error) {
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	switch head.Type {
	case TypeStatus:
		var e StatusEvent
		if err := decodeInto(data, &e); err != nil {
			return nil, err
		}
		if !e.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrMalformed, e.Status)
		}
		return e, nil

	case TypeGoal:
		var e GoalEvent
		if err := decodeInto(data, &e); err != nil {
			return nil, err
		}
		if err := requireTeam(e.Base); err != nil {
			return nil, err
		}
		return e, nil

	case TypeCard:
		var e CardEvent
		if err := decodeInto(data, &e); err != nil {
			return nil, err
		}
		if !e.Card.valid() {
			return nil, fmt.Errorf("%w: unknown card type %q", ErrMalformed, e.Card)
		}
		if err := requireTeam(e.Base); err != nil {
			return nil, err
		}
		return e, nil

	case TypeSubstitution:
		var e SubstitutionEvent
		if err := decodeInto(data, &e); err != nil {
			return nil, err
		}
		if err := requireTeam(e.Base); err != nil {
			return nil, err
		}
		return e, nil

	case TypeCommentary:
		var e CommentaryEvent
		if err := decodeInto(data, &e); err != nil {
			return nil, err
		}
		return e, nil

	case TypePenalty:
		var e PenaltyEvent
		if err := decodeInto(data, &e); err != nil {
			return nil, err
		}
		if !e.Outcome.valid() {
			return nil, fmt.Errorf("%w: unknown penalty outcome %q", ErrMalformed, e.Outcome)
		}
		if err := requireTeam(e.Base); err != nil {
			return nil, err
		}
		return e, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, head.Type)
	}
}

func decodeInto(data json.RawMessage, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

func requireTeam(b Base) error {
	if b.TeamID == "" {
		return fmt.Errorf("%w: missing teamId", ErrMalformed)
	}
	return nil
}

// DecodeGlobal parses a global channel payload of the form {matchId, type, side, targetStatus?, result?}.
func DecodeGlobal(data []byte) (GlobalMatchEvent, error) {
	var e GlobalMatchEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return GlobalMatchEvent{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if e.MatchID == "" {
		return GlobalMatchEvent{}, fmt.Errorf("%w: missing matchId", ErrMalformed)
	}

	switch e.Type {
	case TypeStatus:
		if !e.TargetStatus.Valid() {
			return GlobalMatchEvent{}, fmt.Errorf("%w: unknown target status %q", ErrMalformed, e.TargetStatus)
		}
	case TypeGoal, TypeCard:
		if !e.Side.Valid() {
			return GlobalMatchEvent{}, fmt.Errorf("%w: unknown side %q", ErrMalformed, e.Side)
		}
	default:
		return GlobalMatchEvent{}, fmt.Errorf("%w: %q", ErrUnknownEventType, e.Type)
	}
	return e, nil
}
