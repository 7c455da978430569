package gateway

import (
	"encoding/json"
	"time"
)

// FrameType identifies the payload of a frame sent to a client.
type FrameType string

const (
	FrameMatchState FrameType = "match_state"
	FrameListState  FrameType = "list_state"
	FrameBracket    FrameType = "bracket"
	FrameError      FrameType = "error"
)

// Frame is the envelope of every message written to a client.
type Frame struct {
	Type         FrameType `json:"type"`
	ConnectionID string    `json:"connection_id"`
	Timestamp    time.Time `json:"timestamp"`
	Data         any       `json:"data"`
}

// ErrorPayload is the data of an error frame.
type ErrorPayload struct {
	Message string `json:"message"`
}

// CommandAction is a client request on a competition connection.
type CommandAction string

const (
	ActionNext     CommandAction = "next"
	ActionPrevious CommandAction = "previous"
)

// Command is a message received from a client.
type Command struct {
	Action CommandAction `json:"action"`
	Index  int           `json:"index"`
}

// ParseCommand decodes a client message.
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, err
	}
	return cmd, nil
}
