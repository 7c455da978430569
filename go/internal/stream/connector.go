package stream

import (
	"context"
	"fmt"

	"github.com/mcdev12/matchlive/go/internal/config"
)

// Kind distinguishes the shared multi-match channel from a single match channel.
type Kind string

const (
	KindGlobal Kind = "global"
	KindMatch  Kind = "match"
)

// SubjectPrefix is the NATS subject prefix of the push channel.
const SubjectPrefix = "match.events"

// Topic identifies one logical push channel.
type Topic struct {
	Kind    Kind
	MatchID string
}

// GlobalTopic is the channel shared by all list views.
func GlobalTopic() Topic {
	return Topic{Kind: KindGlobal}
}

// MatchTopic is the channel of a single match.
func MatchTopic(matchID string) Topic {
	return Topic{Kind: KindMatch, MatchID: matchID}
}

// Subject returns the NATS subject of the topic.
func (t Topic) Subject() string {
	if t.Kind == KindMatch {
		return fmt.Sprintf("%s.%s", SubjectPrefix, t.MatchID)
	}
	return SubjectPrefix + ".global"
}

// Source is one open push-channel connection.
type Source interface {
	// Next blocks until the next payload arrives. Any error ends the connection.
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// Connector opens push-channel connections.
type Connector interface {
	Connect(ctx context.Context, topic Topic) (Source, error)
}

// NewConnector picks the transport from the scheme of the events channel URL.
func NewConnector(cfg config.Config) (Connector, error) {
	scheme, err := cfg.EventsScheme()
	if err != nil {
		return nil, err
	}
	switch scheme {
	case "nats":
		return NewNATSConnector(cfg.MatchEventsChannelURL), nil
	default:
		return NewWebSocketConnector(cfg.MatchEventsChannelURL), nil
	}
}
