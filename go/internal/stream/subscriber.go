package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/matchlive/go/internal/events"
)

// ErrMissingCorrelation is returned when a match subscription is requested before the match
// and home team ids are known.
var ErrMissingCorrelation = errors.New("match subscription requires match id and home team id")

// Message is one decoded push-channel payload. Exactly one of Match or Global is set,
// according to Kind.
type Message struct {
	Kind   Kind
	Match  events.Envelope
	Global events.GlobalMatchEvent
}

// Subscriber reads one push-channel connection and delivers decoded messages on Events.
type Subscriber struct {
	topic  Topic
	source Source
	out    chan Message
	done   chan struct{}
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	once   sync.Once
	err    error
}

// SubscribeGlobal opens the channel shared by list views.
func SubscribeGlobal(ctx context.Context, connector Connector) (*Subscriber, error) {
	return subscribe(ctx, connector, GlobalTopic())
}

// SubscribeMatch opens the channel of one match. Both ids must be known: the home team id is
// what team-scoped events are resolved against.
func SubscribeMatch(ctx context.Context, connector Connector, matchID, homeTeamID string) (*Subscriber, error) {
	if matchID == "" || homeTeamID == "" {
		return nil, ErrMissingCorrelation
	}
	return subscribe(ctx, connector, MatchTopic(matchID))
}

func subscribe(ctx context.Context, connector Connector, topic Topic) (*Subscriber, error) {
	source, err := connector.Connect(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic.Subject(), err)
	}

	readCtx, cancel := context.WithCancel(context.Background())
	s := &Subscriber{
		topic:  topic,
		source: source,
		out:    make(chan Message),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go s.read(readCtx)

	log.Debug().
		Str("kind", string(topic.Kind)).
		Str("match_id", topic.MatchID).
		Msg("push channel subscribed")

	return s, nil
}

// Events delivers decoded messages. It is never closed; select on Done as well.
func (s *Subscriber) Events() <-chan Message {
	return s.out
}

// Done is closed once the reader has stopped, after a disconnect or Close.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// Close stops the reader and closes the connection. No message is delivered after it returns.
func (s *Subscriber) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.cancel()
		s.err = s.source.Close()
		<-s.done
	})
	return s.err
}

func (s *Subscriber) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Subscriber) read(ctx context.Context) {
	defer close(s.done)

	for {
		data, err := s.source.Next(ctx)
		if err != nil {
			if !s.isClosed() && ctx.Err() == nil {
				log.Warn().
					Err(err).
					Str("kind", string(s.topic.Kind)).
					Str("match_id", s.topic.MatchID).
					Msg("push channel disconnected, live updates stopped")
			}
			return
		}

		msg, ok := s.decode(data)
		if !ok {
			continue
		}

		select {
		case s.out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Subscriber) decode(data []byte) (Message, bool) {
	switch s.topic.Kind {
	case KindMatch:
		env, err := events.DecodeMatchEnvelope(s.topic.MatchID, data)
		if err != nil {
			log.Debug().Err(err).Str("match_id", s.topic.MatchID).Msg("dropping match event")
			return Message{}, false
		}
		return Message{Kind: KindMatch, Match: env}, true
	default:
		ev, err := events.DecodeGlobal(data)
		if err != nil {
			log.Debug().Err(err).Msg("dropping global event")
			return Message{}, false
		}
		return Message{Kind: KindGlobal, Global: ev}, true
	}
}
