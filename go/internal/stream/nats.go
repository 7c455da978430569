package stream

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSConnector subscribes to the push channel on a NATS server. Each subscription owns its
// own connection, and reconnects are disabled: a dropped connection stops updates.
type NATSConnector struct {
	url string
}

// NewNATSConnector creates a connector for the given nats:// URL.
func NewNATSConnector(url string) *NATSConnector {
	return &NATSConnector{url: url}
}

func (c *NATSConnector) Connect(ctx context.Context, topic Topic) (Source, error) {
	opts := []nats.Option{
		nats.Name("matchlive-" + string(topic.Kind)),
		nats.NoReconnect(),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Error().Err(err).Str("subject", topic.Subject()).Msg("NATS disconnected")
			}
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(c.url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	sub, err := nc.SubscribeSync(topic.Subject())
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic.Subject(), err)
	}

	return &natsSource{nc: nc, sub: sub}, nil
}

type natsSource struct {
	nc  *nats.Conn
	sub *nats.Subscription
}

func (s *natsSource) Next(ctx context.Context) ([]byte, error) {
	msg, err := s.sub.NextMsgWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return msg.Data, nil
}

func (s *natsSource) Close() error {
	if s.nc.IsClosed() {
		return nil
	}
	err := s.sub.Unsubscribe()
	s.nc.Close()
	return err
}
