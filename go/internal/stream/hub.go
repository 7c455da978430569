package stream

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

const memberBufferSize = 256

// Feed is a stream of decoded messages owned by one view.
type Feed interface {
	Events() <-chan Message
	Done() <-chan struct{}
	Close() error
}

// Hub shares one global subscription between every list view. The connection opens when the
// first member joins and closes when the last one leaves or the channel drops.
type Hub struct {
	connector Connector

	mu      sync.Mutex
	sub     *Subscriber
	members map[*Membership]struct{}
}

// NewHub creates a hub that connects through connector.
func NewHub(connector Connector) *Hub {
	return &Hub{
		connector: connector,
		members:   make(map[*Membership]struct{}),
	}
}

// Join registers a new member, connecting the global subscription if needed.
func (h *Hub) Join(ctx context.Context) (*Membership, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sub == nil {
		sub, err := SubscribeGlobal(ctx, h.connector)
		if err != nil {
			return nil, err
		}
		h.sub = sub
		go h.pump(sub)
	}

	m := &Membership{
		hub:  h,
		out:  make(chan Message, memberBufferSize),
		done: make(chan struct{}),
	}
	h.members[m] = struct{}{}

	log.Debug().Int("members", len(h.members)).Msg("joined global channel")
	return m, nil
}

// Members returns the number of current members.
func (h *Hub) Members() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.members)
}

// Close disconnects every member.
func (h *Hub) Close() error {
	h.mu.Lock()
	sub := h.sub
	h.sub = nil
	members := h.members
	h.members = make(map[*Membership]struct{})
	h.mu.Unlock()

	for m := range members {
		m.finish()
	}
	if sub != nil {
		return sub.Close()
	}
	return nil
}

func (h *Hub) pump(sub *Subscriber) {
	for {
		select {
		case msg := <-sub.Events():
			h.broadcast(msg)
		case <-sub.Done():
			h.disconnected(sub)
			return
		}
	}
}

func (h *Hub) broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for m := range h.members {
		select {
		case m.out <- msg:
		default:
			log.Warn().Str("match_id", string(msg.Global.MatchID)).Msg("member buffer full, dropping global event")
		}
	}
}

// disconnected ends every membership after the connection dropped.
func (h *Hub) disconnected(sub *Subscriber) {
	h.mu.Lock()
	if h.sub != sub {
		h.mu.Unlock()
		return
	}
	h.sub = nil
	members := h.members
	h.members = make(map[*Membership]struct{})
	h.mu.Unlock()

	for m := range members {
		m.finish()
	}
}

func (h *Hub) leave(m *Membership) {
	h.mu.Lock()
	if _, ok := h.members[m]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.members, m)

	var idle *Subscriber
	if len(h.members) == 0 && h.sub != nil {
		idle = h.sub
		h.sub = nil
	}
	h.mu.Unlock()

	if idle != nil {
		log.Debug().Msg("last member left, closing global channel")
		if err := idle.Close(); err != nil {
			log.Debug().Err(err).Msg("closing global channel")
		}
	}
}

// Membership is one view's share of the global channel.
type Membership struct {
	hub  *Hub
	out  chan Message
	done chan struct{}

	finishOnce sync.Once
	closeOnce  sync.Once
}

// Events delivers messages in channel order. It is never closed.
func (m *Membership) Events() <-chan Message {
	return m.out
}

// Done is closed when the shared connection drops or the membership is closed.
func (m *Membership) Done() <-chan struct{} {
	return m.done
}

// Close leaves the hub. The caller must stop reading Events.
func (m *Membership) Close() error {
	m.closeOnce.Do(func() {
		m.hub.leave(m)
		m.finish()
	})
	return nil
}

func (m *Membership) finish() {
	m.finishOnce.Do(func() { close(m.done) })
}

var (
	_ Feed = (*Subscriber)(nil)
	_ Feed = (*Membership)(nil)
)
