package highlight

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Highlight durations per view kind.
const (
	ListDuration     = 15 * time.Second
	DetailDuration   = 3 * time.Second
	KnockoutDuration = 5 * time.Second
)

// Expiry is delivered when a reset timer fires. Generation identifies the Schedule call that
// started the timer; only the latest generation for a key can be claimed.
type Expiry[K comparable] struct {
	Key        K
	Generation uint64
}

// Manager keeps at most one pending reset timer per entity key. Scheduling a key cancels its
// pending timer and starts a new one.
type Manager[K comparable] struct {
	clock    clockwork.Clock
	duration time.Duration
	deliver  func(Expiry[K])

	mu      sync.Mutex
	pending map[K]*pendingReset
	nextGen uint64
	closed  bool
}

type pendingReset struct {
	generation uint64
	timer      clockwork.Timer
	done       chan struct{}
	deadline   time.Time
}

// NewManager creates a timer manager. deliver is called from a timer goroutine when a reset
// fires; the receiver must call Claim before clearing anything.
func NewManager[K comparable](clock clockwork.Clock, duration time.Duration, deliver func(Expiry[K])) *Manager[K] {
	return &Manager[K]{
		clock:    clock,
		duration: duration,
		deliver:  deliver,
		pending:  make(map[K]*pendingReset),
	}
}

// Schedule replaces any pending reset for key with a new one and returns its deadline.
// After Close it does nothing and returns the zero time.
func (m *Manager[K]) Schedule(key K) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return time.Time{}
	}

	if m.stopLocked(key) {
		log.Debug().Str("key", fmt.Sprint(key)).Msg("replaced pending highlight reset")
	}

	m.nextGen++
	p := &pendingReset{
		generation: m.nextGen,
		timer:      m.clock.NewTimer(m.duration),
		done:       make(chan struct{}),
		deadline:   m.clock.Now().Add(m.duration),
	}
	m.pending[key] = p

	go m.wait(key, p)

	return p.deadline
}

func (m *Manager[K]) wait(key K, p *pendingReset) {
	select {
	case <-p.timer.Chan():
		m.deliver(Expiry[K]{Key: key, Generation: p.generation})
	case <-p.done:
	}
}

// Claim consumes an expiry. It returns true only when the expiry belongs to the reset that is
// still pending for its key; a superseded or cancelled timer returns false.
func (m *Manager[K]) Claim(e Expiry[K]) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pending[e.Key]
	if !ok || p.generation != e.Generation {
		return false
	}
	close(p.done)
	delete(m.pending, e.Key)
	return true
}

// Pending reports whether a reset is scheduled for key.
func (m *Manager[K]) Pending(key K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[key]
	return ok
}

// Len returns the number of pending resets.
func (m *Manager[K]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Cancel drops the pending reset for key, if any.
func (m *Manager[K]) Cancel(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked(key)
}

// CancelAll drops every pending reset.
func (m *Manager[K]) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.pending {
		m.stopLocked(key)
	}
}

// Close cancels every pending reset; later Schedule calls are ignored.
func (m *Manager[K]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.pending {
		m.stopLocked(key)
	}
	m.closed = true
}

// stopLocked cancels and removes the timer for key. Callers hold m.mu.
func (m *Manager[K]) stopLocked(key K) bool {
	p, ok := m.pending[key]
	if !ok {
		return false
	}
	stopAndDrainTimer(p.timer)
	close(p.done)
	delete(m.pending, key)
	return true
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
