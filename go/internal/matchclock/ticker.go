package matchclock

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchlive/go/internal/models"
	"github.com/rs/zerolog/log"
)

// TickInterval is the recomputation period of a running clock.
const TickInterval = time.Minute

// Mode selects how the clock advances between ticks.
type Mode string

const (
	// ModeCounter seeds a minute counter from wall time once and adds exactly one per tick.
	// Delayed ticks make it drift behind real elapsed time.
	ModeCounter Mode = "counter"
	// ModeWall recomputes the elapsed minutes from wall time on every tick.
	ModeWall Mode = "wall"
)

// Ticker drives the once-per-minute recomputation of a match clock. It is not safe for
// concurrent use; the owning view calls it from its loop only.
type Ticker struct {
	clock clockwork.Clock
	mode  Mode

	status  models.MatchStatus
	anchor  *time.Time
	elapsed int
	ticker  clockwork.Ticker
}

// NewTicker creates a stopped ticker.
func NewTicker(clock clockwork.Clock, mode Mode) *Ticker {
	if mode != ModeWall {
		mode = ModeCounter
	}
	return &Ticker{clock: clock, mode: mode}
}

// Start (re)seeds the clock for a new status and anchor. A periodic tick only runs while the
// status is running and the anchor is known.
func (t *Ticker) Start(status models.MatchStatus, anchor *time.Time) (ClockState, bool) {
	t.Stop()

	t.status = status
	t.anchor = anchor
	t.elapsed = 0
	if anchor != nil {
		t.elapsed = ElapsedMinutes(*anchor, t.clock.Now())
	}

	if status.IsRunning() && anchor != nil {
		t.ticker = t.clock.NewTicker(TickInterval)
		log.Debug().
			Str("status", string(status)).
			Int("elapsed_minutes", t.elapsed).
			Str("mode", string(t.mode)).
			Msg("match clock started")
	}
	return t.Current()
}

// C returns the tick channel, nil while stopped. Receiving from a nil channel blocks forever,
// so a stopped ticker never fires inside a select loop.
func (t *Ticker) C() <-chan time.Time {
	if t.ticker == nil {
		return nil
	}
	return t.ticker.Chan()
}

// Tick advances the clock by one period and returns the new state.
func (t *Ticker) Tick() (ClockState, bool) {
	if t.anchor == nil {
		return ClockState{}, false
	}
	switch t.mode {
	case ModeWall:
		t.elapsed = ElapsedMinutes(*t.anchor, t.clock.Now())
	default:
		t.elapsed++
	}
	return t.Current()
}

// Current returns the clock without advancing it.
func (t *Ticker) Current() (ClockState, bool) {
	if t.anchor == nil {
		return ClockState{}, false
	}
	return FromElapsed(t.status, t.elapsed)
}

// Running reports whether a periodic tick is active.
func (t *Ticker) Running() bool {
	return t.ticker != nil
}

// Stop cancels the periodic tick. Safe to call repeatedly.
func (t *Ticker) Stop() {
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
}
