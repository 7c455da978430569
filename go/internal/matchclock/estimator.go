package matchclock

import (
	"fmt"
	"time"

	"github.com/mcdev12/matchlive/go/internal/models"
)

// IndeterminateLabel is shown when no anchor is known for a running status.
const IndeterminateLabel = "LIVE"

// ClockState is the displayed minute of a running match.
type ClockState struct {
	Minute           int `json:"minute"`
	AdditionalMinute int `json:"additional_minute"`
}

type period struct {
	start    int
	saturate int
}

var periods = map[models.MatchStatus]period{
	models.MatchStatusFirstHalf:  {start: 1, saturate: 45},
	models.MatchStatusSecondHalf: {start: 45, saturate: 90},
	models.MatchStatusExtraTime:  {start: 90, saturate: 120},
}

// ElapsedMinutes returns the whole minutes between anchor and now, never negative.
func ElapsedMinutes(anchor, now time.Time) int {
	elapsed := now.Sub(anchor)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / time.Minute)
}

// Estimate derives the display clock for status from the instant the status began.
// It returns false when the clock is indeterminate: no anchor, or a status without a running clock.
func Estimate(status models.MatchStatus, anchor *time.Time, now time.Time) (ClockState, bool) {
	if anchor == nil {
		return ClockState{}, false
	}
	return FromElapsed(status, ElapsedMinutes(*anchor, now))
}

// FromElapsed applies the per-period baseline and saturation to an elapsed minute count.
// Past saturation the stoppage minute is currentMinute mod saturate.
func FromElapsed(status models.MatchStatus, elapsedMinutes int) (ClockState, bool) {
	p, ok := periods[status]
	if !ok {
		return ClockState{}, false
	}
	if elapsedMinutes < 0 {
		elapsedMinutes = 0
	}

	current := p.start + elapsedMinutes
	if current > p.saturate {
		return ClockState{Minute: p.saturate, AdditionalMinute: current % p.saturate}, true
	}
	return ClockState{Minute: current}, true
}

// Label renders a clock state, e.g. "37'" or "45+1'".
func Label(state ClockState, ok bool) string {
	if !ok {
		return IndeterminateLabel
	}
	if state.AdditionalMinute > 0 {
		return fmt.Sprintf("%d+%d'", state.Minute, state.AdditionalMinute)
	}
	return fmt.Sprintf("%d'", state.Minute)
}
