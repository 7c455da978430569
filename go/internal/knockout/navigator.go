package knockout

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/matchlive/go/internal/highlight"
	"github.com/mcdev12/matchlive/go/internal/models"
)

var (
	ErrNoStages        = errors.New("bracket has no stages")
	ErrInvalidBracket  = errors.New("stage does not converge on the previous one")
	ErrStageOutOfRange = errors.New("stage index out of range")
	ErrSlotOutOfRange  = errors.New("slot index out of range")
	ErrNoNextStage     = errors.New("already on the final stage")
	ErrNoPreviousStage = errors.New("already on the first stage")
)

// View is what a bracket renderer shows for the current stage.
type View struct {
	Stage                  int      `json:"stage"`
	StageName              string   `json:"stage_name"`
	MatchIDs               []string `json:"match_ids"`
	IsFirst                bool     `json:"is_first"`
	IsLast                 bool     `json:"is_last"`
	HighlightedSlotIndexes []int    `json:"highlighted_slot_indexes"`
}

// Navigator steps through the stages of a knockout bracket. Every pair of slots in a stage
// feeds one slot of the next stage. Navigating highlights the related slots of the stage moved
// to; only the latest navigation's highlight is kept.
type Navigator struct {
	mu          sync.Mutex
	stages      []models.Stage
	current     int
	highlighted map[int]struct{}
	highlights  *highlight.Manager[int]
	listeners   []func(View)
}

// NewNavigator validates the bracket and opens it on stage start.
func NewNavigator(clock clockwork.Clock, duration time.Duration, stages []models.Stage, start int) (*Navigator, error) {
	if len(stages) == 0 {
		return nil, ErrNoStages
	}
	if start < 0 || start >= len(stages) {
		return nil, fmt.Errorf("%w: %d", ErrStageOutOfRange, start)
	}
	for k := 1; k < len(stages); k++ {
		want := (stages[k-1].Slots() + 1) / 2
		if stages[k].Slots() != want {
			return nil, fmt.Errorf("%w: %s has %d slots, want %d",
				ErrInvalidBracket, stages[k].Name, stages[k].Slots(), want)
		}
	}

	n := &Navigator{
		stages:      stages,
		current:     start,
		highlighted: make(map[int]struct{}),
	}
	n.highlights = highlight.NewManager(clock, duration, n.expire)
	return n, nil
}

// OnChange registers a callback invoked after every navigation and highlight expiry.
func (n *Navigator) OnChange(fn func(View)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

// View returns the current stage and its highlighted slots.
func (n *Navigator) View() View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.viewLocked()
}

// Next moves from grouping index i of the current stage to the stage it converges on and
// highlights slot i/2 there.
func (n *Navigator) Next(groupingIndex int) error {
	n.mu.Lock()
	if n.current == len(n.stages)-1 {
		n.mu.Unlock()
		return ErrNoNextStage
	}
	if err := n.checkSlotLocked(groupingIndex); err != nil {
		n.mu.Unlock()
		return err
	}

	n.current++
	n.highlightLocked(groupingIndex / 2)
	n.unlockAndNotify()
	return nil
}

// Previous moves from slot i of the current stage back to the stage feeding it and highlights
// the pair {2i, 2i+1} there. A pair cut short by an odd-sized stage keeps its single slot.
func (n *Navigator) Previous(slotIndex int) error {
	n.mu.Lock()
	if n.current == 0 {
		n.mu.Unlock()
		return ErrNoPreviousStage
	}
	if err := n.checkSlotLocked(slotIndex); err != nil {
		n.mu.Unlock()
		return err
	}

	n.current--
	slots := []int{2 * slotIndex}
	if next := 2*slotIndex + 1; next < n.stages[n.current].Slots() {
		slots = append(slots, next)
	}
	n.highlightLocked(slots...)
	n.unlockAndNotify()
	return nil
}

// Close cancels every pending highlight reset.
func (n *Navigator) Close() {
	n.highlights.Close()
}

func (n *Navigator) checkSlotLocked(i int) error {
	if slots := n.stages[n.current].Slots(); i < 0 || i >= slots {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrSlotOutOfRange, i, slots)
	}
	return nil
}

func (n *Navigator) highlightLocked(slots ...int) {
	n.highlights.CancelAll()
	n.highlighted = make(map[int]struct{}, len(slots))
	for _, s := range slots {
		n.highlighted[s] = struct{}{}
		n.highlights.Schedule(s)
	}
}

func (n *Navigator) expire(e highlight.Expiry[int]) {
	n.mu.Lock()
	if !n.highlights.Claim(e) {
		n.mu.Unlock()
		return
	}
	delete(n.highlighted, e.Key)
	log.Debug().Int("slot", e.Key).Msg("bracket highlight expired")
	n.unlockAndNotify()
}

// unlockAndNotify releases n.mu and calls the listeners with the view taken under the lock.
func (n *Navigator) unlockAndNotify() {
	v := n.viewLocked()
	listeners := append([]func(View){}, n.listeners...)
	n.mu.Unlock()

	for _, fn := range listeners {
		fn(v)
	}
}

func (n *Navigator) viewLocked() View {
	stage := n.stages[n.current]
	slots := make([]int, 0, len(n.highlighted))
	for s := range n.highlighted {
		slots = append(slots, s)
	}
	slices.Sort(slots)

	return View{
		Stage:                  n.current,
		StageName:              stage.Name,
		MatchIDs:               append([]string(nil), stage.MatchIDs...),
		IsFirst:                n.current == 0,
		IsLast:                 n.current == len(n.stages)-1,
		HighlightedSlotIndexes: slots,
	}
}
