package view

import (
	"context"
	"errors"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/matchlive/go/internal/events"
	"github.com/mcdev12/matchlive/go/internal/highlight"
	"github.com/mcdev12/matchlive/go/internal/livematch"
	"github.com/mcdev12/matchlive/go/internal/matchclock"
	"github.com/mcdev12/matchlive/go/internal/models"
	"github.com/mcdev12/matchlive/go/internal/snapshot"
	"github.com/mcdev12/matchlive/go/internal/stream"
)

// DisplayState is what a match detail renderer shows.
type DisplayState struct {
	Phase   Phase            `json:"phase"`
	MatchID string           `json:"match_id"`
	Match   *livematch.State `json:"match,omitempty"`
	Clock   string           `json:"clock,omitempty"`
	Live    bool             `json:"live"`
	Error   string           `json:"error,omitempty"`
}

type matchFetch struct {
	snap *models.MatchSnapshot
	err  error
}

// MatchView is the detail view of one match. All mutation happens on its loop goroutine:
// the snapshot fetch result, push messages, highlight expiries and clock ticks are handed to
// the loop over channels.
type MatchView struct {
	matchID   string
	cfg       Config
	loader    MatchLoader
	connector stream.Connector
	clock     clockwork.Clock

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	start  sync.Once
	stop   sync.Once

	fetched  chan matchFetch
	expiries chan highlight.Expiry[models.Side]

	// loop-owned
	reducer    *livematch.Reducer
	sub        stream.Feed
	highlights *highlight.Manager[models.Side]
	ticker     *matchclock.Ticker
	phase      Phase
	lastErr    error

	mu        sync.RWMutex
	published DisplayState
	listeners []func(DisplayState)
}

// NewMatchView creates a detail view. Nothing happens until Start.
func NewMatchView(cfg Config, loader MatchLoader, connector stream.Connector, clock clockwork.Clock, matchID string) *MatchView {
	ctx, cancel := context.WithCancel(context.Background())
	v := &MatchView{
		matchID:   matchID,
		cfg:       cfg,
		loader:    loader,
		connector: connector,
		clock:     clock,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		fetched:   make(chan matchFetch),
		expiries:  make(chan highlight.Expiry[models.Side]),
		ticker:    matchclock.NewTicker(clock, cfg.ClockMode),
		phase:     PhaseLoading,
	}
	v.highlights = highlight.NewManager(clock, cfg.DetailHighlight, func(e highlight.Expiry[models.Side]) {
		forward(v.ctx, v.expiries, e)
	})
	v.published = DisplayState{Phase: PhaseLoading, MatchID: matchID}
	return v
}

// OnChange registers a callback invoked from the loop after every state change.
func (v *MatchView) OnChange(fn func(DisplayState)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, fn)
}

// State returns the last published state.
func (v *MatchView) State() DisplayState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.published
}

// Start launches the loop and the snapshot fetch. Calling it again has no effect.
func (v *MatchView) Start() {
	v.start.Do(func() {
		go v.run()
		go v.fetch()
	})
}

// Close tears the view down and waits for the loop to exit. A fetch still in flight is not
// aborted; its result is discarded.
func (v *MatchView) Close() {
	v.stop.Do(func() {
		v.cancel()
		v.start.Do(func() { close(v.done) })
		<-v.done
		v.highlights.Close()
	})
}

func (v *MatchView) fetch() {
	snap, err := v.loader.FetchMatch(context.WithoutCancel(v.ctx), v.matchID)
	if !forward(v.ctx, v.fetched, matchFetch{snap: snap, err: err}) {
		log.Debug().Str("match_id", v.matchID).Msg("discarding snapshot fetched after close")
	}
}

func (v *MatchView) run() {
	defer close(v.done)
	defer v.teardown()

	for {
		select {
		case <-v.ctx.Done():
			return

		case res := <-v.fetched:
			v.handleFetch(res)

		case msg := <-messages(v.sub):
			v.handleEvent(msg.Match)

		case <-disconnected(v.sub):
			v.detach()
			v.publish()

		case e := <-v.expiries:
			if v.highlights.Claim(e) && v.reducer != nil {
				v.reducer.ResetHighlight(e.Key)
				v.publish()
			}

		case <-v.ticker.C():
			v.ticker.Tick()
			v.publish()
		}
	}
}

func (v *MatchView) teardown() {
	v.detach()
	v.ticker.Stop()
	v.highlights.CancelAll()
}

func (v *MatchView) handleFetch(res matchFetch) {
	if res.err != nil {
		v.lastErr = res.err
		if errors.Is(res.err, snapshot.ErrNotFound) {
			v.phase = PhaseNotFound
		}
		log.Warn().Err(res.err).Str("match_id", v.matchID).Str("phase", string(v.phase)).Msg("match snapshot unavailable")
		v.publish()
		return
	}

	v.lastErr = nil
	v.phase = PhaseReady
	v.reducer = livematch.NewReducer(*res.snap, v.clock.Now)
	state := v.reducer.State()
	v.ticker.Start(state.Status, state.StatusLastModified)
	v.attach()
	v.publish()
}

func (v *MatchView) attach() {
	if v.sub != nil || !v.reducer.Active() {
		return
	}
	sub, err := stream.SubscribeMatch(v.ctx, v.connector, v.reducer.MatchID(), v.reducer.HomeTeamID())
	if err != nil {
		log.Warn().Err(err).Str("match_id", v.matchID).Msg("match updates unavailable")
		return
	}
	v.sub = sub
}

func (v *MatchView) detach() {
	if v.sub == nil {
		return
	}
	if err := v.sub.Close(); err != nil {
		log.Debug().Err(err).Str("match_id", v.matchID).Msg("closing match subscription")
	}
	v.sub = nil
}

func (v *MatchView) handleEvent(env events.Envelope) {
	if v.reducer == nil {
		return
	}
	effect, ok := v.reducer.Apply(env)
	if !ok {
		return
	}

	for _, side := range effect.Highlight {
		v.highlights.Schedule(side)
	}
	if env.Event.Type() == events.TypeStatus {
		state := v.reducer.State()
		v.ticker.Start(state.Status, state.StatusLastModified)
	}
	if effect.Terminal {
		log.Info().Str("match_id", v.matchID).Msg("match over, detaching from updates")
		v.detach()
		v.ticker.Stop()
	}
	v.publish()
}

func (v *MatchView) snapshot() DisplayState {
	ds := DisplayState{
		Phase:   v.phase,
		MatchID: v.matchID,
		Live:    v.sub != nil,
	}
	if v.lastErr != nil {
		ds.Error = v.lastErr.Error()
	}
	if v.reducer != nil {
		state := v.reducer.State()
		ds.Match = &state
		if state.Status.IsRunning() {
			ds.Clock = matchclock.Label(v.ticker.Current())
		}
	}
	return ds
}

func (v *MatchView) publish() {
	ds := v.snapshot()

	v.mu.Lock()
	v.published = ds
	listeners := append([]func(DisplayState){}, v.listeners...)
	v.mu.Unlock()

	for _, fn := range listeners {
		fn(ds)
	}
}
