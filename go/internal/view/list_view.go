package view

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/matchlive/go/internal/events"
	"github.com/mcdev12/matchlive/go/internal/highlight"
	"github.com/mcdev12/matchlive/go/internal/livematch"
	"github.com/mcdev12/matchlive/go/internal/models"
	"github.com/mcdev12/matchlive/go/internal/snapshot"
	"github.com/mcdev12/matchlive/go/internal/stream"
)

// MaxBufferedPerMatch bounds the events kept for a tracked match whose snapshot has not
// arrived yet. Further events for that match are dropped.
const MaxBufferedPerMatch = 64

const fetchConcurrency = 4

// ErrClosed is returned by ListView operations after Close.
var ErrClosed = errors.New("view closed")

// ListKey identifies one side of one match in a list view.
type ListKey struct {
	MatchID string
	Side    models.Side
}

// CompetitionSummary is the competition header of a list view.
type CompetitionSummary struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Season string         `json:"season,omitempty"`
	Stages []models.Stage `json:"stages,omitempty"`
}

// ListState is what a list, grouped or standings renderer shows.
type ListState struct {
	Phase       Phase               `json:"phase"`
	Competition *CompetitionSummary `json:"competition,omitempty"`
	Matches     []livematch.State   `json:"matches"`
	Pending     []string            `json:"pending,omitempty"`
	Live        bool                `json:"live"`
}

// ListView shows many matches fed by the global channel it shares with other list views. Each match has its own
// reducer; highlight timers are keyed by match and side.
type ListView struct {
	cfg       Config
	loader    Loader
	hub       *stream.Hub
	clock     clockwork.Clock

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	start  sync.Once
	stop   sync.Once

	commands chan func()
	expiries chan highlight.Expiry[ListKey]

	// loop-owned
	order       []string
	reducers    map[string]*livematch.Reducer
	pending     map[string][]events.GlobalMatchEvent
	competition *CompetitionSummary
	phase       Phase
	sub         stream.Feed
	dropped     bool // the shared channel went away; stays off until remount
	overflow    int
	highlights  *highlight.Manager[ListKey]

	mu        sync.RWMutex
	published ListState
	listeners []func(ListState)
}

// NewListView creates a list view that receives updates through hub. Nothing happens until
// Start.
func NewListView(cfg Config, loader Loader, hub *stream.Hub, clock clockwork.Clock) *ListView {
	ctx, cancel := context.WithCancel(context.Background())
	v := &ListView{
		cfg:       cfg,
		loader:    loader,
		hub:       hub,
		clock:     clock,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		commands:  make(chan func()),
		expiries:  make(chan highlight.Expiry[ListKey]),
		reducers:  make(map[string]*livematch.Reducer),
		pending:   make(map[string][]events.GlobalMatchEvent),
		phase:     PhaseLoading,
	}
	v.highlights = highlight.NewManager(clock, cfg.ListHighlight, func(e highlight.Expiry[ListKey]) {
		forward(v.ctx, v.expiries, e)
	})
	v.published = ListState{Phase: PhaseLoading, Matches: []livematch.State{}}
	return v
}

// OnChange registers a callback invoked from the loop after every state change.
func (v *ListView) OnChange(fn func(ListState)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, fn)
}

// State returns the last published state.
func (v *ListView) State() ListState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.published
}

// Start launches the loop.
func (v *ListView) Start() {
	v.start.Do(func() {
		go v.run()
	})
}

// Close tears the view down and waits for the loop to exit.
func (v *ListView) Close() {
	v.stop.Do(func() {
		v.cancel()
		v.start.Do(func() { close(v.done) })
		<-v.done
		v.highlights.Close()
	})
}

// Track declares matches whose snapshots are on their way. Global events for them are
// buffered until Load installs the snapshot.
func (v *ListView) Track(matchIDs ...string) error {
	return v.do(func() {
		for _, id := range matchIDs {
			if _, loaded := v.reducers[id]; loaded {
				continue
			}
			if _, tracked := v.pending[id]; !tracked {
				v.pending[id] = nil
				v.order = append(v.order, id)
			}
		}
		v.attach()
		v.publish()
	})
}

// Untrack forgets matches that will never load, discarding their buffered events.
func (v *ListView) Untrack(matchIDs ...string) error {
	return v.do(func() {
		for _, id := range matchIDs {
			if _, tracked := v.pending[id]; !tracked {
				continue
			}
			delete(v.pending, id)
			v.removeFromOrder(id)
		}
		v.maybeDetach()
		v.publish()
	})
}

// Load installs snapshots, replaying any events buffered for them in arrival order.
// Loading a match again replaces its state.
func (v *ListView) Load(snaps ...models.MatchSnapshot) error {
	return v.do(func() {
		for _, snap := range snaps {
			v.install(snap)
		}
		v.phase = PhaseReady
		v.attach()
		v.maybeDetach()
		v.publish()
	})
}

// LoadCompetition fetches a competition and loads every match in it. Bracket matches the
// competition does not list are fetched one by one.
func (v *ListView) LoadCompetition(ctx context.Context, competitionID string) error {
	info, err := v.loader.FetchCompetition(ctx, competitionID)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			if doErr := v.do(func() {
				v.phase = PhaseNotFound
				v.publish()
			}); doErr != nil {
				return doErr
			}
		}
		return err
	}

	summary := &CompetitionSummary{ID: info.ID, Name: info.Name, Season: info.Season, Stages: info.Stages}
	if err := v.do(func() { v.competition = summary }); err != nil {
		return err
	}
	if err := v.Load(info.Matches...); err != nil {
		return err
	}

	if missing := info.UnlistedStageMatchIDs(); len(missing) > 0 {
		if err := v.FetchMatches(ctx, missing...); err != nil {
			log.Warn().Err(err).Str("competition_id", competitionID).Msg("bracket matches incomplete")
		}
	}
	return nil
}

// FetchMatches tracks the ids, then fetches their snapshots concurrently and loads each one as
// it arrives. Matches that do not exist are untracked; other failures are returned.
func (v *ListView) FetchMatches(ctx context.Context, matchIDs ...string) error {
	if err := v.Track(matchIDs...); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, id := range matchIDs {
		g.Go(func() error {
			snap, err := v.loader.FetchMatch(gctx, id)
			if errors.Is(err, snapshot.ErrNotFound) {
				log.Warn().Err(err).Str("match_id", id).Msg("tracked match not found")
				return v.Untrack(id)
			}
			if err != nil {
				return fmt.Errorf("fetch match %s: %w", id, err)
			}
			return v.Load(*snap)
		})
	}
	return g.Wait()
}

func (v *ListView) do(fn func()) error {
	v.Start()
	select {
	case <-v.ctx.Done():
		return ErrClosed
	default:
	}

	applied := make(chan struct{})
	wrapped := func() {
		fn()
		close(applied)
	}
	if !forward(v.ctx, v.commands, wrapped) {
		return ErrClosed
	}
	select {
	case <-applied:
		return nil
	case <-v.ctx.Done():
		return ErrClosed
	}
}

func (v *ListView) run() {
	defer close(v.done)
	defer v.teardown()

	for {
		select {
		case <-v.ctx.Done():
			return

		case fn := <-v.commands:
			fn()

		case msg := <-messages(v.sub):
			v.handleEvent(msg.Global)

		case <-disconnected(v.sub):
			log.Warn().Msg("global channel lost, list updates stopped")
			v.dropped = true
			v.detach()
			v.publish()

		case e := <-v.expiries:
			if !v.highlights.Claim(e) {
				continue
			}
			if r, ok := v.reducers[e.Key.MatchID]; ok {
				r.ResetHighlight(e.Key.Side)
				v.publish()
			}
		}
	}
}

func (v *ListView) teardown() {
	v.detach()
	v.highlights.CancelAll()
}

func (v *ListView) install(snap models.MatchSnapshot) {
	if _, loaded := v.reducers[snap.ID]; loaded {
		for _, side := range models.Sides {
			v.highlights.Cancel(ListKey{MatchID: snap.ID, Side: side})
		}
	} else if _, tracked := v.pending[snap.ID]; !tracked {
		v.order = append(v.order, snap.ID)
	}

	r := livematch.NewReducer(snap, v.clock.Now)
	v.reducers[snap.ID] = r

	buffered := v.pending[snap.ID]
	delete(v.pending, snap.ID)
	if len(buffered) > 0 {
		log.Debug().Str("match_id", snap.ID).Int("events", len(buffered)).Msg("replaying buffered events")
	}
	for _, ev := range buffered {
		v.applyGlobal(r, ev)
	}
}

func (v *ListView) handleEvent(ev events.GlobalMatchEvent) {
	id := string(ev.MatchID)

	if r, ok := v.reducers[id]; ok {
		if v.applyGlobal(r, ev) {
			v.maybeDetach()
			v.publish()
		}
		return
	}

	buffered, tracked := v.pending[id]
	if !tracked {
		log.Debug().Str("match_id", id).Msg("event for untracked match dropped")
		return
	}
	if len(buffered) >= MaxBufferedPerMatch {
		v.overflow++
		log.Warn().Str("match_id", id).Int("dropped", v.overflow).Msg("event buffer full, dropping event")
		return
	}
	v.pending[id] = append(buffered, ev)
}

func (v *ListView) applyGlobal(r *livematch.Reducer, ev events.GlobalMatchEvent) bool {
	effect, ok := r.ApplyGlobal(ev)
	if !ok {
		return false
	}
	for _, side := range effect.Highlight {
		v.highlights.Schedule(ListKey{MatchID: r.MatchID(), Side: side})
	}
	return true
}

// needsUpdates reports whether any match can still change.
func (v *ListView) needsUpdates() bool {
	if len(v.pending) > 0 {
		return true
	}
	for _, r := range v.reducers {
		if r.Active() {
			return true
		}
	}
	return false
}

func (v *ListView) attach() {
	if v.sub != nil || v.dropped || !v.needsUpdates() {
		return
	}
	feed, err := v.hub.Join(v.ctx)
	if err != nil {
		log.Warn().Err(err).Msg("list updates unavailable")
		return
	}
	v.sub = feed
}

func (v *ListView) maybeDetach() {
	if v.sub != nil && !v.needsUpdates() {
		log.Info().Msg("no live matches left, detaching from updates")
		v.detach()
	}
}

func (v *ListView) detach() {
	if v.sub == nil {
		return
	}
	if err := v.sub.Close(); err != nil {
		log.Debug().Err(err).Msg("leaving global channel")
	}
	v.sub = nil
}

func (v *ListView) removeFromOrder(id string) {
	for i, existing := range v.order {
		if existing == id {
			v.order = append(v.order[:i], v.order[i+1:]...)
			return
		}
	}
}

func (v *ListView) snapshot() ListState {
	ls := ListState{
		Phase:       v.phase,
		Competition: v.competition,
		Matches:     make([]livematch.State, 0, len(v.reducers)),
		Live:        v.sub != nil,
	}
	for _, id := range v.order {
		if r, ok := v.reducers[id]; ok {
			ls.Matches = append(ls.Matches, r.State())
			continue
		}
		ls.Pending = append(ls.Pending, id)
	}
	return ls
}

func (v *ListView) publish() {
	ls := v.snapshot()

	v.mu.Lock()
	v.published = ls
	listeners := append([]func(ListState){}, v.listeners...)
	v.mu.Unlock()

	for _, fn := range listeners {
		fn(ls)
	}
}
