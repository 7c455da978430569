package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/matchlive/go/internal/knockout"
	"github.com/mcdev12/matchlive/go/internal/view"
)

var (
	ErrNoBracket      = errors.New("competition has no knockout stages")
	ErrUnknownCommand = errors.New("unknown command")
)

// matchMount renders one MatchView. It accepts no commands.
type matchMount struct {
	view *view.MatchView
}

func (m *matchMount) HandleCommand(cmd Command) error {
	return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Action)
}

func (m *matchMount) Close() {
	m.view.Close()
}

// competitionMount renders a ListView of a competition and, once the competition is loaded,
// a knockout navigator over its stages.
type competitionMount struct {
	list *view.ListView

	mu        sync.Mutex
	navigator *knockout.Navigator
	closed    bool
}

func (m *competitionMount) setNavigator(n *knockout.Navigator) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.navigator = n
	return true
}

func (m *competitionMount) HandleCommand(cmd Command) error {
	m.mu.Lock()
	n := m.navigator
	m.mu.Unlock()
	if n == nil {
		return ErrNoBracket
	}

	switch cmd.Action {
	case ActionNext:
		return n.Next(cmd.Index)
	case ActionPrevious:
		return n.Previous(cmd.Index)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Action)
	}
}

func (m *competitionMount) Close() {
	m.mu.Lock()
	m.closed = true
	n := m.navigator
	m.navigator = nil
	m.mu.Unlock()

	if n != nil {
		n.Close()
	}
	m.list.Close()
}

// mountMatch builds the detail view of matchID for c.
func (s *Service) mountMatch(matchID string) MountFunc {
	return func(c *Connection) (Mount, error) {
		v := view.NewMatchView(s.config.View, s.loader, s.connector, s.clock, matchID)
		v.OnChange(func(ds view.DisplayState) {
			c.SendFrame(FrameMatchState, ds)
		})
		v.Start()
		return &matchMount{view: v}, nil
	}
}

// mountCompetition builds the list view of competitionID for c. The competition is fetched in
// the background; the bracket becomes available once it has loaded. A fetch still running when
// the connection closes is left to finish and its result is discarded.
func (s *Service) mountCompetition(competitionID string) MountFunc {
	return func(c *Connection) (Mount, error) {
		list := view.NewListView(s.config.View, s.loader, s.hub, s.clock)
		list.OnChange(func(ls view.ListState) {
			c.SendFrame(FrameListState, ls)
		})
		list.Start()

		m := &competitionMount{list: list}

		go func() {
			err := list.LoadCompetition(context.Background(), competitionID)
			if errors.Is(err, view.ErrClosed) {
				log.Debug().Str("competition_id", competitionID).Msg("competition loaded after close, discarded")
				return
			}
			if err != nil {
				log.Warn().Err(err).Str("competition_id", competitionID).Msg("competition unavailable")
				c.SendFrame(FrameError, ErrorPayload{Message: err.Error()})
				return
			}

			comp := list.State().Competition
			if comp == nil || len(comp.Stages) == 0 {
				return
			}
			nav, err := knockout.NewNavigator(s.clock, s.config.KnockoutHighlight, comp.Stages, 0)
			if err != nil {
				log.Warn().Err(err).Str("competition_id", competitionID).Msg("bracket unavailable")
				return
			}
			nav.OnChange(func(v knockout.View) {
				c.SendFrame(FrameBracket, v)
			})
			if !m.setNavigator(nav) {
				nav.Close()
				return
			}
			c.SendFrame(FrameBracket, nav.View())
		}()

		return m, nil
	}
}
