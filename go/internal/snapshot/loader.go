package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/matchlive/go/clients"
	api "github.com/mcdev12/matchlive/go/clients/football_api_client"
	"github.com/mcdev12/matchlive/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Backend defines what the loader needs from the snapshot API client
type Backend interface {
	GetMatch(ctx context.Context, id string) (*api.Match, error)
	GetTeam(ctx context.Context, id string) (*api.Team, error)
	GetCompetition(ctx context.Context, id string) (*api.Competition, error)
}

// Loader fetches snapshots and maps them to the internal model
type Loader struct {
	backend Backend
}

// NewLoader creates a new snapshot Loader
func NewLoader(backend Backend) *Loader {
	return &Loader{backend: backend}
}

// FetchMatch retrieves one match snapshot
func (l *Loader) FetchMatch(ctx context.Context, id string) (*models.MatchSnapshot, error) {
	m, err := l.backend.GetMatch(ctx, id)
	if err != nil {
		return nil, classify("match", id, err)
	}
	snap, err := mapMatch(*m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return &snap, nil
}

// FetchTeam retrieves one team snapshot with its fixtures
func (l *Loader) FetchTeam(ctx context.Context, id string) (*models.TeamInfo, error) {
	t, err := l.backend.GetTeam(ctx, id)
	if err != nil {
		return nil, classify("team", id, err)
	}
	info, err := mapTeam(*t)
	if err != nil {
		return nil, fmt.Errorf("%w: team %s: %w", ErrTransient, id, err)
	}
	return &info, nil
}

// FetchCompetition retrieves one competition snapshot with its matches and stages
func (l *Loader) FetchCompetition(ctx context.Context, id string) (*models.CompetitionInfo, error) {
	c, err := l.backend.GetCompetition(ctx, id)
	if err != nil {
		return nil, classify("competition", id, err)
	}
	info, err := mapCompetition(*c)
	if err != nil {
		return nil, fmt.Errorf("%w: competition %s: %w", ErrTransient, id, err)
	}
	return &info, nil
}

// classify maps a backend failure onto the NotFound / Transient taxonomy.
func classify(kind, id string, err error) error {
	var statusErr *clients.StatusError
	if errors.As(err, &statusErr) {
		log.Warn().
			Str("kind", kind).
			Str("id", id).
			Int("status_code", statusErr.Code).
			Msg("snapshot fetch returned non-success status")
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	log.Warn().Err(err).Str("kind", kind).Str("id", id).Msg("snapshot fetch failed")
	return fmt.Errorf("%w: %w", ErrTransient, err)
}
