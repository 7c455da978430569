package view

import (
	"context"
	"time"

	"github.com/mcdev12/matchlive/go/internal/config"
	"github.com/mcdev12/matchlive/go/internal/highlight"
	"github.com/mcdev12/matchlive/go/internal/matchclock"
	"github.com/mcdev12/matchlive/go/internal/models"
	"github.com/mcdev12/matchlive/go/internal/stream"
)

// Phase is the lifecycle phase of a view.
type Phase string

const (
	PhaseLoading  Phase = "loading"
	PhaseReady    Phase = "ready"
	PhaseNotFound Phase = "not_found"
)

// MatchLoader fetches one match snapshot.
type MatchLoader interface {
	FetchMatch(ctx context.Context, id string) (*models.MatchSnapshot, error)
}

// Loader fetches everything a list view can show.
type Loader interface {
	MatchLoader
	FetchCompetition(ctx context.Context, id string) (*models.CompetitionInfo, error)
}

// Config holds the per-view settings.
type Config struct {
	ClockMode       matchclock.Mode
	ListHighlight   time.Duration
	DetailHighlight time.Duration
}

// DefaultConfig uses the counter clock and the standard highlight durations.
func DefaultConfig() Config {
	return Config{
		ClockMode:       matchclock.ModeCounter,
		ListHighlight:   highlight.ListDuration,
		DetailHighlight: highlight.DetailDuration,
	}
}

// ConfigFrom derives view settings from the application configuration.
func ConfigFrom(cfg config.Config) Config {
	out := DefaultConfig()
	if cfg.ClockMode == config.ClockModeWall {
		out.ClockMode = matchclock.ModeWall
	}
	if cfg.ListHighlight > 0 {
		out.ListHighlight = cfg.ListHighlight
	}
	if cfg.DetailHighlight > 0 {
		out.DetailHighlight = cfg.DetailHighlight
	}
	return out
}

// messages returns the event channel of sub, nil when there is no subscription. A nil channel
// never fires in a select.
func messages(sub stream.Feed) <-chan stream.Message {
	if sub == nil {
		return nil
	}
	return sub.Events()
}

func disconnected(sub stream.Feed) <-chan struct{} {
	if sub == nil {
		return nil
	}
	return sub.Done()
}

// forward hands v to the loop unless the view has been closed.
func forward[T any](ctx context.Context, ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
