package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/matchlive/go/internal/config"
	"github.com/mcdev12/matchlive/go/internal/highlight"
	"github.com/mcdev12/matchlive/go/internal/stream"
	"github.com/mcdev12/matchlive/go/internal/view"
)

// Service serves live match views to WebSocket clients. Every connection mounts its own
// view; list views share the global channel through one hub.
type Service struct {
	config            Config
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	loader            SnapshotProvider
	connector         stream.Connector
	hub               *stream.Hub
	clock             clockwork.Clock
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig  ConnectionConfig
	View              view.Config
	KnockoutHighlight time.Duration
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig:  DefaultConnectionConfig(),
		View:              view.DefaultConfig(),
		KnockoutHighlight: highlight.KnockoutDuration,
	}
}

// ConfigFrom derives the gateway configuration from the application configuration.
func ConfigFrom(cfg config.Config) Config {
	out := DefaultConfig()
	out.View = view.ConfigFrom(cfg)
	if cfg.KnockoutHighlight > 0 {
		out.KnockoutHighlight = cfg.KnockoutHighlight
	}
	return out
}

// NewService creates a new gateway service
func NewService(config Config, loader SnapshotProvider, connector stream.Connector, clock clockwork.Clock) *Service {
	s := &Service{
		config:            config,
		connectionManager: NewConnectionManager(config.ConnectionConfig),
		loader:            loader,
		connector:         connector,
		hub:               stream.NewHub(connector),
		clock:             clock,
	}
	s.wsHandler = NewWebSocketHandler(s)
	s.stateHandler = NewStateHandler(loader, clock)
	return s
}

// Start blocks until ctx is cancelled, then disconnects every client.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting match gateway service")
	<-ctx.Done()

	log.Info().Msg("match gateway service shutting down")
	return s.Stop()
}

// Stop closes every connection and its view.
func (s *Service) Stop() error {
	s.connectionManager.CloseAll()
	if err := s.hub.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close global channel")
	}
	log.Info().Msg("match gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("match gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}
