package main

import (
	"fmt"

	"github.com/jonboulle/clockwork"

	api "github.com/mcdev12/matchlive/go/clients/football_api_client"
	"github.com/mcdev12/matchlive/go/internal/config"
	"github.com/mcdev12/matchlive/go/internal/gateway"
	"github.com/mcdev12/matchlive/go/internal/snapshot"
	"github.com/mcdev12/matchlive/go/internal/stream"
)

type Services struct {
	Loader    *snapshot.Loader
	Connector stream.Connector
	Gateway   *gateway.Service
}

func setupServices(cfg config.Config) (*Services, error) {
	// Backend client → snapshot loader; push connector; both feed the gateway's views.
	client := api.NewClient(cfg.MatchesBaseURL, cfg.TeamsBaseURL, cfg.CompetitionsBaseURL, cfg.HTTPTimeout)
	loader := snapshot.NewLoader(client)

	connector, err := stream.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create push connector: %w", err)
	}

	gatewayService := gateway.NewService(gateway.ConfigFrom(cfg), loader, connector, clockwork.NewRealClock())

	return &Services{
		Loader:    loader,
		Connector: connector,
		Gateway:   gatewayService,
	}, nil
}
