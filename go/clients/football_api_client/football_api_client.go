package football_api_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/mcdev12/matchlive/go/clients"
)

// Client reads match, team and competition snapshots from three resource base URLs.
type Client struct {
	matches      *clients.BaseClient
	teams        *clients.BaseClient
	competitions *clients.BaseClient
}

func NewClient(matchesBaseURL, teamsBaseURL, competitionsBaseURL string, timeout time.Duration) *Client {
	c := &Client{
		matches:      clients.NewBaseClient(matchesBaseURL, timeout),
		teams:        clients.NewBaseClient(teamsBaseURL, timeout),
		competitions: clients.NewBaseClient(competitionsBaseURL, timeout),
	}
	for _, bc := range []*clients.BaseClient{c.matches, c.teams, c.competitions} {
		bc.SetHeader(AcceptHeader, JsonContentType)
	}
	return c
}

func getJSON[T any](ctx context.Context, bc *clients.BaseClient, id string) (*T, error) {
	body, err := bc.Get(ctx, "/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	return &out, nil
}

func (c *Client) GetMatch(ctx context.Context, id string) (*Match, error) {
	m, err := getJSON[Match](ctx, c.matches, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get match %s: %w", id, err)
	}
	return m, nil
}

func (c *Client) GetTeam(ctx context.Context, id string) (*Team, error) {
	t, err := getJSON[Team](ctx, c.teams, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get team %s: %w", id, err)
	}
	return t, nil
}

func (c *Client) GetCompetition(ctx context.Context, id string) (*Competition, error) {
	comp, err := getJSON[Competition](ctx, c.competitions, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get competition %s: %w", id, err)
	}
	return comp, nil
}
