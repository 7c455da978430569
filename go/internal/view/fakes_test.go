package view

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mcdev12/matchlive/go/internal/models"
	"github.com/mcdev12/matchlive/go/internal/stream"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

var errSourceClosed = errors.New("source closed")

type fakeSource struct {
	topic     stream.Topic
	payloads  chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func (s *fakeSource) Next(ctx context.Context) ([]byte, error) {
	select {
	case data := <-s.payloads:
		return data, nil
	case <-s.closed:
		return nil, errSourceClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *fakeSource) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeSource) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *fakeSource) send(t *testing.T, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	select {
	case s.payloads <- data:
	case <-time.After(waitFor):
		t.Fatal("source payload not consumed")
	}
}

type fakeConnector struct {
	mu      sync.Mutex
	sources []*fakeSource
}

func (c *fakeConnector) Connect(ctx context.Context, topic stream.Topic) (stream.Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &fakeSource{topic: topic, payloads: make(chan []byte), closed: make(chan struct{})}
	c.sources = append(c.sources, s)
	return s, nil
}

func (c *fakeConnector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sources)
}

// waitSource returns the n-th opened source (0-based).
func (c *fakeConnector) waitSource(t *testing.T, n int) *fakeSource {
	t.Helper()
	require.Eventually(t, func() bool { return c.count() > n }, waitFor, tick)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sources[n]
}

type fetchResult struct {
	snap *models.MatchSnapshot
	err  error
}

// fakeLoader answers fetches from fixed results. When gate is set, FetchMatch blocks on it.
type fakeLoader struct {
	mu           sync.Mutex
	matches      map[string]fetchResult
	competitions map[string]*models.CompetitionInfo
	gate         chan struct{}
	calls        []string
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		matches:      make(map[string]fetchResult),
		competitions: make(map[string]*models.CompetitionInfo),
	}
}

func (l *fakeLoader) FetchMatch(ctx context.Context, id string) (*models.MatchSnapshot, error) {
	l.mu.Lock()
	l.calls = append(l.calls, id)
	gate := l.gate
	res, ok := l.matches[id]
	l.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if !ok {
		return nil, errors.New("unexpected fetch " + id)
	}
	return res.snap, res.err
}

func (l *fakeLoader) fetched() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *fakeLoader) FetchCompetition(ctx context.Context, id string) (*models.CompetitionInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	info, ok := l.competitions[id]
	if !ok {
		return nil, errors.New("unexpected fetch " + id)
	}
	return info, nil
}

func matchSnapshot(id string, status models.MatchStatus, anchor *time.Time) models.MatchSnapshot {
	return models.MatchSnapshot{
		ID:                 id,
		Status:             status,
		StatusLastModified: anchor,
		HomeTeam:           models.TeamRef{ID: "home", Name: "Home FC"},
		AwayTeam:           models.TeamRef{ID: "away", Name: "Away FC"},
	}
}

// matchPayload builds a per-match channel payload.
func matchPayload(id string, event map[string]any) map[string]any {
	return map[string]any{"id": id, "event": event}
}

func goal(teamID string) map[string]any {
	return map[string]any{"type": "GOAL", "minute": 10, "teamId": teamID}
}

func status(s models.MatchStatus) map[string]any {
	return map[string]any{"type": "STATUS", "minute": 90, "status": s}
}
