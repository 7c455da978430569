package stream

import (
	"context"
	"errors"
	"sync"
)

var errSourceClosed = errors.New("source closed")

type fakeSource struct {
	payloads  chan []byte
	failures  chan error
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		payloads: make(chan []byte, 16),
		failures: make(chan error, 1),
		closed:   make(chan struct{}),
	}
}

func (s *fakeSource) Next(ctx context.Context) ([]byte, error) {
	select {
	case data := <-s.payloads:
		return data, nil
	case err := <-s.failures:
		return nil, err
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

type fakeConnector struct {
	mu     sync.Mutex
	source *fakeSource
	topics []Topic
	err    error
}

func (c *fakeConnector) Connect(ctx context.Context, topic Topic) (Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	if c.err != nil {
		return nil, c.err
	}
	return c.source, nil
}
