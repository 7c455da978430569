package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeWriteTimeout = time.Second

// WebSocketConnector dials the push channel over WebSocket. Match topics add a matchId query
// parameter to the channel URL.
type WebSocketConnector struct {
	url    string
	dialer *websocket.Dialer
	header http.Header
}

// NewWebSocketConnector creates a connector for the given ws:// or wss:// URL.
func NewWebSocketConnector(rawURL string) *WebSocketConnector {
	return &WebSocketConnector{
		url: rawURL,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
		header: make(http.Header),
	}
}

// SetHeader adds a header sent with every handshake.
func (c *WebSocketConnector) SetHeader(key, value string) {
	c.header.Set(key, value)
}

// TopicURL returns the URL dialled for topic.
func (c *WebSocketConnector) TopicURL(topic Topic) (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", fmt.Errorf("parse channel url: %w", err)
	}
	if topic.Kind == KindMatch {
		q := u.Query()
		q.Set("matchId", topic.MatchID)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *WebSocketConnector) Connect(ctx context.Context, topic Topic) (Source, error) {
	target, err := c.TopicURL(topic)
	if err != nil {
		return nil, err
	}

	conn, _, err := c.dialer.DialContext(ctx, target, c.header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return &wsSource{conn: conn}, nil
}

type wsSource struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

func (s *wsSource) Next(ctx context.Context) ([]byte, error) {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msgType == websocket.TextMessage || msgType == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (s *wsSource) Close() error {
	s.closeOnce.Do(func() {
		// WriteControl may run concurrently with the reader.
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWriteTimeout),
		)
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
