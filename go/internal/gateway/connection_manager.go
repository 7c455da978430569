package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Mount is the view a connection renders. It is closed when the connection goes away.
type Mount interface {
	HandleCommand(cmd Command) error
	Close()
}

// MountFunc builds the view of a freshly upgraded connection.
type MountFunc func(c *Connection) (Mount, error)

// ConnectionManager manages WebSocket connections, grouped by the entity they watch
type ConnectionManager struct {
	// Connection pools keyed by "match:<id>" or "competition:<id>"
	connections map[string]map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID      string
	Key     string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time

	mu     sync.Mutex
	mount  Mount
	closed bool
	once   sync.Once
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		SendBufferSize:  256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and mounts its view
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, key string, mount MountFunc) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Key:         key,
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	m, err := mount(connection)
	if err != nil {
		log.Error().Err(err).Str("connection_id", connection.ID).Str("key", key).Msg("failed to mount view")
		connection.SendFrame(FrameError, ErrorPayload{Message: err.Error()})
		cm.unregisterConnection(connection)
		return nil
	}
	connection.setMount(m)

	log.Info().
		Str("connection_id", connection.ID).
		Str("key", key).
		Msg("WebSocket connection established")

	return nil
}

// registerConnection adds a connection to the manager
func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.connections[conn.Key] == nil {
		cm.connections[conn.Key] = make(map[*Connection]bool)
	}
	cm.connections[conn.Key][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("key", conn.Key).
		Int("total_connections", len(cm.connections[conn.Key])).
		Msg("connection registered")
}

// unregisterConnection removes a connection from the manager and tears down its view
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	removed := false
	if connections, exists := cm.connections[conn.Key]; exists {
		if _, exists := connections[conn]; exists {
			delete(connections, conn)
			removed = true
			if len(connections) == 0 {
				delete(cm.connections, conn.Key)
			}
		}
	}
	cm.mu.Unlock()

	conn.close()

	if removed {
		log.Info().
			Str("connection_id", conn.ID).
			Str("key", conn.Key).
			Msg("connection unregistered")
	}
}

// CloseAll disconnects every client
func (cm *ConnectionManager) CloseAll() {
	cm.mu.RLock()
	var all []*Connection
	for _, connections := range cm.connections {
		for conn := range connections {
			all = append(all, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range all {
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}
}

// ConnectionStats summarises the active connections
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveViews      int            `json:"active_views"`
	ViewConnections  map[string]int `json:"view_connections"`
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{ViewConnections: make(map[string]int)}
	for key, connections := range cm.connections {
		stats.TotalConnections += len(connections)
		stats.ViewConnections[key] = len(connections)
	}
	stats.ActiveViews = len(cm.connections)
	return stats
}

func (c *Connection) setMount(m Mount) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		m.Close()
		return
	}
	c.mount = m
	c.mu.Unlock()
}

// close stops delivery and tears down the mounted view. Safe to call from any goroutine
// except a view's own loop.
func (c *Connection) close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		m := c.mount
		c.mount = nil
		close(c.Send)
		c.mu.Unlock()

		if m != nil {
			m.Close()
		}
	})
}

// SendFrame queues a frame for the client. It never blocks: a client that cannot keep up is
// disconnected.
func (c *Connection) SendFrame(t FrameType, data any) {
	payload, err := json.Marshal(Frame{
		Type:         t,
		ConnectionID: c.ID,
		Timestamp:    time.Now(),
		Data:         data,
	})
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to marshal frame")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.Send <- payload:
	default:
		log.Warn().
			Str("connection_id", c.ID).
			Msg("connection send buffer full, closing connection")
		// Views call SendFrame from their loop; tearing the view down must happen elsewhere.
		go func() {
			c.Manager.unregisterConnection(c)
			c.Conn.Close()
		}()
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump handles reading messages from the WebSocket connection
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage passes client commands to the mounted view
func (c *Connection) handleClientMessage(message []byte) {
	cmd, err := ParseCommand(message)
	if err != nil {
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("ignoring unreadable client message")
		c.SendFrame(FrameError, ErrorPayload{Message: "unreadable command"})
		return
	}

	c.mu.Lock()
	m := c.mount
	c.mu.Unlock()
	if m == nil {
		return
	}

	if err := m.HandleCommand(cmd); err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", c.ID).
			Str("action", string(cmd.Action)).
			Msg("client command rejected")
		c.SendFrame(FrameError, ErrorPayload{Message: err.Error()})
	}
}
