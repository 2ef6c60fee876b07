package websocket

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"bluetrust/registry-backend/internal/notifications"
)

// Manager handles WebSocket connections and event fan-out.
type Manager struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	hub         *Hub
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// Connection represents one WebSocket subscriber.
type Connection struct {
	ID           string
	Conn         *websocket.Conn
	Send         chan notifications.Event
	LastActivity time.Time
}

// Hub manages the broadcast of events to connections.
type Hub struct {
	connections map[*Connection]bool
	broadcast   chan notifications.Event
	register    chan *Connection
	unregister  chan *Connection
	stop        chan struct{}
}

// NewManager creates a WebSocket manager and starts its hub.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	hub := &Hub{
		connections: make(map[*Connection]bool),
		broadcast:   make(chan notifications.Event, 256),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		stop:        make(chan struct{}),
	}
	go hub.run()

	return &Manager{
		connections: make(map[string]*Connection),
		hub:         hub,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// In production, implement proper origin checking
				return true
			},
		},
	}
}

// HandleConnection upgrades an HTTP request to a WebSocket subscription.
func (m *Manager) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:           uuid.New().String(),
		Conn:         conn,
		Send:         make(chan notifications.Event, 256),
		LastActivity: time.Now(),
	}

	m.mu.Lock()
	m.connections[connection.ID] = connection
	m.mu.Unlock()
	m.hub.register <- connection

	go m.writePump(connection)
	go m.readPump(connection)

	m.logger.Debug("websocket connected", zap.String("connection_id", connection.ID))
	return nil
}

// Broadcast queues an event for every connected subscriber.
func (m *Manager) Broadcast(event notifications.Event) {
	select {
	case m.hub.broadcast <- event:
	default:
		m.logger.Warn("broadcast queue full, dropping event", zap.String("type", string(event.Type)))
	}
}

// Stop shuts down the hub and closes all connections.
func (m *Manager) Stop() {
	close(m.hub.stop)
}

func (m *Manager) writePump(c *Connection) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (m *Manager) readPump(c *Connection) {
	defer func() {
		m.hub.unregister <- c
		m.mu.Lock()
		delete(m.connections, c.ID)
		m.mu.Unlock()
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
		c.LastActivity = time.Now()
	}
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.connections[conn] = true
		case conn := <-h.unregister:
			if _, ok := h.connections[conn]; ok {
				delete(h.connections, conn)
				close(conn.Send)
			}
		case event := <-h.broadcast:
			for conn := range h.connections {
				select {
				case conn.Send <- event:
				default:
					// Slow consumer; drop rather than block the hub.
				}
			}
		case <-h.stop:
			for conn := range h.connections {
				close(conn.Send)
			}
			return
		}
	}
}
