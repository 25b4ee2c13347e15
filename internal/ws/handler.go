package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/playmatatu/slamdunk/internal/auth"
	"github.com/playmatatu/slamdunk/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are checked by middleware.WebSocketCORSCheck
	},
}

// Client represents a connected WebSocket client
type Client struct {
	conn       *websocket.Conn
	id         string
	role       string
	tableToken string
	send       chan []byte
}

func (c *Client) isHost() bool { return c.role == auth.RoleHost }

// Hub maintains the set of active clients, grouped by table
type Hub struct {
	clients    map[string]*Client            // clientID -> Client
	tableRooms map[string]map[string]*Client // table token -> clientID -> Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		tableRooms: make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// RoomSize returns the number of clients watching a table.
func (h *Hub) RoomSize(token string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tableRooms[token])
}

// BroadcastToTable sends a message to every client of a table
func (h *Hub) BroadcastToTable(token string, message interface{}) {
	h.sendToRoom(token, message, false)
}

// SendToHosts sends a message to the host clients of a table
func (h *Hub) SendToHosts(token string, message interface{}) {
	h.sendToRoom(token, message, true)
}

func (h *Hub) sendToRoom(token string, message interface{}, hostsOnly bool) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Warn("[WS] error marshaling message", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.tableRooms[token] {
		if hostsOnly && !client.isHost() {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Client's buffer is full
			log.Warn("[WS] send buffer full, dropping message", "client", client.id, "table", token)
		}
	}
}

// SendCommand relays a motion command to the table's hosts, which animate the
// bodies they render.
func (h *Hub) SendCommand(tableID string, cmd game.MotionCommand) {
	h.SendToHosts(tableID, cmd)
}

// BroadcastEvent delivers a table event to every client of the table.
func (h *Hub) BroadcastEvent(token string, payload map[string]interface{}) {
	h.BroadcastToTable(token, payload)
}

// Message types
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed; the hub dropped this client.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn("[WS] write error", "client", c.id, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn("[WS] ping error", "client", c.id, "error", err)
				return
			}
		}
	}
}

// sendJSON queues a message for this client only.
func (c *Client) sendJSON(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Warn("[WS] error marshaling message", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn("[WS] send buffer full, dropping message", "client", c.id)
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.sendJSON(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}
