package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/playmatatu/slamdunk/internal/auth"
	"github.com/playmatatu/slamdunk/internal/config"
	"github.com/playmatatu/slamdunk/internal/game"
)

// Message types sent by clients.
const (
	MsgShot         = "shot"
	MsgReset        = "reset"
	MsgContactBegin = "contact_begin"
	MsgContactEnd   = "contact_end"
	MsgGetState     = "get_state"
)

// ContactEndData names the pair that stopped touching.
type ContactEndData struct {
	A game.BodyID `json:"a"`
	B game.BodyID `json:"b"`
}

// TableHub is the single hub for all tables.
var TableHub *Hub

func init() {
	TableHub = NewHub()
	go runTableHub(TableHub)
}

var clientSeq atomic.Int64

func nextClientID(token, role string) string {
	return fmt.Sprintf("%s:%s:%d", token, role, clientSeq.Add(1))
}

// HandleWebSocket upgrades a table connection. The t query parameter carries
// a host or viewer token for the table.
func HandleWebSocket(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		raw := c.Query("t")
		if token == "" || raw == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "table token and t required"})
			return
		}

		claims, err := auth.ParseTableToken(cfg.JWTSecret, token, raw)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid table token"})
			return
		}

		if _, err := game.Manager.GetTableByToken(token); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("[WS] upgrade error", "error", err)
			return
		}

		client := &Client{
			conn:       conn,
			id:         nextClientID(token, claims.Role),
			role:       claims.Role,
			tableToken: token,
			send:       make(chan []byte, 256),
		}

		TableHub.register <- client

		go client.writePump()
		go client.readPump()
	}
}

// runTableHub registers and drops clients. New clients get the current table state.
func runTableHub(h *Hub) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			if _, exists := h.tableRooms[client.tableToken]; !exists {
				h.tableRooms[client.tableToken] = make(map[string]*Client)
			}
			h.tableRooms[client.tableToken][client.id] = client
			size := len(h.tableRooms[client.tableToken])
			h.mu.Unlock()

			log.Info("[WS] client connected", "client", client.id, "role", client.role, "table", client.tableToken, "room_size", size)

			s, err := game.Manager.GetTableByToken(client.tableToken)
			if err != nil {
				log.Warn("[WS] table not found", "table", client.tableToken, "error", err)
				continue
			}
			client.sendJSON(stateMessage(s))

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.id]; ok && cur == client {
				delete(h.clients, client.id)
				if room, exists := h.tableRooms[client.tableToken]; exists {
					delete(room, client.id)
					if len(room) == 0 {
						delete(h.tableRooms, client.tableToken)
					}
				}
				close(client.send)
				log.Info("[WS] client disconnected", "client", client.id, "table", client.tableToken)
			}
			h.mu.Unlock()
		}
	}
}

func stateMessage(s *game.TableSession) map[string]interface{} {
	return map[string]interface{}{
		"type":        game.PublishTableState,
		"table_token": s.Token,
		"state":       s.Engine.Snapshot(),
	}
}

// readPump reads messages from a table client.
func (c *Client) readPump() {
	defer func() {
		TableHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("[WS] unexpected close", "client", c.id, "error", err)
			} else {
				log.Debug("[WS] read error", "client", c.id, "error", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage processes incoming table messages.
func (c *Client) handleMessage(msg WSMessage) {
	s, err := game.Manager.GetTableByToken(c.tableToken)
	if err != nil {
		c.sendError("Table not found")
		return
	}

	if msg.Type == MsgGetState {
		c.sendJSON(stateMessage(s))
		return
	}

	if !c.isHost() {
		c.sendError("Only the host can drive the table")
		return
	}

	switch msg.Type {
	case MsgShot:
		var shot game.Shot
		if err := json.Unmarshal(msg.Data, &shot); err != nil {
			c.sendError("Invalid shot data")
			return
		}
		c.handleShot(s, shot)

	case MsgReset:
		if err := game.Manager.Reset(s); err != nil {
			c.sendError(err.Error())
		}

	case MsgContactBegin:
		var contact game.Contact
		if err := json.Unmarshal(msg.Data, &contact); err != nil {
			c.sendError("Invalid contact data")
			return
		}
		c.handleContactBegin(s, contact)

	case MsgContactEnd:
		var data ContactEndData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid contact data")
			return
		}
		if err := game.Manager.ContactEnd(s, data.A, data.B); err != nil {
			c.sendError(err.Error())
		}

	default:
		c.sendError("Unknown message type")
	}
}

func (c *Client) handleShot(s *game.TableSession, shot game.Shot) {
	res, err := game.Manager.Shoot(s, shot)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if !res.Applied {
		return
	}
	TableHub.BroadcastToTable(c.tableToken, stateMessage(s))
}

func (c *Client) handleContactBegin(s *game.TableSession, contact game.Contact) {
	_, err := game.Manager.ContactBegin(s, contact)
	switch {
	case err == nil:
	case errors.Is(err, game.ErrUnknownBody):
		// Stale ids are expected while the host catches up with a reset.
		log.Debug("[WS] contact with unknown body", "client", c.id, "error", err)
	default:
		c.sendError(err.Error())
	}
}
