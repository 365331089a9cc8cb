// Package realtime pushes race state to browsers over WebSocket. The
// hub tracks connections per player; a player may watch the same race
// from several tabs.
package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/adaptivemaze/amaze-api/service/i"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The JWT middleware already gates the upgrade endpoint.
		return true
	},
}

// Message is the envelope for every frame sent to a client.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client represents one WebSocket connection of a player.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	playerID uuid.UUID
}

// Hub maintains the set of active clients keyed by player and fans
// race events out to them.
type Hub struct {
	// Registered clients by player ID.
	players map[uuid.UUID]map[*Client]bool

	// Register requests from clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Outbound events.
	outbound chan outboundEvent

	logger i.Logger
}

type outboundEvent struct {
	playerID uuid.UUID
	data     []byte
}

var _ i.Broadcaster = &Hub{}

// NewHub creates a WebSocket hub.
func NewHub(logger i.Logger) *Hub {
	return &Hub{
		players:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan outboundEvent, 64),
		logger:     logger,
	}
}

// Run starts the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case ev := <-h.outbound:
			h.deliver(ev)
		}
	}
}

// ServeWS upgrades an authenticated request to a WebSocket connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, playerID uuid.UUID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error(fmt.Sprintf("WebSocket upgrade failed: %v", err))
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 256),
		playerID: playerID,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// BroadcastToPlayer queues an event for every connection of the player.
// Events for players without connections are dropped.
func (h *Hub) BroadcastToPlayer(playerID uuid.UUID, event string, payload []byte) {
	msg := Message{Event: event, Payload: payload}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error(fmt.Sprintf("Marshaling %s event: %v", event, err))
		return
	}

	select {
	case h.outbound <- outboundEvent{playerID: playerID, data: data}:
	default:
		h.logger.Warning(fmt.Sprintf("Dropping %s event for %s: hub backlog full", event, playerID))
	}
}

// registerClient adds a connection to its player's set.
func (h *Hub) registerClient(client *Client) {
	if h.players[client.playerID] == nil {
		h.players[client.playerID] = make(map[*Client]bool)
	}
	h.players[client.playerID][client] = true

	h.logger.Info(fmt.Sprintf("Client connected for player %s (connections: %d)",
		client.playerID, len(h.players[client.playerID])))
}

// unregisterClient removes a connection from its player's set.
func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.players[client.playerID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.players, client.playerID)
	}

	h.logger.Info(fmt.Sprintf("Client disconnected for player %s (remaining: %d)",
		client.playerID, len(clients)))
}

// deliver sends one queued event to all connections of its player.
func (h *Hub) deliver(ev outboundEvent) {
	for client := range h.players[ev.playerID] {
		select {
		case client.send <- ev.data:
		default:
			// The client stopped draining; drop it.
			h.unregisterClient(client)
		}
	}
}

// readPump keeps the connection alive. Game input arrives over the
// REST API, so inbound frames are discarded.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warning(fmt.Sprintf("WebSocket read: %v", err))
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
