package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wricardo/rat-race-game/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// Outbound messages buffered per client before it is dropped.
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	actor service.Actor
	rooms map[string]bool
}

// Hub tracks connected clients and which rooms they follow. It implements
// service.Notifier and dispatches inbound events to the game service.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client

	service service.GameService
	logger  *slog.Logger
	timeout time.Duration
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		logger:  logger,
		timeout: 10 * time.Second,
	}
}

// SetService attaches the service inbound events are dispatched to. It
// must be called before serving connections.
func (h *Hub) SetService(svc service.GameService) {
	h.service = svc
}

// ServeWS upgrades the request and registers a client for the given
// verified user.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID, name string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		actor: service.Actor{
			ConnectionID: uuid.NewString(),
			UserID:       userID,
			Name:         name,
		},
		rooms: make(map[string]bool),
	}
	h.registerClient(client)
	h.SendTo(client.actor.ConnectionID, EventConnected, client.actor)

	go client.writePump()
	go client.readPump()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAll sends an event to every connected client.
func (h *Hub) BroadcastAll(event string, payload any) {
	data, ok := h.encode(Message{Event: event, Data: payload})
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.clients {
		h.deliverLocked(client, data)
	}
}

// BroadcastRoom sends an event to the clients following a room.
func (h *Hub) BroadcastRoom(roomID, event string, payload any) {
	data, ok := h.encode(Message{Event: event, Data: payload})
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.rooms[roomID] {
		h.deliverLocked(client, data)
	}
}

// SendTo sends an event to one connection.
func (h *Hub) SendTo(connectionID, event string, payload any) {
	h.send(connectionID, Message{Event: event, Data: payload})
}

func (h *Hub) send(connectionID string, msg any) {
	data, ok := h.encode(msg)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[connectionID]; ok {
		h.deliverLocked(client, data)
	}
}

// Subscribe makes a connection receive a room's broadcasts.
func (h *Hub) Subscribe(connectionID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connectionID]
	if !ok {
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][connectionID] = client
	client.rooms[roomID] = true
}

// Unsubscribe stops a connection receiving a room's broadcasts.
func (h *Hub) Unsubscribe(connectionID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribeLocked(connectionID, roomID)
}

func (h *Hub) unsubscribeLocked(connectionID, roomID string) {
	if clients, ok := h.rooms[roomID]; ok {
		if client, ok := clients[connectionID]; ok {
			delete(client.rooms, roomID)
		}
		delete(clients, connectionID)
		if len(clients) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// registerClient adds a client
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.actor.ConnectionID] = client

	h.logger.Debug("client registered",
		"connection_id", client.actor.ConnectionID,
		"user_id", client.actor.UserID,
		"clients", len(h.clients))
}

// unregisterClient removes a client and its room subscriptions. Room
// membership is untouched so the player can rejoin after reconnecting.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregisterLocked(client)
}

func (h *Hub) unregisterLocked(client *Client) {
	id := client.actor.ConnectionID
	if h.clients[id] != client {
		return
	}
	for roomID := range client.rooms {
		h.unsubscribeLocked(id, roomID)
	}
	delete(h.clients, id)
	close(client.send)

	h.logger.Debug("client unregistered", "connection_id", id, "clients", len(h.clients))
}

// deliverLocked queues data for a client, dropping clients that fall
// behind.
func (h *Hub) deliverLocked(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.logger.Warn("client too slow, disconnecting", "connection_id", client.actor.ConnectionID)
		h.unregisterLocked(client)
	}
}

func (h *Hub) encode(msg any) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", "error", err)
		return nil, false
	}
	return data, true
}

// readPump reads inbound events and dispatches them in order
func (c *Client) readPump() {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read error", "connection_id", c.actor.ConnectionID, "error", err)
			}
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.hub.timeout)
		reply := c.hub.handle(ctx, c.actor, data)
		cancel()
		c.hub.send(c.actor.ConnectionID, reply)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
